package wellness

import "time"

// RecoveryStatus is the classified readiness bucket for a day.
type RecoveryStatus string

const (
	RecoveryGreen   RecoveryStatus = "green"
	RecoveryYellow  RecoveryStatus = "yellow"
	RecoveryRed     RecoveryStatus = "red"
	RecoveryUnknown RecoveryStatus = "unknown"
)

// SleepStatus is a separate 4-bucket classification of sleep duration.
type SleepStatus string

const (
	SleepExcellent    SleepStatus = "excellent"
	SleepAdequate     SleepStatus = "adequate"
	SleepPoor         SleepStatus = "poor"
	SleepInsufficient SleepStatus = "insufficient"
	SleepUnknown      SleepStatus = "unknown"
)

// Record is one calendar day of raw physiological data. Zero values mean
// "not reported"; RecoveryScore is a pointer because 0 is a valid score.
type Record struct {
	Date          time.Time
	SleepHours    float64
	SleepQuality  int // 1-5
	RestingHR     int
	HRV           float64
	RecoveryScore *float64 // 0-100
	Soreness      int      // 1-5
	Fatigue       int      // 1-5
	Stress        int      // 1-5
	Mood          int      // 1-5
}

// HasData reports whether any physiological field is populated. Today's
// record may be empty when the wearable has not synced yet; callers search
// backward for the latest record with data instead of treating that as
// "no data".
func (r Record) HasData() bool {
	return r.SleepHours > 0 || r.HRV > 0 || r.RecoveryScore != nil
}

// Summary is the classified wellness state consumed by the rest of the
// pipeline.
type Summary struct {
	Date              time.Time
	RecoveryStatus    RecoveryStatus
	SleepStatus       SleepStatus
	IntensityModifier float64 // multiplicative fatigue discount, [0,1]

	RecoveryScore *float64
	HRV           float64
	RestingHR     int
	SleepHours    float64
	Soreness      int
	Fatigue       int

	AvgSleepHours    float64
	AvgHRV           float64
	AvgRestingHR     float64
	AvgRecoveryScore *float64
	SleepDebtHours   float64
}
