package wellness

import (
	"log/slog"
	"time"
)

// Classification thresholds. Recovery scores follow the common 0-100
// wearable scale; HRV classification is relative to the athlete's own
// 7-day baseline.
const (
	recoveryGreenThreshold = 66.0
	recoveryRedThreshold   = 33.0

	hrvAboveBaselinePct = 5.0
	hrvBelowBaselinePct = -10.0

	sleepExcellentHours = 8.0
	sleepAdequateHours  = 7.0
	sleepPoorHours      = 6.0
	sleepTargetHours    = 8.0

	modifierGreen   = 1.0
	modifierYellow  = 0.8
	modifierRed     = 0.5
	modifierNeutral = 0.85
)

// Aggregate converts a window of daily records (newest first) into one
// classified Summary. An empty window yields an "unknown" summary with the
// neutral intensity modifier, never an error.
func Aggregate(logger *slog.Logger, records []Record) Summary {
	summary := Summary{
		RecoveryStatus:    RecoveryUnknown,
		SleepStatus:       SleepUnknown,
		IntensityModifier: modifierNeutral,
	}

	latest, ok := latestWithData(records)
	if !ok {
		logger.Warn("wellness: no populated records in window", "window_days", len(records))
		return summary
	}

	summary.Date = latest.Date
	summary.RecoveryScore = latest.RecoveryScore
	summary.HRV = latest.HRV
	summary.RestingHR = latest.RestingHR
	summary.SleepHours = latest.SleepHours
	summary.Soreness = latest.Soreness
	summary.Fatigue = latest.Fatigue

	// 7-day averages over populated values only; missing days are excluded
	// from the denominator, not counted as zero.
	window := records
	if len(window) > 7 {
		window = window[:7]
	}
	summary.AvgSleepHours = averageOf(window, func(r Record) (float64, bool) {
		return r.SleepHours, r.SleepHours > 0
	})
	summary.AvgHRV = averageOf(window, func(r Record) (float64, bool) {
		return r.HRV, r.HRV > 0
	})
	summary.AvgRestingHR = averageOf(window, func(r Record) (float64, bool) {
		return float64(r.RestingHR), r.RestingHR > 0
	})
	if avgScore, n := sumRecoveryScores(window); n > 0 {
		avg := avgScore / float64(n)
		summary.AvgRecoveryScore = &avg
	}
	summary.SleepDebtHours = sleepDebt(window)

	summary.RecoveryStatus = classifyRecovery(latest, summary.AvgHRV)
	summary.SleepStatus = classifySleep(latest.SleepHours)
	summary.IntensityModifier = intensityModifier(summary.RecoveryStatus)

	logger.Debug("wellness: summary built",
		"recovery_status", summary.RecoveryStatus,
		"sleep_status", summary.SleepStatus,
		"intensity_modifier", summary.IntensityModifier,
	)

	return summary
}

// MergeFresh overlays a same-day wearable reading onto the primary feed.
// The wearable source is fresher than the fitness-tracking sync, so its
// populated fields win for matching dates.
func MergeFresh(records []Record, fresh *Record) []Record {
	if fresh == nil || !fresh.HasData() {
		return records
	}

	merged := make([]Record, len(records))
	copy(merged, records)

	for i := range merged {
		if sameDay(merged[i].Date, fresh.Date) {
			if fresh.SleepHours > 0 {
				merged[i].SleepHours = fresh.SleepHours
			}
			if fresh.HRV > 0 {
				merged[i].HRV = fresh.HRV
			}
			if fresh.RestingHR > 0 {
				merged[i].RestingHR = fresh.RestingHR
			}
			if fresh.RecoveryScore != nil {
				merged[i].RecoveryScore = fresh.RecoveryScore
			}
			return merged
		}
	}

	// No record for the wearable's day yet; prepend it.
	return append([]Record{*fresh}, merged...)
}

func latestWithData(records []Record) (Record, bool) {
	for _, r := range records {
		if r.HasData() {
			return r, true
		}
	}
	return Record{}, false
}

func averageOf(records []Record, value func(Record) (float64, bool)) float64 {
	var sum float64
	var n int
	for _, r := range records {
		if v, ok := value(r); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func sumRecoveryScores(records []Record) (float64, int) {
	var sum float64
	var n int
	for _, r := range records {
		if r.RecoveryScore != nil {
			sum += *r.RecoveryScore
			n++
		}
	}
	return sum, n
}

// sleepDebt accumulates hours short of the nightly target across the window.
func sleepDebt(records []Record) float64 {
	var debt float64
	for _, r := range records {
		if r.SleepHours <= 0 {
			continue
		}
		if r.SleepHours < sleepTargetHours {
			debt += sleepTargetHours - r.SleepHours
		}
	}
	return debt
}

// classifyRecovery prefers a direct recovery score, falls back to HRV
// deviation from the 7-day baseline, and yields "unknown" otherwise.
func classifyRecovery(latest Record, avgHRV float64) RecoveryStatus {
	if latest.RecoveryScore != nil {
		switch score := *latest.RecoveryScore; {
		case score >= recoveryGreenThreshold:
			return RecoveryGreen
		case score < recoveryRedThreshold:
			return RecoveryRed
		default:
			return RecoveryYellow
		}
	}

	if latest.HRV > 0 && avgHRV > 0 {
		deviationPct := (latest.HRV - avgHRV) / avgHRV * 100
		switch {
		case deviationPct >= hrvAboveBaselinePct:
			return RecoveryGreen
		case deviationPct <= hrvBelowBaselinePct:
			return RecoveryRed
		default:
			return RecoveryYellow
		}
	}

	return RecoveryUnknown
}

func classifySleep(hours float64) SleepStatus {
	switch {
	case hours <= 0:
		return SleepUnknown
	case hours >= sleepExcellentHours:
		return SleepExcellent
	case hours >= sleepAdequateHours:
		return SleepAdequate
	case hours >= sleepPoorHours:
		return SleepPoor
	default:
		return SleepInsufficient
	}
}

func intensityModifier(status RecoveryStatus) float64 {
	switch status {
	case RecoveryGreen:
		return modifierGreen
	case RecoveryYellow:
		return modifierYellow
	case RecoveryRed:
		return modifierRed
	default:
		return modifierNeutral
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
