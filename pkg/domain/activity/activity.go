// Package activity holds the completed-session types shared by the
// detectors and the feedback analyzer.
package activity

import (
	"time"
)

// Activity is one completed session with its load score and optional
// subjective feedback. Zero Exertion/Feel means "not reported".
type Activity struct {
	Date     time.Time
	Type     string
	TSS      float64
	Duration time.Duration
	Exertion float64 // RPE 1-10
	Feel     int     // 1-5, lower is better
}

// HasFeedback reports whether the athlete left any subjective signal.
func (a Activity) HasFeedback() bool {
	return a.Exertion > 0 || a.Feel > 0
}

// weekStart returns the Monday 00:00 of the week containing t.
func weekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

// WeeklyTotals sums TSS per completed calendar week, most recent completed
// week first. The current partial week is excluded. Weeks with no activity
// contribute zero rather than being skipped.
func WeeklyTotals(activities []Activity, now time.Time, weeks int) []float64 {
	currentWeek := weekStart(now)
	totals := make([]float64, weeks)

	for _, a := range activities {
		start := weekStart(a.Date)
		if !start.Before(currentWeek) {
			continue // still in flight
		}
		weeksBack := int(currentWeek.Sub(start).Hours()/(24*7)) - 1
		if weeksBack >= 0 && weeksBack < weeks {
			totals[weeksBack] += a.TSS
		}
	}

	return totals
}

// DaysSinceLast returns whole days since the most recent activity, or -1
// when there is none.
func DaysSinceLast(activities []Activity, now time.Time) int {
	var latest time.Time
	for _, a := range activities {
		if a.Date.After(latest) {
			latest = a.Date
		}
	}
	if latest.IsZero() {
		return -1
	}
	return int(now.Sub(latest).Hours() / 24)
}
