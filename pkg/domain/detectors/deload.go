package detectors

import (
	"fmt"
	"math"

	"github.com/rouleur/coach/pkg/domain/fitness"
)

// DeloadInput is the trailing window the deload detector inspects.
type DeloadInput struct {
	WeeklyTotals    []float64 // completed weeks, most recent first
	TargetWeeklyTSS float64
	Metrics         fitness.Metrics
	SleepDebtHours  float64
}

// DeloadAdvisory extends the common advisory with the counters the report
// and tests care about.
type DeloadAdvisory struct {
	Advisory
	WeeksWithoutDeload int
	UrgencyScore       int
}

// DetectDeloadNeed counts consecutive high-load weeks since the last
// sub-threshold week and accumulates an urgency score from load, ramp,
// form, and sleep debt. A week counts as high load only when its total
// exceeds max(target, 100); the deload threshold is 70% of that baseline,
// floored at 70 TSS.
func DetectDeloadNeed(in DeloadInput) DeloadAdvisory {
	adv := DeloadAdvisory{Advisory: Advisory{Severity: SeverityNone}}

	baseline := math.Max(in.TargetWeeklyTSS, 100)
	deloadThreshold := math.Max(0.7*baseline, 70)

	// Consecutive weeks at or above the deload threshold, newest first.
	for _, total := range in.WeeklyTotals {
		if total < deloadThreshold {
			break
		}
		adv.WeeksWithoutDeload++
	}

	var aboveTarget int
	for _, total := range in.WeeklyTotals {
		if total > baseline {
			aboveTarget++
		}
	}

	score := 0
	switch {
	case adv.WeeksWithoutDeload >= 4:
		score += 2
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("%d weeks without a recovery week", adv.WeeksWithoutDeload))
	case adv.WeeksWithoutDeload >= 3:
		score++
		adv.Reasons = append(adv.Reasons, "3 weeks without a recovery week")
	}

	switch {
	case in.Metrics.RampRate > 5:
		score += 2
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("ramp rate %.1f CTL/week is steep", in.Metrics.RampRate))
	case in.Metrics.RampRate > 3:
		score++
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("ramp rate %.1f CTL/week is elevated", in.Metrics.RampRate))
	}

	switch {
	case in.Metrics.TSB < -30:
		score += 2
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("TSB %.0f indicates deep fatigue", in.Metrics.TSB))
	case in.Metrics.TSB < -20:
		score++
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("TSB %.0f indicates accumulated fatigue", in.Metrics.TSB))
	}

	if len(in.WeeklyTotals) >= 4 && aboveTarget >= 3 {
		score++
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("%d of 4 weeks above the weekly target", aboveTarget))
	}

	switch {
	case in.SleepDebtHours >= 5:
		score += 3
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("%.1f hours of sleep debt this week", in.SleepDebtHours))
	case in.SleepDebtHours >= 3:
		score += 2
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("%.1f hours of sleep debt this week", in.SleepDebtHours))
	case in.SleepDebtHours >= 1.5:
		score++
		adv.Reasons = append(adv.Reasons, fmt.Sprintf("%.1f hours of sleep debt this week", in.SleepDebtHours))
	}

	adv.UrgencyScore = score

	switch {
	case score >= 4:
		adv.Severity = SeverityHigh
	case score >= 2 && adv.WeeksWithoutDeload >= 3:
		adv.Severity = SeverityMedium
	case score >= 1 && adv.WeeksWithoutDeload >= 4:
		adv.Severity = SeverityLow
	}

	adv.Detected = adv.Severity != SeverityNone
	if adv.Detected {
		adv.Recommendation = "Schedule a recovery week: cut weekly volume roughly in half and keep intensity easy."
	}

	return adv
}
