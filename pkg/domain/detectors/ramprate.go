package detectors

import "fmt"

// Ramp thresholds in CTL points per week. Sustained ramps above these bands
// are the classic overuse precursor.
const (
	rampCriticalPerWeek = 7.0
	rampWarningPerWeek  = 5.0
)

// DetectRampRateWarning inspects 4 trailing weekly CTL deltas (most recent
// first) and flags sustained steep ramps. It counts its own streaks and is
// independent of the deload detector's accounting.
func DetectRampRateWarning(weeklyDeltas []float64) Advisory {
	adv := Advisory{Severity: SeverityNone}

	above7 := streakAbove(weeklyDeltas, rampCriticalPerWeek)
	above5 := streakAbove(weeklyDeltas, rampWarningPerWeek)

	switch {
	case above7 >= 2:
		adv.Severity = SeverityCritical
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("%d consecutive weeks ramping above %.0f CTL/week", above7, rampCriticalPerWeek))
		adv.Recommendation = "Hold or reduce weekly load now; this ramp is not sustainable."
	case above5 >= 3:
		adv.Severity = SeverityMedium
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("%d consecutive weeks ramping above %.0f CTL/week", above5, rampWarningPerWeek))
		adv.Recommendation = "Plan a flat or reduced week within the next two weeks."
	case above5 >= 2:
		adv.Severity = SeverityLow
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("%d consecutive weeks ramping above %.0f CTL/week", above5, rampWarningPerWeek))
		adv.Recommendation = "Watch fatigue markers; the ramp is at the top of the sustainable band."
	}

	adv.Detected = adv.Severity != SeverityNone
	return adv
}

// streakAbove counts consecutive deltas above the threshold starting at the
// most recent week.
func streakAbove(deltas []float64, threshold float64) int {
	count := 0
	for _, d := range deltas {
		if d <= threshold {
			break
		}
		count++
	}
	return count
}
