package detectors

import (
	"fmt"

	"github.com/rouleur/coach/pkg/domain/wellness"
)

// Physiological deviation thresholds for the illness picture.
const (
	illnessRHRElevationPct   = 5.0  // resting HR above 7-day average
	illnessHRVSuppressionPct = 10.0 // HRV below 7-day average
	illnessPoorSleepHours    = 6.0
	illnessSorenessFatigue   = 8 // combined 1-5 scales
)

// DetectIllnessPattern checks the wellness window for the classic cluster
// of early illness markers: elevated resting HR, suppressed HRV, a low
// recovery score, short sleep, and high subjective soreness plus fatigue.
// One marker is noise; several together are worth acting on.
func DetectIllnessPattern(summary wellness.Summary) Advisory {
	adv := Advisory{Severity: SeverityNone}

	var signals int

	if summary.RestingHR > 0 && summary.AvgRestingHR > 0 {
		elevationPct := (float64(summary.RestingHR) - summary.AvgRestingHR) / summary.AvgRestingHR * 100
		if elevationPct >= illnessRHRElevationPct {
			signals++
			adv.Reasons = append(adv.Reasons,
				fmt.Sprintf("resting HR %.0f%% above baseline", elevationPct))
		}
	}

	if summary.HRV > 0 && summary.AvgHRV > 0 {
		suppressionPct := (summary.AvgHRV - summary.HRV) / summary.AvgHRV * 100
		if suppressionPct >= illnessHRVSuppressionPct {
			signals++
			adv.Reasons = append(adv.Reasons,
				fmt.Sprintf("HRV %.0f%% below baseline", suppressionPct))
		}
	}

	if summary.RecoveryScore != nil && *summary.RecoveryScore < 33 {
		signals++
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("recovery score %.0f in the red band", *summary.RecoveryScore))
	}

	if summary.SleepHours > 0 && summary.SleepHours < illnessPoorSleepHours {
		signals++
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("only %.1f hours of sleep", summary.SleepHours))
	}

	if summary.Soreness+summary.Fatigue >= illnessSorenessFatigue {
		signals++
		adv.Reasons = append(adv.Reasons, "high subjective soreness and fatigue")
	}

	switch {
	case signals >= 3:
		adv.Severity = SeverityHigh
		adv.Recommendation = "Multiple illness markers present: rest today and reassess tomorrow."
	case signals == 2:
		adv.Severity = SeverityMedium
		adv.Recommendation = "Early illness markers: keep today easy and prioritize sleep."
	case signals == 1:
		adv.Severity = SeverityLow
		adv.Recommendation = "One recovery marker is off; nothing to change yet."
	}

	adv.Detected = adv.Severity != SeverityNone
	return adv
}
