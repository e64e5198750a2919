package detectors

import "fmt"

// VolumeAdvisory reports week-over-week volume change. A sharp drop is
// surfaced separately as a possible-illness signal, not as a volume risk.
type VolumeAdvisory struct {
	Advisory
	PercentChange   float64
	PossibleIllness bool
}

// DetectVolumeJump compares the most recently completed calendar week to
// the one before it. Missing weeks count as zero activity.
func DetectVolumeJump(lastWeekTSS, priorWeekTSS float64) VolumeAdvisory {
	adv := VolumeAdvisory{Advisory: Advisory{Severity: SeverityNone}}

	if priorWeekTSS <= 0 {
		// Nothing to compare against; a first training week is not a jump.
		return adv
	}

	adv.PercentChange = (lastWeekTSS - priorWeekTSS) / priorWeekTSS * 100

	switch {
	case adv.PercentChange > 30:
		adv.Severity = SeverityHigh
	case adv.PercentChange > 20:
		adv.Severity = SeverityMedium
	case adv.PercentChange > 15:
		adv.Severity = SeverityLow
	}

	if adv.Severity != SeverityNone {
		adv.Detected = true
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("weekly volume up %.0f%% (%.0f to %.0f TSS)", adv.PercentChange, priorWeekTSS, lastWeekTSS))
		adv.Recommendation = "Limit further volume growth to about 10% per week."
		return adv
	}

	// A >30% drop from a meaningful base often precedes or accompanies
	// illness; flag it for the illness picture, not as volume risk.
	if adv.PercentChange < -30 && priorWeekTSS > 100 {
		adv.PossibleIllness = true
		adv.Reasons = append(adv.Reasons,
			fmt.Sprintf("weekly volume down %.0f%% from a %.0f TSS base", -adv.PercentChange, priorWeekTSS))
	}

	return adv
}
