package load

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/phase"
)

// RampLabel buckets the required weekly CTL ramp.
type RampLabel string

const (
	RampMaintain   RampLabel = "Maintain"
	RampBuild      RampLabel = "Build"
	RampAggressive RampLabel = "Aggressive"
	RampCaution    RampLabel = "Caution"
	RampRecover    RampLabel = "Recover"
)

// Recommendation is the weekly/daily training-stress target derived from
// current load and phase. It is always computed deterministically; the
// advisor may annotate it but never replaces it.
type Recommendation struct {
	TargetCTL     float64
	WeeklyRamp    float64
	Label         RampLabel
	Warn          bool
	Reduction     float64 // fraction removed from the weekly target
	WeeklyTSSLow  float64
	WeeklyTSSHigh float64
	DailyTSSLow   float64
	DailyTSSHigh  float64
	Reasons       []string
	AIEnhanced    bool
}

const deepFatigueTSB = -25.0

// Recommend computes the target weekly training-stress range from current
// metrics and phase. Pure function; never fails.
func Recommend(logger *slog.Logger, metrics fitness.Metrics, currentPhase phase.Phase, weeksOut int) Recommendation {
	rec := Recommendation{}

	// Target CTL: bounded weekly growth, capped in absolute terms and
	// relative to current fitness.
	gain := math.Min(float64(weeksOut)*5, 40)
	gain = math.Min(gain, metrics.CTL*0.25)
	rec.TargetCTL = metrics.CTL + gain
	if weeksOut > 3 && rec.TargetCTL < metrics.CTL+10 {
		rec.TargetCTL = metrics.CTL + 10
	}

	rampWeeks := math.Max(float64(weeksOut-2), 1)
	rec.WeeklyRamp = (rec.TargetCTL - metrics.CTL) / rampWeeks
	rec.Label, rec.Warn = classifyRamp(rec.WeeklyRamp)
	rec.Reasons = append(rec.Reasons,
		fmt.Sprintf("target CTL %.0f from current %.0f over %d weeks", rec.TargetCTL, metrics.CTL, weeksOut))

	// Weekly TSS band around current fitness plus the required ramp.
	rec.WeeklyTSSLow = metrics.CTL * 7
	rec.WeeklyTSSHigh = (metrics.CTL + rec.WeeklyRamp) * 7

	// Phase reductions.
	switch currentPhase {
	case phase.Taper, phase.RaceWeek:
		rec.Reduction = 0.5
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("%s forces a 50%% load reduction", currentPhase))
	}

	// Deep-fatigue override wins over any phase: TSB below -25 forces a
	// recovery block regardless of the calendar.
	if metrics.TSB < deepFatigueTSB {
		rec.Reduction = 0.4
		rec.Label = RampRecover
		rec.Warn = true
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("TSB %.0f below %.0f: recovery override", metrics.TSB, deepFatigueTSB))
	}

	if rec.Reduction > 0 {
		rec.WeeklyTSSLow *= 1 - rec.Reduction
		rec.WeeklyTSSHigh *= 1 - rec.Reduction
	}
	rec.DailyTSSLow = rec.WeeklyTSSLow / 7
	rec.DailyTSSHigh = rec.WeeklyTSSHigh / 7

	logger.Debug("load: recommendation",
		"target_ctl", rec.TargetCTL,
		"weekly_ramp", rec.WeeklyRamp,
		"label", rec.Label,
		"reduction", rec.Reduction,
	)

	return rec
}

func classifyRamp(ramp float64) (RampLabel, bool) {
	switch {
	case ramp <= 3:
		return RampMaintain, false
	case ramp <= 5:
		return RampBuild, false
	case ramp <= 7:
		return RampAggressive, true
	default:
		return RampCaution, true
	}
}
