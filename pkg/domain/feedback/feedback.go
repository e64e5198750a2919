package feedback

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rouleur/coach/pkg/domain/activity"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

// Recommendation is the direction the next workouts should move.
type Recommendation string

const (
	RecommendEasier   Recommendation = "easier"
	RecommendMaintain Recommendation = "maintain"
	RecommendHarder   Recommendation = "harder"
)

// Result is the scored feedback outcome. InsufficientData means fewer than
// minFeedbackActivities carried any subjective signal, so the scored part
// is neutral; the training-gap signal still applies and can set an easier
// recommendation on its own.
type Result struct {
	Recommendation         Recommendation
	Confidence             string // low, medium, high
	IntensityAdjustmentPct float64
	Reasons                []string
	InsufficientData       bool
}

const (
	defaultWindowDays     = 14
	minFeedbackActivities = 3

	// Feel is 1-5, lower is better.
	feelPoorAvg      = 4.0
	feelMediocreAvg  = 3.5
	feelGoodAvg      = 2.0
	feelNegativeMark = 4

	exertionHighAvg = 8.0
	exertionLowAvg  = 5.0
)

// Analyze scores recent subjective feedback and the current training gap
// into an intensity adjustment in the -10%..+5% band. The more conservative
// of the two signals wins.
func Analyze(logger *slog.Logger, activities []activity.Activity, now time.Time, recovery wellness.RecoveryStatus) Result {
	result := Result{
		Recommendation: RecommendMaintain,
		Confidence:     "low",
	}

	cutoff := now.AddDate(0, 0, -defaultWindowDays)
	var withFeedback []activity.Activity
	for _, a := range activities {
		if a.Date.After(cutoff) && a.HasFeedback() {
			withFeedback = append(withFeedback, a)
		}
	}

	var score float64
	if len(withFeedback) < minFeedbackActivities {
		result.InsufficientData = true
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("only %d activities with feedback in the last %d days", len(withFeedback), defaultWindowDays))
	} else {
		var reasons []string
		score, reasons = scoreFeedback(withFeedback)
		result.Reasons = reasons
		result.Recommendation, result.IntensityAdjustmentPct = mapScore(score)

		switch {
		case len(withFeedback) >= 6:
			result.Confidence = "high"
		case len(withFeedback) >= 4:
			result.Confidence = "medium"
		}
	}

	// Training gap: a long break reads differently depending on why it
	// happened, and poor recovery suggests illness rather than freshness.
	// The gap is its own signal, so it applies even when too few sessions
	// carried feedback; after a long layoff that is exactly the case.
	gapDays := activity.DaysSinceLast(activities, now)
	if gapPct, reason, ok := classifyGap(gapDays, recovery); ok {
		result.Reasons = append(result.Reasons, reason)
		if gapPct < result.IntensityAdjustmentPct {
			result.IntensityAdjustmentPct = gapPct
			if gapPct < 0 {
				result.Recommendation = RecommendEasier
			}
		}
	}

	logger.Debug("feedback: analyzed",
		"score", score,
		"recommendation", result.Recommendation,
		"adjustment_pct", result.IntensityAdjustmentPct,
		"confidence", result.Confidence,
	)

	return result
}

func scoreFeedback(withFeedback []activity.Activity) (float64, []string) {
	var score float64
	var reasons []string

	var feelSum, exertionSum float64
	var feelN, exertionN, negative int
	for _, a := range withFeedback {
		if a.Feel > 0 {
			feelSum += float64(a.Feel)
			feelN++
			if a.Feel >= feelNegativeMark {
				negative++
			}
		}
		if a.Exertion > 0 {
			exertionSum += a.Exertion
			exertionN++
		}
	}

	if feelN > 0 {
		switch avg := feelSum / float64(feelN); {
		case avg >= feelPoorAvg:
			score -= 2
			reasons = append(reasons, fmt.Sprintf("average feel %.1f: sessions feel bad", avg))
		case avg >= feelMediocreAvg:
			score--
			reasons = append(reasons, fmt.Sprintf("average feel %.1f: sessions feel labored", avg))
		case avg <= feelGoodAvg:
			score++
			reasons = append(reasons, fmt.Sprintf("average feel %.1f: sessions feel strong", avg))
		}
	}

	if exertionN > 0 {
		switch avg := exertionSum / float64(exertionN); {
		case avg > exertionHighAvg:
			score--
			reasons = append(reasons, fmt.Sprintf("average exertion %.1f is very high", avg))
		case avg < exertionLowAvg:
			score++
			reasons = append(reasons, fmt.Sprintf("average exertion %.1f leaves headroom", avg))
		}
	}

	if feelN > 0 && float64(negative)/float64(feelN) > 0.4 {
		score--
		reasons = append(reasons, "more than 40% of recent sessions felt bad")
	}

	if trend := lastThreeFeelTrend(withFeedback); trend < 0 {
		score--
		reasons = append(reasons, "feel is worsening across the last three sessions")
	} else if trend > 0 {
		score += 0.5
		reasons = append(reasons, "feel is improving across the last three sessions")
	}

	return score, reasons
}

// lastThreeFeelTrend compares the newest feel against the oldest of the
// last three feedback entries: positive means improving (feel dropping).
func lastThreeFeelTrend(withFeedback []activity.Activity) float64 {
	var feels []int
	for _, a := range withFeedback {
		if a.Feel > 0 {
			feels = append(feels, a.Feel)
		}
		if len(feels) == 3 {
			break
		}
	}
	if len(feels) < 3 {
		return 0
	}
	return float64(feels[2] - feels[0])
}

func mapScore(score float64) (Recommendation, float64) {
	switch {
	case score <= -2:
		return RecommendEasier, -10
	case score <= -1:
		return RecommendEasier, -5
	case score >= 2:
		return RecommendHarder, 5
	case score >= 1:
		return RecommendHarder, 3
	default:
		return RecommendMaintain, 0
	}
}

// classifyGap converts a training gap into an intensity multiplier
// expressed as a percentage adjustment.
func classifyGap(gapDays int, recovery wellness.RecoveryStatus) (float64, string, bool) {
	if gapDays < 4 {
		return 0, "", false
	}

	var multiplier float64
	var reason string
	switch recovery {
	case wellness.RecoveryGreen:
		multiplier = 1.0
		reason = fmt.Sprintf("%d-day break with good recovery: treat as freshness", gapDays)
	case wellness.RecoveryYellow, wellness.RecoveryRed:
		multiplier = 0.7
		reason = fmt.Sprintf("%d-day break with poor recovery: likely returning from illness", gapDays)
	default:
		multiplier = 0.8
		reason = fmt.Sprintf("%d-day break with no recovery data: be conservative", gapDays)
	}

	if gapDays >= 7 {
		multiplier *= 0.9
		reason += "; extended gap adds caution"
	}

	return (multiplier - 1) * 100, reason, true
}
