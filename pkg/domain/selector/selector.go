// Package selector is the terminal aggregator of the decision pipeline.
// It merges phase, form, recovery, event proximity and recent history into
// a single WorkoutDecision, preferring the generative advisor's choice when
// available and falling back to a conservative rule-based default.
package selector

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rouleur/coach/pkg/domain/feedback"
	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

// WorkoutDecision is the terminal artifact of a daily run. Upload and
// notification collaborators consume it as-is.
type WorkoutDecision struct {
	WorkoutType     string `json:"workout_type"`
	MaxIntensity    int    `json:"max_intensity"`
	IsRestDay       bool   `json:"is_rest_day"`
	Reason          string `json:"reason"`
	AdvisorEnhanced bool   `json:"advisor_enhanced"`
}

// EventProximity captures race scheduling around today. Priority follows
// the A/B/C race convention, A highest.
type EventProximity struct {
	EventTomorrow     bool
	TomorrowPriority  string
	EventYesterday    bool
	YesterdayPriority string
}

// Context is everything the selector needs, passed by value so a decision
// is a pure function of its snapshot.
type Context struct {
	Sport       string
	Phase       phase.Result
	Metrics     fitness.Metrics
	Wellness    wellness.Summary
	Events      EventProximity
	RecentTypes []string
	Feedback    feedback.Result
}

const (
	defaultIntensityCap = 3
	tsbFatigueCap       = -15
	lowestPriority      = "C"
)

// Fallback produces the rule-based decision. It never calls the advisor
// and never fails; every output names a catalog workout type with an
// intensity in [1,5].
func Fallback(logger *slog.Logger, ctx Context) WorkoutDecision {
	intensityCap := defaultIntensityCap
	var reasons []string

	if ctx.Events.EventTomorrow {
		if strings.EqualFold(ctx.Events.TomorrowPriority, lowestPriority) {
			reasons = append(reasons, "C-race tomorrow, keeping the day moderate")
		} else {
			intensityCap = min(intensityCap, 2)
			reasons = append(reasons, fmt.Sprintf("%s-race tomorrow, openers only", strings.ToUpper(ctx.Events.TomorrowPriority)))
		}
	}
	if ctx.Events.EventYesterday {
		intensityCap = min(intensityCap, 2)
		reasons = append(reasons, "raced yesterday, recovery takes priority")
	}
	if ctx.Metrics.TSB < tsbFatigueCap {
		intensityCap = min(intensityCap, 2)
		reasons = append(reasons, fmt.Sprintf("form %.0f indicates accumulated fatigue", ctx.Metrics.TSB))
	}
	if ctx.Wellness.RecoveryStatus == wellness.RecoveryRed {
		intensityCap = min(intensityCap, 2)
		reasons = append(reasons, "recovery is in the red")
	}
	if ctx.Feedback.Recommendation == feedback.RecommendEasier {
		intensityCap = min(intensityCap, 2)
		reasons = append(reasons, "recent session feedback says ease off")
	}

	var chosen Workout
	if intensityCap <= 2 {
		chosen = easiest(ctx.Sport)
	} else {
		chosen = moderateForPhase(ctx.Sport, ctx.Phase.Phase)
		chosen = varyChoice(ctx.Sport, chosen, ctx.RecentTypes)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("%s phase, normal training day", ctx.Phase.Phase))
	}

	decision := WorkoutDecision{
		WorkoutType:  chosen.Type,
		MaxIntensity: intensityCap,
		Reason:       strings.Join(reasons, "; "),
	}

	logger.Info("selector: fallback decision",
		"workout_type", decision.WorkoutType,
		"max_intensity", decision.MaxIntensity,
		"tsb", ctx.Metrics.TSB,
	)

	return decision
}

// moderateForPhase maps a phase to its characteristic mid-intensity
// workout.
func moderateForPhase(sport string, p phase.Phase) Workout {
	isRun := sport == "Run"
	var want string
	switch p {
	case phase.Base:
		want = "Tempo"
		if isRun {
			want = "Easy Run"
		}
	case phase.Build:
		want = "Sweet Spot"
		if isRun {
			want = "Tempo Run"
		}
	default:
		want = "Endurance"
		if isRun {
			want = "Tempo Run"
		}
	}

	for _, w := range Catalog(sport) {
		if w.Type == want {
			return w
		}
	}
	return easiest(sport)
}

// varyChoice swaps the chosen workout for a same-intensity alternative when
// the athlete has done the same type in the last two sessions.
func varyChoice(sport string, chosen Workout, recentTypes []string) Workout {
	repeated := 0
	for i, t := range recentTypes {
		if i >= 2 {
			break
		}
		if t == chosen.Type {
			repeated++
		}
	}
	if repeated < 2 {
		return chosen
	}
	for _, w := range Catalog(sport) {
		if w.Type != chosen.Type && w.Intensity == chosen.Intensity {
			return w
		}
	}
	return chosen
}

// Validate checks that a decision names a catalog type with a legal
// intensity. Advisor output that fails this check is discarded entirely.
func Validate(sport string, decision WorkoutDecision) error {
	if decision.IsRestDay {
		return nil
	}
	if !IsKnownType(sport, decision.WorkoutType) {
		return fmt.Errorf("unknown workout type %q for sport %s", decision.WorkoutType, sport)
	}
	if decision.MaxIntensity < 1 || decision.MaxIntensity > 5 {
		return fmt.Errorf("intensity %d out of range", decision.MaxIntensity)
	}
	return nil
}
