package phase

import (
	"fmt"
	"math"
	"time"

	"github.com/rouleur/coach/pkg/domain/trajectory"
)

// Phase is one of the five periodization states.
type Phase string

const (
	Base      Phase = "base"
	Build     Phase = "build"
	Specialty Phase = "specialty"
	Taper     Phase = "taper"
	RaceWeek  Phase = "race_week"
)

// Valid reports whether p is one of the five known states.
func (p Phase) Valid() bool {
	switch p {
	case Base, Build, Specialty, Taper, RaceWeek:
		return true
	}
	return false
}

// Calendar thresholds, strictly ordered. Distance alone can never skip a
// state: every weeksOut maps to exactly one phase and the bands are
// contiguous.
const (
	raceWeekMaxWeeks  = 1
	taperMaxWeeks     = 3
	specialtyMaxWeeks = 8
	buildMaxWeeks     = 16
)

// Result carries the phase decision plus the deterministic baseline and its
// audit trail. The deterministic phase is always computed first and is never
// discarded; an advisor override only annotates it.
type Result struct {
	Phase    Phase
	WeeksOut int
	Focus    string

	Deterministic   Phase // fallback value, retained even when overridden
	Reasoning       []string
	Adjustments     []string
	ConfidenceLevel string
	Overridden      bool
	AIEnhanced      bool
}

// WeeksOut returns signed weeks until the goal event: days-to-goal divided
// by 7, rounded up. Zero or negative means the goal has passed (or there is
// no goal), which the state machine treats as open-ended Base training.
func WeeksOut(today, goal time.Time) int {
	days := goal.Sub(today).Hours() / 24
	return int(math.Ceil(days / 7))
}

// Calculate is the deterministic transition function. It is pure and total:
// identical weeksOut always yields the identical phase, independent of
// advisor availability.
func Calculate(weeksOut int) Phase {
	switch {
	case weeksOut <= 0:
		return Base
	case weeksOut <= raceWeekMaxWeeks:
		return RaceWeek
	case weeksOut <= taperMaxWeeks:
		return Taper
	case weeksOut <= specialtyMaxWeeks:
		return Specialty
	case weeksOut <= buildMaxWeeks:
		return Build
	default:
		return Base
	}
}

// Focus returns the training emphasis text for a phase.
func Focus(p Phase) string {
	switch p {
	case Base:
		return "Aerobic endurance and consistency"
	case Build:
		return "Threshold development and muscular endurance"
	case Specialty:
		return "Race-specific intensity and intervals"
	case Taper:
		return "Load reduction while keeping intensity touches"
	case RaceWeek:
		return "Freshness, openers, and logistics"
	default:
		return ""
	}
}

// New builds the deterministic phase result for a goal distance.
func New(weeksOut int) Result {
	p := Calculate(weeksOut)
	return Result{
		Phase:           p,
		WeeksOut:        weeksOut,
		Focus:           Focus(p),
		Deterministic:   p,
		Reasoning:       []string{fmt.Sprintf("%d weeks to goal places the calendar in %s", weeksOut, p)},
		ConfidenceLevel: "high",
	}
}

// TransitionAction is the advisory verdict on moving between phases ahead of
// or behind the calendar.
type TransitionAction string

const (
	ActionHold       TransitionAction = "hold"
	ActionAccelerate TransitionAction = "accelerate"
	ActionRegress    TransitionAction = "regress"
)

// TransitionRecommendation is advisory only: it never replaces the
// deterministic phase, it annotates the result for the advisor and report.
type TransitionRecommendation struct {
	Action  TransitionAction
	Target  Phase
	Reasons []string
}

// CheckTransitionReadiness inspects trajectory readiness flags and recovery
// sustainability and recommends an early or late transition where the
// evidence supports one.
func CheckTransitionReadiness(current Phase, weeksOut int, traj trajectory.Trajectory) TransitionRecommendation {
	rec := TransitionRecommendation{Action: ActionHold, Target: current}
	if traj.Insufficient {
		rec.Reasons = append(rec.Reasons, "insufficient trajectory history; holding calendar phase")
		return rec
	}

	switch current {
	case Base:
		if traj.BaseComplete && weeksOut > 0 && weeksOut <= 12 {
			rec.Action = ActionAccelerate
			rec.Target = Build
			rec.Reasons = append(rec.Reasons, "base work complete and goal inside 12 weeks; build can start early")
		}
	case Build:
		if !traj.RecoverySustainable && traj.CTLTrend == trajectory.TrendDeclining {
			rec.Action = ActionRegress
			rec.Target = Base
			rec.Reasons = append(rec.Reasons, "recovery unsustainable while fitness declines; return to base volume")
		} else if traj.ReadyForSpecialty && weeksOut > 0 && weeksOut <= 10 {
			rec.Action = ActionAccelerate
			rec.Target = Specialty
			rec.Reasons = append(rec.Reasons, "specialty readiness met ahead of calendar")
		}
	case Specialty:
		if traj.ReadyForTaper && weeksOut > 0 && weeksOut <= 4 {
			rec.Action = ActionAccelerate
			rec.Target = Taper
			rec.Reasons = append(rec.Reasons, "build targets hit; an early taper protects freshness")
		}
	}

	if len(rec.Reasons) == 0 {
		rec.Reasons = append(rec.Reasons, "calendar phase matches trajectory")
	}
	return rec
}
