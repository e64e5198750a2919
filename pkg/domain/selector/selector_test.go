package selector

import (
	"log/slog"
	"testing"

	"github.com/rouleur/coach/pkg/domain/feedback"
	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

var testLogger = slog.Default()

func baseContext() Context {
	return Context{
		Sport:    "Ride",
		Phase:    phase.Result{Phase: phase.Build, WeeksOut: 10},
		Metrics:  fitness.New(50, 45, 2),
		Wellness: wellness.Summary{RecoveryStatus: wellness.RecoveryGreen},
		Feedback: feedback.Result{Recommendation: feedback.RecommendMaintain},
	}
}

func TestFallbackDeepFatigueCapsAtTwoInEveryPhase(t *testing.T) {
	for _, p := range []phase.Phase{phase.Base, phase.Build, phase.Specialty, phase.Taper, phase.RaceWeek} {
		ctx := baseContext()
		ctx.Phase = phase.Result{Phase: p, WeeksOut: 10}
		ctx.Metrics = fitness.New(50, 70, 2) // tsb -20

		decision := Fallback(testLogger, ctx)

		if decision.MaxIntensity != 2 {
			t.Errorf("phase %s: MaxIntensity = %d, want 2", p, decision.MaxIntensity)
		}
		if decision.WorkoutType != "Recovery Spin" {
			t.Errorf("phase %s: WorkoutType = %q, want easiest", p, decision.WorkoutType)
		}
	}
}

func TestFallbackPhaseAppropriateModerate(t *testing.T) {
	tests := []struct {
		phase phase.Phase
		sport string
		want  string
	}{
		{phase.Base, "Ride", "Tempo"},
		{phase.Base, "Run", "Easy Run"},
		{phase.Build, "Ride", "Sweet Spot"},
		{phase.Build, "Run", "Tempo Run"},
		{phase.Specialty, "Ride", "Endurance"},
		{phase.Taper, "Run", "Tempo Run"},
	}

	for _, tt := range tests {
		ctx := baseContext()
		ctx.Sport = tt.sport
		ctx.Phase = phase.Result{Phase: tt.phase, WeeksOut: 10}

		decision := Fallback(testLogger, ctx)

		if decision.WorkoutType != tt.want {
			t.Errorf("%s/%s: WorkoutType = %q, want %q", tt.phase, tt.sport, decision.WorkoutType, tt.want)
		}
		if decision.MaxIntensity != 3 {
			t.Errorf("%s/%s: MaxIntensity = %d, want 3", tt.phase, tt.sport, decision.MaxIntensity)
		}
	}
}

func TestFallbackEventTomorrow(t *testing.T) {
	tests := []struct {
		name     string
		priority string
		wantCap  int
	}{
		{"A race caps hard", "A", 2},
		{"B race caps hard", "B", 2},
		{"C race stays moderate", "C", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := baseContext()
			ctx.Events = EventProximity{EventTomorrow: true, TomorrowPriority: tt.priority}

			decision := Fallback(testLogger, ctx)

			if decision.MaxIntensity != tt.wantCap {
				t.Errorf("MaxIntensity = %d, want %d", decision.MaxIntensity, tt.wantCap)
			}
		})
	}
}

func TestFallbackRedRecoveryAndRaceYesterday(t *testing.T) {
	ctx := baseContext()
	ctx.Wellness.RecoveryStatus = wellness.RecoveryRed

	if got := Fallback(testLogger, ctx); got.MaxIntensity != 2 {
		t.Errorf("red recovery: MaxIntensity = %d, want 2", got.MaxIntensity)
	}

	ctx = baseContext()
	ctx.Events.EventYesterday = true

	if got := Fallback(testLogger, ctx); got.MaxIntensity != 2 {
		t.Errorf("raced yesterday: MaxIntensity = %d, want 2", got.MaxIntensity)
	}
}

// Worsening any single input never raises the intensity cap.
func TestFallbackCapMonotonicity(t *testing.T) {
	baseline := Fallback(testLogger, baseContext()).MaxIntensity

	worsened := []func(*Context){
		func(c *Context) { c.Metrics = fitness.New(50, 70, 2) },
		func(c *Context) { c.Wellness.RecoveryStatus = wellness.RecoveryRed },
		func(c *Context) { c.Events = EventProximity{EventTomorrow: true, TomorrowPriority: "A"} },
		func(c *Context) {
			c.Feedback = feedback.Result{Recommendation: feedback.RecommendEasier, IntensityAdjustmentPct: -10}
		},
	}

	for i, mutate := range worsened {
		ctx := baseContext()
		mutate(&ctx)
		if got := Fallback(testLogger, ctx).MaxIntensity; got > baseline {
			t.Errorf("mutation %d raised cap from %d to %d", i, baseline, got)
		}
	}
}

func TestFallbackVariety(t *testing.T) {
	ctx := baseContext() // Build phase, would pick Sweet Spot
	ctx.RecentTypes = []string{"Sweet Spot", "Sweet Spot", "Endurance"}

	decision := Fallback(testLogger, ctx)

	if decision.WorkoutType == "Sweet Spot" {
		t.Error("expected a same-intensity alternative after two repeats")
	}
	if decision.WorkoutType != "Tempo" {
		t.Errorf("WorkoutType = %q, want Tempo", decision.WorkoutType)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		decision WorkoutDecision
		wantErr  bool
	}{
		{"valid catalog type", WorkoutDecision{WorkoutType: "Tempo", MaxIntensity: 3}, false},
		{"rest day skips catalog check", WorkoutDecision{IsRestDay: true}, false},
		{"unknown type", WorkoutDecision{WorkoutType: "Zwift Race", MaxIntensity: 3}, true},
		{"intensity too high", WorkoutDecision{WorkoutType: "Tempo", MaxIntensity: 6}, true},
		{"intensity too low", WorkoutDecision{WorkoutType: "Tempo", MaxIntensity: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("Ride", tt.decision)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	if !IsKnownType("Ride", "VO2 Max Intervals") {
		t.Error("catalog entry not recognized")
	}
	if IsKnownType("Run", "Sweet Spot") {
		t.Error("cycling workout accepted for running")
	}
	if got := easiest("Run").Type; got != "Recovery Run" {
		t.Errorf("easiest run = %q, want Recovery Run", got)
	}
	// Unknown sport degrades to the cycling catalog.
	if len(Catalog("Swim")) != len(Catalog("Ride")) {
		t.Error("unknown sport should fall back to cycling catalog")
	}
}
