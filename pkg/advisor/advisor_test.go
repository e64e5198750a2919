package advisor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/rouleur/coach/pkg/domain/feedback"
	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/load"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/selector"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

var testLogger = slog.Default()

type stubGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.GenerateFunc(ctx, prompt)
}

func fixedResponse(raw string) *Advisor {
	return NewWithGenerator(testLogger, &stubGenerator{
		GenerateFunc: func(context.Context, string) (string, error) { return raw, nil },
	})
}

func workoutContext() selector.Context {
	return selector.Context{
		Sport:    "Ride",
		Phase:    phase.Result{Phase: phase.Build, WeeksOut: 10},
		Metrics:  fitness.New(50, 45, 2),
		Wellness: wellness.Summary{RecoveryStatus: wellness.RecoveryGreen},
		Feedback: feedback.Result{Recommendation: feedback.RecommendMaintain},
	}
}

func TestSuggestWorkout(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		genErr   error
		wantErr  bool
		wantType string
		wantRest bool
	}{
		{
			name:     "valid response",
			raw:      `{"workout_type": "Sweet Spot", "intensity": 3, "should_train": true, "reason": "good form in build phase"}`,
			wantType: "Sweet Spot",
		},
		{
			name:     "fenced response",
			raw:      "```json\n{\"workout_type\": \"Tempo\", \"intensity\": 3, \"should_train\": true, \"reason\": \"steady week\"}\n```",
			wantType: "Tempo",
		},
		{
			name:     "rest day skips catalog",
			raw:      `{"workout_type": "", "intensity": 0, "should_train": false, "reason": "deep fatigue, take the day off"}`,
			wantRest: true,
		},
		{
			name:    "unknown type rejected whole",
			raw:     `{"workout_type": "Zwift Race", "intensity": 3, "should_train": true, "reason": "fun"}`,
			wantErr: true,
		},
		{
			name:    "intensity out of range",
			raw:     `{"workout_type": "Tempo", "intensity": 9, "should_train": true, "reason": "smash it"}`,
			wantErr: true,
		},
		{
			name:    "missing should_train",
			raw:     `{"workout_type": "Tempo", "intensity": 3, "reason": "steady"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "Sure! I recommend a tempo ride today.",
			wantErr: true,
		},
		{
			name:    "generator error",
			genErr:  errors.New("deadline exceeded"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewWithGenerator(testLogger, &stubGenerator{
				GenerateFunc: func(context.Context, string) (string, error) { return tt.raw, tt.genErr },
			})

			decision, err := a.SuggestWorkout(context.Background(), workoutContext())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if decision.WorkoutType != tt.wantType {
				t.Errorf("WorkoutType = %q, want %q", decision.WorkoutType, tt.wantType)
			}
			if decision.IsRestDay != tt.wantRest {
				t.Errorf("IsRestDay = %v, want %v", decision.IsRestDay, tt.wantRest)
			}
			if !decision.AdvisorEnhanced {
				t.Error("accepted decision should be marked advisor enhanced")
			}
		})
	}
}

func TestDisabledAdvisor(t *testing.T) {
	a := New(testLogger, "")

	if a.Enabled() {
		t.Fatal("advisor with no API key should be disabled")
	}
	if _, err := a.SuggestWorkout(context.Background(), workoutContext()); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestResolveWorkout(t *testing.T) {
	fallback := selector.WorkoutDecision{WorkoutType: "Endurance", MaxIntensity: 2, Reason: "rules"}
	primary := selector.WorkoutDecision{WorkoutType: "Sweet Spot", MaxIntensity: 3, Reason: "model", AdvisorEnhanced: true}

	got := ResolveWorkout(testLogger, fallback, func() (selector.WorkoutDecision, error) {
		return primary, nil
	})
	if got != primary {
		t.Errorf("got %+v, want primary decision", got)
	}

	got = ResolveWorkout(testLogger, fallback, func() (selector.WorkoutDecision, error) {
		return selector.WorkoutDecision{}, errors.New("model exploded")
	})
	if got != fallback {
		t.Errorf("got %+v, want fallback decision", got)
	}

	got = ResolveWorkout(testLogger, fallback, func() (selector.WorkoutDecision, error) {
		return selector.WorkoutDecision{}, ErrDisabled
	})
	if got != fallback {
		t.Errorf("got %+v, want fallback when disabled", got)
	}
}

func TestReviewPhase(t *testing.T) {
	deterministic := phase.New(10) // build

	t.Run("override to valid phase", func(t *testing.T) {
		a := fixedResponse(`{"phase": "base", "reasoning": "fitness collapsed after illness", "confidence": "high"}`)
		got, err := a.ReviewPhase(context.Background(), deterministic, "summary")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Overridden || got.Phase != phase.Base {
			t.Errorf("Phase = %s Overridden = %v, want base override", got.Phase, got.Overridden)
		}
		if got.Deterministic != phase.Build {
			t.Errorf("Deterministic = %s, want build retained", got.Deterministic)
		}
	})

	t.Run("invalid phase keeps deterministic", func(t *testing.T) {
		a := fixedResponse(`{"phase": "peak", "reasoning": "time to peak", "confidence": "low"}`)
		got, err := a.ReviewPhase(context.Background(), deterministic, "summary")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Overridden || got.Phase != phase.Build {
			t.Errorf("Phase = %s Overridden = %v, want deterministic kept", got.Phase, got.Overridden)
		}
	})

	t.Run("missing reasoning rejected", func(t *testing.T) {
		a := fixedResponse(`{"phase": "build"}`)
		if _, err := a.ReviewPhase(context.Background(), deterministic, "summary"); err == nil {
			t.Error("expected error for missing reasoning")
		}
	})
}

func TestReviewLoad(t *testing.T) {
	rec := load.Recommendation{WeeklyTSSLow: 350, WeeklyTSSHigh: 420, WeeklyRamp: 4, Label: load.RampBuild}

	t.Run("narrower band accepted", func(t *testing.T) {
		a := fixedResponse(`{"weekly_tss_low": 360, "weekly_tss_high": 400, "reasoning": "sleep debt warrants margin"}`)
		got, err := a.ReviewLoad(context.Background(), rec, "summary")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.WeeklyTSSLow != 360 || got.WeeklyTSSHigh != 400 {
			t.Errorf("band = %.0f-%.0f, want 360-400", got.WeeklyTSSLow, got.WeeklyTSSHigh)
		}
		if !got.AIEnhanced {
			t.Error("accepted review should be marked enhanced")
		}
	})

	t.Run("wider band rejected", func(t *testing.T) {
		a := fixedResponse(`{"weekly_tss_low": 300, "weekly_tss_high": 500, "reasoning": "go big"}`)
		if _, err := a.ReviewLoad(context.Background(), rec, "summary"); err == nil {
			t.Error("expected error for band outside deterministic bounds")
		}
	})
}
