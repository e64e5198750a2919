// Package advisor wraps the generative model behind typed, validated
// decision helpers. Every helper degrades to an error rather than a
// partial result; callers always hold a rule-based fallback computed
// beforehand, so an advisor failure only means the fallback ships.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rouleur/coach/pkg/domain/load"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/selector"
)

// Advisor asks a generative model for decision refinements. A nil or
// disabled Advisor is valid; every method then returns ErrDisabled.
type Advisor struct {
	logger    *slog.Logger
	generator Generator
}

var ErrDisabled = errors.New("advisor disabled")

// New builds an advisor over a generator. Pass an empty API key to get a
// disabled advisor that always falls through to the rule-based path.
func New(logger *slog.Logger, apiKey string) *Advisor {
	if apiKey == "" {
		logger.Warn("advisor: no API key configured, rule-based decisions only")
		return &Advisor{logger: logger}
	}
	return &Advisor{logger: logger, generator: &GeminiGenerator{APIKey: apiKey}}
}

// NewWithGenerator is the test seam.
func NewWithGenerator(logger *slog.Logger, g Generator) *Advisor {
	return &Advisor{logger: logger, generator: g}
}

func (a *Advisor) Enabled() bool {
	return a != nil && a.generator != nil
}

// workoutResponse is the JSON shape the model must return for a workout
// suggestion. Missing required fields invalidate the whole response.
type workoutResponse struct {
	WorkoutType string `json:"workout_type"`
	Intensity   int    `json:"intensity"`
	ShouldTrain *bool  `json:"should_train"`
	Reason      string `json:"reason"`
}

// SuggestWorkout asks the model for today's workout. The response is
// accepted only if it parses, names a catalog type for the sport and
// carries every required field; anything else is an error.
func (a *Advisor) SuggestWorkout(ctx context.Context, sctx selector.Context) (selector.WorkoutDecision, error) {
	var decision selector.WorkoutDecision
	if !a.Enabled() {
		return decision, ErrDisabled
	}

	raw, err := a.generator.Generate(ctx, buildWorkoutPrompt(sctx))
	if err != nil {
		return decision, fmt.Errorf("workout suggestion failed: %w", err)
	}

	var resp workoutResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return decision, fmt.Errorf("workout response not valid JSON: %w", err)
	}
	if resp.ShouldTrain == nil || resp.Reason == "" {
		return decision, fmt.Errorf("workout response missing required fields")
	}

	decision = selector.WorkoutDecision{
		WorkoutType:     resp.WorkoutType,
		MaxIntensity:    resp.Intensity,
		IsRestDay:       !*resp.ShouldTrain,
		Reason:          resp.Reason,
		AdvisorEnhanced: true,
	}
	if err := selector.Validate(sctx.Sport, decision); err != nil {
		return selector.WorkoutDecision{}, fmt.Errorf("workout response rejected: %w", err)
	}

	a.logger.Info("advisor: workout suggestion accepted",
		"workout_type", decision.WorkoutType,
		"intensity", decision.MaxIntensity,
		"rest_day", decision.IsRestDay,
	)
	return decision, nil
}

type phaseResponse struct {
	Phase       string   `json:"phase"`
	Reasoning   string   `json:"reasoning"`
	Confidence  string   `json:"confidence"`
	Adjustments []string `json:"adjustments"`
}

// ReviewPhase lets the model annotate or override the deterministic phase.
// An override is applied only when the returned phase is a legal value.
func (a *Advisor) ReviewPhase(ctx context.Context, result phase.Result, summary string) (phase.Result, error) {
	if !a.Enabled() {
		return result, ErrDisabled
	}

	raw, err := a.generator.Generate(ctx, buildPhasePrompt(result, summary))
	if err != nil {
		return result, fmt.Errorf("phase review failed: %w", err)
	}

	var resp phaseResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return result, fmt.Errorf("phase response not valid JSON: %w", err)
	}
	if resp.Reasoning == "" {
		return result, fmt.Errorf("phase response missing reasoning")
	}

	reviewed := result
	reviewed.AIEnhanced = true
	reviewed.Reasoning = append(reviewed.Reasoning, resp.Reasoning)
	reviewed.Adjustments = resp.Adjustments
	if resp.Confidence != "" {
		reviewed.ConfidenceLevel = resp.Confidence
	}
	if p := phase.Phase(strings.ToLower(resp.Phase)); p.Valid() && p != result.Phase {
		reviewed.Phase = p
		reviewed.Overridden = true
		a.logger.Info("advisor: phase overridden",
			"deterministic", result.Phase,
			"override", p,
		)
	}
	return reviewed, nil
}

type loadResponse struct {
	WeeklyTSSLow  float64 `json:"weekly_tss_low"`
	WeeklyTSSHigh float64 `json:"weekly_tss_high"`
	Reasoning     string  `json:"reasoning"`
}

// ReviewLoad lets the model tighten the weekly load band. The band is
// accepted only when it stays inside the deterministic one; the advisor
// may be more conservative, never more aggressive.
func (a *Advisor) ReviewLoad(ctx context.Context, rec load.Recommendation, summary string) (load.Recommendation, error) {
	if !a.Enabled() {
		return rec, ErrDisabled
	}

	raw, err := a.generator.Generate(ctx, buildLoadPrompt(rec, summary))
	if err != nil {
		return rec, fmt.Errorf("load review failed: %w", err)
	}

	var resp loadResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return rec, fmt.Errorf("load response not valid JSON: %w", err)
	}
	if resp.WeeklyTSSLow <= 0 || resp.WeeklyTSSHigh < resp.WeeklyTSSLow {
		return rec, fmt.Errorf("load response band invalid")
	}
	if resp.WeeklyTSSLow < rec.WeeklyTSSLow || resp.WeeklyTSSHigh > rec.WeeklyTSSHigh {
		return rec, fmt.Errorf("load response band outside deterministic bounds")
	}

	reviewed := rec
	reviewed.WeeklyTSSLow = resp.WeeklyTSSLow
	reviewed.WeeklyTSSHigh = resp.WeeklyTSSHigh
	reviewed.DailyTSSLow = resp.WeeklyTSSLow / 7
	reviewed.DailyTSSHigh = resp.WeeklyTSSHigh / 7
	reviewed.AIEnhanced = true
	if resp.Reasoning != "" {
		reviewed.Reasons = append(reviewed.Reasons, resp.Reasoning)
	}
	return reviewed, nil
}

// ResolveWorkout applies the fallback-first contract: the rule-based
// decision is computed before the advisor is consulted, and any advisor
// error of any kind ships the fallback unchanged.
func ResolveWorkout(logger *slog.Logger, fallback selector.WorkoutDecision, primary func() (selector.WorkoutDecision, error)) selector.WorkoutDecision {
	decision, err := primary()
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			logger.Warn("advisor: falling back to rule-based decision", "error", err)
		}
		return fallback
	}
	return decision
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
