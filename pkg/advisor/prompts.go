package advisor

import (
	"fmt"
	"strings"

	"github.com/rouleur/coach/pkg/domain/load"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/selector"
)

// buildWorkoutPrompt renders the selector context and the decision rubric.
// The rubric is fixed text; only the signal block varies day to day.
func buildWorkoutPrompt(sctx selector.Context) string {
	var b strings.Builder

	b.WriteString("You are an endurance coach deciding today's workout for one athlete.\n\n")
	b.WriteString("Current signals:\n")
	fmt.Fprintf(&b, "- Sport: %s\n", sctx.Sport)
	fmt.Fprintf(&b, "- Training phase: %s (%d weeks to goal event)\n", sctx.Phase.Phase, sctx.Phase.WeeksOut)
	fmt.Fprintf(&b, "- Fitness (CTL): %.0f, Fatigue (ATL): %.0f, Form (TSB): %.0f\n",
		sctx.Metrics.CTL, sctx.Metrics.ATL, sctx.Metrics.TSB)
	fmt.Fprintf(&b, "- Recovery status: %s, sleep status: %s\n",
		sctx.Wellness.RecoveryStatus, sctx.Wellness.SleepStatus)
	if sctx.Events.EventTomorrow {
		fmt.Fprintf(&b, "- Race tomorrow (priority %s)\n", sctx.Events.TomorrowPriority)
	}
	if sctx.Events.EventYesterday {
		b.WriteString("- Raced yesterday\n")
	}
	if len(sctx.RecentTypes) > 0 {
		fmt.Fprintf(&b, "- Recent workout types (newest first): %s\n", strings.Join(sctx.RecentTypes, ", "))
	}
	if !sctx.Feedback.InsufficientData {
		fmt.Fprintf(&b, "- Session feedback trend: %s (%+.0f%% intensity adjustment)\n",
			sctx.Feedback.Recommendation, sctx.Feedback.IntensityAdjustmentPct)
	}

	fmt.Fprintf(&b, "\nAllowed workout types for %s: %s\n",
		sctx.Sport, strings.Join(selector.KnownTypes(sctx.Sport), ", "))

	b.WriteString(`
Decision rubric:
- Negative form or red recovery means easy or rest, no exceptions.
- A race tomorrow means openers or rest depending on priority.
- Vary workout types; avoid repeating the last two sessions.
- Intensity is 1 (recovery) to 5 (maximal), and must suit the phase.

Respond with ONLY a JSON object, no other text:
{"workout_type": "<one allowed type>", "intensity": <1-5>, "should_train": <true|false>, "reason": "<one sentence>"}`)

	return b.String()
}

func buildPhasePrompt(result phase.Result, summary string) string {
	return fmt.Sprintf(`You are an endurance coach reviewing a periodization decision.

The calendar-based calculation put the athlete in the %q phase, %d weeks from the goal event.

Athlete summary:
%s

Confirm the phase or override it when the athlete's condition clearly
contradicts the calendar. Valid phases: base, build, specialty, taper, race_week.

Respond with ONLY a JSON object, no other text:
{"phase": "<phase>", "reasoning": "<one or two sentences>", "confidence": "<low|medium|high>", "adjustments": ["<optional training adjustments>"]}`,
		result.Phase, result.WeeksOut, summary)
}

func buildLoadPrompt(rec load.Recommendation, summary string) string {
	return fmt.Sprintf(`You are an endurance coach reviewing a weekly training-load target.

The deterministic recommendation allows %.0f-%.0f TSS this week (ramp %.1f CTL/week, label %q).

Athlete summary:
%s

You may narrow this band to be more conservative. You may not extend it.

Respond with ONLY a JSON object, no other text:
{"weekly_tss_low": <number>, "weekly_tss_high": <number>, "reasoning": "<one sentence>"}`,
		rec.WeeklyTSSLow, rec.WeeklyTSSHigh, rec.WeeklyRamp, rec.Label, summary)
}
