// Package report renders the daily decision into human-readable text for
// push notifications and the archived daily report.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rouleur/coach/pkg/domain/detectors"
	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/load"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/selector"
	"github.com/rouleur/coach/pkg/domain/wellness"
)

// DailyInput carries everything a day's report mentions. All fields come
// straight from the pipeline context; the composer adds no decisions of
// its own.
type DailyInput struct {
	Date       time.Time
	Phase      phase.Result
	Metrics    fitness.Metrics
	Wellness   wellness.Summary
	Load       load.Recommendation
	Decision   selector.WorkoutDecision
	Advisories map[string]detectors.Advisory
}

var (
	titleCaser = cases.Title(language.English)
	printer    = message.NewPrinter(language.English)
)

// Notification renders the short push title and body.
func Notification(in DailyInput) (title, body string) {
	if in.Decision.IsRestDay {
		title = "Rest day"
		body = in.Decision.Reason
		return title, body
	}

	title = fmt.Sprintf("Today: %s", in.Decision.WorkoutType)
	body = printer.Sprintf("Intensity cap %d/5, %.0f-%.0f TSS. %s",
		in.Decision.MaxIntensity, in.Load.DailyTSSLow, in.Load.DailyTSSHigh, in.Decision.Reason)
	return title, body
}

// ComposeDaily renders the full daily report in Markdown.
func ComposeDaily(in DailyInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Training Report: %s\n\n", in.Date.Format("Monday, 2 January 2006"))

	fmt.Fprintf(&b, "## Decision\n\n")
	if in.Decision.IsRestDay {
		b.WriteString("**Rest day.** ")
	} else {
		fmt.Fprintf(&b, "**%s** (intensity cap %d/5). ", in.Decision.WorkoutType, in.Decision.MaxIntensity)
	}
	b.WriteString(in.Decision.Reason)
	if in.Decision.AdvisorEnhanced {
		b.WriteString(" _(advisor)_")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## Status\n\n")
	fmt.Fprintf(&b, "- Phase: %s (%d weeks to goal)\n", titleCaser.String(string(in.Phase.Phase)), in.Phase.WeeksOut)
	printer.Fprintf(&b, "- Fitness %.0f / Fatigue %.0f / Form %.0f (ramp %.1f per week)\n",
		in.Metrics.CTL, in.Metrics.ATL, in.Metrics.TSB, in.Metrics.RampRate)
	fmt.Fprintf(&b, "- Recovery: %s, sleep: %s\n", titleCaser.String(string(in.Wellness.RecoveryStatus)), titleCaser.String(string(in.Wellness.SleepStatus)))
	printer.Fprintf(&b, "- Weekly load target: %.0f-%.0f TSS (%s)\n", in.Load.WeeklyTSSLow, in.Load.WeeklyTSSHigh, in.Load.Label)
	b.WriteString("\n")

	if active := activeAdvisories(in.Advisories); len(active) > 0 {
		fmt.Fprintf(&b, "## Advisories\n\n")
		for _, name := range active {
			adv := in.Advisories[name]
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", titleCaser.String(name), adv.Severity, strings.Join(adv.Reasons, "; "))
			if adv.Recommendation != "" {
				fmt.Fprintf(&b, "  - %s\n", adv.Recommendation)
			}
		}
		b.WriteString("\n")
	}

	if len(in.Phase.Reasoning) > 0 {
		fmt.Fprintf(&b, "## Coach Notes\n\n")
		for _, note := range in.Phase.Reasoning {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		for _, adj := range in.Phase.Adjustments {
			fmt.Fprintf(&b, "- %s\n", adj)
		}
	}

	return b.String()
}

// activeAdvisories returns the names of triggered advisories in a stable
// severity-then-name order.
func activeAdvisories(advisories map[string]detectors.Advisory) []string {
	rank := map[detectors.Severity]int{
		detectors.SeverityCritical: 0,
		detectors.SeverityHigh:     1,
		detectors.SeverityMedium:   2,
		detectors.SeverityLow:      3,
	}

	var names []string
	for name, adv := range advisories {
		if adv.Detected {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank[advisories[names[i]].Severity], rank[advisories[names[j]].Severity]
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}
