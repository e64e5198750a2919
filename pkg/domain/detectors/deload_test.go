package detectors

import (
	"testing"

	"github.com/rouleur/coach/pkg/domain/fitness"
)

func TestDetectDeloadNeed_SustainedLoad(t *testing.T) {
	// Four weeks all above target 280: no sub-threshold week anywhere.
	adv := DetectDeloadNeed(DeloadInput{
		WeeklyTotals:    []float64{320, 310, 300, 305},
		TargetWeeklyTSS: 280,
	})

	if adv.WeeksWithoutDeload < 3 {
		t.Errorf("expected >=3 weeks without deload, got %d", adv.WeeksWithoutDeload)
	}
	if !adv.Detected {
		t.Errorf("sustained load must need a deload")
	}
	if adv.Severity != SeverityMedium {
		t.Errorf("expected medium urgency, got %s", adv.Severity)
	}
}

func TestDetectDeloadNeed_RecentRecoveryWeekResets(t *testing.T) {
	// Most recent week was an easy one, below the deload threshold.
	adv := DetectDeloadNeed(DeloadInput{
		WeeklyTotals:    []float64{80, 310, 300, 305},
		TargetWeeklyTSS: 280,
	})

	if adv.WeeksWithoutDeload != 0 {
		t.Errorf("recovery week must reset the count, got %d", adv.WeeksWithoutDeload)
	}
	if adv.Detected {
		t.Errorf("no deload needed right after one")
	}
}

func TestDetectDeloadNeed_HighUrgency(t *testing.T) {
	adv := DetectDeloadNeed(DeloadInput{
		WeeklyTotals:    []float64{320, 310, 300, 305},
		TargetWeeklyTSS: 280,
		Metrics:         fitness.New(60, 92, 6), // TSB -32, ramp 6
		SleepDebtHours:  4,
	})

	if adv.Severity != SeverityHigh {
		t.Errorf("expected high urgency, got %s (score %d)", adv.Severity, adv.UrgencyScore)
	}
	if len(adv.Reasons) < 4 {
		t.Errorf("expected reasons for every contributing factor, got %v", adv.Reasons)
	}
}

func TestDetectDeloadNeed_UrgencyMonotonicity(t *testing.T) {
	rank := map[Severity]int{SeverityNone: 0, SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3}

	base := DeloadInput{
		WeeklyTotals:    []float64{320, 310, 300, 305},
		TargetWeeklyTSS: 280,
		Metrics:         fitness.New(60, 75, 2),
	}
	baseline := DetectDeloadNeed(base)

	worse := []DeloadInput{
		{WeeklyTotals: base.WeeklyTotals, TargetWeeklyTSS: 280, Metrics: fitness.New(60, 75, 6)},
		{WeeklyTotals: base.WeeklyTotals, TargetWeeklyTSS: 280, Metrics: fitness.New(60, 95, 2)},
		{WeeklyTotals: base.WeeklyTotals, TargetWeeklyTSS: 280, Metrics: base.Metrics, SleepDebtHours: 6},
	}

	for i, in := range worse {
		adv := DetectDeloadNeed(in)
		if adv.UrgencyScore < baseline.UrgencyScore {
			t.Errorf("case %d: worsening a factor lowered the score (%d < %d)", i, adv.UrgencyScore, baseline.UrgencyScore)
		}
		if rank[adv.Severity] < rank[baseline.Severity] {
			t.Errorf("case %d: worsening a factor lowered severity (%s < %s)", i, adv.Severity, baseline.Severity)
		}
	}
}

func TestDetectDeloadNeed_EmptyWindow(t *testing.T) {
	adv := DetectDeloadNeed(DeloadInput{TargetWeeklyTSS: 280})

	if adv.Detected {
		t.Errorf("no history must not trigger a deload")
	}
	if adv.WeeksWithoutDeload != 0 {
		t.Errorf("expected zero weeks, got %d", adv.WeeksWithoutDeload)
	}
}
