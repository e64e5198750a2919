package fitfile

import (
	"testing"
	"time"

	"github.com/rouleur/coach/pkg/domain/selector"
)

func TestGenerate(t *testing.T) {
	decision := selector.WorkoutDecision{
		WorkoutType:  "Sweet Spot",
		MaxIntensity: 3,
		Reason:       "build phase, good form",
	}

	result, err := Generate(decision, "Ride", 45, time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result) < 14 {
		t.Fatalf("Result too short to be a FIT file: %d bytes", len(result))
	}
	// Bytes 8-11 of the header spell ".FIT"
	if fileType := string(result[8:12]); fileType != ".FIT" {
		t.Errorf("Expected .FIT file type in header, got %q", fileType)
	}
}

func TestGenerateRestDay(t *testing.T) {
	decision := selector.WorkoutDecision{IsRestDay: true, Reason: "deep fatigue"}

	if _, err := Generate(decision, "Ride", 45, time.Now()); err == nil {
		t.Error("Expected error for a rest day")
	}
}

func TestMainBlockIntervalsForHardDays(t *testing.T) {
	if steps := mainBlock(5, 30); len(steps) != 5 {
		t.Errorf("VO2 day steps = %d, want 5", len(steps))
	}
	if steps := mainBlock(2, 60); len(steps) != 1 || steps[0].ftpHighPct > 75 {
		t.Errorf("endurance day should be one sub-76%% step, got %+v", steps)
	}
}
