package wellness

import (
	"log/slog"
	"testing"
	"time"
)

func dayRecord(daysAgo int, mutate func(*Record)) Record {
	r := Record{Date: time.Now().AddDate(0, 0, -daysAgo)}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func score(v float64) *float64 { return &v }

func TestAggregate_EmptyWindow(t *testing.T) {
	var records []Record
	for i := 0; i < 7; i++ {
		records = append(records, dayRecord(i, nil))
	}

	summary := Aggregate(slog.Default(), records)

	if summary.RecoveryStatus != RecoveryUnknown {
		t.Errorf("expected unknown recovery, got %s", summary.RecoveryStatus)
	}
	if summary.IntensityModifier != modifierNeutral {
		t.Errorf("expected neutral modifier %.2f, got %.2f", modifierNeutral, summary.IntensityModifier)
	}
	if summary.SleepStatus != SleepUnknown {
		t.Errorf("expected unknown sleep, got %s", summary.SleepStatus)
	}
}

func TestAggregate_FallsBackToLatestPopulatedRecord(t *testing.T) {
	// Today's record is empty (wearable not synced); yesterday has data.
	records := []Record{
		dayRecord(0, nil),
		dayRecord(1, func(r *Record) {
			r.SleepHours = 7.5
			r.RecoveryScore = score(80)
		}),
	}

	summary := Aggregate(slog.Default(), records)

	if summary.RecoveryStatus != RecoveryGreen {
		t.Errorf("expected green, got %s", summary.RecoveryStatus)
	}
	if !summary.Date.Equal(records[1].Date) {
		t.Errorf("summary should come from yesterday's record")
	}
}

func TestAggregate_RecoveryScoreThresholds(t *testing.T) {
	tests := []struct {
		score    float64
		expected RecoveryStatus
	}{
		{90, RecoveryGreen},
		{66, RecoveryGreen},
		{65, RecoveryYellow},
		{33, RecoveryYellow},
		{32, RecoveryRed},
		{5, RecoveryRed},
	}

	for _, tt := range tests {
		records := []Record{dayRecord(0, func(r *Record) { r.RecoveryScore = score(tt.score) })}
		summary := Aggregate(slog.Default(), records)
		if summary.RecoveryStatus != tt.expected {
			t.Errorf("score %.0f: expected %s, got %s", tt.score, tt.expected, summary.RecoveryStatus)
		}
	}
}

func TestAggregate_HRVFallbackClassification(t *testing.T) {
	// No recovery score anywhere; classification must use HRV deviation
	// against the 7-day average.
	baseline := func(hrv float64) []Record {
		records := []Record{dayRecord(0, func(r *Record) { r.HRV = hrv })}
		for i := 1; i < 7; i++ {
			records = append(records, dayRecord(i, func(r *Record) { r.HRV = 60 }))
		}
		return records
	}

	tests := []struct {
		name     string
		todayHRV float64
		expected RecoveryStatus
	}{
		{"well above baseline", 75, RecoveryGreen},
		{"near baseline", 60, RecoveryYellow},
		{"well below baseline", 48, RecoveryRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Aggregate(slog.Default(), baseline(tt.todayHRV))
			if summary.RecoveryStatus != tt.expected {
				t.Errorf("hrv %.0f: expected %s, got %s", tt.todayHRV, tt.expected, summary.RecoveryStatus)
			}
		})
	}
}

func TestAggregate_AveragesExcludeMissingDays(t *testing.T) {
	records := []Record{
		dayRecord(0, func(r *Record) { r.SleepHours = 8 }),
		dayRecord(1, nil), // missing, must not drag the average down
		dayRecord(2, func(r *Record) { r.SleepHours = 6 }),
	}

	summary := Aggregate(slog.Default(), records)

	if summary.AvgSleepHours != 7 {
		t.Errorf("expected avg sleep 7.0 over populated days, got %.2f", summary.AvgSleepHours)
	}
}

func TestClassifySleep(t *testing.T) {
	tests := []struct {
		hours    float64
		expected SleepStatus
	}{
		{8.5, SleepExcellent},
		{7.2, SleepAdequate},
		{6.1, SleepPoor},
		{4.0, SleepInsufficient},
		{0, SleepUnknown},
	}

	for _, tt := range tests {
		if got := classifySleep(tt.hours); got != tt.expected {
			t.Errorf("%.1f hours: expected %s, got %s", tt.hours, tt.expected, got)
		}
	}
}

func TestMergeFresh_SameDayFieldsWin(t *testing.T) {
	records := []Record{
		dayRecord(0, func(r *Record) { r.SleepHours = 6; r.HRV = 50 }),
		dayRecord(1, func(r *Record) { r.SleepHours = 7 }),
	}
	fresh := dayRecord(0, func(r *Record) { r.HRV = 70; r.RecoveryScore = score(55) })

	merged := MergeFresh(records, &fresh)

	if merged[0].HRV != 70 {
		t.Errorf("wearable HRV should win, got %.0f", merged[0].HRV)
	}
	if merged[0].SleepHours != 6 {
		t.Errorf("unset wearable fields must not clobber, got %.1f", merged[0].SleepHours)
	}
	if merged[0].RecoveryScore == nil || *merged[0].RecoveryScore != 55 {
		t.Errorf("recovery score not merged")
	}
	// Original slice untouched
	if records[0].HRV != 50 {
		t.Errorf("MergeFresh must not mutate its input")
	}
}

func TestMergeFresh_PrependsUnknownDay(t *testing.T) {
	records := []Record{dayRecord(1, func(r *Record) { r.SleepHours = 7 })}
	fresh := dayRecord(0, func(r *Record) { r.RecoveryScore = score(70) })

	merged := MergeFresh(records, &fresh)

	if len(merged) != 2 {
		t.Fatalf("expected prepended record, got %d", len(merged))
	}
	if merged[0].RecoveryScore == nil {
		t.Errorf("fresh record should lead the window")
	}
}
