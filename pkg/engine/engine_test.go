package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shared "github.com/rouleur/coach/pkg"
	"github.com/rouleur/coach/pkg/advisor"
	"github.com/rouleur/coach/pkg/bootstrap"
	"github.com/rouleur/coach/pkg/domain/selector"
	"github.com/rouleur/coach/pkg/domain/trajectory"
	"github.com/rouleur/coach/pkg/domain/wellness"
	"github.com/rouleur/coach/pkg/integrations/intervals"
	"github.com/rouleur/coach/pkg/testing/mocks"
)

var testLogger = slog.Default()

type fakeFitness struct {
	activities []intervals.Activity
	wellness   []intervals.WellnessRecord
	events     []intervals.Event

	activitiesErr error
	wellnessErr   error
	eventsErr     error
}

func (f *fakeFitness) ListActivities(ctx context.Context, r intervals.DateRange) ([]intervals.Activity, error) {
	return f.activities, f.activitiesErr
}
func (f *fakeFitness) ListWellness(ctx context.Context, r intervals.DateRange) ([]intervals.WellnessRecord, error) {
	return f.wellness, f.wellnessErr
}
func (f *fakeFitness) ListEvents(ctx context.Context, r intervals.DateRange) ([]intervals.Event, error) {
	return f.events, f.eventsErr
}

var testNow = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

// sampleData builds six weeks of steady training with computed load
// metrics and a healthy wellness feed.
func sampleData() *fakeFitness {
	f := &fakeFitness{}
	for d := 42; d >= 0; d-- {
		date := testNow.AddDate(0, 0, -d)
		readiness := 70.0
		f.wellness = append(f.wellness, intervals.WellnessRecord{
			ID:        date.Format("2006-01-02"),
			SleepSecs: 27000,
			RestingHR: 48,
			HRV:       65,
			Readiness: &readiness,
			CTL:       50 + float64(42-d)*0.2,
			ATL:       52 + float64(42-d)*0.2,
			RampRate:  1.4,
			EFTP:      240,
		})
		if d%2 == 0 && d > 0 {
			f.activities = append(f.activities, intervals.Activity{
				StartDateLocal: date.Format("2006-01-02T07:00:00"),
				Type:           "Ride",
				TrainingLoad:   70,
				MovingTime:     3600,
				RPE:            6,
				Feel:           2,
			})
		}
	}
	f.events = []intervals.Event{
		{StartDate: testNow.AddDate(0, 0, 70).Format("2006-01-02T15:04:05"), Category: intervals.CategoryRaceA, Name: "Goal race"},
	}
	return f
}

func testService(db *mocks.MockDatabase) *bootstrap.Service {
	return &bootstrap.Service{
		DB:     db,
		Store:  &mocks.MockBlobStore{},
		Pub:    &mocks.MockPublisher{},
		Notify: &mocks.MockNotificationService{},
		Config: &bootstrap.Config{
			AthleteID:       "ath-1",
			Sport:           "Ride",
			TargetWeeklyTSS: 350,
			TargetEFTP:      250,
		},
	}
}

func TestRunProducesValidDecision(t *testing.T) {
	var markedDate string
	var auditedType string
	db := &mocks.MockDatabase{
		MarkRunCompleteFunc: func(ctx context.Context, athleteID, date, runID string) error {
			markedDate = date
			return nil
		},
		SetDecisionFunc: func(ctx context.Context, record *shared.DecisionRecord) error {
			auditedType = record.WorkoutType
			return nil
		},
	}

	engine := New(testLogger, testService(db), sampleData(), nil, advisor.New(testLogger, ""))
	outcome, err := engine.Run(context.Background(), testNow)
	require.NoError(t, err)
	require.False(t, outcome.Skipped)

	require.NoError(t, selector.Validate("Ride", outcome.Decision))
	assert.NotEmpty(t, outcome.Decision.Reason)
	assert.False(t, outcome.Decision.AdvisorEnhanced)
	assert.Equal(t, testNow.Format("2006-01-02"), markedDate)
	assert.Equal(t, outcome.Decision.WorkoutType, auditedType)
	assert.NotEmpty(t, outcome.Report)
	assert.Len(t, outcome.Advisories, 5)
}

func TestRunSkipsWhenAlreadyRan(t *testing.T) {
	marked := false
	db := &mocks.MockDatabase{
		HasRunTodayFunc: func(ctx context.Context, athleteID, date string) (bool, error) {
			return true, nil
		},
		MarkRunCompleteFunc: func(ctx context.Context, athleteID, date, runID string) error {
			marked = true
			return nil
		},
	}

	engine := New(testLogger, testService(db), sampleData(), nil, advisor.New(testLogger, ""))
	outcome, err := engine.Run(context.Background(), testNow)

	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.False(t, marked, "skipped run must not touch the marker")
}

func TestRunFatalWhenFitnessUnreachable(t *testing.T) {
	marked := false
	db := &mocks.MockDatabase{
		MarkRunCompleteFunc: func(ctx context.Context, athleteID, date, runID string) error {
			marked = true
			return nil
		},
	}
	fitness := sampleData()
	fitness.activitiesErr = errors.New("connection refused")

	engine := New(testLogger, testService(db), fitness, nil, advisor.New(testLogger, ""))
	_, err := engine.Run(context.Background(), testNow)

	require.Error(t, err)
	assert.False(t, marked, "failed run must leave the marker unset for retry")
}

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestRunAdvisorFailureEquivalence(t *testing.T) {
	runWith := func(adv *advisor.Advisor) selector.WorkoutDecision {
		db := &mocks.MockDatabase{}
		engine := New(testLogger, testService(db), sampleData(), nil, adv)
		outcome, err := engine.Run(context.Background(), testNow)
		require.NoError(t, err)
		return outcome.Decision
	}

	disabled := runWith(advisor.New(testLogger, ""))
	failing := runWith(advisor.NewWithGenerator(testLogger, &stubGenerator{err: errors.New("timeout")}))
	garbage := runWith(advisor.NewWithGenerator(testLogger, &stubGenerator{response: "not json at all"}))

	assert.Equal(t, disabled, failing, "generator failure must equal disabled advisor")
	assert.Equal(t, disabled, garbage, "unparseable output must equal disabled advisor")
	require.NoError(t, selector.Validate("Ride", disabled))
}

func TestRunIdempotentDecision(t *testing.T) {
	run := func() selector.WorkoutDecision {
		db := &mocks.MockDatabase{}
		engine := New(testLogger, testService(db), sampleData(), nil, advisor.New(testLogger, ""))
		outcome, err := engine.Run(context.Background(), testNow)
		require.NoError(t, err)
		return outcome.Decision
	}

	assert.Equal(t, run(), run(), "identical snapshots must yield identical decisions")
}

func TestRunAdvisorPrimaryPath(t *testing.T) {
	adv := advisor.NewWithGenerator(testLogger, &stubGenerator{
		response: `{"workout_type": "Endurance", "intensity": 2, "should_train": true, "reason": "absorb recent load"}`,
	})

	db := &mocks.MockDatabase{}
	engine := New(testLogger, testService(db), sampleData(), nil, adv)
	outcome, err := engine.Run(context.Background(), testNow)

	require.NoError(t, err)
	assert.Equal(t, "Endurance", outcome.Decision.WorkoutType)
	assert.True(t, outcome.Decision.AdvisorEnhanced)
}

func TestReady(t *testing.T) {
	today := testNow.Format("2006-01-02")

	t.Run("data arrived", func(t *testing.T) {
		readiness := 70.0
		fitness := &fakeFitness{wellness: []intervals.WellnessRecord{
			{ID: today, HRV: 60, Readiness: &readiness},
		}}
		engine := New(testLogger, testService(&mocks.MockDatabase{}), fitness, nil, advisor.New(testLogger, ""))
		assert.True(t, engine.Ready(context.Background(), testNow))
	})

	t.Run("empty row not ready", func(t *testing.T) {
		fitness := &fakeFitness{wellness: []intervals.WellnessRecord{{ID: today}}}
		engine := New(testLogger, testService(&mocks.MockDatabase{}), fitness, nil, advisor.New(testLogger, ""))
		assert.False(t, engine.Ready(context.Background(), testNow))
	})

	t.Run("fetch failure not ready", func(t *testing.T) {
		fitness := &fakeFitness{wellnessErr: fmt.Errorf("boom")}
		engine := New(testLogger, testService(&mocks.MockDatabase{}), fitness, nil, advisor.New(testLogger, ""))
		assert.False(t, engine.Ready(context.Background(), testNow))
	})
}

func TestDaysSinceEFTPChange(t *testing.T) {
	mk := func(daysAgo int, eftp float64) trajectory.Point {
		return trajectory.Point{Date: testNow.AddDate(0, 0, -daysAgo), EFTP: eftp}
	}

	// Newest first: eFTP moved from 240 to 245 ten days ago.
	points := []trajectory.Point{mk(0, 245), mk(5, 245), mk(10, 245), mk(11, 240), mk(20, 240)}
	assert.Equal(t, 10, daysSinceEFTPChange(points))

	// A flat series means no test on record.
	assert.Equal(t, -1, daysSinceEFTPChange(points[3:]))
}

// A recovery collapse on the run day must reach the intensity cap even
// though the wellness feed lists six healthy weeks before it.
func TestRunTodayRecoveryCollapseCapsIntensity(t *testing.T) {
	fitness := sampleData()
	bad := 20.0
	fitness.wellness[len(fitness.wellness)-1].Readiness = &bad

	db := &mocks.MockDatabase{}
	engine := New(testLogger, testService(db), fitness, nil, advisor.New(testLogger, ""))
	outcome, err := engine.Run(context.Background(), testNow)

	require.NoError(t, err)
	require.False(t, outcome.Skipped)
	assert.Equal(t, wellness.RecoveryRed, outcome.Wellness.RecoveryStatus)
	assert.LessOrEqual(t, outcome.Decision.MaxIntensity, 2)
}

func TestRunEventTomorrowCapsIntensity(t *testing.T) {
	fitness := sampleData()
	fitness.events = append(fitness.events, intervals.Event{
		StartDate: testNow.AddDate(0, 0, 1).Format("2006-01-02T15:04:05"),
		Category:  intervals.CategoryRaceA,
		Name:      "Crit",
	})

	db := &mocks.MockDatabase{}
	engine := New(testLogger, testService(db), fitness, nil, advisor.New(testLogger, ""))
	outcome, err := engine.Run(context.Background(), testNow)

	require.NoError(t, err)
	assert.LessOrEqual(t, outcome.Decision.MaxIntensity, 2)
}
