// Package engine runs the daily decision pipeline: fetch a snapshot of
// the athlete's data, walk it through the domain components in order, and
// hand the terminal WorkoutDecision to the output collaborators. The
// pipeline is single-threaded; every component finishes before the next
// starts and all data passes by value through the snapshot.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rouleur/coach/pkg/advisor"
	"github.com/rouleur/coach/pkg/bootstrap"
	"github.com/rouleur/coach/pkg/domain/activity"
	"github.com/rouleur/coach/pkg/domain/detectors"
	"github.com/rouleur/coach/pkg/domain/feedback"
	"github.com/rouleur/coach/pkg/domain/fitness"
	"github.com/rouleur/coach/pkg/domain/load"
	"github.com/rouleur/coach/pkg/domain/phase"
	"github.com/rouleur/coach/pkg/domain/selector"
	"github.com/rouleur/coach/pkg/domain/trajectory"
	"github.com/rouleur/coach/pkg/domain/wellness"
	"github.com/rouleur/coach/pkg/integrations/intervals"
	"github.com/rouleur/coach/pkg/report"
)

// FitnessService is the engine's view of the fitness-tracking API.
// *intervals.Client satisfies it.
type FitnessService interface {
	ListActivities(ctx context.Context, r intervals.DateRange) ([]intervals.Activity, error)
	ListWellness(ctx context.Context, r intervals.DateRange) ([]intervals.WellnessRecord, error)
	ListEvents(ctx context.Context, r intervals.DateRange) ([]intervals.Event, error)
}

// RecoveryService provides fresher same-day wellness than the primary
// feed. *whoop.Client satisfies it; a nil-backed implementation returns
// no records.
type RecoveryService interface {
	FreshRecords(ctx context.Context, day time.Time) []wellness.Record
}

// Engine wires the domain pipeline to its collaborators.
type Engine struct {
	logger   *slog.Logger
	svc      *bootstrap.Service
	fitness  FitnessService
	recovery RecoveryService
	advisor  *advisor.Advisor
	uploader Uploader
}

type noopRecovery struct{}

func (noopRecovery) FreshRecords(context.Context, time.Time) []wellness.Record { return nil }

func New(logger *slog.Logger, svc *bootstrap.Service, fitnessSvc FitnessService, recoverySvc RecoveryService, adv *advisor.Advisor) *Engine {
	if recoverySvc == nil {
		recoverySvc = noopRecovery{}
	}
	return &Engine{
		logger:   logger,
		svc:      svc,
		fitness:  fitnessSvc,
		recovery: recoverySvc,
		advisor:  adv,
	}
}

const (
	activityWindowDays  = 90
	wellnessWindowDays  = 42
	aggregateWindowDays = 7
	eventLookaheadDays  = 180
	recentDecisionDays  = 3
	deloadWeeks         = 6
	defaultMainMinutes  = 45
)

// snapshot is the immutable input set for one run. Everything downstream
// of the fetch reads from here, never from the network.
type snapshot struct {
	now        time.Time
	activities []activity.Activity
	wellness   []wellness.Record
	metrics    fitness.Metrics
	trajPoints []trajectory.Point
	events     []intervals.Event
	recent     []string // workout types of the last few decisions
}

// Outcome is what a completed (or skipped) run produced.
type Outcome struct {
	Skipped    bool
	RunID      string
	Decision   selector.WorkoutDecision
	Phase      phase.Result
	Load       load.Recommendation
	Wellness   wellness.Summary
	Metrics    fitness.Metrics
	Advisories map[string]detectors.Advisory
	Feedback   feedback.Result
	Report     string
}

// Ready reports whether today's recovery data has arrived. The hourly
// retry tick calls this before committing to a run so an early-morning
// invocation waits for the wearable sync instead of deciding blind.
func (e *Engine) Ready(ctx context.Context, now time.Time) bool {
	day := now.Format("2006-01-02")
	rows, err := e.fitness.ListWellness(ctx, intervals.DateRange{Oldest: day, Newest: day})
	if err != nil {
		e.logger.Warn("engine: readiness check failed", "error", err)
		return false
	}
	for _, rec := range intervals.ToWellnessRecords(rows) {
		if rec.HasData() {
			return true
		}
	}
	if fresh := e.recovery.FreshRecords(ctx, now); len(fresh) > 0 && fresh[0].HasData() {
		return true
	}
	return false
}

// Run executes one daily decision. The only fatal error is the fitness
// service being unreachable for the initial snapshot; everything after
// that degrades component by component. The run marker is written only
// after every output succeeds, so a failed run retries on the next tick.
func (e *Engine) Run(ctx context.Context, now time.Time) (*Outcome, error) {
	date := now.Format("2006-01-02")
	athleteID := e.svc.Config.AthleteID

	done, err := e.svc.DB.HasRunToday(ctx, athleteID, date)
	if err != nil {
		return nil, fmt.Errorf("run marker check failed: %w", err)
	}
	if done {
		e.logger.Info("engine: already ran today, skipping", "date", date)
		return &Outcome{Skipped: true}, nil
	}

	snap, err := e.fetchSnapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	outcome := e.decide(ctx, snap)
	outcome.RunID = uuid.New().String()

	if err := e.publish(ctx, date, outcome); err != nil {
		return nil, err
	}

	if err := e.svc.DB.MarkRunComplete(ctx, athleteID, date, outcome.RunID); err != nil {
		return nil, fmt.Errorf("failed to set run marker: %w", err)
	}

	e.logger.Info("engine: daily run complete",
		"run_id", outcome.RunID,
		"workout_type", outcome.Decision.WorkoutType,
		"rest_day", outcome.Decision.IsRestDay,
		"phase", outcome.Phase.Phase,
	)
	return outcome, nil
}

// Preview computes a decision without touching the run marker or any
// output channel. Used by the one-shot CLI for dry runs.
func (e *Engine) Preview(ctx context.Context, now time.Time) (*Outcome, error) {
	snap, err := e.fetchSnapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	outcome := e.decide(ctx, snap)
	outcome.Report = report.ComposeDaily(report.DailyInput{
		Date:       now,
		Phase:      outcome.Phase,
		Metrics:    outcome.Metrics,
		Wellness:   outcome.Wellness,
		Load:       outcome.Load,
		Decision:   outcome.Decision,
		Advisories: outcome.Advisories,
	})
	return outcome, nil
}

// fetchSnapshot pulls the full input set. Activity and wellness fetches
// are the fatal boundary; events degrade to none.
func (e *Engine) fetchSnapshot(ctx context.Context, now time.Time) (snapshot, error) {
	snap := snapshot{now: now}
	day := func(offset int) string { return now.AddDate(0, 0, offset).Format("2006-01-02") }

	activityRows, err := e.fitness.ListActivities(ctx, intervals.DateRange{
		Oldest: day(-activityWindowDays),
		Newest: day(0),
	})
	if err != nil {
		return snap, fmt.Errorf("fitness service unreachable (activities): %w", err)
	}
	snap.activities = intervals.ToDomainActivities(activityRows)

	wellnessRows, err := e.fitness.ListWellness(ctx, intervals.DateRange{
		Oldest: day(-wellnessWindowDays),
		Newest: day(0),
	})
	if err != nil {
		return snap, fmt.Errorf("fitness service unreachable (wellness): %w", err)
	}
	snap.wellness = intervals.ToWellnessRecords(wellnessRows)
	snap.metrics, _ = intervals.LatestMetrics(wellnessRows)
	snap.trajPoints = intervals.TrajectoryPoints(wellnessRows)

	// Fresher same-day data from the wearable wins over the primary feed.
	if fresh := e.recovery.FreshRecords(ctx, now); len(fresh) > 0 {
		snap.wellness = wellness.MergeFresh(snap.wellness, &fresh[0])
	}

	// The window reaches months out so the goal race is visible, not just
	// tomorrow's event.
	events, err := e.fitness.ListEvents(ctx, intervals.DateRange{
		Oldest: day(-1),
		Newest: day(eventLookaheadDays),
	})
	if err != nil {
		e.logger.Warn("engine: event fetch failed, assuming no races", "error", err)
	} else {
		snap.events = events
	}

	snap.recent = e.recentWorkoutTypes(ctx, now)

	return snap, nil
}

// recentWorkoutTypes reads the last few audited decisions so the selector
// and the advisor can vary workout types day to day.
func (e *Engine) recentWorkoutTypes(ctx context.Context, now time.Time) []string {
	var types []string
	for i := 1; i <= recentDecisionDays; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		rec, err := e.svc.DB.GetDecision(ctx, e.svc.Config.AthleteID, date)
		if err != nil || rec == nil || rec.RestDay {
			continue
		}
		types = append(types, rec.WorkoutType)
	}
	return types
}

// decide walks the snapshot through the domain components in pipeline
// order. It is pure given the snapshot except for advisor calls, and an
// advisor failure at any step keeps that step's deterministic result.
func (e *Engine) decide(ctx context.Context, snap snapshot) *Outcome {
	recentWellness := tailWindow(snap.wellness, snap.now, aggregateWindowDays)
	summary := wellness.Aggregate(e.logger, recentWellness)

	traj := trajectory.Analyze(e.logger, snap.trajPoints, recentWellness, e.svc.Config.TargetEFTP)

	weeksOut := e.weeksToGoal(snap)
	phaseResult := phase.New(weeksOut)
	if e.advisor.Enabled() {
		if reviewed, err := e.advisor.ReviewPhase(ctx, phaseResult, e.athleteSummary(snap, summary)); err == nil {
			phaseResult = reviewed
		}
	}

	loadRec := load.Recommend(e.logger, snap.metrics, phaseResult.Phase, weeksOut)
	if e.advisor.Enabled() {
		if reviewed, err := e.advisor.ReviewLoad(ctx, loadRec, e.athleteSummary(snap, summary)); err == nil {
			loadRec = reviewed
		}
	}

	advisories := e.runDetectors(snap, summary, traj, weeksOut)

	fb := feedback.Analyze(e.logger, snap.activities, snap.now, summary.RecoveryStatus)

	sctx := selector.Context{
		Sport:       e.svc.Config.Sport,
		Phase:       phaseResult,
		Metrics:     snap.metrics,
		Wellness:    summary,
		Events:      eventProximity(snap.events, snap.now),
		RecentTypes: snap.recent,
		Feedback:    fb,
	}

	fallback := selector.Fallback(e.logger, sctx)
	decision := advisor.ResolveWorkout(e.logger, fallback, func() (selector.WorkoutDecision, error) {
		return e.advisor.SuggestWorkout(ctx, sctx)
	})

	return &Outcome{
		Decision:   decision,
		Phase:      phaseResult,
		Load:       loadRec,
		Wellness:   summary,
		Metrics:    snap.metrics,
		Advisories: advisories,
		Feedback:   fb,
	}
}

// runDetectors is the fan-out over the five independent warning checks.
func (e *Engine) runDetectors(snap snapshot, summary wellness.Summary, traj trajectory.Trajectory, weeksOut int) map[string]detectors.Advisory {
	weeklyTotals := activity.WeeklyTotals(snap.activities, snap.now, deloadWeeks)

	deload := detectors.DetectDeloadNeed(detectors.DeloadInput{
		WeeklyTotals:    weeklyTotals,
		TargetWeeklyTSS: e.svc.Config.TargetWeeklyTSS,
		Metrics:         snap.metrics,
		SleepDebtHours:  summary.SleepDebtHours,
	})

	var lastWeek, priorWeek float64
	if len(weeklyTotals) > 0 {
		lastWeek = weeklyTotals[0]
	}
	if len(weeklyTotals) > 1 {
		priorWeek = weeklyTotals[1]
	}
	volume := detectors.DetectVolumeJump(lastWeek, priorWeek)

	advisories := map[string]detectors.Advisory{
		"deload":    deload.Advisory,
		"ramp rate": detectors.DetectRampRateWarning(traj.CTLDeltas),
		"volume":    volume.Advisory,
		"illness":   detectors.DetectIllnessPattern(summary),
		"ftp test": detectors.DetectFTPTestDue(detectors.FTPTestInput{
			DaysSinceLastTest: daysSinceEFTPChange(snap.trajPoints),
			Metrics:           snap.metrics,
			RecoveryStatus:    summary.RecoveryStatus,
			WeeksOut:          weeksOut,
		}),
	}

	for name, adv := range advisories {
		if adv.Detected {
			e.logger.Warn("engine: advisory raised",
				"advisory", name,
				"severity", adv.Severity,
				"reasons", adv.Reasons,
			)
		}
	}
	return advisories
}

// weeksToGoal finds the soonest upcoming race, preferring higher priority
// on ties, and converts it to signed weeks out. No race means open-ended
// base training.
func (e *Engine) weeksToGoal(snap snapshot) int {
	var goal time.Time
	var goalPriority string
	for _, ev := range snap.events {
		if !ev.IsRace() {
			continue
		}
		date, err := time.Parse("2006-01-02T15:04:05", ev.StartDate)
		if err != nil {
			continue
		}
		if date.Before(snap.now) {
			continue
		}
		priority := intervals.RacePriority(ev.Category)
		if goal.IsZero() || date.Before(goal) || (date.Equal(goal) && priority < goalPriority) {
			goal = date
			goalPriority = priority
		}
	}
	if goal.IsZero() {
		return 0
	}
	return phase.WeeksOut(snap.now, goal)
}

// eventProximity reduces the calendar to the selector's tomorrow/yesterday
// view, keeping the highest-priority race per day.
func eventProximity(events []intervals.Event, now time.Time) selector.EventProximity {
	var prox selector.EventProximity
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	for _, ev := range events {
		if !ev.IsRace() || len(ev.StartDate) < 10 {
			continue
		}
		day := ev.StartDate[:10]
		priority := intervals.RacePriority(ev.Category)
		switch day {
		case tomorrow:
			if !prox.EventTomorrow || priority < prox.TomorrowPriority {
				prox.EventTomorrow = true
				prox.TomorrowPriority = priority
			}
		case yesterday:
			if !prox.EventYesterday || priority < prox.YesterdayPriority {
				prox.EventYesterday = true
				prox.YesterdayPriority = priority
			}
		}
	}
	return prox
}

// daysSinceEFTPChange proxies "days since the last threshold test" with
// the age of the newest eFTP change: the platform only moves eFTP when a
// new best effort lands. Points arrive newest first, so the first change
// found is the most recent one.
func daysSinceEFTPChange(points []trajectory.Point) int {
	for i := 0; i < len(points)-1; i++ {
		if points[i].EFTP > 0 && points[i+1].EFTP > 0 && points[i].EFTP != points[i+1].EFTP {
			return int(points[0].Date.Sub(points[i].Date).Hours() / 24)
		}
	}
	return -1
}

// tailWindow keeps the records of the final n days before now.
func tailWindow(records []wellness.Record, now time.Time, days int) []wellness.Record {
	cutoff := now.AddDate(0, 0, -days)
	var out []wellness.Record
	for _, rec := range records {
		if rec.Date.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// athleteSummary is the compact prose context advisor prompts embed.
func (e *Engine) athleteSummary(snap snapshot, summary wellness.Summary) string {
	return fmt.Sprintf(
		"CTL %.0f, ATL %.0f, TSB %.0f, ramp %.1f/week. Recovery %s, sleep %s, sleep debt %.1fh. %d activities in the last %d days.",
		snap.metrics.CTL, snap.metrics.ATL, snap.metrics.TSB, snap.metrics.RampRate,
		summary.RecoveryStatus, summary.SleepStatus, summary.SleepDebtHours,
		len(snap.activities), activityWindowDays,
	)
}
