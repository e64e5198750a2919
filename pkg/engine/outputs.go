package engine

import (
	"context"
	"fmt"
	"time"

	shared "github.com/rouleur/coach/pkg"
	"github.com/rouleur/coach/pkg/domain/fitfile"
	"github.com/rouleur/coach/pkg/infrastructure/pubsub"
	"github.com/rouleur/coach/pkg/integrations/intervals"
	"github.com/rouleur/coach/pkg/report"
)

// Uploader pushes the generated workout back to the training calendar.
// *intervals.Client satisfies it.
type Uploader interface {
	UploadWorkoutFile(ctx context.Context, name string, data []byte) (string, error)
	CreateEvent(ctx context.Context, event *intervals.Event) (*intervals.Event, error)
}

// AttachUploader enables workout-file upload and calendar placement.
func (e *Engine) AttachUploader(u Uploader) {
	e.uploader = u
}

// publish fans the outcome out to the collaborators. Output failures are
// logged and skipped rather than failing the run; the decision itself is
// already made and the audit record is best effort like the rest.
func (e *Engine) publish(ctx context.Context, date string, outcome *Outcome) error {
	day, _ := time.Parse("2006-01-02", date)

	outcome.Report = report.ComposeDaily(report.DailyInput{
		Date:       day,
		Phase:      outcome.Phase,
		Metrics:    outcome.Metrics,
		Wellness:   outcome.Wellness,
		Load:       outcome.Load,
		Decision:   outcome.Decision,
		Advisories: outcome.Advisories,
	})

	cfg := e.svc.Config

	if cfg.ReportBucket != "" {
		object := shared.ReportObject(cfg.AthleteID, date)
		if err := e.svc.Store.Write(ctx, cfg.ReportBucket, object, []byte(outcome.Report)); err != nil {
			e.logger.Error("engine: report archive failed", "error", err, "object", object)
		}
	}

	if cfg.EnablePublish {
		e.publishEvents(ctx, date, outcome)
	}

	if cfg.EnableNotify {
		title, body := report.Notification(report.DailyInput{
			Date:     day,
			Load:     outcome.Load,
			Decision: outcome.Decision,
		})
		data := map[string]string{"date": date, "run_id": outcome.RunID}
		if err := e.svc.Notify.SendPushNotification(ctx, cfg.AthleteID, title, body, nil, data); err != nil {
			e.logger.Error("engine: push notification failed", "error", err)
		}
	}

	e.uploadWorkout(ctx, date, outcome)

	record := &shared.DecisionRecord{
		RunID:       outcome.RunID,
		AthleteID:   cfg.AthleteID,
		Date:        date,
		WorkoutType: outcome.Decision.WorkoutType,
		Intensity:   outcome.Decision.MaxIntensity,
		RestDay:     outcome.Decision.IsRestDay,
		Phase:       string(outcome.Phase.Phase),
		Reason:      outcome.Decision.Reason,
		Advisories:  advisorySummaries(outcome),
		CreatedAt:   time.Now(),
	}
	if err := e.svc.DB.SetDecision(ctx, record); err != nil {
		e.logger.Error("engine: decision audit write failed", "error", err)
	}

	return nil
}

func (e *Engine) publishEvents(ctx context.Context, date string, outcome *Outcome) {
	decisionEvent, err := pubsub.NewCloudEvent(pubsub.EventSourceEngine, pubsub.EventTypeWorkoutDecision, map[string]interface{}{
		"run_id":   outcome.RunID,
		"date":     date,
		"decision": outcome.Decision,
		"phase":    outcome.Phase.Phase,
	})
	if err == nil {
		_, err = e.svc.Pub.PublishCloudEvent(ctx, shared.TopicWorkoutDecision, decisionEvent)
	}
	if err != nil {
		e.logger.Error("engine: decision event publish failed", "error", err)
	}

	reportEvent, err := pubsub.NewCloudEvent(pubsub.EventSourceEngine, pubsub.EventTypeDailyReport, map[string]interface{}{
		"run_id": outcome.RunID,
		"date":   date,
		"report": outcome.Report,
	})
	if err == nil {
		_, err = e.svc.Pub.PublishCloudEvent(ctx, shared.TopicDailyReport, reportEvent)
	}
	if err != nil {
		e.logger.Error("engine: report event publish failed", "error", err)
	}
}

// uploadWorkout renders the FIT file and places it on the calendar. Rest
// days get a note event instead of a file.
func (e *Engine) uploadWorkout(ctx context.Context, date string, outcome *Outcome) {
	if e.uploader == nil {
		return
	}

	startDate := date + "T00:00:00"

	if outcome.Decision.IsRestDay {
		_, err := e.uploader.CreateEvent(ctx, &intervals.Event{
			StartDate:   startDate,
			Category:    intervals.CategoryNote,
			Name:        "Rest day",
			Description: outcome.Decision.Reason,
		})
		if err != nil {
			e.logger.Error("engine: rest-day note failed", "error", err)
		}
		return
	}

	day, _ := time.Parse("2006-01-02", date)
	data, err := fitfile.Generate(outcome.Decision, e.svc.Config.Sport, defaultMainMinutes, day)
	if err != nil {
		e.logger.Error("engine: workout file generation failed", "error", err)
		return
	}

	fileID, err := e.uploader.UploadWorkoutFile(ctx, fmt.Sprintf("%s-%s.fit", date, outcome.RunID[:8]), data)
	if err != nil {
		e.logger.Error("engine: workout file upload failed", "error", err)
		return
	}

	_, err = e.uploader.CreateEvent(ctx, &intervals.Event{
		StartDate:   startDate,
		Category:    "WORKOUT",
		Type:        e.svc.Config.Sport,
		Name:        outcome.Decision.WorkoutType,
		Description: fmt.Sprintf("%s\n\nfile: %s", outcome.Decision.Reason, fileID),
	})
	if err != nil {
		e.logger.Error("engine: workout event creation failed", "error", err)
	}
}

func advisorySummaries(outcome *Outcome) map[string]string {
	out := make(map[string]string)
	for name, adv := range outcome.Advisories {
		if adv.Detected {
			out[name] = string(adv.Severity)
		}
	}
	return out
}
