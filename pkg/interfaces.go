package shared

import (
	"context"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
)

// --- Persistence Interfaces ---

// DecisionRecord is the audit trail for one completed daily run.
type DecisionRecord struct {
	RunID       string            `firestore:"run_id"`
	AthleteID   string            `firestore:"athlete_id"`
	Date        string            `firestore:"date"` // YYYY-MM-DD
	WorkoutType string            `firestore:"workout_type"`
	Intensity   int               `firestore:"intensity"`
	RestDay     bool              `firestore:"rest_day"`
	Phase       string            `firestore:"phase"`
	Reason      string            `firestore:"reason"`
	Advisories  map[string]string `firestore:"advisories,omitempty"`
	CreatedAt   time.Time         `firestore:"created_at"`
}

type Database interface {
	// Run markers (idempotency keys, one per athlete per calendar day).
	// MarkRunComplete must only be called after a fully successful run so
	// that a failed run is retried on the next scheduled tick.
	HasRunToday(ctx context.Context, athleteID string, date string) (bool, error)
	MarkRunComplete(ctx context.Context, athleteID string, date string, runID string) error

	// Decision audit log.
	SetDecision(ctx context.Context, record *DecisionRecord) error
	GetDecision(ctx context.Context, athleteID string, date string) (*DecisionRecord, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}
