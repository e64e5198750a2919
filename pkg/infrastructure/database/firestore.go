package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/rouleur/coach/pkg"
)

// FirestoreAdapter provides database operations using Firestore
type FirestoreAdapter struct {
	Client *firestore.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client}
}

// runMarker is the "already ran today" flag. One document per athlete per
// calendar day, created only after a fully successful run.
type runMarker struct {
	AthleteID   string    `firestore:"athlete_id"`
	Date        string    `firestore:"date"`
	RunID       string    `firestore:"run_id"`
	CompletedAt time.Time `firestore:"completed_at"`
}

func runDocID(athleteID, date string) string {
	return fmt.Sprintf("%s_%s", athleteID, date)
}

func (a *FirestoreAdapter) HasRunToday(ctx context.Context, athleteID string, date string) (bool, error) {
	doc := a.Client.Collection(shared.CollectionRuns).Doc(runDocID(athleteID, date))
	_, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("get run marker: %w", err)
	}
	return true, nil
}

func (a *FirestoreAdapter) MarkRunComplete(ctx context.Context, athleteID string, date string, runID string) error {
	doc := a.Client.Collection(shared.CollectionRuns).Doc(runDocID(athleteID, date))
	_, err := doc.Set(ctx, &runMarker{
		AthleteID:   athleteID,
		Date:        date,
		RunID:       runID,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set run marker: %w", err)
	}
	return nil
}

func (a *FirestoreAdapter) SetDecision(ctx context.Context, record *shared.DecisionRecord) error {
	doc := a.Client.Collection(shared.CollectionDecisions).Doc(runDocID(record.AthleteID, record.Date))
	if _, err := doc.Set(ctx, record); err != nil {
		return fmt.Errorf("set decision: %w", err)
	}
	return nil
}

func (a *FirestoreAdapter) GetDecision(ctx context.Context, athleteID string, date string) (*shared.DecisionRecord, error) {
	doc, err := a.Client.Collection(shared.CollectionDecisions).Doc(runDocID(athleteID, date)).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	var record shared.DecisionRecord
	if err := doc.DataTo(&record); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	return &record, nil
}
