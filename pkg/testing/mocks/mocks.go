// Package mocks provides function-field test doubles for the shared
// infrastructure interfaces. Unset fields return benign defaults.
package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/rouleur/coach/pkg"
)

// --- Mock Database ---
type MockDatabase struct {
	HasRunTodayFunc     func(ctx context.Context, athleteID, date string) (bool, error)
	MarkRunCompleteFunc func(ctx context.Context, athleteID, date, runID string) error
	SetDecisionFunc     func(ctx context.Context, record *shared.DecisionRecord) error
	GetDecisionFunc     func(ctx context.Context, athleteID, date string) (*shared.DecisionRecord, error)
}

func (m *MockDatabase) HasRunToday(ctx context.Context, athleteID, date string) (bool, error) {
	if m.HasRunTodayFunc != nil {
		return m.HasRunTodayFunc(ctx, athleteID, date)
	}
	return false, nil
}
func (m *MockDatabase) MarkRunComplete(ctx context.Context, athleteID, date, runID string) error {
	if m.MarkRunCompleteFunc != nil {
		return m.MarkRunCompleteFunc(ctx, athleteID, date, runID)
	}
	return nil
}
func (m *MockDatabase) SetDecision(ctx context.Context, record *shared.DecisionRecord) error {
	if m.SetDecisionFunc != nil {
		return m.SetDecisionFunc(ctx, record)
	}
	return nil
}
func (m *MockDatabase) GetDecision(ctx context.Context, athleteID, date string) (*shared.DecisionRecord, error) {
	if m.GetDecisionFunc != nil {
		return m.GetDecisionFunc(ctx, athleteID, date)
	}
	return nil, fmt.Errorf("decision not found")
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}
func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return nil, fmt.Errorf("object not found")
}

// --- Mock Notifications ---
type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID, title, body string, tokens []string, data map[string]string) error
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID, title, body string, tokens []string, data map[string]string) error {
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}
