package intervals

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.Default()

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithBaseURL(testLogger, "test-key", "i12345", server.URL)
}

func TestListActivities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/i12345/activities", r.URL.Path)
		assert.Equal(t, "2026-04-01", r.URL.Query().Get("oldest"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "API_KEY", user)
		assert.Equal(t, "test-key", pass)

		w.Write([]byte(`[
			{"id": "a1", "start_date_local": "2026-04-02T07:30:00", "type": "Ride", "name": "Morning Ride", "moving_time": 3600, "icu_training_load": 85, "icu_rpe": 7, "feel": 2},
			{"id": "a2", "start_date_local": "2026-04-01T06:00:00", "type": "Run", "name": "Easy Run", "icu_training_load": 40}
		]`))
	})

	activities, err := client.ListActivities(context.Background(), DateRange{Oldest: "2026-04-01"})
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, "Ride", activities[0].Type)
	assert.Equal(t, 85.0, activities[0].TrainingLoad)
	assert.Equal(t, 2, activities[0].Feel)
}

func TestListActivitiesMalformedBodyDegradesToEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "not an array"}`))
	})

	activities, err := client.ListActivities(context.Background(), DateRange{})
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestListActivitiesHTTPErrorSurfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.ListActivities(context.Background(), DateRange{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestListWellness(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/i12345/wellness", r.URL.Path)
		w.Write([]byte(`[
			{"id": "2026-04-01", "sleepSecs": 27000, "restingHR": 48, "hrv": 62, "readiness": 71, "ctl": 55.2, "atl": 60.1, "rampRate": 3.4, "eftp": 245}
		]`))
	})

	rows, err := client.ListWellness(context.Background(), DateRange{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 55.2, rows[0].CTL)
	require.NotNil(t, rows[0].Readiness)
	assert.Equal(t, 71.0, *rows[0].Readiness)
}

func TestEventCRUD(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			w.Write([]byte(`{"id": 99, "start_date_local": "2026-04-05T00:00:00", "category": "WORKOUT", "name": "Sweet Spot"}`))
		}
	})

	created, err := client.CreateEvent(context.Background(), &Event{
		StartDate: "2026-04-05T00:00:00",
		Category:  "WORKOUT",
		Name:      "Sweet Spot",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), created.ID)
	assert.Equal(t, "/athlete/i12345/events", gotPath)

	_, err = client.UpdateEvent(context.Background(), 99, created)
	require.NoError(t, err)
	assert.Equal(t, "/athlete/i12345/events/99", gotPath)

	require.NoError(t, client.DeleteEvent(context.Background(), 99))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestUploadWorkoutFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/athlete/i12345/workouts", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id": 4242}`))
	})

	id, err := client.UploadWorkoutFile(context.Background(), "tuesday.fit", []byte{0x0e, 0x10})
	require.NoError(t, err)
	assert.Equal(t, "4242", id)
}
