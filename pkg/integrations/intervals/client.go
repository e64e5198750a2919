// Package intervals is the API client for Intervals.icu, the primary
// fitness-tracking service. List endpoints degrade malformed payloads to
// empty results so a bad sync day never aborts the decision pipeline.
package intervals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	httputil "github.com/rouleur/coach/pkg/infrastructure/http"
)

const defaultBaseURL = "https://intervals.icu/api/v1"

// Client is an API client for Intervals.icu.
type Client struct {
	apiKey    string
	athleteID string
	baseURL   string
	client    *http.Client
	logger    *slog.Logger
}

// NewClient creates a new Intervals.icu API client.
func NewClient(logger *slog.Logger, apiKey, athleteID string) *Client {
	return &Client{
		apiKey:    apiKey,
		athleteID: athleteID,
		baseURL:   defaultBaseURL,
		logger:    logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL points the client at a non-production server.
func NewClientWithBaseURL(logger *slog.Logger, apiKey, athleteID, baseURL string) *Client {
	c := NewClient(logger, apiKey, athleteID)
	c.baseURL = baseURL
	return c
}

// Activity is an Intervals.icu activity with the load and feedback fields
// the decision engine reads.
type Activity struct {
	ID             string  `json:"id,omitempty"`
	StartDateLocal string  `json:"start_date_local"` // ISO 8601
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	MovingTime     int     `json:"moving_time,omitempty"` // seconds
	TrainingLoad   float64 `json:"icu_training_load,omitempty"`
	RPE            float64 `json:"icu_rpe,omitempty"` // 1-10
	Feel           int     `json:"feel,omitempty"`    // 1-5, lower is better
}

// WellnessRecord is a daily Intervals.icu wellness row. The id field is the
// date. CTL/ATL/ramp/eFTP ride along with the physiological values.
type WellnessRecord struct {
	ID           string   `json:"id"` // YYYY-MM-DD
	SleepSecs    float64  `json:"sleepSecs,omitempty"`
	SleepQuality float64  `json:"sleepQuality,omitempty"`
	RestingHR    float64  `json:"restingHR,omitempty"`
	HRV          float64  `json:"hrv,omitempty"`
	Readiness    *float64 `json:"readiness,omitempty"` // 0-100
	Soreness     float64  `json:"soreness,omitempty"`
	Fatigue      float64  `json:"fatigue,omitempty"`
	Stress       float64  `json:"stress,omitempty"`
	Mood         float64  `json:"mood,omitempty"`
	CTL          float64  `json:"ctl,omitempty"`
	ATL          float64  `json:"atl,omitempty"`
	RampRate     float64  `json:"rampRate,omitempty"`
	EFTP         float64  `json:"eftp,omitempty"`
}

// Event is a calendar entry: races (categories RACE_A/RACE_B/RACE_C),
// generated workouts, notes and holidays.
type Event struct {
	ID          int64  `json:"id,omitempty"`
	StartDate   string `json:"start_date_local"` // ISO 8601
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"` // sport
}

// DateRange filters list endpoints, both bounds ISO 8601 dates.
type DateRange struct {
	Oldest string
	Newest string
}

func (r DateRange) query() string {
	v := url.Values{}
	if r.Oldest != "" {
		v.Set("oldest", r.Oldest)
	}
	if r.Newest != "" {
		v.Set("newest", r.Newest)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// doRequest performs an HTTP request with Basic Auth.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := fmt.Sprintf("%s/athlete/%s%s", c.baseURL, c.athleteID, path)
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Basic Auth with "API_KEY" as username and the key as password
	req.SetBasicAuth("API_KEY", c.apiKey)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if err := httputil.ParseErrorResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// decodeList decodes a JSON array, degrading a malformed body to an empty
// slice. Transport and HTTP errors still surface to the caller.
func decodeList[T any](logger *slog.Logger, endpoint string, body io.Reader) []T {
	var items []T
	if err := json.NewDecoder(body).Decode(&items); err != nil {
		logger.Warn("intervals: malformed list payload, treating as empty",
			"endpoint", endpoint,
			"error", err,
		)
		return nil
	}
	return items
}

// ListActivities retrieves activities in the range, newest first.
func (c *Client) ListActivities(ctx context.Context, r DateRange) ([]Activity, error) {
	resp, err := c.doRequest(ctx, "GET", "/activities"+r.query(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeList[Activity](c.logger, "activities", resp.Body), nil
}

// ListWellness retrieves daily wellness rows in the range.
func (c *Client) ListWellness(ctx context.Context, r DateRange) ([]WellnessRecord, error) {
	resp, err := c.doRequest(ctx, "GET", "/wellness"+r.query(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeList[WellnessRecord](c.logger, "wellness", resp.Body), nil
}

// ListEvents retrieves calendar events in the range.
func (c *Client) ListEvents(ctx context.Context, r DateRange) ([]Event, error) {
	resp, err := c.doRequest(ctx, "GET", "/events"+r.query(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeList[Event](c.logger, "events", resp.Body), nil
}

// CreateEvent creates a calendar event (workout placeholder or note).
func (c *Client) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	resp, err := c.doRequest(ctx, "POST", "/events", event)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var created Event
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &created, nil
}

// UpdateEvent replaces an existing calendar event.
func (c *Client) UpdateEvent(ctx context.Context, eventID int64, event *Event) (*Event, error) {
	resp, err := c.doRequest(ctx, "PUT", fmt.Sprintf("/events/%d", eventID), event)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var updated Event
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &updated, nil
}

// DeleteEvent removes a calendar event.
func (c *Client) DeleteEvent(ctx context.Context, eventID int64) error {
	resp, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/events/%d", eventID), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// UploadWorkoutFile uploads a structured workout file and returns its id.
func (c *Client) UploadWorkoutFile(ctx context.Context, name string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/athlete/%s/workouts", c.baseURL, c.athleteID)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.SetBasicAuth("API_KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-File-Name", name)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return fmt.Sprintf("%d", result.ID), nil
}
