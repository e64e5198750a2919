// Package whoop reads same-day recovery and sleep from the WHOOP API.
// The integration is optional: any failure degrades to "no fresh data"
// so the engine falls back to the primary wellness feed.
package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/rouleur/coach/pkg/domain/wellness"
	httputil "github.com/rouleur/coach/pkg/infrastructure/http"
)

const defaultBaseURL = "https://api.prod.whoop.com/developer"

var endpoint = oauth2.Endpoint{
	AuthURL:  "https://api.prod.whoop.com/oauth/oauth2/auth",
	TokenURL: "https://api.prod.whoop.com/oauth/oauth2/token",
}

// Config holds the OAuth credentials for a single athlete. The refresh
// token comes from a one-time interactive grant.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Client reads recovery data over an auto-refreshing OAuth transport.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient builds a client whose transport refreshes the access token as
// needed. Returns nil when credentials are absent; callers treat a nil
// client as "integration not configured".
func NewClient(ctx context.Context, logger *slog.Logger, cfg Config) *Client {
	if cfg.ClientID == "" || cfg.RefreshToken == "" {
		logger.Info("whoop: not configured, using primary wellness feed only")
		return nil
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{"read:recovery", "read:sleep", "offline"},
	}
	// Expired token forces a refresh on first use.
	seed := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}

	httpClient := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, seed))
	httpClient.Timeout = 30 * time.Second

	return &Client{
		http:    httpClient,
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

// NewClientWithTransport is the test seam.
func NewClientWithTransport(logger *slog.Logger, httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: baseURL, logger: logger}
}

type recoveryRecord struct {
	CreatedAt time.Time `json:"created_at"`
	Score     struct {
		RecoveryScore float64 `json:"recovery_score"`
		RestingHR     float64 `json:"resting_heart_rate"`
		HRVMilli      float64 `json:"hrv_rmssd_milli"`
	} `json:"score"`
}

type sleepRecord struct {
	End   time.Time `json:"end"`
	Score struct {
		StageSummary struct {
			TotalInBedMilli float64 `json:"total_in_bed_time_milli"`
		} `json:"stage_summary"`
		SleepPerformancePct float64 `json:"sleep_performance_percentage"`
	} `json:"score"`
}

// FreshRecords fetches recovery and sleep for the day and converts them to
// wellness records for preferential merging over the primary feed. A nil
// client or any API failure yields an empty slice.
func (c *Client) FreshRecords(ctx context.Context, day time.Time) []wellness.Record {
	if c == nil {
		return nil
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	record := wellness.Record{Date: start}
	found := false

	var recoveries struct {
		Records []recoveryRecord `json:"records"`
	}
	if err := c.get(ctx, "/v1/recovery", start, end, &recoveries); err != nil {
		c.logger.Warn("whoop: recovery fetch failed", "error", err)
	} else if len(recoveries.Records) > 0 {
		score := recoveries.Records[0].Score
		record.RecoveryScore = &score.RecoveryScore
		record.RestingHR = int(score.RestingHR)
		record.HRV = score.HRVMilli
		found = true
	}

	var sleeps struct {
		Records []sleepRecord `json:"records"`
	}
	if err := c.get(ctx, "/v1/activity/sleep", start, end, &sleeps); err != nil {
		c.logger.Warn("whoop: sleep fetch failed", "error", err)
	} else if len(sleeps.Records) > 0 {
		score := sleeps.Records[0].Score
		record.SleepHours = score.StageSummary.TotalInBedMilli / 1000 / 3600
		record.SleepQuality = int(score.SleepPerformancePct / 20) // 0-100 to 1-5
		found = true
	}

	if !found {
		return nil
	}

	c.logger.Info("whoop: fresh wellness data merged",
		"date", start.Format("2006-01-02"),
		"has_recovery", record.RecoveryScore != nil,
		"sleep_hours", record.SleepHours,
	)
	return []wellness.Record{record}
}

func (c *Client) get(ctx context.Context, path string, start, end time.Time, out interface{}) error {
	v := url.Values{}
	v.Set("start", start.UTC().Format(time.RFC3339))
	v.Set("end", end.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+v.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
