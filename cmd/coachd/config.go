package main

import (
	"os"

	"github.com/spf13/viper"

	"github.com/rouleur/coach/pkg/bootstrap"
)

// schedules are 6-field cron specs (with seconds).
type scheduleConfig struct {
	Daily string
	Retry string
}

// loadConfig starts from the environment and overlays an optional YAML
// file. File values win over env so one config file fully describes a
// deployment.
func loadConfig(path string) (*bootstrap.Config, scheduleConfig, error) {
	cfg := bootstrap.LoadConfig()
	sched := scheduleConfig{
		Daily: "0 0 6 * * *",
		Retry: "0 0 7-20 * * *",
	}

	if path == "" {
		return cfg, sched, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, sched, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, sched, err
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}

	setString("project_id", &cfg.ProjectID)
	setString("athlete_id", &cfg.AthleteID)
	setString("sport", &cfg.Sport)
	setFloat("target_eftp", &cfg.TargetEFTP)
	setFloat("target_weekly_tss", &cfg.TargetWeeklyTSS)
	setString("report_bucket", &cfg.ReportBucket)
	setBool("enable_publish", &cfg.EnablePublish)
	setBool("enable_notify", &cfg.EnableNotify)
	setString("gemini_api_key", &cfg.GeminiAPIKey)
	setBool("advisor_enabled", &cfg.AdvisorEnabled)
	setString("sentry_dsn", &cfg.SentryDSN)
	setString("intervals.api_key", &cfg.IntervalsAPIKey)
	setString("intervals.athlete_id", &cfg.IntervalsAthlete)
	setString("whoop.client_id", &cfg.WhoopClientID)
	setString("whoop.client_secret", &cfg.WhoopSecret)
	setString("whoop.refresh_token", &cfg.WhoopRefreshTok)
	setString("schedule.daily", &sched.Daily)
	setString("schedule.retry", &sched.Retry)

	return cfg, sched, nil
}
