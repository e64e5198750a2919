// coach-once runs a single decision pass and exits. Useful for
// backfills and for inspecting what the engine would decide today.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rouleur/coach/pkg/advisor"
	"github.com/rouleur/coach/pkg/bootstrap"
	"github.com/rouleur/coach/pkg/engine"
	"github.com/rouleur/coach/pkg/integrations/intervals"
	"github.com/rouleur/coach/pkg/integrations/whoop"
)

func main() {
	date := flag.String("date", "", "Decision date as YYYY-MM-DD (default today)")
	dryRun := flag.Bool("dry-run", false, "Compute the decision without writing any output")
	flag.Parse()

	bootstrap.InitLogger()
	logger := bootstrap.NewLogger("coach-once")

	cfg := bootstrap.LoadConfig()
	if cfg.AthleteID == "" || cfg.IntervalsAPIKey == "" || cfg.IntervalsAthlete == "" {
		logger.Error("ATHLETE_ID, INTERVALS_API_KEY and INTERVALS_ATHLETE_ID are required")
		os.Exit(1)
	}

	now := time.Now()
	if *date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *date, time.Local)
		if err != nil {
			logger.Error("Invalid -date, expected YYYY-MM-DD", "date", *date)
			os.Exit(1)
		}
		// Anchor mid-morning so day-boundary math behaves like a real run.
		now = parsed.Add(9 * time.Hour)
	}

	ctx := context.Background()
	svc, err := bootstrap.NewService(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	fitness := intervals.NewClient(logger, cfg.IntervalsAPIKey, cfg.IntervalsAthlete)
	recovery := whoop.NewClient(ctx, logger, whoop.Config{
		ClientID:     cfg.WhoopClientID,
		ClientSecret: cfg.WhoopSecret,
		RefreshToken: cfg.WhoopRefreshTok,
	})

	geminiKey := cfg.GeminiAPIKey
	if !cfg.AdvisorEnabled {
		geminiKey = ""
	}
	eng := engine.New(logger, svc, fitness, recovery, advisor.New(logger, geminiKey))

	if *dryRun {
		outcome, err := eng.Preview(ctx, now)
		if err != nil {
			logger.Error("Dry run failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(outcome.Report)
		return
	}

	eng.AttachUploader(fitness)
	outcome, err := eng.Run(ctx, now)
	if err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
	if outcome.Skipped {
		logger.Info("Already ran for this date, nothing to do", "date", now.Format("2006-01-02"))
		return
	}
	fmt.Println(outcome.Report)
}
