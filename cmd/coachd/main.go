// coachd runs the daily coaching decision engine on a schedule and
// exposes a small status API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron"

	shared "github.com/rouleur/coach/pkg"
	"github.com/rouleur/coach/pkg/advisor"
	"github.com/rouleur/coach/pkg/bootstrap"
	"github.com/rouleur/coach/pkg/engine"
	"github.com/rouleur/coach/pkg/infrastructure/sentry"
	"github.com/rouleur/coach/pkg/integrations/intervals"
	"github.com/rouleur/coach/pkg/integrations/whoop"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file (optional)")
	addr := flag.String("addr", ":8080", "Status server listen address")
	flag.Parse()

	bootstrap.InitLogger()
	logger := bootstrap.NewLogger("coachd")

	cfg, sched, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if cfg.AthleteID == "" {
		logger.Error("ATHLETE_ID is required")
		os.Exit(1)
	}
	if cfg.IntervalsAPIKey == "" || cfg.IntervalsAthlete == "" {
		logger.Error("Intervals credentials are required")
		os.Exit(1)
	}

	if err := sentry.Init(sentry.Config{
		DSN:        cfg.SentryDSN,
		ServerName: "coachd",
	}, logger); err != nil {
		logger.Warn("Sentry init failed, continuing without error tracking", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.NewService(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize service", "error", err)
		sentry.CaptureException(err, map[string]interface{}{"stage": "bootstrap"}, logger)
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
	adv := advisor.New(logger, geminiKey)

	eng := engine.New(logger, svc, fitness, recovery, adv)
	eng.AttachUploader(fitness)

	runner := &runner{logger: logger, engine: eng}

	c := cron.New()
	if err := c.AddFunc(sched.Daily, func() {
		runner.run(ctx, "daily", false)
	}); err != nil {
		logger.Error("Invalid daily schedule", "spec", sched.Daily, "error", err)
		os.Exit(1)
	}
	if err := c.AddFunc(sched.Retry, func() {
		runner.run(ctx, "retry", true)
	}); err != nil {
		logger.Error("Invalid retry schedule", "spec", sched.Retry, "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	logger.Info("Scheduler started",
		"athlete", cfg.AthleteID,
		"daily", sched.Daily,
		"retry", sched.Retry,
		"advisor_enabled", adv.Enabled())

	srv := &http.Server{
		Addr:    *addr,
		Handler: newRouter(logger, svc, runner),
	}
	go func() {
		logger.Info("Status server listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Status server shutdown", "error", err)
	}
}

// runner serializes engine runs so the trigger endpoint and the
// scheduler never overlap.
type runner struct {
	logger *slog.Logger
	engine *engine.Engine
	mu     sync.Mutex
}

// run executes one engine pass. When gated is true the pass is skipped
// until today's recovery data has arrived, so hourly retries stay cheap
// on days where the wearable syncs late.
func (r *runner) run(ctx context.Context, trigger string, gated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer sentry.RecoverAndCapture(r.logger)

	now := time.Now()
	if gated && !r.engine.Ready(ctx, now) {
		r.logger.Info("Recovery data not ready, skipping", "trigger", trigger)
		return
	}

	outcome, err := r.engine.Run(ctx, now)
	if err != nil {
		r.logger.Error("Engine run failed", "trigger", trigger, "error", err)
		sentry.CaptureException(err, map[string]interface{}{"trigger": trigger}, r.logger)
		return
	}
	if outcome.Skipped {
		r.logger.Info("Already ran today", "trigger", trigger)
		return
	}
	r.logger.Info("Engine run complete",
		"trigger", trigger,
		"run_id", outcome.RunID,
		"workout", outcome.Decision.WorkoutType,
		"rest_day", outcome.Decision.IsRestDay)
}

func newRouter(logger *slog.Logger, svc *bootstrap.Service, r *runner) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	mux.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		date := req.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		rec, err := svc.DB.GetDecision(req.Context(), svc.Config.AthleteID, date)
		if err != nil {
			http.Error(w, "no decision for "+date, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rec); err != nil {
			logger.Warn("Failed to encode status response", "error", err)
		}
	})

	mux.Get("/report", func(w http.ResponseWriter, req *http.Request) {
		if svc.Config.ReportBucket == "" {
			http.Error(w, "report archive not configured", http.StatusNotFound)
			return
		}
		date := req.URL.Query().Get("date")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		body, err := svc.Store.Read(req.Context(), svc.Config.ReportBucket, shared.ReportObject(svc.Config.AthleteID, date))
		if err != nil {
			http.Error(w, "no report for "+date, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/markdown")
		w.Write(body)
	})

	mux.Post("/trigger", func(w http.ResponseWriter, req *http.Request) {
		go r.run(context.WithoutCancel(req.Context()), "manual", false)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, "triggered")
	})

	return mux
}
