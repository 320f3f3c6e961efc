package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/feedpulse/feedpulse/internal/analysis"
	"github.com/feedpulse/feedpulse/internal/config"
	"github.com/feedpulse/feedpulse/internal/feed"
	"github.com/feedpulse/feedpulse/internal/logger"
	"github.com/feedpulse/feedpulse/internal/models"
	"github.com/feedpulse/feedpulse/internal/normalize"
	"github.com/feedpulse/feedpulse/internal/pipeline"
	"github.com/feedpulse/feedpulse/internal/store"
)

// Sources come from config at startup; a run never fails for any other
// configuration reason.
const runTimeout = 10 * time.Minute

// Delay the first scheduled run so the service comes up responsive before the
// initial collection burst.
const startupDelay = 15 * time.Second

func main() {
	log := logger.New("ingest")
	cfg, err := config.LoadIngest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}
	if len(cfg.Sources) == 0 {
		log.Warn("no sources configured, runs will be empty")
	}

	st, err := store.New(cfg.Common, log)
	if err != nil {
		log.Error("init store", slog.Any("err", err))
		os.Exit(1)
	}

	pipe := pipeline.New(
		feed.NewFetcher(cfg.FetchTimeout),
		buildAnalyzer(cfg),
		st,
		log,
		pipeline.Options{
			PerSourceCap:    cfg.PerSourceCap,
			Workers:         cfg.Workers,
			RetentionWindow: cfg.RetentionWindow,
			Limits: normalize.Limits{
				TitleMax:   cfg.TitleMaxRunes,
				SummaryMax: cfg.SummaryMaxRunes,
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	svc := &service{log: log, runner: pipe, sources: cfg.Sources}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.CronSpec, func() { svc.runOnce(ctx) }); err != nil {
		log.Error("register cron spec", slog.Any("err", err), slog.String("spec", cfg.CronSpec))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	firstRun := time.AfterFunc(startupDelay, func() { svc.runOnce(ctx) })
	defer firstRun.Stop()

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           newRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("ingest service starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("cron", cfg.CronSpec),
			slog.Int("sources", len(cfg.Sources)),
			slog.String("analyzer", cfg.AnalyzerBackend),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

func buildAnalyzer(cfg *config.Ingest) analysis.Analyzer {
	if cfg.AnalyzerBackend == config.AnalyzerRemote {
		remote := analysis.NewRemoteAnalyzer(cfg.AnalyzerURL, cfg.AnalyzerAPIKey, cfg.AnalyzerTimeout)
		return analysis.NewCachedAnalyzer(remote, cfg.AnalysisCacheCap, cfg.AnalysisCacheTTL)
	}
	return analysis.NewHeuristicAnalyzer()
}

type runner interface {
	Run(ctx context.Context, sources []models.SourceConfig) pipeline.Summary
}

type service struct {
	log     *slog.Logger
	runner  runner
	sources []models.SourceConfig
}

func newRouter(svc *service) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", svc.handleHealth)
	r.Post("/run", svc.handleRun)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	return r
}

func (s *service) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	s.runner.Run(runCtx, s.sources)
}

func (s *service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRun triggers a synchronous ingestion run. Overlap with a scheduled run
// is tolerated: writes are idempotent keyed by (source, id).
func (s *service) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	summary := s.runner.Run(ctx, s.sources)
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
