package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedpulse/feedpulse/internal/config"
	"github.com/feedpulse/feedpulse/internal/logger"
	"github.com/feedpulse/feedpulse/internal/store"
)

func main() {
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	st, err := store.New(cfg.Common, log)
	if err != nil {
		log.Error("init store", slog.Any("err", err))
		os.Exit(1)
	}

	maintainer, ok := st.(store.Maintainer)
	if !ok {
		log.Error("store backend needs no retention sweep", slog.String("backend", cfg.StoreBackend))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if !waitForStore(ctx, log, st) {
		os.Exit(1)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.Duration("interval", cfg.Interval),
		slog.String("backend", cfg.StoreBackend),
	)

	runOnce(ctx, log, maintainer, cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, maintainer, cfg.BatchSize)
		}
	}
}

// waitForStore retries connectivity with exponential backoff so the job
// survives starting before its backend does.
func waitForStore(ctx context.Context, log *slog.Logger, st store.Store) bool {
	pinger, ok := st.(store.Pinger)
	if !ok {
		return true
	}

	const maxRetries = 10
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := pinger.Ping(pingCtx)
		cancel()
		if err == nil {
			log.Info("connected to store")
			return true
		}

		log.Warn("store ping failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_in", retryDelay),
		)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info("shutdown signal received during startup")
			return false
		}

		retryDelay *= 2
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}
	}

	log.Error("failed to connect to store after retries")
	return false
}

func runOnce(ctx context.Context, log *slog.Logger, m store.Maintainer, batchSize int) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	removed, err := m.RemoveExpired(subCtx, batchSize)
	if err != nil {
		log.Warn("retention sweep failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	if removed > 0 {
		log.Info("retention sweep completed", slog.Int64("removed", removed))
	} else {
		log.Debug("retention sweep completed, nothing expired")
	}
}
