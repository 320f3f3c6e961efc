// Package pipeline orchestrates one ingestion run: fetch, normalize, analyze,
// store, per source and in isolation from the other sources.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feedpulse/feedpulse/internal/analysis"
	"github.com/feedpulse/feedpulse/internal/models"
	"github.com/feedpulse/feedpulse/internal/normalize"
	"github.com/feedpulse/feedpulse/internal/store"
)

// Fetcher retrieves raw items for one source URL.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]models.RawItem, error)
}

// Options tune one pipeline instance.
type Options struct {
	PerSourceCap    int
	Workers         int
	RetentionWindow time.Duration
	Limits          normalize.Limits
}

// Summary aggregates the outcome of one run. No error kind in the ingestion
// path is fatal; everything recoverable lands here instead.
type Summary struct {
	RunID         string            `json:"run_id"`
	Ingested      int               `json:"ingested"`
	Skipped       int               `json:"skipped"`
	Degraded      int               `json:"degraded"`
	StoreFailures int               `json:"store_failures"`
	SourceErrors  map[string]string `json:"errors"`
}

// Pipeline wires the ingestion collaborators together. All dependencies are
// injected so tests can substitute fakes.
type Pipeline struct {
	fetcher  Fetcher
	analyzer analysis.Analyzer
	store    store.Store
	log      *slog.Logger
	opts     Options
}

// New builds a pipeline. Zero option fields fall back to the documented defaults.
func New(fetcher Fetcher, analyzer analysis.Analyzer, st store.Store, log *slog.Logger, opts Options) *Pipeline {
	if opts.PerSourceCap <= 0 {
		opts.PerSourceCap = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.RetentionWindow <= 0 {
		opts.RetentionWindow = 720 * time.Hour
	}
	return &Pipeline{
		fetcher:  fetcher,
		analyzer: analyzer,
		store:    st,
		log:      log,
		opts:     opts,
	}
}

// Run ingests every configured source, fanning sources out over a bounded
// worker pool. Sources are independent units of work: a failing source is
// recorded and skipped, never aborting the run. Writes are idempotent keyed by
// (source, id), so overlapping runs are tolerated without locking.
func (p *Pipeline) Run(ctx context.Context, sources []models.SourceConfig) Summary {
	runID := uuid.NewString()
	log := p.log.With(slog.String("run_id", runID))

	summary := Summary{RunID: runID, SourceErrors: make(map[string]string)}
	var mu sync.Mutex

	sem := make(chan struct{}, p.opts.Workers)
	var wg sync.WaitGroup

	for _, src := range sources {
		wg.Add(1)
		go func(src models.SourceConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			partial := p.runSource(ctx, log, src)

			mu.Lock()
			summary.Ingested += partial.Ingested
			summary.Skipped += partial.Skipped
			summary.Degraded += partial.Degraded
			summary.StoreFailures += partial.StoreFailures
			for name, msg := range partial.SourceErrors {
				summary.SourceErrors[name] = msg
			}
			mu.Unlock()
		}(src)
	}

	wg.Wait()

	log.Info("ingestion run finished",
		slog.Int("sources", len(sources)),
		slog.Int("ingested", summary.Ingested),
		slog.Int("skipped", summary.Skipped),
		slog.Int("degraded", summary.Degraded),
		slog.Int("store_failures", summary.StoreFailures),
		slog.Int("source_errors", len(summary.SourceErrors)),
	)

	return summary
}

func (p *Pipeline) runSource(ctx context.Context, log *slog.Logger, src models.SourceConfig) Summary {
	partial := Summary{SourceErrors: make(map[string]string)}

	items, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		log.Warn("fetch failed, skipping source",
			slog.String("source", src.Name),
			slog.Any("err", err),
		)
		partial.SourceErrors[src.Name] = err.Error()
		return partial
	}

	if len(items) > p.opts.PerSourceCap {
		partial.Skipped += len(items) - p.opts.PerSourceCap
		items = items[:p.opts.PerSourceCap]
	}

	for _, raw := range items {
		doc := normalize.Normalize(src.Name, raw, p.opts.Limits)

		res, err := p.analyzer.Analyze(ctx, doc.Title+" "+doc.Summary)
		if err != nil {
			// Analyzer trouble never blocks the item itself.
			log.Warn("analysis degraded to neutral",
				slog.String("source", src.Name),
				slog.String("id", doc.ID),
				slog.Any("err", err),
			)
			res = analysis.Neutral()
			partial.Degraded++
		}

		now := time.Now().UTC()
		doc.Sentiment = res.Sentiment
		doc.Score = res.Score
		doc.Keywords = res.Keywords
		doc.IngestedAt = now
		doc.ExpiresAt = now.Add(p.opts.RetentionWindow)

		if err := p.store.Put(ctx, doc); err != nil {
			log.Warn("store write failed, skipping item",
				slog.String("source", src.Name),
				slog.String("id", doc.ID),
				slog.Any("err", err),
			)
			partial.StoreFailures++
			continue
		}

		partial.Ingested++
	}

	log.Debug("source done",
		slog.String("source", src.Name),
		slog.Int("ingested", partial.Ingested),
		slog.Int("skipped", partial.Skipped),
	)

	return partial
}
