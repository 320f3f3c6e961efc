// Package query serves read operations over the ingested corpus with
// consistent ordering, filtering, and result-size bounds.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/feedpulse/feedpulse/internal/config"
	"github.com/feedpulse/feedpulse/internal/models"
	"github.com/feedpulse/feedpulse/internal/store"
)

// Index is the capability a store can offer for exact queries: native recency,
// source, and text lookups instead of bounded scans.
type Index interface {
	Latest(ctx context.Context, limit int) ([]models.Document, error)
	BySource(ctx context.Context, name string, limit int) ([]models.Document, error)
	Search(ctx context.Context, query string, limit int) ([]models.Document, error)
}

type strategy interface {
	latest(ctx context.Context) ([]models.Document, error)
	bySource(ctx context.Context, name string) ([]models.Document, error)
	search(ctx context.Context, q string) ([]models.Document, error)
}

// Engine answers the three read operations. Results are always capped and
// ordered by ingestion time descending with id ascending as the tie-break, so
// repeated queries over an unchanged corpus return identical slices.
type Engine struct {
	strategy strategy
	limit    int
}

// New builds an engine per the API configuration. The indexed strategy
// requires a store backend that implements Index.
func New(cfg *config.API, st store.Store) (*Engine, error) {
	switch cfg.QueryStrategy {
	case config.StrategyScan:
		return NewScanEngine(st, Windows{
			Latest: cfg.LatestWindow,
			Source: cfg.SourceWindow,
			Search: cfg.SearchWindow,
		}, cfg.ResultLimit), nil
	case config.StrategyIndexed:
		idx, ok := st.(Index)
		if !ok {
			return nil, fmt.Errorf("store backend %q cannot serve the indexed strategy", cfg.StoreBackend)
		}
		return NewIndexedEngine(idx, cfg.ResultLimit), nil
	default:
		return nil, fmt.Errorf("unknown query strategy %q", cfg.QueryStrategy)
	}
}

// NewScanEngine builds an engine over bounded store scans. A zero window
// disables the bound for that operation (exact-correctness mode).
func NewScanEngine(st store.Store, windows Windows, limit int) *Engine {
	if limit <= 0 {
		limit = 25
	}
	return &Engine{strategy: &scanStrategy{store: st, windows: windows}, limit: limit}
}

// NewIndexedEngine builds an engine over a store's native indexes.
func NewIndexedEngine(idx Index, limit int) *Engine {
	if limit <= 0 {
		limit = 25
	}
	return &Engine{strategy: &indexedStrategy{index: idx, limit: limit}, limit: limit}
}

// Latest returns the most recent documents across all sources.
func (e *Engine) Latest(ctx context.Context) ([]models.Document, error) {
	docs, err := e.strategy.latest(ctx)
	if err != nil {
		return nil, err
	}
	return e.finish(docs), nil
}

// BySource returns the most recent documents from one named source. An empty
// name yields an empty result without touching the store.
func (e *Engine) BySource(ctx context.Context, name string) ([]models.Document, error) {
	if name == "" {
		return []models.Document{}, nil
	}
	docs, err := e.strategy.bySource(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.finish(docs), nil
}

// Search returns the most recent documents whose title or summary contains the
// query, case-insensitively. An empty query yields an empty result without
// touching the store.
func (e *Engine) Search(ctx context.Context, q string) ([]models.Document, error) {
	if q == "" {
		return []models.Document{}, nil
	}
	docs, err := e.strategy.search(ctx, q)
	if err != nil {
		return nil, err
	}
	return e.finish(docs), nil
}

func (e *Engine) finish(docs []models.Document) []models.Document {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].IngestedAt.Equal(docs[j].IngestedAt) {
			return docs[i].IngestedAt.After(docs[j].IngestedAt)
		}
		return docs[i].ID < docs[j].ID
	})

	if len(docs) > e.limit {
		docs = docs[:e.limit]
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs
}

func matches(doc models.Document, loweredQuery string) bool {
	text := strings.ToLower(doc.Title + " " + doc.Summary)
	return strings.Contains(text, loweredQuery)
}
