package query

import (
	"context"
	"strings"

	"github.com/feedpulse/feedpulse/internal/models"
	"github.com/feedpulse/feedpulse/internal/store"
)

// Windows bound how many recently written records each scan operation may
// examine. This trades recall for bounded cost against a plain key/value
// store; zero means no bound.
type Windows struct {
	Latest int
	Source int
	Search int
}

// DefaultWindows match the documented approximation levels.
var DefaultWindows = Windows{Latest: 50, Source: 200, Search: 300}

// scanStrategy answers queries by scanning a bounded prefix of recent records
// and filtering in memory. Cheap, approximate, works on any Store.
type scanStrategy struct {
	store   store.Store
	windows Windows
}

func (s *scanStrategy) latest(ctx context.Context) ([]models.Document, error) {
	return s.store.Scan(ctx, s.windows.Latest)
}

func (s *scanStrategy) bySource(ctx context.Context, name string) ([]models.Document, error) {
	docs, err := s.store.Scan(ctx, s.windows.Source)
	if err != nil {
		return nil, err
	}

	kept := docs[:0]
	for _, doc := range docs {
		if doc.Source == name {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}

func (s *scanStrategy) search(ctx context.Context, q string) ([]models.Document, error) {
	docs, err := s.store.Scan(ctx, s.windows.Search)
	if err != nil {
		return nil, err
	}

	lowered := strings.ToLower(q)
	kept := docs[:0]
	for _, doc := range docs {
		if matches(doc, lowered) {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}

// indexedStrategy delegates to a store's native secondary indexes. Exact over
// the whole live corpus; needs a backend that implements Index.
type indexedStrategy struct {
	index Index
	limit int
}

func (s *indexedStrategy) latest(ctx context.Context) ([]models.Document, error) {
	return s.index.Latest(ctx, s.limit)
}

func (s *indexedStrategy) bySource(ctx context.Context, name string) ([]models.Document, error) {
	return s.index.BySource(ctx, name, s.limit)
}

func (s *indexedStrategy) search(ctx context.Context, q string) ([]models.Document, error) {
	return s.index.Search(ctx, q, s.limit)
}
