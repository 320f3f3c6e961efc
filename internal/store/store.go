// Package store provides keyed document persistence with range scans and
// TTL-based expiry. The pipeline and query layers only depend on the Store
// interface; backends are selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedpulse/feedpulse/internal/config"
	"github.com/feedpulse/feedpulse/internal/models"
)

// Store is the persistence contract. Put overwrites any existing record with
// the same (source, id) key; Scan returns recently written documents, limit <= 0
// meaning everything. Scan order is not guaranteed sorted — callers sort by
// ingestion time themselves.
type Store interface {
	Put(ctx context.Context, doc models.Document) error
	Scan(ctx context.Context, limit int) ([]models.Document, error)
}

// Pinger is implemented by backends that can report connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Maintainer is implemented by backends that need a periodic sweep to make
// expiry physical. Backends with fully native TTL still use it to keep their
// secondary structures from accumulating dead references.
type Maintainer interface {
	RemoveExpired(ctx context.Context, batchSize int) (int64, error)
}

// WriteError reports a failed write for one document. The pipeline records it
// against the item and continues with the rest of the source.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store: write %s: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// New builds the configured store backend.
func New(cfg config.Common, log *slog.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		return NewRedis(cfg.RedisAddr, log), nil
	case config.StoreElasticsearch:
		return NewElastic(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	case config.StoreMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
