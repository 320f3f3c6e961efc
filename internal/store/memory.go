package store

import (
	"context"
	"sync"
	"time"

	"github.com/feedpulse/feedpulse/internal/models"
)

// Memory is an in-process store for tests and local development. It honors
// expiry on read and offers the same last-write-wins semantics as the real
// backends.
type Memory struct {
	mu    sync.RWMutex
	docs  map[string]models.Document
	order []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]models.Document)}
}

func (m *Memory) Put(_ context.Context, doc models.Document) error {
	key := doc.Key()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[key]; exists {
		// Re-ingestion moves the record to the freshest scan position.
		for i, k := range m.order {
			if k == key {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.order = append(m.order, key)
	m.docs[key] = doc
	return nil
}

// Scan walks records newest-written-first, skipping expired ones.
func (m *Memory) Scan(_ context.Context, limit int) ([]models.Document, error) {
	now := time.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Document
	for i := len(m.order) - 1; i >= 0; i-- {
		doc, ok := m.docs[m.order[i]]
		if !ok || !doc.ExpiresAt.After(now) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

// RemoveExpired drops records whose expiry has passed.
func (m *Memory) RemoveExpired(_ context.Context, _ int) (int64, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	kept := m.order[:0]
	for _, key := range m.order {
		doc, ok := m.docs[key]
		if !ok {
			continue
		}
		if doc.ExpiresAt.After(now) {
			kept = append(kept, key)
			continue
		}
		delete(m.docs, key)
		removed++
	}
	m.order = kept
	return removed, nil
}

// Len reports the number of live records. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
