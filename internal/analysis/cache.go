package analysis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	key string
	ts  time.Time
}

// CachedAnalyzer fronts another analyzer with a fixed-size TTL cache keyed by
// the input text. Re-ingesting an unchanged item inside the TTL window reuses
// the previous result instead of re-hitting the backend; the document itself
// is still rewritten with a fresh ingestion timestamp.
type CachedAnalyzer struct {
	inner Analyzer

	mu       sync.Mutex
	results  map[string]Result
	stamps   map[string]time.Time
	order    []cacheEntry
	capacity int
	ttl      time.Duration
}

// NewCachedAnalyzer wraps inner with a result cache of the given capacity and ttl.
func NewCachedAnalyzer(inner Analyzer, capacity int, ttl time.Duration) *CachedAnalyzer {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedAnalyzer{
		inner:    inner,
		results:  make(map[string]Result, capacity),
		stamps:   make(map[string]time.Time, capacity),
		order:    make([]cacheEntry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Analyze returns the cached result for this exact text when fresh, otherwise
// delegates to the wrapped analyzer. Failed calls are never cached.
func (c *CachedAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	if text == "" {
		return Neutral(), nil
	}

	key := textKey(text)
	if res, ok := c.lookup(key); ok {
		return res, nil
	}

	res, err := c.inner.Analyze(ctx, text)
	if err != nil {
		return Result{}, err
	}

	c.record(key, res)
	return res, nil
}

func (c *CachedAnalyzer) lookup(key string) (Result, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.stamps[key]; ok && now.Sub(ts) <= c.ttl {
		return c.results[key], true
	}
	return Result{}, false
}

func (c *CachedAnalyzer) record(key string, res Result) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[key] = res
	c.stamps[key] = now
	c.order = append(c.order, cacheEntry{key: key, ts: now})
	c.compact(now)
}

func (c *CachedAnalyzer) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.stamps) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if ts, ok := c.stamps[oldest.key]; ok && ts == oldest.ts {
			delete(c.stamps, oldest.key)
			delete(c.results, oldest.key)
		}
	}
}

func textKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
