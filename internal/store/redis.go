package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feedpulse/feedpulse/internal/models"
)

const (
	docKeyPrefix = "doc:"
	recentSetKey = "docs:recent"
)

// Redis persists documents as JSON values with a native TTL to each record's
// expiry, plus a recency zset (scored by ingestion time) that backs Scan.
// Expiry is passive: Redis drops the value, reads skip dangling index members,
// and the retention job trims them out of the zset.
type Redis struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedis creates a redis-backed store. Connectivity is verified lazily; use
// Ping for health checks.
func NewRedis(addr string, log *slog.Logger) *Redis {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		log:    log,
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Put(ctx context.Context, doc models.Document) error {
	key := docKeyPrefix + doc.Key()

	ttl := time.Until(doc.ExpiresAt)
	if ttl <= 0 {
		// Already past its retention window; nothing to persist.
		return nil
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return &WriteError{Key: doc.Key(), Err: fmt.Errorf("marshal doc: %w", err)}
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.ZAdd(ctx, recentSetKey, redis.Z{
		Score:  float64(doc.IngestedAt.UnixNano()),
		Member: key,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return &WriteError{Key: doc.Key(), Err: err}
	}

	return nil
}

// Scan returns up to limit documents from the recency index, newest first.
// Members whose value has already expired are skipped and queued for removal.
func (r *Redis) Scan(ctx context.Context, limit int) ([]models.Document, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	keys, err := r.client.ZRevRange(ctx, recentSetKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("scan recency index: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}

	docs := make([]models.Document, 0, len(values))
	var dead []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			dead = append(dead, keys[i])
			continue
		}
		var doc models.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			r.log.Warn("corrupt document skipped", slog.String("key", keys[i]), slog.Any("err", err))
			dead = append(dead, keys[i])
			continue
		}
		docs = append(docs, doc)
	}

	if len(dead) > 0 {
		if err := r.client.ZRem(ctx, recentSetKey, dead...).Err(); err != nil {
			r.log.Warn("trim dangling index members", slog.Any("err", err))
		}
	}

	return docs, nil
}

// RemoveExpired walks the recency index in batches and drops members whose
// backing value Redis has already expired.
func (r *Redis) RemoveExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	var dead []interface{}
	for start := int64(0); ; start += int64(batchSize) {
		keys, err := r.client.ZRange(ctx, recentSetKey, start, start+int64(batchSize)-1).Result()
		if err != nil {
			return 0, fmt.Errorf("walk recency index: %w", err)
		}
		if len(keys) == 0 {
			break
		}

		values, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return 0, fmt.Errorf("check documents: %w", err)
		}
		for i, v := range values {
			if v == nil {
				dead = append(dead, keys[i])
			}
		}

		if len(keys) < batchSize {
			break
		}
	}

	if len(dead) == 0 {
		return 0, nil
	}

	removed, err := r.client.ZRem(ctx, recentSetKey, dead...).Result()
	if err != nil {
		return removed, fmt.Errorf("trim recency index: %w", err)
	}
	return removed, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
