package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/feedpulse/feedpulse/internal/models"
)

// Elastic persists documents in an Elasticsearch index. Unlike Redis it has no
// per-record TTL, so expiry is made physical by RemoveExpired; in exchange it
// can serve the indexed query strategy with real secondary indexes.
type Elastic struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// NewElastic instantiates the Elasticsearch-backed store.
func NewElastic(addr, index string, log *slog.Logger) (*Elastic, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Elastic{es: es, index: index, log: log}, nil
}

func (e *Elastic) Ping(ctx context.Context) error {
	res, err := e.es.Ping(e.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Put(ctx context.Context, doc models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return &WriteError{Key: doc.Key(), Err: fmt.Errorf("marshal doc: %w", err)}
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: doc.Key(),
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, e.es)
	if err != nil {
		return &WriteError{Key: doc.Key(), Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return &WriteError{Key: doc.Key(), Err: fmt.Errorf("index doc failed: %s", strings.TrimSpace(string(body)))}
	}

	return nil
}

// Scan returns the most recently ingested live documents.
func (e *Elastic) Scan(ctx context.Context, limit int) ([]models.Document, error) {
	size := limit
	if size <= 0 {
		size = 10000 // index.max_result_window default
	}

	body := map[string]any{
		"size":  size,
		"query": liveQuery(nil),
		"sort": []map[string]any{
			{"ingested_at": map[string]any{"order": "desc"}},
		},
	}

	return e.search(ctx, body)
}

// Latest serves the indexed query strategy's recency query.
func (e *Elastic) Latest(ctx context.Context, limit int) ([]models.Document, error) {
	return e.Scan(ctx, limit)
}

// BySource serves the indexed strategy using the source keyword field.
func (e *Elastic) BySource(ctx context.Context, name string, limit int) ([]models.Document, error) {
	body := map[string]any{
		"size": limit,
		"query": liveQuery([]map[string]any{
			{"term": map[string]any{"source": name}},
		}),
		"sort": []map[string]any{
			{"ingested_at": map[string]any{"order": "desc"}},
		},
	}
	return e.search(ctx, body)
}

// Search serves the indexed strategy using the inverted text index over title
// and summary.
func (e *Elastic) Search(ctx context.Context, query string, limit int) ([]models.Document, error) {
	body := map[string]any{
		"size": limit,
		"query": liveQuery([]map[string]any{
			{"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^2", "summary"},
			}},
		}),
		"sort": []map[string]any{
			{"ingested_at": map[string]any{"order": "desc"}},
		},
	}
	return e.search(ctx, body)
}

// RemoveExpired deletes documents whose expiry has passed with batched
// delete-by-query, looping until a batch comes back short.
func (e *Elastic) RemoveExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	now := time.Now().UTC().Format(time.RFC3339)
	totalDeleted := int64(0)

	for {
		body := map[string]any{
			"query": map[string]any{
				"range": map[string]any{
					"expires_at": map[string]any{"lte": now},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal delete body: %w", err)
		}

		res, err := e.es.DeleteByQuery(
			[]string{e.index},
			bytes.NewReader(payload),
			e.es.DeleteByQuery.WithContext(ctx),
			e.es.DeleteByQuery.WithWaitForCompletion(true),
			e.es.DeleteByQuery.WithConflicts("proceed"),
			e.es.DeleteByQuery.WithScrollSize(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("delete by query: %w", err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode delete response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

func (e *Elastic) search(ctx context.Context, body map[string]any) ([]models.Document, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]models.Document, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// liveFilter excludes documents whose expiry has passed but which the
// retention sweep has not physically removed yet.
func liveFilter() []map[string]any {
	return []map[string]any{
		{"range": map[string]any{
			"expires_at": map[string]any{"gt": time.Now().UTC().Format(time.RFC3339)},
		}},
	}
}

func liveQuery(must []map[string]any) map[string]any {
	boolQuery := map[string]any{"filter": liveFilter()}
	if len(must) > 0 {
		boolQuery["must"] = must
	} else {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}
	return map[string]any{"bool": boolQuery}
}
