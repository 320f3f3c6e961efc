package models

import "time"

// Sentiment is the label assigned by an analyzer backend.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// Document is the canonical unit of ingested content. Documents are immutable:
// re-ingesting the same item rebuilds the full record and overwrites the old one.
type Document struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Summary    string    `json:"summary"`
	Sentiment  Sentiment `json:"sentiment"`
	Score      float64   `json:"score"`
	Keywords   []string  `json:"keywords"`
	IngestedAt time.Time `json:"ingested_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Key is the storage key, scoped per source so dedup never collides across feeds.
func (d Document) Key() string {
	return d.Source + "#" + d.ID
}

// RawItem is one entry of a parsed feed before normalization. Any field may be empty.
type RawItem struct {
	Title       string
	Link        string
	Description string
}

// SourceConfig names one feed endpoint configured for ingestion.
type SourceConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
