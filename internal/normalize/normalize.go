package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/feedpulse/feedpulse/internal/models"
)

// Limits bound the stored length of text fields, counted in runes.
type Limits struct {
	TitleMax   int
	SummaryMax int
}

// DefaultLimits match the storage bounds used across the system.
var DefaultLimits = Limits{TitleMax: 500, SummaryMax: 1000}

// Normalize maps a raw feed item into a canonical Document. It is pure and
// total: missing fields default to empty strings and truncation happens after
// defaulting. Sentiment fields are left zero for the analyzer to fill in.
func Normalize(source string, raw models.RawItem, limits Limits) models.Document {
	if limits.TitleMax <= 0 {
		limits.TitleMax = DefaultLimits.TitleMax
	}
	if limits.SummaryMax <= 0 {
		limits.SummaryMax = DefaultLimits.SummaryMax
	}

	title := strings.TrimSpace(raw.Title)
	link := strings.TrimSpace(raw.Link)
	summary := strings.TrimSpace(raw.Description)

	return models.Document{
		ID:      DocumentID(source, link, title),
		Source:  source,
		Title:   truncateRunes(title, limits.TitleMax),
		URL:     link,
		Summary: truncateRunes(summary, limits.SummaryMax),
	}
}

// DocumentID derives the stable identity for an item. The URL is the preferred
// identity carrier; title is the fallback for feeds that omit links. The same
// (source, url-or-title) pair always hashes to the same id, which is what makes
// re-ingestion idempotent.
func DocumentID(source, url, title string) string {
	guid := url
	if guid == "" {
		guid = title
	}
	sum := sha1.Sum([]byte(source + ":" + guid))
	return hex.EncodeToString(sum[:])
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
