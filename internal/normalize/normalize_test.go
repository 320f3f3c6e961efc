package normalize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feedpulse/feedpulse/internal/models"
	"github.com/feedpulse/feedpulse/internal/normalize"
)

func TestDocumentIDStable(t *testing.T) {
	a := normalize.DocumentID("bbc", "https://example.com/story", "A Story")
	b := normalize.DocumentID("bbc", "https://example.com/story", "A Story")
	require.Equal(t, a, b)
	require.Len(t, a, 40) // sha1 hex

	// Title does not participate when a URL exists.
	c := normalize.DocumentID("bbc", "https://example.com/story", "Renamed Story")
	require.Equal(t, a, c)
}

func TestDocumentIDFallsBackToTitle(t *testing.T) {
	a := normalize.DocumentID("bbc", "", "First Title")
	b := normalize.DocumentID("bbc", "", "First Title")
	c := normalize.DocumentID("bbc", "", "Second Title")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestDocumentIDScopedPerSource(t *testing.T) {
	a := normalize.DocumentID("bbc", "https://example.com/story", "")
	b := normalize.DocumentID("reuters", "https://example.com/story", "")
	require.NotEqual(t, a, b)
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	doc := normalize.Normalize("bbc", models.RawItem{}, normalize.DefaultLimits)
	require.Equal(t, "bbc", doc.Source)
	require.Empty(t, doc.Title)
	require.Empty(t, doc.URL)
	require.Empty(t, doc.Summary)
	require.NotEmpty(t, doc.ID)
}

func TestNormalizeTruncates(t *testing.T) {
	raw := models.RawItem{
		Title:       strings.Repeat("t", 600),
		Link:        "https://example.com/long",
		Description: strings.Repeat("s", 1200),
	}

	doc := normalize.Normalize("bbc", raw, normalize.DefaultLimits)
	require.Len(t, []rune(doc.Title), 500)
	require.Len(t, []rune(doc.Summary), 1000)
}

func TestNormalizeTruncatesByRunesNotBytes(t *testing.T) {
	raw := models.RawItem{Title: strings.Repeat("я", 600)}
	doc := normalize.Normalize("bbc", raw, normalize.Limits{TitleMax: 10, SummaryMax: 10})
	require.Equal(t, strings.Repeat("я", 10), doc.Title)
}

func TestNormalizeIdentityIgnoresTruncation(t *testing.T) {
	// The id hashes the raw link, so documents keep their identity even when
	// display fields get cut down.
	long := models.RawItem{Title: strings.Repeat("t", 600), Link: "https://example.com/x"}
	short := models.RawItem{Title: "t", Link: "https://example.com/x"}

	a := normalize.Normalize("bbc", long, normalize.DefaultLimits)
	b := normalize.Normalize("bbc", short, normalize.DefaultLimits)
	require.Equal(t, a.ID, b.ID)
}
