package analysis

import (
	"context"
	"fmt"

	"github.com/feedpulse/feedpulse/internal/models"
)

// MaxInputRunes bounds the text submitted to any backend. Longer inputs are
// truncated before analysis to respect backend limits and cost.
const MaxInputRunes = 4500

// MaxKeywords bounds the derived keyword set per document.
const MaxKeywords = 8

// Result is the outcome of analyzing one document's text.
type Result struct {
	Sentiment models.Sentiment
	Score     float64
	Keywords  []string
}

// Neutral is the degraded result used when analysis is unavailable and the
// fixed result for empty input.
func Neutral() Result {
	return Result{Sentiment: models.SentimentNeutral, Score: 0, Keywords: nil}
}

// Analyzer scores text for sentiment and keywords. Implementations must return
// Neutral() for empty input without touching any backend.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// ErrorKind classifies an analysis failure.
type ErrorKind string

const (
	ErrBackendUnavailable ErrorKind = "backend_unavailable"
	ErrBackendError       ErrorKind = "backend_error"
)

// AnalysisError reports a failed backend call. The pipeline degrades the item
// to Neutral() instead of dropping it.
type AnalysisError struct {
	Kind ErrorKind
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis: %s: %v", e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func truncateInput(text string) string {
	rs := []rune(text)
	if len(rs) <= MaxInputRunes {
		return text
	}
	return string(rs[:MaxInputRunes])
}
