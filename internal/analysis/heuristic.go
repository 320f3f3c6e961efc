package analysis

import (
	"context"
	"strings"

	"github.com/feedpulse/feedpulse/internal/models"
)

// signalWords is the fixed vocabulary the heuristic scans for. A hit-heavy
// text reads as negative (misinformation-flavored) coverage.
var signalWords = []string{"fake", "hoax", "misleading", "false", "debunk"}

const negativeThreshold = 0.6

// HeuristicAnalyzer is the local fallback backend. It is free, offline, and
// never fails.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer returns the local vocabulary-scan analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Analyze scores text by the fraction of signal words it contains.
func (h *HeuristicAnalyzer) Analyze(_ context.Context, text string) (Result, error) {
	text = truncateInput(text)
	if text == "" {
		return Neutral(), nil
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, w := range signalWords {
		if strings.Contains(lower, w) {
			matches++
		}
	}

	score := float64(matches) / float64(len(signalWords))
	sentiment := models.SentimentNeutral
	if score >= negativeThreshold {
		sentiment = models.SentimentNegative
	}

	return Result{
		Sentiment: sentiment,
		Score:     score,
		Keywords:  Keywords(text, MaxKeywords),
	}, nil
}
