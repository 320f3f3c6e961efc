package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedpulse/feedpulse/internal/analysis"
	"github.com/feedpulse/feedpulse/internal/models"
)

type countingAnalyzer struct {
	calls int
	err   error
}

func (c *countingAnalyzer) Analyze(_ context.Context, text string) (analysis.Result, error) {
	c.calls++
	if c.err != nil {
		return analysis.Result{}, c.err
	}
	return analysis.Result{Sentiment: models.SentimentPositive, Score: 0.9}, nil
}

func TestCachedAnalyzerReusesResult(t *testing.T) {
	inner := &countingAnalyzer{}
	cached := analysis.NewCachedAnalyzer(inner, 10, time.Minute)

	res, err := cached.Analyze(context.Background(), "same text")
	require.NoError(t, err)
	require.Equal(t, models.SentimentPositive, res.Sentiment)

	res, err = cached.Analyze(context.Background(), "same text")
	require.NoError(t, err)
	require.Equal(t, models.SentimentPositive, res.Sentiment)
	require.Equal(t, 1, inner.calls)

	_, err = cached.Analyze(context.Background(), "different text")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedAnalyzerDoesNotCacheErrors(t *testing.T) {
	inner := &countingAnalyzer{err: &analysis.AnalysisError{Kind: analysis.ErrBackendUnavailable, Err: errors.New("down")}}
	cached := analysis.NewCachedAnalyzer(inner, 10, time.Minute)

	_, err := cached.Analyze(context.Background(), "text")
	require.Error(t, err)

	inner.err = nil
	_, err = cached.Analyze(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedAnalyzerTTLExpiry(t *testing.T) {
	inner := &countingAnalyzer{}
	cached := analysis.NewCachedAnalyzer(inner, 10, 20*time.Millisecond)

	_, err := cached.Analyze(context.Background(), "text")
	require.NoError(t, err)
	time.Sleep(25 * time.Millisecond)
	_, err = cached.Analyze(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedAnalyzerCapacityEvictsOldest(t *testing.T) {
	inner := &countingAnalyzer{}
	cached := analysis.NewCachedAnalyzer(inner, 1, time.Minute)

	_, _ = cached.Analyze(context.Background(), "first")
	_, _ = cached.Analyze(context.Background(), "second")
	_, _ = cached.Analyze(context.Background(), "first")
	require.Equal(t, 3, inner.calls)
}

func TestCachedAnalyzerEmptyInputShortCircuits(t *testing.T) {
	inner := &countingAnalyzer{}
	cached := analysis.NewCachedAnalyzer(inner, 10, time.Minute)

	res, err := cached.Analyze(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, analysis.Neutral(), res)
	require.Zero(t, inner.calls)
}
