package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedpulse/feedpulse/internal/analysis"
	"github.com/feedpulse/feedpulse/internal/models"
)

func TestRemoteAnalyzeTakesMaxClassProbability(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Text string `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Text)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"sentiment": "positive",
			"scores": map[string]float64{
				"POSITIVE": 0.91,
				"NEGATIVE": 0.02,
				"NEUTRAL":  0.05,
				"MIXED":    0.02,
			},
		})
	}))
	defer srv.Close()

	a := analysis.NewRemoteAnalyzer(srv.URL, "secret", 5*time.Second)
	res, err := a.Analyze(context.Background(), "Stellar earnings delight investors everywhere")
	require.NoError(t, err)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, models.SentimentPositive, res.Sentiment)
	require.InDelta(t, 0.91, res.Score, 1e-9)
	require.NotEmpty(t, res.Keywords)
}

func TestRemoteAnalyzeEmptyInputSkipsBackend(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := analysis.NewRemoteAnalyzer(srv.URL, "", 5*time.Second)
	res, err := a.Analyze(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, analysis.Neutral(), res)
	require.False(t, called)
}

func TestRemoteAnalyzeServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := analysis.NewRemoteAnalyzer(srv.URL, "", 5*time.Second)
	_, err := a.Analyze(context.Background(), "some text")
	require.Error(t, err)

	var aerr *analysis.AnalysisError
	require.True(t, errors.As(err, &aerr))
	require.Equal(t, analysis.ErrBackendUnavailable, aerr.Kind)
}

func TestRemoteAnalyzeClientErrorIsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	a := analysis.NewRemoteAnalyzer(srv.URL, "", 5*time.Second)
	_, err := a.Analyze(context.Background(), "some text")
	require.Error(t, err)

	var aerr *analysis.AnalysisError
	require.True(t, errors.As(err, &aerr))
	require.Equal(t, analysis.ErrBackendError, aerr.Kind)
}

func TestRemoteAnalyzeUnreachableIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	a := analysis.NewRemoteAnalyzer(srv.URL, "", time.Second)
	_, err := a.Analyze(context.Background(), "some text")
	require.Error(t, err)

	var aerr *analysis.AnalysisError
	require.True(t, errors.As(err, &aerr))
	require.Equal(t, analysis.ErrBackendUnavailable, aerr.Kind)
}

func TestRemoteAnalyzeUnknownLabelDefaultsNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"sentiment": "ecstatic", "scores": map[string]float64{"ecstatic": 0.7}})
	}))
	defer srv.Close()

	a := analysis.NewRemoteAnalyzer(srv.URL, "", 5*time.Second)
	res, err := a.Analyze(context.Background(), "some text")
	require.NoError(t, err)
	require.Equal(t, models.SentimentNeutral, res.Sentiment)
	require.InDelta(t, 0.7, res.Score, 1e-9)
}
