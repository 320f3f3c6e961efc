package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/feedpulse/feedpulse/internal/models"
)

// RemoteAnalyzer calls an external sentiment service. The service speaks a
// small JSON contract: it receives the text and returns a sentiment label plus
// per-class probabilities; the maximum class probability becomes the score.
type RemoteAnalyzer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewRemoteAnalyzer creates a client for the given sentiment endpoint.
func NewRemoteAnalyzer(endpoint, apiKey string, timeout time.Duration) *RemoteAnalyzer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
	}
}

type sentimentRequest struct {
	Text string `json:"text"`
}

type sentimentResponse struct {
	Sentiment string             `json:"sentiment"`
	Scores    map[string]float64 `json:"scores"`
}

// Analyze submits the text for sentiment scoring. Keywords are derived
// locally; the backend only produces the label and probabilities.
func (r *RemoteAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	text = truncateInput(text)
	if text == "" {
		return Neutral(), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Result{}, &AnalysisError{Kind: ErrBackendUnavailable, Err: err}
	}

	body, err := json.Marshal(sentimentRequest{Text: text})
	if err != nil {
		return Result{}, &AnalysisError{Kind: ErrBackendError, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, &AnalysisError{Kind: ErrBackendError, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, &AnalysisError{Kind: ErrBackendUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return Result{}, &AnalysisError{
			Kind: ErrBackendUnavailable,
			Err:  fmt.Errorf("backend returned %s", resp.Status),
		}
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, &AnalysisError{
			Kind: ErrBackendError,
			Err:  fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(data))),
		}
	}

	var parsed sentimentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, &AnalysisError{Kind: ErrBackendError, Err: fmt.Errorf("decode response: %w", err)}
	}

	score := 0.0
	for _, p := range parsed.Scores {
		if p > score {
			score = p
		}
	}

	return Result{
		Sentiment: parseSentiment(parsed.Sentiment),
		Score:     score,
		Keywords:  Keywords(text, MaxKeywords),
	}, nil
}

func parseSentiment(raw string) models.Sentiment {
	switch models.Sentiment(strings.ToUpper(strings.TrimSpace(raw))) {
	case models.SentimentPositive:
		return models.SentimentPositive
	case models.SentimentNegative:
		return models.SentimentNegative
	case models.SentimentMixed:
		return models.SentimentMixed
	default:
		return models.SentimentNeutral
	}
}
