package feed

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedpulse/feedpulse/internal/models"
)

// Fetcher retrieves and parses syndicated feeds. It applies a hard per-call
// timeout and never retries; retry policy belongs to the scheduler.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewFetcher creates a fetcher with the given per-call timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		parser:  gofeed.NewParser(),
		timeout: timeout,
	}
}

// Fetch downloads and parses one feed into raw items in feed order.
// Failures come back as *FetchError with the kind set.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) ([]models.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(sourceURL, ctx)
	if err != nil {
		return nil, &FetchError{Kind: classify(err), URL: sourceURL, Err: err}
	}

	items := make([]models.RawItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		items = append(items, models.RawItem{
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
		})
	}

	return items, nil
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrNetwork
	}

	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return ErrNetwork
	}

	// gofeed reports undetectable or broken feed bodies as parse failures.
	return ErrParse
}
