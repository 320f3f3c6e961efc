package feed

import "fmt"

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	ErrNetwork ErrorKind = "network"
	ErrTimeout ErrorKind = "timeout"
	ErrParse   ErrorKind = "parse"
)

// FetchError reports a failed fetch for one source. The pipeline records it
// against the source and moves on; it is never fatal to a run.
type FetchError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
