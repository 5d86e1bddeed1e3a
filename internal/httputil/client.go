package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 60 * time.Second

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}

// FetchResult carries the bookkeeping for a single upstream fetch so the
// caller can record what happened (and distinguish "no data available" from
// "fetch failed") instead of collapsing both into an empty result.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
	RecordCount  int
	ParseErrors  int
	ParseError   string
	Error        error
}
