package provider

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned once 429 retries are exhausted.
var ErrRateLimited = errors.New("rate limited: retries exhausted")

// ErrEmptySeries is returned when a source answered but yielded no usable points.
var ErrEmptySeries = errors.New("source returned empty series")

// HTTPError is a non-2xx, non-429 upstream response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps network-level failures, including timeouts. The
// fallback chain treats it the same as any other source failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
