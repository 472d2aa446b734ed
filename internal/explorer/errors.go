package explorer

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Explorer errors.
var (
	// ErrSourceNotFound is returned when a contract page has no source editor,
	// which is what the explorer shows for unverified contracts.
	ErrSourceNotFound = errors.New("contract source not found")

	// ErrInvalidBaseURL is returned when the explorer base URL cannot be parsed
	// or is not http(s).
	ErrInvalidBaseURL = errors.New("invalid explorer URL: expected http(s)://host")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError is returned for a non-2xx response that is not a rate limit.
type StatusError struct {
	// URL is the requested URL with credentials removed.
	URL string
	// Code is the HTTP status code.
	Code int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) for %s", e.Code, http.StatusText(e.Code), e.URL)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError
}

// RateLimitError is returned when the explorer answers 429 Too Many Requests.
type RateLimitError struct {
	// URL is the requested URL with credentials removed.
	URL string
	// RetryAfter is the delay requested by the server, 0 if none was given.
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by explorer for %s (retry after %s)", e.URL, e.RetryAfter)
	}
	return "rate limited by explorer for " + e.URL
}

// IsRateLimited reports whether err is, or wraps, a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
