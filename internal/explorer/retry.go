package explorer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy controls how failed requests are retried.
type RetryPolicy struct {
	// MaxAttempts is the number of attempts including the first one.
	MaxAttempts int

	// Backoff is the delay before the second attempt. It doubles after
	// every failed attempt.
	Backoff time.Duration

	// MaxBackoff caps the delay. Zero means no cap.
	MaxBackoff time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Backoff:     time.Second,
		MaxBackoff:  time.Minute,
	}
}

// delay returns the wait before attempt+1 (attempt is zero-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Backoff
	for range attempt {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the default sleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryable reports whether err is worth another attempt.
//
// Rate limits, 5xx responses and transport errors are retried. Missing
// sources, other 4xx responses and context cancellation are not.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrSourceNotFound) {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// retryWithBackoff runs fn until it succeeds, fails permanently, the
// attempts are exhausted or ctx is done. A rate limit waits for the
// longer of Retry-After and the backoff delay.
func retryWithBackoff(ctx context.Context, p RetryPolicy, sleep sleepFunc, logger *slog.Logger, op string, fn func() error) error {
	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		wait := p.delay(attempt)
		var rl *RateLimitError
		if errors.As(lastErr, &rl) && rl.RetryAfter > wait {
			wait = rl.RetryAfter
		}

		logger.Warn("request failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"maxAttempts", attempts,
			"wait", wait,
			"error", lastErr,
		)

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

// parseRetryAfter reads a Retry-After header given either in seconds or as
// an HTTP date. It returns 0 when the header is missing or malformed.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
