package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoData indicates the provider answered successfully but has no data for
// the requested instrument. Callers treat it as an absent value, not a fault.
var ErrNoData = errors.New("provider: no data")

// HTTPError wraps a non-success provider response.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("provider http %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("provider http %d", e.Status)
}

// Transient reports whether the response is worth retrying.
func (e *HTTPError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// RateLimited reports the provider's throttle signal.
func (e *HTTPError) RateLimited() bool {
	return e.Status == 429
}

// RetryPolicy is a bounded-attempt policy shared by every provider call:
// the delay before attempt n+1 is n times the base, with a larger base when
// the provider signalled a rate limit.
type RetryPolicy struct {
	MaxAttempts      int
	BackoffBase      time.Duration
	RateLimitBackoff time.Duration
}

// Delay returns the backoff before the next attempt after attempt (1-based).
func (p RetryPolicy) Delay(attempt int, rateLimited bool) time.Duration {
	base := p.BackoffBase
	if rateLimited && p.RateLimitBackoff > 0 {
		base = p.RateLimitBackoff
	}
	return time.Duration(attempt) * base
}

// Do runs op up to MaxAttempts times, backing off between attempts. It stops
// early on permanent errors and on context cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error, onRetry func(attempt int)) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !transient(err) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt)
		}
		if err := sleep(ctx, p.Delay(attempt, rateLimited(err))); err != nil {
			return err
		}
	}
	return lastErr
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	// Plain transport failures (connection reset, timeout) arrive as
	// url.Error values; retry them.
	return true
}

func rateLimited(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.RateLimited()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
