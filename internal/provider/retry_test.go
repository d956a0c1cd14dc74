package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryDelayScalesWithAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BackoffBase: time.Second, RateLimitBackoff: 1500 * time.Millisecond}

	if d := policy.Delay(1, false); d != time.Second {
		t.Fatalf("delay after attempt 1 = %v, want 1s", d)
	}
	if d := policy.Delay(3, false); d != 3*time.Second {
		t.Fatalf("delay after attempt 3 = %v, want 3s", d)
	}
	if d := policy.Delay(2, true); d != 3*time.Second {
		t.Fatalf("rate-limited delay after attempt 2 = %v, want 3s", d)
	}
}

func TestRetryDoRecoversFromTransient(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BackoffBase: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &HTTPError{Status: 503}
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("made %d calls, want 3", calls)
	}
}

func TestRetryDoStopsOnPermanentError(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BackoffBase: time.Millisecond}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &HTTPError{Status: 404}
	}, nil)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != 404 {
		t.Fatalf("expected the 404 back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("permanent errors must not be retried, made %d calls", calls)
	}
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, BackoffBase: time.Millisecond}

	calls := 0
	retries := 0
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &HTTPError{Status: 429}
	}, func(attempt int) {
		retries++
	})
	if err == nil {
		t.Fatal("expected the last error after exhausting attempts")
	}
	if calls != 4 || retries != 3 {
		t.Fatalf("calls = %d retries = %d, want 4 and 3", calls, retries)
	}
}

func TestRetryDoHonoursCancellation(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BackoffBase: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		// Cancel while Do sits in its first backoff.
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		return &HTTPError{Status: 500}
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("made %d calls, want 1", calls)
	}
}
