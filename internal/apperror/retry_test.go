package apperror

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_exhaustsAttempts(t *testing.T) {
	netErr := errors.New("network unreachable")
	calls := 0
	start := time.Now()
	err := Retry(context.Background(), RetryOptions{MaxAttempts: 3, Delay: 10 * time.Millisecond, Backoff: true},
		func(ctx context.Context) error {
			calls++
			return netErr
		})
	elapsed := time.Since(start)

	if calls != 3 {
		t.Errorf("expected exactly 3 invocations, got %d", calls)
	}
	if !errors.Is(err, netErr) {
		t.Errorf("last error should be rethrown, got %v", err)
	}
	// Two inter-attempt waits: 10ms then 20ms. No trailing delay.
	if elapsed < 30*time.Millisecond {
		t.Errorf("backoff delays too short: %v", elapsed)
	}
}

func TestRetry_abortsOnNonRetryable(t *testing.T) {
	authErr := errors.New("unauthorized")
	calls := 0
	err := Retry(context.Background(), RetryOptions{MaxAttempts: 5, Delay: time.Millisecond, Backoff: true},
		func(ctx context.Context) error {
			calls++
			return authErr
		})
	if calls != 1 {
		t.Errorf("non-retryable error must not be retried, got %d calls", calls)
	}
	if !errors.Is(err, authErr) {
		t.Errorf("want original error, got %v", err)
	}
}

func TestRetry_succeedsMidway(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryOptions{MaxAttempts: 4, Delay: time.Millisecond},
		func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("network blip")
			}
			return nil
		})
	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_zeroDelay(t *testing.T) {
	blip := errors.New("network blip")
	calls := 0
	err := Retry(context.Background(), RetryOptions{MaxAttempts: 2, Backoff: true},
		func(ctx context.Context) error {
			calls++
			return blip
		})
	if calls != 2 {
		t.Errorf("expected 2 calls with an unset delay, got %d", calls)
	}
	if !errors.Is(err, blip) {
		t.Errorf("last error should be rethrown, got %v", err)
	}
}

func TestRetry_flatDelay(t *testing.T) {
	calls := 0
	start := time.Now()
	_ = Retry(context.Background(), RetryOptions{MaxAttempts: 3, Delay: 5 * time.Millisecond, Backoff: false},
		func(ctx context.Context) error {
			calls++
			return errors.New("network blip")
		})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("flat delay waits were skipped")
	}
}
