package apperror

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryOptions bounds a retried operation. MaxAttempts counts total
// invocations, Delay is the first inter-attempt wait, and Backoff
// doubles the wait after every failed attempt.
type RetryOptions struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool
	Context     string
}

// Retry re-invokes op until it succeeds, classification marks the error
// non-retryable, or MaxAttempts is exhausted. Attempts run strictly
// sequentially; the last error is returned unwrapped.
func Retry(ctx context.Context, opts RetryOptions, op func(ctx context.Context) error) error {
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.Delay
	if delay <= 0 {
		// go-retry panics on a non-positive base.
		delay = time.Millisecond
	}

	var b retry.Backoff
	if opts.Backoff {
		b = retry.NewExponential(delay)
	} else {
		b = retry.NewConstant(delay)
	}
	b = retry.WithMaxRetries(uint64(attempts-1), b)

	var lastErr error
	doErr := retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if info := Classify(err, opts.Context); !info.Retryable {
			// Terminal: returning the bare error stops retry.Do.
			return err
		}
		return retry.RetryableError(err)
	})
	if doErr != nil {
		if lastErr != nil {
			return lastErr
		}
		return doErr
	}
	return nil
}
