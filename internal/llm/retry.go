package llm

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy controls how overloaded-model responses are retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// InitialDelay is the delay before the first retry. Subsequent
	// retries double the delay each time.
	InitialDelay time.Duration
}

// DefaultRetryPolicy returns the retry policy applied to model calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 2 * time.Second,
	}
}

// retrySleep waits for the given duration, respecting context cancellation.
// Overridable in tests to avoid real delays.
var retrySleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryJitter returns a random delay added to each backoff step to avoid
// synchronized retries. Overridable in tests.
var retryJitter = func() time.Duration {
	return time.Duration(rand.Int63n(int64(time.Second)))
}

// WithRetry invokes fn, retrying only when it fails with an overloaded-model
// error. The delay before retry N (zero-based) is InitialDelay * 2^N plus up
// to one second of jitter. Any non-overload error is returned immediately,
// and the last overload error is returned once retries are exhausted.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.InitialDelay*time.Duration(1<<(attempt-1)) + retryJitter()
			if err := retrySleep(ctx, delay); err != nil {
				return zero, err
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		if !IsOverloadedError(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}
