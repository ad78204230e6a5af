package runner

import (
	"context"
	"time"

	"github.com/torosent/funcprof/internal/profiler"
)

// FailureLogger logs failed calls.
type FailureLogger interface {
	LogFailure(err error)
}

// RetryPolicy configures retry behavior.
type RetryPolicy struct {
	MaxAttempts int                                        // total attempts including initial try
	Delay       time.Duration                              // fixed delay between retries (used if DelayFunc nil)
	ShouldRetry func(error) bool                           // predicate; if nil, all errors retried
	DelayFunc   func(attempt int, err error) time.Duration // dynamic backoff; attempt is 1-based
}

// WithRetry wraps a Task with retry capability.
func WithRetry(task Task, policy RetryPolicy) Task {
	if policy.MaxAttempts <= 1 || task == nil {
		return task // no retries needed
	}
	return func(ctx context.Context, l *profiler.Local, call int) error {
		var lastErr error
		for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			lastErr = task(ctx, l, call)
			if lastErr == nil {
				return nil
			}

			// Don't delay after the last attempt.
			if attempt < policy.MaxAttempts {
				if policy.ShouldRetry != nil && !policy.ShouldRetry(lastErr) {
					return lastErr
				}
				var delay time.Duration
				if policy.DelayFunc != nil {
					delay = policy.DelayFunc(attempt, lastErr)
				} else {
					delay = policy.Delay
				}
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
		return lastErr
	}
}

// WithLogging wraps a Task to log failures.
func WithLogging(task Task, logger FailureLogger) Task {
	if logger == nil || task == nil {
		return task
	}
	return func(ctx context.Context, l *profiler.Local, call int) error {
		err := task(ctx, l, call)
		if err != nil {
			logger.LogFailure(err)
		}
		return err
	}
}
