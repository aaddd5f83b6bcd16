// Package util carries small caller-side helpers around the client: retry
// wrappers for single-shot verbs and condition polling. The client core
// never retries single requests itself.
package util

import (
	"context"
	"time"

	"github.com/avast/retry-go"

	"github.com/thomashorrobin/SwiftkubeClient/pkg/apierrors"
)

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 5 * time.Second
)

// DefaultRetryOptions is the retry shape used when callers pass none: three
// attempts with a fixed five second delay, retrying only errors the
// classifier marks retryable.
func DefaultRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(defaultRetryAttempts),
		retry.Delay(defaultRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(apierrors.IsRetryable),
		retry.LastErrorOnly(true),
	}
}

// WithRetry runs operation until it succeeds, returns a non-retryable error
// or the attempt budget is spent. A server-provided Retry-After is slept
// right after the failed attempt, before the configured delay, so the two
// waits add up.
func WithRetry(operation func() error, opts ...retry.Option) error {
	if len(opts) == 0 {
		opts = DefaultRetryOptions()
	}
	return retry.Do(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if delay, ok := apierrors.RetryAfter(err); ok {
			time.Sleep(delay)
		}
		return err
	}, opts...)
}

// WaitFor polls isReady every interval until it reports true, fails or the
// context expires.
func WaitFor(ctx context.Context, interval time.Duration, isReady func(ctx context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ready, err := isReady(ctx)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return apierrors.NewCancelled("wait", "", ctx.Err())
		case <-ticker.C:
		}
	}
}
