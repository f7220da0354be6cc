// Package httputil provides shared HTTP plumbing for index clients: retry
// with exponential backoff and a DNS-cached transport.
package httputil

import (
	"context"
	"errors"
	"time"
)

// Defaults for index lookups. PyPI and most simple-index mirrors recover
// from transient 5xx within a couple of seconds, so three attempts with a
// doubling one-second delay covers the common blips without stalling a
// whole manifest check.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

// RetryableError marks a failure as transient. Index clients wrap network
// errors and 5xx responses with it; anything else (404, bad JSON, yanked
// releases) fails fast.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. The delay doubles between attempts. Cancelling
// ctx during a backoff sleep returns ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// RetryWithBackoff runs fn with the package defaults. Index clients use
// this for every uncached fetch.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, DefaultAttempts, DefaultBaseDelay, fn)
}
