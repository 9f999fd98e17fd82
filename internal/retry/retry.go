// Package retry provides the single reusable retry policy used around the
// credential manager and other recoverable call sites.
package retry

import (
	"context"
	"time"
)

// Backoff maps a zero-based attempt number to a wait duration.
type Backoff func(attempt int) time.Duration

// Linear waits step, 2*step, 3*step, ... capped at max.
func Linear(step, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := time.Duration(attempt+1) * step
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// Exponential waits base, 2*base, 4*base, ... capped at max.
func Exponential(base, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base << attempt
		if max > 0 && (d > max || d <= 0) {
			return max
		}
		return d
	}
}

// Policy is a bounded retry loop with a retryable-error predicate.
// MaxAttempts <= 0 means retry until the context is cancelled.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Retryable   func(error) bool // nil means every error is retryable
}

// Do runs fn until it succeeds, the error is not retryable, attempts are
// exhausted, or ctx is done. Returns the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; p.MaxAttempts <= 0 || attempt < p.MaxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		last := p.MaxAttempts > 0 && attempt == p.MaxAttempts-1
		if last {
			break
		}
		wait := time.Second
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
