// Package retry implements exponential backoff with jitter as an explicit
// policy object applied around a call site.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy controls how an operation is retried. The zero value retries
// nothing; use DefaultPolicy for the standard settings.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
	// Retryable decides whether an error triggers another attempt.
	// A nil predicate retries every error.
	Retryable func(error) bool
}

// DefaultPolicy returns the standard retrieval retry policy: 3 attempts,
// 1s base delay doubling up to 10s, with 0-10% jitter to avoid synchronized
// retry storms across concurrent callers.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      1 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, attempts are
// exhausted, or ctx is cancelled. The last error is returned unwrapped so
// the caller can apply its own policy to it.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.delay(attempt-1)); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// delay computes the backoff for the given zero-based attempt, capped at
// MaxDelay, with jitter added on top.
func (p Policy) delay(attempt int) time.Duration {
	base := float64(p.BaseDelay)
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	d := base
	for i := 0; i < attempt; i++ {
		d *= multiplier
	}

	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}

	if p.JitterFraction > 0 {
		d += rand.Float64() * p.JitterFraction * d
	}

	return time.Duration(d)
}

// sleep blocks for d or until ctx is done. Cooperative, never busy-waits.
func (p Policy) sleep(ctx context.Context, d time.Duration) error {
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
