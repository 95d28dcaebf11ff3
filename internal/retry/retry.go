// Package retry provides the retry policy injected into stages that call
// external services. Callers own the degrade-on-exhaustion behavior; this
// package only decides when to stop trying.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes how an external call is retried.
type Policy struct {
	MaxAttempts int           // Total attempts including the first
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Ceiling for any single delay
	Jitter      float64       // Fraction of the delay randomized, in [0,1]
}

// DefaultPolicy matches the backoff schedule used for per-item enrichment
// calls: 3 attempts, 500ms doubling, capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}
}

// Do runs fn until it succeeds, the attempt ceiling is reached, or ctx is
// done. The last error is returned after exhaustion; a context error is
// returned as-is so callers can distinguish cancellation from failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// delay computes the exponential backoff for the given attempt (1-based
// for waits), applying the cap and jitter.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d = time.Duration(float64(d) - spread/2 + rand.Float64()*spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}
