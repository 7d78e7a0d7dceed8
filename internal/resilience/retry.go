package resilience

import (
	"context"
	"ev-charge-planner/internal/domain"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy retries transient upstream failures with exponential backoff and jitter.
//
// Only rate-limited and upstream-unavailable failures are retried; anything
// else is returned immediately.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxJitter time.Duration

	// sleep is replaceable in tests; nil means a timer honouring ctx.
	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:  4,
		BaseDelay: 400 * time.Millisecond,
		MaxJitter: 200 * time.Millisecond,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry aborted: %w", lastErr)
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !domain.KindOf(err).Retryable() || attempt == attempts-1 {
			return lastErr
		}

		if err := p.wait(ctx, p.backoff(attempt)); err != nil {
			return fmt.Errorf("retry aborted: %w", lastErr)
		}
	}

	return lastErr
}

func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if p.MaxJitter > 0 {
		d += rand.N(p.MaxJitter)
	}
	return d
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
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
