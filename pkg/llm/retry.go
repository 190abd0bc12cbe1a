package llm

import (
	"context"
	"time"
)

// BackoffPolicy is capped exponential backoff. Attempts are unbounded: the
// transport never gives up on its own, only a success or context
// cancellation ends the wait.
type BackoffPolicy struct {
	Base    time.Duration // first delay
	Cap     time.Duration // ceiling for doubling
	OnRetry func(err error, attempt int, delay time.Duration)
}

// DefaultBackoff matches the transport defaults: start 5s, double, cap 30s.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{Base: 5 * time.Second, Cap: 30 * time.Second}
}

// Delay returns the delay for attempt n (1-indexed).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.Cap {
			return p.Cap
		}
	}
	if d > p.Cap {
		return p.Cap
	}
	return d
}

// Retry runs fn until it succeeds or ctx is cancelled.
func Retry[T any](ctx context.Context, policy BackoffPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		delay := policy.Delay(attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt, delay)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
