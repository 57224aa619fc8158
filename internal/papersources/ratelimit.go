// Package papersources provides the shared transport and retrieval strategies
// for bibliographic services.
package papersources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval is the spacing that keeps a client under NCBI's
// published limit of 3 requests per second without an API key.
const DefaultMinInterval = 350 * time.Millisecond

// RateLimiter enforces a minimum interval between consecutive requests.
//
// A token bucket with a burst of one orders waiters. Because a bucket spaces
// reservations rather than the moments callers resume, each grant then passes
// a gate that holds the caller until minInterval has elapsed since the
// previous grant. The first request passes immediately. It is safe for
// concurrent use.
type RateLimiter struct {
	limiter     *rate.Limiter
	minInterval time.Duration

	// gate serializes grants; it holds the time of the last one.
	gate chan time.Time

	// onGrant, when set, observes every grant time. Tests only.
	onGrant func(time.Time)
}

// NewRateLimiter creates a limiter that spaces requests at least minInterval apart.
// A non-positive interval disables limiting.
//
// Example configurations:
//   - PubMed without API key: NewRateLimiter(350 * time.Millisecond)
//   - PubMed with API key: NewRateLimiter(100 * time.Millisecond)
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	gate := make(chan time.Time, 1)
	gate <- time.Time{}
	return &RateLimiter{
		limiter:     rate.NewLimiter(limit, 1),
		minInterval: minInterval,
		gate:        gate,
	}
}

// Wait blocks until a request is allowed or the context is canceled.
// It returns how long the caller was held back.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return time.Since(start), err
	}

	var last time.Time
	select {
	case last = <-r.gate:
	case <-ctx.Done():
		return time.Since(start), ctx.Err()
	}

	granted, err := r.holdUntil(ctx, last)
	if err != nil {
		r.gate <- last
		return time.Since(start), err
	}
	r.gate <- granted
	if r.onGrant != nil {
		r.onGrant(granted)
	}
	return time.Since(start), nil
}

// holdUntil sleeps until minInterval has passed since last and returns the
// grant time.
func (r *RateLimiter) holdUntil(ctx context.Context, last time.Time) (time.Time, error) {
	for {
		now := time.Now()
		if r.minInterval <= 0 || last.IsZero() {
			return now, nil
		}
		remaining := r.minInterval - now.Sub(last)
		if remaining <= 0 {
			return now, nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// MinInterval returns the configured spacing.
func (r *RateLimiter) MinInterval() time.Duration {
	return r.minInterval
}
