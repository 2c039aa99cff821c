package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between outbound API calls.
// All providers share one instance so the spacing holds process-wide.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	next        time.Time
}

// NewRateLimiter creates a limiter spacing calls at least minInterval apart.
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{minInterval: minInterval}
}

// Wait reserves the next available slot and blocks until it arrives or ctx
// is cancelled. Reservation happens under the lock, so concurrent callers
// queue up rather than stampede when the slot opens.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	if r.next.Before(now) {
		r.next = now
	}
	wait := r.next.Sub(now)
	r.next = r.next.Add(r.minInterval)
	r.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
