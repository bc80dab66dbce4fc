package catalog

import (
	"context"
	"sync"
	"time"
)

// RateLimiter throttles outbound catalog calls to max requests per fixed
// window. The window resets fully once it elapses (not sliding): when the
// quota is exhausted, Acquire sleeps for the remainder of the window and a
// fresh window begins.
type RateLimiter struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	windowStart time.Time
	count       int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter returns a limiter allowing max requests per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 40
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	return &RateLimiter{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Acquire blocks until a request slot is available or ctx is done. It never
// fails from quota pressure, only from context cancellation.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}
		if l.count < l.max {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.windowStart)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
