package catalog

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToQuota(t *testing.T) {
	clock := time.Unix(1000, 0)
	slept := 0
	l := NewRateLimiter(3, 10*time.Second)
	l.now = func() time.Time { return clock }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		slept++
		clock = clock.Add(d)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	if slept != 0 {
		t.Errorf("expected no sleeps within quota, got %d", slept)
	}
}

func TestRateLimiterSleepsRemainingWindow(t *testing.T) {
	clock := time.Unix(1000, 0)
	var waits []time.Duration
	l := NewRateLimiter(2, 10*time.Second)
	l.now = func() time.Time { return clock }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		clock = clock.Add(d)
		return nil
	}

	l.Acquire(context.Background())
	clock = clock.Add(4 * time.Second)
	l.Acquire(context.Background())

	// Third acquire exceeds the quota: the caller must wait out the 6
	// seconds left in the window, then the window resets.
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(waits) != 1 || waits[0] != 6*time.Second {
		t.Fatalf("expected one 6s wait, got %v", waits)
	}

	// The fresh window has a full quota again.
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after reset: %v", err)
	}
	if len(waits) != 1 {
		t.Errorf("expected no additional waits, got %v", waits)
	}
}

func TestRateLimiterWindowResetAfterIdle(t *testing.T) {
	clock := time.Unix(1000, 0)
	l := NewRateLimiter(1, 10*time.Second)
	l.now = func() time.Time { return clock }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatalf("unexpected sleep of %v", d)
		return nil
	}

	l.Acquire(context.Background())
	clock = clock.Add(11 * time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after idle window: %v", err)
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	l := NewRateLimiter(1, time.Hour)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("expected context error from exhausted limiter")
	}
}
