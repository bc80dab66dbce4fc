package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"reelpick/models"
)

const defaultInterval = 4 * time.Minute

// SeedSource provides the curated shelf the refresher keeps warm. The
// refresher needs the cache-bypassing variant: reading the cached entry
// would not extend its lifetime.
type SeedSource interface {
	RefreshCuratedSeedSet(ctx context.Context) []models.Movie
}

// Service re-runs the curated seed query on an interval so the response
// cache never goes cold between requests.
type Service struct {
	source   SeedSource
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(source SeedSource, interval time.Duration) *Service {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{source: source, interval: interval}
}

// Start begins the background refresh loop.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.loop(ctx)

	log.Println("[refresh] seed refresher started")
}

// Stop halts the loop and waits for an in-flight refresh to finish.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[refresh] seed refresher stopped")
	case <-ctx.Done():
		log.Println("[refresh] seed refresher stopped (timeout)")
	}
	s.running = false
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Warm the cache immediately on start.
	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Service) refresh(ctx context.Context) {
	movies := s.source.RefreshCuratedSeedSet(ctx)
	log.Printf("[refresh] curated seed set refreshed, %d movies", len(movies))
}
