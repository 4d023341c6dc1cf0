package seats

import (
	"context"
	"time"

	"tripline/pkg/logger"
)

// SweeperStore is the slice of the seat store the sweeper needs.
type SweeperStore interface {
	ReclaimExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically reclaims lapsed holds. It is an availability
// optimization only: correctness never depends on it running, because every
// conditional write re-checks the expiry itself.
type Sweeper struct {
	store    SweeperStore
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

func NewSweeper(store SweeperStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	logger.GetDefault().Info("seat hold sweeper started", "interval", s.interval.String())
}

// Stop stops the sweep loop.
func (s *Sweeper) Stop() {
	close(s.done)
	logger.GetDefault().Info("seat hold sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick performs one sweep. Errors are logged and retried on the next tick
// rather than propagated; the loop must outlive transient store failures.
func (s *Sweeper) tick(ctx context.Context) {
	reclaimed, err := s.store.ReclaimExpired(ctx, s.now())
	logger.GetDefault().LogSweep(ctx, reclaimed, err)
}
