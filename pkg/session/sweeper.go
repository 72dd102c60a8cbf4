package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically ends sessions that have been idle past a configured
// timeout.
type Sweeper struct {
	store       Store
	interval    time.Duration
	idleTimeout time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewSweeper builds a sweeper over any Store implementation.
func NewSweeper(store Store, interval, idleTimeout time.Duration) *Sweeper {
	return &Sweeper{
		store:       store,
		interval:    interval,
		idleTimeout: idleTimeout,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
	}
}

// Run starts the sweep loop. Blocks until Stop is called or ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "session sweeper started", "interval", s.interval, "idle_timeout", s.idleTimeout)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "session sweeper stopping")
			return
		case <-ticker.C:
			n, err := s.store.SweepExpired(time.Now(), s.idleTimeout)
			if err != nil {
				slog.ErrorContext(ctx, "session sweep error", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "swept idle sessions", "count", n)
			}
		}
	}
}

// Stop signals the sweeper to stop and waits for the loop to exit.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}
