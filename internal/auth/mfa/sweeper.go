package mfa

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired challenges from a Store.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// SweeperOption configures Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepInterval overrides the sweep interval when greater than zero.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSweepLogger overrides the logger used for sweep reporting.
func WithSweepLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSweeper constructs a Sweeper for the store with options applied.
func NewSweeper(store *Store, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start runs sweeps periodically until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if deleted := s.store.SweepExpired(time.Now()); deleted > 0 {
				s.logger.DebugContext(ctx, "swept expired mfa challenges", "deleted", deleted)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
