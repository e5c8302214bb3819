// Package sweeper runs the expiration sweep on a fixed interval so marker
// staleness is bounded by the interval rather than by read traffic. The feed
// read path still sweeps inline and filters by expiration, so the sweeper is
// an upper bound on staleness, not a correctness requirement.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wangkuke/MapConnect/internal/logging"
	"github.com/wangkuke/MapConnect/internal/marker"
)

// Sweeper periodically invokes the lifecycle manager's sweep.
type Sweeper struct {
	manager  *marker.Manager
	interval time.Duration
	log      zerolog.Logger
}

// New creates a sweeper. An interval <= 0 disables Run entirely.
func New(manager *marker.Manager, interval time.Duration) *Sweeper {
	return &Sweeper{
		manager:  manager,
		interval: interval,
		log:      logging.L().With().Str("component", "sweeper").Logger(),
	}
}

// Run blocks, sweeping every interval until ctx is cancelled. Sweep errors
// are logged and the loop continues; the next tick retries naturally.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("background sweep disabled")
		return
	}
	s.log.Info().Dur("interval", s.interval).Msg("background sweep started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("background sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.manager.Sweep(ctx); err != nil {
				s.log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
