package app

import (
	"context"
	"log"
	"time"
)

// ExpiredSweeper is the slice of the reservation engine the sweeper drives.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper periodically releases expired reservations. It is the sole recovery
// path for stock held by abandoned carts and payment timeouts, so it must stay
// running for the lifetime of the service.
type Sweeper struct {
	engine   ExpiredSweeper
	interval time.Duration
	logger   *log.Logger
}

const defaultSweepInterval = 30 * time.Second

func NewSweeper(engine ExpiredSweeper, interval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := s.engine.SweepExpired(ctx)
			if err != nil {
				s.logger.Printf("sweep: %v", err)
				continue
			}
			if released > 0 {
				s.logger.Printf("sweep: released %d expired reservations", released)
			}
		}
	}
}
