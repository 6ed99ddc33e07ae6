package verification

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = 10 * time.Minute

// Sweeper periodically expires overdue verifications.
type Sweeper struct {
	svc      Service
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper constructs a Sweeper.
func NewSweeper(svc Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{svc: svc, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("verification sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("verification sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("verification sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired verifications", "count", n)
	}
}
