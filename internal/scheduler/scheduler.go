package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type reservationSweeper interface {
	ExpireStale(ctx context.Context) (int, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

// Scheduler periodically expires unpaid reservations and completes past ones.
type Scheduler struct {
	sweeper  reservationSweeper
	interval time.Duration
	logger   *slog.Logger
}

func New(sweeper reservationSweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	expired, err := s.sweeper.ExpireStale(ctx)
	if err != nil {
		s.logger.Error("failed to expire stale reservations", "error", err)
	} else if expired > 0 {
		s.logger.Debug("sweep expired reservations", "count", expired)
	}

	completed, err := s.sweeper.CompleteElapsed(ctx)
	if err != nil {
		s.logger.Error("failed to complete elapsed reservations", "error", err)
	} else if completed > 0 {
		s.logger.Debug("sweep completed reservations", "count", completed)
	}
}
