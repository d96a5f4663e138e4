package stitcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/files"
	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/store"
)

// Sweeper periodically removes job records past their retention window,
// regardless of status, and deletes their stitched artifacts. Sweep failures
// are logged and never stop future recurrences.
type Sweeper struct {
	store    store.Store
	files    *files.Manager
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper with the given recurrence interval.
func NewSweeper(st store.Store, fm *files.Manager, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		store:    st,
		files:    fm,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Expiry sweeper started",
		slog.Duration("interval", s.interval),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce performs one sweep pass. Idempotent: a second call with no newly
// expired jobs removes nothing. Also invoked by the on-demand maintenance
// endpoint.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed, err := s.store.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("Sweep failed",
			slog.String("error", err.Error()),
		)
		return 0
	}

	for _, job := range removed {
		s.files.RemoveOutputs(job.JobID)
	}

	if len(removed) > 0 {
		s.logger.Info("Swept expired jobs",
			slog.Int("removed", len(removed)),
		)
	}
	return len(removed)
}
