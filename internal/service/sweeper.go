package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storybook-server/internal/repository"
)

const staleRunMessage = "Generation timed out"

// StaleRunSweeper periodically fails orders stuck in generating. The
// orchestrator imposes no deadline of its own, so a hung upstream call would
// otherwise leave buyers polling a run that will never finish.
type StaleRunSweeper struct {
	orderRepo repository.OrderRepository
	threshold time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewStaleRunSweeper creates a StaleRunSweeper.
func NewStaleRunSweeper(orderRepo repository.OrderRepository, threshold, interval time.Duration, logger *zap.Logger) *StaleRunSweeper {
	return &StaleRunSweeper{
		orderRepo: orderRepo,
		threshold: threshold,
		interval:  interval,
		logger:    logger.Named("StaleRunSweeper"),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *StaleRunSweeper) Start(ctx context.Context) {
	s.logger.Info("Stale run sweeper started",
		zap.Duration("threshold", s.threshold),
		zap.Duration("interval", s.interval),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stale run sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StaleRunSweeper) sweep(ctx context.Context) {
	swept, err := s.orderRepo.MarkStaleGenerating(ctx, s.threshold, staleRunMessage)
	if err != nil {
		s.logger.Error("Stale run sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.logger.Warn("Swept stale generation runs", zap.Int64("count", swept))
	}
}
