package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybook-server/internal/models"
	"storybook-server/internal/repository"
)

// TriggerGuard is the idempotency gate in front of the orchestrator. At most
// one run per order may be active; page reloads, extra browser tabs and
// redundant realtime callbacks all funnel through here and lose quietly.
//
// Protocol, in order:
//  1. A short-lived cooldown marker in Redis absorbs rapid duplicate attempts
//     before they reach the database. Redis being down only disables this
//     first layer, it never blocks a legitimate start.
//  2. A conditional status update on the order row is the authoritative
//     check-and-set: exactly one concurrent caller moves it to generating.
//  3. The winner resets the progress record and flips the storybook to
//     generating so subsequent guard checks see the in-progress state.
type TriggerGuard interface {
	// TryStart returns the claimed order when this caller won the trigger.
	// Returns ErrGenerationAlreadyRunning when a run is already active or was
	// triggered within the cooldown window.
	TryStart(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type triggerGuard struct {
	orderRepo     repository.OrderRepository
	storybookRepo repository.StorybookRepository
	triggerRepo   repository.TriggerRepository
	tracker       ProgressTracker
	cooldown      time.Duration
	logger        *zap.Logger
}

// NewTriggerGuard creates a TriggerGuard.
func NewTriggerGuard(
	orderRepo repository.OrderRepository,
	storybookRepo repository.StorybookRepository,
	triggerRepo repository.TriggerRepository,
	tracker ProgressTracker,
	cooldown time.Duration,
	logger *zap.Logger,
) TriggerGuard {
	return &triggerGuard{
		orderRepo:     orderRepo,
		storybookRepo: storybookRepo,
		triggerRepo:   triggerRepo,
		tracker:       tracker,
		cooldown:      cooldown,
		logger:        logger.Named("TriggerGuard"),
	}
}

var _ TriggerGuard = (*triggerGuard)(nil)

func (g *triggerGuard) TryStart(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	log := g.logger.With(zap.Stringer("orderID", orderID))

	acquired, err := g.triggerRepo.AcquireCooldown(ctx, orderID, g.cooldown)
	if err != nil {
		// Degraded mode: the database check-and-set below still guarantees a
		// single active run.
		log.Warn("Cooldown check unavailable, relying on database claim", zap.Error(err))
	} else if !acquired {
		log.Info("Trigger rejected by cooldown window")
		return nil, models.ErrGenerationAlreadyRunning
	}

	claimed, err := g.orderRepo.ClaimForGeneration(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim order for generation: %w", err)
	}
	if !claimed {
		order, err := g.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.Status == models.OrderStatusGenerating {
			log.Info("Trigger rejected, run already active")
			return nil, models.ErrGenerationAlreadyRunning
		}
		return nil, fmt.Errorf("order %s is %s, generation requires a paid order", orderID, order.Status)
	}

	order, err := g.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := g.tracker.Reset(ctx, orderID); err != nil {
		return nil, err
	}
	if err := g.storybookRepo.SetStatus(ctx, order.StorybookID, models.StorybookStatusGenerating); err != nil {
		return nil, err
	}

	log.Info("Generation claimed", zap.Stringer("storybookID", order.StorybookID))
	return order, nil
}
