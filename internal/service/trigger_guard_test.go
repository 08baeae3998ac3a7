package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storybook-server/internal/mocks"
	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

const testCooldown = 30 * time.Second

func newGuardFixture(t *testing.T) (*mocks.MockOrderRepository, *mocks.MockStorybookRepository, *mocks.MockTriggerRepository, *mocks.MockProgressTracker, service.TriggerGuard) {
	orderRepo := mocks.NewMockOrderRepository(t)
	storybookRepo := mocks.NewMockStorybookRepository(t)
	triggerRepo := mocks.NewMockTriggerRepository(t)
	tracker := mocks.NewMockProgressTracker(t)
	guard := service.NewTriggerGuard(orderRepo, storybookRepo, triggerRepo, tracker, testCooldown, zap.NewNop())
	return orderRepo, storybookRepo, triggerRepo, tracker, guard
}

func TestTriggerGuardTryStart(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()
	storybookID := uuid.New()
	paidOrder := &models.Order{ID: orderID, StorybookID: storybookID, Status: models.OrderStatusGenerating}

	t.Run("First caller wins the claim", func(t *testing.T) {
		orderRepo, storybookRepo, triggerRepo, tracker, guard := newGuardFixture(t)

		triggerRepo.On("AcquireCooldown", ctx, orderID, testCooldown).Return(true, nil).Once()
		orderRepo.On("ClaimForGeneration", ctx, orderID).Return(true, nil).Once()
		orderRepo.On("GetByID", ctx, orderID).Return(paidOrder, nil).Once()
		tracker.On("Reset", ctx, orderID).Return(nil).Once()
		storybookRepo.On("SetStatus", ctx, storybookID, models.StorybookStatusGenerating).Return(nil).Once()

		order, err := guard.TryStart(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
	})

	t.Run("Cooldown window rejects a rapid duplicate", func(t *testing.T) {
		orderRepo, _, triggerRepo, _, guard := newGuardFixture(t)

		triggerRepo.On("AcquireCooldown", ctx, orderID, testCooldown).Return(false, nil).Once()

		_, err := guard.TryStart(ctx, orderID)
		assert.ErrorIs(t, err, models.ErrGenerationAlreadyRunning)
		orderRepo.AssertNotCalled(t, "ClaimForGeneration", ctx, orderID)
	})

	t.Run("Lost claim against an active run", func(t *testing.T) {
		orderRepo, _, triggerRepo, _, guard := newGuardFixture(t)

		triggerRepo.On("AcquireCooldown", ctx, orderID, testCooldown).Return(true, nil).Once()
		orderRepo.On("ClaimForGeneration", ctx, orderID).Return(false, nil).Once()
		orderRepo.On("GetByID", ctx, orderID).Return(&models.Order{
			ID: orderID, Status: models.OrderStatusGenerating,
		}, nil).Once()

		_, err := guard.TryStart(ctx, orderID)
		assert.ErrorIs(t, err, models.ErrGenerationAlreadyRunning)
	})

	t.Run("Unpaid order cannot start", func(t *testing.T) {
		orderRepo, _, triggerRepo, _, guard := newGuardFixture(t)

		triggerRepo.On("AcquireCooldown", ctx, orderID, testCooldown).Return(true, nil).Once()
		orderRepo.On("ClaimForGeneration", ctx, orderID).Return(false, nil).Once()
		orderRepo.On("GetByID", ctx, orderID).Return(&models.Order{
			ID: orderID, Status: models.OrderStatusPending,
		}, nil).Once()

		_, err := guard.TryStart(ctx, orderID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrGenerationAlreadyRunning)
	})

	t.Run("Redis outage degrades to the database claim", func(t *testing.T) {
		orderRepo, storybookRepo, triggerRepo, tracker, guard := newGuardFixture(t)

		triggerRepo.On("AcquireCooldown", ctx, orderID, testCooldown).
			Return(false, errors.New("connection refused")).Once()
		orderRepo.On("ClaimForGeneration", ctx, orderID).Return(true, nil).Once()
		orderRepo.On("GetByID", ctx, orderID).Return(paidOrder, nil).Once()
		tracker.On("Reset", ctx, orderID).Return(nil).Once()
		storybookRepo.On("SetStatus", ctx, storybookID, models.StorybookStatusGenerating).Return(nil).Once()

		order, err := guard.TryStart(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
	})
}
