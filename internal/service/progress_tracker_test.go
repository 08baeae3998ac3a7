package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"storybook-server/internal/mocks"
	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

func TestProgressTrackerAdvance(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("First write creates the record", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		publisher := mocks.NewMockProgressPublisher(t)
		tracker := service.NewProgressTracker(progressRepo, publisher, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(nil, models.ErrProgressNotFound).Once()
		progressRepo.On("Upsert", ctx, mock.MatchedBy(func(p *models.GenerationProgress) bool {
			return p.OrderID == orderID &&
				p.Stage == models.StageOutline &&
				p.StageProgress == 50 &&
				p.OverallProgress == models.OverallProgress(models.StageOutline, 50)
		})).Return(nil).Once()
		publisher.On("PublishProgress", ctx, mock.Anything).Return(nil).Once()

		err := tracker.Advance(ctx, orderID, models.StageOutline, 50, "Planning the story")
		assert.NoError(t, err)
		progressRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("Earlier stage is rejected", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		tracker := service.NewProgressTracker(progressRepo, nil, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(&models.GenerationProgress{
			OrderID:         orderID,
			Stage:           models.StageNarrative,
			OverallProgress: 30,
		}, nil).Once()

		err := tracker.Advance(ctx, orderID, models.StageOutline, 100, "going backwards")
		assert.ErrorIs(t, err, models.ErrProgressRegression)
		progressRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("Lower overall percentage is rejected", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		tracker := service.NewProgressTracker(progressRepo, nil, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(&models.GenerationProgress{
			OrderID:         orderID,
			Stage:           models.StageNarrative,
			StageProgress:   80,
			OverallProgress: models.OverallProgress(models.StageNarrative, 80),
		}, nil).Once()

		err := tracker.Advance(ctx, orderID, models.StageNarrative, 20, "regressing within stage")
		assert.ErrorIs(t, err, models.ErrProgressRegression)
	})

	t.Run("Terminal record is frozen", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		tracker := service.NewProgressTracker(progressRepo, nil, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(&models.GenerationProgress{
			OrderID:         orderID,
			Stage:           models.StageComplete,
			OverallProgress: 100,
		}, nil).Once()

		err := tracker.Advance(ctx, orderID, models.StageLayout, 100, "late write")
		assert.ErrorIs(t, err, models.ErrProgressTerminal)
	})

	t.Run("Broken publisher does not fail the write", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		publisher := mocks.NewMockProgressPublisher(t)
		tracker := service.NewProgressTracker(progressRepo, publisher, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(nil, models.ErrProgressNotFound).Once()
		progressRepo.On("Upsert", ctx, mock.Anything).Return(nil).Once()
		publisher.On("PublishProgress", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		err := tracker.Advance(ctx, orderID, models.StagePayment, 10, "Verifying payment")
		assert.NoError(t, err)
	})
}

func TestProgressTrackerFail(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Keeps the last overall percentage", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		tracker := service.NewProgressTracker(progressRepo, nil, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(&models.GenerationProgress{
			OrderID:         orderID,
			Stage:           models.StageIllustrations,
			StageProgress:   66,
			OverallProgress: 80,
		}, nil).Once()
		progressRepo.On("Upsert", ctx, mock.MatchedBy(func(p *models.GenerationProgress) bool {
			return p.Stage == models.StageFailed &&
				p.OverallProgress == 80 &&
				p.Message == "Generation failed, please try again"
		})).Return(nil).Once()

		err := tracker.Fail(ctx, orderID, "Generation failed, please try again")
		assert.NoError(t, err)
		progressRepo.AssertExpectations(t)
	})

	t.Run("Terminal record stays frozen", func(t *testing.T) {
		progressRepo := mocks.NewMockProgressRepository(t)
		tracker := service.NewProgressTracker(progressRepo, nil, zap.NewNop())

		progressRepo.On("Get", ctx, orderID).Return(&models.GenerationProgress{
			OrderID: orderID,
			Stage:   models.StageComplete,
		}, nil).Once()

		err := tracker.Fail(ctx, orderID, "too late")
		assert.ErrorIs(t, err, models.ErrProgressTerminal)
	})
}

func TestProgressTrackerReset(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	// Reset bypasses the monotonicity rules: a fresh trigger after a failed
	// run starts from a clean record.
	progressRepo := mocks.NewMockProgressRepository(t)
	tracker := service.NewProgressTracker(progressRepo, nil, zap.NewNop())

	progressRepo.On("Upsert", ctx, mock.MatchedBy(func(p *models.GenerationProgress) bool {
		return p.OrderID == orderID &&
			p.Stage == models.StagePayment &&
			p.StageProgress == 0 &&
			p.OverallProgress == 0
	})).Return(nil).Once()

	assert.NoError(t, tracker.Reset(ctx, orderID))
	progressRepo.AssertExpectations(t)
}
