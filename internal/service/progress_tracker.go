package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybook-server/internal/messaging"
	"storybook-server/internal/models"
	"storybook-server/internal/repository"
)

// ProgressTracker owns the persisted progress record of a run. Writes are
// strictly forward: a write ordered earlier than the stored snapshot is
// rejected as an orchestrator bug, and nothing mutates a record after it
// reached complete or failed. Reset is the single exception, used by the
// trigger guard when a fresh run starts.
type ProgressTracker interface {
	Reset(ctx context.Context, orderID uuid.UUID) error
	Advance(ctx context.Context, orderID uuid.UUID, stage models.Stage, stageProgress int, message string) error
	Complete(ctx context.Context, orderID uuid.UUID, message string) error
	Fail(ctx context.Context, orderID uuid.UUID, message string) error
	Get(ctx context.Context, orderID uuid.UUID) (*models.GenerationProgress, error)
}

type progressTracker struct {
	progressRepo repository.ProgressRepository
	publisher    messaging.ProgressPublisher
	logger       *zap.Logger
}

// NewProgressTracker creates a ProgressTracker. The publisher may be nil when
// realtime updates are disabled.
func NewProgressTracker(
	progressRepo repository.ProgressRepository,
	publisher messaging.ProgressPublisher,
	logger *zap.Logger,
) ProgressTracker {
	return &progressTracker{
		progressRepo: progressRepo,
		publisher:    publisher,
		logger:       logger.Named("ProgressTracker"),
	}
}

var _ ProgressTracker = (*progressTracker)(nil)

func (t *progressTracker) Reset(ctx context.Context, orderID uuid.UUID) error {
	record := &models.GenerationProgress{
		OrderID:         orderID,
		Stage:           models.StagePayment,
		StageProgress:   0,
		OverallProgress: 0,
		Message:         "Generation started",
	}
	if err := t.progressRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	t.publish(ctx, record)
	return nil
}

func (t *progressTracker) Advance(ctx context.Context, orderID uuid.UUID, stage models.Stage, stageProgress int, message string) error {
	return t.write(ctx, orderID, stage, stageProgress, message)
}

func (t *progressTracker) Complete(ctx context.Context, orderID uuid.UUID, message string) error {
	return t.write(ctx, orderID, models.StageComplete, 100, message)
}

// Fail freezes the record at the failed stage. The overall percentage keeps
// its last value so polling clients do not see the bar jump backwards.
func (t *progressTracker) Fail(ctx context.Context, orderID uuid.UUID, message string) error {
	current, err := t.progressRepo.Get(ctx, orderID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to load progress before failing: %w", err)
	}
	record := &models.GenerationProgress{
		OrderID: orderID,
		Stage:   models.StageFailed,
		Message: message,
	}
	if current != nil {
		if current.Stage.IsTerminal() {
			return models.ErrProgressTerminal
		}
		record.StageProgress = current.StageProgress
		record.OverallProgress = current.OverallProgress
	}
	if err := t.progressRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to persist failed progress: %w", err)
	}
	t.logger.Warn("Run failed",
		zap.Stringer("orderID", orderID),
		zap.String("message", message),
	)
	t.publish(ctx, record)
	return nil
}

func (t *progressTracker) Get(ctx context.Context, orderID uuid.UUID) (*models.GenerationProgress, error) {
	return t.progressRepo.Get(ctx, orderID)
}

func (t *progressTracker) write(ctx context.Context, orderID uuid.UUID, stage models.Stage, stageProgress int, message string) error {
	overall := models.OverallProgress(stage, stageProgress)

	current, err := t.progressRepo.Get(ctx, orderID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to load progress before advancing: %w", err)
	}
	if current != nil {
		if current.Stage.IsTerminal() {
			return models.ErrProgressTerminal
		}
		if stage.Rank() < current.Stage.Rank() || overall < current.OverallProgress {
			t.logger.Error("Rejected out-of-order progress write",
				zap.Stringer("orderID", orderID),
				zap.String("storedStage", string(current.Stage)),
				zap.String("stage", string(stage)),
				zap.Int("storedOverall", current.OverallProgress),
				zap.Int("overall", overall),
			)
			return models.ErrProgressRegression
		}
	}

	record := &models.GenerationProgress{
		OrderID:         orderID,
		Stage:           stage,
		StageProgress:   stageProgress,
		OverallProgress: overall,
		Message:         message,
	}
	if err := t.progressRepo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to persist progress: %w", err)
	}
	t.publish(ctx, record)
	return nil
}

// publish is best-effort: a broken broker must not fail the run.
func (t *progressTracker) publish(ctx context.Context, record *models.GenerationProgress) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishProgress(ctx, record); err != nil {
		t.logger.Warn("Failed to publish progress update",
			zap.Stringer("orderID", record.OrderID),
			zap.Error(err),
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrProgressNotFound)
}
