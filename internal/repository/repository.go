package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storybook-server/internal/models"
)

// OrderRepository persists orders. Status moves are expressed as conditional
// updates so concurrent writers cannot both win a transition.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// MarkPaid performs the pending->paid transition, stamping paid_at and the
	// checkout session reference. Returns false when the order was not pending.
	MarkPaid(ctx context.Context, id uuid.UUID, sessionID, paymentStatus string) (bool, error)
	// ClaimForGeneration performs the atomic paid/failed->generating
	// check-and-set the trigger guard relies on. Exactly one concurrent
	// caller observes true.
	ClaimForGeneration(ctx context.Context, id uuid.UUID) (bool, error)
	// SetStatus moves the order to the given status; errorDetails is stored
	// when non-nil and cleared otherwise.
	SetStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, errorDetails *string) error
	// MarkStaleGenerating flips orders stuck in generating for longer than
	// olderThan to failed and returns how many were swept.
	MarkStaleGenerating(ctx context.Context, olderThan time.Duration, message string) (int64, error)
}

// StorybookRepository persists the book artifact.
type StorybookRepository interface {
	Create(ctx context.Context, storybook *models.Storybook) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Storybook, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.StorybookStatus) error
	SetTitle(ctx context.Context, id uuid.UUID, title string) error
	SetCoverURL(ctx context.Context, id uuid.UUID, coverURL string) error
	// FinalizeContent writes the assembled page sequence and moves the
	// storybook to complete in one statement.
	FinalizeContent(ctx context.Context, id uuid.UUID, content *models.BookContent) error
}

// ChapterRepository persists chapters. Rows are immutable once created;
// DeleteByStorybook exists only so a fresh run can discard the partial rows a
// failed run left behind.
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	ListByStorybook(ctx context.Context, storybookID uuid.UUID) ([]models.Chapter, error)
	DeleteByStorybook(ctx context.Context, storybookID uuid.UUID) (int64, error)
}

// IllustrationRepository persists generated illustrations.
type IllustrationRepository interface {
	Create(ctx context.Context, illustration *models.Illustration) error
	ListByStorybook(ctx context.Context, storybookID uuid.UUID) ([]models.Illustration, error)
}

// ProgressRepository persists the polled generation-progress record. The
// monotonicity rules live in the progress tracker; the repository is a plain
// keyed store.
type ProgressRepository interface {
	Get(ctx context.Context, orderID uuid.UUID) (*models.GenerationProgress, error)
	Upsert(ctx context.Context, progress *models.GenerationProgress) error
}

// TriggerRepository holds the short-lived trigger-attempt markers backing the
// guard's cooldown window.
type TriggerRepository interface {
	// AcquireCooldown atomically records a trigger attempt for the order.
	// Returns false when an attempt already happened within the window.
	AcquireCooldown(ctx context.Context, orderID uuid.UUID, window time.Duration) (bool, error)
}
