package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

const (
	insertOrderQuery = `
        INSERT INTO orders (id, storybook_id, user_id, status, total_amount, payment_status, payment_session_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
    `
	selectOrderQuery = `
        SELECT id, storybook_id, user_id, status, total_amount, payment_status, payment_session_id,
               error_details, paid_at, shipped_at, delivered_at, created_at, updated_at
        FROM orders WHERE id = $1
    `
	markOrderPaidQuery = `
        UPDATE orders
        SET status = 'paid', payment_session_id = $2, payment_status = $3, paid_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `
	// Failed orders stay claimable so a fresh trigger can restart the run.
	claimOrderForGenerationQuery = `
        UPDATE orders
        SET status = 'generating', error_details = NULL, updated_at = NOW()
        WHERE id = $1 AND status IN ('paid', 'failed')
    `
	setOrderStatusQuery = `
        UPDATE orders SET status = $2, error_details = $3, updated_at = NOW() WHERE id = $1
    `
	markStaleGeneratingQuery = `
        UPDATE orders
        SET status = 'failed', error_details = $1, updated_at = NOW()
        WHERE status = 'generating' AND updated_at < $2
    `
)

type pgOrderRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgOrderRepository creates a PostgreSQL-backed OrderRepository.
func NewPgOrderRepository(db *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &pgOrderRepository{db: db, logger: logger.Named("PgOrderRepo")}
}

var _ OrderRepository = (*pgOrderRepository)(nil)

func (r *pgOrderRepository) Create(ctx context.Context, order *models.Order) error {
	_, err := r.db.Exec(ctx, insertOrderQuery,
		order.ID, order.StorybookID, order.UserID, order.Status,
		order.TotalAmount, order.PaymentStatus, order.PaymentSessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}
	r.logger.Debug("Order created", zap.Stringer("orderID", order.ID))
	return nil
}

func (r *pgOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.db.QueryRow(ctx, selectOrderQuery, id).Scan(
		&o.ID, &o.StorybookID, &o.UserID, &o.Status, &o.TotalAmount,
		&o.PaymentStatus, &o.PaymentSessionID, &o.ErrorDetails,
		&o.PaidAt, &o.ShippedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to select order %s: %w", id, err)
	}
	return &o, nil
}

func (r *pgOrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, sessionID, paymentStatus string) (bool, error) {
	tag, err := r.db.Exec(ctx, markOrderPaidQuery, id, sessionID, paymentStatus)
	if err != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgOrderRepository) ClaimForGeneration(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, claimOrderForGenerationQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim order %s for generation: %w", id, err)
	}
	claimed := tag.RowsAffected() == 1
	r.logger.Debug("Generation claim attempted",
		zap.Stringer("orderID", id),
		zap.Bool("claimed", claimed),
	)
	return claimed, nil
}

func (r *pgOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, errorDetails *string) error {
	tag, err := r.db.Exec(ctx, setOrderStatusQuery, id, status, errorDetails)
	if err != nil {
		return fmt.Errorf("failed to set order %s status to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}

func (r *pgOrderRepository) MarkStaleGenerating(ctx context.Context, olderThan time.Duration, message string) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := r.db.Exec(ctx, markStaleGeneratingQuery, message, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale generating orders: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.logger.Warn("Marked stale generating orders as failed",
			zap.Int64("count", n),
			zap.Time("cutoff", cutoff),
		)
		return n, nil
	}
	return 0, nil
}
