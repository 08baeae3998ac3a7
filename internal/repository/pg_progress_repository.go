package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

const (
	selectProgressQuery = `
        SELECT order_id, stage, stage_progress, overall_progress, message, data, updated_at
        FROM generation_progress WHERE order_id = $1
    `
	upsertProgressQuery = `
        INSERT INTO generation_progress (order_id, stage, stage_progress, overall_progress, message, data, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (order_id) DO UPDATE SET
            stage = EXCLUDED.stage,
            stage_progress = EXCLUDED.stage_progress,
            overall_progress = EXCLUDED.overall_progress,
            message = EXCLUDED.message,
            data = EXCLUDED.data,
            updated_at = NOW()
    `
)

type pgProgressRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgProgressRepository creates a PostgreSQL-backed ProgressRepository.
func NewPgProgressRepository(db *pgxpool.Pool, logger *zap.Logger) ProgressRepository {
	return &pgProgressRepository{db: db, logger: logger.Named("PgProgressRepo")}
}

var _ ProgressRepository = (*pgProgressRepository)(nil)

func (r *pgProgressRepository) Get(ctx context.Context, orderID uuid.UUID) (*models.GenerationProgress, error) {
	var p models.GenerationProgress
	err := r.db.QueryRow(ctx, selectProgressQuery, orderID).Scan(
		&p.OrderID, &p.Stage, &p.StageProgress, &p.OverallProgress,
		&p.Message, &p.Data, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to select generation progress for order %s: %w", orderID, err)
	}
	return &p, nil
}

func (r *pgProgressRepository) Upsert(ctx context.Context, progress *models.GenerationProgress) error {
	_, err := r.db.Exec(ctx, upsertProgressQuery,
		progress.OrderID, progress.Stage, progress.StageProgress,
		progress.OverallProgress, progress.Message, progress.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert generation progress for order %s: %w", progress.OrderID, err)
	}
	return nil
}
