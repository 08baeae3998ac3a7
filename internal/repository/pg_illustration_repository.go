package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

const (
	insertIllustrationQuery = `
        INSERT INTO illustrations (id, chapter_id, image_url, prompt_used, seed_used, position, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	listIllustrationsQuery = `
        SELECT i.id, i.chapter_id, i.image_url, i.prompt_used, i.seed_used, i.position, i.created_at
        FROM illustrations i
        JOIN chapters c ON c.id = i.chapter_id
        WHERE c.storybook_id = $1
        ORDER BY c.chapter_number, i.position
    `
)

type pgIllustrationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgIllustrationRepository creates a PostgreSQL-backed IllustrationRepository.
func NewPgIllustrationRepository(db *pgxpool.Pool, logger *zap.Logger) IllustrationRepository {
	return &pgIllustrationRepository{db: db, logger: logger.Named("PgIllustrationRepo")}
}

var _ IllustrationRepository = (*pgIllustrationRepository)(nil)

func (r *pgIllustrationRepository) Create(ctx context.Context, illustration *models.Illustration) error {
	_, err := r.db.Exec(ctx, insertIllustrationQuery,
		illustration.ID, illustration.ChapterID, illustration.ImageURL,
		illustration.PromptUsed, illustration.SeedUsed, illustration.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert illustration for chapter %s: %w", illustration.ChapterID, err)
	}
	return nil
}

func (r *pgIllustrationRepository) ListByStorybook(ctx context.Context, storybookID uuid.UUID) ([]models.Illustration, error) {
	rows, err := r.db.Query(ctx, listIllustrationsQuery, storybookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list illustrations of storybook %s: %w", storybookID, err)
	}
	defer rows.Close()

	var illustrations []models.Illustration
	for rows.Next() {
		var i models.Illustration
		if err := rows.Scan(&i.ID, &i.ChapterID, &i.ImageURL, &i.PromptUsed, &i.SeedUsed, &i.Position, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan illustration row: %w", err)
		}
		illustrations = append(illustrations, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate illustration rows: %w", err)
	}
	return illustrations, nil
}
