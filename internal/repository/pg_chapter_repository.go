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
	insertChapterQuery = `
        INSERT INTO chapters (id, storybook_id, chapter_number, title, content, scene_description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	listChaptersQuery = `
        SELECT id, storybook_id, chapter_number, title, content, scene_description, created_at
        FROM chapters WHERE storybook_id = $1 ORDER BY chapter_number
    `
	deleteChaptersQuery = `DELETE FROM chapters WHERE storybook_id = $1`
)

type pgChapterRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgChapterRepository creates a PostgreSQL-backed ChapterRepository.
func NewPgChapterRepository(db *pgxpool.Pool, logger *zap.Logger) ChapterRepository {
	return &pgChapterRepository{db: db, logger: logger.Named("PgChapterRepo")}
}

var _ ChapterRepository = (*pgChapterRepository)(nil)

func (r *pgChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	_, err := r.db.Exec(ctx, insertChapterQuery,
		chapter.ID, chapter.StorybookID, chapter.ChapterNumber,
		chapter.Title, chapter.Content, chapter.SceneDescription,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chapter %d of storybook %s: %w",
			chapter.ChapterNumber, chapter.StorybookID, err)
	}
	return nil
}

func (r *pgChapterRepository) ListByStorybook(ctx context.Context, storybookID uuid.UUID) ([]models.Chapter, error) {
	rows, err := r.db.Query(ctx, listChaptersQuery, storybookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters of storybook %s: %w", storybookID, err)
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var c models.Chapter
		if err := rows.Scan(&c.ID, &c.StorybookID, &c.ChapterNumber, &c.Title, &c.Content, &c.SceneDescription, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chapter rows: %w", err)
	}
	return chapters, nil
}

func (r *pgChapterRepository) DeleteByStorybook(ctx context.Context, storybookID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteChaptersQuery, storybookID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chapters of storybook %s: %w", storybookID, err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.logger.Info("Discarded partial chapters from a previous run",
			zap.Stringer("storybookID", storybookID),
			zap.Int64("count", n),
		)
		return n, nil
	}
	return 0, nil
}
