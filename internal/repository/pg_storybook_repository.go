package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

const (
	insertStorybookQuery = `
        INSERT INTO storybooks (id, title, title_pinned, target_chapters, setting, theme, art_style,
                                dedication, characters, illustration_seed, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
    `
	selectStorybookQuery = `
        SELECT id, title, title_pinned, target_chapters, setting, theme, art_style, dedication,
               characters, illustration_seed, status, content, cover_url, created_at, updated_at
        FROM storybooks WHERE id = $1
    `
	setStorybookStatusQuery = `UPDATE storybooks SET status = $2, updated_at = NOW() WHERE id = $1`
	setStorybookTitleQuery  = `UPDATE storybooks SET title = $2, updated_at = NOW() WHERE id = $1`
	setStorybookCoverQuery  = `UPDATE storybooks SET cover_url = $2, updated_at = NOW() WHERE id = $1`
	finalizeStorybookQuery  = `
        UPDATE storybooks SET content = $2, status = 'complete', updated_at = NOW() WHERE id = $1
    `
)

type pgStorybookRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPgStorybookRepository creates a PostgreSQL-backed StorybookRepository.
func NewPgStorybookRepository(db *pgxpool.Pool, logger *zap.Logger) StorybookRepository {
	return &pgStorybookRepository{db: db, logger: logger.Named("PgStorybookRepo")}
}

var _ StorybookRepository = (*pgStorybookRepository)(nil)

func (r *pgStorybookRepository) Create(ctx context.Context, storybook *models.Storybook) error {
	charactersJSON, err := json.Marshal(storybook.Characters)
	if err != nil {
		return fmt.Errorf("failed to marshal characters for storybook %s: %w", storybook.ID, err)
	}
	_, err = r.db.Exec(ctx, insertStorybookQuery,
		storybook.ID, storybook.Title, storybook.TitlePinned, storybook.TargetChapters,
		storybook.Setting, storybook.Theme, storybook.ArtStyle, storybook.Dedication,
		charactersJSON, storybook.IllustrationSeed, storybook.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert storybook %s: %w", storybook.ID, err)
	}
	r.logger.Debug("Storybook created", zap.Stringer("storybookID", storybook.ID))
	return nil
}

func (r *pgStorybookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Storybook, error) {
	var (
		s              models.Storybook
		charactersJSON []byte
		contentJSON    []byte
	)
	err := r.db.QueryRow(ctx, selectStorybookQuery, id).Scan(
		&s.ID, &s.Title, &s.TitlePinned, &s.TargetChapters, &s.Setting, &s.Theme,
		&s.ArtStyle, &s.Dedication, &charactersJSON, &s.IllustrationSeed,
		&s.Status, &contentJSON, &s.CoverURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStorybookNotFound
		}
		return nil, fmt.Errorf("failed to select storybook %s: %w", id, err)
	}
	if len(charactersJSON) > 0 {
		if err := json.Unmarshal(charactersJSON, &s.Characters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal characters for storybook %s: %w", id, err)
		}
	}
	if len(contentJSON) > 0 {
		var content models.BookContent
		if err := json.Unmarshal(contentJSON, &content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content for storybook %s: %w", id, err)
		}
		s.Content = &content
	}
	return &s, nil
}

func (r *pgStorybookRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.StorybookStatus) error {
	tag, err := r.db.Exec(ctx, setStorybookStatusQuery, id, status)
	if err != nil {
		return fmt.Errorf("failed to set storybook %s status to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStorybookNotFound
	}
	return nil
}

func (r *pgStorybookRepository) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	tag, err := r.db.Exec(ctx, setStorybookTitleQuery, id, title)
	if err != nil {
		return fmt.Errorf("failed to set storybook %s title: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStorybookNotFound
	}
	return nil
}

func (r *pgStorybookRepository) SetCoverURL(ctx context.Context, id uuid.UUID, coverURL string) error {
	tag, err := r.db.Exec(ctx, setStorybookCoverQuery, id, coverURL)
	if err != nil {
		return fmt.Errorf("failed to set storybook %s cover URL: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStorybookNotFound
	}
	return nil
}

func (r *pgStorybookRepository) FinalizeContent(ctx context.Context, id uuid.UUID, content *models.BookContent) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content for storybook %s: %w", id, err)
	}
	tag, err := r.db.Exec(ctx, finalizeStorybookQuery, id, contentJSON)
	if err != nil {
		return fmt.Errorf("failed to finalize storybook %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStorybookNotFound
	}
	r.logger.Info("Storybook content finalized",
		zap.Stringer("storybookID", id),
		zap.Int("pages", len(content.Pages)),
	)
	return nil
}
