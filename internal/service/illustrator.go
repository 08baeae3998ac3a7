package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/config"
	"storybook-server/internal/models"
	"storybook-server/internal/repository"
	"storybook-server/internal/storage"
)

// IllustrationRequester renders and records illustrations. Every image is
// copied into permanent storage before its URL is persisted anywhere, because
// the provider URLs expire. The character references passed to the prompt
// builder are explicit {character, referenceImageURL} pairs in a stable order,
// and the "Character N" labels in the prompt text index into that same list.
type IllustrationRequester interface {
	IllustrateChapter(ctx context.Context, storybook *models.Storybook, chapter *models.Chapter) (*models.Illustration, error)
	GenerateCover(ctx context.Context, storybook *models.Storybook, title string) (string, error)
}

type illustrationRequester struct {
	imageClient      clients.ImageClient
	imageStore       storage.ImageStore
	illustrationRepo repository.IllustrationRepository
	aspectRatio      string
	outputFormat     string
	outputQuality    int
	styleSuffix      string
	logger           *zap.Logger
}

// NewIllustrationRequester creates an IllustrationRequester.
func NewIllustrationRequester(
	imageClient clients.ImageClient,
	imageStore storage.ImageStore,
	illustrationRepo repository.IllustrationRepository,
	cfg *config.Config,
	logger *zap.Logger,
) IllustrationRequester {
	return &illustrationRequester{
		imageClient:      imageClient,
		imageStore:       imageStore,
		illustrationRepo: illustrationRepo,
		aspectRatio:      cfg.ImageAspectRatio,
		outputFormat:     cfg.ImageOutputFormat,
		outputQuality:    cfg.ImageOutputQuality,
		styleSuffix:      cfg.ImagePromptStyleSuffix,
		logger:           logger.Named("IllustrationRequester"),
	}
}

var _ IllustrationRequester = (*illustrationRequester)(nil)

func (r *illustrationRequester) IllustrateChapter(ctx context.Context, storybook *models.Storybook, chapter *models.Chapter) (*models.Illustration, error) {
	references := CharacterReferences(storybook)
	prompt := r.buildPrompt(chapter.SceneDescription, storybook.ArtStyle, references)

	ephemeralURL, err := r.imageClient.Generate(ctx, clients.ImageRequest{
		Prompt:        prompt,
		Seed:          storybook.IllustrationSeed,
		AspectRatio:   r.aspectRatio,
		OutputFormat:  r.outputFormat,
		OutputQuality: r.outputQuality,
	})
	if err != nil {
		return nil, fmt.Errorf("illustration of chapter %d failed: %w", chapter.ChapterNumber, err)
	}

	objectName := fmt.Sprintf("storybooks/%s/chapter_%02d.%s", storybook.ID, chapter.ChapterNumber, r.outputFormat)
	permanentURL, err := r.imageStore.Persist(ctx, ephemeralURL, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to persist illustration of chapter %d: %w", chapter.ChapterNumber, err)
	}

	illustration := &models.Illustration{
		ID:         uuid.New(),
		ChapterID:  chapter.ID,
		ImageURL:   permanentURL,
		PromptUsed: prompt,
		SeedUsed:   storybook.IllustrationSeed,
		Position:   1,
	}
	if err := r.illustrationRepo.Create(ctx, illustration); err != nil {
		return nil, fmt.Errorf("failed to record illustration of chapter %d: %w", chapter.ChapterNumber, err)
	}

	r.logger.Info("Chapter illustrated",
		zap.Stringer("storybookID", storybook.ID),
		zap.Int("chapter", chapter.ChapterNumber),
	)
	return illustration, nil
}

func (r *illustrationRequester) GenerateCover(ctx context.Context, storybook *models.Storybook, title string) (string, error) {
	references := CharacterReferences(storybook)
	scene := fmt.Sprintf("Book cover for %q: all characters together in %s", title, storybook.Setting)
	prompt := r.buildPrompt(scene, storybook.ArtStyle, references)

	ephemeralURL, err := r.imageClient.Generate(ctx, clients.ImageRequest{
		Prompt:        prompt,
		Seed:          storybook.IllustrationSeed,
		AspectRatio:   r.aspectRatio,
		OutputFormat:  r.outputFormat,
		OutputQuality: r.outputQuality,
	})
	if err != nil {
		return "", fmt.Errorf("cover generation failed: %w", err)
	}

	objectName := fmt.Sprintf("storybooks/%s/cover.%s", storybook.ID, r.outputFormat)
	permanentURL, err := r.imageStore.Persist(ctx, ephemeralURL, objectName)
	if err != nil {
		return "", fmt.Errorf("failed to persist cover: %w", err)
	}
	r.logger.Info("Cover generated", zap.Stringer("storybookID", storybook.ID))
	return permanentURL, nil
}

// CharacterReferences builds the ordered reference list of a storybook. Index
// i of the result is "Character i+1" in any prompt built from it.
func CharacterReferences(storybook *models.Storybook) []models.CharacterReference {
	references := make([]models.CharacterReference, 0, len(storybook.Characters))
	for _, character := range storybook.Characters {
		references = append(references, models.CharacterReference{
			CharacterID:       character.ID,
			Name:              character.Name,
			VisualDescription: character.VisualDescription,
			ReferenceImageURL: character.ReferenceImageURL,
		})
	}
	return references
}

func (r *illustrationRequester) buildPrompt(scene, artStyle string, references []models.CharacterReference) string {
	var b strings.Builder
	b.WriteString(scene)
	if len(references) > 0 {
		b.WriteString(". Featuring: ")
		parts := make([]string, 0, len(references))
		for i, reference := range references {
			parts = append(parts, fmt.Sprintf("Character %d (%s): %s", i+1, reference.Name, reference.VisualDescription))
		}
		b.WriteString(strings.Join(parts, "; "))
	}
	if artStyle != "" {
		b.WriteString(". Art style: ")
		b.WriteString(artStyle)
	}
	b.WriteString(r.styleSuffix)
	return b.String()
}
