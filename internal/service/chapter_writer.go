package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/models"
	"storybook-server/internal/utils"
)

const chapterSystemPrompt = `You are a children's book author writing one chapter of a storybook.
Write warm, age-appropriate prose that follows the outline summary and stays
consistent with the chapters written so far. Respond with a single JSON object:
{"title": "...", "content": "...", "scene_description": "..."}
The scene_description is the finalized visual moment of this chapter for the
illustrator; refine the outline's suggestion using what actually happens in
your prose. Respond with JSON only.`

type chapterPayload struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	SceneDescription string `json:"scene_description"`
}

// ChapterWriter writes the prose of a single chapter. Chapters are written
// strictly in outline order; each call receives the summaries of the chapters
// already written so the model can keep narrative continuity.
type ChapterWriter interface {
	WriteChapter(ctx context.Context, storybook *models.Storybook, outline *Outline, chapterNumber int, previous []models.Chapter) (*models.Chapter, error)
}

type chapterWriter struct {
	aiClient clients.AIClient
	logger   *zap.Logger
}

// NewChapterWriter creates a ChapterWriter backed by the text model.
func NewChapterWriter(aiClient clients.AIClient, logger *zap.Logger) ChapterWriter {
	return &chapterWriter{
		aiClient: aiClient,
		logger:   logger.Named("ChapterWriter"),
	}
}

var _ ChapterWriter = (*chapterWriter)(nil)

func (w *chapterWriter) WriteChapter(ctx context.Context, storybook *models.Storybook, outline *Outline, chapterNumber int, previous []models.Chapter) (*models.Chapter, error) {
	if chapterNumber < 1 || chapterNumber > len(outline.Chapters) {
		return nil, fmt.Errorf("chapter number %d outside outline of %d chapters", chapterNumber, len(outline.Chapters))
	}
	planned := outline.Chapters[chapterNumber-1]

	userInput := buildChapterInput(storybook, outline, planned, previous)
	rawText, usage, err := w.aiClient.GenerateText(ctx, chapterSystemPrompt, userInput)
	if err != nil {
		return nil, fmt.Errorf("chapter %d generation call failed: %w", chapterNumber, err)
	}
	w.logger.Debug("Chapter text received",
		zap.Stringer("storybookID", storybook.ID),
		zap.Int("chapter", chapterNumber),
		zap.Int("totalTokens", usage.TotalTokens),
	)

	jsonPayload, err := utils.ExtractJSONObject(rawText)
	if err != nil {
		if errors.Is(err, utils.ErrNoJSONFound) {
			return nil, fmt.Errorf("%w: chapter %d response carries no JSON object", models.ErrMalformedResponse, chapterNumber)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}

	var payload chapterPayload
	if err := json.Unmarshal([]byte(jsonPayload), &payload); err != nil {
		return nil, fmt.Errorf("%w: chapter %d JSON does not parse: %v", models.ErrMalformedResponse, chapterNumber, err)
	}
	err = validation.ValidateStruct(&payload,
		validation.Field(&payload.Title, validation.Required),
		validation.Field(&payload.Content, validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: chapter %d: %v", models.ErrMalformedResponse, chapterNumber, err)
	}
	if payload.SceneDescription == "" {
		payload.SceneDescription = planned.SceneDescription
	}

	return &models.Chapter{
		ID:               uuid.New(),
		StorybookID:      storybook.ID,
		ChapterNumber:    chapterNumber,
		Title:            payload.Title,
		Content:          payload.Content,
		SceneDescription: payload.SceneDescription,
	}, nil
}

func buildChapterInput(storybook *models.Storybook, outline *Outline, planned OutlineChapter, previous []models.Chapter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Book: %s\n", outline.Title)
	fmt.Fprintf(&b, "Setting: %s\n", storybook.Setting)
	fmt.Fprintf(&b, "Theme: %s\n", storybook.Theme)
	b.WriteString("Characters:\n")
	for i, character := range storybook.Characters {
		fmt.Fprintf(&b, "- Character %d, %s: %s\n", i+1, character.Name, character.VisualDescription)
	}
	if len(previous) > 0 {
		b.WriteString("Chapters so far:\n")
		for _, chapter := range previous {
			fmt.Fprintf(&b, "%d. %s: %s\n", chapter.ChapterNumber, chapter.Title, summarize(chapter.Content))
		}
	}
	fmt.Fprintf(&b, "Now write chapter %d of %d.\n", planned.Number, len(outline.Chapters))
	fmt.Fprintf(&b, "Planned title: %s\n", planned.Title)
	fmt.Fprintf(&b, "Planned summary: %s\n", planned.Summary)
	fmt.Fprintf(&b, "Planned scene: %s\n", planned.SceneDescription)
	return b.String()
}

// summarize truncates chapter prose for the continuity context window.
func summarize(content string) string {
	const limit = 400
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}
