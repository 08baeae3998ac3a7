package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/models"
	"storybook-server/internal/utils"
)

const outlineSystemPrompt = `You are a children's book author planning a new storybook.
Given the characters, setting, theme and chapter count below, produce a book outline.
Respond with a single JSON object of the shape:
{"title": "...", "chapters": [{"number": 1, "title": "...", "summary": "...", "scene_description": "..."}]}
The chapters array must contain exactly the requested number of entries, numbered from 1.
Each scene_description is one visual moment of the chapter, written so an illustrator
can paint it without reading the chapter. Respond with JSON only.`

// OutlineChapter is one planned chapter of the book.
type OutlineChapter struct {
	Number           int    `json:"number"`
	Title            string `json:"title"`
	Summary          string `json:"summary"`
	SceneDescription string `json:"scene_description"`
}

// Outline is the validated plan the narrative stage executes.
type Outline struct {
	Title    string           `json:"title"`
	Chapters []OutlineChapter `json:"chapters"`
}

// OutlineGenerator turns a storybook's setup into a chapter plan. A buyer-pinned
// title always overrides whatever title the model suggests.
type OutlineGenerator interface {
	Generate(ctx context.Context, storybook *models.Storybook) (*Outline, error)
}

type outlineGenerator struct {
	aiClient clients.AIClient
	logger   *zap.Logger
}

// NewOutlineGenerator creates an OutlineGenerator backed by the text model.
func NewOutlineGenerator(aiClient clients.AIClient, logger *zap.Logger) OutlineGenerator {
	return &outlineGenerator{
		aiClient: aiClient,
		logger:   logger.Named("OutlineGenerator"),
	}
}

var _ OutlineGenerator = (*outlineGenerator)(nil)

func (g *outlineGenerator) Generate(ctx context.Context, storybook *models.Storybook) (*Outline, error) {
	userInput := buildOutlineInput(storybook)

	rawText, usage, err := g.aiClient.GenerateText(ctx, outlineSystemPrompt, userInput)
	if err != nil {
		return nil, fmt.Errorf("outline generation call failed: %w", err)
	}
	g.logger.Debug("Outline text received",
		zap.Stringer("storybookID", storybook.ID),
		zap.Int("totalTokens", usage.TotalTokens),
	)

	jsonPayload, err := utils.ExtractJSONObject(rawText)
	if err != nil {
		if errors.Is(err, utils.ErrNoJSONFound) {
			return nil, fmt.Errorf("%w: outline response carries no JSON object", models.ErrMalformedResponse)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}

	var outline Outline
	if err := json.Unmarshal([]byte(jsonPayload), &outline); err != nil {
		return nil, fmt.Errorf("%w: outline JSON does not parse: %v", models.ErrMalformedResponse, err)
	}
	if err := validateOutline(&outline, storybook.TargetChapters); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}

	if storybook.TitlePinned && storybook.Title != "" {
		outline.Title = storybook.Title
	}
	return &outline, nil
}

func buildOutlineInput(storybook *models.Storybook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Setting: %s\n", storybook.Setting)
	fmt.Fprintf(&b, "Theme: %s\n", storybook.Theme)
	fmt.Fprintf(&b, "Chapters: %d\n", storybook.TargetChapters)
	if storybook.TitlePinned && storybook.Title != "" {
		fmt.Fprintf(&b, "The buyer already chose the title %q; plan the chapters to fit it.\n", storybook.Title)
	}
	b.WriteString("Characters:\n")
	for i, character := range storybook.Characters {
		fmt.Fprintf(&b, "- Character %d, %s: %s\n", i+1, character.Name, character.VisualDescription)
	}
	return b.String()
}

// validateOutline enforces the structural contract: exactly targetChapters
// entries, numbered 1..N in order, each fully populated.
func validateOutline(outline *Outline, targetChapters int) error {
	err := validation.ValidateStruct(outline,
		validation.Field(&outline.Title, validation.Required),
		validation.Field(&outline.Chapters, validation.Required, validation.Length(targetChapters, targetChapters)),
	)
	if err != nil {
		return err
	}
	for i := range outline.Chapters {
		chapter := &outline.Chapters[i]
		if chapter.Number != i+1 {
			return fmt.Errorf("chapter at index %d carries number %d", i, chapter.Number)
		}
		err := validation.ValidateStruct(chapter,
			validation.Field(&chapter.Title, validation.Required),
			validation.Field(&chapter.Summary, validation.Required),
			validation.Field(&chapter.SceneDescription, validation.Required),
		)
		if err != nil {
			return fmt.Errorf("chapter %d: %v", chapter.Number, err)
		}
	}
	return nil
}
