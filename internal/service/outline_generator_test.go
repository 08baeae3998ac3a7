package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/mocks"
	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

const validOutlineJSON = `{
  "title": "The Lost Star",
  "chapters": [
    {"number": 1, "title": "A Wish", "summary": "Mila wishes on a star", "scene_description": "Mila at her window under a night sky"},
    {"number": 2, "title": "The Fall", "summary": "The star falls into the forest", "scene_description": "A glowing crater between pines"},
    {"number": 3, "title": "Home Again", "summary": "Mila carries the star home", "scene_description": "Mila walking at dawn, star in her hands"}
  ]
}`

func outlineTestStorybook() *models.Storybook {
	return &models.Storybook{
		ID:             mustUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		TargetChapters: 3,
		Setting:        "a quiet village by a pine forest",
		Theme:          "courage",
		Characters: []models.Character{
			{Name: "Mila", VisualDescription: "a girl with curly red hair and a yellow raincoat"},
		},
	}
}

func TestOutlineGeneratorGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("Parses a fenced JSON outline", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		generator := service.NewOutlineGenerator(aiClient, zap.NewNop())

		raw := "Here you go!\n```json\n" + validOutlineJSON + "\n```"
		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return(raw, clients.UsageInfo{TotalTokens: 420}, nil).Once()

		outline, err := generator.Generate(ctx, outlineTestStorybook())
		require.NoError(t, err)
		assert.Equal(t, "The Lost Star", outline.Title)
		require.Len(t, outline.Chapters, 3)
		assert.Equal(t, 2, outline.Chapters[1].Number)
		assert.Equal(t, "A glowing crater between pines", outline.Chapters[1].SceneDescription)
	})

	t.Run("Pinned title overrides the model suggestion", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		generator := service.NewOutlineGenerator(aiClient, zap.NewNop())

		storybook := outlineTestStorybook()
		storybook.Title = "Mila and the Night Sky"
		storybook.TitlePinned = true

		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return(validOutlineJSON, clients.UsageInfo{}, nil).Once()

		outline, err := generator.Generate(ctx, storybook)
		require.NoError(t, err)
		assert.Equal(t, "Mila and the Night Sky", outline.Title)
	})

	t.Run("Plain prose with no JSON is malformed", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		generator := service.NewOutlineGenerator(aiClient, zap.NewNop())

		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return("Once upon a time, there was a star...", clients.UsageInfo{}, nil).Once()

		_, err := generator.Generate(ctx, outlineTestStorybook())
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
	})

	t.Run("Wrong chapter count is malformed", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		generator := service.NewOutlineGenerator(aiClient, zap.NewNop())

		short := `{"title": "The Lost Star", "chapters": [
			{"number": 1, "title": "A Wish", "summary": "s", "scene_description": "d"}
		]}`
		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return(short, clients.UsageInfo{}, nil).Once()

		_, err := generator.Generate(ctx, outlineTestStorybook())
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
	})

	t.Run("Out-of-order chapter numbering is malformed", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		generator := service.NewOutlineGenerator(aiClient, zap.NewNop())

		shuffled := `{"title": "The Lost Star", "chapters": [
			{"number": 2, "title": "A", "summary": "s", "scene_description": "d"},
			{"number": 1, "title": "B", "summary": "s", "scene_description": "d"},
			{"number": 3, "title": "C", "summary": "s", "scene_description": "d"}
		]}`
		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return(shuffled, clients.UsageInfo{}, nil).Once()

		_, err := generator.Generate(ctx, outlineTestStorybook())
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
	})

	t.Run("Upstream failure propagates unchanged", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		generator := service.NewOutlineGenerator(aiClient, zap.NewNop())

		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return("", clients.UsageInfo{}, models.ErrUpstreamGenerationFailure).Once()

		_, err := generator.Generate(ctx, outlineTestStorybook())
		assert.ErrorIs(t, err, models.ErrUpstreamGenerationFailure)
	})
}
