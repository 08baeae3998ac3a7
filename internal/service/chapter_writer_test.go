package service_test

import (
	"context"
	"strings"
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

func writerTestOutline() *service.Outline {
	return &service.Outline{
		Title: "The Lost Star",
		Chapters: []service.OutlineChapter{
			{Number: 1, Title: "A Wish", Summary: "Mila wishes on a star", SceneDescription: "Mila at her window"},
			{Number: 2, Title: "The Fall", Summary: "The star falls into the forest", SceneDescription: "A glowing crater between pines"},
			{Number: 3, Title: "Home Again", Summary: "Mila carries the star home", SceneDescription: "Mila walking at dawn"},
		},
	}
}

func TestChapterWriterWriteChapter(t *testing.T) {
	ctx := context.Background()
	storybook := outlineTestStorybook()
	outline := writerTestOutline()

	t.Run("Continuity context carries the previous chapters", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		writer := service.NewChapterWriter(aiClient, zap.NewNop())

		previous := []models.Chapter{
			{ChapterNumber: 1, Title: "A Wish", Content: "Mila pressed her nose against the cold glass..."},
		}
		reply := `{"title": "The Fall", "content": "The sky cracked open...", "scene_description": "The star sinking into the dark pines"}`

		aiClient.On("GenerateText", ctx, mock.Anything, mock.MatchedBy(func(input string) bool {
			return strings.Contains(input, "Chapters so far:") &&
				strings.Contains(input, "1. A Wish:") &&
				strings.Contains(input, "Now write chapter 2 of 3.")
		})).Return(reply, clients.UsageInfo{TotalTokens: 900}, nil).Once()

		chapter, err := writer.WriteChapter(ctx, storybook, outline, 2, previous)
		require.NoError(t, err)
		assert.Equal(t, 2, chapter.ChapterNumber)
		assert.Equal(t, "The Fall", chapter.Title)
		// The model refined the planned scene; the refined one wins.
		assert.Equal(t, "The star sinking into the dark pines", chapter.SceneDescription)
		assert.Equal(t, storybook.ID, chapter.StorybookID)
	})

	t.Run("Missing scene description falls back to the outline", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		writer := service.NewChapterWriter(aiClient, zap.NewNop())

		reply := `{"title": "A Wish", "content": "Mila pressed her nose against the cold glass..."}`
		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return(reply, clients.UsageInfo{}, nil).Once()

		chapter, err := writer.WriteChapter(ctx, storybook, outline, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, "Mila at her window", chapter.SceneDescription)
	})

	t.Run("Reply without content is malformed", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		writer := service.NewChapterWriter(aiClient, zap.NewNop())

		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return(`{"title": "A Wish"}`, clients.UsageInfo{}, nil).Once()

		_, err := writer.WriteChapter(ctx, storybook, outline, 1, nil)
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
	})

	t.Run("Reply without JSON is malformed", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		writer := service.NewChapterWriter(aiClient, zap.NewNop())

		aiClient.On("GenerateText", ctx, mock.Anything, mock.Anything).
			Return("Chapter one. Mila pressed her nose against the glass.", clients.UsageInfo{}, nil).Once()

		_, err := writer.WriteChapter(ctx, storybook, outline, 1, nil)
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
	})

	t.Run("Chapter number outside the outline is rejected", func(t *testing.T) {
		aiClient := mocks.NewMockAIClient(t)
		writer := service.NewChapterWriter(aiClient, zap.NewNop())

		_, err := writer.WriteChapter(ctx, storybook, outline, 4, nil)
		assert.Error(t, err)
		aiClient.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything)
	})
}
