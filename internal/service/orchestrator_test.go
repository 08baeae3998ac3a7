package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/mocks"
	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

type orchestratorFixture struct {
	orderRepo     *mocks.MockOrderRepository
	storybookRepo *mocks.MockStorybookRepository
	chapterRepo   *mocks.MockChapterRepository
	payment       *mocks.MockPaymentVerifier
	outlineGen    *mocks.MockOutlineGenerator
	chapterWriter *mocks.MockChapterWriter
	illustrator   *mocks.MockIllustrationRequester
	tracker       *mocks.MockProgressTracker
	orchestrator  service.Orchestrator
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	f := &orchestratorFixture{
		orderRepo:     mocks.NewMockOrderRepository(t),
		storybookRepo: mocks.NewMockStorybookRepository(t),
		chapterRepo:   mocks.NewMockChapterRepository(t),
		payment:       mocks.NewMockPaymentVerifier(t),
		outlineGen:    mocks.NewMockOutlineGenerator(t),
		chapterWriter: mocks.NewMockChapterWriter(t),
		illustrator:   mocks.NewMockIllustrationRequester(t),
		tracker:       mocks.NewMockProgressTracker(t),
	}
	f.orchestrator = service.NewOrchestrator(
		f.orderRepo, f.storybookRepo, f.chapterRepo,
		f.payment, f.outlineGen, f.chapterWriter, f.illustrator,
		f.tracker, zap.NewNop(),
	)
	return f
}

func (f *orchestratorFixture) allowProgressWrites() {
	f.tracker.On("Advance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func testOrder(storybookID uuid.UUID) *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		StorybookID:      storybookID,
		Status:           models.OrderStatusGenerating,
		PaymentSessionID: "cs_test_123",
	}
}

func testStorybook() *models.Storybook {
	return &models.Storybook{
		ID:               uuid.New(),
		TargetChapters:   3,
		Setting:          "a lighthouse island",
		Theme:            "friendship",
		Dedication:       "For Anna",
		IllustrationSeed: 42,
		Status:           models.StorybookStatusGenerating,
		Characters: []models.Character{
			{ID: uuid.New(), Name: "Tom", VisualDescription: "a boy in a blue sweater"},
		},
	}
}

func testOutline(chapters int) *service.Outline {
	outline := &service.Outline{Title: "The Lighthouse Keeper"}
	for i := 1; i <= chapters; i++ {
		outline.Chapters = append(outline.Chapters, service.OutlineChapter{
			Number:           i,
			Title:            fmt.Sprintf("Chapter %d", i),
			Summary:          fmt.Sprintf("summary %d", i),
			SceneDescription: fmt.Sprintf("scene %d", i),
		})
	}
	return outline
}

func TestOrchestratorRunHappyPath(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.allowProgressWrites()

	storybook := testStorybook()
	order := testOrder(storybook.ID)
	outline := testOutline(3)

	f.payment.On("VerifySession", mock.Anything, "cs_test_123").
		Return(&clients.CheckoutSession{ID: "cs_test_123", PaymentStatus: "paid"}, nil).Once()

	f.storybookRepo.On("GetByID", mock.Anything, storybook.ID).Return(storybook, nil).Once()
	f.chapterRepo.On("DeleteByStorybook", mock.Anything, storybook.ID).Return(int64(0), nil).Once()
	f.outlineGen.On("Generate", mock.Anything, storybook).Return(outline, nil).Once()
	f.storybookRepo.On("SetTitle", mock.Anything, storybook.ID, "The Lighthouse Keeper").Return(nil).Once()

	for i := 1; i <= 3; i++ {
		number := i
		f.chapterWriter.On("WriteChapter", mock.Anything, storybook, outline, number, mock.Anything).
			Return(&models.Chapter{
				ID:               uuid.New(),
				StorybookID:      storybook.ID,
				ChapterNumber:    number,
				Title:            fmt.Sprintf("Chapter %d", number),
				Content:          fmt.Sprintf("prose %d", number),
				SceneDescription: fmt.Sprintf("scene %d", number),
			}, nil).Once()
	}
	f.chapterRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Times(3)

	f.illustrator.On("GenerateCover", mock.Anything, storybook, "The Lighthouse Keeper").
		Return("https://cdn.example.com/books/cover.jpg", nil).Once()
	f.storybookRepo.On("SetCoverURL", mock.Anything, storybook.ID, "https://cdn.example.com/books/cover.jpg").Return(nil).Once()

	for i := 1; i <= 3; i++ {
		number := i
		f.illustrator.On("IllustrateChapter", mock.Anything, storybook, mock.MatchedBy(func(chapter *models.Chapter) bool {
			return chapter.ChapterNumber == number
		})).Return(&models.Illustration{
			ID:       uuid.New(),
			ImageURL: fmt.Sprintf("https://cdn.example.com/books/chapter_%02d.jpg", number),
		}, nil).Once()
	}

	f.storybookRepo.On("FinalizeContent", mock.Anything, storybook.ID, mock.MatchedBy(func(content *models.BookContent) bool {
		if len(content.Pages) != storybook.TargetChapters+models.FixedPageCount {
			return false
		}
		for i, page := range content.Pages {
			if page.Number != i+1 {
				return false
			}
		}
		return content.Pages[0].Type == models.PageTypeCover &&
			content.Pages[1].Type == models.PageTypeTitle &&
			content.Pages[2].Type == models.PageTypeChapter &&
			content.Pages[2].Number == models.ChapterPageOffset &&
			content.Pages[len(content.Pages)-1].Type == models.PageTypeBack
	})).Return(nil).Once()

	f.orderRepo.On("SetStatus", mock.Anything, order.ID, models.OrderStatusComplete, (*string)(nil)).Return(nil).Once()
	f.tracker.On("Complete", mock.Anything, order.ID, mock.Anything).Return(nil).Once()

	f.orchestrator.Run(context.Background(), order)

	f.chapterRepo.AssertNumberOfCalls(t, "Create", 3)
	f.illustrator.AssertNumberOfCalls(t, "IllustrateChapter", 3)
	f.tracker.AssertExpectations(t)
	f.storybookRepo.AssertExpectations(t)
	f.orderRepo.AssertExpectations(t)
}

func TestOrchestratorRunMalformedOutline(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.allowProgressWrites()

	storybook := testStorybook()
	order := testOrder(storybook.ID)

	f.payment.On("VerifySession", mock.Anything, "cs_test_123").
		Return(&clients.CheckoutSession{ID: "cs_test_123", PaymentStatus: "paid"}, nil).Once()
	f.storybookRepo.On("GetByID", mock.Anything, storybook.ID).Return(storybook, nil).Once()
	f.chapterRepo.On("DeleteByStorybook", mock.Anything, storybook.ID).Return(int64(0), nil).Once()
	f.outlineGen.On("Generate", mock.Anything, storybook).
		Return(nil, fmt.Errorf("%w: no JSON", models.ErrMalformedResponse)).Once()

	f.tracker.On("Fail", mock.Anything, order.ID, "Generation failed, please try again").Return(nil).Once()
	f.orderRepo.On("SetStatus", mock.Anything, order.ID, models.OrderStatusFailed, mock.MatchedBy(func(details *string) bool {
		return details != nil && *details != ""
	})).Return(nil).Once()
	f.storybookRepo.On("SetStatus", mock.Anything, storybook.ID, models.StorybookStatusDraft).Return(nil).Once()

	f.orchestrator.Run(context.Background(), order)

	f.chapterWriter.AssertNotCalled(t, "WriteChapter", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.chapterRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.tracker.AssertExpectations(t)
}

func TestOrchestratorRunUnverifiedPayment(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.allowProgressWrites()

	storybook := testStorybook()
	order := testOrder(storybook.ID)

	f.payment.On("VerifySession", mock.Anything, "cs_test_123").
		Return(&clients.CheckoutSession{ID: "cs_test_123", PaymentStatus: "unpaid"}, nil).Once()

	f.tracker.On("Fail", mock.Anything, order.ID, "Payment verification failed").Return(nil).Once()
	f.orderRepo.On("SetStatus", mock.Anything, order.ID, models.OrderStatusFailed, mock.Anything).Return(nil).Once()
	f.storybookRepo.On("SetStatus", mock.Anything, storybook.ID, models.StorybookStatusDraft).Return(nil).Once()

	f.orchestrator.Run(context.Background(), order)

	f.outlineGen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	f.tracker.AssertExpectations(t)
}

func TestOrchestratorRunStorageFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.allowProgressWrites()

	storybook := testStorybook()
	storybook.TargetChapters = 1
	order := testOrder(storybook.ID)
	outline := testOutline(1)

	f.payment.On("VerifySession", mock.Anything, "cs_test_123").
		Return(&clients.CheckoutSession{ID: "cs_test_123", PaymentStatus: "paid"}, nil).Once()
	f.storybookRepo.On("GetByID", mock.Anything, storybook.ID).Return(storybook, nil).Once()
	f.chapterRepo.On("DeleteByStorybook", mock.Anything, storybook.ID).Return(int64(0), nil).Once()
	f.outlineGen.On("Generate", mock.Anything, storybook).Return(outline, nil).Once()
	f.storybookRepo.On("SetTitle", mock.Anything, storybook.ID, outline.Title).Return(nil).Once()
	f.chapterWriter.On("WriteChapter", mock.Anything, storybook, outline, 1, mock.Anything).
		Return(&models.Chapter{ID: uuid.New(), StorybookID: storybook.ID, ChapterNumber: 1, Title: "c", Content: "p", SceneDescription: "s"}, nil).Once()
	f.chapterRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.illustrator.On("GenerateCover", mock.Anything, storybook, outline.Title).
		Return("https://cdn.example.com/books/cover.jpg", nil).Once()
	f.storybookRepo.On("SetCoverURL", mock.Anything, storybook.ID, mock.Anything).Return(nil).Once()
	f.illustrator.On("IllustrateChapter", mock.Anything, storybook, mock.Anything).
		Return(nil, fmt.Errorf("%w: upload refused", models.ErrStorageUploadFailure)).Once()

	f.tracker.On("Fail", mock.Anything, order.ID, "Generation failed, please try again").Return(nil).Once()
	f.orderRepo.On("SetStatus", mock.Anything, order.ID, models.OrderStatusFailed, mock.Anything).Return(nil).Once()
	f.storybookRepo.On("SetStatus", mock.Anything, storybook.ID, models.StorybookStatusDraft).Return(nil).Once()

	f.orchestrator.Run(context.Background(), order)

	f.storybookRepo.AssertNotCalled(t, "FinalizeContent", mock.Anything, mock.Anything, mock.Anything)
	f.tracker.AssertExpectations(t)
}

func TestAssembleContent(t *testing.T) {
	storybook := testStorybook()
	chapters := []models.Chapter{
		{ChapterNumber: 1, Title: "One", Content: "a"},
		{ChapterNumber: 2, Title: "Two", Content: "b"},
		{ChapterNumber: 3, Title: "Three", Content: "c"},
	}
	urls := map[int]string{
		1: "https://cdn.example.com/1.jpg",
		2: "https://cdn.example.com/2.jpg",
		3: "https://cdn.example.com/3.jpg",
	}

	t.Run("Page layout invariants", func(t *testing.T) {
		content, err := service.AssembleContent(storybook, "Title", chapters, urls, "https://cdn.example.com/cover.jpg")
		require.NoError(t, err)

		require.Len(t, content.Pages, storybook.TargetChapters+models.FixedPageCount)
		for i, page := range content.Pages {
			assert.Equal(t, i+1, page.Number)
		}
		assert.Equal(t, models.PageTypeCover, content.Pages[0].Type)
		assert.Equal(t, models.PageTypeTitle, content.Pages[1].Type)
		for i := 0; i < 3; i++ {
			page := content.Pages[models.ChapterPageOffset-1+i]
			assert.Equal(t, models.PageTypeChapter, page.Type)
			assert.Equal(t, i+1, page.ChapterNumber)
			assert.Equal(t, urls[i+1], page.IllustrationURL)
		}
		assert.Equal(t, models.PageTypeBack, content.Pages[len(content.Pages)-1].Type)
		assert.Equal(t, "For Anna", content.Dedication)
	})

	t.Run("Chapter count mismatch fails", func(t *testing.T) {
		_, err := service.AssembleContent(storybook, "Title", chapters[:2], urls, "cover")
		assert.Error(t, err)
	})

	t.Run("Missing illustration fails", func(t *testing.T) {
		partial := map[int]string{1: "u1", 2: "u2"}
		_, err := service.AssembleContent(storybook, "Title", chapters, partial, "cover")
		assert.Error(t, err)
	})
}
