package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/models"
	"storybook-server/internal/repository"
)

// Orchestrator drives one order's generation run through the stage machine:
// payment, outline, narrative, cover, illustrations, layout, complete.
// Stages run strictly forward; any unrecoverable error moves the run to the
// absorbing failed state with the message captured in the progress record.
// Side effects are not transactional across stages: a failed run leaves its
// partial chapter rows behind, and the next trigger discards them.
type Orchestrator interface {
	Run(ctx context.Context, order *models.Order)
}

type orchestrator struct {
	orderRepo        repository.OrderRepository
	storybookRepo    repository.StorybookRepository
	chapterRepo      repository.ChapterRepository
	paymentVerifier  clients.PaymentVerifier
	outlineGenerator OutlineGenerator
	chapterWriter    ChapterWriter
	illustrator      IllustrationRequester
	tracker          ProgressTracker
	logger           *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	orderRepo repository.OrderRepository,
	storybookRepo repository.StorybookRepository,
	chapterRepo repository.ChapterRepository,
	paymentVerifier clients.PaymentVerifier,
	outlineGenerator OutlineGenerator,
	chapterWriter ChapterWriter,
	illustrator IllustrationRequester,
	tracker ProgressTracker,
	logger *zap.Logger,
) Orchestrator {
	return &orchestrator{
		orderRepo:        orderRepo,
		storybookRepo:    storybookRepo,
		chapterRepo:      chapterRepo,
		paymentVerifier:  paymentVerifier,
		outlineGenerator: outlineGenerator,
		chapterWriter:    chapterWriter,
		illustrator:      illustrator,
		tracker:          tracker,
		logger:           logger.Named("Orchestrator"),
	}
}

var _ Orchestrator = (*orchestrator)(nil)

// Run executes the full pipeline for an order already claimed by the trigger
// guard. It never returns an error: every failure path ends in the failed
// state with the order and progress records updated accordingly.
func (o *orchestrator) Run(ctx context.Context, order *models.Order) {
	log := o.logger.With(
		zap.Stringer("orderID", order.ID),
		zap.Stringer("storybookID", order.StorybookID),
	)
	log.Info("Generation run started")

	if err := o.verifyPayment(ctx, order); err != nil {
		o.fail(ctx, order, err)
		return
	}

	storybook, outline, err := o.planOutline(ctx, order)
	if err != nil {
		o.fail(ctx, order, err)
		return
	}

	chapters, err := o.writeNarrative(ctx, order, storybook, outline)
	if err != nil {
		o.fail(ctx, order, err)
		return
	}

	coverURL, err := o.paintCover(ctx, order, storybook, outline.Title)
	if err != nil {
		o.fail(ctx, order, err)
		return
	}

	illustrationURLs, err := o.illustrateChapters(ctx, order, storybook, chapters)
	if err != nil {
		o.fail(ctx, order, err)
		return
	}

	if err := o.assembleAndFinalize(ctx, order, storybook, outline, chapters, illustrationURLs, coverURL); err != nil {
		o.fail(ctx, order, err)
		return
	}

	log.Info("Generation run complete", zap.Int("chapters", len(chapters)))
}

func (o *orchestrator) verifyPayment(ctx context.Context, order *models.Order) error {
	if err := o.tracker.Advance(ctx, order.ID, models.StagePayment, 10, "Verifying payment"); err != nil {
		return err
	}
	if order.PaymentSessionID == "" {
		return fmt.Errorf("%w: order carries no checkout session", models.ErrPaymentNotVerified)
	}
	session, err := o.paymentVerifier.VerifySession(ctx, order.PaymentSessionID)
	if err != nil {
		if errors.Is(err, models.ErrPaymentNotVerified) {
			return err
		}
		return fmt.Errorf("%w: %v", models.ErrPaymentNotVerified, err)
	}
	if !session.Paid() {
		return fmt.Errorf("%w: session %s is %s", models.ErrPaymentNotVerified, session.ID, session.PaymentStatus)
	}
	return o.tracker.Advance(ctx, order.ID, models.StagePayment, 100, "Payment verified")
}

func (o *orchestrator) planOutline(ctx context.Context, order *models.Order) (*models.Storybook, *Outline, error) {
	if err := o.tracker.Advance(ctx, order.ID, models.StageOutline, 0, "Planning the story"); err != nil {
		return nil, nil, err
	}
	storybook, err := o.storybookRepo.GetByID(ctx, order.StorybookID)
	if err != nil {
		return nil, nil, err
	}
	if storybook.IllustrationSeed == 0 {
		storybook.IllustrationSeed = rand.Int63n(1 << 31)
	}

	// A fresh trigger after a failed run starts from scratch: partial rows of
	// the previous run are discarded before the new outline is written.
	if _, err := o.chapterRepo.DeleteByStorybook(ctx, storybook.ID); err != nil {
		return nil, nil, err
	}

	outline, err := o.outlineGenerator.Generate(ctx, storybook)
	if err != nil {
		return nil, nil, err
	}
	if !storybook.TitlePinned {
		if err := o.storybookRepo.SetTitle(ctx, storybook.ID, outline.Title); err != nil {
			return nil, nil, err
		}
		storybook.Title = outline.Title
	}

	if err := o.tracker.Advance(ctx, order.ID, models.StageOutline, 100, "Outline ready"); err != nil {
		return nil, nil, err
	}
	return storybook, outline, nil
}

// writeNarrative writes all chapters strictly in outline order, feeding each
// call the chapters already written so the prose stays continuous.
func (o *orchestrator) writeNarrative(ctx context.Context, order *models.Order, storybook *models.Storybook, outline *Outline) ([]models.Chapter, error) {
	total := len(outline.Chapters)
	chapters := make([]models.Chapter, 0, total)
	for i := 0; i < total; i++ {
		number := i + 1
		message := fmt.Sprintf("Writing chapter %d of %d", number, total)
		if err := o.tracker.Advance(ctx, order.ID, models.StageNarrative, i*100/total, message); err != nil {
			return nil, err
		}
		chapter, err := o.chapterWriter.WriteChapter(ctx, storybook, outline, number, chapters)
		if err != nil {
			return nil, err
		}
		if err := o.chapterRepo.Create(ctx, chapter); err != nil {
			return nil, err
		}
		chapters = append(chapters, *chapter)
	}
	if err := o.tracker.Advance(ctx, order.ID, models.StageNarrative, 100, "All chapters written"); err != nil {
		return nil, err
	}
	return chapters, nil
}

func (o *orchestrator) paintCover(ctx context.Context, order *models.Order, storybook *models.Storybook, title string) (string, error) {
	if err := o.tracker.Advance(ctx, order.ID, models.StageCover, 0, "Painting the cover"); err != nil {
		return "", err
	}
	coverURL, err := o.illustrator.GenerateCover(ctx, storybook, title)
	if err != nil {
		return "", err
	}
	if err := o.storybookRepo.SetCoverURL(ctx, storybook.ID, coverURL); err != nil {
		return "", err
	}
	if err := o.tracker.Advance(ctx, order.ID, models.StageCover, 100, "Cover ready"); err != nil {
		return "", err
	}
	return coverURL, nil
}

// illustrateChapters renders one illustration per chapter, in chapter order,
// each prompt built from the chapter's finalized scene description.
func (o *orchestrator) illustrateChapters(ctx context.Context, order *models.Order, storybook *models.Storybook, chapters []models.Chapter) (map[int]string, error) {
	total := len(chapters)
	urls := make(map[int]string, total)
	for i := range chapters {
		chapter := &chapters[i]
		message := fmt.Sprintf("Illustrating chapter %d of %d", chapter.ChapterNumber, total)
		if err := o.tracker.Advance(ctx, order.ID, models.StageIllustrations, i*100/total, message); err != nil {
			return nil, err
		}
		illustration, err := o.illustrator.IllustrateChapter(ctx, storybook, chapter)
		if err != nil {
			return nil, err
		}
		urls[chapter.ChapterNumber] = illustration.ImageURL
	}
	if err := o.tracker.Advance(ctx, order.ID, models.StageIllustrations, 100, "All illustrations ready"); err != nil {
		return nil, err
	}
	return urls, nil
}

func (o *orchestrator) assembleAndFinalize(
	ctx context.Context,
	order *models.Order,
	storybook *models.Storybook,
	outline *Outline,
	chapters []models.Chapter,
	illustrationURLs map[int]string,
	coverURL string,
) error {
	if err := o.tracker.Advance(ctx, order.ID, models.StageLayout, 0, "Assembling the book"); err != nil {
		return err
	}

	content, err := AssembleContent(storybook, outline.Title, chapters, illustrationURLs, coverURL)
	if err != nil {
		return err
	}
	if err := o.storybookRepo.FinalizeContent(ctx, storybook.ID, content); err != nil {
		return err
	}
	if err := o.orderRepo.SetStatus(ctx, order.ID, models.OrderStatusComplete, nil); err != nil {
		return err
	}
	return o.tracker.Complete(ctx, order.ID, "Your storybook is ready")
}

// AssembleContent builds the denormalized page sequence from the
// authoritative chapter and illustration records: cover, title page, one page
// per chapter starting at the fixed offset, back page.
func AssembleContent(
	storybook *models.Storybook,
	title string,
	chapters []models.Chapter,
	illustrationURLs map[int]string,
	coverURL string,
) (*models.BookContent, error) {
	if len(chapters) != storybook.TargetChapters {
		return nil, fmt.Errorf("layout expects %d chapters, have %d", storybook.TargetChapters, len(chapters))
	}

	pages := make([]models.Page, 0, len(chapters)+models.FixedPageCount)
	pages = append(pages, models.Page{
		Number:          1,
		Type:            models.PageTypeCover,
		Title:           title,
		IllustrationURL: coverURL,
	})
	pages = append(pages, models.Page{
		Number: 2,
		Type:   models.PageTypeTitle,
		Title:  title,
		Text:   storybook.Dedication,
	})
	for i, chapter := range chapters {
		if chapter.ChapterNumber != i+1 {
			return nil, fmt.Errorf("chapter sequence broken at index %d: number %d", i, chapter.ChapterNumber)
		}
		url, ok := illustrationURLs[chapter.ChapterNumber]
		if !ok {
			return nil, fmt.Errorf("chapter %d has no illustration", chapter.ChapterNumber)
		}
		pages = append(pages, models.Page{
			Number:          chapter.ChapterNumber - 1 + models.ChapterPageOffset,
			Type:            models.PageTypeChapter,
			ChapterNumber:   chapter.ChapterNumber,
			Title:           chapter.Title,
			Text:            chapter.Content,
			IllustrationURL: url,
		})
	}
	pages = append(pages, models.Page{
		Number: len(chapters) + models.FixedPageCount,
		Type:   models.PageTypeBack,
		Text:   "The End",
	})

	return &models.BookContent{
		Title:      title,
		Dedication: storybook.Dedication,
		Pages:      pages,
	}, nil
}

// fail moves the run to the absorbing failed state. The raw error text lands
// in the order's error details for operators; the progress message is what
// polling clients see.
func (o *orchestrator) fail(ctx context.Context, order *models.Order, runErr error) {
	o.logger.Error("Generation run failed",
		zap.Stringer("orderID", order.ID),
		zap.Error(runErr),
	)

	message := userFacingMessage(runErr)
	if err := o.tracker.Fail(ctx, order.ID, message); err != nil {
		o.logger.Error("Failed to record failed progress", zap.Stringer("orderID", order.ID), zap.Error(err))
	}
	details := runErr.Error()
	if err := o.orderRepo.SetStatus(ctx, order.ID, models.OrderStatusFailed, &details); err != nil {
		o.logger.Error("Failed to mark order failed", zap.Stringer("orderID", order.ID), zap.Error(err))
	}
	if err := o.storybookRepo.SetStatus(ctx, order.StorybookID, models.StorybookStatusDraft); err != nil {
		o.logger.Error("Failed to reset storybook status", zap.Stringer("storybookID", order.StorybookID), zap.Error(err))
	}
}

// userFacingMessage hides raw provider errors from polling clients.
func userFacingMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrPaymentNotVerified):
		return "Payment verification failed"
	case errors.Is(err, models.ErrMalformedResponse),
		errors.Is(err, models.ErrUpstreamGenerationFailure),
		errors.Is(err, models.ErrStorageUploadFailure):
		return "Generation failed, please try again"
	default:
		return "Generation failed"
	}
}
