package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/models"
	"storybook-server/internal/repository"
)

// CharacterInput describes one protagonist supplied by the buyer. The order
// of the characters slice is preserved everywhere downstream.
type CharacterInput struct {
	Name              string `json:"name"`
	VisualDescription string `json:"visualDescription"`
	ReferenceImageURL string `json:"referenceImageUrl"`
}

// CreateOrderRequest is the buyer's storybook setup. A non-empty Title pins
// the title: the outline generator's suggestion is discarded.
type CreateOrderRequest struct {
	UserID         uuid.UUID        `json:"userId"`
	Title          string           `json:"title"`
	TargetChapters int              `json:"targetChapters"`
	Setting        string           `json:"setting"`
	Theme          string           `json:"theme"`
	ArtStyle       string           `json:"artStyle"`
	Dedication     string           `json:"dedication"`
	Characters     []CharacterInput `json:"characters"`
	TotalAmount    decimal.Decimal  `json:"totalAmount"`
}

// Validate checks the buyer's setup before anything is persisted.
func (r CreateOrderRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.TargetChapters, validation.Required, validation.Min(1), validation.Max(12)),
		validation.Field(&r.Setting, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.Theme, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.Characters, validation.Required, validation.Length(1, 5)),
	)
	if err != nil {
		return err
	}
	for i, character := range r.Characters {
		err := validation.ValidateStruct(&character,
			validation.Field(&character.Name, validation.Required, validation.Length(1, 200)),
			validation.Field(&character.VisualDescription, validation.Required, validation.Length(1, 2000)),
		)
		if err != nil {
			return fmt.Errorf("character %d: %w", i+1, err)
		}
	}
	return nil
}

// StorybookService is the order-facing surface: create an order, confirm its
// payment, trigger generation, read progress.
type StorybookService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error)
	// ConfirmPayment verifies the checkout session with the provider and
	// moves the order from pending to paid.
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, sessionID string) (*models.Order, error)
	// StartGeneration runs the trigger guard and, on success, launches the
	// orchestrator in the background. Returns ErrGenerationAlreadyRunning
	// when a run is already in flight.
	StartGeneration(ctx context.Context, orderID uuid.UUID) error
	// GetProgress returns the polling snapshot: order status, progress record
	// and a storybook summary.
	GetProgress(ctx context.Context, orderID uuid.UUID) (*models.ProgressSnapshot, error)
	GetStorybook(ctx context.Context, storybookID uuid.UUID) (*models.Storybook, error)
}

type storybookService struct {
	orderRepo       repository.OrderRepository
	storybookRepo   repository.StorybookRepository
	paymentVerifier clients.PaymentVerifier
	guard           TriggerGuard
	orchestrator    Orchestrator
	tracker         ProgressTracker
	logger          *zap.Logger
}

// NewStorybookService creates the StorybookService.
func NewStorybookService(
	orderRepo repository.OrderRepository,
	storybookRepo repository.StorybookRepository,
	paymentVerifier clients.PaymentVerifier,
	guard TriggerGuard,
	orchestrator Orchestrator,
	tracker ProgressTracker,
	logger *zap.Logger,
) StorybookService {
	return &storybookService{
		orderRepo:       orderRepo,
		storybookRepo:   storybookRepo,
		paymentVerifier: paymentVerifier,
		guard:           guard,
		orchestrator:    orchestrator,
		tracker:         tracker,
		logger:          logger.Named("StorybookService"),
	}
}

var _ StorybookService = (*storybookService)(nil)

func (s *storybookService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	characters := make([]models.Character, 0, len(req.Characters))
	for _, input := range req.Characters {
		characters = append(characters, models.Character{
			ID:                uuid.New(),
			Name:              input.Name,
			VisualDescription: input.VisualDescription,
			ReferenceImageURL: input.ReferenceImageURL,
		})
	}

	storybook := &models.Storybook{
		ID:             uuid.New(),
		Title:          req.Title,
		TitlePinned:    req.Title != "",
		TargetChapters: req.TargetChapters,
		Setting:        req.Setting,
		Theme:          req.Theme,
		ArtStyle:       req.ArtStyle,
		Dedication:     req.Dedication,
		Characters:     characters,
		// One seed per book keeps character appearance consistent across
		// every illustration.
		IllustrationSeed: rand.Int63n(1 << 31),
		Status:           models.StorybookStatusDraft,
	}
	if err := s.storybookRepo.Create(ctx, storybook); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New(),
		StorybookID:   storybook.ID,
		UserID:        req.UserID,
		Status:        models.OrderStatusPending,
		TotalAmount:   req.TotalAmount,
		PaymentStatus: "unpaid",
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.Stringer("orderID", order.ID),
		zap.Stringer("storybookID", storybook.ID),
		zap.Int("targetChapters", req.TargetChapters),
	)
	return order, nil
}

func (s *storybookService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty checkout session id", models.ErrPaymentNotVerified)
	}

	session, err := s.paymentVerifier.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Paid() {
		return nil, fmt.Errorf("%w: session %s is %s", models.ErrPaymentNotVerified, session.ID, session.PaymentStatus)
	}

	moved, err := s.orderRepo.MarkPaid(ctx, orderID, session.ID, session.PaymentStatus)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !moved && order.Status == models.OrderStatusPending {
		return nil, fmt.Errorf("failed to mark order %s paid", orderID)
	}

	s.logger.Info("Payment confirmed",
		zap.Stringer("orderID", orderID),
		zap.String("sessionID", session.ID),
	)
	return order, nil
}

func (s *storybookService) StartGeneration(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.guard.TryStart(ctx, orderID)
	if err != nil {
		return err
	}

	// The run deliberately outlives the HTTP request: clients stop polling
	// without affecting the in-flight run.
	go s.orchestrator.Run(context.Background(), order)
	return nil
}

func (s *storybookService) GetProgress(ctx context.Context, orderID uuid.UUID) (*models.ProgressSnapshot, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.ProgressSnapshot{Status: order.Status}

	progress, err := s.tracker.Get(ctx, orderID)
	if err != nil && !errors.Is(err, models.ErrProgressNotFound) {
		return nil, err
	}
	snapshot.Progress = progress

	storybook, err := s.storybookRepo.GetByID(ctx, order.StorybookID)
	if err != nil {
		if errors.Is(err, models.ErrStorybookNotFound) {
			return snapshot, nil
		}
		return nil, err
	}
	snapshot.Storybook = &models.StorybookSummary{
		ID:       storybook.ID,
		Title:    storybook.Title,
		CoverURL: storybook.CoverURL,
	}
	return snapshot, nil
}

func (s *storybookService) GetStorybook(ctx context.Context, storybookID uuid.UUID) (*models.Storybook, error) {
	return s.storybookRepo.GetByID(ctx, storybookID)
}
