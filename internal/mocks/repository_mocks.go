package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storybook-server/internal/models"
	"storybook-server/internal/repository"
)

// MockOrderRepository is a mock type for the repository.OrderRepository type
type MockOrderRepository struct {
	mock.Mock
}

func (_m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	ret := _m.Called(ctx, order)
	return ret.Error(0)
}

func (_m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Order)
	}
	return r0, ret.Error(1)
}

func (_m *MockOrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, sessionID, paymentStatus string) (bool, error) {
	ret := _m.Called(ctx, id, sessionID, paymentStatus)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockOrderRepository) ClaimForGeneration(ctx context.Context, id uuid.UUID) (bool, error) {
	ret := _m.Called(ctx, id)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, errorDetails *string) error {
	ret := _m.Called(ctx, id, status, errorDetails)
	return ret.Error(0)
}

func (_m *MockOrderRepository) MarkStaleGenerating(ctx context.Context, olderThan time.Duration, message string) (int64, error) {
	ret := _m.Called(ctx, olderThan, message)
	return ret.Get(0).(int64), ret.Error(1)
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository(t interface {
	mock.TestingT
	Helper()
}) *MockOrderRepository {
	m := &MockOrderRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.OrderRepository = (*MockOrderRepository)(nil)

// MockStorybookRepository is a mock type for the repository.StorybookRepository type
type MockStorybookRepository struct {
	mock.Mock
}

func (_m *MockStorybookRepository) Create(ctx context.Context, storybook *models.Storybook) error {
	ret := _m.Called(ctx, storybook)
	return ret.Error(0)
}

func (_m *MockStorybookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Storybook, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Storybook
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Storybook)
	}
	return r0, ret.Error(1)
}

func (_m *MockStorybookRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.StorybookStatus) error {
	ret := _m.Called(ctx, id, status)
	return ret.Error(0)
}

func (_m *MockStorybookRepository) SetTitle(ctx context.Context, id uuid.UUID, title string) error {
	ret := _m.Called(ctx, id, title)
	return ret.Error(0)
}

func (_m *MockStorybookRepository) SetCoverURL(ctx context.Context, id uuid.UUID, coverURL string) error {
	ret := _m.Called(ctx, id, coverURL)
	return ret.Error(0)
}

func (_m *MockStorybookRepository) FinalizeContent(ctx context.Context, id uuid.UUID, content *models.BookContent) error {
	ret := _m.Called(ctx, id, content)
	return ret.Error(0)
}

// NewMockStorybookRepository creates a new instance of MockStorybookRepository.
func NewMockStorybookRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStorybookRepository {
	m := &MockStorybookRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StorybookRepository = (*MockStorybookRepository)(nil)

// MockChapterRepository is a mock type for the repository.ChapterRepository type
type MockChapterRepository struct {
	mock.Mock
}

func (_m *MockChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	ret := _m.Called(ctx, chapter)
	return ret.Error(0)
}

func (_m *MockChapterRepository) ListByStorybook(ctx context.Context, storybookID uuid.UUID) ([]models.Chapter, error) {
	ret := _m.Called(ctx, storybookID)

	var r0 []models.Chapter
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Chapter)
	}
	return r0, ret.Error(1)
}

func (_m *MockChapterRepository) DeleteByStorybook(ctx context.Context, storybookID uuid.UUID) (int64, error) {
	ret := _m.Called(ctx, storybookID)
	return ret.Get(0).(int64), ret.Error(1)
}

// NewMockChapterRepository creates a new instance of MockChapterRepository.
func NewMockChapterRepository(t interface {
	mock.TestingT
	Helper()
}) *MockChapterRepository {
	m := &MockChapterRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.ChapterRepository = (*MockChapterRepository)(nil)

// MockIllustrationRepository is a mock type for the repository.IllustrationRepository type
type MockIllustrationRepository struct {
	mock.Mock
}

func (_m *MockIllustrationRepository) Create(ctx context.Context, illustration *models.Illustration) error {
	ret := _m.Called(ctx, illustration)
	return ret.Error(0)
}

func (_m *MockIllustrationRepository) ListByStorybook(ctx context.Context, storybookID uuid.UUID) ([]models.Illustration, error) {
	ret := _m.Called(ctx, storybookID)

	var r0 []models.Illustration
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Illustration)
	}
	return r0, ret.Error(1)
}

// NewMockIllustrationRepository creates a new instance of MockIllustrationRepository.
func NewMockIllustrationRepository(t interface {
	mock.TestingT
	Helper()
}) *MockIllustrationRepository {
	m := &MockIllustrationRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.IllustrationRepository = (*MockIllustrationRepository)(nil)

// MockProgressRepository is a mock type for the repository.ProgressRepository type
type MockProgressRepository struct {
	mock.Mock
}

func (_m *MockProgressRepository) Get(ctx context.Context, orderID uuid.UUID) (*models.GenerationProgress, error) {
	ret := _m.Called(ctx, orderID)

	var r0 *models.GenerationProgress
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GenerationProgress)
	}
	return r0, ret.Error(1)
}

func (_m *MockProgressRepository) Upsert(ctx context.Context, progress *models.GenerationProgress) error {
	ret := _m.Called(ctx, progress)
	return ret.Error(0)
}

// NewMockProgressRepository creates a new instance of MockProgressRepository.
func NewMockProgressRepository(t interface {
	mock.TestingT
	Helper()
}) *MockProgressRepository {
	m := &MockProgressRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.ProgressRepository = (*MockProgressRepository)(nil)

// MockTriggerRepository is a mock type for the repository.TriggerRepository type
type MockTriggerRepository struct {
	mock.Mock
}

func (_m *MockTriggerRepository) AcquireCooldown(ctx context.Context, orderID uuid.UUID, window time.Duration) (bool, error) {
	ret := _m.Called(ctx, orderID, window)
	return ret.Bool(0), ret.Error(1)
}

// NewMockTriggerRepository creates a new instance of MockTriggerRepository.
func NewMockTriggerRepository(t interface {
	mock.TestingT
	Helper()
}) *MockTriggerRepository {
	m := &MockTriggerRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.TriggerRepository = (*MockTriggerRepository)(nil)
