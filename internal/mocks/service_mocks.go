package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"storybook-server/internal/models"
	"storybook-server/internal/service"
)

// MockOutlineGenerator is a mock type for the service.OutlineGenerator type
type MockOutlineGenerator struct {
	mock.Mock
}

func (_m *MockOutlineGenerator) Generate(ctx context.Context, storybook *models.Storybook) (*service.Outline, error) {
	ret := _m.Called(ctx, storybook)

	var r0 *service.Outline
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*service.Outline)
	}
	return r0, ret.Error(1)
}

// NewMockOutlineGenerator creates a new instance of MockOutlineGenerator.
func NewMockOutlineGenerator(t interface {
	mock.TestingT
	Helper()
}) *MockOutlineGenerator {
	m := &MockOutlineGenerator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.OutlineGenerator = (*MockOutlineGenerator)(nil)

// MockChapterWriter is a mock type for the service.ChapterWriter type
type MockChapterWriter struct {
	mock.Mock
}

func (_m *MockChapterWriter) WriteChapter(ctx context.Context, storybook *models.Storybook, outline *service.Outline, chapterNumber int, previous []models.Chapter) (*models.Chapter, error) {
	ret := _m.Called(ctx, storybook, outline, chapterNumber, previous)

	var r0 *models.Chapter
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Chapter)
	}
	return r0, ret.Error(1)
}

// NewMockChapterWriter creates a new instance of MockChapterWriter.
func NewMockChapterWriter(t interface {
	mock.TestingT
	Helper()
}) *MockChapterWriter {
	m := &MockChapterWriter{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.ChapterWriter = (*MockChapterWriter)(nil)

// MockIllustrationRequester is a mock type for the service.IllustrationRequester type
type MockIllustrationRequester struct {
	mock.Mock
}

func (_m *MockIllustrationRequester) IllustrateChapter(ctx context.Context, storybook *models.Storybook, chapter *models.Chapter) (*models.Illustration, error) {
	ret := _m.Called(ctx, storybook, chapter)

	var r0 *models.Illustration
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Illustration)
	}
	return r0, ret.Error(1)
}

func (_m *MockIllustrationRequester) GenerateCover(ctx context.Context, storybook *models.Storybook, title string) (string, error) {
	ret := _m.Called(ctx, storybook, title)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	return r0, ret.Error(1)
}

// NewMockIllustrationRequester creates a new instance of MockIllustrationRequester.
func NewMockIllustrationRequester(t interface {
	mock.TestingT
	Helper()
}) *MockIllustrationRequester {
	m := &MockIllustrationRequester{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.IllustrationRequester = (*MockIllustrationRequester)(nil)

// MockProgressTracker is a mock type for the service.ProgressTracker type
type MockProgressTracker struct {
	mock.Mock
}

func (_m *MockProgressTracker) Reset(ctx context.Context, orderID uuid.UUID) error {
	ret := _m.Called(ctx, orderID)
	return ret.Error(0)
}

func (_m *MockProgressTracker) Advance(ctx context.Context, orderID uuid.UUID, stage models.Stage, stageProgress int, message string) error {
	ret := _m.Called(ctx, orderID, stage, stageProgress, message)
	return ret.Error(0)
}

func (_m *MockProgressTracker) Complete(ctx context.Context, orderID uuid.UUID, message string) error {
	ret := _m.Called(ctx, orderID, message)
	return ret.Error(0)
}

func (_m *MockProgressTracker) Fail(ctx context.Context, orderID uuid.UUID, message string) error {
	ret := _m.Called(ctx, orderID, message)
	return ret.Error(0)
}

func (_m *MockProgressTracker) Get(ctx context.Context, orderID uuid.UUID) (*models.GenerationProgress, error) {
	ret := _m.Called(ctx, orderID)

	var r0 *models.GenerationProgress
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GenerationProgress)
	}
	return r0, ret.Error(1)
}

// NewMockProgressTracker creates a new instance of MockProgressTracker.
func NewMockProgressTracker(t interface {
	mock.TestingT
	Helper()
}) *MockProgressTracker {
	m := &MockProgressTracker{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.ProgressTracker = (*MockProgressTracker)(nil)

// MockTriggerGuard is a mock type for the service.TriggerGuard type
type MockTriggerGuard struct {
	mock.Mock
}

func (_m *MockTriggerGuard) TryStart(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	ret := _m.Called(ctx, orderID)

	var r0 *models.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Order)
	}
	return r0, ret.Error(1)
}

// NewMockTriggerGuard creates a new instance of MockTriggerGuard.
func NewMockTriggerGuard(t interface {
	mock.TestingT
	Helper()
}) *MockTriggerGuard {
	m := &MockTriggerGuard{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.TriggerGuard = (*MockTriggerGuard)(nil)

// MockOrchestrator is a mock type for the service.Orchestrator type
type MockOrchestrator struct {
	mock.Mock
}

func (_m *MockOrchestrator) Run(ctx context.Context, order *models.Order) {
	_m.Called(ctx, order)
}

// NewMockOrchestrator creates a new instance of MockOrchestrator.
func NewMockOrchestrator(t interface {
	mock.TestingT
	Helper()
}) *MockOrchestrator {
	m := &MockOrchestrator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.Orchestrator = (*MockOrchestrator)(nil)

// MockStorybookService is a mock type for the service.StorybookService type
type MockStorybookService struct {
	mock.Mock
}

func (_m *MockStorybookService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*models.Order, error) {
	ret := _m.Called(ctx, req)

	var r0 *models.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Order)
	}
	return r0, ret.Error(1)
}

func (_m *MockStorybookService) ConfirmPayment(ctx context.Context, orderID uuid.UUID, sessionID string) (*models.Order, error) {
	ret := _m.Called(ctx, orderID, sessionID)

	var r0 *models.Order
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Order)
	}
	return r0, ret.Error(1)
}

func (_m *MockStorybookService) StartGeneration(ctx context.Context, orderID uuid.UUID) error {
	ret := _m.Called(ctx, orderID)
	return ret.Error(0)
}

func (_m *MockStorybookService) GetProgress(ctx context.Context, orderID uuid.UUID) (*models.ProgressSnapshot, error) {
	ret := _m.Called(ctx, orderID)

	var r0 *models.ProgressSnapshot
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.ProgressSnapshot)
	}
	return r0, ret.Error(1)
}

func (_m *MockStorybookService) GetStorybook(ctx context.Context, storybookID uuid.UUID) (*models.Storybook, error) {
	ret := _m.Called(ctx, storybookID)

	var r0 *models.Storybook
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Storybook)
	}
	return r0, ret.Error(1)
}

// NewMockStorybookService creates a new instance of MockStorybookService.
func NewMockStorybookService(t interface {
	mock.TestingT
	Helper()
}) *MockStorybookService {
	m := &MockStorybookService{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.StorybookService = (*MockStorybookService)(nil)
