package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storybook-server/internal/messaging"
	"storybook-server/internal/models"
	"storybook-server/internal/storage"
)

// MockImageStore is a mock type for the storage.ImageStore type
type MockImageStore struct {
	mock.Mock
}

func (_m *MockImageStore) Persist(ctx context.Context, ephemeralURL string, objectName string) (string, error) {
	ret := _m.Called(ctx, ephemeralURL, objectName)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	return r0, ret.Error(1)
}

// NewMockImageStore creates a new instance of MockImageStore.
func NewMockImageStore(t interface {
	mock.TestingT
	Helper()
}) *MockImageStore {
	m := &MockImageStore{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ storage.ImageStore = (*MockImageStore)(nil)

// MockProgressPublisher is a mock type for the messaging.ProgressPublisher type
type MockProgressPublisher struct {
	mock.Mock
}

func (_m *MockProgressPublisher) PublishProgress(ctx context.Context, progress *models.GenerationProgress) error {
	ret := _m.Called(ctx, progress)
	return ret.Error(0)
}

func (_m *MockProgressPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockProgressPublisher creates a new instance of MockProgressPublisher.
func NewMockProgressPublisher(t interface {
	mock.TestingT
	Helper()
}) *MockProgressPublisher {
	m := &MockProgressPublisher{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ messaging.ProgressPublisher = (*MockProgressPublisher)(nil)
