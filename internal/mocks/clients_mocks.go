package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storybook-server/internal/clients"
)

// MockAIClient is a mock type for the clients.AIClient type
type MockAIClient struct {
	mock.Mock
}

func (_m *MockAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string) (string, clients.UsageInfo, error) {
	ret := _m.Called(ctx, systemPrompt, userInput)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	var r1 clients.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(clients.UsageInfo)
	}
	return r0, r1, ret.Error(2)
}

// NewMockAIClient creates a new instance of MockAIClient and registers the
// testing interface on it.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ clients.AIClient = (*MockAIClient)(nil)

// MockImageClient is a mock type for the clients.ImageClient type
type MockImageClient struct {
	mock.Mock
}

func (_m *MockImageClient) Generate(ctx context.Context, req clients.ImageRequest) (string, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}
	return r0, ret.Error(1)
}

// NewMockImageClient creates a new instance of MockImageClient.
func NewMockImageClient(t interface {
	mock.TestingT
	Helper()
}) *MockImageClient {
	m := &MockImageClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ clients.ImageClient = (*MockImageClient)(nil)

// MockPaymentVerifier is a mock type for the clients.PaymentVerifier type
type MockPaymentVerifier struct {
	mock.Mock
}

func (_m *MockPaymentVerifier) VerifySession(ctx context.Context, sessionID string) (*clients.CheckoutSession, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *clients.CheckoutSession
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*clients.CheckoutSession)
	}
	return r0, ret.Error(1)
}

// NewMockPaymentVerifier creates a new instance of MockPaymentVerifier.
func NewMockPaymentVerifier(t interface {
	mock.TestingT
	Helper()
}) *MockPaymentVerifier {
	m := &MockPaymentVerifier{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ clients.PaymentVerifier = (*MockPaymentVerifier)(nil)
