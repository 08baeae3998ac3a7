package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
)

// CheckoutSession is the provider-side view of a payment session.
type CheckoutSession struct {
	ID            string          `json:"id"`
	PaymentStatus string          `json:"payment_status"`
	AmountTotal   decimal.Decimal `json:"amount_total"`
	Currency      string          `json:"currency"`
}

// Paid reports whether the session settled.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

// PaymentVerifier checks the status of a checkout session against the payment
// provider. Generation must never start on an unverified payment.
type PaymentVerifier interface {
	VerifySession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

type httpPaymentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPaymentClient creates an HTTP-backed PaymentVerifier.
func NewPaymentClient(cfg *config.Config, logger *zap.Logger) PaymentVerifier {
	return &httpPaymentClient{
		baseURL:    cfg.PaymentAPIBaseURL,
		apiKey:     cfg.PaymentAPIKey,
		httpClient: &http.Client{Timeout: cfg.PaymentAPITimeout},
		logger:     logger.Named("PaymentClient"),
	}
}

var _ PaymentVerifier = (*httpPaymentClient)(nil)

func (c *httpPaymentClient) VerifySession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build payment verification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Payment provider request failed", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to reach payment provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read payment provider response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: checkout session %s not found", models.ErrPaymentNotVerified, sessionID)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Payment provider returned non-success status",
			zap.String("sessionID", sessionID),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("payment provider status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &session, nil
}
