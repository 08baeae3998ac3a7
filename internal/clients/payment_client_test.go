package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
)

func newPaymentTestClient(t *testing.T, handler http.HandlerFunc) PaymentVerifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		PaymentAPIBaseURL: server.URL,
		PaymentAPITimeout: 5 * time.Second,
		PaymentAPIKey:     "sk_test",
	}
	return NewPaymentClient(cfg, zap.NewNop())
}

func TestPaymentClientVerifySession(t *testing.T) {
	ctx := context.Background()

	t.Run("Paid session", func(t *testing.T) {
		client := newPaymentTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/checkout/sessions/cs_123", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"id":             "cs_123",
				"payment_status": "paid",
				"amount_total":   "29.00",
				"currency":       "eur",
			})
		})

		session, err := client.VerifySession(ctx, "cs_123")
		require.NoError(t, err)
		assert.True(t, session.Paid())
		assert.Equal(t, "cs_123", session.ID)
	})

	t.Run("Unpaid session", func(t *testing.T) {
		client := newPaymentTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":             "cs_456",
				"payment_status": "unpaid",
			})
		})

		session, err := client.VerifySession(ctx, "cs_456")
		require.NoError(t, err)
		assert.False(t, session.Paid())
	})

	t.Run("Unknown session is not verified", func(t *testing.T) {
		client := newPaymentTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		})

		_, err := client.VerifySession(ctx, "cs_missing")
		assert.ErrorIs(t, err, models.ErrPaymentNotVerified)
	})

	t.Run("Provider error surfaces as a plain error", func(t *testing.T) {
		client := newPaymentTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		_, err := client.VerifySession(ctx, "cs_123")
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrPaymentNotVerified)
	})
}
