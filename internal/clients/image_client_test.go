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

func newImageTestClient(t *testing.T, handler http.HandlerFunc) (ImageClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		ImageAPIBaseURL: server.URL,
		ImageAPITimeout: 5 * time.Second,
		ImageAPIKey:     "test-key",
	}
	return NewImageClient(cfg, zap.NewNop()), server
}

func TestImageClientGenerate(t *testing.T) {
	ctx := context.Background()
	req := ImageRequest{
		Prompt:        "a lighthouse at dusk",
		Seed:          42,
		AspectRatio:   "3:2",
		OutputFormat:  "jpg",
		OutputQuality: 90,
	}

	t.Run("Bare string response", func(t *testing.T) {
		client, _ := newImageTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var received ImageRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			assert.Equal(t, int64(42), received.Seed)

			json.NewEncoder(w).Encode("https://img.example.com/a.jpg")
		})

		url, err := client.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/a.jpg", url)
	})

	t.Run("Array response takes the first entry", func(t *testing.T) {
		client, _ := newImageTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"})
		})

		url, err := client.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/a.jpg", url)
	})

	t.Run("Object response with url key", func(t *testing.T) {
		client, _ := newImageTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"url": "https://img.example.com/a.jpg"})
		})

		url, err := client.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/a.jpg", url)
	})

	t.Run("Object response with output array", func(t *testing.T) {
		client, _ := newImageTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string][]string{"output": {"https://img.example.com/a.jpg"}})
		})

		url, err := client.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/a.jpg", url)
	})

	t.Run("Response without a URL is malformed", func(t *testing.T) {
		client, _ := newImageTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "done"})
		})

		_, err := client.Generate(ctx, req)
		assert.ErrorIs(t, err, models.ErrMalformedResponse)
	})

	t.Run("Provider error status is an upstream failure", func(t *testing.T) {
		client, _ := newImageTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})

		_, err := client.Generate(ctx, req)
		assert.ErrorIs(t, err, models.ErrUpstreamGenerationFailure)
	})
}
