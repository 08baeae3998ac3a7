package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
)

var (
	imageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storybook_image_requests_total",
			Help: "Total number of requests to the image generation API.",
		},
		[]string{"status"},
	)
	imageRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storybook_image_request_duration_seconds",
			Help:    "Histogram of image generation request durations.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// ImageRequest describes a single illustration to render. Seed keeps character
// appearance stable across every image of one book.
type ImageRequest struct {
	Prompt        string `json:"prompt"`
	Seed          int64  `json:"seed"`
	AspectRatio   string `json:"aspect_ratio"`
	OutputFormat  string `json:"output_format"`
	OutputQuality int    `json:"output_quality"`
}

// ImageClient renders illustrations through an external diffusion API and
// returns an ephemeral URL of the produced image.
type ImageClient interface {
	Generate(ctx context.Context, req ImageRequest) (string, error)
}

type httpImageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewImageClient creates an HTTP-backed ImageClient.
func NewImageClient(cfg *config.Config, logger *zap.Logger) ImageClient {
	return &httpImageClient{
		baseURL:    cfg.ImageAPIBaseURL,
		apiKey:     cfg.ImageAPIKey,
		httpClient: &http.Client{Timeout: cfg.ImageAPITimeout},
		logger:     logger.Named("ImageClient"),
	}
}

var _ ImageClient = (*httpImageClient)(nil)

func (c *httpImageClient) Generate(ctx context.Context, req ImageRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Error("Image API request failed", zap.Duration("duration", duration), zap.Error(err))
		imageRequestsTotal.With(prometheus.Labels{"status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", models.ErrUpstreamGenerationFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		imageRequestsTotal.With(prometheus.Labels{"status": "error"}).Inc()
		return "", fmt.Errorf("%w: failed to read image API response: %v", models.ErrUpstreamGenerationFailure, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("Image API returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
			zap.ByteString("body", truncate(respBody, 512)),
		)
		imageRequestsTotal.With(prometheus.Labels{"status": fmt.Sprintf("http_%d", resp.StatusCode)}).Inc()
		return "", fmt.Errorf("%w: image API status %d", models.ErrUpstreamGenerationFailure, resp.StatusCode)
	}

	imageURL, err := extractImageURL(respBody)
	if err != nil {
		imageRequestsTotal.With(prometheus.Labels{"status": "malformed"}).Inc()
		return "", err
	}

	imageRequestsTotal.With(prometheus.Labels{"status": "success"}).Inc()
	imageRequestDuration.Observe(duration.Seconds())
	c.logger.Debug("Image generated", zap.Duration("duration", duration), zap.String("url", imageURL))
	return imageURL, nil
}

// extractImageURL normalizes the response shapes diffusion backends are known
// to return: a bare JSON string, an array of URLs, or an object keyed by
// "url", "image_url" or "output".
func extractImageURL(body []byte) (string, error) {
	var asString string
	if err := json.Unmarshal(body, &asString); err == nil && asString != "" {
		return asString, nil
	}

	var asArray []string
	if err := json.Unmarshal(body, &asArray); err == nil && len(asArray) > 0 && asArray[0] != "" {
		return asArray[0], nil
	}

	var asObject struct {
		URL      string   `json:"url"`
		ImageURL string   `json:"image_url"`
		Output   []string `json:"output"`
	}
	if err := json.Unmarshal(body, &asObject); err == nil {
		switch {
		case asObject.URL != "":
			return asObject.URL, nil
		case asObject.ImageURL != "":
			return asObject.ImageURL, nil
		case len(asObject.Output) > 0 && asObject.Output[0] != "":
			return asObject.Output[0], nil
		}
	}

	return "", fmt.Errorf("%w: image API response carries no image URL", models.ErrMalformedResponse)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
