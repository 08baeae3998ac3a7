package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"storybook-server/internal/config"
	"storybook-server/internal/models"
)

// ImageStore copies ephemeral provider URLs into permanent object storage.
// Diffusion APIs expire their result URLs within hours, so every illustration
// is re-hosted before it lands in the book content.
type ImageStore interface {
	Persist(ctx context.Context, ephemeralURL string, objectName string) (string, error)
}

type minioImageStore struct {
	client     *minio.Client
	bucket     string
	publicURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMinIOImageStore connects to MinIO and ensures the illustration bucket
// exists.
func NewMinIOImageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ImageStore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinIOBucket, err)
		}
		logger.Info("Created illustration bucket", zap.String("bucket", cfg.MinIOBucket))
	}

	publicURL := cfg.MinIOPublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.MinIOUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.MinIOEndpoint)
	}

	return &minioImageStore{
		client:     client,
		bucket:     cfg.MinIOBucket,
		publicURL:  publicURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.Named("MinIOImageStore"),
	}, nil
}

var _ ImageStore = (*minioImageStore)(nil)

func (s *minioImageStore) Persist(ctx context.Context, ephemeralURL string, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ephemeralURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to download %s: %v", models.ErrStorageUploadFailure, ephemeralURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: image download status %d", models.ErrStorageUploadFailure, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read image bytes: %v", models.ErrStorageUploadFailure, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload %s: %v", models.ErrStorageUploadFailure, objectName, err)
	}

	permanentURL := fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName)
	s.logger.Debug("Illustration persisted",
		zap.String("object", objectName),
		zap.Int("bytes", len(data)),
	)
	return permanentURL, nil
}
