package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"storybook-server/internal/utils"
)

// Config holds the storybook server configuration. Secrets (DB password,
// provider API keys) are loaded from Docker Secrets with an env fallback and
// deliberately carry no envconfig tag.
type Config struct {
	Port     string `envconfig:"SERVER_PORT" default:"8080"`
	Env      string `envconfig:"ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// PostgreSQL
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBPassword string

	// Redis holds the trigger-guard cooldown markers.
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	TriggerCooldown time.Duration `envconfig:"GENERATION_TRIGGER_COOLDOWN" default:"30s"`

	// RabbitMQ carries realtime progress updates to interested clients.
	RabbitMQURL          string `envconfig:"RABBITMQ_URL" required:"true"`
	ProgressUpdatesQueue string `envconfig:"PROGRESS_UPDATES_QUEUE" default:"storybook_progress_updates"`

	// AI text provider
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel      string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIAPIKey     string

	// Image generation provider
	ImageAPIBaseURL        string        `envconfig:"IMAGE_API_BASE_URL" required:"true"`
	ImageAPITimeout        time.Duration `envconfig:"IMAGE_API_TIMEOUT" default:"180s"`
	ImageAspectRatio       string        `envconfig:"IMAGE_ASPECT_RATIO" default:"3:2"`
	ImageOutputFormat      string        `envconfig:"IMAGE_OUTPUT_FORMAT" default:"jpg"`
	ImageOutputQuality     int           `envconfig:"IMAGE_OUTPUT_QUALITY" default:"90"`
	ImagePromptStyleSuffix string        `envconfig:"IMAGE_PROMPT_STYLE_SUFFIX" default:", children's book illustration, warm colors, soft lighting"`
	ImageAPIKey            string

	// Payment provider (checkout session verification)
	PaymentAPIBaseURL string        `envconfig:"PAYMENT_API_BASE_URL" required:"true"`
	PaymentAPITimeout time.Duration `envconfig:"PAYMENT_API_TIMEOUT" default:"30s"`
	PaymentAPIKey     string

	// MinIO (permanent illustration storage)
	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT" required:"true"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY" required:"true"`
	MinIOBucket    string `envconfig:"MINIO_BUCKET" default:"storybook-illustrations"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinIOPublicURL string `envconfig:"MINIO_PUBLIC_URL"`
	MinIOSecretKey string

	// Orders stuck in generating longer than StaleRunThreshold are flipped
	// to failed by the sweeper so buyers are not left polling forever.
	StaleRunThreshold  time.Duration `envconfig:"STALE_RUN_THRESHOLD" default:"30m"`
	StaleSweepInterval time.Duration `envconfig:"STALE_SWEEP_INTERVAL" default:"5m"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Load reads configuration from environment variables and secret files.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load storybook-server configuration: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecretOrEnv("db_password", "DB_PASSWORD")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.AIAPIKey, loadErr = utils.ReadSecretOrEnv("ai_api_key", "AI_API_KEY")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.ImageAPIKey, loadErr = utils.ReadSecretOrEnv("image_api_key", "IMAGE_API_KEY")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.PaymentAPIKey, loadErr = utils.ReadSecretOrEnv("payment_api_key", "PAYMENT_API_KEY")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.MinIOSecretKey, loadErr = utils.ReadSecretOrEnv("minio_secret_key", "MINIO_SECRET_KEY")
	if loadErr != nil {
		return nil, loadErr
	}

	return &cfg, nil
}
