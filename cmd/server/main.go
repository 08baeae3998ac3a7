package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storybook-server/internal/clients"
	"storybook-server/internal/config"
	"storybook-server/internal/database"
	"storybook-server/internal/handler"
	"storybook-server/internal/messaging"
	"storybook-server/internal/middleware"
	"storybook-server/internal/repository"
	"storybook-server/internal/service"
	"storybook-server/internal/storage"
	"storybook-server/pkg/logger"
)

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	log.Info("Configuration loaded", zap.String("env", cfg.Env), zap.String("logLevel", cfg.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// --- External connections ---
	pgPool, err := database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.Migrate(pgPool, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The trigger guard degrades to the database claim alone, so Redis
		// being down delays nothing at startup.
		log.Warn("Redis unavailable, trigger cooldown disabled", zap.Error(err))
	}
	defer redisClient.Close()

	progressPublisher, err := messaging.NewRabbitMQProgressPublisher(cfg.RabbitMQURL, cfg.ProgressUpdatesQueue, log)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer progressPublisher.Close()

	imageStore, err := storage.NewMinIOImageStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to MinIO", zap.Error(err))
	}

	aiClient, err := clients.NewAIClient(cfg, log)
	if err != nil {
		log.Fatal("Failed to create AI client", zap.Error(err))
	}
	imageClient := clients.NewImageClient(cfg, log)
	paymentVerifier := clients.NewPaymentClient(cfg, log)

	// --- Dependency injection ---
	orderRepo := repository.NewPgOrderRepository(pgPool, log)
	storybookRepo := repository.NewPgStorybookRepository(pgPool, log)
	chapterRepo := repository.NewPgChapterRepository(pgPool, log)
	illustrationRepo := repository.NewPgIllustrationRepository(pgPool, log)
	progressRepo := repository.NewPgProgressRepository(pgPool, log)
	triggerRepo := repository.NewRedisTriggerRepository(redisClient, log)

	tracker := service.NewProgressTracker(progressRepo, progressPublisher, log)
	outlineGenerator := service.NewOutlineGenerator(aiClient, log)
	chapterWriter := service.NewChapterWriter(aiClient, log)
	illustrator := service.NewIllustrationRequester(imageClient, imageStore, illustrationRepo, cfg, log)
	guard := service.NewTriggerGuard(orderRepo, storybookRepo, triggerRepo, tracker, cfg.TriggerCooldown, log)
	orchestrator := service.NewOrchestrator(
		orderRepo, storybookRepo, chapterRepo,
		paymentVerifier, outlineGenerator, chapterWriter, illustrator,
		tracker, log,
	)
	svc := service.NewStorybookService(orderRepo, storybookRepo, paymentVerifier, guard, orchestrator, tracker, log)
	httpHandler := handler.NewHTTPHandler(svc, log)

	// --- Background workers ---
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := service.NewStaleRunSweeper(orderRepo, cfg.StaleRunThreshold, cfg.StaleSweepInterval, log)
	go sweeper.Start(sweeperCtx)

	// --- HTTP server ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLoggingMiddleware(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		log.Info("CORS_ALLOWED_ORIGINS not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	httpHandler.RegisterRoutes(router)

	// Prometheus middleware attaches after the routes are registered so the
	// route labels resolve correctly.
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Starting HTTP server", zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exiting")
}
