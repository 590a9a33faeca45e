package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	conversationmodels "feedback-analyzer/backend/conversation/models"
	feedbackmodels "feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/pkg/config"
	"feedback-analyzer/backend/pkg/di"
	"feedback-analyzer/backend/pkg/health"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/router"
	"feedback-analyzer/backend/pkg/secrets"
	"feedback-analyzer/backend/shared/observability"
	"feedback-analyzer/backend/shared/redis"
	usermodels "feedback-analyzer/backend/user/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	// Set log level from environment if available
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	// Set log format from environment if available
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("Starting application", "version", os.Getenv("APP_VERSION"))

	// Tracing and the Prometheus /metrics endpoint
	shutdownTracing := observability.SetupTracing("feedback-analyzer")
	defer shutdownTracing()
	mp := observability.SetupPrometheusMetrics()
	otel.SetMeterProvider(mp)

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(
		&usermodels.User{},
		&conversationmodels.Conversation{},
		&conversationmodels.Message{},
		&feedbackmodels.Feedback{},
		&feedbackmodels.Analysis{},
	); err != nil {
		appLog.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Create indexes for better query performance
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_feedbacks_user_sentiment ON feedbacks(user_id, sentiment)").Error; err != nil {
		appLog.LogError(err, "Failed to create feedback index", "index", "idx_feedbacks_user_sentiment")
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)").Error; err != nil {
		appLog.LogError(err, "Failed to create message index", "index", "idx_messages_conversation")
	}

	// Secrets manager with env fallback for the signing key and API key
	cfg := config.Get()
	if err := secrets.Init(appLog); err != nil {
		appLog.Warn("Secrets manager unavailable, using environment variables", "error", err)
	}
	secretsCtx, cancelSecrets := context.WithTimeout(context.Background(), 10*time.Second)
	jwtSecret := secrets.GetSecretWithDefault(secretsCtx, "jwt_secret", cfg.JWT.Secret)
	cfg.Groq.APIKey = secrets.GetSecretWithDefault(secretsCtx, "groq_api_key", cfg.Groq.APIKey)
	cancelSecrets()

	// Initialize dependency injection container
	diConfig := di.DefaultConfig()
	diConfig.LoggerConfig = logConfig
	diConfig.JWTSecret = jwtSecret
	diConfig.JWTExpiry = cfg.JWT.ExpiryHours

	container, err := di.New(db, diConfig)
	if err != nil {
		appLog.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Periodic component health checks
	checker := health.NewChecker(appLog, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error { return config.TestConnection(db) })
	redisClient := redis.NewRedisClient()
	checker.RegisterCheck("redis", func() (health.Status, string, error) {
		if err := redisClient.Ping(); err != nil {
			return health.StatusDegraded, "Redis connection failed, caching disabled", err
		}
		return health.StatusUp, "Redis connection is established", nil
	})
	checker.Start()
	r.Engine.GET("/health/components", gin.WrapF(checker.HTTPHandler()))

	// Add OpenAPI validation if schema file is available
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		appLog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal
	<-quit
	appLog.Info("Shutting down server...")

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		appLog.LogError(err, "Server forced to shutdown")
	}

	appLog.Info("Server exited gracefully")
}
