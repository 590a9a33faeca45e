package di

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"feedback-analyzer/backend/agent"
	"feedback-analyzer/backend/ai"
	conversationrepo "feedback-analyzer/backend/conversation/repository"
	conversationservice "feedback-analyzer/backend/conversation/service"
	feedbackrepo "feedback-analyzer/backend/feedback/repository"
	feedbackservice "feedback-analyzer/backend/feedback/service"
	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/pkg/logger"
	userrepo "feedback-analyzer/backend/user/repository"
	userservice "feedback-analyzer/backend/user/service"
)

// Container holds all the dependencies for the application
type Container struct {
	DB               *gorm.DB
	Logger           *logger.Logger
	JWTService       *jwt.Service
	Generator        agent.TextGenerator
	FeedbackRepo     feedbackrepo.FeedbackRepository
	ConversationRepo conversationrepo.ConversationRepository
	AnalyzerService  *feedbackservice.AnalyzerService
	AnalyticsService *feedbackservice.AnalyticsService
	ChatService      *conversationservice.ChatService
	UserService      *userservice.UserService
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig logger.Config
	JWTSecret    string
	JWTExpiry    time.Duration
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig: logger.DefaultConfig(),
		JWTSecret:    "",
		JWTExpiry:    0, // Use default
	}
}

// New creates a new dependency injection container
func New(db *gorm.DB, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.New(config.LoggerConfig)

	jwtService := jwt.NewService(config.JWTSecret, config.JWTExpiry)

	// The generation client is optional. Without credentials every caller
	// degrades to its deterministic fallback path.
	var generator agent.TextGenerator
	client, err := ai.NewClient(log)
	switch {
	case err == nil:
		generator = client
	case errors.Is(err, ai.ErrNoAPIKey):
		log.Warn("No generation API key configured, analysis will use fallbacks")
		generator = ai.Disabled{}
	default:
		return nil, err
	}

	feedbackRepo := feedbackrepo.NewGormFeedbackRepository(db)
	conversationRepo := conversationrepo.NewGormConversationRepository(db)
	userRepo := userrepo.NewGormUserRepository(db)

	analyzerService := feedbackservice.NewAnalyzerService(generator, log)
	analyticsService := feedbackservice.NewAnalyticsService(feedbackRepo)
	chatService := conversationservice.NewChatService(conversationRepo, feedbackRepo, analyzerService, generator, log)
	userService := userservice.NewUserService(userRepo, jwtService)

	return &Container{
		DB:               db,
		Logger:           log,
		JWTService:       jwtService,
		Generator:        generator,
		FeedbackRepo:     feedbackRepo,
		ConversationRepo: conversationRepo,
		AnalyzerService:  analyzerService,
		AnalyticsService: analyticsService,
		ChatService:      chatService,
		UserService:      userService,
	}, nil
}
