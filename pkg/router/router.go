package router

import (
	"time"

	"github.com/gin-gonic/gin"

	conversationapi "feedback-analyzer/backend/conversation/api"
	feedbackapi "feedback-analyzer/backend/feedback/api"
	"feedback-analyzer/backend/pkg/config"
	"feedback-analyzer/backend/pkg/di"
	"feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"
	userapi "feedback-analyzer/backend/user/api"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Load configuration
	cfg := config.New()

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Propagate request IDs into downstream contexts
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.ContextPropagationMiddleware())

	// Create rate limiter with default options
	rateLimiter := middleware.NewRateLimiter(container.Logger)

	// Apply rate limiting to all routes
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Add CORS middleware
	r.Engine.Use(corsMiddleware())

	// Initialize handlers
	userHandler := userapi.NewUserHandler(r.Container.UserService, r.Logger)
	chatHandler := conversationapi.NewChatHandler(r.Container.ChatService, r.Logger)
	analyticsHandler := feedbackapi.NewAnalyticsHandler(r.Container.AnalyticsService, r.Logger)

	// API version 1 routes
	v1 := r.Engine.Group("/api/v1")

	userapi.RegisterUserRoutes(v1, userHandler, r.Container.JWTService, r.Logger)
	conversationapi.RegisterChatRoutes(v1, chatHandler, r.Container.JWTService, r.Logger)
	feedbackapi.RegisterAnalyticsRoutes(v1, analyticsHandler, r.Container.JWTService, r.Logger)

	// Health endpoints live outside the versioned group
	r.setupHealthRoutes()
}

// CORS middleware allowing browser clients to reach the API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
