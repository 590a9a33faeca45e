package api

import (
	"github.com/gin-gonic/gin"

	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"
)

// RegisterAnalyticsRoutes mounts the analytics endpoints.
func RegisterAnalyticsRoutes(r gin.IRouter, handler *AnalyticsHandler, jwtService *jwt.Service, log *logger.Logger) {
	analytics := r.Group("/analytics")
	analytics.Use(middleware.JWTAuthMiddleware(jwtService, log))
	{
		analytics.GET("/summary", handler.Summary)
		analytics.GET("/stats", handler.Stats)
		analytics.GET("/themes", handler.Themes)
		analytics.GET("/history", handler.History)
		analytics.GET("/recommendations", handler.Recommendations)
	}
}
