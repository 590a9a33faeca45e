package api

import (
	"github.com/gin-gonic/gin"

	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"
)

// RegisterUserRoutes mounts the authentication endpoints.
func RegisterUserRoutes(r gin.IRouter, handler *UserHandler, jwtService *jwt.Service, log *logger.Logger) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", handler.Signup)
		auth.POST("/login", handler.Login)
		auth.GET("/me", middleware.JWTAuthMiddleware(jwtService, log), handler.Me)
	}
}
