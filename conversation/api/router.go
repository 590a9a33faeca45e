package api

import (
	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes mounts the analysis and conversation endpoints.
func RegisterChatRoutes(r gin.IRouter, handler *ChatHandler, jwtService *jwt.Service, log *logger.Logger) {
	auth := middleware.JWTAuthMiddleware(jwtService, log)

	analyze := r.Group("/analyze")
	analyze.Use(auth)
	{
		analyze.POST("/chat", handler.Chat)
		analyze.POST("/upload", handler.Upload)
		analyze.POST("/text", handler.AnalyzeText)
		analyze.GET("/quick-sentiment", handler.QuickSentiment)
	}

	conversations := r.Group("/conversations")
	conversations.Use(auth)
	{
		conversations.GET("", handler.ListConversations)
		conversations.GET("/:id/messages", handler.ConversationMessages)
		conversations.GET("/:id/feedback", handler.ConversationFeedback)
	}
}
