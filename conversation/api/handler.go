package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"feedback-analyzer/backend/conversation/service"
	feedbackservice "feedback-analyzer/backend/feedback/service"
	"feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	service *service.ChatService
	log     *logger.Logger
}

func NewChatHandler(service *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{service: service, log: log}
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type textAnalysisRequest struct {
	Reviews []string `json:"reviews" binding:"required"`
}

// Chat handles one conversational turn. Processing failures degrade to a
// friendly reply instead of an error status so the conversation survives.
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.Error(errors.NewBadRequestError("EMPTY_MESSAGE", "Message cannot be empty"))
		return
	}

	result, err := h.service.ProcessMessage(c.Request.Context(), userID, req.Message, req.ConversationID)
	if err != nil {
		h.log.LogError(err, "chat turn failed", "user_id", userID)
		conversationID := req.ConversationID
		if conversationID == "" {
			conversationID = "error"
		}
		c.JSON(http.StatusOK, gin.H{
			"conversation_id": conversationID,
			"response": "I had trouble processing that request. " +
				"Please try rephrasing your question, or ask something like: " +
				"'What are the main complaints?' or 'Show me satisfaction score'.",
			"analysis":    nil,
			"is_question": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": result.ConversationID,
		"response":        result.Response,
		"analysis":        result.Analysis,
		"is_question":     result.IsQuestion,
	})
}

// Upload ingests a CSV of feedback. Structural problems with the file are
// client errors; everything past extraction follows the chat pipeline.
func (h *ChatHandler) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.NewBadRequestError("MISSING_FILE", "A CSV file is required"))
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		c.Error(errors.NewBadRequestError("UNSUPPORTED_FILE", "Only CSV files are supported"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.NewBadRequestError("UNREADABLE_FILE", "Could not read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(errors.NewBadRequestError("UNREADABLE_FILE", "Could not read uploaded file"))
		return
	}

	reviews, err := extractFeedbackColumn(data)
	if err != nil {
		c.Error(errors.NewBadRequestError("INVALID_CSV", err.Error()))
		return
	}

	result, err := h.service.ProcessCSVUpload(
		c.Request.Context(), userID, reviews, fileHeader.Filename, c.PostForm("conversation_id"))
	if err != nil {
		h.log.LogError(err, "csv upload failed", "user_id", userID, "filename", fileHeader.Filename)
		c.Error(errors.NewInternalServerError("UPLOAD_FAILED", "Upload processing failed"))
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalyzeText runs a direct analysis over a list of reviews.
func (h *ChatHandler) AnalyzeText(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req textAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Reviews) == 0 {
		c.Error(errors.NewBadRequestError("NO_REVIEWS", "No reviews provided"))
		return
	}

	analysis, err := h.service.AnalyzeReviews(c.Request.Context(), userID, req.Reviews)
	if err != nil {
		h.log.LogError(err, "text analysis failed", "user_id", userID)
		c.Error(errors.NewInternalServerError("ANALYSIS_FAILED", "Analysis failed"))
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// QuickSentiment classifies a single text without touching the model.
func (h *ChatHandler) QuickSentiment(c *gin.Context) {
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		c.Error(errors.NewBadRequestError("EMPTY_TEXT", "Text cannot be empty"))
		return
	}

	sentiment, confidence := feedbackservice.KeywordSentiment(text)

	preview := text
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	c.JSON(http.StatusOK, gin.H{
		"text":       preview,
		"sentiment":  sentiment,
		"confidence": confidence,
	})
}

// ListConversations returns the user's conversations, newest activity first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.Error(errors.NewBadRequestError("INVALID_LIMIT", "Limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	conversations, err := h.service.ListConversations(userID, limit)
	if err != nil {
		c.Error(errors.NewInternalServerError("LIST_FAILED", "Could not list conversations"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// ConversationFeedback returns the feedback rows stored for a conversation.
func (h *ChatHandler) ConversationFeedback(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	feedbacks, err := h.service.ConversationFeedback(userID, c.Param("id"))
	if err != nil {
		c.Error(errors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedbacks": feedbacks})
}

// ConversationMessages returns one conversation's messages oldest first.
func (h *ChatHandler) ConversationMessages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	messages, err := h.service.ConversationMessages(userID, c.Param("id"), 0)
	if err != nil {
		c.Error(errors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
