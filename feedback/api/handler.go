package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"feedback-analyzer/backend/feedback/service"
	"feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"
)

const defaultHistoryLimit = 10

// AnalyticsHandler exposes the aggregate analytics endpoints.
type AnalyticsHandler struct {
	service *service.AnalyticsService
	log     *logger.Logger
}

func NewAnalyticsHandler(service *service.AnalyticsService, log *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, log: log}
}

// Summary returns the cumulative analytics snapshot for the user.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	summary, err := h.service.Summary(userID)
	if err != nil {
		h.log.LogError(err, "analytics summary failed", "user_id", userID)
		c.Error(errors.NewInternalServerError("ANALYTICS_FAILED", "Failed to compute analytics"))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Themes returns per-theme sentiment breakdowns with examples.
func (h *AnalyticsHandler) Themes(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	breakdown, err := h.service.ThemeBreakdown(userID)
	if err != nil {
		h.log.LogError(err, "theme breakdown failed", "user_id", userID)
		c.Error(errors.NewInternalServerError("ANALYTICS_FAILED", "Failed to compute theme breakdown"))
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// History returns recent analysis runs and the satisfaction trend.
func (h *AnalyticsHandler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.Error(errors.NewBadRequestError("INVALID_LIMIT", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	history, err := h.service.Historical(userID, limit)
	if err != nil {
		h.log.LogError(err, "analytics history failed", "user_id", userID)
		c.Error(errors.NewInternalServerError("ANALYTICS_FAILED", "Failed to compute history"))
		return
	}
	c.JSON(http.StatusOK, history)
}

// Stats returns raw per-user aggregates over the stored feedback.
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	stats, err := h.service.UserStats(userID)
	if err != nil {
		h.log.LogError(err, "user stats failed", "user_id", userID)
		c.Error(errors.NewInternalServerError("ANALYTICS_FAILED", "Failed to compute stats"))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Recommendations returns prioritized improvement suggestions.
func (h *AnalyticsHandler) Recommendations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	recs, err := h.service.Recommendations(userID)
	if err != nil {
		h.log.LogError(err, "recommendations failed", "user_id", userID)
		c.Error(errors.NewInternalServerError("ANALYTICS_FAILED", "Failed to compute recommendations"))
		return
	}
	c.JSON(http.StatusOK, recs)
}
