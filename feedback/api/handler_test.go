package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/feedback/repository"
	"feedback-analyzer/backend/feedback/service"
	"feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/jwt"
	"feedback-analyzer/backend/pkg/logger"
)

func newAnalyticsRouter(t *testing.T) (*gin.Engine, repository.FeedbackRepository, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Feedback{}, &models.Analysis{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	log := logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
	repo := repository.NewGormFeedbackRepository(db)
	tokens := jwt.NewService("test-secret", time.Hour)
	handler := NewAnalyticsHandler(service.NewAnalyticsService(repo), log)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("logger", log)
		c.Next()
	})
	r.Use(errors.ErrorHandler())
	RegisterAnalyticsRoutes(r, handler, tokens, log)
	return r, repo, tokens
}

func authedRequest(t *testing.T, tokens *jwt.Service, method, target string) *http.Request {
	t.Helper()
	token, err := tokens.GenerateToken(1, "user@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAnalytics_RequiresAuth(t *testing.T) {
	r, _, _ := newAnalyticsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analytics/summary", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnalytics_SummaryCountsFeedback(t *testing.T) {
	r, repo, tokens := newAnalyticsRouter(t)

	require.NoError(t, repo.BulkCreate([]models.Feedback{
		{UserID: 1, Content: "The app is great and I love the new design", Sentiment: models.SentimentPositive, SentimentScore: 0.9},
		{UserID: 1, Content: "Crashes constantly after the last update", Sentiment: models.SentimentNegative, SentimentScore: 0.1},
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, "/analytics/summary"))

	require.Equal(t, http.StatusOK, w.Code)
	var summary service.AnalyticsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalFeedbacks)
	assert.Equal(t, 50, summary.SatisfactionIndex)
}

func TestAnalytics_StatsAggregates(t *testing.T) {
	r, repo, tokens := newAnalyticsRouter(t)

	require.NoError(t, repo.BulkCreate([]models.Feedback{
		{UserID: 1, Content: "Search finally feels instant", Sentiment: models.SentimentPositive, SentimentScore: 1.0, Themes: []string{"search"}},
		{UserID: 1, Content: "Search ignores my saved filters", Sentiment: models.SentimentNegative, SentimentScore: 0.0, Themes: []string{"search"}},
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, "/analytics/stats"))

	require.Equal(t, http.StatusOK, w.Code)
	var stats service.UserStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalFeedbacks)
	assert.InDelta(t, 0.5, stats.AverageSatisfaction, 0.0001)
	assert.Equal(t, 1, stats.SentimentDistribution[models.SentimentPositive])
	require.Len(t, stats.TopThemes, 1)
	assert.Equal(t, "search", stats.TopThemes[0].Theme)
}

func TestAnalytics_HistoryRejectsBadLimit(t *testing.T) {
	r, _, tokens := newAnalyticsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, "/analytics/history?limit=zero"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalytics_RecommendationsEmpty(t *testing.T) {
	r, _, tokens := newAnalyticsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, tokens, http.MethodGet, "/analytics/recommendations"))

	require.Equal(t, http.StatusOK, w.Code)
	var recs service.Recommendations
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	assert.Empty(t, recs.High)
	assert.Empty(t, recs.Critical)
}
