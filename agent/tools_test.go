package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/feedback/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newRouterFixture(t *testing.T) (*QueryRouter, repository.FeedbackRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:agent_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Feedback{}, &models.Analysis{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	repo := repository.NewGormFeedbackRepository(db)
	return NewQueryRouter(repo, 1), repo
}

func decodeResult(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestQueryRouter_AllFeedbacks(t *testing.T) {
	router, repo := newRouterFixture(t)

	out := decodeResult(t, router.Execute(OpAllFeedbacks, Args{}))
	assert.Equal(t, "no_data", out["status"])

	long := strings.Repeat("x", 400)
	require.NoError(t, repo.BulkCreate([]models.Feedback{
		{UserID: 1, Content: long, Sentiment: models.SentimentNeutral},
		{UserID: 1, Content: "short one", Sentiment: models.SentimentPositive, Themes: []string{"ui"}},
		{UserID: 2, Content: "someone else's", Sentiment: models.SentimentNegative},
	}))

	out = decodeResult(t, router.Execute(OpAllFeedbacks, Args{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, float64(2), out["total"])

	feedbacks := out["feedbacks"].([]any)
	for _, raw := range feedbacks {
		item := raw.(map[string]any)
		assert.LessOrEqual(t, len(item["content"].(string)), 300)
	}

	counts := out["sentiment_counts"].(map[string]any)
	assert.Equal(t, float64(1), counts[models.SentimentPositive])
	assert.Equal(t, float64(1), counts[models.SentimentNeutral])
	assert.Equal(t, float64(0), counts[models.SentimentNegative])
}

func TestQueryRouter_NegativeFeedbacks(t *testing.T) {
	router, repo := newRouterFixture(t)

	out := decodeResult(t, router.Execute(OpNegativeFeedbacks, Args{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, float64(0), out["total"])
	assert.Contains(t, out["message"], "No purely negative")

	require.NoError(t, repo.BulkCreate([]models.Feedback{
		{UserID: 1, Content: "it crashes constantly", Sentiment: models.SentimentNegative},
		{UserID: 1, Content: "love it", Sentiment: models.SentimentPositive},
	}))

	out = decodeResult(t, router.Execute(OpNegativeFeedbacks, Args{}))
	assert.Equal(t, float64(1), out["total"])
}

func TestQueryRouter_PositiveFallsBackToAnalysis(t *testing.T) {
	router, repo := newRouterFixture(t)

	// No rows and no analysis: plain empty result.
	out := decodeResult(t, router.Execute(OpPositiveFeedbacks, Args{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, float64(0), out["total"])

	// An analysis that counted positives stands in for missing rows.
	require.NoError(t, repo.SaveAnalysis(&models.Analysis{
		UserID: 1, FeedbackCount: 10,
		Result: models.AnalysisResult{
			TotalFeedbacksAnalyzed: 10,
			SentimentDistribution:  models.SentimentDistribution{Positive: 7, Negative: 3},
		},
	}))

	out = decodeResult(t, router.Execute(OpPositiveFeedbacks, Args{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, float64(7), out["total_positive"])
	assert.Equal(t, float64(10), out["total_analyzed"])
	assert.Equal(t, float64(70), out["positive_percentage"])
	assert.Empty(t, out["feedbacks"])

	// Actual positive rows win over the analysis fallback.
	require.NoError(t, repo.Create(&models.Feedback{
		UserID: 1, Content: "smooth upgrade", Sentiment: models.SentimentPositive,
	}))
	out = decodeResult(t, router.Execute(OpPositiveFeedbacks, Args{}))
	assert.Equal(t, float64(1), out["total"])
}

func TestQueryRouter_MixedFeedbacksEmptyIsSuccess(t *testing.T) {
	router, _ := newRouterFixture(t)

	out := decodeResult(t, router.Execute(OpMixedFeedbacks, Args{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, float64(0), out["total"])
}

func TestQueryRouter_AnalyticsSummary(t *testing.T) {
	router, repo := newRouterFixture(t)

	out := decodeResult(t, router.Execute(OpAnalyticsSummary, Args{}))
	assert.Equal(t, "no_data", out["status"])

	require.NoError(t, repo.SaveAnalysis(&models.Analysis{
		UserID: 1, FeedbackCount: 4,
		Result: models.AnalysisResult{
			TotalFeedbacksAnalyzed: 4,
			OverallSentiment:       models.SentimentMixed,
			SatisfactionIndex:      0.62,
			SentimentDistribution:  models.SentimentDistribution{Positive: 2, Negative: 2},
			Themes: []models.ThemeSummary{
				{Theme: "performance", Count: 3, Sentiment: models.SentimentNegative},
			},
			ChatResponse: "Analyzed 4 feedbacks.",
		},
	}))

	out = decodeResult(t, router.Execute(OpAnalyticsSummary, Args{}))
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, float64(62), out["satisfaction_index"])
	assert.Equal(t, "mixed", out["overall_sentiment"])
	assert.Equal(t, float64(4), out["total_feedbacks"])

	themes := out["top_themes"].([]any)
	require.Len(t, themes, 1)
	assert.Equal(t, "performance", themes[0].(map[string]any)["theme"])
}

func TestQueryRouter_ThemeAnalysis(t *testing.T) {
	router, repo := newRouterFixture(t)

	require.NoError(t, repo.BulkCreate([]models.Feedback{
		{UserID: 1, Content: "a", Sentiment: models.SentimentNegative, Themes: []string{"performance", "ui"}},
		{UserID: 1, Content: "b", Sentiment: models.SentimentNegative, Themes: []string{"performance"}},
		{UserID: 1, Content: "c", Sentiment: models.SentimentPositive, Themes: []string{"ui"}},
	}))

	out := decodeResult(t, router.Execute(OpThemeAnalysis, Args{}))
	assert.Equal(t, float64(3), out["total_feedbacks"])
	themes := out["themes"].([]any)
	require.Len(t, themes, 2)
	first := themes[0].(map[string]any)
	assert.Equal(t, "performance", first["theme"])
	assert.Equal(t, float64(2), first["count"])

	out = decodeResult(t, router.Execute(OpThemeAnalysis, Args{Theme: "UI"}))
	assert.Equal(t, float64(2), out["total_feedbacks"])
}

func TestQueryRouter_FeatureSuggestions(t *testing.T) {
	router, repo := newRouterFixture(t)

	out := decodeResult(t, router.Execute(OpFeatureSuggestions, Args{}))
	assert.Equal(t, "no_data", out["status"])

	require.NoError(t, repo.SaveAnalysis(&models.Analysis{
		UserID: 1, FeedbackCount: 3,
		Result: models.AnalysisResult{
			FeatureSuggestions: []models.FeatureSuggestion{
				{Feature: "fix sync", Priority: "CRITICAL", Reasoning: "data loss", AffectedUsers: 12},
				{Feature: "offline mode", Priority: models.PriorityLow},
				{Feature: "dropped", Priority: "someday"},
			},
		},
	}))

	out = decodeResult(t, router.Execute(OpFeatureSuggestions, Args{}))
	assert.Equal(t, "success", out["status"])
	grouped := out["prioritized_features"].(map[string]any)
	assert.Len(t, grouped["critical"].([]any), 1)
	assert.Len(t, grouped["low"].([]any), 1)
	assert.Empty(t, grouped["medium"])
}

func TestQueryRouter_UnknownOperation(t *testing.T) {
	router, _ := newRouterFixture(t)

	out := decodeResult(t, router.Execute(Operation("drop_tables"), Args{}))
	assert.Equal(t, "error", out["status"])
	assert.False(t, IsKnownOperation(Operation("drop_tables")))
	assert.True(t, IsKnownOperation(OpAllFeedbacks))
}
