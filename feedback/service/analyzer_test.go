package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"feedback-analyzer/backend/ai"
	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) Complete(_ context.Context, messages []ai.ChatMessage, _ ai.CompletionOptions) (string, error) {
	if len(messages) > 0 {
		s.lastPrompt = messages[len(messages)-1].Content
	}
	return s.response, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
}

const validAnalysisJSON = `{
	"total_feedbacks_analyzed": 2,
	"overall_sentiment": "mixed",
	"satisfaction_index": 0.6,
	"sentiment_distribution": {"positive": 1, "neutral": 0, "negative": 1, "mixed": 0},
	"total_themes_detected": 1,
	"themes": [{"theme": "performance", "count": 2, "sentiment": "negative", "examples": ["slow loading"], "percentage": 100, "satisfaction": 70}],
	"key_features_count": 1,
	"feature_suggestions": [{"feature": "faster sync", "priority": "high", "reasoning": "complaints", "affected_users": 2, "impact_score": 7.5}],
	"chat_response": "Analyzed 2 feedback/s. Mixed sentiment (60% satisfaction)."
}`

func TestAnalyzerService_ParsesAndRepairs(t *testing.T) {
	gen := &stubGenerator{response: validAnalysisJSON}
	svc := NewAnalyzerService(gen, testLogger())

	result := svc.AnalyzeFeedback(context.Background(), []string{
		"the dashboard loads slowly",
		"the new editor is great",
	})

	require.NotNil(t, result)
	assert.Equal(t, 2, result.TotalFeedbacksAnalyzed)
	assert.Equal(t, models.SentimentMixed, result.OverallSentiment)
	assert.False(t, result.IsQuestionResponse)
	assert.False(t, result.AnalyzedAt.IsZero())
	// Repair overwrites whatever satisfaction the generation reported.
	require.Len(t, result.Themes, 1)
	assert.Equal(t, 0, result.Themes[0].Satisfaction)
	assert.Contains(t, gen.lastPrompt, "the dashboard loads slowly")
}

func TestAnalyzerService_StripsMarkdownFences(t *testing.T) {
	gen := &stubGenerator{response: "```json\n" + validAnalysisJSON + "\n```"}
	svc := NewAnalyzerService(gen, testLogger())

	result := svc.AnalyzeFeedback(context.Background(), []string{"a", "b"})
	assert.Equal(t, models.SentimentMixed, result.OverallSentiment)
}

func TestAnalyzerService_FallbackOnGenerationError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream timeout")}
	svc := NewAnalyzerService(gen, testLogger())

	result := svc.AnalyzeFeedback(context.Background(), []string{
		"this release is terrible",
		"everything is broken since the update",
	})

	require.NotNil(t, result)
	assert.Equal(t, 2, result.TotalFeedbacksAnalyzed)
	assert.Equal(t, models.SentimentNegative, result.OverallSentiment)
	assert.Equal(t, 0.25, result.SatisfactionIndex)
	assert.Equal(t, 2, result.SentimentDistribution.Negative)
	assert.Contains(t, result.ChatResponse, "Analyzed 2 feedback/s")
	assert.Empty(t, result.Themes)
}

func TestAnalyzerService_FallbackOnGarbageOutput(t *testing.T) {
	gen := &stubGenerator{response: "I could not produce the analysis, sorry."}
	svc := NewAnalyzerService(gen, testLogger())

	result := svc.AnalyzeFeedback(context.Background(), []string{"love the product"})

	require.NotNil(t, result)
	assert.Equal(t, 1, result.TotalFeedbacksAnalyzed)
	assert.Equal(t, models.SentimentPositive, result.OverallSentiment)
	assert.Equal(t, 0.75, result.SatisfactionIndex)
}

func TestAnalyzerService_SingleFeedbackPromptShape(t *testing.T) {
	gen := &stubGenerator{response: validAnalysisJSON}
	svc := NewAnalyzerService(gen, testLogger())

	svc.AnalyzeFeedback(context.Background(), []string{"just one entry here"})
	assert.Contains(t, gen.lastPrompt, "Single feedback:")

	svc.AnalyzeFeedback(context.Background(), []string{"first entry", "second entry"})
	assert.Contains(t, gen.lastPrompt, "Customer feedbacks:")
	assert.Contains(t, gen.lastPrompt, `1. "first entry"`)
	assert.Contains(t, gen.lastPrompt, `2. "second entry"`)
}

func TestParseAnalysis_SurroundingProse(t *testing.T) {
	raw := "Here is the result:\n" + validAnalysisJSON + "\nHope that helps."
	result, err := parseAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentMixed, result.OverallSentiment)

	_, err = parseAnalysis("no json here at all")
	assert.Error(t, err)
}
