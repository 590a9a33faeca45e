package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"feedback-analyzer/backend/ai"
	"feedback-analyzer/backend/conversation/models"
	"feedback-analyzer/backend/conversation/repository"
	feedbackmodels "feedback-analyzer/backend/feedback/models"
	feedbackrepo "feedback-analyzer/backend/feedback/repository"
	feedbackservice "feedback-analyzer/backend/feedback/service"
	"feedback-analyzer/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeGenerator struct {
	responses map[string]string
	fallback  string
	err       error
}

// Complete picks a canned response keyed on a substring of the last message.
func (f *fakeGenerator) Complete(_ context.Context, messages []ai.ChatMessage, _ ai.CompletionOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	last := messages[len(messages)-1].Content
	for needle, response := range f.responses {
		if strings.Contains(last, needle) {
			return response, nil
		}
	}
	return f.fallback, nil
}

const analysisResponse = `{
	"total_feedbacks_analyzed": 1,
	"overall_sentiment": "negative",
	"satisfaction_index": 0.2,
	"sentiment_distribution": {"positive": 0, "neutral": 0, "negative": 1, "mixed": 0},
	"total_themes_detected": 1,
	"themes": [{"theme": "performance", "count": 1, "sentiment": "negative", "examples": ["slow"], "percentage": 100, "satisfaction": 0}],
	"key_features_count": 0,
	"feature_suggestions": [],
	"chat_response": "Analyzed 1 feedback. Negative sentiment (20% satisfaction)."
}`

func newChatFixture(t *testing.T, gen *fakeGenerator) (*ChatService, feedbackrepo.FeedbackRepository, repository.ConversationRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:chat_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Conversation{}, &models.Message{},
		&feedbackmodels.Feedback{}, &feedbackmodels.Analysis{},
	))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	log := logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
	conversations := repository.NewGormConversationRepository(db)
	feedbacks := feedbackrepo.NewGormFeedbackRepository(db)
	analyzer := feedbackservice.NewAnalyzerService(gen, log)
	svc := NewChatService(conversations, feedbacks, analyzer, gen, log)
	return svc, feedbacks, conversations
}

func TestChatService_FeedbackTurn(t *testing.T) {
	gen := &fakeGenerator{fallback: analysisResponse}
	svc, feedbacks, conversations := newChatFixture(t, gen)

	result, err := svc.ProcessMessage(context.Background(), 1, "the dashboard is painfully slow since the update", "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.IsQuestion)
	assert.NotEmpty(t, result.ConversationID)
	require.NotNil(t, result.Analysis)
	assert.Equal(t, 1, result.Analysis.TotalFeedbacksAnalyzed)
	assert.Equal(t, "new_feedback_analysis", result.Metadata["type"])

	// Feedback row stored with the overall sentiment for a single entry.
	rows, err := feedbacks.ListByUser(1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, feedbackmodels.SentimentNegative, rows[0].Sentiment)
	assert.Equal(t, result.ConversationID, rows[0].ConversationID)

	// Analysis persisted.
	latest, err := feedbacks.LatestAnalysis(1, result.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1, latest.FeedbackCount)

	// User and assistant turns persisted.
	messages, err := conversations.ListMessages(result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Equal(t, "new_feedback_analysis", messages[1].Metadata["type"])
}

func TestChatService_ConversationFeedback(t *testing.T) {
	gen := &fakeGenerator{fallback: analysisResponse}
	svc, _, _ := newChatFixture(t, gen)

	result, err := svc.ProcessMessage(context.Background(), 1, "the dashboard is painfully slow since the update", "")
	require.NoError(t, err)

	rows, err := svc.ConversationFeedback(1, result.ConversationID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, result.ConversationID, rows[0].ConversationID)

	// Another user cannot read it.
	_, err = svc.ConversationFeedback(2, result.ConversationID)
	assert.Error(t, err)

	// Unknown conversation.
	_, err = svc.ConversationFeedback(1, "missing")
	assert.Error(t, err)
}

func TestChatService_QuestionTurn(t *testing.T) {
	gen := &fakeGenerator{
		responses: map[string]string{
			"what are the complaints": `{"tool": "get_negative_feedbacks", "args": {}}`,
			"TOOL RESULT":             `{"answer": "**Complaints:** none recorded yet."}`,
		},
	}
	svc, _, conversations := newChatFixture(t, gen)

	result, err := svc.ProcessMessage(context.Background(), 1, "what are the complaints?", "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.IsQuestion)
	assert.Nil(t, result.Analysis)
	assert.Equal(t, "agent_query", result.Metadata["type"])
	assert.Equal(t, []string{"get_negative_feedbacks"}, result.Metadata["tools_used"])

	messages, err := conversations.ListMessages(result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, "Complaints")
}

func TestChatService_QuestionNeverHardFails(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("model unavailable")}
	svc, _, _ := newChatFixture(t, gen)

	result, err := svc.ProcessMessage(context.Background(), 1, "how is sentiment trending?", "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.IsQuestion)
	assert.Contains(t, result.Response, "Please try again")
}

func TestChatService_MultilineFeedbackSplitsPerLine(t *testing.T) {
	gen := &fakeGenerator{fallback: analysisResponse}
	svc, feedbacks, _ := newChatFixture(t, gen)

	message := "the login page is great and loads fast\nthe billing export keeps crashing on big files\nok"
	result, err := svc.ProcessMessage(context.Background(), 1, message, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metadata["feedbacks_analyzed"])

	rows, err := feedbacks.ListByUser(1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Multiple entries get their own quick sentiment, not the batch's.
	sentiments := map[string]string{}
	for _, row := range rows {
		sentiments[row.Content] = row.Sentiment
	}
	assert.Equal(t, feedbackmodels.SentimentPositive, sentiments["the login page is great and loads fast"])
	assert.Equal(t, feedbackmodels.SentimentNegative, sentiments["the billing export keeps crashing on big files"])
}

func TestChatService_ReusesConversation(t *testing.T) {
	gen := &fakeGenerator{fallback: analysisResponse}
	svc, _, conversations := newChatFixture(t, gen)

	first, err := svc.ProcessMessage(context.Background(), 1, "the onboarding flow is confusing and broken", "")
	require.NoError(t, err)
	second, err := svc.ProcessMessage(context.Background(), 1, "the search results are excellent and fast now", first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	list, err := conversations.ListByUser(1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	messages, err := conversations.ListMessages(first.ConversationID, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestChatService_CSVUpload(t *testing.T) {
	gen := &fakeGenerator{fallback: analysisResponse}
	svc, feedbacks, conversations := newChatFixture(t, gen)

	result, err := svc.ProcessCSVUpload(context.Background(), 1, []string{
		"works great on mobile now",
		"the sync is broken again",
		"   ",
	}, "reviews.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "new_feedback_batch", result.Metadata["type"])
	assert.Equal(t, "reviews.csv", result.Metadata["filename"])

	conversation, err := conversations.GetConversation(result.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, conversation)
	assert.Equal(t, "Dataset: reviews.csv", conversation.Title)

	// Blank entries dropped; rows carry quick sentiment with a flat score.
	rows, err := feedbacks.ListByUser(1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 0.5, row.SentimentScore)
	}

	// Analysis recorded as an assistant message for agent context.
	messages, err := conversations.ListMessages(result.ConversationID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleAssistant, messages[0].Role)
	assert.Equal(t, "csv_analysis", messages[0].Metadata["type"])
}

func TestChatService_AnalyzeReviews(t *testing.T) {
	gen := &fakeGenerator{fallback: analysisResponse}
	svc, feedbacks, _ := newChatFixture(t, gen)

	analysis, err := svc.AnalyzeReviews(context.Background(), 1, []string{"too slow to be usable"})
	require.NoError(t, err)
	assert.Equal(t, feedbackmodels.SentimentNegative, analysis.OverallSentiment)

	rows, err := feedbacks.ListByUser(1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"performance"}, rows[0].Themes)
}

func TestParseFeedbackItems(t *testing.T) {
	items := parseFeedbackItems("short single feedback")
	assert.Equal(t, []string{"short single feedback"}, items)

	items = parseFeedbackItems("\"first item quoted\"\nshorty\nsecond proper item")
	assert.Equal(t, []string{"first item quoted", "second proper item"}, items)

	long := strings.Repeat("word ", 60)
	items = parseFeedbackItems(long)
	assert.Len(t, items, 1)
}
