package service

import (
	"context"
	"fmt"
	"strings"

	"feedback-analyzer/backend/agent"
	"feedback-analyzer/backend/ai"
	"feedback-analyzer/backend/conversation/models"
	"feedback-analyzer/backend/conversation/repository"
	feedbackmodels "feedback-analyzer/backend/feedback/models"
	feedbackrepo "feedback-analyzer/backend/feedback/repository"
	feedbackservice "feedback-analyzer/backend/feedback/service"
	"feedback-analyzer/backend/pkg/cache"
	"feedback-analyzer/backend/pkg/config"
	"feedback-analyzer/backend/pkg/logger"
)

const titleMaxLen = 50

// ChatResult is the outcome of one conversational turn.
type ChatResult struct {
	ConversationID string                         `json:"conversation_id"`
	Response       string                         `json:"response"`
	Analysis       *feedbackmodels.AnalysisResult `json:"analysis"`
	Metadata       map[string]any                 `json:"metadata"`
	IsQuestion     bool                           `json:"is_question"`
	Success        bool                           `json:"success"`
}

// ChatService routes each incoming message to either the feedback analysis
// pipeline or the question-answering agent, persisting both sides of the
// exchange. Generation failures inside either path degrade gracefully; only
// persistence failures surface as errors.
type ChatService struct {
	conversations repository.ConversationRepository
	feedbacks     feedbackrepo.FeedbackRepository
	analyzer      *feedbackservice.AnalyzerService
	generator     agent.TextGenerator
	agents        *cache.Cache
	log           *logger.Logger
	maxHistory    int
}

func NewChatService(
	conversations repository.ConversationRepository,
	feedbacks feedbackrepo.FeedbackRepository,
	analyzer *feedbackservice.AnalyzerService,
	generator agent.TextGenerator,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		feedbacks:     feedbacks,
		analyzer:      analyzer,
		generator:     generator,
		agents:        cache.NewCache(),
		log:           log,
		maxHistory:    config.Get().Analysis.MaxHistoryTurns,
	}
}

// ProcessMessage handles one user message end to end: conversation setup,
// intake classification, feedback analysis or agent query, and persistence
// of both turns.
func (s *ChatService) ProcessMessage(ctx context.Context, userID uint, message, conversationID string) (*ChatResult, error) {
	conversationID, err := s.ensureConversation(userID, conversationID, truncateTitle(message))
	if err != nil {
		return nil, err
	}

	if err := s.conversations.AppendMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        message,
	}); err != nil {
		return nil, err
	}

	var result *ChatResult
	if feedbackservice.IsNewFeedback(message) {
		result, err = s.handleNewFeedback(ctx, userID, message, conversationID)
	} else {
		result, err = s.handleQuestion(ctx, userID, message, conversationID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.conversations.AppendMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        result.Response,
		Metadata:       result.Metadata,
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *ChatService) handleNewFeedback(ctx context.Context, userID uint, message, conversationID string) (*ChatResult, error) {
	items := parseFeedbackItems(message)
	analysis := s.analyzer.AnalyzeFeedback(ctx, items)

	themes := make([]string, 0, 3)
	for _, theme := range analysis.TopThemes(3) {
		themes = append(themes, theme.Theme)
	}

	rows := make([]feedbackmodels.Feedback, 0, len(items))
	for _, item := range items {
		sentiment := analysis.OverallSentiment
		if len(items) > 1 {
			sentiment = feedbackservice.QuickSentiment(item)
		}
		rows = append(rows, feedbackmodels.Feedback{
			UserID:         userID,
			ConversationID: conversationID,
			Content:        item,
			Sentiment:      sentiment,
			SentimentScore: analysis.SatisfactionIndex,
			Themes:         themes,
		})
	}
	if err := s.feedbacks.BulkCreate(rows); err != nil {
		return nil, err
	}

	if err := s.feedbacks.SaveAnalysis(&feedbackmodels.Analysis{
		UserID:         userID,
		ConversationID: conversationID,
		FeedbackCount:  len(items),
		Result:         *analysis,
	}); err != nil {
		return nil, err
	}

	return &ChatResult{
		ConversationID: conversationID,
		Response:       analysis.ChatResponse,
		Analysis:       analysis,
		Metadata: map[string]any{
			"type":               "new_feedback_analysis",
			"feedbacks_analyzed": len(items),
			"satisfaction":       int(analysis.SatisfactionIndex * 100),
			"sentiment":          analysis.OverallSentiment,
			"index":              int(analysis.SatisfactionIndex * 100),
		},
		IsQuestion: false,
		Success:    true,
	}, nil
}

func (s *ChatService) handleQuestion(ctx context.Context, userID uint, question, conversationID string) (*ChatResult, error) {
	a := s.agentFor(userID)
	a.SetConversationID(conversationID)

	stored, err := s.conversations.ListMessages(conversationID, s.maxHistory)
	if err != nil {
		return nil, err
	}
	history := make([]ai.ChatMessage, 0, len(stored))
	for _, msg := range stored {
		if msg.Content == question {
			continue
		}
		switch msg.Role {
		case models.RoleUser:
			history = append(history, ai.ChatMessage{Role: ai.RoleUser, Content: msg.Content})
		case models.RoleAssistant:
			history = append(history, ai.ChatMessage{Role: ai.RoleAssistant, Content: msg.Content})
		}
	}

	result := a.Chat(ctx, question, history)

	return &ChatResult{
		ConversationID: conversationID,
		Response:       result.Response,
		Metadata: map[string]any{
			"type":       "agent_query",
			"tools_used": result.ToolsUsed,
		},
		IsQuestion: true,
		Success:    result.Success,
	}, nil
}

// ProcessCSVUpload stores an uploaded batch of feedback, analyzes the whole
// set, and records the analysis as an assistant message so later agent turns
// see it in history.
func (s *ChatService) ProcessCSVUpload(ctx context.Context, userID uint, feedbacks []string, filename, conversationID string) (*ChatResult, error) {
	conversationID, err := s.ensureConversation(userID, conversationID, "Dataset: "+filename)
	if err != nil {
		return nil, err
	}

	rows := make([]feedbackmodels.Feedback, 0, len(feedbacks))
	for _, text := range feedbacks {
		cleaned := strings.TrimSpace(text)
		if cleaned == "" {
			continue
		}
		rows = append(rows, feedbackmodels.Feedback{
			UserID:         userID,
			ConversationID: conversationID,
			Content:        cleaned,
			Sentiment:      feedbackservice.QuickSentiment(cleaned),
			SentimentScore: 0.5,
			Themes:         []string{},
		})
	}
	if err := s.feedbacks.BulkCreate(rows); err != nil {
		return nil, err
	}

	analysis := s.analyzer.AnalyzeFeedback(ctx, feedbacks)

	if err := s.feedbacks.SaveAnalysis(&feedbackmodels.Analysis{
		UserID:         userID,
		ConversationID: conversationID,
		FeedbackCount:  len(feedbacks),
		Result:         *analysis,
	}); err != nil {
		return nil, err
	}

	if err := s.conversations.AppendMessage(&models.Message{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        analysis.ChatResponse,
		Metadata: map[string]any{
			"type":               "csv_analysis",
			"filename":           filename,
			"feedbacks_analyzed": len(feedbacks),
			"sentiment":          analysis.OverallSentiment,
			"index":              int(analysis.SatisfactionIndex * 100),
		},
	}); err != nil {
		return nil, err
	}

	return &ChatResult{
		ConversationID: conversationID,
		Response:       analysis.ChatResponse,
		Analysis:       analysis,
		Metadata: map[string]any{
			"type":               "new_feedback_batch",
			"filename":           filename,
			"feedbacks_analyzed": len(feedbacks),
			"sentiment":          analysis.OverallSentiment,
			"index":              int(analysis.SatisfactionIndex * 100),
		},
		IsQuestion: false,
		Success:    true,
	}, nil
}

// AnalyzeReviews runs a direct analysis outside any conversation. Every
// review is stored with the batch's overall sentiment.
func (s *ChatService) AnalyzeReviews(ctx context.Context, userID uint, reviews []string) (*feedbackmodels.AnalysisResult, error) {
	analysis := s.analyzer.AnalyzeFeedback(ctx, reviews)

	themes := make([]string, 0, len(analysis.Themes))
	for _, theme := range analysis.Themes {
		themes = append(themes, theme.Theme)
	}
	rows := make([]feedbackmodels.Feedback, 0, len(reviews))
	for _, review := range reviews {
		rows = append(rows, feedbackmodels.Feedback{
			UserID:         userID,
			Content:        review,
			Sentiment:      analysis.OverallSentiment,
			SentimentScore: analysis.SatisfactionIndex,
			Themes:         themes,
		})
	}
	if err := s.feedbacks.BulkCreate(rows); err != nil {
		return nil, err
	}
	if err := s.feedbacks.SaveAnalysis(&feedbackmodels.Analysis{
		UserID:        userID,
		FeedbackCount: len(reviews),
		Result:        *analysis,
	}); err != nil {
		return nil, err
	}
	return analysis, nil
}

// ListConversations returns the user's conversations, most recently active
// first.
func (s *ChatService) ListConversations(userID uint, limit int) ([]models.Conversation, error) {
	return s.conversations.ListByUser(userID, limit)
}

// ConversationMessages returns a conversation's messages oldest first, after
// verifying ownership.
func (s *ChatService) ConversationMessages(userID uint, conversationID string, limit int) ([]models.Message, error) {
	conversation, err := s.conversations.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || conversation.UserID != userID {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}
	return s.conversations.ListMessages(conversationID, limit)
}

// ConversationFeedback returns the feedback rows captured during one
// conversation, after verifying ownership.
func (s *ChatService) ConversationFeedback(userID uint, conversationID string) ([]feedbackmodels.Feedback, error) {
	conversation, err := s.conversations.GetConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || conversation.UserID != userID {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}
	return s.feedbacks.ListByConversation(conversationID)
}

func (s *ChatService) ensureConversation(userID uint, conversationID, title string) (string, error) {
	if conversationID != "" {
		return conversationID, nil
	}
	conversation := &models.Conversation{UserID: userID, Title: title}
	if err := s.conversations.CreateConversation(conversation); err != nil {
		return "", err
	}
	return conversation.ID, nil
}

// agentFor returns the cached per-user agent, creating it on first use.
func (s *ChatService) agentFor(userID uint) *agent.Agent {
	key := fmt.Sprintf("agent:%d", userID)
	if cached, ok := s.agents.Get(key); ok {
		if a, ok := cached.(*agent.Agent); ok {
			return a
		}
	}
	a := agent.New(s.generator, agent.NewQueryRouter(s.feedbacks, userID), s.log)
	s.agents.Set(key, a)
	return a
}

// parseFeedbackItems splits a message into individual feedback entries.
// Short single-line messages stay whole; multiline or long messages split
// per line, dropping fragments of ten characters or fewer.
func parseFeedbackItems(text string) []string {
	trimmed := strings.TrimSpace(text)
	if len(strings.Fields(text)) < 50 && !strings.Contains(text, "\n") {
		return []string{trimmed}
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		clean := strings.Trim(strings.TrimSpace(line), `"'`)
		if len(clean) > 10 {
			items = append(items, clean)
		}
	}
	if len(items) == 0 {
		return []string{trimmed}
	}
	return items
}

func truncateTitle(message string) string {
	runes := []rune(message)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen])
	}
	return message
}
