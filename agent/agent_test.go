package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"feedback-analyzer/backend/ai"
	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	responses []string
	err       error
	calls     [][]ai.ChatMessage
}

func (s *scriptedGenerator) Complete(_ context.Context, messages []ai.ChatMessage, _ ai.CompletionOptions) (string, error) {
	s.calls = append(s.calls, messages)
	if s.err != nil {
		return "", s.err
	}
	idx := len(s.calls) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
}

func TestAgent_DirectAnswer(t *testing.T) {
	router, _ := newRouterFixture(t)
	gen := &scriptedGenerator{responses: []string{`{"answer": "Hello! Ask me about your feedback."}`}}
	a := New(gen, router, testLogger())

	result := a.Chat(context.Background(), "hi there", nil)
	assert.True(t, result.Success)
	assert.Equal(t, "Hello! Ask me about your feedback.", result.Response)
	assert.Empty(t, result.ToolsUsed)
}

func TestAgent_ToolThenAnswer(t *testing.T) {
	router, repo := newRouterFixture(t)
	require.NoError(t, repo.Create(&models.Feedback{
		UserID: 1, Content: "sync keeps failing", Sentiment: models.SentimentNegative,
	}))

	gen := &scriptedGenerator{responses: []string{
		`{"tool": "get_negative_feedbacks", "args": {"limit": 10}}`,
		`{"answer": "**Complaints:** \"sync keeps failing\""}`,
	}}
	a := New(gen, router, testLogger())

	result := a.Chat(context.Background(), "what are the complaints?", nil)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"get_negative_feedbacks"}, result.ToolsUsed)
	assert.Contains(t, result.Response, "sync keeps failing")

	// The second call must carry the tool observation back to the model.
	require.Len(t, gen.calls, 2)
	last := gen.calls[1][len(gen.calls[1])-1]
	assert.Contains(t, last.Content, "TOOL RESULT (get_negative_feedbacks)")
	assert.Contains(t, last.Content, "sync keeps failing")
}

func TestAgent_UnknownToolFedBackAsError(t *testing.T) {
	router, _ := newRouterFixture(t)
	gen := &scriptedGenerator{responses: []string{
		`{"tool": "delete_everything", "args": {}}`,
		`{"answer": "I can only read feedback data."}`,
	}}
	a := New(gen, router, testLogger())

	result := a.Chat(context.Background(), "wipe the database", nil)
	assert.True(t, result.Success)
	assert.Empty(t, result.ToolsUsed)

	last := gen.calls[1][len(gen.calls[1])-1]
	assert.Contains(t, last.Content, "unknown tool: delete_everything")
}

func TestAgent_GenerationFailureDegrades(t *testing.T) {
	router, _ := newRouterFixture(t)
	gen := &scriptedGenerator{err: errors.New("upstream down")}
	a := New(gen, router, testLogger())

	result := a.Chat(context.Background(), "how is sentiment trending?", nil)
	assert.False(t, result.Success)
	assert.Equal(t, fallbackResponse, result.Response)
	assert.Empty(t, result.ToolsUsed)
}

func TestAgent_StepBudgetForcesFinalAnswer(t *testing.T) {
	router, _ := newRouterFixture(t)

	// Model keeps calling tools; after the budget runs out it is told to
	// answer and complies.
	responses := make([]string, 0, 5)
	for i := 0; i < 4; i++ {
		responses = append(responses, `{"tool": "get_all_feedbacks", "args": {}}`)
	}
	responses = append(responses, `{"answer": "Based on the data: no feedback yet."}`)
	gen := &scriptedGenerator{responses: responses}
	a := New(gen, router, testLogger())

	result := a.Chat(context.Background(), "summarize everything in detail", nil)
	assert.True(t, result.Success)
	assert.Equal(t, "Based on the data: no feedback yet.", result.Response)
	assert.Equal(t, []string{"get_all_feedbacks"}, result.ToolsUsed)

	forced := gen.calls[len(gen.calls)-1]
	assert.Contains(t, forced[len(forced)-1].Content, "No more tool calls")
}

func TestAgent_HistoryPrecedesQuestion(t *testing.T) {
	router, _ := newRouterFixture(t)
	gen := &scriptedGenerator{responses: []string{`{"answer": "ok"}`}}
	a := New(gen, router, testLogger())

	history := []ai.ChatMessage{
		{Role: ai.RoleUser, Content: "earlier question"},
		{Role: ai.RoleAssistant, Content: "earlier answer"},
	}
	a.Chat(context.Background(), "follow up", history)

	msgs := gen.calls[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, "earlier question", msgs[1].Content)
	assert.Equal(t, "earlier answer", msgs[2].Content)
	assert.Equal(t, "follow up", msgs[3].Content)
}

func TestParseDecision(t *testing.T) {
	d, err := parseDecision("```json\n{\"tool\": \"get_all_feedbacks\", \"args\": {\"limit\": 5}}\n```")
	require.NoError(t, err)
	assert.Equal(t, "get_all_feedbacks", d.Tool)
	assert.Equal(t, 5, d.Args.Limit)

	_, err = parseDecision("just prose, no JSON")
	assert.Error(t, err)

	_, err = parseDecision(`{"neither": true}`)
	assert.Error(t, err)

	d, err = parseDecision(fmt.Sprintf("noise before {%q: %q} noise after", "answer", "done"))
	require.NoError(t, err)
	assert.Equal(t, "done", d.Answer)
}
