package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"feedback-analyzer/backend/ai"
	"feedback-analyzer/backend/pkg/config"
	"feedback-analyzer/backend/pkg/logger"
)

const systemPrompt = `You are a Senior Product Analyst AI Assistant.

YOUR ROLE:
Answer questions about customer feedback.
CRITICAL: A conversation can contain BOTH chat messages AND uploaded CSV datasets.
- Chat messages appear in your conversation history.
- CSV data DOES NOT appear in history. You can ONLY see it by calling TOOLS.

AVAILABLE TOOLS:
- get_all_feedbacks: every feedback in this session (chat + CSV). Args: {"limit": <int>}
- get_negative_feedbacks: only purely negative feedback. Args: {"limit": <int>}
- get_positive_feedbacks: only purely positive feedback. Args: {"limit": <int>}
- get_mixed_feedbacks: feedback with both praise and complaints. Args: {"limit": <int>}
- get_analytics_summary: satisfaction score, sentiment distribution, top themes. No args.
- get_theme_analysis: feedback counts grouped by theme. Args: {"theme": <string, optional>}
- get_feature_suggestions: prioritized recommendations from the latest analysis. No args.

RULES:
1. If the user asks "How many...", "What are...", or "Which...", you MUST call a tool.
2. Do NOT rely on your chat memory for counts or data analysis. Tool results are the FINAL TRUTH.
3. If tool results differ from chat history, the TOOL results are correct because they include the CSV data.
4. Always quote text from the tool output to prove your answers.

RESPONSE PROTOCOL:
Reply with a single JSON object, nothing else.
To call a tool:    {"tool": "<tool name>", "args": {...}}
To answer:         {"answer": "<your full answer in markdown, with **bold** headers, bullet points, and quoted feedback>"}`

const fallbackResponse = "I had trouble scanning the database. Please try again."

// Result is the outcome of one agent turn.
type Result struct {
	Response  string
	ToolsUsed []string
	Success   bool
}

type decision struct {
	Tool   string `json:"tool"`
	Args   Args   `json:"args"`
	Answer string `json:"answer"`
}

// TextGenerator produces chat completions. Satisfied by ai.Client.
type TextGenerator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, opts ai.CompletionOptions) (string, error)
}

// Agent answers questions about one user's feedback by looping between the
// language model and the query router. A turn never errors out: any failure
// degrades to a friendly retry message with Success=false.
type Agent struct {
	generator      TextGenerator
	router         *QueryRouter
	log            *logger.Logger
	maxSteps       int
	conversationID string
}

func New(generator TextGenerator, router *QueryRouter, log *logger.Logger) *Agent {
	return &Agent{
		generator: generator,
		router:    router,
		log:       log,
		maxSteps:  config.Get().Analysis.MaxAgentSteps,
	}
}

// SetConversationID records which conversation the agent is serving. Data
// queries stay user-scoped regardless, because uploaded datasets from other
// conversations are part of the same analysis corpus.
func (a *Agent) SetConversationID(conversationID string) {
	a.conversationID = conversationID
}

// Chat runs one question through the tool loop. History should be oldest
// first and must not include the live question.
func (a *Agent) Chat(ctx context.Context, message string, history []ai.ChatMessage) Result {
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{Role: ai.RoleUser, Content: message})

	toolsUsed := []string{}
	seen := map[string]struct{}{}

	for step := 0; step < a.maxSteps; step++ {
		raw, err := a.generator.Complete(ctx, messages, ai.CompletionOptions{JSONMode: true})
		if err != nil {
			a.log.LogError(err, "agent generation failed", "step", step)
			return Result{Response: fallbackResponse, ToolsUsed: []string{}, Success: false}
		}

		d, err := parseDecision(raw)
		if err != nil {
			a.log.LogError(err, "agent decision unparseable", "step", step)
			return Result{Response: fallbackResponse, ToolsUsed: []string{}, Success: false}
		}

		if d.Answer != "" {
			return Result{Response: d.Answer, ToolsUsed: toolsUsed, Success: true}
		}

		op := Operation(d.Tool)
		var observation string
		if IsKnownOperation(op) {
			if _, ok := seen[d.Tool]; !ok {
				seen[d.Tool] = struct{}{}
				toolsUsed = append(toolsUsed, d.Tool)
			}
			observation = a.router.Execute(op, d.Args)
		} else {
			observation = errorResult("unknown tool: " + d.Tool)
		}

		messages = append(messages,
			ai.ChatMessage{Role: ai.RoleAssistant, Content: raw},
			ai.ChatMessage{Role: ai.RoleUser, Content: fmt.Sprintf(
				"TOOL RESULT (%s):\n%s\n\nUse this data. Call another tool if needed, otherwise answer now.",
				d.Tool, observation)},
		)
	}

	// Step budget exhausted; force a final answer from what was gathered.
	messages = append(messages, ai.ChatMessage{
		Role:    ai.RoleUser,
		Content: `No more tool calls are available. Reply now with {"answer": "..."} using the data you already have.`,
	})
	raw, err := a.generator.Complete(ctx, messages, ai.CompletionOptions{JSONMode: true})
	if err != nil {
		a.log.LogError(err, "agent final answer failed")
		return Result{Response: fallbackResponse, ToolsUsed: []string{}, Success: false}
	}
	d, err := parseDecision(raw)
	if err != nil || d.Answer == "" {
		return Result{Response: fallbackResponse, ToolsUsed: []string{}, Success: false}
	}
	return Result{Response: d.Answer, ToolsUsed: toolsUsed, Success: true}
}

func parseDecision(raw string) (*decision, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in agent output")
	}

	var d decision
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &d); err != nil {
		return nil, fmt.Errorf("decode agent decision: %w", err)
	}
	if d.Answer == "" && d.Tool == "" {
		return nil, fmt.Errorf("agent decision has neither tool nor answer")
	}
	return &d, nil
}
