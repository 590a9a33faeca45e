package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"feedback-analyzer/backend/pkg/config"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/resilience"
)

var (
	// ErrNoAPIKey is returned when the client is constructed without credentials.
	ErrNoAPIKey = errors.New("groq API key is required")
	// ErrEmptyCompletion is returned when the API answers without any choices.
	ErrEmptyCompletion = errors.New("no completion generated")
)

// Client talks to Groq's OpenAI-compatible chat-completions API. It is the
// single adapter for the text-generation capability; every caller must be
// prepared for it to fail (timeout, rate limit, malformed output) and fall
// back to a deterministic path.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	breaker     *resilience.CircuitBreaker
	log         *logger.Logger
}

// NewClient creates a new generation client from application config.
func NewClient(log *logger.Logger) (*Client, error) {
	cfg := config.Get()
	if cfg.Groq.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	breaker := resilience.NewCircuitBreaker(
		resilience.DefaultCircuitBreakerConfig("groq"),
		log,
	)

	return &Client{
		apiKey:      cfg.Groq.APIKey,
		baseURL:     cfg.Groq.BaseURL,
		model:       cfg.Groq.Model,
		maxTokens:   cfg.Groq.MaxTokens,
		temperature: cfg.Groq.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Groq.Timeout},
		breaker:     breaker,
		log:         log,
	}, nil
}

// Complete sends a chat-completion request and returns the generated text.
// The call is guarded by a circuit breaker so a flapping upstream does not
// stall every conversational turn behind a full timeout.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	var result string
	err := c.breaker.Execute(func() error {
		var callErr error
		result, callErr = c.complete(ctx, messages, opts)
		return callErr
	})
	return result, err
}

func (c *Client) complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	temperature := c.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	reqBody := chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status code %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if completion.Error != nil {
		return "", fmt.Errorf("API error: %s", completion.Error.Message)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return completion.Choices[0].Message.Content, nil
}

// Disabled is a stand-in client used when no API key is configured. Every
// call fails fast so callers take their deterministic fallback paths.
type Disabled struct{}

func (Disabled) Complete(ctx context.Context, messages []ChatMessage, opts CompletionOptions) (string, error) {
	return "", ErrNoAPIKey
}
