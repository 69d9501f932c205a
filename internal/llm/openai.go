package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient wraps an OpenAI-compatible API client (OpenAI, Groq, Ollama).
type OpenAIClient struct {
	api      *openai.Client
	provider string
	model    string
}

// NewOpenAI creates a client for any OpenAI-compatible endpoint.
func NewOpenAI(cfg Config) *OpenAIClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	return &OpenAIClient{
		api:      openai.NewClientWithConfig(config),
		provider: provider,
		model:    cfg.Model,
	}
}

// Complete sends prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (reply string, err error) {
	ctx, span := startSpan(ctx, c.provider, c.model, len(prompt))
	defer func() { endSpan(span, reply, err) }()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	reply = strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM response", "provider", c.provider, "model", c.model, "raw", reply)
	return reply, nil
}

// Provider returns the provider name.
func (c *OpenAIClient) Provider() string { return c.provider }

// Model returns the model name.
func (c *OpenAIClient) Model() string { return c.model }

// Close is a no-op; the HTTP client needs no cleanup.
func (c *OpenAIClient) Close() error { return nil }
