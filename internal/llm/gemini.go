package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient talks to the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	gen    *genai.GenerativeModel
	model  string
}

// NewGemini opens a Gemini client. Call Close when done.
func NewGemini(ctx context.Context, cfg Config) (*GeminiClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	m := cl.GenerativeModel(cfg.Model)
	m.SetTemperature(Temperature)
	return &GeminiClient{client: cl, gen: m, model: cfg.Model}, nil
}

// Complete sends prompt as a single text part and joins the text parts of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (reply string, err error) {
	ctx, span := startSpan(ctx, "gemini", c.model, len(prompt))
	defer func() { endSpan(span, reply, err) }()

	resp, err := c.gen.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	reply = firstText(resp)
	if reply == "" {
		return "", ErrEmptyResponse
	}
	slog.Debug("LLM response", "provider", "gemini", "model", c.model, "raw", reply)
	return reply, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string { return "gemini" }

// Model returns the model name.
func (c *GeminiClient) Model() string { return c.model }

// Close releases the underlying gRPC connection.
func (c *GeminiClient) Close() error { return c.client.Close() }
