// Package llm talks to OpenAI-compatible and Gemini completion endpoints.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrMissingAPIKey is returned by New when the provider needs a key and none was given.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown LLM provider")
	// ErrEmptyResponse is returned when the endpoint answers with no content.
	ErrEmptyResponse = errors.New("LLM returned no choices")
)

// Temperature used for grading requests.
const Temperature = 0.2

const pingPrompt = "Say hello in one line"

var tracer = otel.Tracer("github.com/Ritikayogi/AI-Grader/internal/llm")

// Completer sends one prompt and returns the model's free-form reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Client is a Completer bound to a provider connection.
type Client interface {
	Completer
	Provider() string
	Close() error
}

// Preset holds a provider's defaults.
type Preset struct {
	Name      string
	BaseURL   string
	Model     string
	KeyEnv    string
	KeyNeeded bool
}

// Presets lists the supported providers.
var Presets = map[string]Preset{
	"openai": {Name: "openai", Model: "gpt-4o-mini", KeyEnv: "OPENAI_API_KEY", KeyNeeded: true},
	"groq":   {Name: "groq", BaseURL: "https://api.groq.com/openai/v1", Model: "llama-3.1-8b-instant", KeyEnv: "GROQ_API_KEY", KeyNeeded: true},
	"ollama": {Name: "ollama", BaseURL: "http://localhost:11434/v1", Model: "llama3.2"},
	"gemini": {Name: "gemini", Model: "gemini-1.5-flash", KeyEnv: "GEMINI_API_KEY", KeyNeeded: true},
}

// LookupPreset returns the preset for a provider name, case-insensitively.
func LookupPreset(provider string) (Preset, error) {
	p, ok := Presets[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return p, nil
}

// Config selects and configures a provider. Empty fields take the preset's defaults.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the client for cfg.Provider and validates its credentials.
func New(ctx context.Context, cfg Config) (Client, error) {
	p, err := LookupPreset(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = p.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = p.Model
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" && p.KeyNeeded {
		return nil, fmt.Errorf("%w for provider %s: set --llm-key or %s", ErrMissingAPIKey, p.Name, p.KeyEnv)
	}
	cfg.Provider = p.Name

	if p.Name == "gemini" {
		return NewGemini(ctx, cfg)
	}
	return NewOpenAI(cfg), nil
}

// Ping checks the endpoint answers a trivial prompt.
func Ping(ctx context.Context, c Completer) (string, error) {
	reply, err := c.Complete(ctx, pingPrompt)
	if err != nil {
		return "", fmt.Errorf("LLM health check: %w", err)
	}
	return reply, nil
}

// startSpan opens a span for one completion call.
func startSpan(ctx context.Context, provider, model string, promptLen int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
		attribute.Int("llm.prompt_chars", promptLen),
	))
}

func endSpan(span trace.Span, reply string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("llm.reply_chars", len(reply)))
	}
	span.End()
}
