package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float32 `json:"temperature"`
}

func fakeOpenAI(t *testing.T, status int, body string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	var req chatRequest
	srv := fakeOpenAI(t, http.StatusOK,
		`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Marks: 4/5\nReason: good  "}}]}`,
		&req)

	c := NewOpenAI(Config{Provider: "groq", BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m1"})
	reply, err := c.Complete(context.Background(), "grade this")
	require.NoError(t, err)
	assert.Equal(t, "Marks: 4/5\nReason: good", reply)

	assert.Equal(t, "m1", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "grade this", req.Messages[0].Content)
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)

	assert.Equal(t, "groq", c.Provider())
	assert.Equal(t, "m1", c.Model())
	assert.NoError(t, c.Close())
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, `{"id":"1","choices":[]}`, nil)
	c := NewOpenAI(Config{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m"})
	_, err := c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusTooManyRequests,
		`{"error":{"message":"rate limit reached","type":"requests"}}`, nil)
	c := NewOpenAI(Config{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m"})
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit reached")
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{Provider: "anthropic"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New(ctx, Config{Provider: "groq", APIKey: "  "})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	c, err := New(ctx, Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider())
	assert.Equal(t, "llama3.2", c.Model())

	c, err = New(ctx, Config{Provider: "OpenAI", APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Provider())
	assert.Equal(t, "gpt-4o", c.Model())
}

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		baseURL  string
	}{
		{"openai", "gpt-4o-mini", ""},
		{"groq", "llama-3.1-8b-instant", "https://api.groq.com/openai/v1"},
		{"ollama", "llama3.2", "http://localhost:11434/v1"},
		{"gemini", "gemini-1.5-flash", ""},
	}
	for _, tc := range tests {
		t.Run(tc.provider, func(t *testing.T) {
			p, err := LookupPreset(tc.provider)
			require.NoError(t, err)
			assert.Equal(t, tc.model, p.Model)
			assert.Equal(t, tc.baseURL, p.BaseURL)
		})
	}
}

type stubClient struct {
	reply string
	err   error
	got   string
}

func (s *stubClient) Complete(_ context.Context, prompt string) (string, error) {
	s.got = prompt
	return s.reply, s.err
}
func (s *stubClient) Provider() string { return "stub" }
func (s *stubClient) Model() string    { return "stub-1" }
func (s *stubClient) Close() error     { return nil }

func TestPing(t *testing.T) {
	s := &stubClient{reply: "hello"}
	reply, err := Ping(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, pingPrompt, s.got)

	boom := errors.New("connection refused")
	_, err = Ping(context.Background(), &stubClient{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "LLM health check")
}
