package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Ritikayogi/AI-Grader/internal/llm"
	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LLM selects the completion endpoint.
type LLM struct {
	Provider string        `validate:"required,oneof=openai groq ollama gemini"`
	URL      string        `validate:"omitempty,url"`
	Key      string        `validate:"-"`
	Model    string        `validate:"omitempty,max=200"`
	Timeout  time.Duration `validate:"gte=0"`
}

// Grading holds the settings of a grading run.
type Grading struct {
	LLM           LLM
	PromptVariant string  `validate:"oneof=strict standard lenient"`
	RatePerMinute float64 `validate:"gte=0"`
}

// Server holds the settings of the upload front end.
type Server struct {
	Addr        string `validate:"required"`
	Lang        string `validate:"oneof=en ru"`
	Password    string `validate:"-"`
	WorkDir     string
	MaxUploadMB int64 `validate:"gt=0,lte=1024"`
	BasePath    string
}

// LLMConfig converts the settings for llm.New.
func (g Grading) LLMConfig() llm.Config {
	return llm.Config{
		Provider: g.LLM.Provider,
		BaseURL:  g.LLM.URL,
		APIKey:   g.LLM.Key,
		Model:    g.LLM.Model,
		Timeout:  g.LLM.Timeout,
	}
}

// LoadGrading reads grading settings. An empty llm-key falls back to the
// provider's own environment variable (OPENAI_API_KEY, GROQ_API_KEY, GEMINI_API_KEY).
func LoadGrading(v *viper.Viper) (Grading, error) {
	v.SetDefault("provider", "openai")
	v.SetDefault("prompt-variant", string(prompts.PromptStandard))
	v.SetDefault("llm-timeout", "60s")

	g := Grading{
		LLM: LLM{
			Provider: strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
			URL:      strings.TrimSpace(v.GetString("llm-url")),
			Key:      strings.TrimSpace(v.GetString("llm-key")),
			Model:    strings.TrimSpace(v.GetString("llm-model")),
			Timeout:  v.GetDuration("llm-timeout"),
		},
		PromptVariant: strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant"))),
		RatePerMinute: v.GetFloat64("rate"),
	}
	if g.LLM.Key == "" {
		if p, err := llm.LookupPreset(g.LLM.Provider); err == nil && p.KeyEnv != "" {
			g.LLM.Key = strings.TrimSpace(os.Getenv(p.KeyEnv))
		}
	}

	if err := validate.Struct(g); err != nil {
		return Grading{}, describe(err)
	}
	return g, nil
}

// LoadServer reads front-end settings.
func LoadServer(v *viper.Viper) (Server, error) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("lang", "en")
	v.SetDefault("max-upload-mb", 20)

	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	s := Server{
		Addr:        v.GetString("addr"),
		Lang:        strings.ToLower(v.GetString("lang")),
		Password:    v.GetString("password"),
		WorkDir:     v.GetString("work-dir"),
		MaxUploadMB: v.GetInt64("max-upload-mb"),
		BasePath:    basePath,
	}
	if s.WorkDir == "" {
		s.WorkDir = os.TempDir()
	}
	if err := validate.Struct(s); err != nil {
		return Server{}, describe(err)
	}
	return s, nil
}

// describe turns validator errors into one readable message naming the fields.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
