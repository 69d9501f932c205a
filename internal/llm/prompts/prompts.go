package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

const maxAnswerRunes = 10000

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// PromptVariant represents a grading prompt variant.
type PromptVariant string

const (
	// PromptStrict only credits points from the mark scheme.
	PromptStrict PromptVariant = "strict"
	// PromptStandard is the default grading variant.
	PromptStandard PromptVariant = "standard"
	// PromptLenient credits partial and differently worded answers.
	PromptLenient PromptVariant = "lenient"
)

// Variants lists every known variant.
var Variants = []PromptVariant{PromptStrict, PromptStandard, PromptLenient}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	for _, known := range Variants {
		if PromptVariant(v) == known {
			return true
		}
	}
	return false
}

// GradeData holds template data for grading prompts.
type GradeData struct {
	Question      string
	IdealAnswer   string
	StudentAnswer string
	MaxMarks      string
}

// Load parses the embedded prompt templates once.
func Load() error {
	loadOnce.Do(func() {
		templates, loadErr = parse(templateFS)
	})
	return loadErr
}

func parse(fsys fs.FS) (map[PromptVariant]*template.Template, error) {
	out := make(map[PromptVariant]*template.Template, len(Variants))
	for _, v := range Variants {
		name := "templates/grade_" + string(v) + ".txt"
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read prompt file %s: %w", name, err)
		}
		tmpl, err := template.New(string(v)).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
		}
		out[v] = tmpl
	}
	return out, nil
}

// BuildGradePrompt renders the grading prompt for one dataset row.
func BuildGradePrompt(variant PromptVariant, row model.Row) (string, error) {
	if err := Load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	tmpl, ok := templates[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	data := GradeData{
		Question:      strings.TrimSpace(row.Question),
		IdealAnswer:   strings.TrimSpace(row.IdealAnswer),
		StudentAnswer: sanitizeAnswer(row.StudentAnswer),
		MaxMarks:      FormatMarks(row.MaxMarks),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatMarks renders a mark without trailing zeros ("5", "2.5").
func FormatMarks(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}

	return answer
}
