package grade

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
	"github.com/Ritikayogi/AI-Grader/internal/model"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		max    float64
		marks  float64
		reason string
		source model.MarkSource
	}{
		{
			name:   "labeled with denominator",
			text:   "Marks: 4.5/5\nReason: Good but incomplete.",
			max:    5,
			marks:  4.5,
			reason: "Good but incomplete.",
			source: model.MarkLabeled,
		},
		{
			name:   "unlabeled out of",
			text:   "The answer covers most points, I'd say about 3 out of 5 seems fair.",
			max:    5,
			marks:  3,
			reason: "The answer covers most points, I'd say about 3 out of 5 seems fair.",
			source: model.MarkScanned,
		},
		{
			name:   "out of qualifier",
			text:   "Marks (out of 5): 2\nReason - missed the key idea",
			max:    5,
			marks:  2,
			reason: "missed the key idea",
			source: model.MarkLabeled,
		},
		{
			name:   "case insensitive label",
			text:   "MARKS = 3\nreason: ok",
			max:    5,
			marks:  3,
			reason: "ok",
			source: model.MarkLabeled,
		},
		{
			name:   "label clamped",
			text:   "Marks: 9\nReason: generous",
			max:    5,
			marks:  5,
			reason: "generous",
			source: model.MarkLabeled,
		},
		{
			name:   "scan takes maximum",
			text:   "Points 1 and 4 are right, 2 is wrong.",
			max:    5,
			marks:  4,
			reason: "Points 1 and 4 are right, 2 is wrong.",
			source: model.MarkScanned,
		},
		{
			name:   "only denominators",
			text:   "Hard to say, somewhere /5.",
			max:    5,
			marks:  0,
			reason: "Hard to say, somewhere /5.",
			source: model.MarkDefault,
		},
		{
			name:   "no numbers",
			text:   "Reason: the answer is blank",
			max:    5,
			marks:  0,
			reason: "the answer is blank",
			source: model.MarkDefault,
		},
		{
			name:   "empty",
			text:   "",
			max:    5,
			marks:  0,
			reason: "",
			source: model.MarkDefault,
		},
		{
			name:   "rounded",
			text:   "Marks: 3.14159",
			max:    5,
			marks:  3.14,
			reason: "Marks: 3.14159",
			source: model.MarkLabeled,
		},
		{
			name:   "negative max",
			text:   "Marks: 3",
			max:    -2,
			marks:  0,
			reason: "Marks: 3",
			source: model.MarkLabeled,
		},
		{
			name:   "reason line preferred over prose",
			text:   "For this reason I give Marks: 2\nReason: partial",
			max:    5,
			marks:  2,
			reason: "partial",
			source: model.MarkLabeled,
		},
		{
			name:   "mark scheme prose before label",
			text:   "Reason: the mark scheme lists 4 key points and the student got two.\nMarks: 2/5",
			max:    5,
			marks:  2,
			reason: "the mark scheme lists 4 key points and the student got two.",
			source: model.MarkLabeled,
		},
		{
			name:   "mark scheme line before label",
			text:   "Mark scheme point 3 is missing.\nMarks: 1\nReason: incomplete",
			max:    5,
			marks:  1,
			reason: "incomplete",
			source: model.MarkLabeled,
		},
		{
			name:   "bold markdown labels",
			text:   "**Marks:** 4\n**Reason:** clear and correct",
			max:    5,
			marks:  4,
			reason: "clear and correct",
			source: model.MarkLabeled,
		},
		{
			name:   "plural word fallback",
			text:   "Total marks for this answer 3, the question had 4 parts.",
			max:    5,
			marks:  3,
			reason: "Total marks for this answer 3, the question had 4 parts.",
			source: model.MarkLabeled,
		},
		{
			name:   "singular word is not a label",
			text:   "The mark scheme has 4 points; the student covers 3.",
			max:    5,
			marks:  4,
			reason: "The mark scheme has 4 points; the student covers 3.",
			source: model.MarkScanned,
		},
		{
			name:   "reason stops at end of line",
			text:   "Marks: 4\nReason: Good.\n\nNote: be sure to review chapter 7.",
			max:    5,
			marks:  4,
			reason: "Good.",
			source: model.MarkLabeled,
		},
		{
			name:   "reason before marks line",
			text:   "Reason: covers both laws\nMarks: 5",
			max:    5,
			marks:  5,
			reason: "covers both laws",
			source: model.MarkLabeled,
		},
		{
			name:   "reasonable is not a label",
			text:   "A reasonable attempt, 4",
			max:    5,
			marks:  4,
			reason: "A reasonable attempt, 4",
			source: model.MarkScanned,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ParseResponse(tc.text, tc.max)
			assert.InDelta(t, tc.marks, p.Marks, 1e-9)
			assert.Equal(t, tc.reason, p.Reason)
			assert.Equal(t, tc.source, p.Source)
		})
	}
}

func TestParseResponse_FallbackReasonTruncated(t *testing.T) {
	text := strings.Repeat("ж", 250)
	p := ParseResponse(text, 5)
	assert.Equal(t, 200, len([]rune(p.Reason)))
}

func TestParseResponse_Bounds(t *testing.T) {
	inputs := []string{
		"", "   ", "no digits here", "Marks: 100", "99999 out of 1",
		"Marks: -4", "-7", "1e9", "Marks:\nReason:", "3/5 4/5 5/5",
		"Marks (out of 10): 12.75", "\x00\xff\xfe", "Reason:",
	}
	for _, max := range []float64{0, 1, 2.5, 5, 10} {
		for _, in := range inputs {
			p := ParseResponse(in, max)
			assert.GreaterOrEqual(t, p.Marks, 0.0, "input %q", in)
			assert.LessOrEqual(t, p.Marks, max, "input %q", in)
			assert.Equal(t, p, ParseResponse(in, max), "parse must be repeatable for %q", in)
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 5))
	assert.Equal(t, 0.0, clamp(3, math.NaN()))
	assert.Equal(t, 5.0, clamp(math.Inf(1), 5))
	assert.Equal(t, 1.23, clamp(1.234, 5))
}

type fakeCompleter struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls = append(f.calls, prompt)
	for key, err := range f.errs {
		if strings.Contains(prompt, key) {
			return "", err
		}
	}
	for key, reply := range f.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "Marks: 0\nReason: unknown", nil
}

func (f *fakeCompleter) Model() string { return "fake" }

func row(id, question, ideal, answer string) model.Row {
	return model.Row{
		Topic:         "physics",
		QuestionID:    id,
		Question:      question,
		IdealAnswer:   ideal,
		StudentAnswer: answer,
		MaxMarks:      5,
	}
}

func TestGrader_Grade(t *testing.T) {
	fc := &fakeCompleter{
		replies: map[string]string{
			"What is inertia?": "Marks: 4/5\nReason: Mostly right.",
		},
		errs: map[string]error{
			"What is momentum?": errors.New("429 rate limit"),
		},
	}
	rows := []model.Row{
		row("Q1", "What is inertia?", "Resistance to change in motion.", "Objects resist changes."),
		row("Q2", "What is momentum?", "Mass times velocity.", "m*v"),
		row("Q3", "What is power?", "Work per unit time.", "   "),
	}

	var progress []int
	g := New(fc)
	g.Progress = func(done, total int, _ model.Result) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	}

	results := g.Grade(context.Background(), rows)
	require.Len(t, results, 3)
	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Len(t, fc.calls, 2, "missing-data row must not reach the model")

	assert.Equal(t, model.StatusGraded, results[0].Status)
	assert.Equal(t, 4.0, results[0].Marks)
	assert.Equal(t, "Mostly right.", results[0].Reason)
	assert.Equal(t, "physics", results[0].Topic)
	assert.True(t, results[0].OK())

	assert.Equal(t, model.StatusModelError, results[1].Status)
	assert.Equal(t, 0.0, results[1].Marks)
	assert.Equal(t, "API error: 429 rate limit", results[1].Reason)
	assert.False(t, results[1].OK())

	assert.Equal(t, model.StatusMissingData, results[2].Status)
	assert.Equal(t, 0.0, results[2].Marks)
	assert.Equal(t, "Missing data: student answer", results[2].Reason)
	assert.Equal(t, "Q3", results[2].QuestionID)
}

func TestGrader_MissingFields(t *testing.T) {
	fc := &fakeCompleter{}
	res := New(fc).GradeRow(context.Background(), row("Q1", "", "", ""))
	assert.Equal(t, model.StatusMissingData, res.Status)
	assert.Equal(t, "Missing data: question, ideal answer, student answer", res.Reason)
	assert.Empty(t, fc.calls)
}

func TestGrader_VariantAndRawLog(t *testing.T) {
	fc := &fakeCompleter{replies: map[string]string{"Newton": "Marks: 5\nReason: exact"}}
	var buf bytes.Buffer
	g := &Grader{Completer: fc, Variant: prompts.PromptLenient, RawLog: &buf}

	res := g.GradeRow(context.Background(), row("Q7", "Who wrote the Principia?", "Newton", "Isaac Newton"))
	assert.Equal(t, 5.0, res.Marks)
	assert.Equal(t, "Marks: 5\nReason: exact", res.Raw)
	assert.Equal(t, "\n--- Q7 ---\nMarks: 5\nReason: exact\n", buf.String())

	want, err := prompts.BuildGradePrompt(prompts.PromptLenient, row("Q7", "Who wrote the Principia?", "Newton", "Isaac Newton"))
	require.NoError(t, err)
	require.Len(t, fc.calls, 1)
	assert.Equal(t, want, fc.calls[0])
}

func TestGrader_InvalidVariant(t *testing.T) {
	fc := &fakeCompleter{}
	g := &Grader{Completer: fc, Variant: "harsh"}
	res := g.GradeRow(context.Background(), row("Q1", "q", "ideal", "answer"))
	assert.Equal(t, model.StatusModelError, res.Status)
	assert.Contains(t, res.Reason, "invalid prompt variant")
	assert.Empty(t, fc.calls)
}

func TestGrader_CanceledContextWithLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fc := &fakeCompleter{}
	g := New(fc)
	g.Limiter = NewLimiter(1)

	results := g.Grade(ctx, []model.Row{row("Q1", "q", "ideal", "answer"), row("Q2", "q", "ideal", "answer")})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, model.StatusModelError, r.Status)
	}
	assert.Empty(t, fc.calls)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.Nil(t, NewLimiter(-3))
	l := NewLimiter(30)
	require.NotNil(t, l)
	assert.InDelta(t, 0.5, float64(l.Limit()), 1e-9)
}
