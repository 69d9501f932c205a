package grade

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Ritikayogi/AI-Grader/internal/llm"
	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// ProgressFunc is called after each row with the number of rows done so far.
type ProgressFunc func(done, total int, res model.Result)

// Grader grades dataset rows one at a time against a completion endpoint.
type Grader struct {
	Completer llm.Completer
	Variant   prompts.PromptVariant
	// Limiter paces model calls. Nil means unpaced.
	Limiter  *rate.Limiter
	Progress ProgressFunc
	// RawLog receives every raw reply when set.
	RawLog io.Writer
}

// New returns a grader using the standard prompt.
func New(c llm.Completer) *Grader {
	return &Grader{Completer: c, Variant: prompts.PromptStandard}
}

// NewLimiter converts a requests-per-minute budget into a limiter. Zero or
// less disables pacing.
func NewLimiter(perMinute float64) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perMinute/60), 1)
}

// Grade returns one result per row, in row order. A failing row never stops
// the batch; its result carries the diagnostic instead.
func (g *Grader) Grade(ctx context.Context, rows []model.Row) []model.Result {
	results := make([]model.Result, 0, len(rows))
	for i, row := range rows {
		res := g.GradeRow(ctx, row)
		results = append(results, res)
		slog.Debug("graded row", "question_id", row.QuestionID, "status", res.Status, "marks", res.Marks)
		if g.Progress != nil {
			g.Progress(i+1, len(rows), res)
		}
	}
	return results
}

// GradeRow grades a single row.
func (g *Grader) GradeRow(ctx context.Context, row model.Row) model.Result {
	res := model.Result{
		Topic:      row.Topic,
		QuestionID: row.QuestionID,
		Question:   row.Question,
		MaxMarks:   row.MaxMarks,
		MarkSource: model.MarkDefault,
	}

	if missing := missingFields(row); len(missing) > 0 {
		res.Status = model.StatusMissingData
		res.Reason = "Missing data: " + strings.Join(missing, ", ")
		return res
	}

	reply, err := g.complete(ctx, row)
	g.logRaw(row.QuestionID, reply, err)
	if err != nil {
		slog.Warn("model call failed", "question_id", row.QuestionID, "error", err)
		res.Status = model.StatusModelError
		res.Reason = "API error: " + err.Error()
		return res
	}

	p := ParseResponse(reply, row.MaxMarks)
	res.Status = model.StatusGraded
	res.Marks = p.Marks
	res.Reason = p.Reason
	res.MarkSource = p.Source
	res.Raw = reply
	return res
}

func (g *Grader) complete(ctx context.Context, row model.Row) (string, error) {
	variant := g.Variant
	if variant == "" {
		variant = prompts.PromptStandard
	}
	prompt, err := prompts.BuildGradePrompt(variant, row)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return g.Completer.Complete(ctx, prompt)
}

func (g *Grader) logRaw(id, reply string, err error) {
	if g.RawLog == nil {
		return
	}
	if err != nil {
		reply = "API error: " + err.Error()
	}
	if _, werr := fmt.Fprintf(g.RawLog, "\n--- %s ---\n%s\n", id, reply); werr != nil {
		slog.Warn("write raw log", "error", werr)
	}
}

func missingFields(row model.Row) []string {
	var missing []string
	if strings.TrimSpace(row.Question) == "" {
		missing = append(missing, "question")
	}
	if strings.TrimSpace(row.IdealAnswer) == "" {
		missing = append(missing, "ideal answer")
	}
	if strings.TrimSpace(row.StudentAnswer) == "" {
		missing = append(missing, "student answer")
	}
	return missing
}
