// Package progress reports grading progress on a terminal or as log lines.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

const barWidth = 40

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Reporter prints one update per graded row. On a terminal it redraws a bar
// in place; otherwise each row becomes a log line.
type Reporter struct {
	w   io.Writer
	tty bool
	bar progress.Model

	ok   lipgloss.Style
	warn lipgloss.Style
	bad  lipgloss.Style
	bold lipgloss.Style
}

// New creates a reporter writing to w.
func New(w io.Writer, tty bool) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:    w,
		tty:  tty,
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		ok:   r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		warn: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		bad:  r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		bold: r.NewStyle().Bold(true),
	}
}

// Update matches grade.ProgressFunc.
func (r *Reporter) Update(done, total int, res model.Result) {
	if !r.tty {
		slog.Info("graded row",
			"done", done, "total", total,
			"question_id", res.QuestionID, "status", res.Status, "marks", res.Marks, "max_marks", res.MaxMarks)
		return
	}
	pct := 0.0
	if total > 0 {
		pct = float64(done) / float64(total)
	}
	fmt.Fprintf(r.w, "\r%s %d/%d", r.bar.ViewAs(pct), done, total)
	if done == total {
		fmt.Fprintln(r.w)
	}
}

// Summary prints the closing line of a run.
func (r *Reporter) Summary(sum model.RunSummary, output string) {
	line := fmt.Sprintf("%s %s  %s  %s  marks %s/%s",
		r.bold.Render(fmt.Sprintf("%d rows", sum.Rows)),
		r.ok.Render(fmt.Sprintf("%d graded", sum.Graded)),
		r.warn.Render(fmt.Sprintf("%d missing data", sum.MissingData)),
		r.bad.Render(fmt.Sprintf("%d model errors", sum.ModelErrors)),
		formatMarks(sum.TotalMarks), formatMarks(sum.MaxMarks),
	)
	fmt.Fprintln(r.w, line)
	if output != "" {
		fmt.Fprintln(r.w, "Saved graded results to "+r.bold.Render(output))
	}
}

func formatMarks(v float64) string {
	return fmt.Sprintf("%g", v)
}
