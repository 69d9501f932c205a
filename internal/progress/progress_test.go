package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

func TestReporter_TTY(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	r.Update(1, 2, model.Result{QuestionID: "Q1"})
	assert.True(t, strings.HasPrefix(buf.String(), "\r"))
	assert.Contains(t, buf.String(), "1/2")
	assert.False(t, strings.HasSuffix(buf.String(), "\n"))

	r.Update(2, 2, model.Result{QuestionID: "Q2"})
	assert.Contains(t, buf.String(), "2/2")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestReporter_NonTTYWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Update(1, 1, model.Result{QuestionID: "Q1"})
	assert.Empty(t, buf.String())
}

func TestReporter_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Update(0, 0, model.Result{})
	assert.Contains(t, buf.String(), "0/0")
}

func TestReporter_Summary(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Summary(model.RunSummary{Rows: 4, Graded: 2, MissingData: 1, ModelErrors: 1, TotalMarks: 7.5, MaxMarks: 20}, "graded_results.xlsx")
	out := buf.String()
	for _, want := range []string{"4 rows", "2 graded", "1 missing data", "1 model errors", "marks 7.5/20", "graded_results.xlsx"} {
		assert.Contains(t, out, want)
	}
}
