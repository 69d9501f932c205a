// Package dataset builds gradable rows from the three documents of each topic.
package dataset

import (
	"errors"
	"fmt"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

var (
	// ErrAlignmentEmpty is returned when any block sequence of a topic is empty.
	ErrAlignmentEmpty = errors.New("no blocks to align")
	// ErrMissingFiles is returned when a topic lacks one of its role files.
	ErrMissingFiles = errors.New("missing role files")
)

// Align pairs the i-th question, ideal answer and student answer by position.
// Excess blocks of a longer sequence are dropped.
func Align(topic string, questions, ideals, answers []model.Block) ([]model.Row, error) {
	if len(questions) == 0 || len(ideals) == 0 || len(answers) == 0 {
		return nil, fmt.Errorf("%w: %d question, %d ideal answer, %d student answer blocks",
			ErrAlignmentEmpty, len(questions), len(ideals), len(answers))
	}
	n := min(len(questions), len(ideals), len(answers))
	rows := make([]model.Row, 0, n)
	for i := range n {
		rows = append(rows, model.Row{
			Topic:         topic,
			QuestionID:    QuestionID(i),
			Question:      questions[i].Text,
			IdealAnswer:   ideals[i].Text,
			StudentAnswer: answers[i].Text,
			MaxMarks:      model.DefaultMaxMarks,
		})
	}
	return rows, nil
}

// QuestionID returns the sequential identifier for a zero-based position.
func QuestionID(i int) string {
	return fmt.Sprintf("Q%d", i+1)
}
