// Package segment splits document text into ordered question/answer blocks.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// MinBlockLen is the trimmed length a candidate must exceed to be kept.
const MinBlockLen = 20

// HeadingPattern matches line-start headings such as "Q1.", "Question 2:" or "Answer 3)".
var HeadingPattern = regexp.MustCompile(`(?:\n|^)(?:Q(?:uestion)?\s*\d+[.):]?|Answer\s*\d+[.):]?)`)

// Segmenter turns raw document text into non-empty trimmed blocks in document order.
type Segmenter interface {
	Segment(text string) []model.Block
}

// HeadingSegmenter splits on a heading regexp and drops short candidates.
type HeadingSegmenter struct {
	Pattern *regexp.Regexp
	MinLen  int
}

// New returns a segmenter using HeadingPattern and MinBlockLen.
func New() *HeadingSegmenter {
	return &HeadingSegmenter{Pattern: HeadingPattern, MinLen: MinBlockLen}
}

// Candidates returns the untrimmed pieces between headings, headings removed.
// With N heading matches there are at most N+1 pieces.
func (s *HeadingSegmenter) Candidates(text string) []string {
	return s.pattern().Split(text, -1)
}

// Segment keeps every candidate whose trimmed length exceeds MinLen.
// Block indexes count kept blocks only.
func (s *HeadingSegmenter) Segment(text string) []model.Block {
	var blocks []model.Block
	for _, c := range s.Candidates(text) {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) <= s.MinLen {
			continue
		}
		blocks = append(blocks, model.Block{Index: len(blocks), Text: c})
	}
	return blocks
}

func (s *HeadingSegmenter) pattern() *regexp.Regexp {
	if s.Pattern == nil {
		return HeadingPattern
	}
	return s.Pattern
}

// Texts returns the text of each block.
func Texts(blocks []model.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Text
	}
	return out
}
