package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "short questions are noise",
			text: "Q1. What is 2+2?\nQ2. What is 3+3?",
			want: nil,
		},
		{
			name: "question headings",
			text: "Q1. Describe the process of photosynthesis.\nQ2) Explain how the heart pumps blood.",
			want: []string{
				"Describe the process of photosynthesis.",
				"Explain how the heart pumps blood.",
			},
		},
		{
			name: "question word and answer headings",
			text: "Exam paper header\nQuestion 1: Name three renewable energy sources.\nAnswer 2. Solar, wind and hydroelectric power.",
			want: []string{
				"Name three renewable energy sources.",
				"Solar, wind and hydroelectric power.",
			},
		},
		{
			name: "no headings keeps whole text",
			text: "   A single long answer without any heading at all.  ",
			want: []string{"A single long answer without any heading at all."},
		},
		{
			name: "no headings short text dropped",
			text: "page 1 of 3",
			want: nil,
		},
		{
			name: "heading mid-line is not a delimiter",
			text: "Q1 Compare Q2 style answers with essay answers in detail.",
			want: []string{"Compare Q2 style answers with essay answers in detail."},
		},
		{
			name: "ocr page markers",
			text: "\n--- Page 1 ---\nQ1. State Newton's first law of motion.\n--- Page 2 ---\nQ2. State Newton's second law of motion.",
			want: []string{
				"State Newton's first law of motion.\n--- Page 2 ---",
				"State Newton's second law of motion.",
			},
		},
	}

	s := New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blocks := s.Segment(tc.text)
			if tc.want == nil {
				assert.Empty(t, blocks)
				return
			}
			require.Len(t, blocks, len(tc.want))
			for i, b := range blocks {
				assert.Equal(t, i, b.Index)
				assert.Equal(t, tc.want[i], b.Text)
			}
		})
	}
}

func TestCandidatesBound(t *testing.T) {
	texts := []string{
		"",
		"Q1. a\nQ2. b\nQ3. c",
		"Question 1 something long enough to keep around\nAnswer 1) and more text that is long",
		strings.Repeat("\nQ9. filler text for the block here", 7),
	}
	s := New()
	for _, text := range texts {
		n := len(HeadingPattern.FindAllStringIndex(text, -1))
		cands := s.Candidates(text)
		assert.LessOrEqual(t, len(cands), n+1)

		kept := 0
		for _, c := range cands {
			if len([]rune(strings.TrimSpace(c))) > MinBlockLen {
				kept++
			}
		}
		assert.Len(t, s.Segment(text), kept)
	}
}

func TestSegmentBoundaryLength(t *testing.T) {
	s := New()
	exactly := strings.Repeat("x", MinBlockLen)
	assert.Empty(t, s.Segment("Q1. "+exactly))
	assert.Len(t, s.Segment("Q1. "+exactly+"y"), 1)
}

func TestTexts(t *testing.T) {
	blocks := New().Segment("Q1. The mitochondria is the powerhouse.\nQ2. Ribosomes synthesise proteins in cells.")
	assert.Equal(t, []string{
		"The mitochondria is the powerhouse.",
		"Ribosomes synthesise proteins in cells.",
	}, Texts(blocks))
}
