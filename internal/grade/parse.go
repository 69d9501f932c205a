package grade

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// fallbackReasonRunes caps the reason taken from an unlabeled reply.
const fallbackReasonRunes = 200

var (
	marksLineRegex   = regexp.MustCompile(`(?im)^[ \t*#>-]*marks?\**[ \t]*(?:\([ \t]*out[ \t]+of[ \t]+\d+(?:\.\d+)?[ \t]*\))?[ \t]*(?:awarded|given|scored)?[ \t*]*[:=\-–]?[ \t*]*(\d+(?:\.\d+)?)`)
	marksInlineRegex = regexp.MustCompile(`(?i)\bmarks?[ \t]*(?:\([ \t]*out[ \t]+of[ \t]+\d+(?:\.\d+)?[ \t]*\))?[ \t]*[:=][ \t*]*(\d+(?:\.\d+)?)`)
	marksWordRegex   = regexp.MustCompile(`(?i)\bmarks\b[^0-9\n]*(\d+(?:\.\d+)?)`)
	numberRegex      = regexp.MustCompile(`(?i)(/\s*|\bout\s+of\s+)?(\d+(?:\.\d+)?)`)
	reasonLineRegex  = regexp.MustCompile(`(?im)^[ \t*#>-]*reason(?:ing)?\**[ \t]*[:\-–]\**[ \t]*(.*)`)
	reasonRegex      = regexp.MustCompile(`(?i)\breason(?:ing)?\b[ \t]*[:\-–]?[ \t]*(.*)`)
)

// Parsed is the mark and reason recovered from one model reply.
type Parsed struct {
	Marks  float64
	Reason string
	Source model.MarkSource
}

// ParseResponse extracts a mark in [0, maxMarks] and a reason from a free-form
// reply. It never panics and always returns a usable pair.
//
// The mark comes from the first of: a "Marks" label opening a line, a
// "Marks:" inside a sentence, the word "marks" followed by a number on the
// same line, the largest number that is not a denominator. The reason is the
// rest of the "Reason" line.
func ParseResponse(text string, maxMarks float64) (p Parsed) {
	defer func() {
		if r := recover(); r != nil {
			p = Parsed{Reason: fmt.Sprintf("parse error: %v", r), Source: model.MarkDefault}
		}
	}()

	marks, src := extractMarks(text)
	return Parsed{
		Marks:  clamp(marks, maxMarks),
		Reason: extractReason(text),
		Source: src,
	}
}

func extractMarks(text string) (float64, model.MarkSource) {
	for _, re := range []*regexp.Regexp{marksLineRegex, marksInlineRegex, marksWordRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, model.MarkLabeled
			}
		}
	}

	found := false
	best := 0.0
	for _, m := range numberRegex.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			// denominator: "/5" or "out of 5"
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	if found {
		return best, model.MarkScanned
	}
	return 0, model.MarkDefault
}

func extractReason(text string) string {
	for _, re := range []*regexp.Regexp{reasonLineRegex, reasonRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			if r := strings.TrimSpace(m[1]); r != "" {
				return r
			}
		}
	}
	return truncateRunes(strings.TrimSpace(text), fallbackReasonRunes)
}

func clamp(v, maxMarks float64) float64 {
	if maxMarks < 0 || math.IsNaN(maxMarks) {
		maxMarks = 0
	}
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > maxMarks {
		v = maxMarks
	}
	return math.Round(v*100) / 100
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
