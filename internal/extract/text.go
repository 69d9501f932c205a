package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// TextExtractor reads the PDF text layer page by page.
type TextExtractor struct{}

// NewTextExtractor creates a text-layer extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract joins the text of every non-empty page, one newline after each.
func (e *TextExtractor) Extract(ctx context.Context, path string) (model.Document, error) {
	if err := checkPDF(path); err != nil {
		return model.Document{}, err
	}
	pages, err := readPages(ctx, path)
	if err != nil {
		return model.Document{}, &ExtractionError{Path: path, Err: err}
	}

	var sb strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	slog.Debug("text layer extracted", "path", path, "pages", len(pages), "chars", sb.Len())
	return finish(path, len(pages), sb.String())
}

// readPages returns the text layer of each page; pages without text are "".
// The PDF reader panics on some malformed files, so panics become errors.
func readPages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// countPages returns the number of pages in a PDF.
func countPages(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt PDF: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()
	return r.NumPage(), nil
}
