package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// minCharsPerPage below which a text layer is treated as a scan.
const minCharsPerPage = 40

// AutoExtractor reads the text layer and falls back to OCR for scanned files.
type AutoExtractor struct {
	text      Extractor
	ocr       Extractor
	available func() error
}

// NewAutoExtractor combines a text-layer and an OCR extractor.
func NewAutoExtractor(text, ocr Extractor) *AutoExtractor {
	return &AutoExtractor{text: text, ocr: ocr, available: CheckOCRAvailable}
}

// Extract prefers the text layer unless it is empty or too sparse for the page count.
func (e *AutoExtractor) Extract(ctx context.Context, path string) (model.Document, error) {
	doc, err := e.text.Extract(ctx, path)
	if err == nil && !sparse(doc) {
		return doc, nil
	}
	if err != nil && !errors.Is(err, ErrNoContent) {
		return model.Document{}, err
	}
	if aerr := e.available(); aerr != nil {
		slog.Warn("text layer empty or sparse and OCR unavailable", "path", path, "error", aerr)
		return doc, err
	}
	slog.Info("falling back to OCR", "path", path)
	return e.ocr.Extract(ctx, path)
}

func sparse(doc model.Document) bool {
	if doc.PageCount == 0 {
		return false
	}
	chars := len(strings.TrimSpace(doc.Text))
	return chars/doc.PageCount < minCharsPerPage
}
