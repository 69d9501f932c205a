// Package extract turns exam PDFs into plain text, either from the PDF text
// layer or by rasterizing each page and running OCR on it.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

var (
	// ErrNoContent is returned when a readable PDF yields no text at all.
	ErrNoContent = errors.New("no text extracted")
	// ErrNotPDF is returned when a file does not sniff as application/pdf.
	ErrNotPDF = errors.New("not a PDF file")
)

// ExtractionError reports a file that could not be turned into text.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor produces the full text of one document.
type Extractor interface {
	Extract(ctx context.Context, path string) (model.Document, error)
}

// Mode selects an extraction strategy.
type Mode string

const (
	ModeText Mode = "text"
	ModeOCR  Mode = "ocr"
	ModeAuto Mode = "auto"
)

// New returns the extractor for a mode. OCR and auto modes shell out to
// pdftoppm and tesseract through runner; a nil runner uses os/exec.
func New(mode Mode, runner CommandRunner) (Extractor, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	switch mode {
	case ModeText, "":
		return NewTextExtractor(), nil
	case ModeOCR:
		return NewOCRExtractor(runner), nil
	case ModeAuto:
		return NewAutoExtractor(NewTextExtractor(), NewOCRExtractor(runner)), nil
	default:
		return nil, fmt.Errorf("unknown extraction mode %q (want text, ocr or auto)", mode)
	}
}

// checkPDF verifies the file exists and looks like a PDF.
func checkPDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ExtractionError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &ExtractionError{Path: path, Err: errors.New("is a directory")}
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return &ExtractionError{Path: path, Err: err}
	}
	if !mt.Is("application/pdf") {
		return &ExtractionError{Path: path, Err: fmt.Errorf("%w: detected %s", ErrNotPDF, mt.String())}
	}
	return nil
}

func finish(path string, pages int, text string) (model.Document, error) {
	if strings.TrimSpace(text) == "" {
		return model.Document{}, &ExtractionError{Path: path, Err: ErrNoContent}
	}
	return model.Document{Path: path, Text: text, PageCount: pages}, nil
}
