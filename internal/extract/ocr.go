package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// DPI is the rasterization resolution used before OCR.
const DPI = 200

// ErrOCRToolNotFound is returned when pdftoppm or tesseract is not on PATH.
var ErrOCRToolNotFound = errors.New("OCR tools not found: install poppler (pdftoppm) and tesseract")

var pdfinfoPagesRegex = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Stderr is folded into the error on failure.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// CheckOCRAvailable reports whether the OCR binaries are installed.
func CheckOCRAvailable() error {
	for _, bin := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w (%s)", ErrOCRToolNotFound, bin)
		}
	}
	return nil
}

// InstallInstructions describes how to install the OCR dependencies.
func InstallInstructions() string {
	return `OCR mode needs pdftoppm and tesseract on PATH.
  macOS:          brew install poppler tesseract
  Debian/Ubuntu:  apt install poppler-utils tesseract-ocr`
}

// OCRExtractor rasterizes each page with pdftoppm and reads it with tesseract.
type OCRExtractor struct {
	runner   CommandRunner
	dpi      int
	language string
}

// NewOCRExtractor creates an OCR extractor using runner for the external tools.
func NewOCRExtractor(runner CommandRunner) *OCRExtractor {
	return &OCRExtractor{runner: runner, dpi: DPI, language: "eng"}
}

// Extract OCRs every page and joins them with "--- Page N ---" markers.
func (e *OCRExtractor) Extract(ctx context.Context, path string) (model.Document, error) {
	if err := checkPDF(path); err != nil {
		return model.Document{}, err
	}
	n, err := e.pageCount(ctx, path)
	if err != nil {
		return model.Document{}, &ExtractionError{Path: path, Err: err}
	}

	dir, err := os.MkdirTemp("", "grader-ocr-")
	if err != nil {
		return model.Document{}, &ExtractionError{Path: path, Err: err}
	}
	defer os.RemoveAll(dir)

	var sb strings.Builder
	recognised := false
	for i := 1; i <= n; i++ {
		text, err := e.page(ctx, path, dir, i)
		if err != nil {
			return model.Document{}, &ExtractionError{Path: path, Err: err}
		}
		if strings.TrimSpace(text) != "" {
			recognised = true
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n", i)
		sb.WriteString(text)
	}
	if !recognised {
		return model.Document{}, &ExtractionError{Path: path, Err: ErrNoContent}
	}
	slog.Debug("OCR extracted", "path", path, "pages", n, "chars", sb.Len())
	return finish(path, n, sb.String())
}

// page rasterizes and OCRs a single 1-based page.
func (e *OCRExtractor) page(ctx context.Context, path, dir string, num int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	root := filepath.Join(dir, fmt.Sprintf("page-%d", num))
	n := strconv.Itoa(num)
	_, err := e.runner.Run(ctx, "pdftoppm",
		"-r", strconv.Itoa(e.dpi), "-f", n, "-l", n, "-png", "-singlefile", path, root)
	if err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", num, err)
	}
	image := root + ".png"
	defer os.Remove(image)

	out, err := e.runner.Run(ctx, "tesseract", image, "stdout", "-l", e.language)
	if err != nil {
		return "", fmt.Errorf("OCR page %d: %w", num, err)
	}
	return string(out), nil
}

func (e *OCRExtractor) pageCount(ctx context.Context, path string) (int, error) {
	if n, err := countPages(path); err == nil && n > 0 {
		return n, nil
	}
	out, err := e.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return parsePDFInfoPages(out)
}

func parsePDFInfoPages(out []byte) (int, error) {
	m := pdfinfoPagesRegex.FindSubmatch(out)
	if m == nil {
		return 0, errors.New("count pages: no page count in pdfinfo output")
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("count pages: bad page count %q", m[1])
	}
	return n, nil
}
