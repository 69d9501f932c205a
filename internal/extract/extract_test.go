package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// fakeRunner answers pdfinfo, pdftoppm and tesseract invocations from canned data.
type fakeRunner struct {
	pages  int
	texts  map[string]string // keyed by image base name
	failOn string
	calls  []string
	images []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, name)
	if name == f.failOn {
		return nil, errors.New(name + " crashed")
	}
	switch name {
	case "pdfinfo":
		return []byte("Title: x\nPages:          " + strconv.Itoa(f.pages) + "\n"), nil
	case "pdftoppm":
		return nil, nil
	case "tesseract":
		f.images = append(f.images, args[0])
		return []byte(f.texts[filepath.Base(args[0])]), nil
	}
	return nil, errors.New("unexpected command " + name)
}

func writeFakePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n% not a real document\n"), 0o644))
	return path
}

func TestCheckPDF(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain words, not a pdf"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing", filepath.Join(dir, "nope.pdf"), os.ErrNotExist},
		{"not a pdf", txt, ErrNotPDF},
		{"pdf header", writeFakePDF(t), nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkPDF(tc.path)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var xerr *ExtractionError
			require.ErrorAs(t, err, &xerr)
			assert.Equal(t, tc.path, xerr.Path)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestOCRExtractor(t *testing.T) {
	path := writeFakePDF(t)
	runner := &fakeRunner{
		pages: 2,
		texts: map[string]string{
			"page-1.png": "Q1. Define photosynthesis in plants.",
			"page-2.png": "Q2. Explain the water cycle briefly.",
		},
	}

	doc, err := NewOCRExtractor(runner).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t,
		"\n--- Page 1 ---\nQ1. Define photosynthesis in plants.\n--- Page 2 ---\nQ2. Explain the water cycle briefly.",
		doc.Text)
	assert.Equal(t, []string{"pdfinfo", "pdftoppm", "tesseract", "pdftoppm", "tesseract"}, runner.calls)
	for _, img := range runner.images {
		_, statErr := os.Stat(filepath.Dir(img))
		assert.True(t, os.IsNotExist(statErr), "temp dir should be removed")
	}
}

func TestOCRExtractor_ToolFailure(t *testing.T) {
	path := writeFakePDF(t)
	runner := &fakeRunner{pages: 1, failOn: "tesseract"}

	_, err := NewOCRExtractor(runner).Extract(context.Background(), path)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, err.Error(), "tesseract crashed")
}

func TestOCRExtractor_NoContent(t *testing.T) {
	path := writeFakePDF(t)
	runner := &fakeRunner{pages: 1, texts: map[string]string{"page-1.png": "   \n"}}

	// Page markers alone are not content.
	_, err := NewOCRExtractor(runner).Extract(context.Background(), path)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestParsePDFInfoPages(t *testing.T) {
	n, err := parsePDFInfoPages([]byte("Producer: x\nPages:           12\nEncrypted: no\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parsePDFInfoPages([]byte("garbage"))
	assert.Error(t, err)
}

type stubExtractor struct {
	doc   model.Document
	err   error
	calls int
}

func (s *stubExtractor) Extract(context.Context, string) (model.Document, error) {
	s.calls++
	return s.doc, s.err
}

func TestAutoExtractor(t *testing.T) {
	rich := model.Document{Text: strings.Repeat("answer text ", 20), PageCount: 1}
	scanned := model.Document{Text: "p1", PageCount: 3}
	ocrDoc := model.Document{Text: "recognised text", PageCount: 3}
	noContent := &ExtractionError{Path: "x.pdf", Err: ErrNoContent}

	tests := []struct {
		name      string
		text      *stubExtractor
		available error
		want      string
		wantOCR   bool
		wantErr   bool
	}{
		{"text layer good", &stubExtractor{doc: rich}, nil, rich.Text, false, false},
		{"sparse falls back", &stubExtractor{doc: scanned}, nil, ocrDoc.Text, true, false},
		{"empty falls back", &stubExtractor{err: noContent}, nil, ocrDoc.Text, true, false},
		{"sparse without OCR keeps text", &stubExtractor{doc: scanned}, ErrOCRToolNotFound, scanned.Text, false, false},
		{"empty without OCR errors", &stubExtractor{err: noContent}, ErrOCRToolNotFound, "", false, true},
		{"other error is returned", &stubExtractor{err: &ExtractionError{Path: "x", Err: ErrNotPDF}}, nil, "", false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ocr := &stubExtractor{doc: ocrDoc}
			auto := NewAutoExtractor(tc.text, ocr)
			auto.available = func() error { return tc.available }

			doc, err := auto.Extract(context.Background(), "x.pdf")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, doc.Text)
			}
			assert.Equal(t, tc.wantOCR, ocr.calls == 1)
		})
	}
}

func TestNew(t *testing.T) {
	for _, m := range []Mode{ModeText, ModeOCR, ModeAuto, ""} {
		ex, err := New(m, nil)
		require.NoError(t, err)
		assert.NotNil(t, ex)
	}
	_, err := New("magic", nil)
	assert.Error(t, err)
}

func TestInstallInstructions(t *testing.T) {
	s := InstallInstructions()
	assert.Contains(t, s, "pdftoppm")
	assert.Contains(t, s, "brew install poppler tesseract")
	assert.Contains(t, s, "apt install poppler-utils tesseract-ocr")
}
