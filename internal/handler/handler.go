package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appI18n "github.com/Ritikayogi/AI-Grader/internal/i18n"
	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
	"github.com/Ritikayogi/AI-Grader/internal/model"
	"github.com/Ritikayogi/AI-Grader/internal/table"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	// PreviewRows is how many result rows the page shows after a run.
	PreviewRows = 8

	runDirPrefix   = "grader-"
	resultBaseName = "graded_results"
	formMemory     = 8 << 20
)

var outputFormats = []string{"xlsx", "csv", "json", "db"}

// Uploads whose sniffed type (or a parent type) is not listed are rejected.
var allowedMIME = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv":                true,
	"application/json":        true,
	"application/vnd.sqlite3": true,
	"text/plain":              true,
}

// Config holds front-end settings.
type Config struct {
	BasePath      string
	WorkDir       string
	MaxUploadMB   int64
	SecureCookies bool
	// PasswordHash enables basic auth when set.
	PasswordHash   []byte
	DefaultVariant prompts.PromptVariant
	RunTimeout     time.Duration
}

// Handler serves the upload page and runs grading subprocesses.
type Handler struct {
	config  Config
	runner  Runner
	metrics *metrics
	gather  prometheus.Gatherer
	tmpl    *template.Template
}

// New creates a Handler. Metrics are registered on reg.
func New(cfg Config, runner Runner, reg *prometheus.Registry) (*Handler, error) {
	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{"marks": prompts.FormatMarks}).
		ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}
	if !prompts.IsValidVariant(string(cfg.DefaultVariant)) {
		cfg.DefaultVariant = prompts.PromptStandard
	}
	return &Handler{
		config:  cfg,
		runner:  runner,
		metrics: newMetrics(reg),
		gather:  reg,
		tmpl:    tmpl,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", promhttp.HandlerFor(h.gather, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if len(h.config.PasswordHash) > 0 {
			r.Use(h.requirePassword)
		}
		r.Use(appI18n.Middleware())
		r.With(h.csrfMiddleware).Get("/", h.handleIndex)
		r.With(h.limitUpload, h.csrfMiddleware).Post("/grade", h.handleGrade)
		r.Get("/download/{runID}/{name}", h.handleDownload)
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

type variantOption struct {
	Value    string
	Label    string
	Selected bool
}

type runView struct {
	Failed      bool
	Message     string
	RowsMessage string
	DownloadURL string
	Preview     []model.Result
	Stdout      string
	Stderr      string
}

type page struct {
	ctx       context.Context
	basePath  string
	Lang      string
	Languages []string
	CSRFToken string
	Variants  []variantOption
	Formats   []string
	Error     string
	Run       *runView
}

func (p page) T(id string) string { return appI18n.T(p.ctx, id) }

func (p page) Path(s string) string { return p.basePath + s }

func (h *Handler) newPage(r *http.Request, selected prompts.PromptVariant) page {
	ctx := r.Context()
	labels := map[prompts.PromptVariant]string{
		prompts.PromptStrict:   "VariantStrict",
		prompts.PromptStandard: "VariantStandard",
		prompts.PromptLenient:  "VariantLenient",
	}
	var opts []variantOption
	for _, v := range prompts.Variants {
		opts = append(opts, variantOption{Value: string(v), Label: labels[v], Selected: v == selected})
	}
	return page{
		ctx:       ctx,
		basePath:  h.config.BasePath,
		Lang:      appI18n.Lang(ctx),
		Languages: appI18n.Languages(),
		CSRFToken: csrfToken(ctx),
		Variants:  opts,
		Formats:   outputFormats,
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.Execute(w, p); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.newPage(r, h.config.DefaultVariant))
}

// limitUpload caps the request body and parses the multipart form so the
// CSRF check can read its token.
func (h *Handler) limitUpload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadMB<<20)
		if err := r.ParseMultipartForm(formMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.metrics.runs.WithLabelValues(outcomeRejected).Inc()
				p := h.newPage(r, h.config.DefaultVariant)
				p.Error = appI18n.T(r.Context(), "ErrTooLarge")
				h.render(w, http.StatusRequestEntityTooLarge, p)
				return
			}
			slog.Warn("bad upload form", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, variant prompts.PromptVariant, msg string) {
	h.metrics.runs.WithLabelValues(outcomeRejected).Inc()
	p := h.newPage(r, variant)
	p.Error = msg
	h.render(w, http.StatusBadRequest, p)
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	variant := prompts.PromptVariant(r.FormValue("variant"))
	if !prompts.IsValidVariant(string(variant)) {
		variant = h.config.DefaultVariant
	}
	format := r.FormValue("format")
	if !validFormat(format) {
		format = outputFormats[0]
	}

	file, header, err := r.FormFile("dataset")
	if err != nil {
		h.reject(w, r, variant, appI18n.T(ctx, "ErrNoFile"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, err := table.FormatOf(header.Filename); err != nil {
		h.reject(w, r, variant, appI18n.Td(ctx, "ErrBadType", map[string]any{"Type": ext}))
		return
	}

	runID := uuid.NewString()
	dir := filepath.Join(h.config.WorkDir, runDirPrefix+runID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("create run dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	input := filepath.Join(dir, "input"+ext)
	if err := saveUpload(file, input); err != nil {
		slog.Error("save upload", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	mt, err := mimetype.DetectFile(input)
	if err != nil || !allowedType(mt) {
		got := "unknown"
		if mt != nil {
			got = mt.String()
		}
		_ = os.RemoveAll(dir)
		slog.Warn("rejected upload", "filename", header.Filename, "mime", got)
		h.reject(w, r, variant, appI18n.Td(ctx, "ErrBadType", map[string]any{"Type": got}))
		return
	}

	outName := resultBaseName + "." + format
	output := filepath.Join(dir, outName)
	slog.Info("starting grading run", "run_id", runID, "filename", header.Filename, "variant", variant, "format", format)

	runCtx := ctx
	if h.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.config.RunTimeout)
		defer cancel()
	}
	out, runErr := h.runner.Run(runCtx, RunRequest{Input: input, Output: output, Variant: string(variant)})
	h.metrics.duration.Observe(out.Duration.Seconds())

	view := &runView{Stdout: out.Stdout, Stderr: out.Stderr}
	var results []model.Result
	if runErr == nil {
		results, runErr = table.ReadResults(output)
	}
	if runErr != nil {
		h.metrics.runs.WithLabelValues(outcomeFailed).Inc()
		slog.Error("grading run failed", "run_id", runID, "error", runErr)
		view.Failed = true
		view.Message = appI18n.Td(ctx, "GradingFailed", map[string]any{"Error": runErr.Error()})
	} else {
		h.metrics.runs.WithLabelValues(outcomeSucceeded).Inc()
		h.metrics.rows.Add(float64(len(results)))
		slog.Info("grading run finished", "run_id", runID, "rows", len(results), "duration", out.Duration)
		view.Message = appI18n.Td(ctx, "GradingDone", map[string]any{"Seconds": fmt.Sprintf("%.1f", out.Duration.Seconds())})
		view.RowsMessage = appI18n.Tp(ctx, "RowsGraded", len(results))
		view.DownloadURL = h.path("/download/" + runID + "/" + outName)
		view.Preview = results[:min(len(results), PreviewRows)]
	}

	p := h.newPage(r, variant)
	p.Run = view
	h.render(w, http.StatusOK, p)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	name := chi.URLParam(r, "name")
	if _, err := uuid.Parse(runID); err != nil {
		http.NotFound(w, r)
		return
	}
	if name != filepath.Base(name) || !strings.HasPrefix(name, resultBaseName+".") || !validFormat(strings.TrimPrefix(name, resultBaseName+".")) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.config.WorkDir, runDirPrefix+runID, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func saveUpload(src io.Reader, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func allowedType(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		for allowed := range allowedMIME {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

func validFormat(f string) bool {
	for _, o := range outputFormats {
		if f == o {
			return true
		}
	}
	return false
}
