package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ritikayogi/AI-Grader/internal/config"
	"github.com/Ritikayogi/AI-Grader/internal/handler"
	appI18n "github.com/Ritikayogi/AI-Grader/internal/i18n"
	"github.com/Ritikayogi/AI-Grader/internal/llm"
	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
)

// Grading flags forwarded to each "grader grade" subprocess when set.
var forwardedFlags = []string{"provider", "llm-url", "llm-model", "llm-timeout", "rate", "log-level", "log-format"}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the upload page that grades a dataset file",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("password", "", "Shared password for the page (or set GRADER_PASSWORD)")
	f.String("work-dir", "", "Directory for uploads and results (default: system temp dir)")
	f.Int64("max-upload-mb", 20, "Maximum upload size in MB")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /grader)")
	f.Bool("secure-cookies", false, "Set Secure flag on cookies")
	f.Duration("run-timeout", 30*time.Minute, "Maximum duration of one grading run")
	f.Bool("skip-ping", false, "Start without checking the model endpoint")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	srvCfg, err := config.LoadServer(v)
	if err != nil {
		return err
	}
	gradeCfg, err := config.LoadGrading(v)
	if err != nil {
		return err
	}

	if err := appI18n.Init(srvCfg.Lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	if err := os.MkdirAll(srvCfg.WorkDir, 0o750); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}

	if !v.GetBool("skip-ping") {
		client, err := newClient(ctx, gradeCfg)
		if err != nil {
			return err
		}
		_, err = llm.Ping(ctx, client)
		client.Close()
		if err != nil {
			return err
		}
		slog.Info("LLM endpoint OK", "provider", gradeCfg.LLM.Provider, "model", gradeCfg.LLM.Model)
	}

	// The key reaches subprocesses through the environment, not argv.
	if gradeCfg.LLM.Key != "" {
		if err := os.Setenv("GRADER_LLM_KEY", gradeCfg.LLM.Key); err != nil {
			return fmt.Errorf("export llm key: %w", err)
		}
	}
	runner, err := handler.NewExecRunner(forwardArgs(cmd, v)...)
	if err != nil {
		return err
	}

	hash, err := handler.HashPassword(srvCfg.Password)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	h, err := handler.New(handler.Config{
		BasePath:       srvCfg.BasePath,
		WorkDir:        srvCfg.WorkDir,
		MaxUploadMB:    srvCfg.MaxUploadMB,
		SecureCookies:  v.GetBool("secure-cookies"),
		PasswordHash:   hash,
		DefaultVariant: prompts.PromptVariant(gradeCfg.PromptVariant),
		RunTimeout:     v.GetDuration("run-timeout"),
	}, runner, reg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	basePath := srvCfg.BasePath
	if basePath != "" {
		r.Route(basePath, h.Routes)
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		h.Routes(r)
	}

	srv := &http.Server{
		Addr:              srvCfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server",
		"addr", srvCfg.Addr,
		"lang", srvCfg.Lang,
		"base_path", basePath,
		"work_dir", srvCfg.WorkDir,
		"password", len(hash) > 0,
		"provider", gradeCfg.LLM.Provider,
		"prompt_variant", gradeCfg.PromptVariant,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// forwardArgs repeats the grading flags the operator set so every subprocess
// talks to the same model.
func forwardArgs(cmd *cobra.Command, v *viper.Viper) []string {
	var args []string
	for _, name := range forwardedFlags {
		if !cmd.Flags().Changed(name) && !v.IsSet(name) {
			continue
		}
		val := v.GetString(name)
		if strings.TrimSpace(val) == "" {
			continue
		}
		args = append(args, "--"+name, val)
	}
	return args
}
