package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
	"github.com/Ritikayogi/AI-Grader/internal/table"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		var se *table.SchemaError
		if errors.As(err, &se) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "grader",
		Short:        "Build answer datasets from exam PDFs and grade them with an LLM",
		SilenceUsage: true,
	}
	root.AddCommand(
		extractCmd(),
		batchCmd(),
		inspectCmd(),
		gradeCmd(),
		debugCmd(),
		pingCmd(),
		serveCmd(),
	)
	return root
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("provider", "openai", "LLM provider (openai, groq, ollama, gemini)")
	f.String("llm-url", "", "Override the provider's API base URL")
	f.String("llm-key", "", "API key (defaults to the provider's env var, e.g. GROQ_API_KEY)")
	f.String("llm-model", "", "Model name (defaults to the provider's model)")
	f.Duration("llm-timeout", 0, "Per-request timeout (default 60s)")
	f.String("prompt-variant", string(prompts.PromptStandard), "Grading prompt variant (strict, standard, lenient)")
	f.Float64("rate", 0, "Maximum model requests per minute (0 = unpaced)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("GRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("grader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/grader")
	v.AddConfigPath("/etc/grader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// signalContext is canceled on Ctrl-C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
