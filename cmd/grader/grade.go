package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Ritikayogi/AI-Grader/internal/config"
	"github.com/Ritikayogi/AI-Grader/internal/grade"
	"github.com/Ritikayogi/AI-Grader/internal/llm"
	"github.com/Ritikayogi/AI-Grader/internal/llm/prompts"
	"github.com/Ritikayogi/AI-Grader/internal/model"
	"github.com/Ritikayogi/AI-Grader/internal/progress"
	"github.com/Ritikayogi/AI-Grader/internal/table"
)

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade every row of a dataset and write the results",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "training_data.xlsx", "Dataset to grade (.xlsx, .csv, .json, .db)")
	f.StringP("output", "o", "graded_results.xlsx", "Results file to write (.xlsx, .csv, .json, .db)")
	f.String("raw-log", "", "Append every raw model reply to this file")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func debugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Print the raw model replies for the first rows of a dataset",
		RunE:  runDebug,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "training_data.xlsx", "Dataset to sample")
	f.IntP("limit", "n", 5, "Number of rows to send")
	f.String("log", "groq_raw_log.txt", "File the raw replies are appended to")
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func pingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured model answers",
		RunE:  runPing,
	}
	f := cmd.Flags()
	addLLMFlags(f)
	addLogFlags(f)
	return cmd
}

func newClient(ctx context.Context, cfg config.Grading) (llm.Client, error) {
	client, err := llm.New(ctx, cfg.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	slog.Info("using model", "provider", client.Provider(), "model", client.Model())
	return client, nil
}

func newGrader(client llm.Completer, cfg config.Grading) *grade.Grader {
	g := grade.New(client)
	g.Variant = prompts.PromptVariant(cfg.PromptVariant)
	g.Limiter = grade.NewLimiter(cfg.RatePerMinute)
	return g
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	return f, nil
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := config.LoadGrading(v)
	if err != nil {
		return err
	}

	input := v.GetString("input")
	output := v.GetString("output")
	if _, err := table.FormatOf(output); err != nil {
		return err
	}
	rows, err := table.ReadDataset(input)
	if err != nil {
		return err
	}
	slog.Info("loaded dataset", "path", input, "rows", len(rows))

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	g := newGrader(client, cfg)
	if p := v.GetString("raw-log"); p != "" {
		f, err := openAppend(p)
		if err != nil {
			return err
		}
		defer f.Close()
		g.RawLog = f
	}
	reporter := progress.New(os.Stderr, progress.IsTerminal(os.Stderr))
	g.Progress = reporter.Update

	run := model.Run{
		ID:            uuid.NewString(),
		Provider:      client.Provider(),
		Model:         client.Model(),
		PromptVariant: string(g.Variant),
		Input:         input,
		StartedAt:     time.Now().UTC(),
	}
	results := g.Grade(ctx, rows)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("grading interrupted, nothing written: %w", err)
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	if err := table.WriteResults(output, run, rows, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	sum := model.Summarize(results)
	slog.Info("grading finished", "run_id", run.ID, "rows", sum.Rows, "graded", sum.Graded,
		"missing_data", sum.MissingData, "model_errors", sum.ModelErrors, "duration", finished.Sub(run.StartedAt))
	progress.New(cmd.OutOrStdout(), progress.IsTerminal(os.Stdout)).Summary(sum, output)
	return nil
}

func runDebug(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := config.LoadGrading(v)
	if err != nil {
		return err
	}
	rows, err := table.ReadDataset(v.GetString("input"))
	if err != nil {
		return err
	}
	if limit := v.GetInt("limit"); limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	logPath := v.GetString("log")
	f, err := openAppend(logPath)
	if err != nil {
		return err
	}
	defer f.Close()

	g := newGrader(client, cfg)
	g.RawLog = f
	out := cmd.OutOrStdout()
	for _, row := range rows {
		res := g.GradeRow(ctx, row)
		fmt.Fprintf(out, "\n--- %s ---\n", row.QuestionID)
		if res.Raw != "" {
			fmt.Fprintln(out, res.Raw)
		} else {
			fmt.Fprintln(out, res.Reason)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "\nRaw replies appended to %s\n", logPath)
	return nil
}

func runPing(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := config.LoadGrading(v)
	if err != nil {
		return err
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := llm.Ping(ctx, client)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", client.Provider(), client.Model(), reply)
	return nil
}
