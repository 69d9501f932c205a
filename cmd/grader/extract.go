package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ritikayogi/AI-Grader/internal/dataset"
	"github.com/Ritikayogi/AI-Grader/internal/extract"
	"github.com/Ritikayogi/AI-Grader/internal/model"
	"github.com/Ritikayogi/AI-Grader/internal/segment"
	"github.com/Ritikayogi/AI-Grader/internal/table"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Build a dataset from one topic's question paper, mark scheme and candidate paper",
		RunE:  runExtract,
	}
	f := cmd.Flags()
	f.String("qp", "", "Question paper PDF")
	f.String("ms", "", "Mark scheme PDF")
	f.String("cp", "", "Candidate paper PDF")
	f.String("topic", "", "Topic label (defaults to the question paper's file name prefix)")
	f.Bool("ocr", false, "Always OCR the pages instead of reading the text layer")
	f.StringP("output", "o", "training_data.xlsx", "Dataset file to write (.xlsx, .csv, .json, .db)")
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("qp")
	_ = cmd.MarkFlagRequired("ms")
	_ = cmd.MarkFlagRequired("cp")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Build one dataset from every <topic>_QP/_MS/_CP.pdf set in a directory",
		RunE:  runBatch,
	}
	f := cmd.Flags()
	f.String("dir", ".", "Directory to scan")
	f.Bool("ocr", false, "Always OCR the pages instead of reading the text layer")
	f.StringP("output", "o", "training_data_all.xlsx", "Dataset file to write (.xlsx, .csv, .json, .db)")
	addLogFlags(f)
	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the raw candidates and kept blocks of one PDF",
		RunE:  runInspect,
	}
	f := cmd.Flags()
	f.String("file", "", "PDF to inspect")
	f.Bool("ocr", false, "Always OCR the pages instead of reading the text layer")
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newExtractor reads the text layer, falling back to OCR for scanned pages,
// unless --ocr forces OCR.
func newExtractor(ocr bool) (extract.Extractor, error) {
	mode := extract.ModeAuto
	if ocr {
		if err := extract.CheckOCRAvailable(); err != nil {
			return nil, fmt.Errorf("%w\n%s", err, extract.InstallInstructions())
		}
		mode = extract.ModeOCR
	}
	return extract.New(mode, nil)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ex, err := newExtractor(v.GetBool("ocr"))
	if err != nil {
		return err
	}

	qp := v.GetString("qp")
	topic := v.GetString("topic")
	if topic == "" {
		if t, _, ok := dataset.ParseFileName(filepath.Base(qp)); ok {
			topic = t
		}
	}
	tf := dataset.TopicFiles{
		Topic: topic,
		Paths: map[model.Role]string{
			model.RoleQuestionPaper:  qp,
			model.RoleMarkScheme:     v.GetString("ms"),
			model.RoleCandidatePaper: v.GetString("cp"),
		},
	}

	rows, rep, err := dataset.NewPipeline(ex, segment.New()).Topic(ctx, tf)
	if err != nil {
		return err
	}

	output := v.GetString("output")
	if err := table.WriteDataset(output, rows); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	slog.Info("wrote dataset", "path", output, "topic", topic, "rows", rep.Rows,
		"qp_blocks", rep.Blocks[model.RoleQuestionPaper],
		"ms_blocks", rep.Blocks[model.RoleMarkScheme],
		"cp_blocks", rep.Blocks[model.RoleCandidatePaper])
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows to %s\n", len(rows), output)
	return nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ex, err := newExtractor(v.GetBool("ocr"))
	if err != nil {
		return err
	}
	dir := v.GetString("dir")
	rows, reports, err := dataset.NewPipeline(ex, segment.New()).Batch(ctx, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rep := range reports {
		if rep.Skipped != "" {
			fmt.Fprintf(out, "%-20s skipped: %s\n", rep.Topic, rep.Skipped)
			continue
		}
		fmt.Fprintf(out, "%-20s %d rows\n", rep.Topic, rep.Rows)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows produced from %s", dir)
	}

	output := v.GetString("output")
	if err := table.WriteDataset(output, rows); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	fmt.Fprintf(out, "Saved %d rows from %d topics to %s\n", len(rows), len(reports), output)
	return nil
}

func runInspect(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ex, err := newExtractor(v.GetBool("ocr"))
	if err != nil {
		return err
	}
	doc, err := ex.Extract(ctx, v.GetString("file"))
	if err != nil {
		return err
	}

	seg := segment.New()
	candidates := seg.Candidates(doc.Text)
	blocks := seg.Segment(doc.Text)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d pages, %d characters\n", doc.Path, doc.PageCount, len(doc.Text))
	fmt.Fprintf(out, "\n== %d raw candidates ==\n", len(candidates))
	for i, c := range candidates {
		fmt.Fprintf(out, "\n[%d] %q\n", i, c)
	}
	fmt.Fprintf(out, "\n== %d kept blocks ==\n", len(blocks))
	for _, b := range blocks {
		fmt.Fprintf(out, "\n[%s]\n%s\n", dataset.QuestionID(b.Index), b.Text)
	}
	return nil
}
