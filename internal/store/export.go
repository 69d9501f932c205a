package store

import (
	"fmt"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// WriteRun stores a finished run with its results, summary and the rows that
// were graded, so the file can be reopened as a grading input.
func (s *Store) WriteRun(run model.Run, rows []model.Row, results []model.Result) error {
	if err := s.SaveRun(run, results); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := s.SetSummary(run.ID, model.Summarize(results)); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	if rows != nil {
		if err := s.SaveDataset(rows); err != nil {
			return fmt.Errorf("save dataset: %w", err)
		}
	}
	return nil
}

// ExportRun builds the export structure of a run. An empty runID selects the
// latest run.
func (s *Store) ExportRun(runID string) (model.RunExport, error) {
	var run model.Run
	var err error
	if runID == "" {
		run, err = s.LatestRun()
	} else {
		run, err = s.GetRun(runID)
	}
	if err != nil {
		return model.RunExport{}, fmt.Errorf("get run: %w", err)
	}

	results, err := s.LoadResults(run.ID)
	if err != nil {
		return model.RunExport{}, fmt.Errorf("load results of %s: %w", run.ID, err)
	}
	sum, err := s.GetSummary(run.ID)
	if err != nil {
		return model.RunExport{}, fmt.Errorf("load summary of %s: %w", run.ID, err)
	}
	if sum.Rows == 0 && len(results) > 0 {
		sum = model.Summarize(results)
	}

	return model.RunExport{Run: run, Summary: sum, Results: results}, nil
}
