package table

import (
	"errors"
	"fmt"
	"os"

	"github.com/Ritikayogi/AI-Grader/internal/model"
	"github.com/Ritikayogi/AI-Grader/internal/store"
)

func readSQLite(path string) ([]model.Row, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	s, err := store.New(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	rows, err := s.LoadDataset()
	if err != nil {
		return nil, fmt.Errorf("load dataset from %s: %w", path, err)
	}
	for i, r := range rows {
		if r.MaxMarks < 0 {
			return nil, &SchemaError{Path: path, Row: i + 1, Msg: fmt.Sprintf("Max_Marks %v is negative", r.MaxMarks)}
		}
	}
	return rows, nil
}

func readSQLiteResults(path string) ([]model.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	s, err := store.New(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	exp, err := s.ExportRun("")
	if err != nil {
		return nil, err
	}
	return exp.Results, nil
}

// createFresh opens a new sqlite file, replacing any previous one.
func createFresh(path string) (*store.Store, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return store.New(path)
}

func writeSQLiteDataset(path string, rows []model.Row) error {
	s, err := createFresh(path)
	if err != nil {
		return err
	}
	if err := s.SaveDataset(rows); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}

func writeSQLiteResults(path string, run model.Run, rows []model.Row, results []model.Result) error {
	s, err := createFresh(path)
	if err != nil {
		return err
	}
	if err := s.WriteRun(run, rows, results); err != nil {
		s.Close()
		return err
	}
	return s.Close()
}
