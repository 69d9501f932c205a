package store

import (
	"database/sql"
	"strconv"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// SetMetadata upserts a key-value pair for a run.
func (s *Store) SetMetadata(runID, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_metadata (run_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, key) DO UPDATE SET value = ?`,
		runID, key, value, value,
	)
	return err
}

// GetMetadata returns the value for a run's metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(runID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM run_metadata WHERE run_id = ? AND key = ?`, runID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSummary stores a run summary as metadata rows.
func (s *Store) SetSummary(runID string, sum model.RunSummary) error {
	pairs := []struct{ k, v string }{
		{"rows", strconv.Itoa(sum.Rows)},
		{"graded", strconv.Itoa(sum.Graded)},
		{"missing_data", strconv.Itoa(sum.MissingData)},
		{"model_errors", strconv.Itoa(sum.ModelErrors)},
		{"total_marks", strconv.FormatFloat(sum.TotalMarks, 'f', -1, 64)},
		{"max_marks", strconv.FormatFloat(sum.MaxMarks, 'f', -1, 64)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(runID, p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetSummary reads a run summary back from metadata. Missing keys read as zero.
func (s *Store) GetSummary(runID string) (model.RunSummary, error) {
	var sum model.RunSummary
	ints := []struct {
		k   string
		dst *int
	}{
		{"rows", &sum.Rows},
		{"graded", &sum.Graded},
		{"missing_data", &sum.MissingData},
		{"model_errors", &sum.ModelErrors},
	}
	for _, f := range ints {
		v, err := s.GetMetadata(runID, f.k)
		if err != nil {
			return sum, err
		}
		if v == "" {
			continue
		}
		if *f.dst, err = strconv.Atoi(v); err != nil {
			return sum, err
		}
	}
	floats := []struct {
		k   string
		dst *float64
	}{
		{"total_marks", &sum.TotalMarks},
		{"max_marks", &sum.MaxMarks},
	}
	for _, f := range floats {
		v, err := s.GetMetadata(runID, f.k)
		if err != nil {
			return sum, err
		}
		if v == "" {
			continue
		}
		if *f.dst, err = strconv.ParseFloat(v, 64); err != nil {
			return sum, err
		}
	}
	return sum, nil
}
