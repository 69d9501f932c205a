package table

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

func csvRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return recs, nil
}

func readCSV(path string) ([]model.Row, error) {
	recs, err := csvRecords(path)
	if err != nil {
		return nil, err
	}
	return rowsFromRecords(path, recs)
}

func writeCSV(path string, recs [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(recs); err != nil {
		f.Close()
		return fmt.Errorf("write csv %s: %w", path, err)
	}
	return f.Close()
}
