// Package table reads datasets and writes datasets and results as xlsx, csv,
// json or sqlite files, chosen by file extension.
package table

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

// Column names of dataset and results files.
const (
	ColTopic         = "Topic"
	ColQuestionID    = "Question_ID"
	ColQuestion      = "Question"
	ColIdealAnswer   = "Ideal_Answer"
	ColStudentAnswer = "Student_Answer"
	ColMaxMarks      = "Max_Marks"
	ColMarks         = "GPT_Marks"
	ColReason        = "GPT_Reason"
)

// RequiredColumns must be present in every dataset file.
var RequiredColumns = []string{ColQuestion, ColIdealAnswer, ColStudentAnswer}

// ErrUnsupportedFormat is returned for an unknown file extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SchemaError reports a dataset that cannot be graded. It is raised before any model call.
type SchemaError struct {
	Path    string
	Row     int // 1-based data row, 0 when the whole file is affected
	Missing []string
	Msg     string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Path != "" {
		b.WriteString(" in " + e.Path)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if len(e.Missing) > 0 {
		b.WriteString(": missing required columns " + strings.Join(e.Missing, ", "))
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}
	return b.String()
}

// Format is a file encoding.
type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// FormatOf picks the format from a path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q (use .xlsx, .csv, .json or .db)", ErrUnsupportedFormat, filepath.Ext(path))
}

// ReadDataset loads dataset rows, resolving defaults once: an empty Max_Marks
// becomes 5 and an empty Question_ID becomes Q<n>.
func ReadDataset(path string) ([]model.Row, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	var rows []model.Row
	switch f {
	case FormatXLSX:
		rows, err = readXLSX(path)
	case FormatCSV:
		rows, err = readCSV(path)
	case FormatJSON:
		rows, err = readJSON(path)
	case FormatSQLite:
		rows, err = readSQLite(path)
	}
	if err != nil {
		return nil, err
	}
	fillDefaults(rows)
	return rows, nil
}

// WriteDataset writes rows with a Topic column when any row carries one.
func WriteDataset(path string, rows []model.Row) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch f {
	case FormatXLSX:
		return writeXLSX(path, datasetRecords(rows))
	case FormatCSV:
		return writeCSV(path, datasetRecords(rows))
	case FormatJSON:
		return writeJSON(path, rows)
	default:
		return writeSQLiteDataset(path, rows)
	}
}

// WriteResults writes one record per result. Row order follows results.
// rows are the graded inputs; the sqlite format stores them alongside.
func WriteResults(path string, run model.Run, rows []model.Row, results []model.Result) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	switch f {
	case FormatXLSX:
		return writeXLSX(path, resultRecords(results))
	case FormatCSV:
		return writeCSV(path, resultRecords(results))
	case FormatJSON:
		return writeJSON(path, model.RunExport{Run: run, Summary: model.Summarize(results), Results: results})
	default:
		return writeSQLiteResults(path, run, rows, results)
	}
}

// ReadResults loads a results file written by WriteResults.
func ReadResults(path string) ([]model.Result, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatXLSX:
		recs, err := xlsxRecords(path)
		if err != nil {
			return nil, err
		}
		return resultsFromRecords(path, recs)
	case FormatCSV:
		recs, err := csvRecords(path)
		if err != nil {
			return nil, err
		}
		return resultsFromRecords(path, recs)
	case FormatJSON:
		return readJSONResults(path)
	default:
		return readSQLiteResults(path)
	}
}

func fillDefaults(rows []model.Row) {
	for i := range rows {
		if strings.TrimSpace(rows[i].QuestionID) == "" {
			rows[i].QuestionID = "Q" + strconv.Itoa(i+1)
		}
	}
}

// columnIndex maps trimmed, case-insensitive header names to positions.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func cell(rec []string, idx map[string]int, col string) string {
	i, ok := idx[strings.ToLower(col)]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// rowsFromRecords converts a header plus data records into dataset rows.
// Fully blank records are skipped.
func rowsFromRecords(path string, recs [][]string) ([]model.Row, error) {
	if len(recs) == 0 {
		return nil, &SchemaError{Path: path, Msg: "file is empty"}
	}
	idx := columnIndex(recs[0])
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Path: path, Missing: missing}
	}

	rows := make([]model.Row, 0, len(recs)-1)
	for n, rec := range recs[1:] {
		if blank(rec) {
			continue
		}
		mm, err := ParseMaxMarks(cell(rec, idx, ColMaxMarks))
		if err != nil {
			return nil, &SchemaError{Path: path, Row: n + 1, Msg: err.Error()}
		}
		rows = append(rows, model.Row{
			Topic:         strings.TrimSpace(cell(rec, idx, ColTopic)),
			QuestionID:    strings.TrimSpace(cell(rec, idx, ColQuestionID)),
			Question:      cell(rec, idx, ColQuestion),
			IdealAnswer:   cell(rec, idx, ColIdealAnswer),
			StudentAnswer: cell(rec, idx, ColStudentAnswer),
			MaxMarks:      mm,
		})
	}
	return rows, nil
}

// ParseMaxMarks reads a Max_Marks cell. Empty means the default of 5.
func ParseMaxMarks(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.DefaultMaxMarks, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) || (err == nil && (math.IsNaN(v) || math.IsInf(v, 0))) {
		return 0, fmt.Errorf("Max_Marks %q is not a finite number", s)
	}
	if err != nil {
		return 0, fmt.Errorf("Max_Marks %q is not a number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("Max_Marks %q is negative", s)
	}
	return v, nil
}

func resultsFromRecords(path string, recs [][]string) ([]model.Result, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	idx := columnIndex(recs[0])
	var missing []string
	for _, c := range []string{ColQuestionID, ColMarks, ColReason} {
		if _, ok := idx[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Path: path, Missing: missing}
	}

	out := make([]model.Result, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		if blank(rec) {
			continue
		}
		marks, _ := strconv.ParseFloat(strings.TrimSpace(cell(rec, idx, ColMarks)), 64)
		maxMarks, err := ParseMaxMarks(cell(rec, idx, ColMaxMarks))
		if err != nil {
			maxMarks = model.DefaultMaxMarks
		}
		out = append(out, model.Result{
			Topic:      cell(rec, idx, ColTopic),
			QuestionID: cell(rec, idx, ColQuestionID),
			Question:   cell(rec, idx, ColQuestion),
			Marks:      marks,
			MaxMarks:   maxMarks,
			Reason:     cell(rec, idx, ColReason),
		})
	}
	return out, nil
}

func datasetRecords(rows []model.Row) [][]string {
	withTopic := false
	for _, r := range rows {
		if r.Topic != "" {
			withTopic = true
			break
		}
	}
	header := []string{ColQuestionID, ColQuestion, ColIdealAnswer, ColStudentAnswer, ColMaxMarks}
	if withTopic {
		header = append([]string{ColTopic}, header...)
	}
	recs := [][]string{header}
	for _, r := range rows {
		rec := []string{r.QuestionID, r.Question, r.IdealAnswer, r.StudentAnswer, formatFloat(r.MaxMarks)}
		if withTopic {
			rec = append([]string{r.Topic}, rec...)
		}
		recs = append(recs, rec)
	}
	return recs
}

func resultRecords(results []model.Result) [][]string {
	withTopic := false
	for _, r := range results {
		if r.Topic != "" {
			withTopic = true
			break
		}
	}
	header := []string{ColQuestionID, ColQuestion, ColMarks, ColMaxMarks, ColReason}
	if withTopic {
		header = append([]string{ColTopic}, header...)
	}
	recs := [][]string{header}
	for _, r := range results {
		rec := []string{r.QuestionID, r.Question, formatFloat(r.Marks), formatFloat(r.MaxMarks), r.Reason}
		if withTopic {
			rec = append([]string{r.Topic}, rec...)
		}
		recs = append(recs, rec)
	}
	return recs
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
