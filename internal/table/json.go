package table

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Ritikayogi/AI-Grader/internal/model"
)

//go:embed schema/dataset.schema.json
var datasetSchemaJSON []byte

const datasetSchemaURL = "dataset.schema.json"

var datasetSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(datasetSchemaURL, bytes.NewReader(datasetSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(datasetSchemaURL)
})

type jsonRow struct {
	Topic         string   `json:"topic"`
	QuestionID    string   `json:"question_id"`
	Question      string   `json:"question"`
	IdealAnswer   string   `json:"ideal_answer"`
	StudentAnswer string   `json:"student_answer"`
	MaxMarks      *float64 `json:"max_marks"`
}

func readJSON(path string) ([]model.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Path: path, Msg: "invalid JSON: " + err.Error()}
	}
	sch, err := datasetSchema()
	if err != nil {
		return nil, fmt.Errorf("compile dataset schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, &SchemaError{Path: path, Msg: err.Error()}
	}

	var in []jsonRow
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, &SchemaError{Path: path, Msg: err.Error()}
	}
	rows := make([]model.Row, len(in))
	for i, r := range in {
		mm := model.DefaultMaxMarks
		if r.MaxMarks != nil {
			mm = *r.MaxMarks
		}
		rows[i] = model.Row{
			Topic:         r.Topic,
			QuestionID:    r.QuestionID,
			Question:      r.Question,
			IdealAnswer:   r.IdealAnswer,
			StudentAnswer: r.StudentAnswer,
			MaxMarks:      mm,
		}
	}
	return rows, nil
}

func readJSONResults(path string) ([]model.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var exp model.RunExport
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("parse results %s: %w", path, err)
	}
	return exp.Results, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
