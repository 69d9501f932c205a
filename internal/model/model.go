package model

import "time"

// DefaultMaxMarks is used when a dataset row carries no Max_Marks value.
const DefaultMaxMarks = 5.0

// Role identifies which of the three topic documents a file is.
type Role string

const (
	// RoleQuestionPaper is the question paper (QP).
	RoleQuestionPaper Role = "QP"
	// RoleMarkScheme is the mark scheme holding the ideal answers (MS).
	RoleMarkScheme Role = "MS"
	// RoleCandidatePaper is the candidate's answer script (CP).
	RoleCandidatePaper Role = "CP"
)

// Roles lists the roles in the order the pipeline reads them.
var Roles = []Role{RoleQuestionPaper, RoleMarkScheme, RoleCandidatePaper}

// Document is one extracted input file. It is discarded once its text has been segmented.
type Document struct {
	Topic     string
	Role      Role
	Path      string
	Text      string
	PageCount int
}

// Block is a trimmed span of text between two question/answer headings.
type Block struct {
	Index int
	Text  string
}

// Row is one gradable unit of the intermediate dataset.
type Row struct {
	Topic         string  `json:"topic,omitempty"`
	QuestionID    string  `json:"question_id"`
	Question      string  `json:"question"`
	IdealAnswer   string  `json:"ideal_answer"`
	StudentAnswer string  `json:"student_answer"`
	MaxMarks      float64 `json:"max_marks"`
}

// ResultStatus tells how a result was produced.
type ResultStatus string

const (
	// StatusGraded means the model answered and the reply was parsed.
	StatusGraded ResultStatus = "graded"
	// StatusMissingData means the row lacked a required field and no call was made.
	StatusMissingData ResultStatus = "missing_data"
	// StatusModelError means the completion call failed.
	StatusModelError ResultStatus = "model_error"
)

// MarkSource tells which extraction step produced a mark.
type MarkSource string

const (
	MarkLabeled MarkSource = "labeled"
	MarkScanned MarkSource = "scanned"
	MarkDefault MarkSource = "default"
)

// Result is the graded outcome of one row.
type Result struct {
	Topic      string       `json:"topic,omitempty"`
	QuestionID string       `json:"question_id"`
	Question   string       `json:"question"`
	Marks      float64      `json:"marks"`
	MaxMarks   float64      `json:"max_marks"`
	Reason     string       `json:"reason"`
	Status     ResultStatus `json:"status"`
	MarkSource MarkSource   `json:"mark_source,omitempty"`
	Raw        string       `json:"-"`
}

// OK reports whether the result came from a parsed model reply.
func (r Result) OK() bool {
	return r.Status == StatusGraded
}

// Run describes one grading invocation.
type Run struct {
	ID            string     `json:"id"`
	Provider      string     `json:"provider"`
	Model         string     `json:"model"`
	PromptVariant string     `json:"prompt_variant"`
	Input         string     `json:"input"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
