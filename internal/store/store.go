package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Ritikayogi/AI-Grader/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNoRun is returned when the file holds no grading run.
var ErrNoRun = errors.New("no grading run in file")

// Store is a single-file SQLite container for a dataset or a results run.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		prompt_variant TEXT NOT NULL DEFAULT '',
		input TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS run_metadata (
		run_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, key),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		question_id TEXT NOT NULL,
		question TEXT NOT NULL DEFAULT '',
		marks REAL NOT NULL DEFAULT 0,
		max_marks REAL NOT NULL DEFAULT 5,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		mark_source TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS dataset_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position INTEGER NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		question_id TEXT NOT NULL,
		question TEXT NOT NULL DEFAULT '',
		ideal_answer TEXT NOT NULL DEFAULT '',
		student_answer TEXT NOT NULL DEFAULT '',
		max_marks REAL NOT NULL DEFAULT 5
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveDataset replaces the dataset rows held in the file.
func (s *Store) SaveDataset(rows []model.Row) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM dataset_rows`); err != nil {
		return err
	}
	for i, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO dataset_rows (position, topic, question_id, question, ideal_answer, student_answer, max_marks)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, r.Topic, r.QuestionID, r.Question, r.IdealAnswer, r.StudentAnswer, r.MaxMarks,
		)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// LoadDataset returns the dataset rows in their original order. Rows left by
// a results run are also returned, so a graded file can be regraded.
func (s *Store) LoadDataset() ([]model.Row, error) {
	rows, err := s.db.Query(
		`SELECT topic, question_id, question, ideal_answer, student_answer, max_marks
		 FROM dataset_rows ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		var r model.Row
		if err := rows.Scan(&r.Topic, &r.QuestionID, &r.Question, &r.IdealAnswer, &r.StudentAnswer, &r.MaxMarks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRun writes a run and its results in one transaction.
func (s *Store) SaveRun(run model.Run, results []model.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, provider, model, prompt_variant, input, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Provider, run.Model, run.PromptVariant, run.Input, run.StartedAt.UTC(), nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, r := range results {
		_, err := tx.Exec(
			`INSERT INTO results (run_id, position, topic, question_id, question, marks, max_marks, reason, status, mark_source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, r.Topic, r.QuestionID, r.Question, r.Marks, r.MaxMarks, r.Reason, string(r.Status), string(r.MarkSource),
		)
		if err != nil {
			return fmt.Errorf("insert result %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// GetRun returns a run by ID.
func (s *Store) GetRun(id string) (model.Run, error) {
	var run model.Run
	var finished sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, provider, model, prompt_variant, input, started_at, finished_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Provider, &run.Model, &run.PromptVariant, &run.Input, &run.StartedAt, &finished)
	if err != nil {
		return run, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (model.Run, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return model.Run{}, ErrNoRun
	}
	if err != nil {
		return model.Run{}, err
	}
	return s.GetRun(id)
}

// LoadResults returns a run's results in row order.
func (s *Store) LoadResults(runID string) ([]model.Result, error) {
	rows, err := s.db.Query(
		`SELECT topic, question_id, question, marks, max_marks, reason, status, mark_source
		 FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		var r model.Result
		var status, source string
		if err := rows.Scan(&r.Topic, &r.QuestionID, &r.Question, &r.Marks, &r.MaxMarks, &r.Reason, &status, &source); err != nil {
			return nil, err
		}
		r.Status = model.ResultStatus(status)
		r.MarkSource = model.MarkSource(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunCount returns the number of runs in the file.
func (s *Store) RunCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
