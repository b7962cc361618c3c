// Package history keeps a durable log of workflow submissions so random
// seeds and server answers survive past the transient CLI output.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
    id TEXT PRIMARY KEY,
    prompt_key TEXT NOT NULL,
    preset TEXT NOT NULL,
    checkpoint TEXT NOT NULL,
    seed INTEGER NOT NULL,
    status_code INTEGER NOT NULL,
    ok INTEGER NOT NULL,
    error TEXT,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submissions_timestamp ON submissions(timestamp);
CREATE INDEX IF NOT EXISTS idx_submissions_prompt_key ON submissions(prompt_key);
`

// Submission is one logged submit attempt. Seed is the value actually
// substituted into the job graph, which for random seeds is otherwise
// unrecoverable.
type Submission struct {
	ID         string
	PromptKey  string
	Preset     string
	Checkpoint string
	Seed       int64
	StatusCode int
	OK         bool
	Error      string
	Timestamp  time.Time
}

type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database under root.
func NewStore(root string) (*Store, error) {
	return NewStoreWithPath(filepath.Join(root, "history.db"))
}

func NewStoreWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Log records one submission attempt. A missing ID or timestamp is filled in.
func (s *Store) Log(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.Timestamp.IsZero() {
		sub.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, prompt_key, preset, checkpoint, seed, status_code, ok, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.PromptKey, sub.Preset, sub.Checkpoint, sub.Seed,
		sub.StatusCode, boolToInt(sub.OK), nullString(sub.Error), sub.Timestamp)
	return err
}

// Recent returns the most recent submissions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt_key, preset, checkpoint, seed, status_code, ok, error, timestamp
		 FROM submissions ORDER BY timestamp DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub := &Submission{}
		var ok int
		var errText sql.NullString
		if err := rows.Scan(&sub.ID, &sub.PromptKey, &sub.Preset, &sub.Checkpoint,
			&sub.Seed, &sub.StatusCode, &ok, &errText, &sub.Timestamp); err != nil {
			return nil, err
		}
		sub.OK = ok != 0
		sub.Error = errText.String
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ByKey returns all submissions for one prompt key, newest first.
func (s *Store) ByKey(ctx context.Context, promptKey string) ([]*Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt_key, preset, checkpoint, seed, status_code, ok, error, timestamp
		 FROM submissions WHERE prompt_key = ? ORDER BY timestamp DESC, id`, promptKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		sub := &Submission{}
		var ok int
		var errText sql.NullString
		if err := rows.Scan(&sub.ID, &sub.PromptKey, &sub.Preset, &sub.Checkpoint,
			&sub.Seed, &sub.StatusCode, &ok, &errText, &sub.Timestamp); err != nil {
			return nil, err
		}
		sub.OK = ok != 0
		sub.Error = errText.String
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Summary holds aggregate submission counts.
type Summary struct {
	Total     int
	Succeeded int
}

// Totals returns aggregate counts over the whole log.
func (s *Store) Totals(ctx context.Context) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(ok), 0) FROM submissions`)

	var summary Summary
	if err := row.Scan(&summary.Total, &summary.Succeeded); err != nil {
		return nil, err
	}
	return &summary, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
