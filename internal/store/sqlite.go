// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

const defaultDBPath = "data/iqa-survey.db"

// SQLite stores sessions and results in a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens or creates the database at path and its schema.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			user_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			timestamp_start TEXT,
			timestamp_end TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			survey_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// WriteSession upserts the session, touching only the status and the
// timestamp column that belongs to it.
func (s *SQLite) WriteSession(ctx context.Context, id string, status types.SessionStatus) error {
	if err := validStatus(status); err != nil {
		return err
	}
	column := "timestamp_start"
	if status == types.SessionCompleted {
		column = "timestamp_end"
	}
	ts := s.now().UTC().Format(time.RFC3339Nano)
	query := fmt.Sprintf(
		`INSERT INTO sessions (user_id, status, %[1]s) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET status=excluded.status, %[1]s=excluded.%[1]s`,
		column)
	if _, err := s.db.ExecContext(ctx, query, id, string(status), ts); err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

// Session returns the merged session for id.
func (s *SQLite) Session(ctx context.Context, id string) (types.Session, error) {
	var (
		status     string
		start, end sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, timestamp_start, timestamp_end FROM sessions WHERE user_id = ?`, id,
	).Scan(&status, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Session{}, ErrNotFound
	}
	if err != nil {
		return types.Session{}, fmt.Errorf("reading session: %w", err)
	}

	sess := types.Session{UserID: id, Status: types.SessionStatus(status)}
	if sess.TimestampStart, err = parseNullTime(start); err != nil {
		return types.Session{}, err
	}
	if sess.TimestampEnd, err = parseNullTime(end); err != nil {
		return types.Session{}, err
	}
	return sess, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", v.String, err)
	}
	return &t, nil
}

// SaveResult stores r without overwriting an existing record.
func (s *SQLite) SaveResult(ctx context.Context, id string, r types.Result) (string, error) {
	return saveWithFallback(ctx, s.create, id, r)
}

// create inserts the result only if id is free; the conflict clause makes
// the check and the write a single statement.
func (s *SQLite) create(ctx context.Context, id string, r types.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, survey_id, created_at, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, r.SurveyID, s.now().UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert: %w", err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

// Result returns the result stored under id.
func (s *SQLite) Result(ctx context.Context, id string) (types.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM results WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Result{}, ErrNotFound
	}
	if err != nil {
		return types.Result{}, fmt.Errorf("reading result: %w", err)
	}
	var r types.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return types.Result{}, fmt.Errorf("decoding result %s: %w", id, err)
	}
	return r, nil
}

// ListResults returns summaries ordered by creation time.
func (s *SQLite) ListResults(ctx context.Context) ([]types.ResultSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, payload FROM results ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var out []types.ResultSummary
	for rows.Next() {
		var id, created, payload string
		if err := rows.Scan(&id, &created, &payload); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		var r types.Result
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decoding result %s: %w", id, err)
		}
		createdAt, _ := time.Parse(time.RFC3339Nano, created)
		out = append(out, types.Summarize(id, r, createdAt))
	}
	return out, rows.Err()
}
