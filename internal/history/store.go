package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is where run history lands when no --db flag overrides it.
const DefaultPath = ".gradepipe/history.db"

// Run is one recorded grading run.
type Run struct {
	ID        int64
	StartedAt time.Time
	EventKind string
	Actor     string
	Repo      string
	Total     int
	MaxScore  int
	ExitCode  int
	Outcome   string
}

// Store keeps grading-run history in a local SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TEXT NOT NULL,
	event_kind  TEXT NOT NULL,
	actor       TEXT NOT NULL,
	repo        TEXT NOT NULL,
	total       INTEGER NOT NULL,
	max_score   INTEGER NOT NULL,
	exit_code   INTEGER NOT NULL,
	outcome     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Open opens or creates the history database at path, creating the
// parent directory if needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	_, _ = db.Exec("PRAGMA journal_mode=WAL;")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts a run and returns it with ID populated.
func (s *Store) Record(run Run) (Run, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs(started_at, event_kind, actor, repo, total, max_score, exit_code, outcome)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.EventKind, run.Actor, run.Repo,
		run.Total, run.MaxScore, run.ExitCode, run.Outcome,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	run.ID = id
	return run, nil
}

// Recent returns up to limit runs, most recent first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, event_kind, actor, repo, total, max_score, exit_code, outcome
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.EventKind, &r.Actor, &r.Repo, &r.Total, &r.MaxScore, &r.ExitCode, &r.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, started); err == nil {
			r.StartedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
