// Package buildlog keeps a local history of runs so regressions in
// documentation health can be traced across CI builds.
package buildlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Status values recorded per run. They mirror the driver's terminal
// states.
const (
	StatusOK             = "ok"
	StatusPrecheckFailed = "precheck_failed"
	StatusBuildFailed    = "build_failed"
)

// Run is one recorded driver execution.
type Run struct {
	RunID          string
	Started        time.Time
	Duration       time.Duration
	PrecheckErrors int
	BuildErrors    int
	Status         string
}

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database. Use ":memory:" for an
// in-memory database in tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		precheck_errors INTEGER NOT NULL,
		build_errors INTEGER NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, started, duration_ms, precheck_errors, build_errors, status) VALUES (?, ?, ?, ?, ?, ?)",
		run.RunID, run.Started.Unix(), run.Duration.Milliseconds(),
		run.PrecheckErrors, run.BuildErrors, run.Status,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started, duration_ms, precheck_errors, build_errors, status FROM runs ORDER BY id DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, durationMS int64
		if err := rows.Scan(&run.RunID, &started, &durationMS, &run.PrecheckErrors, &run.BuildErrors, &run.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started = time.Unix(started, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
