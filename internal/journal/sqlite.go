package journal

import (
	"database/sql"
	"fmt"
	"time"

	"arkeep/internal/journal/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements the Journal interface using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens (and migrates) a journal database.
// path can be a file path or ":memory:" for an in-memory journal.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// SQLite allows one writer, and an in-memory database exists per
	// connection. A single pooled connection covers both.
	db.SetMaxOpenConns(1)

	// Wait for locks instead of failing when a previous run is finishing up.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal schema: %w", err)
	}

	return &SQLiteJournal{db: db, path: path}, nil
}

func (j *SQLiteJournal) StartRun(id, operation string, startedAt time.Time) error {
	_, err := j.db.Exec(
		`INSERT INTO runs (id, operation, started_at, status) VALUES (?, ?, ?, 'running')`,
		id, operation, startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) FinishRun(id, status string, counts Counts, finishedAt time.Time) error {
	res, err := j.db.Exec(
		`UPDATE runs
		 SET finished_at = ?, status = ?, created = ?, skipped = ?, deleted = ?, failures = ?
		 WHERE id = ?`,
		finishedAt.UTC(), status, counts.Created, counts.Skipped, counts.Deleted, counts.Failures, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run: no run with id %s", id)
	}
	return nil
}

func (j *SQLiteJournal) ListRuns(limit int) ([]*Run, error) {
	rows, err := j.db.Query(
		`SELECT id, operation, started_at, finished_at, status, created, skipped, deleted, failures
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Operation, &r.StartedAt, &r.FinishedAt,
			&r.Status, &r.Created, &r.Skipped, &r.Deleted, &r.Failures); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Compile-time check that SQLiteJournal implements the Journal interface.
var _ Journal = (*SQLiteJournal)(nil)
