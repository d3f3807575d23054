package journal

import (
	"database/sql"
	"time"
)

// Run is one recorded backup or prune invocation. Runs exist purely for the
// operator (`arkeep history`); archive truth always lives in the store.
type Run struct {
	ID         string // UUID
	Operation  string // "backup", "prune", "watch"
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string // "running", "success" or "error"
	Created    int
	Skipped    int
	Deleted    int
	Failures   int
}

// Journal records run outcomes locally.
type Journal interface {
	// StartRun inserts a new run in the "running" state.
	StartRun(id, operation string, startedAt time.Time) error

	// FinishRun finalizes a run with its outcome counts.
	FinishRun(id, status string, counts Counts, finishedAt time.Time) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// Close closes the underlying storage.
	Close() error
}

// Counts summarizes what a run did.
type Counts struct {
	Created  int
	Skipped  int
	Deleted  int
	Failures int
}
