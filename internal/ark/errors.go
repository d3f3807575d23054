package ark

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes callers are expected to branch on.
var (
	// ErrInvalidDuration means a retention duration string did not match
	// the <number><h|d|w|m|y> format. Fatal to the calling operation.
	ErrInvalidDuration = errors.New("invalid retention duration")

	// ErrEmptyRetentionPolicy means pruning was requested with no rule
	// enabled. Fatal; the caller must supply at least one rule.
	ErrEmptyRetentionPolicy = errors.New("retention policy has no rules")

	// ErrStoreUnavailable means the archive store could not be reached at
	// all. Fatal for the whole operation.
	ErrStoreUnavailable = errors.New("archive store unavailable")
)

// ArchiveReadError is a per-archive read failure (corrupted or inaccessible
// archive). It is non-fatal: the archive is logged and excluded from
// deletion consideration rather than aborting the run.
type ArchiveReadError struct {
	Name string
	Err  error
}

func (e *ArchiveReadError) Error() string {
	return fmt.Sprintf("reading archive %s: %v", e.Name, e.Err)
}

func (e *ArchiveReadError) Unwrap() error { return e.Err }
