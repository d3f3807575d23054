package ark

import (
	"time"

	"arkeep/internal/model"
)

// NamedTime pairs an archive name with its creation timestamp, as returned
// by the store's listing operation.
type NamedTime struct {
	Name      string
	CreatedAt time.Time
}

// ArchiveStore is the boundary to the external content-addressed archive
// engine. The reference deployment shells out to a borg-style tool per call;
// tests use an in-memory implementation. All calls are blocking and the
// store itself is expected to provide advisory locking across processes.
//
// Failures surface as errors, never as silent empty results. Store-level
// unreachability should wrap ErrStoreUnavailable; per-archive read problems
// should wrap ArchiveReadError.
type ArchiveStore interface {
	// Create archives a single file under the given name, attaching the
	// free-text comment. Names must be unique within the repository.
	Create(filePath, archiveName, comment string) error

	// ListNames returns all archive names in creation order.
	ListNames() ([]string, error)

	// ListNamesWithTimes returns all archive names with their creation
	// timestamps, in creation order.
	ListNamesWithTimes() ([]NamedTime, error)

	// ReadComment returns the free-text comment stored with an archive.
	ReadComment(archiveName string) (string, error)

	// ListFileEntries returns the file entries contained in an archive
	// with their size and modification time. Per-file archives contain
	// exactly one entry.
	ListFileEntries(archiveName string) ([]model.FileEntry, error)

	// Delete removes an archive by name.
	Delete(archiveName string) error

	// Validate verifies that the store is reachable and usable.
	Validate() error
}
