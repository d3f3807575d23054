package model

import "time"

// FileCandidate is a file considered for backup during a single run.
// ContentHash is only populated when paranoid mode recomputes it; it is
// the SHA-256 of the file contents as a lowercase hex string.
type FileCandidate struct {
	Path        string // Absolute path on host
	Size        int64
	ModTime     time.Time
	ContentHash string // empty unless paranoid mode
	SourceDir   string // The configured source directory this file belongs to
}

// ArchiveMetadata is the decoded form of an archive's stored comment.
// SourcePath is always present when the record is non-empty; everything
// else is optional and only written by newer format generations.
// Size is a pointer so legacy records stay distinguishable from size 0.
type ArchiveMetadata struct {
	SourcePath  string
	Size        *int64
	ContentHash string
	SourceDir   string
}

// IsZero reports whether the metadata carries no information at all.
func (m ArchiveMetadata) IsZero() bool {
	return m.SourcePath == "" && m.Size == nil && m.ContentHash == "" && m.SourceDir == ""
}

// ArchiveRecord is the archive store's view of one archive. Archives are
// immutable once written: they are created by a backup run and destroyed
// only by an explicit delete during pruning.
type ArchiveRecord struct {
	Name      string // Globally unique within a repository
	CreatedAt time.Time
	Metadata  ArchiveMetadata
}

// FileEntry describes one file contained in an archive. Per-file archives
// contain exactly one entry.
type FileEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// RetentionPolicy is the declarative pruning configuration. Counts of zero
// and empty duration strings mean the rule is disabled. A policy with no
// rule enabled is invalid for pruning.
type RetentionPolicy struct {
	KeepHourly  int
	KeepDaily   int
	KeepWeekly  int
	KeepMonthly int
	KeepYearly  int

	// Duration strings in the "30d" / "4w" / "6m" / "1y" format.
	KeepWithin              string
	KeepLast                string
	KeepFilesModifiedWithin string
}

// Enabled reports whether at least one retention rule is configured.
func (p RetentionPolicy) Enabled() bool {
	return p.KeepHourly > 0 || p.KeepDaily > 0 || p.KeepWeekly > 0 ||
		p.KeepMonthly > 0 || p.KeepYearly > 0 ||
		p.KeepWithin != "" || p.KeepLast != "" || p.KeepFilesModifiedWithin != ""
}

// BackupMode selects how archives are created and pruned.
type BackupMode string

const (
	// ModePerFile creates one archive per file and prunes per source
	// directory group.
	ModePerFile BackupMode = "per-file"

	// ModeMetadata is the older whole-repository mode. Without a
	// files-modified-within rule it prunes ungrouped for backward
	// compatibility with repositories written before grouping existed.
	ModeMetadata BackupMode = "metadata"
)
