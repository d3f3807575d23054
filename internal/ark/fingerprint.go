package ark

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"arkeep/internal/model"
)

// DecisionAction is the outcome of a fingerprint check for one candidate.
type DecisionAction int

const (
	// Skip means an archive with identical content already exists.
	Skip DecisionAction = iota
	// CreateNew means no archive exists for this path yet.
	CreateNew
	// CreateVersioned means the path was archived before but the content
	// changed (or could not be verified); a -vN name must be used.
	CreateVersioned
)

func (a DecisionAction) String() string {
	switch a {
	case Skip:
		return "skip"
	case CreateNew:
		return "create"
	case CreateVersioned:
		return "create-versioned"
	default:
		return "unknown"
	}
}

// Decision tells the caller which archive name to use, if any. The
// fingerprinter itself never creates archives.
type Decision struct {
	Action  DecisionAction
	Name    string // empty for Skip
	Version int    // >= 2 for CreateVersioned, 0 otherwise
}

// Fingerprinter decides whether a candidate file is unchanged, changed or
// new relative to the archives that already exist for its path.
//
// In paranoid mode a file is unchanged only if size, mtime and content hash
// all match. Without paranoid mode size+mtime matching is trusted, which is
// strictly weaker: a file edited in place with its mtime reset and size
// preserved will not be detected.
type Fingerprinter struct {
	store    ArchiveStore
	clock    Clock
	logger   Logger
	label    string
	paranoid bool
}

// NewFingerprinter creates a Fingerprinter. label is the repository or
// source label used as the archive name prefix.
func NewFingerprinter(store ArchiveStore, clock Clock, logger Logger, label string, paranoid bool) *Fingerprinter {
	return &Fingerprinter{
		store:    store,
		clock:    clock,
		logger:   logger,
		label:    label,
		paranoid: paranoid,
	}
}

// Decide compares the candidate against the existing archives for its path.
// existing may contain records for other paths; they are filtered out by
// decoded source path. Any uncertainty — legacy metadata without a size or
// hash, an unreadable archive — resolves toward creating a new archive,
// never toward skipping.
func (f *Fingerprinter) Decide(cand model.FileCandidate, existing []model.ArchiveRecord) (Decision, error) {
	var matching []model.ArchiveRecord
	for _, rec := range existing {
		if rec.Metadata.SourcePath == cand.Path {
			matching = append(matching, rec)
		}
	}

	if len(matching) == 0 {
		return Decision{Action: CreateNew, Name: f.archiveName(cand.Path)}, nil
	}

	newest := matching[0]
	for _, rec := range matching[1:] {
		if rec.CreatedAt.After(newest.CreatedAt) {
			newest = rec
		}
	}

	if f.unchanged(cand, newest) {
		return Decision{Action: Skip}, nil
	}

	version := maxVersion(matching) + 1
	name := f.archiveName(cand.Path) + "-v" + strconv.Itoa(version)
	return Decision{Action: CreateVersioned, Name: name, Version: version}, nil
}

// unchanged reports whether the newest existing archive verifiably holds the
// same content as the candidate. Cheap comparisons run first; the mtime
// lookup costs one store call and runs last.
func (f *Fingerprinter) unchanged(cand model.FileCandidate, rec model.ArchiveRecord) bool {
	// Legacy records predate the size field and cannot be verified.
	if rec.Metadata.Size == nil {
		f.logger.Debug("archive metadata lacks size, forcing create", "archive", rec.Name)
		return false
	}
	if *rec.Metadata.Size != cand.Size {
		return false
	}

	if f.paranoid {
		if rec.Metadata.ContentHash == "" {
			f.logger.Debug("archive metadata lacks content hash, forcing create", "archive", rec.Name)
			return false
		}
		if rec.Metadata.ContentHash != cand.ContentHash {
			return false
		}
	}

	entries, err := f.store.ListFileEntries(rec.Name)
	if err != nil || len(entries) == 0 {
		f.logger.Warn("cannot read archive file entry, forcing create", "archive", rec.Name, "error", err)
		return false
	}
	return entries[0].ModTime.Equal(cand.ModTime)
}

// archiveName derives the deterministic part of an archive name:
// label, file basename, 12 hex chars of the path hash, and a timestamp.
func (f *Fingerprinter) archiveName(path string) string {
	h := sha256.Sum256([]byte(path))
	ts := f.clock.Now().UTC().Format("20060102T150405Z")
	return sanitizeName(f.label) + "-" + sanitizeName(filepath.Base(path)) + "-" +
		hex.EncodeToString(h[:6]) + "-" + ts
}

// sanitizeName replaces characters that are awkward in archive names.
func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

var versionSuffix = regexp.MustCompile(`-v(\d+)$`)

// maxVersion returns the highest version suffix among the records' names.
// An unversioned name counts as version 1. Versions are re-derived from
// names on every call — there is no stored counter — so a deleted
// intermediate version's number is never reused.
func maxVersion(records []model.ArchiveRecord) int {
	max := 1
	for _, rec := range records {
		m := versionSuffix.FindStringSubmatch(rec.Name)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err == nil && v > max {
			max = v
		}
	}
	return max
}
