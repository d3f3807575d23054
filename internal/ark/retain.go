package ark

import (
	"fmt"
	"sort"
	"time"

	"arkeep/internal/model"
)

// EntryFetcher is the slice of the archive store the evaluator needs for the
// files-modified-within rule: lazily reading the file entry of an archive.
type EntryFetcher interface {
	ListFileEntries(archiveName string) ([]model.FileEntry, error)
}

// Verdict is the result of evaluating one retention group. Keep and Delete
// partition the input: every record lands in exactly one of the two.
type Verdict struct {
	Keep   []model.ArchiveRecord
	Delete []model.ArchiveRecord
}

// Evaluate applies a retention policy to one group of archives.
//
// Rules are additive: a record is kept if any enabled rule matches it. The
// exception is keep_files_modified_within, which when present replaces the
// count/time rules for the whole pass (per-file mode does not combine
// metadata-mtime retention with calendar buckets).
//
// An archive whose file entry cannot be read during metadata retention is
// neither matched nor deleted: it stays in Keep and is logged, so a
// corrupted archive never silently disappears.
func Evaluate(records []model.ArchiveRecord, policy model.RetentionPolicy, now time.Time, entries EntryFetcher, logger Logger) (Verdict, error) {
	if !policy.Enabled() {
		return Verdict{}, fmt.Errorf("evaluating retention: %w", ErrEmptyRetentionPolicy)
	}

	if policy.KeepFilesModifiedWithin != "" {
		return evaluateByFileMtime(records, policy.KeepFilesModifiedWithin, now, entries, logger)
	}

	keep := make(map[string]bool, len(records))

	if policy.KeepWithin != "" {
		d, err := ParseRetainDuration(policy.KeepWithin)
		if err != nil {
			return Verdict{}, fmt.Errorf("keep_within: %w", err)
		}
		for _, rec := range records {
			if now.Sub(rec.CreatedAt) <= d {
				keep[rec.Name] = true
			}
		}
	}

	// keep_last retains at most one record: the newest, and only while it
	// is younger than the given duration.
	if policy.KeepLast != "" {
		d, err := ParseRetainDuration(policy.KeepLast)
		if err != nil {
			return Verdict{}, fmt.Errorf("keep_last: %w", err)
		}
		if newest := newestRecord(records); newest != nil && now.Sub(newest.CreatedAt) <= d {
			keep[newest.Name] = true
		}
	}

	sorted := make([]model.ArchiveRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, rule := range []struct {
		count int
		label func(time.Time) string
	}{
		{policy.KeepHourly, hourBucket},
		{policy.KeepDaily, dayBucket},
		{policy.KeepWeekly, weekBucket},
		{policy.KeepMonthly, monthBucket},
		{policy.KeepYearly, yearBucket},
	} {
		markBuckets(sorted, rule.count, rule.label, keep)
	}

	var verdict Verdict
	for _, rec := range records {
		if keep[rec.Name] {
			verdict.Keep = append(verdict.Keep, rec)
		} else {
			verdict.Delete = append(verdict.Delete, rec)
		}
	}
	return verdict, nil
}

// markBuckets keeps the newest record of each of the first n distinct
// calendar buckets. records must be sorted newest first, so the first record
// seen in a bucket is that bucket's newest.
func markBuckets(records []model.ArchiveRecord, n int, label func(time.Time) string, keep map[string]bool) {
	if n <= 0 {
		return
	}
	seen := make(map[string]bool, n)
	for _, rec := range records {
		b := label(rec.CreatedAt)
		if seen[b] {
			continue
		}
		if len(seen) == n {
			break
		}
		seen[b] = true
		keep[rec.Name] = true
	}
}

func evaluateByFileMtime(records []model.ArchiveRecord, within string, now time.Time, entries EntryFetcher, logger Logger) (Verdict, error) {
	d, err := ParseRetainDuration(within)
	if err != nil {
		return Verdict{}, fmt.Errorf("keep_files_modified_within: %w", err)
	}

	var verdict Verdict
	for _, rec := range records {
		ents, err := entries.ListFileEntries(rec.Name)
		if err != nil || len(ents) == 0 {
			// Unreadable archive: exclude from deletion to avoid data
			// loss and keep going.
			logger.Warn("cannot read archive file entry, excluding from deletion",
				"archive", rec.Name, "error", err)
			verdict.Keep = append(verdict.Keep, rec)
			continue
		}
		if now.Sub(ents[0].ModTime) <= d {
			verdict.Keep = append(verdict.Keep, rec)
		} else {
			verdict.Delete = append(verdict.Delete, rec)
		}
	}
	return verdict, nil
}

func newestRecord(records []model.ArchiveRecord) *model.ArchiveRecord {
	var newest *model.ArchiveRecord
	for i := range records {
		if newest == nil || records[i].CreatedAt.After(newest.CreatedAt) {
			newest = &records[i]
		}
	}
	return newest
}

// Calendar bucket labels. Buckets are computed in UTC so evaluation does not
// depend on the host timezone.

func hourBucket(t time.Time) string  { return t.UTC().Format("2006-01-02-15") }
func dayBucket(t time.Time) string   { return t.UTC().Format("2006-01-02") }
func monthBucket(t time.Time) string { return t.UTC().Format("2006-01") }
func yearBucket(t time.Time) string  { return t.UTC().Format("2006") }

func weekBucket(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}
