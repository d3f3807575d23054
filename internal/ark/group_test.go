package ark_test

import (
	"testing"
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/model"
	"arkeep/internal/testutil"
)

func TestGroupBySourceDir(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	records := []model.ArchiveRecord{
		testutil.Record("a1", now, model.ArchiveMetadata{SourcePath: "/docs/a", SourceDir: "/docs"}),
		testutil.Record("a2", now, model.ArchiveMetadata{SourcePath: "/docs/b", SourceDir: "/docs"}),
		testutil.Record("p1", now, model.ArchiveMetadata{SourcePath: "/pics/c", SourceDir: "/pics"}),
		testutil.Record("old", now, model.ArchiveMetadata{SourcePath: "/docs/d"}),
		{Name: "opaque", CreatedAt: now},
	}

	groups := ark.GroupBySourceDir(records)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3: %v", len(groups), groups)
	}
	if got := len(groups[ark.GroupKey{SourceDir: "/docs"}]); got != 2 {
		t.Errorf("/docs group has %d records, want 2", got)
	}
	if got := len(groups[ark.GroupKey{SourceDir: "/pics"}]); got != 1 {
		t.Errorf("/pics group has %d records, want 1", got)
	}

	// Records without directory metadata go to the legacy group rather than
	// an empty-string key.
	legacy := groups[ark.LegacyGroup]
	if len(legacy) != 2 {
		t.Fatalf("legacy group has %d records, want 2", len(legacy))
	}
	if _, ok := groups[ark.GroupKey{}]; ok {
		t.Errorf("empty-string group exists alongside the legacy group")
	}

	// No record is dropped.
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total != len(records) {
		t.Errorf("groups hold %d records, want %d", total, len(records))
	}
}

func TestGroupKeyString(t *testing.T) {
	if got := (ark.GroupKey{SourceDir: "/docs"}).String(); got != "/docs" {
		t.Errorf("String() = %q, want /docs", got)
	}
	if got := ark.LegacyGroup.String(); got != "(legacy)" {
		t.Errorf("legacy String() = %q, want (legacy)", got)
	}
}
