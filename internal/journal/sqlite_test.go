package journal_test

import (
	"testing"
	"time"

	"arkeep/internal/journal"
)

func newTestJournal(t *testing.T) *journal.SQLiteJournal {
	t.Helper()
	j, err := journal.NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteJournal(t *testing.T) {
	started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("start and finish a run", func(t *testing.T) {
		j := newTestJournal(t)

		if err := j.StartRun("run-1", "backup", started); err != nil {
			t.Fatalf("StartRun: %v", err)
		}

		runs, err := j.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 1 || runs[0].Status != "running" {
			t.Fatalf("runs = %+v", runs)
		}
		if runs[0].FinishedAt.Valid {
			t.Errorf("FinishedAt set before FinishRun: %+v", runs[0])
		}

		counts := journal.Counts{Created: 3, Skipped: 5, Failures: 1}
		if err := j.FinishRun("run-1", "success", counts, started.Add(time.Minute)); err != nil {
			t.Fatalf("FinishRun: %v", err)
		}

		runs, err = j.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		r := runs[0]
		if r.Status != "success" || r.Created != 3 || r.Skipped != 5 || r.Failures != 1 {
			t.Errorf("run = %+v", r)
		}
		if !r.FinishedAt.Valid {
			t.Errorf("FinishedAt not set: %+v", r)
		}
	})

	t.Run("finishing an unknown run fails", func(t *testing.T) {
		j := newTestJournal(t)
		if err := j.FinishRun("nope", "success", journal.Counts{}, started); err == nil {
			t.Error("FinishRun on unknown id succeeded")
		}
	})

	t.Run("list is newest first and respects the limit", func(t *testing.T) {
		j := newTestJournal(t)
		for i := 0; i < 5; i++ {
			id := string(rune('a' + i))
			if err := j.StartRun(id, "backup", started.Add(time.Duration(i)*time.Minute)); err != nil {
				t.Fatalf("StartRun %s: %v", id, err)
			}
		}

		runs, err := j.ListRuns(3)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("got %d runs, want 3", len(runs))
		}
		if runs[0].ID != "e" || runs[2].ID != "c" {
			t.Errorf("order = %s %s %s, want e d c", runs[0].ID, runs[1].ID, runs[2].ID)
		}
	})
}
