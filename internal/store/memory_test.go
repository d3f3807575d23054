package store_test

import (
	"errors"
	"testing"
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/store"
	"arkeep/internal/testutil"
)

func newMemoryStore(t *testing.T) (*store.MemoryStore, *testutil.MockFilesystemManager, *testutil.StubClock) {
	t.Helper()
	fsmgr := testutil.NewMockFilesystemManager()
	clock := testutil.FixedClock()
	st := store.NewMemoryStoreFS("test", fsmgr)
	st.SetNow(clock.Now)
	return st, fsmgr, clock
}

func TestMemoryStore(t *testing.T) {
	t.Run("create and read back", func(t *testing.T) {
		st, fsmgr, _ := newMemoryStore(t)
		fsmgr.AddFile("/data/a.txt", []byte("alpha"))

		if err := st.Create("/data/a.txt", "arch-1", "a comment"); err != nil {
			t.Fatalf("Create: %v", err)
		}

		comment, err := st.ReadComment("arch-1")
		if err != nil {
			t.Fatalf("ReadComment: %v", err)
		}
		if comment != "a comment" {
			t.Errorf("comment = %q", comment)
		}

		entries, err := st.ListFileEntries("arch-1")
		if err != nil {
			t.Fatalf("ListFileEntries: %v", err)
		}
		if len(entries) != 1 || entries[0].Path != "/data/a.txt" || entries[0].Size != 5 {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		st, fsmgr, _ := newMemoryStore(t)
		fsmgr.AddFile("/data/a.txt", []byte("alpha"))

		if err := st.Create("/data/a.txt", "arch-1", ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := st.Create("/data/a.txt", "arch-1", ""); err == nil {
			t.Fatal("duplicate Create succeeded")
		}
	})

	t.Run("missing source file fails create", func(t *testing.T) {
		st, _, _ := newMemoryStore(t)
		if err := st.Create("/data/none.txt", "arch-1", ""); err == nil {
			t.Fatal("Create with missing file succeeded")
		}
	})

	t.Run("listings follow creation order", func(t *testing.T) {
		st, fsmgr, clock := newMemoryStore(t)
		fsmgr.AddFile("/data/a.txt", []byte("alpha"))

		for _, name := range []string{"z-first", "a-second", "m-third"} {
			if err := st.Create("/data/a.txt", name, ""); err != nil {
				t.Fatalf("Create %s: %v", name, err)
			}
			clock.Advance(time.Minute)
		}

		names, err := st.ListNames()
		if err != nil {
			t.Fatalf("ListNames: %v", err)
		}
		want := []string{"z-first", "a-second", "m-third"}
		for i, n := range want {
			if names[i] != n {
				t.Fatalf("names = %v, want %v", names, want)
			}
		}

		named, err := st.ListNamesWithTimes()
		if err != nil {
			t.Fatalf("ListNamesWithTimes: %v", err)
		}
		if len(named) != 3 {
			t.Fatalf("named = %v", named)
		}
		if !named[1].CreatedAt.After(named[0].CreatedAt) {
			t.Errorf("timestamps not increasing: %v", named)
		}
	})

	t.Run("delete removes the archive", func(t *testing.T) {
		st, fsmgr, _ := newMemoryStore(t)
		fsmgr.AddFile("/data/a.txt", []byte("alpha"))

		if err := st.Create("/data/a.txt", "arch-1", ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := st.Delete("arch-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		names, _ := st.ListNames()
		if len(names) != 0 {
			t.Errorf("names = %v, want empty", names)
		}
		if err := st.Delete("arch-1"); err == nil {
			t.Error("second Delete succeeded")
		}
	})

	t.Run("reads of missing archives are ArchiveReadError", func(t *testing.T) {
		st, _, _ := newMemoryStore(t)

		var readErr *ark.ArchiveReadError
		if _, err := st.ReadComment("nope"); !errors.As(err, &readErr) {
			t.Errorf("ReadComment error = %v, want ArchiveReadError", err)
		}
		if _, err := st.ListFileEntries("nope"); !errors.As(err, &readErr) {
			t.Errorf("ListFileEntries error = %v, want ArchiveReadError", err)
		}
	})

	t.Run("validate succeeds", func(t *testing.T) {
		st, _, _ := newMemoryStore(t)
		if err := st.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})
}
