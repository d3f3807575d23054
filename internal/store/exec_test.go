package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/store"
)

// fakeTool writes a shell script that mimics a borg-style tool: it logs every
// invocation to args.log and prints canned JSON for the query commands.
func fakeTool(t *testing.T) (binary, argsLog string) {
	t.Helper()
	dir := t.TempDir()
	binary = filepath.Join(dir, "faketool")
	argsLog = filepath.Join(dir, "args.log")

	script := `#!/bin/sh
echo "$@" >> "` + argsLog + `"
echo "$BORG_PASSPHRASE" > "` + filepath.Join(dir, "pass.txt") + `"
case "$1" in
list)
  case "$2" in
  --json)
    echo '{"archives":[{"name":"arch-1","start":"2024-01-15T10:30:00.000000"},{"name":"arch-2","start":"2024-01-15T11:00:00"}]}' ;;
  --json-lines)
    echo '{"path":"/data/a.txt","size":5,"mtime":"2024-01-15T09:00:00"}' ;;
  *)
    echo "arch-1"; echo "arch-2" ;;
  esac ;;
info)
  echo '{"archives":[{"comment":"the comment"}]}' ;;
esac
`
	if err := os.WriteFile(binary, []byte(script), 0755); err != nil {
		t.Fatalf("writing fake tool: %v", err)
	}
	return binary, argsLog
}

func readArgsLog(t *testing.T, argsLog string) []string {
	t.Helper()
	data, err := os.ReadFile(argsLog)
	if err != nil {
		t.Fatalf("reading args log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestExecStore(t *testing.T) {
	t.Run("create passes comment and location", func(t *testing.T) {
		binary, argsLog := fakeTool(t)
		st := store.NewExecStore(binary, "/repo", "secret")

		if err := st.Create("/data/a.txt", "arch-1", "c|||5|||h|||/data"); err != nil {
			t.Fatalf("Create: %v", err)
		}

		lines := readArgsLog(t, argsLog)
		want := "create --comment c|||5|||h|||/data /repo::arch-1 /data/a.txt"
		if lines[0] != want {
			t.Errorf("invocation = %q, want %q", lines[0], want)
		}

		pass, err := os.ReadFile(filepath.Join(filepath.Dir(binary), "pass.txt"))
		if err != nil {
			t.Fatalf("reading pass file: %v", err)
		}
		if strings.TrimSpace(string(pass)) != "secret" {
			t.Errorf("passphrase env = %q, want secret", strings.TrimSpace(string(pass)))
		}
	})

	t.Run("list names", func(t *testing.T) {
		binary, _ := fakeTool(t)
		st := store.NewExecStore(binary, "/repo", "")

		names, err := st.ListNames()
		if err != nil {
			t.Fatalf("ListNames: %v", err)
		}
		if len(names) != 2 || names[0] != "arch-1" || names[1] != "arch-2" {
			t.Errorf("names = %v", names)
		}
	})

	t.Run("list names with times parses both timestamp shapes", func(t *testing.T) {
		binary, _ := fakeTool(t)
		st := store.NewExecStore(binary, "/repo", "")

		named, err := st.ListNamesWithTimes()
		if err != nil {
			t.Fatalf("ListNamesWithTimes: %v", err)
		}
		if len(named) != 2 {
			t.Fatalf("named = %v", named)
		}
		want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		if !named[0].CreatedAt.Equal(want) {
			t.Errorf("CreatedAt = %v, want %v", named[0].CreatedAt, want)
		}
	})

	t.Run("read comment", func(t *testing.T) {
		binary, _ := fakeTool(t)
		st := store.NewExecStore(binary, "/repo", "")

		comment, err := st.ReadComment("arch-1")
		if err != nil {
			t.Fatalf("ReadComment: %v", err)
		}
		if comment != "the comment" {
			t.Errorf("comment = %q", comment)
		}
	})

	t.Run("list file entries", func(t *testing.T) {
		binary, _ := fakeTool(t)
		st := store.NewExecStore(binary, "/repo", "")

		entries, err := st.ListFileEntries("arch-1")
		if err != nil {
			t.Fatalf("ListFileEntries: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("entries = %v", entries)
		}
		if entries[0].Path != "/data/a.txt" || entries[0].Size != 5 {
			t.Errorf("entry = %+v", entries[0])
		}
	})

	t.Run("tool failure surfaces stderr", func(t *testing.T) {
		dir := t.TempDir()
		binary := filepath.Join(dir, "failtool")
		script := "#!/bin/sh\necho 'repository locked' >&2\nexit 2\n"
		if err := os.WriteFile(binary, []byte(script), 0755); err != nil {
			t.Fatalf("writing fake tool: %v", err)
		}
		st := store.NewExecStore(binary, "/repo", "")

		_, err := st.ListNamesWithTimes()
		if !errors.Is(err, ark.ErrStoreUnavailable) {
			t.Fatalf("err = %v, want ErrStoreUnavailable", err)
		}
		if !strings.Contains(err.Error(), "repository locked") {
			t.Errorf("err = %v, want stderr message included", err)
		}

		var readErr *ark.ArchiveReadError
		if _, err := st.ReadComment("arch-1"); !errors.As(err, &readErr) {
			t.Errorf("ReadComment err = %v, want ArchiveReadError", err)
		}
	})

	t.Run("missing binary fails validate", func(t *testing.T) {
		st := store.NewExecStore("/no/such/tool", "/repo", "")
		if err := st.Validate(); !errors.Is(err, ark.ErrStoreUnavailable) {
			t.Errorf("Validate err = %v, want ErrStoreUnavailable", err)
		}
	})
}
