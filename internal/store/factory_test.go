package store_test

import (
	"testing"

	"arkeep/internal/config"
	"arkeep/internal/store"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		st, err := store.NewStoreFromConfig(config.StoreConfig{Type: "memory", Name: "m"}, "")
		if err != nil {
			t.Fatalf("NewStoreFromConfig: %v", err)
		}
		if _, ok := st.(*store.MemoryStore); !ok {
			t.Errorf("got %T, want *MemoryStore", st)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		st, err := store.NewStoreFromConfig(config.StoreConfig{
			Type: "filesystem", FSRoot: t.TempDir(),
		}, "")
		if err != nil {
			t.Fatalf("NewStoreFromConfig: %v", err)
		}
		if _, ok := st.(*store.FileSystemStore); !ok {
			t.Errorf("got %T, want *FileSystemStore", st)
		}
	})

	t.Run("filesystem requires fs_root", func(t *testing.T) {
		if _, err := store.NewStoreFromConfig(config.StoreConfig{Type: "filesystem"}, ""); err == nil {
			t.Error("missing fs_root accepted")
		}
	})

	t.Run("exec", func(t *testing.T) {
		st, err := store.NewStoreFromConfig(config.StoreConfig{
			Type: "exec", ExecBinary: "borg", ExecRepository: "/repo",
		}, "secret")
		if err != nil {
			t.Fatalf("NewStoreFromConfig: %v", err)
		}
		if _, ok := st.(*store.ExecStore); !ok {
			t.Errorf("got %T, want *ExecStore", st)
		}
	})

	t.Run("exec requires binary and repository", func(t *testing.T) {
		if _, err := store.NewStoreFromConfig(config.StoreConfig{Type: "exec", ExecBinary: "borg"}, ""); err == nil {
			t.Error("missing exec_repository accepted")
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		if _, err := store.NewStoreFromConfig(config.StoreConfig{Type: "s3"}, ""); err == nil {
			t.Error("missing s3_bucket accepted")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := store.NewStoreFromConfig(config.StoreConfig{Type: "tape"}, ""); err == nil {
			t.Error("unknown type accepted")
		}
	})
}
