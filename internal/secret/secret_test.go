package secret_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"arkeep/internal/secret"
)

func noPrompt(t *testing.T) secret.PromptFunc {
	return func(string) (string, error) {
		t.Fatal("prompt called for a plaintext passphrase file")
		return "", nil
	}
}

func stubPrompt(answer string) secret.PromptFunc {
	return func(string) (string, error) { return answer, nil }
}

func TestLoadPassphrase(t *testing.T) {
	t.Run("empty path means no passphrase", func(t *testing.T) {
		got, err := secret.LoadPassphrase("", noPrompt(t))
		if err != nil {
			t.Fatalf("LoadPassphrase: %v", err)
		}
		if got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("plaintext round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pass")
		if err := secret.SavePassphrase(path, "hunter2", ""); err != nil {
			t.Fatalf("SavePassphrase: %v", err)
		}

		got, err := secret.LoadPassphrase(path, noPrompt(t))
		if err != nil {
			t.Fatalf("LoadPassphrase: %v", err)
		}
		if got != "hunter2" {
			t.Errorf("got %q, want hunter2", got)
		}

		if runtime.GOOS != "windows" {
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if info.Mode().Perm() != 0600 {
				t.Errorf("mode = %v, want 0600", info.Mode().Perm())
			}
		}
	})

	t.Run("plaintext whitespace is trimmed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pass")
		if err := os.WriteFile(path, []byte("  hunter2\n\n"), 0600); err != nil {
			t.Fatalf("writing: %v", err)
		}

		got, err := secret.LoadPassphrase(path, noPrompt(t))
		if err != nil {
			t.Fatalf("LoadPassphrase: %v", err)
		}
		if got != "hunter2" {
			t.Errorf("got %q, want hunter2", got)
		}
	})

	t.Run("encrypted round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pass.age")
		if err := secret.SavePassphrase(path, "hunter2", "unlock-me"); err != nil {
			t.Fatalf("SavePassphrase: %v", err)
		}

		// The file on disk must not contain the passphrase.
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading: %v", err)
		}
		if string(raw) == "hunter2\n" {
			t.Fatal("passphrase stored in the clear")
		}

		got, err := secret.LoadPassphrase(path, stubPrompt("unlock-me"))
		if err != nil {
			t.Fatalf("LoadPassphrase: %v", err)
		}
		if got != "hunter2" {
			t.Errorf("got %q, want hunter2", got)
		}
	})

	t.Run("wrong unlock passphrase fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pass.age")
		if err := secret.SavePassphrase(path, "hunter2", "unlock-me"); err != nil {
			t.Fatalf("SavePassphrase: %v", err)
		}

		if _, err := secret.LoadPassphrase(path, stubPrompt("wrong")); err == nil {
			t.Error("decryption with the wrong passphrase succeeded")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := secret.LoadPassphrase(filepath.Join(t.TempDir(), "nope"), noPrompt(t)); err == nil {
			t.Error("missing file accepted")
		}
	})
}
