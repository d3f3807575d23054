// Package secret handles the local store-passphrase file. The passphrase a
// borg-style repository needs never lives in the main config; it sits in its
// own file, either plaintext (mode 0600, for unattended runs) or
// age-encrypted with an unlock passphrase for interactive use.
package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// encryptedSuffix marks a passphrase file as age-encrypted.
const encryptedSuffix = ".age"

// PromptFunc asks the user for the unlock passphrase of an encrypted
// passphrase file. Wired to a terminal prompt in the CLI and to a stub in
// tests.
type PromptFunc func(prompt string) (string, error)

// LoadPassphrase reads the store passphrase from path. An empty path means
// no passphrase. Files ending in ".age" are decrypted with age's scrypt
// passphrase scheme after prompting; anything else is read as plaintext with
// surrounding whitespace trimmed.
func LoadPassphrase(path string, prompt PromptFunc) (string, error) {
	if path == "" {
		return "", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening passphrase file: %w", err)
	}
	defer f.Close()

	if !strings.HasSuffix(path, encryptedSuffix) {
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("reading passphrase file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	unlock, err := prompt(fmt.Sprintf("Passphrase to unlock %s: ", filepath.Base(path)))
	if err != nil {
		return "", fmt.Errorf("prompting for unlock passphrase: %w", err)
	}

	identity, err := age.NewScryptIdentity(unlock)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(f, identity)
	if err != nil {
		return "", fmt.Errorf("decrypting passphrase file: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("reading decrypted passphrase: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// SavePassphrase writes the store passphrase to path. When path ends in
// ".age" the passphrase is encrypted with age's scrypt scheme under the
// unlock passphrase; otherwise it is written plaintext with mode 0600.
func SavePassphrase(path, passphrase, unlock string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating passphrase directory: %w", err)
	}

	if !strings.HasSuffix(path, encryptedSuffix) {
		if err := os.WriteFile(path, []byte(passphrase+"\n"), 0600); err != nil {
			return fmt.Errorf("writing passphrase file: %w", err)
		}
		return nil
	}

	recipient, err := age.NewScryptRecipient(unlock)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating passphrase file: %w", err)
	}
	defer f.Close()

	w, err := age.Encrypt(f, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, passphrase+"\n"); err != nil {
		return fmt.Errorf("writing encrypted passphrase: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted passphrase: %w", err)
	}
	return nil
}
