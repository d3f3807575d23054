package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/model"
)

// passphraseEnv is the environment variable borg-style tools read their
// repository passphrase from.
const passphraseEnv = "BORG_PASSPHRASE"

// archiveTimeLayouts covers the timestamp shapes borg emits in JSON output
// (local time without zone, with and without fractional seconds) plus
// RFC 3339 for tools that are better behaved.
var archiveTimeLayouts = []string{
	"2006-01-02T15:04:05.000000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ExecStore implements the ArchiveStore interface by shelling out to an
// external borg-style backup tool, one process per call. This is the
// reference deployment: the tool owns the on-disk format, compression,
// encryption and repository locking; arkeep owns only the comment encoding.
type ExecStore struct {
	binary     string
	repository string
	passphrase string
}

// NewExecStore creates a store that invokes the given binary against the
// given repository. passphrase may be empty for unencrypted repositories.
func NewExecStore(binary, repository, passphrase string) *ExecStore {
	return &ExecStore{binary: binary, repository: repository, passphrase: passphrase}
}

// run executes one tool invocation and returns its stdout.
func (s *ExecStore) run(args ...string) ([]byte, error) {
	cmd := exec.Command(s.binary, args...)
	cmd.Env = os.Environ()
	if s.passphrase != "" {
		cmd.Env = append(cmd.Env, passphraseEnv+"="+s.passphrase)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%s %s: %s", s.binary, args[0], msg)
	}
	return stdout.Bytes(), nil
}

// Create archives a single file: <binary> create --comment C repo::name file.
func (s *ExecStore) Create(filePath, archiveName, comment string) error {
	_, err := s.run("create", "--comment", comment, s.location(archiveName), filePath)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", archiveName, err)
	}
	return nil
}

// ListNames returns all archive names in creation order.
func (s *ExecStore) ListNames() ([]string, error) {
	out, err := s.run("list", "--short", s.repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ark.ErrStoreUnavailable, err)
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names, scanner.Err()
}

// ListNamesWithTimes parses the tool's JSON repository listing.
func (s *ExecStore) ListNamesWithTimes() ([]ark.NamedTime, error) {
	out, err := s.run("list", "--json", s.repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ark.ErrStoreUnavailable, err)
	}

	var listing struct {
		Archives []struct {
			Name  string `json:"name"`
			Start string `json:"start"`
		} `json:"archives"`
	}
	if err := json.Unmarshal(out, &listing); err != nil {
		return nil, fmt.Errorf("%w: parsing repository listing: %v", ark.ErrStoreUnavailable, err)
	}

	named := make([]ark.NamedTime, 0, len(listing.Archives))
	for _, a := range listing.Archives {
		t, err := parseArchiveTime(a.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: archive %s: %v", ark.ErrStoreUnavailable, a.Name, err)
		}
		named = append(named, ark.NamedTime{Name: a.Name, CreatedAt: t})
	}
	return named, nil
}

// ReadComment parses the comment out of the tool's JSON archive info.
func (s *ExecStore) ReadComment(archiveName string) (string, error) {
	out, err := s.run("info", "--json", s.location(archiveName))
	if err != nil {
		return "", &ark.ArchiveReadError{Name: archiveName, Err: err}
	}

	var info struct {
		Archives []struct {
			Comment string `json:"comment"`
		} `json:"archives"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return "", &ark.ArchiveReadError{Name: archiveName, Err: err}
	}
	if len(info.Archives) == 0 {
		return "", &ark.ArchiveReadError{Name: archiveName, Err: fmt.Errorf("no archive in info output")}
	}
	return info.Archives[0].Comment, nil
}

// ListFileEntries parses the tool's JSON-lines file listing.
func (s *ExecStore) ListFileEntries(archiveName string) ([]model.FileEntry, error) {
	out, err := s.run("list", "--json-lines", s.location(archiveName))
	if err != nil {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
	}

	var entries []model.FileEntry
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item struct {
			Path  string `json:"path"`
			Size  int64  `json:"size"`
			Mtime string `json:"mtime"`
		}
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
		}
		mtime, err := parseArchiveTime(item.Mtime)
		if err != nil {
			return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
		}
		entries = append(entries, model.FileEntry{Path: item.Path, Size: item.Size, ModTime: mtime})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
	}
	return entries, nil
}

// Delete removes an archive by name.
func (s *ExecStore) Delete(archiveName string) error {
	if _, err := s.run("delete", s.location(archiveName)); err != nil {
		return fmt.Errorf("deleting archive %s: %w", archiveName, err)
	}
	return nil
}

// Validate checks that the binary exists and the repository answers.
func (s *ExecStore) Validate() error {
	if _, err := exec.LookPath(s.binary); err != nil {
		return fmt.Errorf("%w: %v", ark.ErrStoreUnavailable, err)
	}
	if _, err := s.run("info", "--json", s.repository); err != nil {
		return fmt.Errorf("%w: %v", ark.ErrStoreUnavailable, err)
	}
	return nil
}

// location renders the repo::archive form borg-style tools expect.
func (s *ExecStore) location(archiveName string) string {
	return s.repository + "::" + archiveName
}

func parseArchiveTime(v string) (time.Time, error) {
	for _, layout := range archiveTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

// Compile-time check that ExecStore implements the ArchiveStore interface.
var _ ark.ArchiveStore = (*ExecStore)(nil)
