package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/model"
)

// FileSystemStore is a directory-backed implementation of the ArchiveStore
// interface. Each archive is a pair of files:
//
//	<root>/archives/
//	  <name>.dat    (the archived file's bytes)
//	  <name>.json   (sidecar: comment, creation time, file entry)
type FileSystemStore struct {
	name        string
	root        string
	archivesDir string
}

// sidecar is the on-disk metadata record next to each archive.
type sidecar struct {
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mtime"`
}

// NewFileSystemStore creates a new filesystem store rooted at the given path.
func NewFileSystemStore(name, root string) (*FileSystemStore, error) {
	archivesDir := filepath.Join(root, "archives")
	if err := os.MkdirAll(archivesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archives directory: %w", err)
	}
	return &FileSystemStore{name: name, root: root, archivesDir: archivesDir}, nil
}

// Create copies the file into the store and writes its sidecar.
func (s *FileSystemStore) Create(filePath, archiveName, comment string) error {
	dataPath := filepath.Join(s.archivesDir, archiveName+".dat")
	metaPath := filepath.Join(s.archivesDir, archiveName+".json")

	if _, err := os.Stat(metaPath); err == nil {
		return fmt.Errorf("archive already exists: %s", archiveName)
	}

	src, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	dst, err := os.OpenFile(dataPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating archive data: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dataPath)
		return fmt.Errorf("copying archive data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dataPath)
		return fmt.Errorf("finalizing archive data: %w", err)
	}

	sc := sidecar{
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
		Path:      filePath,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
	}
	raw, err := json.Marshal(sc)
	if err != nil {
		os.Remove(dataPath)
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := os.WriteFile(metaPath, raw, 0644); err != nil {
		os.Remove(dataPath)
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// ListNames returns all archive names in creation order.
func (s *FileSystemStore) ListNames() ([]string, error) {
	named, err := s.ListNamesWithTimes()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(named))
	for i, nt := range named {
		names[i] = nt.Name
	}
	return names, nil
}

// ListNamesWithTimes returns archive names with creation timestamps, ordered
// by creation time (the sidecar timestamp, not directory order).
func (s *FileSystemStore) ListNamesWithTimes() ([]ark.NamedTime, error) {
	entries, err := os.ReadDir(s.archivesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading archives directory: %v", ark.ErrStoreUnavailable, err)
	}

	var named []ark.NamedTime
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		sc, err := s.readSidecar(name)
		if err != nil {
			return nil, err
		}
		named = append(named, ark.NamedTime{Name: name, CreatedAt: sc.CreatedAt})
	}

	sort.Slice(named, func(i, j int) bool { return named[i].CreatedAt.Before(named[j].CreatedAt) })
	return named, nil
}

// ReadComment returns the comment stored with an archive.
func (s *FileSystemStore) ReadComment(archiveName string) (string, error) {
	sc, err := s.readSidecar(archiveName)
	if err != nil {
		return "", err
	}
	return sc.Comment, nil
}

// ListFileEntries returns the single file entry of an archive.
func (s *FileSystemStore) ListFileEntries(archiveName string) ([]model.FileEntry, error) {
	sc, err := s.readSidecar(archiveName)
	if err != nil {
		return nil, err
	}
	return []model.FileEntry{{Path: sc.Path, Size: sc.Size, ModTime: sc.ModTime}}, nil
}

// Delete removes an archive and its sidecar.
func (s *FileSystemStore) Delete(archiveName string) error {
	metaPath := filepath.Join(s.archivesDir, archiveName+".json")
	dataPath := filepath.Join(s.archivesDir, archiveName+".dat")

	if _, err := os.Stat(metaPath); err != nil {
		return fmt.Errorf("archive not found: %s", archiveName)
	}
	// Sidecar last: an archive without a sidecar is invisible to listings,
	// the reverse would leave a phantom entry.
	if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing archive data: %w", err)
	}
	if err := os.Remove(metaPath); err != nil {
		return fmt.Errorf("removing sidecar: %w", err)
	}
	return nil
}

// Validate verifies that the store directories are accessible.
func (s *FileSystemStore) Validate() error {
	info, err := os.Stat(s.archivesDir)
	if err != nil {
		return fmt.Errorf("%w: store root not accessible: %v", ark.ErrStoreUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: store root is not a directory: %s", ark.ErrStoreUnavailable, s.archivesDir)
	}
	return nil
}

func (s *FileSystemStore) readSidecar(archiveName string) (*sidecar, error) {
	raw, err := os.ReadFile(filepath.Join(s.archivesDir, archiveName+".json"))
	if err != nil {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
	}
	return &sc, nil
}

// Compile-time check that FileSystemStore implements the ArchiveStore interface.
var _ ark.ArchiveStore = (*FileSystemStore)(nil)
