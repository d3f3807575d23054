package store

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"arkeep/internal/ark"
	"arkeep/internal/model"
)

// MemoryStore is an in-memory implementation of the ArchiveStore interface.
// It keeps archive bytes and metadata in maps, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	name  string
	fsmgr ark.FilesystemManager // nil means read through the os package
	now   func() time.Time

	mu       sync.RWMutex
	order    []string // creation order
	archives map[string]*memoryArchive

	// Failure injection for tests. An archive name present in one of
	// these maps makes the corresponding operation fail.
	entryErrs  map[string]error
	deleteErrs map[string]error
}

type memoryArchive struct {
	data      []byte
	comment   string
	createdAt time.Time
	entry     model.FileEntry
}

// NewMemoryStore creates a new in-memory archive store with the given name,
// reading archived files from the real filesystem.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:       name,
		now:        time.Now,
		archives:   make(map[string]*memoryArchive),
		entryErrs:  make(map[string]error),
		deleteErrs: make(map[string]error),
	}
}

// NewMemoryStoreFS creates an in-memory store that reads archived files
// through the given filesystem manager instead of the os package. Used in
// tests together with a mock filesystem.
func NewMemoryStoreFS(name string, fsmgr ark.FilesystemManager) *MemoryStore {
	s := NewMemoryStore(name)
	s.fsmgr = fsmgr
	return s
}

// SetNow overrides the clock used for creation timestamps. For tests.
func (m *MemoryStore) SetNow(now func() time.Time) { m.now = now }

// Create archives the file at filePath under archiveName.
func (m *MemoryStore) Create(filePath, archiveName, comment string) error {
	entry, data, err := m.readFile(filePath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.archives[archiveName]; exists {
		return fmt.Errorf("archive already exists: %s", archiveName)
	}
	m.archives[archiveName] = &memoryArchive{
		data:      data,
		comment:   comment,
		createdAt: m.now(),
		entry:     entry,
	}
	m.order = append(m.order, archiveName)
	return nil
}

func (m *MemoryStore) readFile(path string) (model.FileEntry, []byte, error) {
	if m.fsmgr == nil {
		info, err := os.Stat(path)
		if err != nil {
			return model.FileEntry{}, nil, fmt.Errorf("stat %s: %w", path, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return model.FileEntry{}, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return model.FileEntry{Path: path, Size: info.Size(), ModTime: info.ModTime()}, data, nil
	}

	p, err := m.fsmgr.Resolve(path)
	if err != nil {
		return model.FileEntry{}, nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	f, err := m.fsmgr.Open(p)
	if err != nil {
		return model.FileEntry{}, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.FileEntry{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	info := p.Info()
	return model.FileEntry{Path: path, Size: info.Size(), ModTime: info.ModTime()}, data, nil
}

// Put inserts an archive directly, bypassing any filesystem. For tests.
func (m *MemoryStore) Put(archiveName, comment string, createdAt time.Time, entry model.FileEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.archives[archiveName]; !exists {
		m.order = append(m.order, archiveName)
	}
	m.archives[archiveName] = &memoryArchive{comment: comment, createdAt: createdAt, entry: entry}
}

// FailEntries makes ListFileEntries fail for the given archive. For tests.
func (m *MemoryStore) FailEntries(archiveName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entryErrs[archiveName] = err
}

// FailDelete makes Delete fail for the given archive. For tests.
func (m *MemoryStore) FailDelete(archiveName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErrs[archiveName] = err
}

// ListNames returns all archive names in creation order.
func (m *MemoryStore) ListNames() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names, nil
}

// ListNamesWithTimes returns archive names and creation timestamps in
// creation order.
func (m *MemoryStore) ListNamesWithTimes() ([]ark.NamedTime, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	named := make([]ark.NamedTime, 0, len(m.order))
	for _, name := range m.order {
		named = append(named, ark.NamedTime{Name: name, CreatedAt: m.archives[name].createdAt})
	}
	return named, nil
}

// ReadComment returns the comment stored with an archive.
func (m *MemoryStore) ReadComment(archiveName string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.archives[archiveName]
	if !ok {
		return "", &ark.ArchiveReadError{Name: archiveName, Err: fmt.Errorf("not found")}
	}
	return a.comment, nil
}

// ListFileEntries returns the single file entry of an archive.
func (m *MemoryStore) ListFileEntries(archiveName string) ([]model.FileEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.entryErrs[archiveName]; ok {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
	}
	a, ok := m.archives[archiveName]
	if !ok {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: fmt.Errorf("not found")}
	}
	return []model.FileEntry{a.entry}, nil
}

// Delete removes an archive by name.
func (m *MemoryStore) Delete(archiveName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.deleteErrs[archiveName]; ok {
		return err
	}
	if _, ok := m.archives[archiveName]; !ok {
		return fmt.Errorf("archive not found: %s", archiveName)
	}
	delete(m.archives, archiveName)
	for i, name := range m.order {
		if name == archiveName {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Validate always succeeds for the in-memory store.
func (m *MemoryStore) Validate() error { return nil }

// Compile-time check that MemoryStore implements the ArchiveStore interface.
var _ ark.ArchiveStore = (*MemoryStore)(nil)
