package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"arkeep/internal/ark"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
type MockFilesystemManager struct {
	files map[string]*MockFile
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{files: make(map[string]*MockFile)}
}

// AddFile adds a file to the mock filesystem with mtime set to now.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[path] = &MockFile{Permissions: 0755, IsDirectory: true}
}

// Touch sets a file's modification time.
func (m *MockFilesystemManager) Touch(path string, mtime time.Time) {
	if f, ok := m.files[path]; ok {
		f.ModTime = mtime
	}
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*ark.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}
	return ark.NewPath(absPath, file.IsDirectory, m.info(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *ark.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) FindFiles(path *ark.Path, recursive bool) ([]*ark.Path, error) {
	dir, ok := m.files[path.String()]
	if !ok || !dir.IsDirectory {
		return nil, fmt.Errorf("not a directory: %s", path.String())
	}

	prefix := path.String() + "/"
	var names []string
	for p, f := range m.files {
		if f.IsDirectory || !strings.HasPrefix(p, prefix) {
			continue
		}
		if !recursive && strings.Contains(p[len(prefix):], "/") {
			continue
		}
		names = append(names, p)
	}
	sort.Strings(names)

	paths := make([]*ark.Path, len(names))
	for i, p := range names {
		paths[i] = ark.NewPath(p, false, m.info(p, m.files[p]))
	}
	return paths, nil
}

func (m *MockFilesystemManager) HashFile(path *ark.Path) (string, error) {
	file, ok := m.files[path.String()]
	if !ok || file.IsDirectory {
		return "", fmt.Errorf("file not found: %s", path.String())
	}
	h := sha256.Sum256(file.Content)
	return hex.EncodeToString(h[:]), nil
}

func (m *MockFilesystemManager) info(path string, file *MockFile) fs.FileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
}

// mockFileInfo implements fs.FileInfo.
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ ark.FilesystemManager = (*MockFilesystemManager)(nil)
