package mocks

import (
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"github.com/user/pawfeed/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Paths are cleaned, writes
// create their parent directories, and reads of missing files fail with
// fs.ErrNotExist like the OS adapter does.
type FileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	reads map[string]int

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		reads: make(map[string]int),
	}
}

// WithFile stores data at path and returns m, for seeding fixtures.
func (m *FileSystem) WithFile(path string, data []byte) *FileSystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(filepath.Clean(path), data)
	return m
}

// store records the file and its parents. Caller holds mu.
func (m *FileSystem) store(path string, data []byte) {
	m.files[path] = data
	for dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads[path]++
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(filepath.Clean(path), append([]byte(nil), data...))
	return nil
}

func (m *FileSystem) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := filepath.Clean(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
	return nil
}

func (m *FileSystem) Exists(path string) (bool, error) {
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, file := m.files[path]
	return file || m.dirs[path], nil
}

// GetFile returns the contents stored at path.
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

// Paths returns every stored file path in sorted order.
func (m *FileSystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reads returns how many times path was read.
func (m *FileSystem) Reads(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[filepath.Clean(path)]
}

var _ ports.FileSystem = (*FileSystem)(nil)
