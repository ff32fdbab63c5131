package fileio

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory implementation of FileIO for testing.
//
// Unlike a flat object store, Memory models directories explicitly: writing a
// file creates its parent directories, deleting the file leaves them behind
// empty, and a non-recursive directory delete fails while children remain.
// This mirrors the Local implementation closely enough to exercise the
// empty-directory sweep.
type Memory struct {
	mu     sync.RWMutex
	files  map[string]memoryFile
	dirs   map[string]bool
	closed bool
}

type memoryFile struct {
	data       []byte
	modifiedAt int64
}

// NewMemory creates a new empty in-memory FileIO.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]memoryFile),
		dirs:  make(map[string]bool),
	}
}

func clean(path string) string {
	return strings.Trim(path, "/")
}

func parentDirs(path string) []string {
	var dirs []string
	for {
		idx := strings.LastIndexByte(path, '/')
		if idx < 0 {
			return dirs
		}
		path = path[:idx]
		dirs = append(dirs, path)
	}
}

// NewReader opens the file at path for reading.
func (m *Memory) NewReader(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	f, ok := m.files[clean(path)]
	if !ok {
		return nil, &PathError{Op: "NewReader", Path: path, Err: ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// WriteFile creates or replaces the file at path, creating parent directories.
func (m *Memory) WriteFile(ctx context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	path = clean(path)
	m.files[path] = memoryFile{data: append([]byte(nil), data...), modifiedAt: time.Now().UnixMilli()}
	for _, dir := range parentDirs(path) {
		m.dirs[dir] = true
	}
	return nil
}

// Delete removes the file or directory at path.
func (m *Memory) Delete(ctx context.Context, path string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	path = clean(path)

	if _, ok := m.files[path]; ok {
		delete(m.files, path)
		return nil
	}

	if !m.dirs[path] {
		// Missing path: idempotent success.
		return nil
	}

	prefix := path + "/"
	if recursive {
		for name := range m.files {
			if strings.HasPrefix(name, prefix) {
				delete(m.files, name)
			}
		}
		for name := range m.dirs {
			if strings.HasPrefix(name, prefix) {
				delete(m.dirs, name)
			}
		}
		delete(m.dirs, path)
		return nil
	}

	for name := range m.files {
		if strings.HasPrefix(name, prefix) {
			return &PathError{Op: "Delete", Path: path, Err: ErrDirNotEmpty}
		}
	}
	for name := range m.dirs {
		if strings.HasPrefix(name, prefix) {
			return &PathError{Op: "Delete", Path: path, Err: ErrDirNotEmpty}
		}
	}
	delete(m.dirs, path)
	return nil
}

// DeleteQuietly removes the file at path, swallowing every failure.
func (m *Memory) DeleteQuietly(ctx context.Context, path string) {
	_ = m.Delete(ctx, path, false)
}

// Exists reports whether a file or directory exists at path.
func (m *Memory) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	path = clean(path)
	if _, ok := m.files[path]; ok {
		return true, nil
	}
	return m.dirs[path], nil
}

// Size returns the size in bytes of the file at path.
func (m *Memory) Size(ctx context.Context, path string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	f, ok := m.files[clean(path)]
	if !ok {
		return 0, &PathError{Op: "Size", Path: path, Err: ErrNotFound}
	}
	return int64(len(f.data)), nil
}

// List returns the direct children of the directory at path.
func (m *Memory) List(ctx context.Context, path string) ([]Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	path = clean(path)
	prefix := ""
	if path != "" {
		prefix = path + "/"
	}

	seen := make(map[string]Status)
	add := func(full string, st Status) {
		rest := strings.TrimPrefix(full, prefix)
		if rest == full && prefix != "" {
			return
		}
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			// Indirect child: surfaces as a directory entry.
			dir := prefix + rest[:idx]
			seen[dir] = Status{Path: "/" + dir, IsDir: true}
			return
		}
		seen[full] = st
	}
	for name, f := range m.files {
		add(name, Status{Path: "/" + name, Size: int64(len(f.data)), ModifiedAt: f.modifiedAt})
	}
	for name := range m.dirs {
		add(name, Status{Path: "/" + name, IsDir: true})
	}

	statuses := make([]Status, 0, len(seen))
	for _, st := range seen {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Path < statuses[j].Path })
	return statuses, nil
}

// Close marks the FileIO closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// FileCount returns the number of stored files. Test helper.
func (m *Memory) FileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// Paths returns all stored file paths in lexicographic order. Test helper.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for name := range m.files {
		paths = append(paths, "/"+name)
	}
	sort.Strings(paths)
	return paths
}

// Verify interface compliance at compile time.
var _ FileIO = (*Memory)(nil)
