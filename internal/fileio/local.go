package fileio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
)

// Local implements FileIO over the operating system filesystem.
//
// Paths are interpreted relative to the configured root directory. Writes go
// through a temporary file plus rename so concurrent readers never observe a
// partially written manifest.
type Local struct {
	root string

	mu     sync.RWMutex
	closed bool
}

// NewLocal creates a Local FileIO rooted at dir. The directory is created if
// it does not exist.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("fileio: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PathError{Op: "NewLocal", Path: dir, Err: err}
	}
	return &Local{root: dir}, nil
}

// Root returns the root directory of this FileIO.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) checkClosed() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// NewReader opens the file at path for reading.
func (l *Local) NewReader(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := l.checkClosed(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.resolve(path))
	if err != nil {
		return nil, l.wrapError("NewReader", path, err)
	}
	return f, nil
}

// WriteFile atomically creates or replaces the file at path.
func (l *Local) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := l.checkClosed(); err != nil {
		return err
	}
	target := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return l.wrapError("WriteFile", path, err)
	}
	tmp := target + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return l.wrapError("WriteFile", path, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return l.wrapError("WriteFile", path, err)
	}
	return nil
}

// Delete removes the file or directory at path.
func (l *Local) Delete(ctx context.Context, path string, recursive bool) error {
	if err := l.checkClosed(); err != nil {
		return err
	}
	target := l.resolve(path)
	var err error
	if recursive {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return l.wrapError("Delete", path, err)
	}
	return nil
}

// DeleteQuietly removes the file at path, swallowing every failure.
func (l *Local) DeleteQuietly(ctx context.Context, path string) {
	_ = l.Delete(ctx, path, false)
}

// Exists reports whether a file or directory exists at path.
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	if err := l.checkClosed(); err != nil {
		return false, err
	}
	_, err := os.Stat(l.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, l.wrapError("Exists", path, err)
	}
	return true, nil
}

// Size returns the size in bytes of the file at path.
func (l *Local) Size(ctx context.Context, path string) (int64, error) {
	if err := l.checkClosed(); err != nil {
		return 0, err
	}
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		return 0, l.wrapError("Size", path, err)
	}
	return info.Size(), nil
}

// List returns the direct children of the directory at path.
func (l *Local) List(ctx context.Context, path string) ([]Status, error) {
	if err := l.checkClosed(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, l.wrapError("List", path, err)
	}
	statuses := make([]Status, 0, len(entries))
	for _, entry := range entries {
		st := Status{
			Path:  strings.TrimSuffix(path, "/") + "/" + entry.Name(),
			IsDir: entry.IsDir(),
		}
		if info, err := entry.Info(); err == nil {
			st.Size = info.Size()
			st.ModifiedAt = info.ModTime().UnixMilli()
		}
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Path < statuses[j].Path })
	return statuses, nil
}

// Close marks the FileIO closed.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *Local) wrapError(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &PathError{Op: op, Path: path, Err: ErrNotFound}
	case errors.Is(err, fs.ErrPermission):
		return &PathError{Op: op, Path: path, Err: ErrAccessDenied}
	}
	// os.Remove reports a non-empty directory as ENOTEMPTY (EEXIST on some
	// unices); normalize so the directory sweep can branch on ErrDirNotEmpty.
	if errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) {
		return &PathError{Op: op, Path: path, Err: ErrDirNotEmpty}
	}
	return &PathError{Op: op, Path: path, Err: err}
}

// Verify interface compliance at compile time.
var _ FileIO = (*Local)(nil)
