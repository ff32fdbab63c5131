// Package fileio defines the FileIO interface for path-addressed table storage.
//
// This package provides the storage abstraction used throughout silt for
// reading and deleting snapshot metadata, manifests and data files. Paths are
// slash-separated and rooted at the table directory. Implementations exist for
// the local filesystem ([Local]), S3-compatible object storage (the s3
// subpackage) and an in-memory store for tests ([Memory]).
//
// # Deletion semantics
//
// Deletion of a missing path is not an error: [FileIO.Delete] succeeds
// silently and [FileIO.DeleteQuietly] never reports failures at all. This
// matches object-store behavior and lets garbage collection retry safely.
// A non-recursive delete of a non-empty directory fails with
// [ErrDirNotEmpty]; callers that sweep empty directories rely on that failure
// being cheap and harmless.
package fileio

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Common errors returned by FileIO implementations.
var (
	// ErrNotFound is returned when the requested path does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrDirNotEmpty is returned by a non-recursive delete of a directory
	// that still has children.
	ErrDirNotEmpty = errors.New("directory not empty")

	// ErrAccessDenied is returned when the credentials lack permission for
	// the operation.
	ErrAccessDenied = errors.New("access denied")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("fileio is closed")
)

// PathError wraps an error with the operation and path for context.
type PathError struct {
	Op   string // Operation that failed (e.g., "Delete", "Size")
	Path string // Affected path
	Err  error  // Underlying error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("fileio: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Status describes a single file or directory.
type Status struct {
	// Path is the full path of the entry.
	Path string

	// Size is the file size in bytes; zero for directories.
	Size int64

	// IsDir reports whether the entry is a directory.
	IsDir bool

	// ModifiedAt is the Unix timestamp (milliseconds) of the last
	// modification, when the backend reports one.
	ModifiedAt int64
}

// FileIO is the interface for path-addressed storage operations.
//
// All methods accept a context for cancellation and deadline propagation.
// Implementations must be safe for concurrent use; the GC engine issues
// deletes from a worker pool.
type FileIO interface {
	// NewReader opens the file at path for reading.
	//
	// Returns ErrNotFound (wrapped) if the path does not exist.
	NewReader(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteFile atomically creates or replaces the file at path with data,
	// creating parent directories as needed.
	WriteFile(ctx context.Context, path string, data []byte) error

	// Delete removes the file or directory at path.
	//
	// Deleting a missing path succeeds. A non-recursive delete of a
	// non-empty directory fails with ErrDirNotEmpty (wrapped); with
	// recursive set, the whole subtree is removed.
	Delete(ctx context.Context, path string, recursive bool) error

	// DeleteQuietly removes the file at path, swallowing every failure.
	// Used for best-effort cleanup where a leftover file is acceptable.
	DeleteQuietly(ctx context.Context, path string)

	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the size in bytes of the file at path.
	//
	// Returns ErrNotFound (wrapped) if the path does not exist.
	Size(ctx context.Context, path string) (int64, error)

	// List returns the direct children of the directory at path in
	// lexicographic order. Listing a missing directory returns an empty
	// slice, not an error.
	List(ctx context.Context, path string) ([]Status, error)

	// Close releases resources associated with the FileIO.
	Close() error
}

// ReadFile reads the whole file at path through fio.NewReader.
func ReadFile(ctx context.Context, fio FileIO, path string) ([]byte, error) {
	rc, err := fio.NewReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
