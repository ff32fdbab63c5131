package manifest

import (
	"context"
	"fmt"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/pathfactory"
)

// File reads, writes and deletes manifest files.
type File struct {
	fio   fileio.FileIO
	paths *pathfactory.Factory
	codec Codec
}

// NewFile creates a manifest file store.
func NewFile(fio fileio.FileIO, paths *pathfactory.Factory, codec Codec) *File {
	return &File{fio: fio, paths: paths, codec: codec}
}

// ReadEntries reads the file entries of the named manifest. size is the
// recorded manifest size from its list entry; if positive it is checked
// against the stored bytes to catch truncation.
func (f *File) ReadEntries(ctx context.Context, name string, size int64) ([]FileEntry, error) {
	path := f.paths.ManifestPath(name)
	data, err := fileio.ReadFile(ctx, f.fio, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", name, err)
	}
	if size > 0 && int64(len(data)) != size {
		return nil, fmt.Errorf("read manifest %s: size mismatch, got %d want %d", name, len(data), size)
	}
	var entries []FileEntry
	if err := decodeFramed(data, &entries); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", name, err)
	}
	return entries, nil
}

// Write stores entries as a new manifest file and returns its Ref.
func (f *File) Write(ctx context.Context, entries []FileEntry) (Ref, error) {
	data, err := encodeFramed(entries, f.codec)
	if err != nil {
		return Ref{}, err
	}
	name := f.paths.NewManifestFileName()
	if err := f.fio.WriteFile(ctx, f.paths.ManifestPath(name), data); err != nil {
		return Ref{}, fmt.Errorf("write manifest %s: %w", name, err)
	}
	return Ref{FileName: name, FileSize: int64(len(data))}, nil
}

// Delete removes the named manifest file. Quiet: missing files and transient
// failures are swallowed, a future sweep retries.
func (f *File) Delete(ctx context.Context, name string) {
	f.fio.DeleteQuietly(ctx, f.paths.ManifestPath(name))
}

// Exists reports whether the named manifest file exists.
func (f *File) Exists(ctx context.Context, name string) (bool, error) {
	return f.fio.Exists(ctx, f.paths.ManifestPath(name))
}
