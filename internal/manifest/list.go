package manifest

import (
	"context"
	"fmt"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/pathfactory"
)

// Ref points at a manifest file from a manifest list.
type Ref struct {
	// FileName is the manifest file name.
	FileName string `json:"fileName"`

	// FileSize is the manifest file size in bytes.
	FileSize int64 `json:"fileSize"`
}

// List reads, writes and deletes manifest lists.
type List struct {
	fio   fileio.FileIO
	paths *pathfactory.Factory
	codec Codec
}

// NewList creates a manifest list store.
func NewList(fio fileio.FileIO, paths *pathfactory.Factory, codec Codec) *List {
	return &List{fio: fio, paths: paths, codec: codec}
}

// Read returns the manifest refs recorded in the named manifest list.
func (l *List) Read(ctx context.Context, name string) ([]Ref, error) {
	data, err := fileio.ReadFile(ctx, l.fio, l.paths.ManifestPath(name))
	if err != nil {
		return nil, fmt.Errorf("read manifest list %s: %w", name, err)
	}
	var refs []Ref
	if err := decodeFramed(data, &refs); err != nil {
		return nil, fmt.Errorf("read manifest list %s: %w", name, err)
	}
	return refs, nil
}

// Write stores refs as a new manifest list and returns its name.
func (l *List) Write(ctx context.Context, refs []Ref) (string, error) {
	data, err := encodeFramed(refs, l.codec)
	if err != nil {
		return "", err
	}
	name := l.paths.NewManifestListName()
	if err := l.fio.WriteFile(ctx, l.paths.ManifestPath(name), data); err != nil {
		return "", fmt.Errorf("write manifest list %s: %w", name, err)
	}
	return name, nil
}

// Delete removes the named manifest list. Quiet, like File.Delete.
func (l *List) Delete(ctx context.Context, name string) {
	l.fio.DeleteQuietly(ctx, l.paths.ManifestPath(name))
}
