package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/partition"
	"github.com/silt-io/silt/internal/pathfactory"
)

// ErrIndexManifestNotFound is returned by IndexHandler.ReadManifest when the
// index manifest itself is missing. Callers treat this as "already cleaned";
// every other read failure is a real error.
var ErrIndexManifestNotFound = errors.New("index manifest not found")

// IndexFileMeta describes one index file referenced by an index manifest.
type IndexFileMeta struct {
	// FileName is the index file name.
	FileName string `json:"fileName"`

	// FileSize is the index file size in bytes.
	FileSize int64 `json:"fileSize"`

	// IndexType names the kind of index (e.g. "HASH", "DELETION_VECTORS").
	IndexType string `json:"indexType,omitempty"`

	// RowCount is the number of rows covered by the index file.
	RowCount int64 `json:"rowCount,omitempty"`
}

// IndexManifestEntry is one record in an index manifest.
type IndexManifestEntry struct {
	Kind      FileKind      `json:"kind"`
	Partition partition.Key `json:"partition"`
	Bucket    int32         `json:"bucket"`
	IndexFile IndexFileMeta `json:"indexFile"`
}

// IndexHandler reads index manifests and deletes index files.
type IndexHandler struct {
	fio   fileio.FileIO
	paths *pathfactory.Factory
	codec Codec
}

// NewIndexHandler creates an index manifest handler.
func NewIndexHandler(fio fileio.FileIO, paths *pathfactory.Factory, codec Codec) *IndexHandler {
	return &IndexHandler{fio: fio, paths: paths, codec: codec}
}

// ReadManifest returns the entries of the named index manifest.
//
// A missing manifest is reported as ErrIndexManifestNotFound so callers can
// distinguish "another expiration already removed it" from a real failure.
func (h *IndexHandler) ReadManifest(ctx context.Context, name string) ([]IndexManifestEntry, error) {
	data, err := fileio.ReadFile(ctx, h.fio, h.paths.IndexPath(name))
	if err != nil {
		if errors.Is(err, fileio.ErrNotFound) {
			return nil, fmt.Errorf("index manifest %s: %w", name, ErrIndexManifestNotFound)
		}
		return nil, fmt.Errorf("read index manifest %s: %w", name, err)
	}
	var entries []IndexManifestEntry
	if err := decodeFramed(data, &entries); err != nil {
		return nil, fmt.Errorf("read index manifest %s: %w", name, err)
	}
	return entries, nil
}

// WriteManifest stores entries as a new index manifest and returns its name.
func (h *IndexHandler) WriteManifest(ctx context.Context, entries []IndexManifestEntry) (string, error) {
	data, err := encodeFramed(entries, h.codec)
	if err != nil {
		return "", err
	}
	name := h.paths.NewIndexManifestName()
	if err := h.fio.WriteFile(ctx, h.paths.IndexPath(name), data); err != nil {
		return "", fmt.Errorf("write index manifest %s: %w", name, err)
	}
	return name, nil
}

// DeleteManifest removes the named index manifest. Quiet.
func (h *IndexHandler) DeleteManifest(ctx context.Context, name string) {
	h.fio.DeleteQuietly(ctx, h.paths.IndexPath(name))
}

// DeleteIndexFile removes the index file referenced by entry. Quiet.
func (h *IndexHandler) DeleteIndexFile(ctx context.Context, entry IndexManifestEntry) {
	h.fio.DeleteQuietly(ctx, h.paths.IndexPath(entry.IndexFile.FileName))
}
