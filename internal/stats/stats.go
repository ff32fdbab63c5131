// Package stats handles table statistics files.
//
// A statistics file is an opaque per-snapshot artifact written by the analyze
// path; the GC engine only ever deletes it.
package stats

import (
	"context"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/pathfactory"
)

// Handler deletes statistics files.
type Handler struct {
	fio   fileio.FileIO
	paths *pathfactory.Factory
}

// NewHandler creates a statistics handler.
func NewHandler(fio fileio.FileIO, paths *pathfactory.Factory) *Handler {
	return &Handler{fio: fio, paths: paths}
}

// DeleteStats removes the named statistics file. Quiet: missing files are
// not an error.
func (h *Handler) DeleteStats(ctx context.Context, name string) {
	h.fio.DeleteQuietly(ctx, h.paths.StatsPath(name))
}

// WriteStats stores data as a new statistics file and returns its name.
func (h *Handler) WriteStats(ctx context.Context, data []byte) (string, error) {
	name := h.paths.NewStatsFileName()
	if err := h.fio.WriteFile(ctx, h.paths.StatsPath(name), data); err != nil {
		return "", err
	}
	return name, nil
}
