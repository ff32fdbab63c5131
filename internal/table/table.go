// Package table assembles a GC engine and its collaborators for one table
// from a loaded configuration.
package table

import (
	"context"
	"fmt"

	"github.com/silt-io/silt/internal/config"
	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/fileio/s3"
	"github.com/silt-io/silt/internal/gc"
	"github.com/silt-io/silt/internal/logging"
	"github.com/silt-io/silt/internal/manifest"
	"github.com/silt-io/silt/internal/metrics"
	"github.com/silt-io/silt/internal/pathfactory"
	"github.com/silt-io/silt/internal/snapshot"
	"github.com/silt-io/silt/internal/stats"
)

// Options supplements the configuration with process-level collaborators
// that are created once per process rather than once per table.
type Options struct {
	// GCMetrics enables GC metric recording when non-nil.
	GCMetrics *metrics.GCMetrics

	// FileIOMetrics wraps the storage backend with instrumentation when
	// non-nil.
	FileIOMetrics *metrics.FileIOMetrics

	// Logger defaults to a logger built from the observability config.
	Logger *logging.Logger
}

// Table bundles the storage, metadata stores and GC engine of one table.
type Table struct {
	fio   fileio.FileIO
	paths *pathfactory.Factory

	Manifests     *manifest.File
	ManifestLists *manifest.List
	Indexes       *manifest.IndexHandler
	Stats         *stats.Handler
	Engine        *gc.Engine
}

// Open builds a Table rooted at tablePath on the configured storage backend.
// tablePath is relative to the backend root (the local root directory or the
// S3 bucket).
func Open(ctx context.Context, cfg *config.Config, tablePath string, opts Options) (*Table, error) {
	codec, err := manifest.ParseCodec(cfg.Manifest.Compression)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", tablePath, err)
	}

	log := opts.Logger
	if log == nil {
		log = logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.Observability.LogLevel),
			Format: logging.ParseFormat(cfg.Observability.LogFormat),
		})
	}

	fio, err := newFileIO(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", tablePath, err)
	}
	if opts.FileIOMetrics != nil {
		fio = fileio.NewInstrumented(fio, opts.FileIOMetrics)
	}

	paths := pathfactory.New(tablePath)
	manifests := manifest.NewFile(fio, paths, codec)
	manifestLists := manifest.NewList(fio, paths, codec)
	indexes := manifest.NewIndexHandler(fio, paths, codec)
	statsHandler := stats.NewHandler(fio, paths)

	engine := gc.NewEngine(gc.Options{
		FileIO:                fio,
		Paths:                 paths,
		Manifests:             manifests,
		ManifestLists:         manifestLists,
		Indexes:               indexes,
		Stats:                 statsHandler,
		DeleteThreads:         cfg.GC.DeleteThreads,
		CleanEmptyDirectories: cfg.GC.CleanEmptyDirectories,
		ChangelogDecoupled:    cfg.GC.ChangelogDecoupled,
		Logger:                log,
		Metrics:               opts.GCMetrics,
	})

	return &Table{
		fio:           fio,
		paths:         paths,
		Manifests:     manifests,
		ManifestLists: manifestLists,
		Indexes:       indexes,
		Stats:         statsHandler,
		Engine:        engine,
	}, nil
}

func newFileIO(ctx context.Context, cfg config.StorageConfig) (fileio.FileIO, error) {
	switch cfg.Backend {
	case "local":
		return fileio.NewLocal(cfg.Root)
	case "s3":
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			UsePathStyle:    cfg.Endpoint != "",
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// FileIO returns the table's storage backend.
func (t *Table) FileIO() fileio.FileIO {
	return t.fio
}

// Paths returns the table's path factory.
func (t *Table) Paths() *pathfactory.Factory {
	return t.paths
}

// Snapshot reads the snapshot with the given id.
func (t *Table) Snapshot(ctx context.Context, id int64) (*snapshot.Snapshot, error) {
	return snapshot.Read(ctx, t.fio, t.paths.SnapshotPath(id))
}

// Close releases the storage backend.
func (t *Table) Close() error {
	return t.fio.Close()
}
