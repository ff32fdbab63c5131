package gc

import (
	"context"
	"time"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/logging"
	"github.com/silt-io/silt/internal/manifest"
	"github.com/silt-io/silt/internal/metrics"
	"github.com/silt-io/silt/internal/partition"
	"github.com/silt-io/silt/internal/pathfactory"
	"github.com/silt-io/silt/internal/snapshot"
	"github.com/silt-io/silt/internal/stats"
)

// Skipper decides whether a deletion candidate must be preserved. Returning
// true skips (keeps) the file.
type Skipper func(manifest.FileEntry) bool

// SkipNothing is the skipper used when no retained tag precedes the
// expiring snapshot: every candidate is deletable.
func SkipNothing(manifest.FileEntry) bool { return false }

// Options configures an Engine.
type Options struct {
	FileIO        fileio.FileIO
	Paths         *pathfactory.Factory
	Manifests     *manifest.File
	ManifestLists *manifest.List
	Indexes       *manifest.IndexHandler
	Stats         *stats.Handler

	// DeleteThreads bounds the shared deletion pool.
	DeleteThreads int

	// CleanEmptyDirectories enables the empty-directory sweep.
	CleanEmptyDirectories bool

	// ChangelogDecoupled leaves changelog manifest lists to a separate
	// changelog expiration.
	ChangelogDecoupled bool

	// Logger defaults to the global logger.
	Logger *logging.Logger

	// Metrics is optional; nil disables metric recording.
	Metrics *metrics.GCMetrics
}

// Engine deletes files that are no longer reachable from retained snapshots.
//
// Engine state (the deletion-bucket accumulator and the tag live-file cache)
// is single-writer: at most one expiration pass may drive an instance at a
// time. The shared deletion pool is the only internally concurrent part.
type Engine struct {
	fio           fileio.FileIO
	paths         *pathfactory.Factory
	manifests     *manifest.File
	manifestLists *manifest.List
	indexes       *manifest.IndexHandler
	stats         *stats.Handler

	cleanEmptyDirs     bool
	changelogDecoupled bool
	pool               *Pool
	log                *logging.Logger
	metrics            *metrics.GCMetrics

	// deletionBuckets records which (partition, bucket) directories had at
	// least one file physically deleted since the last directory sweep.
	deletionBuckets map[partition.Key]map[int32]struct{}

	// cachedTagID and cachedTagLiveFiles memoize the live-file set of the
	// nearest retained tag across consecutive expiration calls. Zero means
	// nothing cached.
	cachedTagID        int64
	cachedTagLiveFiles map[partition.Key]map[int32]map[string]struct{}
}

// NewEngine creates a GC engine for one table.
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}
	if opts.Paths != nil {
		log = log.WithTable(opts.Paths.Root())
	}
	return &Engine{
		fio:                opts.FileIO,
		paths:              opts.Paths,
		manifests:          opts.Manifests,
		manifestLists:      opts.ManifestLists,
		indexes:            opts.Indexes,
		stats:              opts.Stats,
		cleanEmptyDirs:     opts.CleanEmptyDirectories,
		changelogDecoupled: opts.ChangelogDecoupled,
		pool:               NewPool(opts.DeleteThreads),
		log:                log,
		metrics:            opts.Metrics,
		deletionBuckets:    make(map[partition.Key]map[int32]struct{}),
		cachedTagLiveFiles: make(map[partition.Key]map[int32]map[string]struct{}),
	}
}

// SetChangelogDecoupled switches changelog handling for subsequent calls.
func (e *Engine) SetChangelogDecoupled(decoupled bool) {
	e.changelogDecoupled = decoupled
}

// deleteCandidate pairs a candidate entry with the resolved paths of its
// auxiliary files.
type deleteCandidate struct {
	entry      manifest.FileEntry
	extraPaths []string
}

// newDeleteCandidate resolves an entry's data file path and the aligned
// paths of its auxiliary files.
func (e *Engine) newDeleteCandidate(entry manifest.FileEntry) (string, deleteCandidate) {
	path := e.paths.DataFilePath(entry.Partition, entry.Bucket, entry.FileName)
	extraPaths := make([]string, 0, len(entry.ExtraFiles))
	for _, extra := range entry.ExtraFiles {
		extraPaths = append(extraPaths, e.paths.AlignedPath(entry.Partition, entry.Bucket, extra))
	}
	return path, deleteCandidate{entry: entry, extraPaths: extraPaths}
}

// ExpireDataFiles deletes the data files a snapshot delta made obsolete.
//
// The candidate set is computed from every manifest of manifestList; if the
// list or any manifest cannot be read the whole call is cancelled with
// nothing deleted (a partial candidate set is unsafe to act on). Candidates
// still referenced through the nearest retained tag are preserved by the
// skipper. The error return is reserved for bulk-delete infrastructure
// failures; metadata read failures only log.
func (e *Engine) ExpireDataFiles(ctx context.Context, manifestList string, skipper Skipper) error {
	refs := e.tryReadManifestList(ctx, manifestList)
	candidates := make(map[string]deleteCandidate)
	for _, ref := range refs {
		entries, err := e.manifests.ReadEntries(ctx, ref.FileName, ref.FileSize)
		if err != nil {
			// Cancel deletion if any manifest is unreadable.
			e.log.Warnf("failed to read some manifest files, cancel deletion", map[string]any{
				"manifestList": manifestList,
				"manifest":     ref.FileName,
				"error":        err.Error(),
			})
			return nil
		}
		e.collectDeleteCandidates(candidates, entries)
	}

	return e.deleteUnskippedCandidates(ctx, candidates, skipper)
}

// collectDeleteCandidates applies the commit-order merge rule to produce
// deletion candidates: a DELETE entry inserts the file path (with its
// auxiliary paths), a later ADD for the same path withdraws it. A file met
// as DELETE cannot be removed on sight because it might be re-added by a
// later manifest in the same delta (e.g. a compaction upgrade).
func (e *Engine) collectDeleteCandidates(candidates map[string]deleteCandidate, entries []manifest.FileEntry) {
	for _, entry := range entries {
		switch entry.Kind {
		case manifest.KindAdd:
			delete(candidates, e.paths.DataFilePath(entry.Partition, entry.Bucket, entry.FileName))
		case manifest.KindDelete:
			path, candidate := e.newDeleteCandidate(entry)
			candidates[path] = candidate
		}
	}
}

// deleteUnskippedCandidates physically deletes every candidate the skipper
// does not protect and records its bucket for directory reclamation.
func (e *Engine) deleteUnskippedCandidates(ctx context.Context, candidates map[string]deleteCandidate, skipper Skipper) error {
	var toDelete []string
	for path, candidate := range candidates {
		if skipper(candidate.entry) {
			if e.metrics != nil {
				e.metrics.DataFilesSkippedByTag.Inc()
			}
			continue
		}
		toDelete = append(toDelete, path)
		toDelete = append(toDelete, candidate.extraPaths...)
		e.recordDeletionBucket(candidate.entry)
	}

	if err := e.bulkDeleteQuietly(ctx, toDelete); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.DataFilesDeleted.Add(float64(len(toDelete)))
	}
	if len(toDelete) > 0 {
		e.log.Debugf("deleted obsolete data files", map[string]any{"count": len(toDelete)})
	}
	return nil
}

func (e *Engine) recordDeletionBucket(entry manifest.FileEntry) {
	buckets, ok := e.deletionBuckets[entry.Partition]
	if !ok {
		buckets = make(map[int32]struct{})
		e.deletionBuckets[entry.Partition] = buckets
	}
	buckets[entry.Bucket] = struct{}{}
}

// bulkDeleteQuietly deletes paths through the shared pool using the quiet
// leaf delete.
func (e *Engine) bulkDeleteQuietly(ctx context.Context, paths []string) error {
	start := time.Now()
	err := deleteAll(e.pool, paths, func(path string) error {
		e.fio.DeleteQuietly(ctx, path)
		return nil
	})
	if e.metrics != nil {
		e.metrics.BulkDeleteDuration.Observe(time.Since(start).Seconds())
	}
	return err
}

// tryReadManifestList reads a manifest list of a snapshot that is itself
// being cleaned. A previous interrupted expiration may already have deleted
// it, so a read failure means "nothing left to clean", not an error.
func (e *Engine) tryReadManifestList(ctx context.Context, name string) []manifest.Ref {
	refs, err := e.manifestLists.Read(ctx, name)
	if err != nil {
		e.log.Warnf("failed to read manifest list", map[string]any{
			"manifestList": name,
			"error":        err.Error(),
		})
		return nil
	}
	return refs
}

// readMergedEntries reads and merges the entries of the given manifests in
// commit order. Used for building live-file sets; read failures propagate
// because an incomplete live set must never drive deletion.
func (e *Engine) readMergedEntries(ctx context.Context, refs []manifest.Ref) (map[manifest.Identifier]manifest.FileEntry, error) {
	merged := make(map[manifest.Identifier]manifest.FileEntry)
	for _, ref := range refs {
		entries, err := e.manifests.ReadEntries(ctx, ref.FileName, ref.FileSize)
		if err != nil {
			return nil, err
		}
		manifest.Merge(entries, merged)
	}
	return merged, nil
}

// dataManifestRefs returns the manifest refs of a snapshot's base and delta
// lists. Read failures propagate.
func (e *Engine) dataManifestRefs(ctx context.Context, snap *snapshot.Snapshot) ([]manifest.Ref, error) {
	baseRefs, err := e.manifestLists.Read(ctx, snap.BaseManifestList)
	if err != nil {
		return nil, err
	}
	deltaRefs, err := e.manifestLists.Read(ctx, snap.DeltaManifestList)
	if err != nil {
		return nil, err
	}
	return append(baseRefs, deltaRefs...), nil
}

// addMergedLiveFiles merges all data manifests reachable from snap and adds
// the net-ADD survivors to liveFiles, indexed partition -> bucket -> name.
func (e *Engine) addMergedLiveFiles(ctx context.Context, liveFiles map[partition.Key]map[int32]map[string]struct{}, snap *snapshot.Snapshot) error {
	refs, err := e.dataManifestRefs(ctx, snap)
	if err != nil {
		return err
	}
	merged, err := e.readMergedEntries(ctx, refs)
	if err != nil {
		return err
	}
	for _, entry := range merged {
		if entry.Kind != manifest.KindAdd {
			continue
		}
		buckets, ok := liveFiles[entry.Partition]
		if !ok {
			buckets = make(map[int32]map[string]struct{})
			liveFiles[entry.Partition] = buckets
		}
		fileNames, ok := buckets[entry.Bucket]
		if !ok {
			fileNames = make(map[string]struct{})
			buckets[entry.Bucket] = fileNames
		}
		fileNames[entry.FileName] = struct{}{}
	}
	return nil
}

func containsLiveFile(liveFiles map[partition.Key]map[int32]map[string]struct{}, entry manifest.FileEntry) bool {
	buckets, ok := liveFiles[entry.Partition]
	if !ok {
		return false
	}
	fileNames, ok := buckets[entry.Bucket]
	if !ok {
		return false
	}
	_, ok = fileNames[entry.FileName]
	return ok
}

// TagSkipper returns the skipper protecting files still visible through the
// nearest retained tag preceding the expiring snapshot.
//
// taggedSnapshots must be sorted by ascending id. Consecutive expirations
// usually share the same nearest tag, so the tag's live-file set is cached
// and invalidated only when the nearest tag id changes. A manifest read
// failure during recomputation propagates; the caller must not fall back to
// a stale or incomplete cache.
func (e *Engine) TagSkipper(ctx context.Context, taggedSnapshots []*snapshot.Snapshot, expiringID int64) (Skipper, error) {
	index := snapshot.FindPrevious(taggedSnapshots, expiringID)
	if index < 0 {
		return SkipNothing, nil
	}

	previousTag := taggedSnapshots[index]
	if previousTag.ID != e.cachedTagID {
		e.cachedTagID = 0
		e.cachedTagLiveFiles = make(map[partition.Key]map[int32]map[string]struct{})
		if err := e.addMergedLiveFiles(ctx, e.cachedTagLiveFiles, previousTag); err != nil {
			return nil, err
		}
		// Record the tag only after a complete read.
		e.cachedTagID = previousTag.ID
	}

	liveFiles := e.cachedTagLiveFiles
	return func(entry manifest.FileEntry) bool {
		return containsLiveFile(liveFiles, entry)
	}, nil
}

// SnapshotsDataFileSkipper returns a skipper protecting every file live in
// any of the given snapshots. Used when deleting a tag whose neighbours
// remain. Read failures propagate.
func (e *Engine) SnapshotsDataFileSkipper(ctx context.Context, fromSnapshots []*snapshot.Snapshot) (Skipper, error) {
	liveFiles := make(map[partition.Key]map[int32]map[string]struct{})
	for _, snap := range fromSnapshots {
		if err := e.addMergedLiveFiles(ctx, liveFiles, snap); err != nil {
			return nil, err
		}
	}
	return func(entry manifest.FileEntry) bool {
		return containsLiveFile(liveFiles, entry)
	}, nil
}
