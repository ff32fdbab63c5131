package gc

import (
	"context"
	"errors"

	"github.com/silt-io/silt/internal/fileio"
	"github.com/silt-io/silt/internal/partition"
)

// ReclaimDirectories removes the directories left empty by the data file
// deletions recorded since the last sweep: bucket directories first, then
// the partition hierarchy above them, deepest level first.
//
// Every delete is non-recursive, so a directory that still holds live files
// simply stays. Concurrent writers may race a delete with a new file;
// losing that race leaves the directory in place, which is correct. The
// accumulator is always cleared: a directory that survived this sweep is
// only worth revisiting after further deletions record it again.
func (e *Engine) ReclaimDirectories(ctx context.Context) {
	buckets := e.deletionBuckets
	e.deletionBuckets = make(map[partition.Key]map[int32]struct{})
	if !e.cleanEmptyDirs || len(buckets) == 0 {
		return
	}

	// Bucket directories are independent of each other; attempt them
	// through the shared pool.
	var bucketDirs []string
	for part, ids := range buckets {
		for id := range ids {
			bucketDirs = append(bucketDirs, e.paths.BucketPath(part, id))
		}
	}
	deleted := 0
	results := make([]bool, len(bucketDirs))
	_ = deleteAll(e.pool, indexes(len(bucketDirs)), func(i int) error {
		results[i] = e.tryDeleteEmptyDir(ctx, bucketDirs[i])
		return nil
	})
	for _, ok := range results {
		if ok {
			deleted++
		}
	}

	// Climb the partition hierarchy. The finest directory of each partition
	// is attempted right away; only when it goes does the partition vote
	// for its ancestors. Ancestors are shared between partitions, so they
	// are deduplicated per level and attempted exactly once, deepest level
	// first, after every partition below them had its chance.
	var levels []map[string]struct{}
	for part := range buckets {
		hier := e.paths.HierarchicalPartitionPaths(part)
		if len(hier) == 0 {
			continue
		}
		if !e.tryDeleteEmptyDir(ctx, hier[0]) {
			continue
		}
		deleted++
		for depth, path := range hier[1:] {
			for len(levels) <= depth {
				levels = append(levels, make(map[string]struct{}))
			}
			levels[depth][path] = struct{}{}
		}
	}
	for _, level := range levels {
		for path := range level {
			if e.tryDeleteEmptyDir(ctx, path) {
				deleted++
			}
		}
	}

	if e.metrics != nil {
		e.metrics.DirectoriesReclaimed.Add(float64(deleted))
	}
	e.log.Debugf("reclaimed empty directories", map[string]any{"count": deleted})
}

// tryDeleteEmptyDir attempts a non-recursive directory delete. A non-empty
// or already-missing directory is a normal outcome, not a failure.
func (e *Engine) tryDeleteEmptyDir(ctx context.Context, path string) bool {
	err := e.fio.Delete(ctx, path, false)
	if err == nil {
		return true
	}
	if !errors.Is(err, fileio.ErrDirNotEmpty) && !errors.Is(err, fileio.ErrNotFound) {
		e.log.Warnf("failed to delete directory", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
	}
	return false
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
