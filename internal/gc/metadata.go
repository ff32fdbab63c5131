package gc

import (
	"context"
	"errors"
	"fmt"

	"github.com/silt-io/silt/internal/manifest"
	"github.com/silt-io/silt/internal/snapshot"
)

// SkipSet holds the metadata file names that must survive an expiration
// because a retained snapshot still references them. Expiration routines add
// the names they delete so repeated references within one pass are not
// retried.
type SkipSet map[string]struct{}

func (s SkipSet) contains(name string) bool {
	_, ok := s[name]
	return ok
}

func (s SkipSet) add(name string) {
	s[name] = struct{}{}
}

// BuildSkipSet collects every metadata file name referenced by the retained
// snapshots: manifest list names, the manifest names inside them, index
// manifest names with the index file names inside them, and statistics file
// names. Any read failure aborts the build because an incomplete skip set
// would let live metadata be deleted.
func (e *Engine) BuildSkipSet(ctx context.Context, retained []*snapshot.Snapshot) (SkipSet, error) {
	skip := make(SkipSet)
	for _, snap := range retained {
		lists := []string{snap.BaseManifestList, snap.DeltaManifestList}
		if snap.ChangelogManifestList != nil {
			lists = append(lists, *snap.ChangelogManifestList)
		}
		for _, list := range lists {
			skip.add(list)
			refs, err := e.manifestLists.Read(ctx, list)
			if err != nil {
				return nil, fmt.Errorf("building skip set for snapshot %d: %w", snap.ID, err)
			}
			for _, ref := range refs {
				skip.add(ref.FileName)
			}
		}
		if snap.IndexManifest != nil && *snap.IndexManifest != "" {
			name := *snap.IndexManifest
			skip.add(name)
			entries, err := e.indexes.ReadManifest(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("building skip set for snapshot %d: %w", snap.ID, err)
			}
			for _, entry := range entries {
				skip.add(entry.IndexFile.FileName)
			}
		}
		if snap.Statistics != nil {
			skip.add(*snap.Statistics)
		}
	}
	return skip, nil
}

// ExpireManifestList deletes a manifest list and every manifest it names,
// except the ones in skipSet. Deleted names are added to skipSet so a later
// list in the same pass does not re-delete them. The error return is
// reserved for bulk-delete infrastructure failures.
func (e *Engine) ExpireManifestList(ctx context.Context, name string, skipSet SkipSet) error {
	if skipSet.contains(name) {
		return nil
	}
	var toDelete []string
	for _, ref := range e.tryReadManifestList(ctx, name) {
		if skipSet.contains(ref.FileName) {
			continue
		}
		toDelete = append(toDelete, e.paths.ManifestPath(ref.FileName))
		skipSet.add(ref.FileName)
	}
	toDelete = append(toDelete, e.paths.ManifestPath(name))
	skipSet.add(name)
	if err := e.bulkDeleteQuietly(ctx, toDelete); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.ManifestsDeleted.Add(float64(len(toDelete)))
	}
	return nil
}

// ExpireIndexManifest deletes a snapshot's index manifest and the index
// files it names, skipping entries shared with retained snapshots. A missing
// index manifest means a previous run already cleaned it and is not an
// error; any other read failure propagates.
func (e *Engine) ExpireIndexManifest(ctx context.Context, snap *snapshot.Snapshot, skipSet SkipSet) error {
	if snap.IndexManifest == nil || *snap.IndexManifest == "" {
		return nil
	}
	name := *snap.IndexManifest
	if skipSet.contains(name) {
		return nil
	}
	entries, err := e.indexes.ReadManifest(ctx, name)
	if err != nil {
		if errors.Is(err, manifest.ErrIndexManifestNotFound) {
			return nil
		}
		return fmt.Errorf("expiring index manifest of snapshot %d: %w", snap.ID, err)
	}
	var toDelete []string
	for _, entry := range entries {
		if skipSet.contains(entry.IndexFile.FileName) {
			continue
		}
		toDelete = append(toDelete, e.paths.IndexPath(entry.IndexFile.FileName))
		skipSet.add(entry.IndexFile.FileName)
	}
	indexFiles := len(toDelete)
	toDelete = append(toDelete, e.paths.IndexPath(name))
	skipSet.add(name)
	if err := e.bulkDeleteQuietly(ctx, toDelete); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.IndexFilesDeleted.Add(float64(indexFiles))
	}
	return nil
}

// ExpireStatistics deletes a snapshot's statistics file unless a retained
// snapshot shares it.
func (e *Engine) ExpireStatistics(ctx context.Context, snap *snapshot.Snapshot, skipSet SkipSet) {
	if snap.Statistics == nil {
		return
	}
	name := *snap.Statistics
	if skipSet.contains(name) {
		return
	}
	e.stats.DeleteStats(ctx, name)
	skipSet.add(name)
}

// ExpireMetadata removes all metadata of one expiring snapshot: optionally
// its base and delta manifest lists, optionally its changelog manifest list,
// its index manifest with index files, and its statistics file. Set
// deleteDataManifestLists to false when a retained snapshot's base list
// still transitively includes the expiring snapshot's manifests.
func (e *Engine) ExpireMetadata(ctx context.Context, snap *snapshot.Snapshot, skipSet SkipSet, deleteDataManifestLists, deleteChangelog bool) error {
	log := e.log.WithSnapshot(snap.ID)
	if deleteDataManifestLists {
		if err := e.ExpireManifestList(ctx, snap.BaseManifestList, skipSet); err != nil {
			return err
		}
		if err := e.ExpireManifestList(ctx, snap.DeltaManifestList, skipSet); err != nil {
			return err
		}
	}
	if deleteChangelog && snap.ChangelogManifestList != nil {
		if err := e.ExpireManifestList(ctx, *snap.ChangelogManifestList, skipSet); err != nil {
			return err
		}
	}
	if err := e.ExpireIndexManifest(ctx, snap, skipSet); err != nil {
		return err
	}
	e.ExpireStatistics(ctx, snap, skipSet)
	log.Debugf("expired snapshot metadata", nil)
	return nil
}
