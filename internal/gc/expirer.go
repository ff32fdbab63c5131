package gc

import (
	"context"

	"github.com/silt-io/silt/internal/manifest"
	"github.com/silt-io/silt/internal/snapshot"
)

// Expirer removes everything a no-longer-retained snapshot exclusively
// owns. SnapshotExpirer handles ordinary retention expiration, TagExpirer
// handles explicit tag deletion; both share the Engine's candidate and skip
// machinery.
type Expirer interface {
	// Expire removes the data files and metadata of one snapshot. skipSet
	// must cover every metadata file the retained snapshots reference.
	Expire(ctx context.Context, snap *snapshot.Snapshot, skipSet SkipSet) error
}

// SnapshotExpirer expires snapshots that fell out of the retention window.
// Only the delta of each expiring snapshot is considered: files carried in
// its base list are still referenced by the next snapshot's base.
type SnapshotExpirer struct {
	engine *Engine

	// taggedSnapshots are the snapshots pinned by tags, ascending by id.
	taggedSnapshots []*snapshot.Snapshot
}

// NewSnapshotExpirer creates an expirer for retention-driven expiration.
// taggedSnapshots must be sorted by ascending snapshot id.
func NewSnapshotExpirer(engine *Engine, taggedSnapshots []*snapshot.Snapshot) *SnapshotExpirer {
	return &SnapshotExpirer{engine: engine, taggedSnapshots: taggedSnapshots}
}

// Expire deletes the data files snap's delta made obsolete, the changelog
// files it added (unless changelog expiration runs separately), and its
// metadata files.
func (x *SnapshotExpirer) Expire(ctx context.Context, snap *snapshot.Snapshot, skipSet SkipSet) error {
	e := x.engine
	skipper, err := e.TagSkipper(ctx, x.taggedSnapshots, snap.ID)
	if err != nil {
		return err
	}
	if err := e.ExpireDataFiles(ctx, snap.DeltaManifestList, skipper); err != nil {
		return err
	}
	if !e.changelogDecoupled && snap.ChangelogManifestList != nil {
		if err := e.DeleteAddedFiles(ctx, *snap.ChangelogManifestList); err != nil {
			return err
		}
	}
	return e.ExpireMetadata(ctx, snap, skipSet, true, !e.changelogDecoupled)
}

// TagExpirer deletes a single tag while its neighbouring snapshots remain.
// Unlike retention expiration it must consider the tag's full reachable
// file set (base and delta), because nothing chains the tag's base to a
// surviving snapshot.
type TagExpirer struct {
	engine *Engine

	// neighbors are the snapshots whose live files must survive the tag
	// deletion, typically the adjacent earlier tag (or earliest retained
	// snapshot) and the adjacent later one.
	neighbors []*snapshot.Snapshot
}

// NewTagExpirer creates an expirer for deleting one tag.
func NewTagExpirer(engine *Engine, neighbors []*snapshot.Snapshot) *TagExpirer {
	return &TagExpirer{engine: engine, neighbors: neighbors}
}

// Expire deletes the tag's data files not reachable from any neighbour
// snapshot, then its metadata files. The changelog list is left alone: tags
// never own changelog files.
func (x *TagExpirer) Expire(ctx context.Context, snap *snapshot.Snapshot, skipSet SkipSet) error {
	e := x.engine
	skipper, err := e.SnapshotsDataFileSkipper(ctx, x.neighbors)
	if err != nil {
		return err
	}
	if err := e.expireTagDataFiles(ctx, snap, skipper); err != nil {
		return err
	}
	return e.ExpireMetadata(ctx, snap, skipSet, true, false)
}

// expireTagDataFiles deletes the net added files of the whole tagged
// snapshot, minus the skipper's survivors. As with ExpireDataFiles, a
// manifest read failure cancels the deletion rather than acting on a
// partial candidate set.
func (e *Engine) expireTagDataFiles(ctx context.Context, snap *snapshot.Snapshot, skipper Skipper) error {
	refs, err := e.dataManifestRefs(ctx, snap)
	if err != nil {
		e.log.Warnf("failed to read tag manifests, cancel deletion", map[string]any{
			"snapshot": snap.ID,
			"error":    err.Error(),
		})
		return nil
	}
	merged, err := e.readMergedEntries(ctx, refs)
	if err != nil {
		e.log.Warnf("failed to read tag manifests, cancel deletion", map[string]any{
			"snapshot": snap.ID,
			"error":    err.Error(),
		})
		return nil
	}

	candidates := make(map[string]deleteCandidate)
	for _, entry := range merged {
		if entry.Kind != manifest.KindAdd {
			continue
		}
		path, candidate := e.newDeleteCandidate(entry)
		candidates[path] = candidate
	}
	return e.deleteUnskippedCandidates(ctx, candidates, skipper)
}
