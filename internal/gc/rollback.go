package gc

import (
	"context"

	"github.com/silt-io/silt/internal/manifest"
)

// DeleteAddedFiles deletes every data file a manifest list's entries added.
// Rollback uses it to discard the files introduced by the snapshots being
// rolled over; unlike ExpireDataFiles there is no merge with DELETE entries
// because an added file of an abandoned snapshot is unreferenced by
// definition.
//
// The whole routine is best effort: the manifest list or its manifests may
// already be gone from an earlier interrupted rollback, so read failures
// skip the unreadable part instead of aborting.
func (e *Engine) DeleteAddedFiles(ctx context.Context, manifestList string) error {
	candidates := make(map[string]deleteCandidate)
	for _, ref := range e.tryReadManifestList(ctx, manifestList) {
		entries, err := e.manifests.ReadEntries(ctx, ref.FileName, ref.FileSize)
		if err != nil {
			e.log.Warnf("failed to read manifest, skipping its added files", map[string]any{
				"manifest": ref.FileName,
				"error":    err.Error(),
			})
			continue
		}
		for _, entry := range entries {
			if entry.Kind != manifest.KindAdd {
				continue
			}
			path, candidate := e.newDeleteCandidate(entry)
			candidates[path] = candidate
		}
	}
	return e.deleteUnskippedCandidates(ctx, candidates, SkipNothing)
}
