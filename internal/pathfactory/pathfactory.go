// Package pathfactory maps table entities to their storage paths.
//
// The layout contract is:
//
//	<root>/<partition segments...>/bucket-<n>/<data files>
//	<root>/manifest/<manifest files and manifest lists>
//	<root>/index/<index files and index manifests>
//	<root>/statistics/<statistics files>
//	<root>/snapshot/snapshot-<id>
//
// File names are opaque to the GC engine; this package only owns where they
// live, plus the unique-name generators used on the write path.
package pathfactory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/silt-io/silt/internal/partition"
)

// Factory builds storage paths for one table.
type Factory struct {
	root string
}

// New creates a Factory for the table rooted at root.
func New(root string) *Factory {
	return &Factory{root: strings.TrimSuffix(root, "/")}
}

// Root returns the table root directory.
func (f *Factory) Root() string {
	return f.root
}

// PartitionPath returns the directory of a partition.
func (f *Factory) PartitionPath(part partition.Key) string {
	if part == partition.Empty {
		return f.root
	}
	return f.root + "/" + string(part)
}

// BucketPath returns the directory of a bucket within a partition.
func (f *Factory) BucketPath(part partition.Key, bucket int32) string {
	return fmt.Sprintf("%s/bucket-%d", f.PartitionPath(part), bucket)
}

// DataFilePath returns the path of a data file within a bucket.
func (f *Factory) DataFilePath(part partition.Key, bucket int32, fileName string) string {
	return f.BucketPath(part, bucket) + "/" + fileName
}

// AlignedPath returns the path of an auxiliary file co-located with a data
// file (same bucket directory).
func (f *Factory) AlignedPath(part partition.Key, bucket int32, extraFile string) string {
	return f.BucketPath(part, bucket) + "/" + extraFile
}

// HierarchicalPartitionPaths returns the directory paths of every partition
// level, finest first: for "pt=2024/hh=10" the result is
// ["<root>/pt=2024/hh=10", "<root>/pt=2024"]. An unpartitioned table yields
// nil. Callers removing empty directories depend on this ordering: the
// finest directory must be attempted before any coarser ancestor.
func (f *Factory) HierarchicalPartitionPaths(part partition.Key) []string {
	segments := part.Segments()
	if len(segments) == 0 {
		return nil
	}
	paths := make([]string, 0, len(segments))
	current := f.root
	for _, segment := range segments {
		current = current + "/" + segment
		paths = append(paths, current)
	}
	// Reverse: finest first.
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
	return paths
}

// ManifestPath returns the path of a manifest file or manifest list.
func (f *Factory) ManifestPath(name string) string {
	return f.root + "/manifest/" + name
}

// IndexPath returns the path of an index file or index manifest.
func (f *Factory) IndexPath(name string) string {
	return f.root + "/index/" + name
}

// StatsPath returns the path of a statistics file.
func (f *Factory) StatsPath(name string) string {
	return f.root + "/statistics/" + name
}

// SnapshotPath returns the path of a snapshot file.
func (f *Factory) SnapshotPath(id int64) string {
	return fmt.Sprintf("%s/snapshot/snapshot-%d", f.root, id)
}

// NewDataFileName generates a unique data file name.
func (f *Factory) NewDataFileName() string {
	return "data-" + uuid.NewString()
}

// NewManifestFileName generates a unique manifest file name.
func (f *Factory) NewManifestFileName() string {
	return "manifest-" + uuid.NewString()
}

// NewManifestListName generates a unique manifest list name.
func (f *Factory) NewManifestListName() string {
	return "manifest-list-" + uuid.NewString()
}

// NewIndexManifestName generates a unique index manifest name.
func (f *Factory) NewIndexManifestName() string {
	return "index-manifest-" + uuid.NewString()
}

// NewStatsFileName generates a unique statistics file name.
func (f *Factory) NewStatsFileName() string {
	return "stats-" + uuid.NewString()
}
