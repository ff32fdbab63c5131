package gc

import (
	"context"
	"testing"

	"github.com/silt-io/silt/internal/partition"
)

func (tt *testTable) dirExists(path string) bool {
	tt.t.Helper()
	ok, err := tt.fio.Exists(context.Background(), path)
	if err != nil {
		tt.t.Fatalf("exists: %v", err)
	}
	return ok
}

func TestReclaimDirectories_RemovesEmptiedHierarchy(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	part := partition.Key("pt=2024/hh=10")

	tt.writeDataFile(part, 0, "data-only")
	list := tt.writeList(tt.writeManifest(deleteEntry(part, 0, "data-only")))
	if err := tt.engine.ExpireDataFiles(ctx, list, SkipNothing); err != nil {
		t.Fatalf("ExpireDataFiles failed: %v", err)
	}

	tt.engine.ReclaimDirectories(ctx)

	for _, path := range []string{
		tt.paths.BucketPath(part, 0),
		tt.paths.Root() + "/pt=2024/hh=10",
		tt.paths.Root() + "/pt=2024",
	} {
		if tt.dirExists(path) {
			t.Errorf("directory %s should have been reclaimed", path)
		}
	}
}

func TestReclaimDirectories_KeepsPopulatedDirectories(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	part := partition.Key("pt=2024/hh=10")

	tt.writeDataFile(part, 0, "data-gone")
	tt.writeDataFile(part, 1, "data-live")
	list := tt.writeList(tt.writeManifest(deleteEntry(part, 0, "data-gone")))
	if err := tt.engine.ExpireDataFiles(ctx, list, SkipNothing); err != nil {
		t.Fatalf("ExpireDataFiles failed: %v", err)
	}

	tt.engine.ReclaimDirectories(ctx)

	if tt.dirExists(tt.paths.BucketPath(part, 0)) {
		t.Error("emptied bucket directory should have been reclaimed")
	}
	if !tt.dirExists(tt.paths.BucketPath(part, 1)) {
		t.Error("bucket directory with a live file must survive")
	}
	if !tt.dirExists(tt.paths.Root() + "/pt=2024/hh=10") {
		t.Error("partition directory with a live bucket must survive")
	}
}

func TestReclaimDirectories_SharedAncestorSurvivesLiveSibling(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	emptied := partition.Key("pt=2024/hh=10")
	populated := partition.Key("pt=2024/hh=11")

	tt.writeDataFile(emptied, 0, "data-gone")
	tt.writeDataFile(populated, 0, "data-live")
	list := tt.writeList(tt.writeManifest(deleteEntry(emptied, 0, "data-gone")))
	if err := tt.engine.ExpireDataFiles(ctx, list, SkipNothing); err != nil {
		t.Fatalf("ExpireDataFiles failed: %v", err)
	}

	tt.engine.ReclaimDirectories(ctx)

	if tt.dirExists(tt.paths.Root() + "/pt=2024/hh=10") {
		t.Error("emptied partition directory should have been reclaimed")
	}
	if !tt.dirExists(tt.paths.Root() + "/pt=2024/hh=11") {
		t.Error("sibling partition with live data must survive")
	}
	if !tt.dirExists(tt.paths.Root() + "/pt=2024") {
		t.Error("shared ancestor must survive while a child partition lives")
	}
}

func TestReclaimDirectories_DisabledIsNoOp(t *testing.T) {
	tt := newTestTable(t)
	tt.engine.cleanEmptyDirs = false
	ctx := context.Background()
	part := partition.Key("pt=2024")

	tt.writeDataFile(part, 0, "data-gone")
	list := tt.writeList(tt.writeManifest(deleteEntry(part, 0, "data-gone")))
	if err := tt.engine.ExpireDataFiles(ctx, list, SkipNothing); err != nil {
		t.Fatalf("ExpireDataFiles failed: %v", err)
	}

	tt.engine.ReclaimDirectories(ctx)

	if !tt.dirExists(tt.paths.BucketPath(part, 0)) {
		t.Error("directories must be left alone when cleaning is disabled")
	}
	if len(tt.engine.deletionBuckets) != 0 {
		t.Error("the accumulator must be cleared even when cleaning is disabled")
	}
}

func TestReclaimDirectories_ClearsAccumulator(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	part := partition.Key("pt=2024")

	tt.writeDataFile(part, 0, "data-gone")
	list := tt.writeList(tt.writeManifest(deleteEntry(part, 0, "data-gone")))
	if err := tt.engine.ExpireDataFiles(ctx, list, SkipNothing); err != nil {
		t.Fatalf("ExpireDataFiles failed: %v", err)
	}
	if len(tt.engine.deletionBuckets) == 0 {
		t.Fatal("expiration should have recorded a touched bucket")
	}

	tt.engine.ReclaimDirectories(ctx)
	if len(tt.engine.deletionBuckets) != 0 {
		t.Error("accumulator should be empty after a sweep")
	}
}

func TestReclaimDirectories_UnpartitionedTable(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()

	tt.writeDataFile(partition.Empty, 0, "data-gone")
	list := tt.writeList(tt.writeManifest(deleteEntry(partition.Empty, 0, "data-gone")))
	if err := tt.engine.ExpireDataFiles(ctx, list, SkipNothing); err != nil {
		t.Fatalf("ExpireDataFiles failed: %v", err)
	}

	// Only the bucket directory is removable; there is no partition
	// hierarchy and the table root must never be touched.
	tt.engine.ReclaimDirectories(ctx)

	if tt.dirExists(tt.paths.BucketPath(partition.Empty, 0)) {
		t.Error("bucket directory should have been reclaimed")
	}
}
