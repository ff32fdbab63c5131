package gc

import (
	"context"
	"testing"

	"github.com/silt-io/silt/internal/partition"
)

func TestDeleteAddedFiles_DeletesOnlyAddedFiles(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	part := partition.Key("pt=2024")

	tt.writeDataFile(part, 0, "data-added")
	tt.writeDataFile(part, 0, "data-added.idx")
	tt.writeDataFile(part, 0, "data-removed")

	list := tt.writeList(tt.writeManifest(
		addEntry(part, 0, "data-added", "data-added.idx"),
		deleteEntry(part, 0, "data-removed"),
	))

	if err := tt.engine.DeleteAddedFiles(ctx, list); err != nil {
		t.Fatalf("DeleteAddedFiles failed: %v", err)
	}

	if tt.dataFileExists(part, 0, "data-added") {
		t.Error("added file should have been deleted")
	}
	if tt.dataFileExists(part, 0, "data-added.idx") {
		t.Error("auxiliary file should have been deleted with its data file")
	}
	if !tt.dataFileExists(part, 0, "data-removed") {
		t.Error("rollback must not touch files the abandoned commit did not add")
	}
}

func TestDeleteAddedFiles_SkipsUnreadableManifest(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	part := partition.Key("pt=2024")

	tt.writeDataFile(part, 0, "data-added")

	good := tt.writeManifest(addEntry(part, 0, "data-added"))
	bad := tt.writeCorruptManifest("manifest-damaged")
	list := tt.writeList(bad, good)

	// Unlike live-snapshot expiry, rollback is best effort: a damaged
	// manifest is skipped, the readable ones are still cleaned.
	if err := tt.engine.DeleteAddedFiles(ctx, list); err != nil {
		t.Fatalf("DeleteAddedFiles failed: %v", err)
	}
	if tt.dataFileExists(part, 0, "data-added") {
		t.Error("files from readable manifests should have been deleted")
	}
}

func TestDeleteAddedFiles_MissingListIsNoOp(t *testing.T) {
	tt := newTestTable(t)

	before := tt.fio.FileCount()
	if err := tt.engine.DeleteAddedFiles(context.Background(), "manifest-list-gone"); err != nil {
		t.Fatalf("DeleteAddedFiles failed: %v", err)
	}
	if got := tt.fio.FileCount(); got != before {
		t.Errorf("file count changed from %d to %d on a missing manifest list", before, got)
	}
}

func TestDeleteAddedFiles_RecordsBucketsForReclaim(t *testing.T) {
	tt := newTestTable(t)
	ctx := context.Background()
	part := partition.Key("pt=2024")

	tt.writeDataFile(part, 3, "data-added")
	list := tt.writeList(tt.writeManifest(addEntry(part, 3, "data-added")))

	if err := tt.engine.DeleteAddedFiles(ctx, list); err != nil {
		t.Fatalf("DeleteAddedFiles failed: %v", err)
	}
	if _, ok := tt.engine.deletionBuckets[part][3]; !ok {
		t.Error("rollback deletions should feed the directory reclaim accumulator")
	}
}
