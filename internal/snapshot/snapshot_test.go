package snapshot

import (
	"context"
	"strings"
	"testing"

	"github.com/silt-io/silt/internal/fileio"
)

func TestFromJSON_VersionAbsentMeansOne(t *testing.T) {
	data := []byte(`{
		"id": 7,
		"schemaId": 0,
		"baseManifestList": "manifest-list-base",
		"deltaManifestList": "manifest-list-delta",
		"commitUser": "writer-1",
		"commitIdentifier": 42,
		"commitKind": "APPEND",
		"timeMillis": 1700000000000
	}`)

	s, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if s.FormatVersion() != 1 {
		t.Errorf("format version = %d, want 1 when the field is absent", s.FormatVersion())
	}
	if s.ID != 7 || s.BaseManifestList != "manifest-list-base" || s.CommitKind != CommitKindAppend {
		t.Errorf("decoded snapshot mangled: %+v", s)
	}
	if s.ChangelogManifestList != nil || s.IndexManifest != nil || s.Statistics != nil {
		t.Error("absent optional fields must decode as nil")
	}
}

func TestFromJSON_IgnoresUnknownFields(t *testing.T) {
	data := []byte(`{"id": 1, "baseManifestList": "a", "deltaManifestList": "b",
		"commitKind": "COMPACT", "futureField": {"nested": true}}`)
	s, err := FromJSON(data)
	if err != nil {
		t.Fatalf("a snapshot from a newer writer must still decode: %v", err)
	}
	if s.ID != 1 {
		t.Errorf("id = %d, want 1", s.ID)
	}
}

func TestToJSON_OmitsAbsentOptionalFields(t *testing.T) {
	s := &Snapshot{ID: 3, BaseManifestList: "a", DeltaManifestList: "b", CommitKind: CommitKindAppend}
	data, err := s.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	for _, field := range []string{"version", "changelogManifestList", "indexManifest", "statistics", "nextRowId"} {
		if strings.Contains(string(data), field) {
			t.Errorf("absent field %q must be omitted, got: %s", field, data)
		}
	}
}

func TestJSONRoundTrip_PreservesOptionalFields(t *testing.T) {
	version := CurrentVersion
	watermark := int64(1699999999000)
	index := "index-manifest-1"
	s := &Snapshot{
		Version:           &version,
		ID:                9,
		BaseManifestList:  "a",
		DeltaManifestList: "b",
		IndexManifest:     &index,
		CommitKind:        CommitKindOverwrite,
		LogOffsets:        map[int32]int64{0: 100, 1: 250},
		Watermark:         &watermark,
		Properties:        map[string]string{"owner": "etl"},
	}

	data, err := s.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if got.FormatVersion() != CurrentVersion {
		t.Errorf("format version = %d, want %d", got.FormatVersion(), CurrentVersion)
	}
	if got.IndexManifest == nil || *got.IndexManifest != index {
		t.Errorf("index manifest = %v, want %s", got.IndexManifest, index)
	}
	if got.LogOffsets[1] != 250 || got.Properties["owner"] != "etl" {
		t.Errorf("round trip mangled maps: %+v", got)
	}
}

func TestReadWrite(t *testing.T) {
	fio := fileio.NewMemory()
	ctx := context.Background()
	path := "/warehouse/t/snapshot/snapshot-5"

	s := &Snapshot{ID: 5, BaseManifestList: "a", DeltaManifestList: "b", CommitKind: CommitKindAppend}
	if err := Write(ctx, fio, path, s); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(ctx, fio, path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.ID != 5 {
		t.Errorf("id = %d, want 5", got.ID)
	}

	if _, err := Read(ctx, fio, "/warehouse/t/snapshot/snapshot-6"); err == nil {
		t.Error("reading a missing snapshot should fail")
	}
}

func TestFindPrevious(t *testing.T) {
	sorted := []*Snapshot{{ID: 2}, {ID: 5}, {ID: 9}}

	cases := []struct {
		id   int64
		want int
	}{
		{1, -1},
		{2, -1},
		{3, 0},
		{5, 0},
		{6, 1},
		{9, 1},
		{100, 2},
	}
	for _, c := range cases {
		if got := FindPrevious(sorted, c.id); got != c.want {
			t.Errorf("FindPrevious(%d) = %d, want %d", c.id, got, c.want)
		}
	}
	if got := FindPrevious(nil, 5); got != -1 {
		t.Errorf("FindPrevious on empty = %d, want -1", got)
	}
}
