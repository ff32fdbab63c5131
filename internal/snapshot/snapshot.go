// Package snapshot defines the immutable snapshot record and tag lookup
// helpers.
//
// A snapshot is a versioned pointer to a table's full metadata state at one
// commit: the base and delta manifest lists, an optional changelog manifest
// list, an optional index manifest and an optional statistics file. A tag is
// a named, long-retained reference to a specific snapshot. Snapshots are
// produced by an external commit process; the GC engine only reads them.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/silt-io/silt/internal/fileio"
)

// CurrentVersion is the snapshot format version written by this release.
// Version 1 snapshots omit the version field entirely; versions 2 and 3
// added optional fields that older readers ignore.
const CurrentVersion = 3

// CommitKind describes what kind of commit produced a snapshot.
type CommitKind string

// Commit kinds.
const (
	CommitKindAppend    CommitKind = "APPEND"
	CommitKindCompact   CommitKind = "COMPACT"
	CommitKindOverwrite CommitKind = "OVERWRITE"
	CommitKindAnalyze   CommitKind = "ANALYZE"
)

// Snapshot is the persisted snapshot record.
//
// The JSON field set is compatibility-sensitive: field names must not change,
// optional fields are pointers so absence round-trips, and unknown fields are
// ignored on read for forward compatibility.
type Snapshot struct {
	// Version is the snapshot format version; absent means version 1.
	Version *int `json:"version,omitempty"`

	// ID is the snapshot id, unique and increasing per table.
	ID int64 `json:"id"`

	// SchemaID is the id of the table schema in effect at commit time.
	SchemaID int64 `json:"schemaId"`

	// BaseManifestList names the manifest list recording all changes from
	// previous snapshots.
	BaseManifestList string `json:"baseManifestList"`

	BaseManifestListSize *int64 `json:"baseManifestListSize,omitempty"`

	// DeltaManifestList names the manifest list recording this snapshot's
	// own changes.
	DeltaManifestList string `json:"deltaManifestList"`

	DeltaManifestListSize *int64 `json:"deltaManifestListSize,omitempty"`

	// ChangelogManifestList names the manifest list recording this
	// snapshot's changelog, if the table produces one.
	ChangelogManifestList *string `json:"changelogManifestList,omitempty"`

	ChangelogManifestListSize *int64 `json:"changelogManifestListSize,omitempty"`

	// IndexManifest names the manifest recording the table's index files,
	// if any.
	IndexManifest *string `json:"indexManifest,omitempty"`

	CommitUser       string     `json:"commitUser"`
	CommitIdentifier int64      `json:"commitIdentifier"`
	CommitKind       CommitKind `json:"commitKind"`
	TimeMillis       int64      `json:"timeMillis"`

	LogOffsets           map[int32]int64 `json:"logOffsets,omitempty"`
	TotalRecordCount     *int64          `json:"totalRecordCount,omitempty"`
	DeltaRecordCount     *int64          `json:"deltaRecordCount,omitempty"`
	ChangelogRecordCount *int64          `json:"changelogRecordCount,omitempty"`
	Watermark            *int64          `json:"watermark,omitempty"`

	// Statistics names the statistics file of this snapshot, if any.
	Statistics *string `json:"statistics,omitempty"`

	Properties map[string]string `json:"properties,omitempty"`
	NextRowID  *int64            `json:"nextRowId,omitempty"`
}

// FormatVersion returns the snapshot format version, defaulting to 1 when
// the field is absent.
func (s *Snapshot) FormatVersion() int {
	if s.Version == nil {
		return 1
	}
	return *s.Version
}

// FromJSON decodes a snapshot from its JSON representation. Unknown fields
// are ignored.
func FromJSON(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// ToJSON encodes the snapshot as JSON.
func (s *Snapshot) ToJSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %d: %w", s.ID, err)
	}
	return data, nil
}

// Read loads and decodes the snapshot stored at path.
func Read(ctx context.Context, fio fileio.FileIO, path string) (*Snapshot, error) {
	data, err := fileio.ReadFile(ctx, fio, path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return FromJSON(data)
}

// Write encodes and stores the snapshot at path.
func Write(ctx context.Context, fio fileio.FileIO, path string, s *Snapshot) error {
	data, err := s.ToJSON()
	if err != nil {
		return err
	}
	return fio.WriteFile(ctx, path, data)
}

// FindPrevious returns the index of the latest snapshot in sorted whose id is
// strictly less than id, or -1 if there is none. sorted must be ordered by
// ascending snapshot id.
func FindPrevious(sorted []*Snapshot, id int64) int {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i].ID >= id })
	return i - 1
}
