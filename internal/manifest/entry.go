// Package manifest implements the manifest data model and storage: file
// entries, manifest files, manifest lists and index manifests.
//
// A manifest file enumerates ADD/DELETE entries for data files; a manifest
// list enumerates the manifest files of one snapshot. Both are stored as
// framed, compressed JSON (see codec.go). Entry merging follows commit
// order: for any file identifier, the last entry seen wins, so an ADD
// cancels an earlier DELETE candidacy and vice versa.
package manifest

import (
	"fmt"

	"github.com/silt-io/silt/internal/partition"
)

// FileKind is whether a manifest entry adds or removes a file from the live
// set.
type FileKind int8

// File kinds.
const (
	KindAdd    FileKind = 0
	KindDelete FileKind = 1
)

func (k FileKind) String() string {
	switch k {
	case KindAdd:
		return "ADD"
	case KindDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("FileKind(%d)", int8(k))
	}
}

// Identifier is the unique key of a physical data file for the lifetime of
// the table. File names are never reused.
type Identifier struct {
	Partition partition.Key
	Bucket    int32
	FileName  string
}

func (id Identifier) String() string {
	return fmt.Sprintf("%s/bucket-%d/%s", id.Partition, id.Bucket, id.FileName)
}

// FileEntry is one ADD or DELETE record in a manifest file.
type FileEntry struct {
	// Kind records whether the entry adds or removes the file.
	Kind FileKind `json:"kind"`

	// Partition and Bucket locate the file's directory.
	Partition partition.Key `json:"partition"`
	Bucket    int32         `json:"bucket"`

	// FileName is the data file name, opaque to the GC engine.
	FileName string `json:"fileName"`

	// FileSize is the data file size in bytes.
	FileSize int64 `json:"fileSize,omitempty"`

	// Level is the LSM level of the file within its bucket.
	Level int `json:"level,omitempty"`

	// ExtraFiles are auxiliary files co-located with the data file that
	// share its lifecycle (e.g. secondary index files).
	ExtraFiles []string `json:"extraFiles,omitempty"`
}

// Identifier returns the entry's file identifier.
func (e FileEntry) Identifier() Identifier {
	return Identifier{Partition: e.Partition, Bucket: e.Bucket, FileName: e.FileName}
}

// Merge folds entries into the accumulator in order: for each entry the last
// write wins, realizing the commit-order merge rule without explicit cancel
// logic. The caller filters by kind afterwards when it needs only the live
// (net ADD) set.
func Merge(entries []FileEntry, into map[Identifier]FileEntry) {
	for _, entry := range entries {
		into[entry.Identifier()] = entry
	}
}
