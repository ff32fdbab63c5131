// Package partition defines the canonical partition key used to address
// table directories.
//
// A partition key is the slash-joined list of "column=value" segments in
// partition-column order, e.g. "pt=20240101/hh=10". The empty key denotes an
// unpartitioned table. Keys are plain strings so they can serve directly as
// map keys and compare lexicographically.
package partition

import "strings"

// Key is a canonical partition key.
type Key string

// Empty is the key of an unpartitioned table.
const Empty Key = ""

// Segments returns the individual "column=value" segments of the key,
// coarsest first. An empty key has no segments.
func (k Key) Segments() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), "/")
}

// Depth returns the number of partition levels of the key.
func (k Key) Depth() int {
	return len(k.Segments())
}

// Join builds a key from "column=value" segments, coarsest first.
func Join(segments ...string) Key {
	return Key(strings.Join(segments, "/"))
}
