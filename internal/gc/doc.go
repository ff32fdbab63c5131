// Package gc implements snapshot-driven garbage collection for silt tables.
//
// Given immutable snapshots whose manifests enumerate ADD/DELETE file
// entries, the engine computes which physical files are unreachable from
// every retained snapshot and tag and removes them: data files, manifest
// files, manifest lists, index files, statistics files, and now-empty
// partition and bucket directories.
//
// The engine never requires the delete sweep to be transactional. Candidate
// computation is fail-safe (a metadata read failure aborts the sweep with
// nothing deleted), leaf deletion is quiet and idempotent (a missing file is
// not an error), and an interrupted sweep only leaves unreachable bytes for
// a later run to reclaim.
//
// One Engine instance serves one table and must be driven sequentially: the
// deletion-bucket accumulator and the tag live-file cache are single-writer
// state. Parallel expiration of independent tables takes independent
// engines.
package gc
