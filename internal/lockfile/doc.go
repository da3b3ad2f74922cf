// Package lockfile serializes resolved graphs to the on-disk koral.lock
// format and checks lock freshness against current declarations.
//
// Output is deterministic: variants sort by name and packages by coordinate,
// independent of traversal order, so the file diffs cleanly under version
// control. Each variant carries a hash of its post-catalog declarations;
// a mismatch means the lock no longer reflects the manifest.
package lockfile
