package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/koral-build/koral/internal/depgraph"
	"github.com/koral-build/koral/internal/manifest"
)

// ErrOutOfDate reports that a lock entry no longer reflects the current
// declarations. Callers decide whether to fail or regenerate.
var ErrOutOfDate = errors.New("lockfile out of date")

// ManifestHash hashes a variant's post-catalog declarations. Any change to
// a declared coordinate, version, scope, optional flag, or exclusion set
// changes the hash.
func ManifestHash(deps *manifest.DependencySet) string {
	sum := sha256.Sum256([]byte(deps.Fingerprint()))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// CheckFresh verifies that the lock still covers a variant's current
// declarations, wrapping ErrOutOfDate when it does not.
func (lf *Lockfile) CheckFresh(variant string, deps *manifest.DependencySet) error {
	v, ok := lf.Variant(variant)
	if !ok {
		return fmt.Errorf("%w: variant %s is not locked", ErrOutOfDate, variant)
	}
	if v.ManifestHash != ManifestHash(deps) {
		return fmt.Errorf("%w: declarations for variant %s changed since the lock was written", ErrOutOfDate, variant)
	}
	return nil
}

// StaleKeys compares a lock entry against a freshly resolved graph and
// returns the coordinate keys that drifted: version changes, removals, and
// additions. Sorted for stable output.
func StaleKeys(v *VariantLock, graph *depgraph.ResolvedGraph) []string {
	stale := make(map[string]bool)
	locked := make(map[string]string, len(v.Packages))
	for _, p := range v.Packages {
		locked[p.Key()] = p.Version
	}
	for _, n := range graph.Nodes() {
		key := n.Coordinate.Key()
		if version, ok := locked[key]; !ok || version != n.Version {
			stale[key] = true
		}
		delete(locked, key)
	}
	for key := range locked {
		stale[key] = true
	}

	out := make([]string, 0, len(stale))
	for key := range stale {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
