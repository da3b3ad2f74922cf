package depgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
	"github.com/koral-build/koral/internal/metadata"
)

// Edge is one discovered dependency edge with the traversal bookkeeping the
// mediator needs.
type Edge struct {
	// From is the declaring coordinate; zero for root declarations.
	From maven.Coordinate
	// FromVersion is the metadata identity the edge was read from (the
	// version the parent descriptor was fetched at).
	FromVersion string
	To          maven.Coordinate
	// Spec is the declared version requirement for To.
	Spec maven.VersionSpec
	// Scope is the effective scope after propagation.
	Scope    maven.Scope
	Optional bool
	// Depth of the edge's target: root declarations are depth 1.
	Depth int
	// Order is the discovery sequence number; traversal is depth-first in
	// declaration order, so Order is deterministic and independent of fetch
	// scheduling.
	Order int
	// Path holds the coordinates from the root declaration to To, inclusive.
	Path []maven.Coordinate
}

// PathString renders the edge's path for diagnostics.
func (e Edge) PathString() string {
	parts := make([]string, len(e.Path))
	for i, c := range e.Path {
		parts[i] = c.Key()
	}
	return strings.Join(parts, " -> ")
}

// Expansion is the builder's output: every reachable edge plus the skipped
// optional declarations.
type Expansion struct {
	Edges []Edge
	// RootKeys is the set of coordinate keys declared directly at the root.
	RootKeys map[string]bool
	// Skipped records optional root declarations whose metadata could not be
	// fetched; they downgrade to warnings per the propagation policy.
	Skipped []SkippedDependency
}

// SkippedDependency is an optional declaration left out of the graph.
type SkippedDependency struct {
	Coordinate maven.Coordinate
	Version    string
	Reason     string
}

// Build expands the variant's declared dependencies (post catalog
// resolution) into the full transitive edge set, or fails with a cycle or
// fetch error.
func Build(ctx context.Context, deps *manifest.DependencySet, provider metadata.Provider) (*Expansion, error) {
	b := &builder{
		provider: provider,
		exp: &Expansion{
			RootKeys: make(map[string]bool),
		},
		seen: make(map[string]int),
	}
	for _, d := range deps.Declarations() {
		b.exp.RootKeys[d.Coordinate.Key()] = true
	}

	logger := ctxlog.FromContext(ctx)
	for _, d := range deps.Declarations() {
		spec, err := maven.ParseSpec(d.Version)
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", d.Coordinate.Key(), err)
		}
		edge := Edge{
			To:       d.Coordinate,
			Spec:     spec,
			Scope:    d.Scope,
			Optional: d.Optional,
			Depth:    1,
			Path:     []maven.Coordinate{d.Coordinate},
		}
		if err := b.traverse(ctx, edge, exclusionSet(d.Exclusions), nil); err != nil {
			if d.Optional {
				logger.Warn("skipping optional dependency",
					"coordinate", d.Coordinate.Key(), "version", d.Version, "error", err)
				b.exp.Skipped = append(b.exp.Skipped, SkippedDependency{
					Coordinate: d.Coordinate, Version: d.Version, Reason: err.Error(),
				})
				continue
			}
			return nil, err
		}
	}
	logger.Debug("graph expansion complete", "edges", len(b.exp.Edges))
	return b.exp, nil
}

type builder struct {
	provider metadata.Provider
	exp      *Expansion
	order    int
	// seen maps (coordinate@version|exclusions) to the smallest depth it was
	// expanded at; deeper re-visits record their edge but are not re-expanded.
	seen map[string]int
}

// traverse records the edge and, when the edge is traversable, expands the
// target's own dependencies. onPath is the active path for cycle detection.
func (b *builder) traverse(ctx context.Context, edge Edge, exclusions map[string]bool, onPath []maven.Coordinate) error {
	b.order++
	edge.Order = b.order
	b.exp.Edges = append(b.exp.Edges, edge)

	// Transitive optional edges are recorded but never walked; they only
	// enter the graph when re-declared at the root, where they are walked
	// as roots.
	if edge.Optional && edge.Depth > 1 {
		return nil
	}
	// provided and test edges below the root never propagate.
	if edge.Depth > 1 && !edge.Scope.Traversable() {
		return nil
	}

	// The cycle check runs before any version-shape early return so an edge
	// back onto the active path is fatal regardless of how it is declared.
	for _, c := range onPath {
		if c.Key() == edge.To.Key() {
			return &CycleError{Path: cyclePath(onPath, edge.To)}
		}
	}

	fetchVersion, ok := traversalVersion(edge.Spec)
	if !ok {
		ctxlog.FromContext(ctx).Warn("version range has no traversable bound; deferring to mediation",
			"coordinate", edge.To.Key(), "spec", edge.Spec.Raw)
		return nil
	}

	seenKey := edge.To.Key() + "@" + fetchVersion + "|" + fingerprintExclusions(exclusions)
	if prev, ok := b.seen[seenKey]; ok && prev <= edge.Depth {
		return nil
	}
	b.seen[seenKey] = edge.Depth

	desc, err := b.provider.Fetch(ctx, edge.To, fetchVersion)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", edge.PathString(), err)
	}

	path := append(append([]maven.Coordinate{}, onPath...), edge.To)

	for _, dep := range desc.Dependencies {
		// Dependencies of a node declared provided/test stay local to the
		// package that declared them.
		if dep.Scope == maven.ScopeProvided || dep.Scope == maven.ScopeTest {
			continue
		}
		key := dep.Coordinate.Key()
		if exclusions[key] || exclusions[dep.Coordinate.Group] {
			continue
		}

		version := desc.EffectiveVersion(dep)
		if version == "" {
			ctxlog.FromContext(ctx).Warn("dependency without version; skipping",
				"from", edge.To.Key(), "to", key)
			continue
		}
		spec, err := maven.ParseSpec(version)
		if err != nil {
			return fmt.Errorf("resolving %s -> %s: %w", edge.PathString(), key, err)
		}

		childExclusions := exclusions
		if len(dep.Exclusions) > 0 {
			childExclusions = make(map[string]bool, len(exclusions)+len(dep.Exclusions))
			for k := range exclusions {
				childExclusions[k] = true
			}
			for k := range exclusionSet(dep.Exclusions) {
				childExclusions[k] = true
			}
		}

		child := Edge{
			From:        edge.To,
			FromVersion: fetchVersion,
			To:          dep.Coordinate,
			Spec:        spec,
			Scope:       maven.Propagate(edge.Scope, dep.Scope),
			Optional:    dep.Optional,
			Depth:       edge.Depth + 1,
			Path:        append(append([]maven.Coordinate{}, path...), dep.Coordinate),
		}
		if err := b.traverse(ctx, child, childExclusions, path); err != nil {
			return err
		}
	}
	return nil
}

// traversalVersion picks the metadata identity to expand a spec at. Exact
// versions (and point ranges) expand at themselves; bounded ranges expand
// provisionally at their inclusive upper bound, re-checked by mediation.
func traversalVersion(spec maven.VersionSpec) (string, bool) {
	if spec.Exact != nil {
		return spec.Exact.Original, true
	}
	r := spec.Range
	if r.IsPoint() {
		return r.Lower.Version.Original, true
	}
	if r.Upper != nil && r.Upper.Inclusive {
		return r.Upper.Version.Original, true
	}
	return "", false
}

func cyclePath(onPath []maven.Coordinate, repeat maven.Coordinate) []maven.Coordinate {
	start := 0
	for i, c := range onPath {
		if c.Key() == repeat.Key() {
			start = i
			break
		}
	}
	out := append([]maven.Coordinate{}, onPath[start:]...)
	return append(out, repeat)
}

func exclusionSet(excl []maven.Coordinate) map[string]bool {
	if len(excl) == 0 {
		return nil
	}
	out := make(map[string]bool, len(excl))
	for _, e := range excl {
		if e.Artifact == "" || e.Artifact == "*" {
			out[e.Group] = true
			continue
		}
		out[e.Key()] = true
	}
	return out
}

func fingerprintExclusions(exclusions map[string]bool) string {
	if len(exclusions) == 0 {
		return ""
	}
	keys := make([]string, 0, len(exclusions))
	for k := range exclusions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
