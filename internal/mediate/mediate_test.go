package mediate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koral-build/koral/internal/depgraph"
	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
	"github.com/koral-build/koral/internal/metadata"
)

func coord(group, artifact string) maven.Coordinate {
	return maven.Coordinate{Group: group, Artifact: artifact}
}

func decl(group, artifact, version string) manifest.Declaration {
	return manifest.Declaration{
		Coordinate: coord(group, artifact),
		Version:    version,
		Scope:      maven.ScopeCompile,
	}
}

func desc(group, artifact, version string, deps ...metadata.DeclaredDependency) *metadata.PackageDescriptor {
	return &metadata.PackageDescriptor{
		Coordinate:   coord(group, artifact),
		Version:      version,
		Dependencies: deps,
	}
}

func dep(group, artifact, version string) metadata.DeclaredDependency {
	return metadata.DeclaredDependency{
		Coordinate: coord(group, artifact),
		Version:    version,
		Scope:      maven.ScopeCompile,
	}
}

func mediated(t *testing.T, provider metadata.Provider, decls ...manifest.Declaration) (*depgraph.ResolvedGraph, *ConflictReport) {
	t.Helper()
	exp, err := depgraph.Build(context.Background(), manifest.NewDependencySet(decls...), provider)
	require.NoError(t, err)
	graph, report, err := Mediate(context.Background(), exp, provider, "default")
	require.NoError(t, err)
	return graph, report
}

func nodeFor(t *testing.T, g *depgraph.ResolvedGraph, key string) depgraph.Node {
	t.Helper()
	i, ok := g.Find(key)
	require.True(t, ok, "graph has no node for %s", key)
	return g.Node(i)
}

func TestMediateDepthTieBrokenByDeclarationOrder(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "1.0"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "2.0"))).
		Add(desc("g", "c", "1.0")).
		Add(desc("g", "c", "2.0"))

	graph, report := mediated(t, provider, decl("g", "a", "1.0"), decl("g", "b", "1.0"))

	assert.Equal(t, "1.0", nodeFor(t, graph, "g:c").Version,
		"earlier root declaration wins the depth tie")
	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, "g:c", c.Coordinate.Key())
	assert.Equal(t, "1.0", c.Resolved)
	assert.Equal(t, "declaration order", c.Reason)
	require.Len(t, c.Requested, 2)
	assert.Equal(t, "g:a -> g:c", c.Requested[0].Path)
	assert.Equal(t, "g:b -> g:c", c.Requested[1].Path)
}

func TestMediateDirectBeatsTransitive(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "c", "1.5")).
		Add(desc("g", "a", "1.0", dep("g", "c", "2.0"))).
		Add(desc("g", "c", "2.0"))

	graph, report := mediated(t, provider, decl("g", "c", "1.5"), decl("g", "a", "1.0"))

	assert.Equal(t, "1.5", nodeFor(t, graph, "g:c").Version)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "nearest wins", report.Conflicts[0].Reason)
}

func TestMediateRangeIntersection(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "[1.0,2.0]"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "[1.5,3.0]"))).
		Add(desc("g", "c", "2.0")).
		Add(desc("g", "c", "3.0"))

	graph, report := mediated(t, provider, decl("g", "a", "1.0"), decl("g", "b", "1.0"))

	// [1.0,2.0] ∩ [1.5,3.0] = [1.5,2.0]; no candidate names an exact
	// version, so the inclusive upper bound is pinned.
	assert.Equal(t, "2.0", nodeFor(t, graph, "g:c").Version)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "range intersection", report.Conflicts[0].Reason)
}

func TestMediateRangeAgainstExact(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "[1.0,2.0]"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "1.5"))).
		Add(desc("g", "c", "2.0")).
		Add(desc("g", "c", "1.5"))

	graph, _ := mediated(t, provider, decl("g", "a", "1.0"), decl("g", "b", "1.0"))

	// The exact candidate behaves as the point range [1.5,1.5]; it lies
	// inside the winning range and is preferred over the bound.
	assert.Equal(t, "1.5", nodeFor(t, graph, "g:c").Version)
}

func TestMediateExactWinnerIntersectsSameDepthRange(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "1.5"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "[1.0,2.0]"))).
		Add(desc("g", "c", "1.5")).
		Add(desc("g", "c", "2.0"))

	// The exact candidate wins on declaration order and lies inside the
	// competing range, so the intersection admits it.
	graph, _ := mediated(t, provider, decl("g", "a", "1.0"), decl("g", "b", "1.0"))
	assert.Equal(t, "1.5", nodeFor(t, graph, "g:c").Version)
}

func TestMediateExactWinnerDisjointFromRangeFails(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "1.5"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "[2.0,3.0]"))).
		Add(desc("g", "c", "1.5")).
		Add(desc("g", "c", "3.0"))

	deps := manifest.NewDependencySet(decl("g", "a", "1.0"), decl("g", "b", "1.0"))
	exp, err := depgraph.Build(context.Background(), deps, provider)
	require.NoError(t, err)

	// The exact winner competes as the point range [1.5,1.5]; a disjoint
	// range at the same depth leaves no version to pick.
	_, _, err = Mediate(context.Background(), exp, provider, "default")
	require.Error(t, err)
	var unresolvable *UnresolvableError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "g:c", unresolvable.Coordinate.Key())
	require.Len(t, unresolvable.Candidates, 2)
	assert.Contains(t, err.Error(), "g:a -> g:c")
	assert.Contains(t, err.Error(), "g:b -> g:c")
}

func TestMediateRejectedVersionSubtreePruned(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "c", "1.0")).
		Add(desc("g", "a", "1.0", dep("g", "c", "2.0"))).
		Add(desc("g", "c", "2.0", dep("g", "d", "1.0"))).
		Add(desc("g", "d", "1.0", dep("g", "e", "1.0"))).
		Add(desc("g", "e", "1.0"))

	graph, _ := mediated(t, provider, decl("g", "c", "1.0"), decl("g", "a", "1.0"))

	// Only the rejected c@2.0 needs d (and through it e); neither may
	// survive, and c@1.0 must not inherit the loser's edges.
	assert.Equal(t, "1.0", nodeFor(t, graph, "g:c").Version)
	_, ok := graph.Find("g:d")
	assert.False(t, ok)
	_, ok = graph.Find("g:e")
	assert.False(t, ok)

	i, _ := graph.Find("g:c")
	assert.Empty(t, graph.DirectDependencies(i))
	require.NoError(t, graph.Validate())
}

func TestMediateEmptyIntersectionFails(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "[1.0,1.5]"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "[2.0,3.0]"))).
		Add(desc("g", "c", "1.5")).
		Add(desc("g", "c", "3.0"))

	deps := manifest.NewDependencySet(decl("g", "a", "1.0"), decl("g", "b", "1.0"))
	exp, err := depgraph.Build(context.Background(), deps, provider)
	require.NoError(t, err)

	_, _, err = Mediate(context.Background(), exp, provider, "default")
	require.Error(t, err)
	var unresolvable *UnresolvableError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "g:c", unresolvable.Coordinate.Key())
	require.Len(t, unresolvable.Candidates, 2)
	assert.Contains(t, err.Error(), "g:a -> g:c")
	assert.Contains(t, err.Error(), "g:b -> g:c")
}

func TestMediateDeeperRangeNotIntersected(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "[1.0,1.5]"))).
		Add(desc("g", "b", "1.0", dep("g", "mid", "1.0"))).
		Add(desc("g", "mid", "1.0", dep("g", "c", "[2.0,3.0]"))).
		Add(desc("g", "c", "1.5")).
		Add(desc("g", "c", "3.0"))

	// The disjoint requirement sits one level deeper, so nearest-wins
	// settles it without intersection.
	graph, _ := mediated(t, provider, decl("g", "a", "1.0"), decl("g", "b", "1.0"))
	assert.Equal(t, "1.5", nodeFor(t, graph, "g:c").Version)
}

func TestMediateOptionalExcludedUnlessRootDeclared(t *testing.T) {
	optional := metadata.DeclaredDependency{
		Coordinate: coord("g", "opt"),
		Version:    "1.0",
		Scope:      maven.ScopeCompile,
		Optional:   true,
	}
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", optional)).
		Add(desc("g", "opt", "2.0"))

	graph, _ := mediated(t, provider, decl("g", "a", "1.0"))
	_, ok := graph.Find("g:opt")
	assert.False(t, ok, "transitive optional never enters the graph")

	graph, _ = mediated(t, provider, decl("g", "a", "1.0"), decl("g", "opt", "2.0"))
	assert.Equal(t, "2.0", nodeFor(t, graph, "g:opt").Version,
		"root re-declaration admits the optional coordinate")
}

func TestMediateSnapshotResolvesToTimestampedBuild(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "s", "2.0-SNAPSHOT")).
		AddSnapshot(coord("g", "s"), "2.0", "2.0-20260823.101530-7")

	graph, _ := mediated(t, provider, decl("g", "s", "2.0-SNAPSHOT"))

	node := nodeFor(t, graph, "g:s")
	assert.Equal(t, "2.0-20260823.101530-7", node.Version)
	assert.Equal(t, "2.0-SNAPSHOT", node.Declared, "declared label kept for re-resolution")
}

func TestMediateAssemblesEdgesAndSource(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "b", "1.0"))).
		Add(desc("g", "b", "1.0"))

	graph, report := mediated(t, provider, decl("g", "a", "1.0"))

	assert.True(t, report.Empty())
	assert.Equal(t, 2, graph.Len())
	assert.Equal(t, "memory", nodeFor(t, graph, "g:a").Source)

	roots := graph.DirectDependencies(depgraph.RootIndex)
	require.Len(t, roots, 1)
	assert.Equal(t, "g:a", roots[0].Coordinate.Key())

	i, _ := graph.Find("g:a")
	children := graph.DirectDependencies(i)
	require.Len(t, children, 1)
	assert.Equal(t, "g:b", children[0].Coordinate.Key())
}

func TestConflictReportString(t *testing.T) {
	provider := metadata.NewMemoryProvider().
		Add(desc("g", "a", "1.0", dep("g", "c", "1.0"))).
		Add(desc("g", "b", "1.0", dep("g", "c", "2.0"))).
		Add(desc("g", "c", "1.0")).
		Add(desc("g", "c", "2.0"))

	_, report := mediated(t, provider, decl("g", "a", "1.0"), decl("g", "b", "1.0"))

	out := report.String()
	assert.Contains(t, out, "variant default: 1 version conflict(s)")
	assert.Contains(t, out, "g:c -> 1.0 (declaration order)")
	assert.Contains(t, out, "selected 1.0 via g:a -> g:c (depth 2)")
	assert.Contains(t, out, "rejected 2.0 via g:b -> g:c (depth 2)")
}
