package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koral-build/koral/internal/maven"
)

// Node is one resolved library in the graph.
type Node struct {
	Coordinate maven.Coordinate
	// Version is the chosen graph version (timestamped for SNAPSHOTs).
	Version string
	// Declared keeps the declared label when it differs from Version, e.g.
	// "2.0-SNAPSHOT" for a timestamped build.
	Declared string
	// Scope is the effective scope of the node's nearest incoming edge.
	Scope maven.Scope
	// Source identifies the repository the node's metadata came from.
	Source string
}

func (n Node) String() string {
	return fmt.Sprintf("%s:%s", n.Coordinate.Key(), n.Version)
}

// GraphEdge references nodes by arena index. From == RootIndex marks a
// direct declaration. Effective scope lives on the target node; edges only
// record why a node is present.
type GraphEdge struct {
	From int
	To   int
}

// RootIndex is the synthetic From index of direct declarations.
const RootIndex = -1

// ResolvedGraph is the per-variant resolution result: at most one version
// per coordinate, plus the edges that justified each node's inclusion.
type ResolvedGraph struct {
	Variant string

	nodes []Node
	index map[string]int
	edges []GraphEdge
}

// NewResolvedGraph creates an empty graph for a variant.
func NewResolvedGraph(variant string) *ResolvedGraph {
	return &ResolvedGraph{Variant: variant, index: make(map[string]int)}
}

// AddNode inserts a node, or returns the existing index for its coordinate.
func (g *ResolvedGraph) AddNode(n Node) int {
	if i, ok := g.index[n.Coordinate.Key()]; ok {
		return i
	}
	g.nodes = append(g.nodes, n)
	i := len(g.nodes) - 1
	g.index[n.Coordinate.Key()] = i
	return i
}

// AddEdge inserts an edge unless an identical one exists.
func (g *ResolvedGraph) AddEdge(e GraphEdge) {
	for _, existing := range g.edges {
		if existing == e {
			return
		}
	}
	g.edges = append(g.edges, e)
}

// Find returns the node index for a coordinate key.
func (g *ResolvedGraph) Find(key string) (int, bool) {
	i, ok := g.index[key]
	return i, ok
}

// FindLoose resolves a key like Find, falling back to an artifact-only match.
func (g *ResolvedGraph) FindLoose(key string) (int, bool) {
	if i, ok := g.index[key]; ok {
		return i, true
	}
	keys := make([]string, 0, len(g.index))
	for k := range g.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, artifact, ok := strings.Cut(k, ":"); ok && artifact == key {
			return g.index[k], true
		}
	}
	return 0, false
}

// Node returns the node at an index.
func (g *ResolvedGraph) Node(i int) Node {
	return g.nodes[i]
}

// Len returns the number of nodes.
func (g *ResolvedGraph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes sorted by coordinate, for deterministic output.
func (g *ResolvedGraph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	sort.Slice(out, func(i, j int) bool {
		return maven.CompareCoordinates(out[i].Coordinate, out[j].Coordinate) < 0
	})
	return out
}

// DirectDependencies returns the targets of a node's outgoing edges, sorted
// by coordinate. RootIndex lists the direct declarations.
func (g *ResolvedGraph) DirectDependencies(i int) []Node {
	var out []Node
	for _, e := range g.edges {
		if e.From == i {
			out = append(out, g.nodes[e.To])
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return maven.CompareCoordinates(out[a].Coordinate, out[b].Coordinate) < 0
	})
	return out
}

// directIndices returns outgoing edge targets in insertion order.
func (g *ResolvedGraph) directIndices(i int) []int {
	var out []int
	for _, e := range g.edges {
		if e.From == i {
			out = append(out, e.To)
		}
	}
	return out
}

// PathsTo returns every distinct path from the root to the coordinate, used
// by "why"-style diagnostics. The key may be "group:artifact" or a bare
// artifact name.
func (g *ResolvedGraph) PathsTo(key string) [][]Node {
	target, ok := g.FindLoose(key)
	if !ok {
		return nil
	}
	var paths [][]Node
	var walk func(at int, trail []int)
	walk = func(at int, trail []int) {
		for _, t := range trail {
			if t == at {
				return
			}
		}
		trail = append(trail, at)
		if at == target {
			path := make([]Node, len(trail))
			for i, idx := range trail {
				path[i] = g.nodes[idx]
			}
			paths = append(paths, path)
			return
		}
		for _, next := range g.directIndices(at) {
			walk(next, trail)
		}
	}
	for _, root := range g.directIndices(RootIndex) {
		walk(root, nil)
	}
	return paths
}

// Equal reports whether two graphs resolve the same nodes and edges. Used
// by the lockfile round-trip law.
func (g *ResolvedGraph) Equal(other *ResolvedGraph) bool {
	if g.Variant != other.Variant || len(g.nodes) != len(other.nodes) {
		return false
	}
	for _, n := range g.nodes {
		j, ok := other.index[n.Coordinate.Key()]
		if !ok {
			return false
		}
		o := other.nodes[j]
		if n.Version != o.Version || n.Declared != o.Declared || n.Scope != o.Scope || n.Source != o.Source {
			return false
		}
	}
	return g.edgeSet() == other.edgeSet()
}

func (g *ResolvedGraph) edgeSet() string {
	lines := make([]string, 0, len(g.edges))
	for _, e := range g.edges {
		from := "(root)"
		if e.From != RootIndex {
			from = g.nodes[e.From].Coordinate.Key()
		}
		lines = append(lines, from+"->"+g.nodes[e.To].Coordinate.Key())
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Validate re-checks the graph's structural invariants: one version per
// coordinate, every edge endpoint in range, and every node justified by at
// least one incoming edge. A non-empty graph with no root edges is also
// rejected. Violations are defects in assembly, not user errors.
func (g *ResolvedGraph) Validate() error {
	if len(g.index) != len(g.nodes) {
		return fmt.Errorf("graph for variant %s indexes %d coordinates over %d nodes", g.Variant, len(g.index), len(g.nodes))
	}
	incoming := make(map[int]bool, len(g.nodes))
	rooted := false
	for _, e := range g.edges {
		if e.To < 0 || e.To >= len(g.nodes) || e.From >= len(g.nodes) || (e.From < 0 && e.From != RootIndex) {
			return fmt.Errorf("graph for variant %s has edge with out-of-range index (%d -> %d)", g.Variant, e.From, e.To)
		}
		incoming[e.To] = true
		if e.From == RootIndex {
			rooted = true
		}
	}
	if len(g.nodes) > 0 && !rooted {
		return fmt.Errorf("graph for variant %s has nodes but no root declarations", g.Variant)
	}
	for i, n := range g.nodes {
		if !incoming[i] {
			return fmt.Errorf("graph for variant %s contains %s with no incoming edge", g.Variant, n.Coordinate.Key())
		}
	}
	return nil
}

// RenderTree prints the graph as a scope-sectioned tree. Nodes revisited
// through a diamond are printed once per branch but not re-expanded.
func (g *ResolvedGraph) RenderTree(projectLabel string, maxDepth int) string {
	var out strings.Builder
	out.WriteString(projectLabel + "\n")

	roots := g.directIndices(RootIndex)
	sections := []struct {
		label  string
		filter func(maven.Scope) bool
	}{
		{"[dependencies]", func(s maven.Scope) bool { return s != maven.ScopeTest }},
		{"[test-dependencies]", func(s maven.Scope) bool { return s == maven.ScopeTest }},
	}

	var populated []struct {
		label string
		idxs  []int
	}
	for _, sec := range sections {
		var idxs []int
		for _, r := range roots {
			if sec.filter(g.nodes[r].Scope) {
				idxs = append(idxs, r)
			}
		}
		if len(idxs) > 0 {
			populated = append(populated, struct {
				label string
				idxs  []int
			}{sec.label, idxs})
		}
	}

	showHeaders := len(populated) > 1
	visited := make(map[int]bool)
	for si, sec := range populated {
		if showHeaders {
			out.WriteString(sec.label + "\n")
		}
		lastSection := si == len(populated)-1
		for i, idx := range sec.idxs {
			last := lastSection && i == len(sec.idxs)-1
			g.renderSubtree(&out, idx, "", last, 1, maxDepth, visited)
		}
	}
	return out.String()
}

func (g *ResolvedGraph) renderSubtree(out *strings.Builder, idx int, prefix string, last bool, depth, maxDepth int, visited map[int]bool) {
	connector := "├── "
	if last {
		connector = "└── "
	}
	out.WriteString(prefix + connector + g.nodes[idx].String() + "\n")

	if maxDepth > 0 && depth >= maxDepth {
		return
	}
	if visited[idx] {
		return
	}
	visited[idx] = true
	defer delete(visited, idx)

	childPrefix := prefix + "│   "
	if last {
		childPrefix = prefix + "    "
	}
	children := g.directIndices(idx)
	for i, child := range children {
		g.renderSubtree(out, child, childPrefix, i == len(children)-1, depth+1, maxDepth, visited)
	}
}
