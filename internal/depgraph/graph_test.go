package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koral-build/koral/internal/maven"
)

// diamondGraph builds app -> {ktor, logging}, ktor -> logging.
func diamondGraph() *ResolvedGraph {
	g := NewResolvedGraph("default")
	ktor := g.AddNode(Node{Coordinate: coord("io.ktor", "ktor-client-core"), Version: "2.3.9", Scope: maven.ScopeCompile})
	logging := g.AddNode(Node{Coordinate: coord("org.slf4j", "slf4j-api"), Version: "2.0.12", Scope: maven.ScopeRuntime})
	g.AddEdge(GraphEdge{From: RootIndex, To: ktor})
	g.AddEdge(GraphEdge{From: RootIndex, To: logging})
	g.AddEdge(GraphEdge{From: ktor, To: logging})
	return g
}

func TestAddNodeDeduplicatesByCoordinate(t *testing.T) {
	g := NewResolvedGraph("default")
	first := g.AddNode(Node{Coordinate: coord("g", "a"), Version: "1.0"})
	second := g.AddNode(Node{Coordinate: coord("g", "a"), Version: "2.0"})
	assert.Equal(t, first, second)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, "1.0", g.Node(first).Version, "first insertion wins; callers mediate before assembly")
}

func TestPathsToFindsEveryRoute(t *testing.T) {
	g := diamondGraph()

	paths := g.PathsTo("org.slf4j:slf4j-api")
	require.Len(t, paths, 2)

	rendered := make([][]string, len(paths))
	for i, p := range paths {
		for _, n := range p {
			rendered[i] = append(rendered[i], n.Coordinate.Key())
		}
	}
	assert.Contains(t, rendered, []string{"io.ktor:ktor-client-core", "org.slf4j:slf4j-api"})
	assert.Contains(t, rendered, []string{"org.slf4j:slf4j-api"})
}

func TestPathsToBareArtifactName(t *testing.T) {
	g := diamondGraph()
	paths := g.PathsTo("slf4j-api")
	assert.Len(t, paths, 2)
	assert.Empty(t, g.PathsTo("nonexistent"))
}

func TestRenderTreeSectionsAndConnectors(t *testing.T) {
	g := diamondGraph()
	junit := g.AddNode(Node{Coordinate: coord("org.junit", "junit-jupiter"), Version: "5.10.0", Scope: maven.ScopeTest})
	g.AddEdge(GraphEdge{From: RootIndex, To: junit})

	out := g.RenderTree("app:1.0 (default)", 0)
	assert.Equal(t, "app:1.0 (default)\n"+
		"[dependencies]\n"+
		"├── io.ktor:ktor-client-core:2.3.9\n"+
		"│   └── org.slf4j:slf4j-api:2.0.12\n"+
		"├── org.slf4j:slf4j-api:2.0.12\n"+
		"[test-dependencies]\n"+
		"└── org.junit:junit-jupiter:5.10.0\n", out)
}

func TestRenderTreeNoHeadersForSingleSection(t *testing.T) {
	g := diamondGraph()
	out := g.RenderTree("app:1.0", 0)
	assert.NotContains(t, out, "[dependencies]")
	assert.Contains(t, out, "└── org.slf4j:slf4j-api:2.0.12")
}

func TestRenderTreeMaxDepth(t *testing.T) {
	g := diamondGraph()
	out := g.RenderTree("app:1.0", 1)
	assert.Contains(t, out, "io.ktor:ktor-client-core:2.3.9")
	// Depth 1 cuts the subtree under ktor; slf4j still appears as a root.
	assert.NotContains(t, out, "│   └── org.slf4j")
}

func TestGraphEqual(t *testing.T) {
	assert.True(t, diamondGraph().Equal(diamondGraph()))

	other := diamondGraph()
	i, ok := other.Find("org.slf4j:slf4j-api")
	require.True(t, ok)
	other.nodes[i].Version = "2.0.13"
	assert.False(t, diamondGraph().Equal(other))

	renamed := diamondGraph()
	renamed.Variant = "paid"
	assert.False(t, diamondGraph().Equal(renamed))
}
