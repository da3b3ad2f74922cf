package mediate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/depgraph"
	"github.com/koral-build/koral/internal/maven"
	"github.com/koral-build/koral/internal/metadata"
)

// Candidate is one competing requirement for a coordinate's version.
type Candidate struct {
	Spec  maven.VersionSpec
	Scope maven.Scope
	Depth int
	Order int
	// Path is the declaration chain that produced the requirement.
	Path string
}

// UnresolvableError reports that no version can satisfy every requirement
// declared for a coordinate at the winning depth.
type UnresolvableError struct {
	Coordinate maven.Coordinate
	Candidates []Candidate
}

func (e *UnresolvableError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "unresolvable version conflict for %s:", e.Coordinate.Key())
	for _, c := range e.Candidates {
		fmt.Fprintf(&sb, "\n  %s required via %s (depth %d)", c.Spec.Raw, c.Path, c.Depth)
	}
	return sb.String()
}

// decision is a coordinate's mediation outcome, held back until the
// coordinate is known to survive pruning.
type decision struct {
	version string
	reason  string
	err     error
}

// Mediate chooses one version per coordinate from the expansion, prunes the
// subtrees that only rejected versions required, and builds the variant's
// resolved graph. The provider resolves SNAPSHOT versions to their latest
// timestamped build and supplies the source repository of each chosen
// descriptor.
func Mediate(ctx context.Context, exp *depgraph.Expansion, provider metadata.Provider, variant string) (*depgraph.ResolvedGraph, *ConflictReport, error) {
	logger := ctxlog.FromContext(ctx)

	grouped, coords := groupCandidates(exp)
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	// Decide in discovery order of each coordinate's winning edge so node
	// indices are stable run to run.
	sort.Slice(keys, func(i, j int) bool {
		return grouped[keys[i]][0].Order < grouped[keys[j]][0].Order
	})

	decisions := make(map[string]decision, len(keys))
	for _, key := range keys {
		version, reason, err := chooseVersion(coords[key], grouped[key])
		decisions[key] = decision{version: version, reason: reason, err: err}
	}

	// A rejected version's dependencies justify nothing: edges read from a
	// descriptor other than the decided one are dropped, and coordinates no
	// longer reachable from the root are pruned with them. Errors on pruned
	// coordinates are moot.
	kept := keptEdges(exp, decisions)
	reachable := reachableKeys(kept)

	graph := depgraph.NewResolvedGraph(variant)
	report := &ConflictReport{Variant: variant}

	for _, key := range keys {
		if !reachable[key] {
			continue
		}
		d := decisions[key]
		if d.err != nil {
			return nil, nil, d.err
		}
		candidates := grouped[key]
		winner := candidates[0]
		coord := coords[key]

		if conflict := reportConflict(coord, candidates, d.version, d.reason); conflict != nil {
			report.Conflicts = append(report.Conflicts, *conflict)
			logger.Debug("mediated version conflict",
				"coordinate", key, "resolved", d.version, "reason", d.reason)
		}

		node := depgraph.Node{
			Coordinate: coord,
			Version:    d.version,
			Scope:      winner.Scope,
		}
		if v := maven.ParseVersion(d.version); v.IsSnapshot() {
			timestamped, err := provider.LatestSnapshot(ctx, coord, v.BaseVersion())
			if err != nil {
				return nil, nil, fmt.Errorf("resolving snapshot %s:%s: %w", key, d.version, err)
			}
			node.Version = timestamped
			node.Declared = d.version
		}

		// Descriptors are keyed by the declared identity, so SNAPSHOTs fetch
		// at their label rather than the timestamped build.
		desc, err := provider.Fetch(ctx, coord, d.version)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching mediated descriptor %s:%s (required via %s): %w",
				key, d.version, winner.Path, err)
		}
		node.Source = desc.Source

		graph.AddNode(node)
	}

	assembleEdges(graph, kept)
	return graph, report, nil
}

// keptEdges drops optional non-root edges and every edge read from a parent
// descriptor whose version lost mediation.
func keptEdges(exp *depgraph.Expansion, decisions map[string]decision) []depgraph.Edge {
	kept := make([]depgraph.Edge, 0, len(exp.Edges))
	for _, e := range exp.Edges {
		if e.Optional && !exp.RootKeys[e.To.Key()] {
			continue
		}
		if e.Depth > 1 {
			d, ok := decisions[e.From.Key()]
			if !ok || d.err != nil || d.version != e.FromVersion {
				continue
			}
		}
		kept = append(kept, e)
	}
	return kept
}

// reachableKeys walks the kept edges from the root declarations.
func reachableKeys(edges []depgraph.Edge) map[string]bool {
	children := make(map[string][]string)
	reachable := make(map[string]bool)
	var queue []string
	for _, e := range edges {
		if e.Depth == 1 {
			if key := e.To.Key(); !reachable[key] {
				reachable[key] = true
				queue = append(queue, key)
			}
			continue
		}
		children[e.From.Key()] = append(children[e.From.Key()], e.To.Key())
	}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		for _, child := range children[key] {
			if !reachable[child] {
				reachable[child] = true
				queue = append(queue, child)
			}
		}
	}
	return reachable
}

// groupCandidates buckets edges by target coordinate, sorted by (depth,
// order). Optional edges only produce candidates for coordinates that are
// also declared at the root.
func groupCandidates(exp *depgraph.Expansion) (map[string][]Candidate, map[string]maven.Coordinate) {
	grouped := make(map[string][]Candidate)
	coords := make(map[string]maven.Coordinate)
	for _, e := range exp.Edges {
		key := e.To.Key()
		if e.Optional && !exp.RootKeys[key] {
			continue
		}
		coords[key] = e.To
		grouped[key] = append(grouped[key], Candidate{
			Spec:  e.Spec,
			Scope: e.Scope,
			Depth: e.Depth,
			Order: e.Order,
			Path:  e.PathString(),
		})
	}
	for _, candidates := range grouped {
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Depth != candidates[j].Depth {
				return candidates[i].Depth < candidates[j].Depth
			}
			return candidates[i].Order < candidates[j].Order
		})
	}
	return grouped, coords
}

// chooseVersion applies nearest-wins selection. The winner is intersected
// with every other candidate at the winning depth, an exact winner competing
// as its point range; a non-empty intersection is then narrowed to a concrete
// version. Exact-versus-exact disagreements at the same depth are soft
// requirements and settle by declaration order instead.
func chooseVersion(coord maven.Coordinate, candidates []Candidate) (string, string, error) {
	winner := candidates[0]
	intersection := winner.Spec.AsRange()
	contributing := []Candidate{winner}
	for _, c := range candidates[1:] {
		if c.Depth > winner.Depth {
			break
		}
		if winner.Spec.Exact != nil && c.Spec.Exact != nil {
			continue
		}
		intersection = intersection.Intersect(c.Spec.AsRange())
		contributing = append(contributing, c)
	}
	if intersection.IsEmpty() {
		return "", "", &UnresolvableError{Coordinate: coord, Candidates: contributing}
	}
	if winner.Spec.Exact != nil {
		return winner.Spec.Exact.Original, reasonFor(candidates), nil
	}

	// Prefer a concrete version some candidate already names, the highest
	// one the intersection admits.
	var best *maven.Version
	for _, c := range candidates {
		if c.Spec.Exact == nil || !intersection.Contains(*c.Spec.Exact) {
			continue
		}
		if best == nil || c.Spec.Exact.Compare(*best) > 0 {
			v := *c.Spec.Exact
			best = &v
		}
	}
	if best != nil {
		return best.Original, "range intersection", nil
	}
	if intersection.Upper != nil && intersection.Upper.Inclusive {
		return intersection.Upper.Version.Original, "range intersection", nil
	}
	// Without an upper bound or a named concrete version there is nothing to
	// pin the range to.
	return "", "", &UnresolvableError{Coordinate: coord, Candidates: contributing}
}

// reasonFor labels why the winner beat the first differing candidate.
func reasonFor(candidates []Candidate) string {
	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.Spec.Raw == winner.Spec.Raw {
			continue
		}
		if winner.Depth < c.Depth {
			return "nearest wins"
		}
		return "declaration order"
	}
	return ""
}

// assembleEdges carries every kept edge between surviving coordinates into
// the graph: the union of incoming edges records why each node is present.
func assembleEdges(graph *depgraph.ResolvedGraph, edges []depgraph.Edge) {
	for _, e := range edges {
		to, ok := graph.Find(e.To.Key())
		if !ok {
			continue
		}
		from := depgraph.RootIndex
		if e.Depth > 1 {
			from, ok = graph.Find(e.From.Key())
			if !ok {
				continue
			}
		}
		graph.AddEdge(depgraph.GraphEdge{From: from, To: to})
	}
}
