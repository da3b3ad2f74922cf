package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/koral-build/koral/internal/catalog"
	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/depgraph"
	"github.com/koral-build/koral/internal/lockfile"
	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
	"github.com/koral-build/koral/internal/mediate"
	"github.com/koral-build/koral/internal/metadata"
	"github.com/koral-build/koral/internal/variant"
)

// State names one stage of a variant's resolution pipeline.
type State string

const (
	StateInit State = "init"
	// StateExpandingVariants covers the shared expansion stage that runs
	// before any per-variant Result exists; it appears in logs only, never
	// on a Result, whose pipeline starts at StateResolvingCatalog.
	StateExpandingVariants  State = "expanding-variants"
	StateResolvingCatalog   State = "resolving-catalog"
	StateBuildingGraph      State = "building-graph"
	StateMediatingConflicts State = "mediating-conflicts"
	StateValidating         State = "validating"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// InternalError marks an invariant violation caught by the validating stage.
// It is a defect in the resolver, distinct from user-facing resolution
// errors.
type InternalError struct {
	Variant string
	Err     error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error resolving variant %s: %v", e.Variant, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Result is one variant's terminal resolution state: a graph or an error,
// never both.
type Result struct {
	Variant variant.Variant
	// Dependencies is the merged, catalog-resolved declaration set the graph
	// was resolved from; used for lock hashing. Nil when expansion or catalog
	// resolution failed.
	Dependencies *manifest.DependencySet
	Graph        *depgraph.ResolvedGraph
	Report       *mediate.ConflictReport
	Skipped      []depgraph.SkippedDependency
	State        State
	Err          error
}

// Resolver resolves every variant of a manifest against a metadata provider.
// The provider is wrapped in a session cache shared across variants.
type Resolver struct {
	cache   *metadata.Cache
	workers int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkers bounds how many variants resolve concurrently.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// New creates a resolver around a provider.
func New(provider metadata.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		cache:   metadata.NewCache(provider),
		workers: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll expands the manifest's variants and resolves each one. Variant
// failures are carried per-result; the returned error covers only failures
// before any variant pipeline started (variant expansion itself).
func (r *Resolver) ResolveAll(ctx context.Context, m *manifest.Manifest) ([]*Result, error) {
	ctxlog.FromContext(ctx).Debug("expanding variants", "state", StateExpandingVariants)
	expanded, err := variant.Expand(m)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(expanded))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, ex := range expanded {
		g.Go(func() error {
			results[i] = r.resolveVariant(gctx, m, ex)
			// Sibling variants run to their own terminal state; errors stay
			// in the result.
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Resolve runs the pipeline for a single named variant.
func (r *Resolver) Resolve(ctx context.Context, m *manifest.Manifest, name string) (*Result, error) {
	ctxlog.FromContext(ctx).Debug("expanding variants", "state", StateExpandingVariants)
	expanded, err := variant.Expand(m)
	if err != nil {
		return nil, err
	}
	for _, ex := range expanded {
		if ex.Variant.Name() == name {
			return r.resolveVariant(ctx, m, ex), nil
		}
	}
	return nil, fmt.Errorf("manifest declares no variant %q", name)
}

func (r *Resolver) resolveVariant(ctx context.Context, m *manifest.Manifest, ex variant.Expanded) *Result {
	name := ex.Variant.Name()
	logger := ctxlog.FromContext(ctx).With("variant", name)
	ctx = ctxlog.WithLogger(ctx, logger)

	result := &Result{Variant: ex.Variant, State: StateInit}
	fail := func(err error) *Result {
		result.State = StateFailed
		result.Err = err
		logger.Error("variant resolution failed", "state", StateFailed, "error", err)
		return result
	}

	result.State = StateResolvingCatalog
	logger.Debug("resolving catalog references", "state", result.State)
	deps, err := catalog.Resolve(ex.Dependencies, m.Catalog)
	if err != nil {
		return fail(err)
	}
	result.Dependencies = deps

	result.State = StateBuildingGraph
	logger.Debug("building dependency graph", "state", result.State, "declarations", deps.Len())
	r.prefetchRoots(ctx, deps)
	exp, err := depgraph.Build(ctx, deps, r.cache)
	if err != nil {
		return fail(err)
	}
	result.Skipped = exp.Skipped

	result.State = StateMediatingConflicts
	logger.Debug("mediating version conflicts", "state", result.State, "edges", len(exp.Edges))
	graph, report, err := mediate.Mediate(ctx, exp, r.cache, name)
	if err != nil {
		return fail(err)
	}
	result.Report = report

	result.State = StateValidating
	if err := graph.Validate(); err != nil {
		return fail(&InternalError{Variant: name, Err: err})
	}

	result.State = StateDone
	result.Graph = graph
	logger.Info("variant resolved",
		"packages", graph.Len(), "conflicts", len(report.Conflicts), "skipped", len(exp.Skipped))
	return result
}

// prefetchRoots warms the descriptor cache with the variant's exact-version
// root declarations before the depth-first walk starts.
func (r *Resolver) prefetchRoots(ctx context.Context, deps *manifest.DependencySet) {
	var reqs []metadata.PrefetchRequest
	for _, d := range deps.Declarations() {
		spec, err := maven.ParseSpec(d.Version)
		if err != nil || spec.Exact == nil {
			continue
		}
		reqs = append(reqs, metadata.PrefetchRequest{Coordinate: d.Coordinate, Version: d.Version})
	}
	if len(reqs) > 1 {
		r.cache.Prefetch(ctx, reqs, r.workers)
	}
}

// Explain returns every declaration path that pulled a coordinate into the
// graph. The key may be "group:artifact" or a bare artifact name.
func Explain(graph *depgraph.ResolvedGraph, key string) [][]depgraph.Node {
	return graph.PathsTo(key)
}

// Conflicts returns the coordinates mediated away for a result, with their
// rejected candidates.
func Conflicts(result *Result) []mediate.VersionConflict {
	if result.Report == nil {
		return nil
	}
	return result.Report.Conflicts
}

// BuildLock snapshots successful results into a lockfile. Failed variants
// are skipped; callers surface their errors separately.
func BuildLock(results []*Result) *lockfile.Lockfile {
	lf := lockfile.New()
	for _, res := range results {
		if res.Err != nil || res.Graph == nil {
			continue
		}
		lf.Upsert(lockfile.FromGraph(res.Graph, lockfile.ManifestHash(res.Dependencies)))
	}
	return lf
}

// CheckLockFresh verifies the lock against the manifest's current
// declarations for every variant, without fetching any metadata. Returns
// the first staleness found, wrapping lockfile.ErrOutOfDate.
func CheckLockFresh(m *manifest.Manifest, lf *lockfile.Lockfile) error {
	expanded, err := variant.Expand(m)
	if err != nil {
		return err
	}
	for _, ex := range expanded {
		deps, err := catalog.Resolve(ex.Dependencies, m.Catalog)
		if err != nil {
			return err
		}
		if err := lf.CheckFresh(ex.Variant.Name(), deps); err != nil {
			return err
		}
	}
	return nil
}
