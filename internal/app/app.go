package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/lockfile"
	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/metadata"
	"github.com/koral-build/koral/internal/resolver"
	"github.com/koral-build/koral/internal/variant"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   manifest.Loader
	provider metadata.Provider
}

// NewApp constructs the application. Logs go to errW so command output on
// outW stays machine-readable. A nil provider means metadata is fetched over
// HTTP from the manifest's repositories.
func NewApp(outW, errW io.Writer, cfg *Config, loader manifest.Loader, provider metadata.Provider) *App {
	return &App{
		outW:     outW,
		logger:   newLogger(cfg.LogLevel, cfg.LogFormat, errW),
		config:   cfg,
		loader:   loader,
		provider: provider,
	}
}

// Run loads the manifest and dispatches the configured subcommand.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("app started", "command", a.config.Command, "manifest", a.config.ManifestPath)

	m, err := a.loader.Load(ctx, a.config.ManifestPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	if a.config.Command == CommandCheck {
		// Freshness is a pure comparison; no metadata is fetched.
		return a.runCheck(m)
	}

	provider := a.provider
	if provider == nil {
		httpProvider := metadata.NewHTTPProvider(m.Repositories)
		defer func() {
			if err := httpProvider.Close(); err != nil {
				a.logger.Warn("closing http client", "error", err)
			}
		}()
		provider = httpProvider
	}
	r := resolver.New(provider, resolver.WithWorkers(a.config.Workers))

	switch a.config.Command {
	case CommandResolve:
		return a.runResolve(ctx, r, m)
	case CommandLock:
		return a.runLock(ctx, r, m)
	case CommandTree:
		return a.runTree(ctx, r, m)
	case CommandWhy:
		return a.runWhy(ctx, r, m)
	case CommandConflicts:
		return a.runConflicts(ctx, r, m)
	default:
		return fmt.Errorf("unknown command %q", a.config.Command)
	}
}

// resolve runs the pipeline for the selected variants and returns the
// per-variant results, failing fast on variant-expansion errors only.
// Diagnostic commands fall back to the manifest's default variant so their
// output stays readable on manifests with large variant matrices.
func (a *App) resolve(ctx context.Context, r *resolver.Resolver, m *manifest.Manifest) ([]*resolver.Result, error) {
	name := a.config.Variant
	if name == "" && a.config.Command != CommandResolve && a.config.Command != CommandLock {
		if def, ok := variant.DefaultOf(m); ok {
			a.logger.Debug("using manifest default variant", "variant", def)
			name = def
		}
	}
	if name != "" {
		res, err := r.Resolve(ctx, m, name)
		if err != nil {
			return nil, err
		}
		return []*resolver.Result{res}, nil
	}
	return r.ResolveAll(ctx, m)
}

// firstFailure folds per-variant errors into one command error.
func firstFailure(results []*resolver.Result) error {
	var failed []string
	var first error
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Variant.Name())
			if first == nil {
				first = res.Err
			}
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("resolution failed for %s: %w", strings.Join(failed, ", "), first)
}

func (a *App) runResolve(ctx context.Context, r *resolver.Resolver, m *manifest.Manifest) error {
	if !a.config.Update {
		if lf, err := lockfile.ReadFile(a.lockPath()); err == nil {
			if err := resolver.CheckLockFresh(m, lf); err != nil {
				return fmt.Errorf("%w (run lock, or resolve with -update)", err)
			}
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	results, err := a.resolve(ctx, r, m)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(a.outW, "%s: FAILED: %v\n", res.Variant.Name(), res.Err)
			continue
		}
		fmt.Fprintf(a.outW, "%s: %d packages", res.Variant.Name(), res.Graph.Len())
		if len(res.Report.Conflicts) > 0 {
			fmt.Fprintf(a.outW, ", %d conflicts mediated", len(res.Report.Conflicts))
		}
		if len(res.Skipped) > 0 {
			fmt.Fprintf(a.outW, ", %d optional skipped", len(res.Skipped))
		}
		fmt.Fprintln(a.outW)
	}
	return firstFailure(results)
}

func (a *App) runLock(ctx context.Context, r *resolver.Resolver, m *manifest.Manifest) error {
	results, err := a.resolve(ctx, r, m)
	if err != nil {
		return err
	}
	if err := firstFailure(results); err != nil {
		return err
	}

	// Report drift against the previous lock, when one exists.
	if prev, err := lockfile.ReadFile(a.lockPath()); err == nil {
		for _, res := range results {
			v, ok := prev.Variant(res.Variant.Name())
			if !ok {
				continue
			}
			for _, key := range lockfile.StaleKeys(v, res.Graph) {
				fmt.Fprintf(a.outW, "%s: %s changed\n", res.Variant.Name(), key)
			}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	lf := resolver.BuildLock(results)
	if err := lockfile.WriteFile(a.lockPath(), lf); err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "wrote %s (%d variants)\n", a.lockPath(), len(lf.Variants))
	return nil
}

func (a *App) runCheck(m *manifest.Manifest) error {
	lf, err := lockfile.ReadFile(a.lockPath())
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: no lockfile at %s", lockfile.ErrOutOfDate, a.lockPath())
	}
	if err != nil {
		return err
	}
	if err := resolver.CheckLockFresh(m, lf); err != nil {
		return err
	}
	fmt.Fprintln(a.outW, "lockfile is up to date")
	return nil
}

func (a *App) runTree(ctx context.Context, r *resolver.Resolver, m *manifest.Manifest) error {
	results, err := a.resolve(ctx, r, m)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		label := fmt.Sprintf("%s:%s:%s (%s)",
			m.Project.Group, m.Project.Name, m.Project.Version, res.Variant.Name())
		fmt.Fprint(a.outW, res.Graph.RenderTree(label, a.config.MaxDepth))
		fmt.Fprintln(a.outW)
	}
	return firstFailure(results)
}

func (a *App) runWhy(ctx context.Context, r *resolver.Resolver, m *manifest.Manifest) error {
	results, err := a.resolve(ctx, r, m)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		paths := resolver.Explain(res.Graph, a.config.Coordinate)
		if len(paths) == 0 {
			fmt.Fprintf(a.outW, "%s: %s is not in the graph\n", res.Variant.Name(), a.config.Coordinate)
			continue
		}
		fmt.Fprintf(a.outW, "%s:\n", res.Variant.Name())
		for _, path := range paths {
			parts := make([]string, len(path))
			for i, node := range path {
				parts[i] = node.String()
			}
			fmt.Fprintf(a.outW, "  (root) -> %s\n", strings.Join(parts, " -> "))
		}
	}
	return firstFailure(results)
}

func (a *App) runConflicts(ctx context.Context, r *resolver.Resolver, m *manifest.Manifest) error {
	results, err := a.resolve(ctx, r, m)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		fmt.Fprint(a.outW, res.Report.String())
	}
	return firstFailure(results)
}

func (a *App) lockPath() string {
	return filepath.Join(filepath.Dir(a.config.ManifestPath), lockfile.DefaultFilename)
}
