package lockfile

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/koral-build/koral/internal/depgraph"
	"github.com/koral-build/koral/internal/maven"
)

// FormatVersion is bumped on incompatible changes to the lock layout.
const FormatVersion = 1

// DefaultFilename is the lock's conventional name next to the manifest.
const DefaultFilename = "koral.lock"

const header = "# Generated by koral. Do not edit by hand.\n\n"

// Lockfile is the on-disk record of every resolved variant.
type Lockfile struct {
	Version  int           `toml:"version"`
	Variants []VariantLock `toml:"variant,omitempty"`
}

// VariantLock is one variant's resolved graph plus the declaration hash it
// was resolved from.
type VariantLock struct {
	Name         string    `toml:"name"`
	ManifestHash string    `toml:"manifest-hash"`
	Packages     []Package `toml:"package,omitempty"`
}

// Package is one locked coordinate. Checksum is a placeholder filled by the
// artifact fetcher, never computed here. Dependencies lists the package's
// own direct dependency keys for drift detection without re-resolving.
type Package struct {
	Group        string   `toml:"group"`
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Declared     string   `toml:"declared,omitempty"`
	Scope        string   `toml:"scope"`
	Direct       bool     `toml:"direct,omitempty"`
	Source       string   `toml:"source,omitempty"`
	Checksum     string   `toml:"checksum,omitempty"`
	Dependencies []string `toml:"dependencies,omitempty"`
}

// Key returns the package's "group:artifact" identity.
func (p Package) Key() string {
	return p.Group + ":" + p.Name
}

// New creates an empty lockfile at the current format version.
func New() *Lockfile {
	return &Lockfile{Version: FormatVersion}
}

// Variant returns the lock entry for a variant name.
func (lf *Lockfile) Variant(name string) (*VariantLock, bool) {
	for i := range lf.Variants {
		if lf.Variants[i].Name == name {
			return &lf.Variants[i], true
		}
	}
	return nil, false
}

// Upsert replaces or inserts a variant entry, keeping variants sorted by
// name.
func (lf *Lockfile) Upsert(v VariantLock) {
	for i := range lf.Variants {
		if lf.Variants[i].Name == v.Name {
			lf.Variants[i] = v
			return
		}
	}
	lf.Variants = append(lf.Variants, v)
	sort.Slice(lf.Variants, func(i, j int) bool {
		return lf.Variants[i].Name < lf.Variants[j].Name
	})
}

// FromGraph snapshots a resolved graph into a variant lock entry. The hash
// must be the ManifestHash of the declarations the graph was resolved from.
func FromGraph(graph *depgraph.ResolvedGraph, manifestHash string) VariantLock {
	v := VariantLock{
		Name:         graph.Variant,
		ManifestHash: manifestHash,
	}
	direct := make(map[string]bool)
	for _, n := range graph.DirectDependencies(depgraph.RootIndex) {
		direct[n.Coordinate.Key()] = true
	}
	for _, n := range graph.Nodes() {
		i, _ := graph.Find(n.Coordinate.Key())
		var deps []string
		for _, child := range graph.DirectDependencies(i) {
			deps = append(deps, child.Coordinate.Key())
		}
		v.Packages = append(v.Packages, Package{
			Group:        n.Coordinate.Group,
			Name:         n.Coordinate.Artifact,
			Version:      n.Version,
			Declared:     n.Declared,
			Scope:        string(n.Scope),
			Direct:       direct[n.Coordinate.Key()],
			Source:       n.Source,
			Dependencies: deps,
		})
	}
	return v
}

// ToGraph reconstructs the resolved graph recorded in a variant lock entry.
func (v VariantLock) ToGraph() (*depgraph.ResolvedGraph, error) {
	graph := depgraph.NewResolvedGraph(v.Name)
	for _, p := range v.Packages {
		scope, err := maven.ParseScope(p.Scope)
		if err != nil {
			return nil, fmt.Errorf("lock entry %s: %w", p.Key(), err)
		}
		graph.AddNode(depgraph.Node{
			Coordinate: maven.Coordinate{Group: p.Group, Artifact: p.Name},
			Version:    p.Version,
			Declared:   p.Declared,
			Scope:      scope,
			Source:     p.Source,
		})
	}
	for _, p := range v.Packages {
		from, _ := graph.Find(p.Key())
		if p.Direct {
			graph.AddEdge(depgraph.GraphEdge{From: depgraph.RootIndex, To: from})
		}
		for _, depKey := range p.Dependencies {
			to, ok := graph.Find(depKey)
			if !ok {
				return nil, fmt.Errorf("lock entry %s depends on %s, which is not locked", p.Key(), depKey)
			}
			graph.AddEdge(depgraph.GraphEdge{From: from, To: to})
		}
	}
	return graph, nil
}

// Marshal renders the lockfile as canonical TOML bytes.
func Marshal(lf *Lockfile) ([]byte, error) {
	body, err := toml.Marshal(lf)
	if err != nil {
		return nil, fmt.Errorf("encoding lockfile: %w", err)
	}
	return append([]byte(header), body...), nil
}

// Unmarshal parses lockfile bytes.
func Unmarshal(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("decoding lockfile: %w", err)
	}
	if lf.Version > FormatVersion {
		return nil, fmt.Errorf("lockfile format version %d is newer than supported version %d", lf.Version, FormatVersion)
	}
	return &lf, nil
}

// WriteFile writes the lockfile to disk.
func WriteFile(path string, lf *Lockfile) error {
	data, err := Marshal(lf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing lockfile %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a lockfile from disk. A missing file is reported as-is so
// callers can distinguish "no lock yet" from a corrupt lock.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
