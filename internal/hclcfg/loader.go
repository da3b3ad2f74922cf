package hclcfg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
)

// Loader is the HCL-specific implementation of the manifest.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ manifest.Loader = (*Loader)(nil)

// Load parses a koral.hcl manifest and, when a catalog block is present, its
// TOML version catalog (resolved relative to the manifest's directory).
func (l *Loader) Load(ctx context.Context, manifestPath string) (*manifest.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("loading manifest", "path", manifestPath)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(manifestPath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %s", manifestPath, diags.Error())
	}

	var root manifestFile
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %s", manifestPath, diags.Error())
	}
	if root.Project == nil {
		return nil, fmt.Errorf("manifest %s declares no project block", manifestPath)
	}

	m := &manifest.Manifest{
		Project: manifest.Project{
			Group:   root.Project.Group,
			Name:    root.Project.Name,
			Version: root.Project.Version,
		},
	}
	for _, repo := range root.Repositories {
		m.Repositories = append(m.Repositories, manifest.Repository{Name: repo.Name, URL: repo.URL})
	}
	for _, block := range root.Dependencies {
		d, err := translateDependency(block)
		if err != nil {
			return nil, err
		}
		m.Dependencies = append(m.Dependencies, d)
	}

	if root.Flavors != nil {
		fc, err := translateFlavors(root.Flavors)
		if err != nil {
			return nil, err
		}
		m.Flavors = fc
	}
	for _, block := range root.Profiles {
		profile := manifest.Profile{Name: block.Name}
		for _, dep := range block.Dependencies {
			d, err := translateDependency(dep)
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", block.Name, err)
			}
			profile.Dependencies = append(profile.Dependencies, d)
		}
		m.Profiles = append(m.Profiles, profile)
	}

	if root.Catalog != nil {
		path := root.Catalog.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(manifestPath), path)
		}
		cat, err := LoadCatalogFile(path)
		if err != nil {
			return nil, err
		}
		m.Catalog = cat
		logger.Debug("loaded version catalog", "path", path,
			"versions", len(cat.Versions), "libraries", len(cat.Libraries), "bundles", len(cat.Bundles))
	}

	logger.Debug("manifest loaded",
		"project", m.Project.Name, "dependencies", len(m.Dependencies), "profiles", len(m.Profiles))
	return m, nil
}

// translateDependency converts a dependency block into a declaration. A
// label containing ':' is a coordinate; a bare label is an alias and must
// reference the catalog.
func translateDependency(block *dependencyBlock) (manifest.Declaration, error) {
	d := manifest.Declaration{
		Alias:      block.Name,
		Version:    block.Version,
		VersionRef: block.VersionRef,
		CatalogRef: block.Catalog,
		Bundle:     block.Bundle,
		Optional:   block.Optional,
	}

	if strings.Contains(block.Name, ":") {
		c, err := maven.ParseCoordinate(block.Name)
		if err != nil {
			return manifest.Declaration{}, err
		}
		d.Coordinate = c
	} else if block.Catalog == "" {
		return manifest.Declaration{}, fmt.Errorf(
			"dependency %q: a bare alias needs a catalog reference; coordinates use \"group:artifact\"", block.Name)
	}
	if d.Bundle && d.CatalogRef == "" {
		return manifest.Declaration{}, fmt.Errorf("dependency %q: bundle = true needs a catalog reference", block.Name)
	}

	scope, err := maven.ParseScope(block.Scope)
	if err != nil {
		return manifest.Declaration{}, fmt.Errorf("dependency %q: %w", block.Name, err)
	}
	d.Scope = scope

	for _, raw := range block.Exclude {
		excl, err := parseExclusion(raw)
		if err != nil {
			return manifest.Declaration{}, fmt.Errorf("dependency %q: %w", block.Name, err)
		}
		d.Exclusions = append(d.Exclusions, excl)
	}
	return d, nil
}

// parseExclusion accepts "group:artifact", "group:*", or a bare group.
func parseExclusion(raw string) (maven.Coordinate, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return maven.Coordinate{}, fmt.Errorf("empty exclusion")
	}
	group, artifact, ok := strings.Cut(s, ":")
	if !ok {
		return maven.Coordinate{Group: s}, nil
	}
	if group == "" || artifact == "" {
		return maven.Coordinate{}, fmt.Errorf("invalid exclusion %q", raw)
	}
	return maven.Coordinate{Group: group, Artifact: artifact}, nil
}

func translateFlavors(block *flavorsBlock) (*manifest.FlavorConfig, error) {
	fc := &manifest.FlavorConfig{
		Dimensions: block.Dimensions,
		Flavors:    make(map[string][]manifest.Flavor),
	}
	declared := make(map[string]bool, len(block.Dimensions))
	for _, dim := range block.Dimensions {
		declared[dim] = true
	}

	for _, fl := range block.Flavors {
		if !declared[fl.Dimension] {
			return nil, fmt.Errorf("flavor %q references undeclared dimension %q", fl.Name, fl.Dimension)
		}
		flavor := manifest.Flavor{Name: fl.Name}
		for _, dep := range fl.Dependencies {
			d, err := translateDependency(dep)
			if err != nil {
				return nil, fmt.Errorf("flavor %q: %w", fl.Name, err)
			}
			flavor.Dependencies = append(flavor.Dependencies, d)
		}
		fc.Flavors[fl.Dimension] = append(fc.Flavors[fl.Dimension], flavor)
	}

	for _, ex := range block.Excludes {
		tuple, err := ex.toMap()
		if err != nil {
			return nil, err
		}
		for dim := range tuple {
			if !declared[dim] {
				return nil, fmt.Errorf("exclude tuple references undeclared dimension %q", dim)
			}
		}
		fc.Exclude = append(fc.Exclude, tuple)
	}
	if block.Default != nil {
		tuple, err := block.Default.toMap()
		if err != nil {
			return nil, err
		}
		fc.Default = tuple
	}
	return fc, nil
}
