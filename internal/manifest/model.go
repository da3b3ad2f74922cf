package manifest

import (
	"github.com/koral-build/koral/internal/maven"
)

// Manifest is the parsed build manifest for one project.
type Manifest struct {
	Project      Project
	Dependencies []Declaration
	Repositories []Repository
	Flavors      *FlavorConfig
	// Profiles lists build profiles in declaration order (e.g. debug,
	// release). An empty list implies the single implicit "default" profile.
	Profiles []Profile
	Catalog  *Catalog
}

// Project identifies the project being built.
type Project struct {
	Group   string
	Name    string
	Version string
}

// Repository is a named package repository, tried in declaration order.
type Repository struct {
	Name string
	URL  string
}

// Declaration is one declared dependency, before catalog resolution.
// Exactly one of Version, CatalogRef, or Bundle is set for catalog-style
// declarations; plain declarations carry Coordinate and Version.
type Declaration struct {
	// Alias is the manifest-level name of the declaration, used in
	// catalog-related error messages.
	Alias      string
	Coordinate maven.Coordinate
	// Version is the raw VersionSpec string (exact, range, or empty when
	// the version comes from the catalog or managed dependencies).
	Version string
	// CatalogRef names a catalog library entry this declaration points at.
	CatalogRef string
	// VersionRef names a catalog versions entry overriding Version.
	VersionRef string
	// Bundle marks the declaration as a catalog bundle expansion.
	Bundle     bool
	Scope      maven.Scope
	Optional   bool
	Exclusions []maven.Coordinate
}

// Profile is a named build profile with optional dependency overrides.
type Profile struct {
	Name         string
	Dependencies []Declaration
}

// FlavorConfig declares flavor dimensions, their flavors, exclusions, and
// the optional default tuple.
type FlavorConfig struct {
	// Dimensions in declaration order. The order is authoritative for
	// variant naming and for dependency merge order.
	Dimensions []string
	// Flavors maps dimension name to that dimension's flavors, each in
	// declaration order.
	Flavors map[string][]Flavor
	// Exclude removes exact flavor tuples (dimension → flavor) from the
	// variant cross product.
	Exclude []map[string]string
	// Default optionally names the default flavor per dimension.
	Default map[string]string
}

// Flavor is a single flavor within a dimension, with its extra dependency
// declarations.
type Flavor struct {
	Name         string
	Dependencies []Declaration
}

// FlavorsOf returns the flavors of one dimension in declaration order.
func (fc *FlavorConfig) FlavorsOf(dimension string) []Flavor {
	if fc == nil {
		return nil
	}
	return fc.Flavors[dimension]
}
