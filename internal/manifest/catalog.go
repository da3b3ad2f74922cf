package manifest

import "github.com/koral-build/koral/internal/maven"

// Catalog is the version catalog table (Gradle-style libs.versions.toml):
// shared version keys, library aliases, named bundles, and plugin aliases.
type Catalog struct {
	Versions  map[string]string
	Libraries map[string]CatalogLibrary
	// Bundles maps bundle name to library aliases in their defined order.
	Bundles map[string][]string
	Plugins  map[string]CatalogPlugin
}

// CatalogLibrary is one library alias in the catalog. Version and VersionRef
// are mutually exclusive.
type CatalogLibrary struct {
	Coordinate maven.Coordinate
	Version    string
	VersionRef string
}

// CatalogPlugin is one plugin alias in the catalog.
type CatalogPlugin struct {
	ID         string
	Version    string
	VersionRef string
}

// LookupVersion resolves a versions-table key.
func (c *Catalog) LookupVersion(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.Versions[key]
	return v, ok
}

// LookupLibrary resolves a library alias.
func (c *Catalog) LookupLibrary(alias string) (CatalogLibrary, bool) {
	if c == nil {
		return CatalogLibrary{}, false
	}
	l, ok := c.Libraries[alias]
	return l, ok
}

// LookupBundle resolves a bundle name to its library aliases.
func (c *Catalog) LookupBundle(name string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	b, ok := c.Bundles[name]
	return b, ok
}
