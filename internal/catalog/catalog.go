// Package catalog resolves version-catalog indirections (library aliases,
// version.ref keys, bundles) into concrete coordinates and version specs
// before graph building.
package catalog

import (
	"fmt"

	"github.com/koral-build/koral/internal/manifest"
)

// RefNotFoundError reports a catalog key that a declaration references but
// the catalog does not define.
type RefNotFoundError struct {
	// Kind is the catalog table the key was missing from: "libraries",
	// "versions", or "bundles".
	Kind  string
	Key   string
	Alias string
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("catalog has no %s entry %q (referenced by dependency %q)", e.Kind, e.Key, e.Alias)
}

// Resolve replaces every catalog indirection in the set with concrete
// coordinates and versions. Bundles expand in their defined order. The input
// set is not modified.
func Resolve(deps *manifest.DependencySet, cat *manifest.Catalog) (*manifest.DependencySet, error) {
	out := manifest.NewDependencySet()
	for _, d := range deps.Declarations() {
		switch {
		case d.Bundle:
			aliases, ok := cat.LookupBundle(d.CatalogRef)
			if !ok {
				return nil, &RefNotFoundError{Kind: "bundles", Key: d.CatalogRef, Alias: d.Alias}
			}
			for _, alias := range aliases {
				resolved, err := resolveLibrary(cat, alias, d)
				if err != nil {
					return nil, err
				}
				out.Put(resolved)
			}
		case d.CatalogRef != "":
			resolved, err := resolveLibrary(cat, d.CatalogRef, d)
			if err != nil {
				return nil, err
			}
			out.Put(resolved)
		case d.VersionRef != "":
			version, ok := cat.LookupVersion(d.VersionRef)
			if !ok {
				return nil, &RefNotFoundError{Kind: "versions", Key: d.VersionRef, Alias: d.Alias}
			}
			d.Version = version
			d.VersionRef = ""
			out.Put(d)
		default:
			out.Put(d)
		}
	}
	return out, nil
}

// resolveLibrary turns a catalog library alias into a concrete declaration,
// inheriting scope/optional/exclusions from the referencing declaration.
func resolveLibrary(cat *manifest.Catalog, alias string, ref manifest.Declaration) (manifest.Declaration, error) {
	lib, ok := cat.LookupLibrary(alias)
	if !ok {
		return manifest.Declaration{}, &RefNotFoundError{Kind: "libraries", Key: alias, Alias: ref.Alias}
	}
	version := lib.Version
	if lib.VersionRef != "" {
		v, ok := cat.LookupVersion(lib.VersionRef)
		if !ok {
			return manifest.Declaration{}, &RefNotFoundError{Kind: "versions", Key: lib.VersionRef, Alias: alias}
		}
		version = v
	}
	return manifest.Declaration{
		Alias:      alias,
		Coordinate: lib.Coordinate,
		Version:    version,
		Scope:      ref.Scope,
		Optional:   ref.Optional,
		Exclusions: ref.Exclusions,
	}, nil
}
