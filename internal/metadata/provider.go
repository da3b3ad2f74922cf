package metadata

import (
	"context"
	"fmt"

	"github.com/koral-build/koral/internal/maven"
)

// PackageDescriptor is the parsed metadata for one (coordinate, version).
// It is immutable once returned by a provider; the resolver never mutates it.
type PackageDescriptor struct {
	Coordinate maven.Coordinate
	Version    string
	// Dependencies are the declared outgoing edges, parent-POM-resolved.
	Dependencies []DeclaredDependency
	// Managed maps "group:artifact" to the version pinned by
	// dependencyManagement, including imported BOM overrides. It fills in
	// version-less declared edges.
	Managed map[string]string
	// Source identifies the repository the descriptor came from.
	Source string

	// properties is the effective property table, carried so parent-POM
	// chains can interpolate child values. Internal to this package.
	properties map[string]string
}

// DeclaredDependency is one dependency edge as declared in package metadata.
type DeclaredDependency struct {
	Coordinate maven.Coordinate
	// Version is the raw version spec; empty when managed elsewhere.
	Version    string
	Scope      maven.Scope
	Optional   bool
	Exclusions []maven.Coordinate
}

// EffectiveVersion returns the declared version, falling back to the
// descriptor's managed versions.
func (d *PackageDescriptor) EffectiveVersion(dep DeclaredDependency) string {
	if dep.Version != "" {
		return dep.Version
	}
	return d.Managed[dep.Coordinate.Key()]
}

// Provider supplies package metadata on demand. Implementations may be slow
// and may fail; the resolver treats them as opaque collaborators.
type Provider interface {
	// Fetch returns the descriptor for an exact (coordinate, version), or a
	// *NotFoundError when no repository has it.
	Fetch(ctx context.Context, coord maven.Coordinate, version string) (*PackageDescriptor, error)
	// LatestSnapshot resolves a -SNAPSHOT version to its latest timestamped
	// build identifier.
	LatestSnapshot(ctx context.Context, coord maven.Coordinate, baseVersion string) (string, error)
}

// NotFoundError reports that no repository could supply a descriptor.
type NotFoundError struct {
	Coordinate maven.Coordinate
	Version    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no metadata found for %s:%s", e.Coordinate.Key(), e.Version)
}

// FetchError wraps a provider failure with the coordinate that requested it,
// per the propagation policy: collaborator failures travel verbatim with
// requesting context attached.
type FetchError struct {
	Coordinate maven.Coordinate
	Version    string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching metadata for %s:%s: %v", e.Coordinate.Key(), e.Version, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
