package variant

import (
	"fmt"

	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
)

// DefaultProfile is used when the manifest declares no profiles.
const DefaultProfile = "default"

// Expanded pairs a variant with its merged dependency set, before catalog
// resolution and transitive expansion.
type Expanded struct {
	Variant      Variant
	Dependencies *manifest.DependencySet
}

// FlavorRef identifies a flavor-level declaration for conflict reporting.
type FlavorRef struct {
	Dimension string
	Flavor    string
	Spec      string
}

// ConflictError reports two flavors in different dimensions declaring
// non-intersecting versions for the same coordinate.
type ConflictError struct {
	Variant    Variant
	Coordinate maven.Coordinate
	First      FlavorRef
	Second     FlavorRef
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"variant %s: conflicting versions for %s: flavor %q (dimension %q) wants %s, flavor %q (dimension %q) wants %s",
		e.Variant.Name(), e.Coordinate.Key(),
		e.First.Flavor, e.First.Dimension, e.First.Spec,
		e.Second.Flavor, e.Second.Dimension, e.Second.Spec,
	)
}

// Expand computes the filtered flavor×profile cross product and merges each
// variant's dependency declarations in the fixed order: common → flavors in
// dimension declaration order → profile overrides.
func Expand(m *manifest.Manifest) ([]Expanded, error) {
	profiles := m.Profiles
	if len(profiles) == 0 {
		profiles = []manifest.Profile{{Name: DefaultProfile}}
	}

	tuples, err := flavorTuples(m.Flavors)
	if err != nil {
		return nil, err
	}

	var out []Expanded
	for _, tuple := range tuples {
		for _, profile := range profiles {
			v := Variant{Selections: tuple, Profile: profile.Name}
			deps, err := mergeDependencies(m, v, profile)
			if err != nil {
				return nil, err
			}
			out = append(out, Expanded{Variant: v, Dependencies: deps})
		}
	}
	return out, nil
}

// DefaultOf returns the variant named by the manifest's default flavor
// tuple combined with the first declared profile. It returns false when the
// manifest declares no default, or the default does not cover every
// dimension.
func DefaultOf(m *manifest.Manifest) (string, bool) {
	fc := m.Flavors
	if fc == nil || len(fc.Dimensions) == 0 || len(fc.Default) == 0 {
		return "", false
	}
	selections := make([]Selection, 0, len(fc.Dimensions))
	for _, dim := range fc.Dimensions {
		flavor, ok := fc.Default[dim]
		if !ok {
			return "", false
		}
		selections = append(selections, Selection{Dimension: dim, Flavor: flavor})
	}
	profile := DefaultProfile
	if len(m.Profiles) > 0 {
		profile = m.Profiles[0].Name
	}
	return Variant{Selections: selections, Profile: profile}.Name(), true
}

// flavorTuples returns every flavor combination in dimension declaration
// order, minus excluded tuples. Without dimensions there is exactly one
// empty tuple, the degenerate no-flavor case.
func flavorTuples(fc *manifest.FlavorConfig) ([][]Selection, error) {
	if fc == nil || len(fc.Dimensions) == 0 {
		return [][]Selection{nil}, nil
	}

	tuples := [][]Selection{nil}
	for _, dim := range fc.Dimensions {
		flavors := fc.FlavorsOf(dim)
		if len(flavors) == 0 {
			return nil, fmt.Errorf("flavor dimension %q declares no flavors", dim)
		}
		next := make([][]Selection, 0, len(tuples)*len(flavors))
		for _, tuple := range tuples {
			for _, fl := range flavors {
				grown := make([]Selection, len(tuple), len(tuple)+1)
				copy(grown, tuple)
				grown = append(grown, Selection{Dimension: dim, Flavor: fl.Name})
				next = append(next, grown)
			}
		}
		tuples = next
	}

	filtered := tuples[:0]
	for _, tuple := range tuples {
		if !excluded(tuple, fc.Exclude) {
			filtered = append(filtered, tuple)
		}
	}
	return filtered, nil
}

// excluded reports whether a tuple agrees with an exclude entry on every
// dimension the entry names.
func excluded(tuple []Selection, exclude []map[string]string) bool {
	for _, entry := range exclude {
		if len(entry) == 0 {
			continue
		}
		match := true
		for dim, flavor := range entry {
			found := false
			for _, s := range tuple {
				if s.Dimension == dim {
					found = s.Flavor == flavor
					break
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// origin tracks which flavor declared a coordinate during the flavor merge
// stage, for cross-dimension conflict reporting.
type origin struct {
	ref  FlavorRef
	spec string
}

func mergeDependencies(m *manifest.Manifest, v Variant, profile manifest.Profile) (*manifest.DependencySet, error) {
	deps := manifest.NewDependencySet(m.Dependencies...)

	origins := make(map[string]origin)
	for _, sel := range v.Selections {
		flavor, ok := lookupFlavor(m.Flavors, sel)
		if !ok {
			return nil, fmt.Errorf("flavor %q not declared in dimension %q", sel.Flavor, sel.Dimension)
		}
		for _, d := range flavor.Dependencies {
			key := d.Coordinate.Key()
			ref := FlavorRef{Dimension: sel.Dimension, Flavor: sel.Flavor, Spec: d.Version}

			prev, seen := origins[key]
			if seen && prev.ref.Dimension != sel.Dimension {
				merged, ok := reconcile(prev.spec, d.Version)
				if !ok {
					return nil, &ConflictError{
						Variant:    v,
						Coordinate: d.Coordinate,
						First:      prev.ref,
						Second:     ref,
					}
				}
				d.Version = merged
			}
			origins[key] = origin{ref: ref, spec: d.Version}
			deps.Put(d)
		}
	}

	// Profile overrides are the last merge source and always win.
	for _, d := range profile.Dependencies {
		deps.Put(d)
	}
	return deps, nil
}

// reconcile merges two version specs declared by flavors of different
// dimensions. Identical specs and catalog-deferred specs pass through;
// otherwise the specs must intersect, and the intersection becomes the
// declaration. Returns false when the intersection is empty.
func reconcile(a, b string) (string, bool) {
	if a == b {
		return b, true
	}
	// Catalog references have no version yet; the catalog resolver sees the
	// later declaration.
	if a == "" || b == "" {
		return b, true
	}
	specA, errA := maven.ParseSpec(a)
	specB, errB := maven.ParseSpec(b)
	if errA != nil || errB != nil {
		return "", false
	}
	merged := specA.AsRange().Intersect(specB.AsRange())
	if merged.IsEmpty() {
		return "", false
	}
	if merged.IsPoint() {
		return merged.Lower.Version.Original, true
	}
	return merged.String(), true
}

func lookupFlavor(fc *manifest.FlavorConfig, sel Selection) (manifest.Flavor, bool) {
	for _, fl := range fc.FlavorsOf(sel.Dimension) {
		if fl.Name == sel.Flavor {
			return fl, true
		}
	}
	return manifest.Flavor{}, false
}
