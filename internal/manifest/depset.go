package manifest

import (
	"sort"
	"strings"
)

// DependencySet is an ordered, coordinate-keyed collection of declarations.
// Insertion order is preserved because it drives mediation tie-breaking;
// re-adding a coordinate overrides its declaration in place.
type DependencySet struct {
	decls []Declaration
	index map[string]int
}

// NewDependencySet builds a set from declarations in order.
func NewDependencySet(decls ...Declaration) *DependencySet {
	s := &DependencySet{index: make(map[string]int)}
	for _, d := range decls {
		s.Put(d)
	}
	return s
}

// Put adds a declaration, or overrides the existing declaration for the same
// coordinate while keeping its original position.
func (s *DependencySet) Put(d Declaration) {
	key := s.keyOf(d)
	if i, ok := s.index[key]; ok {
		s.decls[i] = d
		return
	}
	s.index[key] = len(s.decls)
	s.decls = append(s.decls, d)
}

// Get returns the declaration for a coordinate key ("group:artifact").
func (s *DependencySet) Get(key string) (Declaration, bool) {
	i, ok := s.index[key]
	if !ok {
		return Declaration{}, false
	}
	return s.decls[i], true
}

// Declarations returns the declarations in insertion order. The returned
// slice must not be mutated.
func (s *DependencySet) Declarations() []Declaration {
	return s.decls
}

// Len returns the number of declarations.
func (s *DependencySet) Len() int {
	return len(s.decls)
}

// Clone returns an independent copy.
func (s *DependencySet) Clone() *DependencySet {
	out := &DependencySet{
		decls: make([]Declaration, len(s.decls)),
		index: make(map[string]int, len(s.index)),
	}
	copy(out.decls, s.decls)
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// keyOf keys catalog-style declarations by their alias until the catalog
// resolver replaces them with concrete coordinates.
func (s *DependencySet) keyOf(d Declaration) string {
	if d.Coordinate.IsZero() {
		return "alias:" + d.Alias
	}
	return d.Coordinate.Key()
}

// Fingerprint returns a canonical, order-independent text rendering of the
// set, used for lock staleness hashing. Coordinates are sorted so the
// fingerprint is stable under manifest reordering that does not change
// meaning for staleness purposes.
func (s *DependencySet) Fingerprint() string {
	lines := make([]string, 0, len(s.decls))
	for _, d := range s.decls {
		var sb strings.Builder
		sb.WriteString(d.Coordinate.Key())
		sb.WriteByte('@')
		sb.WriteString(d.Version)
		sb.WriteByte('|')
		sb.WriteString(string(d.Scope))
		if d.Optional {
			sb.WriteString("|optional")
		}
		if len(d.Exclusions) > 0 {
			excl := make([]string, len(d.Exclusions))
			for i, e := range d.Exclusions {
				excl[i] = e.Key()
			}
			sort.Strings(excl)
			sb.WriteString("|excl:")
			sb.WriteString(strings.Join(excl, ","))
		}
		lines = append(lines, sb.String())
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
