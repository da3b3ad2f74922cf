// Package variant expands flavor dimensions and build profiles into the
// ordered list of build variants, each with its merged dependency set.
// Dimension declaration order is authoritative: it drives variant naming and
// the dependency merge order that later feeds mediation tie-breaking.
package variant
