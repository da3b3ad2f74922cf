// Package mediate collapses the expanded edge set into one chosen version
// per coordinate and assembles the final resolved graph.
//
// Selection is nearest-wins over edge depth, with ties broken by discovery
// order, so the outcome depends only on manifest declaration order and never
// on fetch scheduling. Competing version ranges at the winning depth are
// intersected; an empty intersection is unresolvable.
package mediate
