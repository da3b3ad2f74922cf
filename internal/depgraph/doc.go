// Package depgraph expands a variant's declared dependencies into the full
// transitive edge set and holds the final resolved graph.
//
// Dependency graphs are not trees: diamonds are normal and cycles must be
// rejected, so nodes live in an index-addressed arena keyed by coordinate
// identity and edges reference nodes by index. The builder records the depth
// and discovery order of every edge; the conflict mediator consumes both for
// nearest-wins tie-breaking.
package depgraph
