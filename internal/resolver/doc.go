// Package resolver drives the full per-variant pipeline: variant expansion,
// catalog resolution, graph building, conflict mediation, and final
// validation.
//
// Variants resolve independently and in parallel; the shared descriptor
// cache is the only synchronization point. A fatal error aborts its own
// variant and leaves siblings running to their own terminal state.
package resolver
