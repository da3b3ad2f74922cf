// Package metadata defines the Metadata Provider boundary of the resolver:
// the interface that supplies parsed package descriptors (POM-derived
// dependency edges, managed versions) and SNAPSHOT timestamp answers, plus
// the shared single-flight descriptor cache and the concrete providers
// (HTTP repository chain, in-memory fixtures).
//
// The resolver never downloads artifacts or verifies checksums; providers
// here fetch metadata only.
package metadata
