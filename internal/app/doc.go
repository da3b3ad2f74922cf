// Package app wires the manifest loader, metadata provider, and resolver
// together and implements the koral subcommands on top of them.
package app
