package manifest

import "context"

// Loader is the interface for a format-specific manifest loader. It reads a
// build manifest (and, when referenced, its version catalog) from disk and
// translates it into the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, manifestPath string) (*Manifest, error)
}
