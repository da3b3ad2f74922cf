package depgraph

import (
	"strings"

	"github.com/koral-build/koral/internal/maven"
)

// CycleError reports a dependency cycle. Path holds the coordinates along
// the active traversal path from the first occurrence of the repeated
// coordinate back to itself, e.g. [A, B, A].
type CycleError struct {
	Path []maven.Coordinate
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, c := range e.Path {
		parts[i] = c.Key()
	}
	return "cyclic dependency: " + strings.Join(parts, " -> ")
}
