package maven

import "fmt"

// Scope is the visibility/propagation class of a dependency edge.
type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeProvided Scope = "provided"
	ScopeTest     Scope = "test"
)

// ParseScope validates a scope string. An empty string defaults to compile,
// matching POM semantics.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeCompile, nil
	case ScopeCompile, ScopeRuntime, ScopeProvided, ScopeTest:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown dependency scope %q", s)
	}
}

// Propagate returns the effective scope of an edge declared with scope
// `declared` underneath a node whose own incoming edge resolved to `parent`.
//
// compile edges carry their target into the consumer's compile classpath but
// their own transitives degrade to runtime; runtime stays runtime. provided
// and test never propagate past the first level, which Traversable encodes.
func Propagate(parent, declared Scope) Scope {
	switch parent {
	case ScopeCompile, ScopeRuntime:
		return ScopeRuntime
	case ScopeTest:
		return ScopeTest
	default:
		return declared
	}
}

// Traversable reports whether dependencies of a node reached through an edge
// of this effective scope belong in the graph. provided and test edges are
// honoured at the root level only.
func (s Scope) Traversable() bool {
	return s == ScopeCompile || s == ScopeRuntime
}
