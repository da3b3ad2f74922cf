package mediate

import (
	"fmt"
	"strings"

	"github.com/koral-build/koral/internal/maven"
)

// VersionConflict records one coordinate that required mediation: every
// requested spec with its declaration path, the version that won, and why.
type VersionConflict struct {
	Coordinate maven.Coordinate
	Resolved   string
	Reason     string
	Requested  []Candidate
}

// ConflictReport lists the conflicts mediated away for one variant.
type ConflictReport struct {
	Variant   string
	Conflicts []VersionConflict
}

// Empty reports whether mediation was conflict-free.
func (r *ConflictReport) Empty() bool {
	return len(r.Conflicts) == 0
}

// String renders the report for CLI output.
func (r *ConflictReport) String() string {
	if r.Empty() {
		return fmt.Sprintf("variant %s: no version conflicts\n", r.Variant)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "variant %s: %d version conflict(s)\n", r.Variant, len(r.Conflicts))
	for _, c := range r.Conflicts {
		fmt.Fprintf(&sb, "%s -> %s (%s)\n", c.Coordinate.Key(), c.Resolved, c.Reason)
		for _, req := range c.Requested {
			marker := "rejected"
			if req.Spec.Raw == c.Resolved ||
				(req.Spec.Exact != nil && req.Spec.Exact.Original == c.Resolved) {
				marker = "selected"
			}
			fmt.Fprintf(&sb, "  %-8s %s via %s (depth %d)\n", marker, req.Spec.Raw, req.Path, req.Depth)
		}
	}
	return sb.String()
}

// reportConflict builds the report entry for a coordinate, or nil when every
// candidate asked for the same thing.
func reportConflict(coord maven.Coordinate, candidates []Candidate, resolved, reason string) *VersionConflict {
	distinct := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		distinct[c.Spec.Raw] = true
	}
	if len(distinct) < 2 {
		return nil
	}
	return &VersionConflict{
		Coordinate: coord,
		Resolved:   resolved,
		Reason:     reason,
		Requested:  candidates,
	}
}
