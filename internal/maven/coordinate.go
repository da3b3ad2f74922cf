package maven

import (
	"fmt"
	"strings"
)

// Coordinate identifies a library by group and artifact, independent of
// version. It is the node identity used throughout resolution.
type Coordinate struct {
	Group    string
	Artifact string
}

// Key returns the canonical "group:artifact" form used as map keys and in
// exclusion sets.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Artifact
}

func (c Coordinate) String() string {
	return c.Key()
}

// IsZero reports whether the coordinate is empty.
func (c Coordinate) IsZero() bool {
	return c.Group == "" && c.Artifact == ""
}

// ParseCoordinate parses "group:artifact" into a Coordinate.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want group:artifact", s)
	}
	return Coordinate{Group: parts[0], Artifact: parts[1]}, nil
}

// ParseCoordinateVersion parses "group:artifact:version" into a Coordinate
// and a raw version string.
func ParseCoordinateVersion(s string) (Coordinate, string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, "", fmt.Errorf("invalid dependency %q: want group:artifact:version", s)
	}
	return Coordinate{Group: parts[0], Artifact: parts[1]}, parts[2], nil
}

// CompareCoordinates orders coordinates by group, then artifact. Used for
// deterministic lockfile output.
func CompareCoordinates(a, b Coordinate) int {
	if a.Group != b.Group {
		return strings.Compare(a.Group, b.Group)
	}
	return strings.Compare(a.Artifact, b.Artifact)
}
