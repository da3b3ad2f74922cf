package maven

import (
	"strconv"
	"strings"
)

// Version is a parsed Maven version with comparable segments. The original
// string is preserved for display and lockfile output.
type Version struct {
	Original string
	segments []segment
}

type segmentKind int

const (
	kindNumeric segmentKind = iota
	kindQualifier
	kindText
)

// Qualifier ranks follow Maven's ComparableVersion:
// alpha < beta < milestone < rc < snapshot < release (empty) < sp.
type qualifierRank int

const (
	rankAlpha qualifierRank = iota
	rankBeta
	rankMilestone
	rankRC
	rankSnapshot
	rankRelease
	rankSP
)

type segment struct {
	kind segmentKind
	num  uint64
	rank qualifierRank
	text string
}

// ParseVersion parses a version string into comparable segments. Parsing
// never fails: unrecognized tokens become case-insensitive text segments.
func ParseVersion(raw string) Version {
	return Version{Original: raw, segments: parseSegments(raw)}
}

// IsSnapshot reports whether this is a -SNAPSHOT version.
func (v Version) IsSnapshot() bool {
	return strings.HasSuffix(v.Original, "-SNAPSHOT")
}

// BaseVersion returns the version without the -SNAPSHOT suffix.
func (v Version) BaseVersion() string {
	return strings.TrimSuffix(v.Original, "-SNAPSHOT")
}

func (v Version) String() string {
	return v.Original
}

// Compare returns -1, 0, or 1 ordering a against b under Maven rules.
// Trailing zero/release segments compare equal to absence, so 1.0 == 1.0.0.
func (a Version) Compare(b Version) int {
	n := len(a.segments)
	if len(b.segments) > n {
		n = len(b.segments)
	}
	for i := 0; i < n; i++ {
		var sa, sb *segment
		if i < len(a.segments) {
			sa = &a.segments[i]
		}
		if i < len(b.segments) {
			sb = &b.segments[i]
		}
		if c := compareSegments(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports value equality under Maven ordering (not string equality).
func (a Version) Equal(b Version) bool {
	return a.Compare(b) == 0
}

func compareSegments(a, b *segment) int {
	switch {
	case a == nil && b == nil:
		return 0
	case b == nil:
		return compareToEmpty(a)
	case a == nil:
		return -compareToEmpty(b)
	}

	switch {
	case a.kind == kindNumeric && b.kind == kindNumeric:
		return compareUint(a.num, b.num)
	case a.kind == kindQualifier && b.kind == kindQualifier:
		return compareInt(int(a.rank), int(b.rank))
	case a.kind == kindNumeric && b.kind == kindQualifier,
		a.kind == kindNumeric && b.kind == kindText:
		return 1
	case a.kind == kindQualifier && b.kind == kindNumeric,
		a.kind == kindText && b.kind == kindNumeric:
		return -1
	case a.kind == kindText && b.kind == kindText:
		return strings.Compare(strings.ToLower(a.text), strings.ToLower(b.text))
	case a.kind == kindQualifier:
		// Release-or-later qualifiers outrank arbitrary text.
		if a.rank >= rankRelease {
			return 1
		}
		return -1
	default: // a text, b qualifier
		if b.rank >= rankRelease {
			return -1
		}
		return 1
	}
}

// compareToEmpty orders a segment against a missing one: 1.0 == 1.0.0,
// 1.0 > 1.0-alpha, 1.0-sp > 1.0.
func compareToEmpty(s *segment) int {
	switch s.kind {
	case kindNumeric:
		if s.num == 0 {
			return 0
		}
		return 1
	case kindQualifier:
		return compareInt(int(s.rank), int(rankRelease))
	default:
		if s.text == "" {
			return 0
		}
		return -1
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func parseSegments(raw string) []segment {
	var segments []segment
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		segments = append(segments, classify(current.String()))
		current.Reset()
	}
	for _, ch := range raw {
		if ch == '.' || ch == '-' {
			flush()
			continue
		}
		current.WriteRune(ch)
	}
	flush()
	return segments
}

func classify(token string) segment {
	if n, err := strconv.ParseUint(token, 10, 64); err == nil {
		return segment{kind: kindNumeric, num: n}
	}
	switch strings.ToLower(token) {
	case "alpha", "a":
		return segment{kind: kindQualifier, rank: rankAlpha}
	case "beta", "b":
		return segment{kind: kindQualifier, rank: rankBeta}
	case "milestone", "m":
		return segment{kind: kindQualifier, rank: rankMilestone}
	case "rc", "cr":
		return segment{kind: kindQualifier, rank: rankRC}
	case "snapshot":
		return segment{kind: kindQualifier, rank: rankSnapshot}
	case "", "ga", "final", "release":
		return segment{kind: kindQualifier, rank: rankRelease}
	case "sp":
		return segment{kind: kindQualifier, rank: rankSP}
	default:
		return segment{kind: kindText, text: token}
	}
}
