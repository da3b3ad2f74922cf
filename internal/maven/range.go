package maven

import (
	"fmt"
	"strings"
)

// Bound is one end of a version range.
type Bound struct {
	Version   Version
	Inclusive bool
}

// Range is a Maven version range with optional lower/upper bounds.
// Supported forms: [1.0,2.0), [1.0,], (,2.0), [1.0] (exact point).
type Range struct {
	Lower *Bound
	Upper *Bound
}

// VersionSpec is a declared version requirement: either an exact version or
// a bracketed range. Exact versions behave as the point range [v,v] when
// intersected with competing ranges.
type VersionSpec struct {
	Raw   string
	Exact *Version
	Range *Range
}

// ParseSpec parses a version declaration. Bracketed strings become ranges,
// anything else is an exact version.
func ParseSpec(raw string) (VersionSpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return VersionSpec{}, fmt.Errorf("empty version spec")
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(") {
		r, err := ParseRange(s)
		if err != nil {
			return VersionSpec{}, err
		}
		return VersionSpec{Raw: s, Range: r}, nil
	}
	v := ParseVersion(s)
	return VersionSpec{Raw: s, Exact: &v}, nil
}

// IsRange reports whether the spec is a bracketed range.
func (s VersionSpec) IsRange() bool {
	return s.Range != nil
}

// AsRange returns the spec as a range, converting exact versions to their
// single-point range.
func (s VersionSpec) AsRange() *Range {
	if s.Range != nil {
		return s.Range
	}
	b := Bound{Version: *s.Exact, Inclusive: true}
	return &Range{Lower: &b, Upper: &b}
}

func (s VersionSpec) String() string {
	return s.Raw
}

// ParseRange parses a bracketed Maven range expression.
func ParseRange(spec string) (*Range, error) {
	s := strings.TrimSpace(spec)
	if len(s) < 3 {
		return nil, fmt.Errorf("invalid version range %q", spec)
	}
	var lowerInclusive, upperInclusive bool
	switch s[0] {
	case '[':
		lowerInclusive = true
	case '(':
		lowerInclusive = false
	default:
		return nil, fmt.Errorf("invalid version range %q: must start with '[' or '('", spec)
	}
	switch s[len(s)-1] {
	case ']':
		upperInclusive = true
	case ')':
		upperInclusive = false
	default:
		return nil, fmt.Errorf("invalid version range %q: must end with ']' or ')'", spec)
	}

	inner := s[1 : len(s)-1]
	lowerRaw, upperRaw, hasComma := strings.Cut(inner, ",")
	if !hasComma {
		// [1.0] pins exactly 1.0.
		if !lowerInclusive || !upperInclusive {
			return nil, fmt.Errorf("invalid version range %q: exact pin must use brackets", spec)
		}
		v := ParseVersion(strings.TrimSpace(inner))
		b := Bound{Version: v, Inclusive: true}
		return &Range{Lower: &b, Upper: &b}, nil
	}

	r := &Range{}
	if lr := strings.TrimSpace(lowerRaw); lr != "" {
		r.Lower = &Bound{Version: ParseVersion(lr), Inclusive: lowerInclusive}
	}
	if ur := strings.TrimSpace(upperRaw); ur != "" {
		r.Upper = &Bound{Version: ParseVersion(ur), Inclusive: upperInclusive}
	}
	if r.Lower == nil && r.Upper == nil {
		return nil, fmt.Errorf("invalid version range %q: no bounds", spec)
	}
	return r, nil
}

// Contains reports whether a version lies within the range.
func (r *Range) Contains(v Version) bool {
	if r.Lower != nil {
		c := v.Compare(r.Lower.Version)
		if c < 0 || (c == 0 && !r.Lower.Inclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c := v.Compare(r.Upper.Version)
		if c > 0 || (c == 0 && !r.Upper.Inclusive) {
			return false
		}
	}
	return true
}

// IsPoint reports whether the range admits exactly one version.
func (r *Range) IsPoint() bool {
	return r.Lower != nil && r.Upper != nil &&
		r.Lower.Inclusive && r.Upper.Inclusive &&
		r.Lower.Version.Equal(r.Upper.Version)
}

// IsEmpty reports whether no version can satisfy the range.
func (r *Range) IsEmpty() bool {
	if r.Lower == nil || r.Upper == nil {
		return false
	}
	c := r.Lower.Version.Compare(r.Upper.Version)
	if c > 0 {
		return true
	}
	return c == 0 && !(r.Lower.Inclusive && r.Upper.Inclusive)
}

// Intersect returns the intersection of two ranges, which may be empty
// (check IsEmpty). This is pure interval algebra over the Maven ordering.
func (r *Range) Intersect(other *Range) *Range {
	out := &Range{Lower: tighterLower(r.Lower, other.Lower), Upper: tighterUpper(r.Upper, other.Upper)}
	return out
}

func tighterLower(a, b *Bound) *Bound {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	c := a.Version.Compare(b.Version)
	switch {
	case c > 0:
		return a
	case c < 0:
		return b
	case !a.Inclusive:
		return a
	default:
		return b
	}
}

func tighterUpper(a, b *Bound) *Bound {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	c := a.Version.Compare(b.Version)
	switch {
	case c < 0:
		return a
	case c > 0:
		return b
	case !a.Inclusive:
		return a
	default:
		return b
	}
}

func (r *Range) String() string {
	var sb strings.Builder
	if r.Lower != nil && r.Lower.Inclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if r.Lower != nil {
		sb.WriteString(r.Lower.Version.Original)
	}
	if r.IsPoint() {
		sb.WriteByte(']')
		return sb.String()
	}
	sb.WriteByte(',')
	if r.Upper != nil {
		sb.WriteString(r.Upper.Version.Original)
	}
	if r.Upper != nil && r.Upper.Inclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}
