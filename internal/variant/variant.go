package variant

import (
	"strings"
	"unicode"
)

// Selection is one chosen flavor within a dimension.
type Selection struct {
	Dimension string
	Flavor    string
}

// Variant is one concrete build variant: one flavor per declared dimension
// (in dimension declaration order) plus a profile.
type Variant struct {
	Selections []Selection
	Profile    string
}

// Name returns the kebab-case variant name, e.g. "free-staging-release".
func (v Variant) Name() string {
	parts := make([]string, 0, len(v.Selections)+1)
	for _, s := range v.Selections {
		parts = append(parts, s.Flavor)
	}
	parts = append(parts, v.Profile)
	return strings.Join(parts, "-")
}

// CamelName returns the camelCase variant name, e.g. "freeStagingRelease".
func (v Variant) CamelName() string {
	var sb strings.Builder
	write := func(part string) {
		if sb.Len() == 0 {
			sb.WriteString(part)
			return
		}
		for i, r := range part {
			if i == 0 {
				sb.WriteRune(unicode.ToUpper(r))
				continue
			}
			sb.WriteString(part[i:])
			break
		}
	}
	for _, s := range v.Selections {
		write(s.Flavor)
	}
	write(v.Profile)
	return sb.String()
}

// Flavor returns the selected flavor for a dimension, or "".
func (v Variant) Flavor(dimension string) string {
	for _, s := range v.Selections {
		if s.Dimension == dimension {
			return s.Flavor
		}
	}
	return ""
}

func (v Variant) String() string {
	return v.Name()
}
