package maven

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	t.Run("inclusive both ends", func(t *testing.T) {
		r, err := ParseRange("[1.0,2.0]")
		require.NoError(t, err)
		assert.True(t, r.Contains(ParseVersion("1.0")))
		assert.True(t, r.Contains(ParseVersion("1.5")))
		assert.True(t, r.Contains(ParseVersion("2.0")))
		assert.False(t, r.Contains(ParseVersion("0.9")))
		assert.False(t, r.Contains(ParseVersion("2.1")))
	})

	t.Run("exclusive upper", func(t *testing.T) {
		r, err := ParseRange("[1.0,2.0)")
		require.NoError(t, err)
		assert.True(t, r.Contains(ParseVersion("1.9.9")))
		assert.False(t, r.Contains(ParseVersion("2.0")))
	})

	t.Run("open lower", func(t *testing.T) {
		r, err := ParseRange("(,2.0)")
		require.NoError(t, err)
		assert.True(t, r.Contains(ParseVersion("0.1")))
		assert.False(t, r.Contains(ParseVersion("2.0")))
	})

	t.Run("open upper", func(t *testing.T) {
		r, err := ParseRange("[1.0,]")
		require.NoError(t, err)
		assert.True(t, r.Contains(ParseVersion("99.0")))
		assert.False(t, r.Contains(ParseVersion("0.9")))
	})

	t.Run("exact pin", func(t *testing.T) {
		r, err := ParseRange("[1.5]")
		require.NoError(t, err)
		assert.True(t, r.IsPoint())
		assert.True(t, r.Contains(ParseVersion("1.5")))
		assert.False(t, r.Contains(ParseVersion("1.4")))
		assert.False(t, r.Contains(ParseVersion("1.6")))
	})

	t.Run("malformed", func(t *testing.T) {
		for _, s := range []string{"1.0,2.0", "[,]", "(1.5)", "[", ""} {
			_, err := ParseRange(s)
			assert.Error(t, err, "expected error for %q", s)
		}
	})
}

func TestRangeIntersect(t *testing.T) {
	mustRange := func(s string) *Range {
		r, err := ParseRange(s)
		require.NoError(t, err)
		return r
	}

	t.Run("overlapping", func(t *testing.T) {
		got := mustRange("[1.0,3.0]").Intersect(mustRange("[2.0,4.0]"))
		assert.False(t, got.IsEmpty())
		assert.True(t, got.Contains(ParseVersion("2.5")))
		assert.False(t, got.Contains(ParseVersion("1.5")))
		assert.False(t, got.Contains(ParseVersion("3.5")))
	})

	t.Run("disjoint is empty", func(t *testing.T) {
		got := mustRange("[1.0,2.0)").Intersect(mustRange("[2.0,3.0]"))
		assert.True(t, got.IsEmpty())
	})

	t.Run("touching inclusive is a point", func(t *testing.T) {
		got := mustRange("[1.0,2.0]").Intersect(mustRange("[2.0,3.0]"))
		assert.False(t, got.IsEmpty())
		assert.True(t, got.IsPoint())
		assert.True(t, got.Contains(ParseVersion("2.0")))
	})

	t.Run("exclusive bound wins tie", func(t *testing.T) {
		got := mustRange("[1.0,2.0)").Intersect(mustRange("[1.0,2.0]"))
		assert.False(t, got.Contains(ParseVersion("2.0")))
	})

	t.Run("with unbounded side", func(t *testing.T) {
		got := mustRange("[1.0,]").Intersect(mustRange("(,2.0]"))
		assert.True(t, got.Contains(ParseVersion("1.0")))
		assert.True(t, got.Contains(ParseVersion("2.0")))
		assert.False(t, got.Contains(ParseVersion("2.1")))
	})
}

func TestVersionSpec(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		s, err := ParseSpec("1.2.3")
		require.NoError(t, err)
		assert.False(t, s.IsRange())
		require.NotNil(t, s.Exact)
		assert.Equal(t, "1.2.3", s.Exact.Original)
		assert.True(t, s.AsRange().IsPoint())
	})

	t.Run("range", func(t *testing.T) {
		s, err := ParseSpec("[1.0,2.0)")
		require.NoError(t, err)
		assert.True(t, s.IsRange())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseSpec("  ")
		assert.Error(t, err)
	})
}
