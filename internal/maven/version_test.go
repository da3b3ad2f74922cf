package maven

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOrdering(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want int
	}{
		{"basic", "1.0", "2.0", -1},
		{"patch", "1.0.0", "1.0.1", -1},
		{"minor beats patch", "1.0.1", "1.1.0", -1},
		{"trailing zeros equal", "1.0", "1.0.0", 0},
		{"alpha before beta", "1.0-alpha", "1.0-beta", -1},
		{"beta before rc", "1.0-beta", "1.0-rc", -1},
		{"rc before release", "1.0-rc", "1.0", -1},
		{"release before sp", "1.0", "1.0-sp", -1},
		{"snapshot before release", "1.0-SNAPSHOT", "1.0", -1},
		{"numeric beats text", "1.0.0", "1.0.0-jre", 1},
		{"guava style", "31.0-jre", "32.0-jre", -1},
		{"short alias a", "1.0-a1", "1.0-b1", -1},
		{"case insensitive text", "1.0-JRE", "1.0-jre", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseVersion(tc.a).Compare(ParseVersion(tc.b))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, -tc.want, ParseVersion(tc.b).Compare(ParseVersion(tc.a)))
		})
	}
}

func TestSnapshotHelpers(t *testing.T) {
	v := ParseVersion("1.0-SNAPSHOT")
	assert.True(t, v.IsSnapshot())
	assert.Equal(t, "1.0", v.BaseVersion())

	rel := ParseVersion("1.0.0")
	assert.False(t, rel.IsSnapshot())
	assert.Equal(t, "1.0.0", rel.BaseVersion())
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate("org.example:lib")
	require.NoError(t, err)
	assert.Equal(t, "org.example", c.Group)
	assert.Equal(t, "lib", c.Artifact)
	assert.Equal(t, "org.example:lib", c.Key())

	_, err = ParseCoordinate("org.example")
	assert.Error(t, err)

	coord, version, err := ParseCoordinateVersion("org.example:lib:1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "org.example:lib", coord.Key())
	assert.Equal(t, "1.2.3", version)
}

func TestScopePropagation(t *testing.T) {
	assert.Equal(t, ScopeRuntime, Propagate(ScopeCompile, ScopeCompile))
	assert.Equal(t, ScopeRuntime, Propagate(ScopeCompile, ScopeRuntime))
	assert.Equal(t, ScopeRuntime, Propagate(ScopeRuntime, ScopeCompile))
	assert.Equal(t, ScopeRuntime, Propagate(ScopeRuntime, ScopeRuntime))
	assert.Equal(t, ScopeTest, Propagate(ScopeTest, ScopeCompile))

	assert.True(t, ScopeCompile.Traversable())
	assert.True(t, ScopeRuntime.Traversable())
	assert.False(t, ScopeProvided.Traversable())
	assert.False(t, ScopeTest.Traversable())
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeCompile, s)

	_, err = ParseScope("system")
	assert.Error(t, err)
}
