package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
)

func decl(key, version string) manifest.Declaration {
	c, err := maven.ParseCoordinate(key)
	if err != nil {
		panic(err)
	}
	return manifest.Declaration{Coordinate: c, Version: version, Scope: maven.ScopeCompile}
}

func TestExpandNoDimensions(t *testing.T) {
	m := &manifest.Manifest{
		Dependencies: []manifest.Declaration{decl("org.example:core", "1.0")},
		Profiles: []manifest.Profile{
			{Name: "debug"},
			{Name: "release"},
		},
	}

	expanded, err := Expand(m)
	require.NoError(t, err)
	require.Len(t, expanded, 2)
	assert.Equal(t, "debug", expanded[0].Variant.Name())
	assert.Equal(t, "release", expanded[1].Variant.Name())
	assert.Equal(t, 1, expanded[0].Dependencies.Len())
}

func TestExpandDefaultProfile(t *testing.T) {
	expanded, err := Expand(&manifest.Manifest{})
	require.NoError(t, err)
	require.Len(t, expanded, 1)
	assert.Equal(t, DefaultProfile, expanded[0].Variant.Name())
}

func TestExpandCrossProductAndNaming(t *testing.T) {
	m := &manifest.Manifest{
		Flavors: &manifest.FlavorConfig{
			Dimensions: []string{"tier", "environment"},
			Flavors: map[string][]manifest.Flavor{
				"tier":        {{Name: "free"}, {Name: "paid"}},
				"environment": {{Name: "staging"}, {Name: "production"}},
			},
		},
		Profiles: []manifest.Profile{{Name: "debug"}, {Name: "release"}},
	}

	expanded, err := Expand(m)
	require.NoError(t, err)
	require.Len(t, expanded, 8)

	names := make([]string, len(expanded))
	for i, e := range expanded {
		names[i] = e.Variant.Name()
	}
	// Dimension declaration order is authoritative for naming and ordering.
	assert.Equal(t, []string{
		"free-staging-debug", "free-staging-release",
		"free-production-debug", "free-production-release",
		"paid-staging-debug", "paid-staging-release",
		"paid-production-debug", "paid-production-release",
	}, names)

	assert.Equal(t, "freeStagingDebug", expanded[0].Variant.CamelName())
}

func TestExpandExcludeTuples(t *testing.T) {
	m := &manifest.Manifest{
		Flavors: &manifest.FlavorConfig{
			Dimensions: []string{"tier", "environment"},
			Flavors: map[string][]manifest.Flavor{
				"tier":        {{Name: "free"}, {Name: "paid"}},
				"environment": {{Name: "staging"}, {Name: "production"}},
			},
			Exclude: []map[string]string{
				{"tier": "free", "environment": "production"},
			},
		},
	}

	expanded, err := Expand(m)
	require.NoError(t, err)
	require.Len(t, expanded, 3)
	for _, e := range expanded {
		assert.NotEqual(t, "free-production-default", e.Variant.Name())
	}
}

func TestExpandMergeOrder(t *testing.T) {
	m := &manifest.Manifest{
		Dependencies: []manifest.Declaration{
			decl("org.example:core", "1.0"),
			decl("org.example:common-only", "1.0"),
		},
		Flavors: &manifest.FlavorConfig{
			Dimensions: []string{"tier"},
			Flavors: map[string][]manifest.Flavor{
				"tier": {
					{Name: "free"},
					{Name: "paid", Dependencies: []manifest.Declaration{
						decl("org.example:core", "2.0"),
						decl("org.example:paid-extra", "1.0"),
					}},
				},
			},
		},
		Profiles: []manifest.Profile{
			{Name: "debug"},
			{Name: "release", Dependencies: []manifest.Declaration{
				decl("org.example:core", "3.0"),
			}},
		},
	}

	expanded, err := Expand(m)
	require.NoError(t, err)
	byName := make(map[string]*manifest.DependencySet)
	for _, e := range expanded {
		byName[e.Variant.Name()] = e.Dependencies
	}

	free, ok := byName["free-debug"]
	require.True(t, ok)
	core, _ := free.Get("org.example:core")
	assert.Equal(t, "1.0", core.Version)

	paid := byName["paid-debug"]
	core, _ = paid.Get("org.example:core")
	assert.Equal(t, "2.0", core.Version, "flavor overrides common")
	_, hasExtra := paid.Get("org.example:paid-extra")
	assert.True(t, hasExtra)

	paidRelease := byName["paid-release"]
	core, _ = paidRelease.Get("org.example:core")
	assert.Equal(t, "3.0", core.Version, "profile overrides flavor")

	// Override keeps the original declaration position.
	assert.Equal(t, "org.example:core", paidRelease.Declarations()[0].Coordinate.Key())
}

func TestExpandCrossDimensionConflict(t *testing.T) {
	m := &manifest.Manifest{
		Flavors: &manifest.FlavorConfig{
			Dimensions: []string{"tier", "environment"},
			Flavors: map[string][]manifest.Flavor{
				"tier": {
					{Name: "paid", Dependencies: []manifest.Declaration{decl("org.example:lib", "1.0")}},
				},
				"environment": {
					{Name: "production", Dependencies: []manifest.Declaration{decl("org.example:lib", "2.0")}},
				},
			},
		},
	}

	_, err := Expand(m)
	require.Error(t, err)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "org.example:lib", conflict.Coordinate.Key())
	assert.Equal(t, "paid", conflict.First.Flavor)
	assert.Equal(t, "tier", conflict.First.Dimension)
	assert.Equal(t, "production", conflict.Second.Flavor)
	assert.Equal(t, "environment", conflict.Second.Dimension)
	assert.Contains(t, err.Error(), "paid")
	assert.Contains(t, err.Error(), "production")
}

func TestExpandCrossDimensionIntersection(t *testing.T) {
	m := &manifest.Manifest{
		Flavors: &manifest.FlavorConfig{
			Dimensions: []string{"tier", "environment"},
			Flavors: map[string][]manifest.Flavor{
				"tier": {
					{Name: "paid", Dependencies: []manifest.Declaration{decl("org.example:lib", "[1.0,3.0]")}},
				},
				"environment": {
					{Name: "production", Dependencies: []manifest.Declaration{decl("org.example:lib", "2.5")}},
				},
			},
		},
	}

	expanded, err := Expand(m)
	require.NoError(t, err)
	require.Len(t, expanded, 1)
	lib, ok := expanded[0].Dependencies.Get("org.example:lib")
	require.True(t, ok)
	assert.Equal(t, "2.5", lib.Version, "exact version inside the range wins as the point intersection")
}

func TestDefaultOf(t *testing.T) {
	m := &manifest.Manifest{
		Flavors: &manifest.FlavorConfig{
			Dimensions: []string{"tier", "environment"},
			Flavors: map[string][]manifest.Flavor{
				"tier":        {{Name: "free"}, {Name: "paid"}},
				"environment": {{Name: "staging"}, {Name: "production"}},
			},
			Default: map[string]string{"tier": "free", "environment": "staging"},
		},
		Profiles: []manifest.Profile{{Name: "debug"}, {Name: "release"}},
	}

	name, ok := DefaultOf(m)
	require.True(t, ok)
	assert.Equal(t, "free-staging-debug", name, "default tuple plus first profile")

	// An incomplete default tuple is no default at all.
	m.Flavors.Default = map[string]string{"tier": "free"}
	_, ok = DefaultOf(m)
	assert.False(t, ok)

	_, ok = DefaultOf(&manifest.Manifest{})
	assert.False(t, ok)
}
