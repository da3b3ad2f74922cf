package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
)

const libPOM = `<?xml version="1.0"?>
<project>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <version>1.0</version>
  <parent>
    <groupId>org.example</groupId>
    <artifactId>parent</artifactId>
    <version>7</version>
  </parent>
  <properties>
    <core.version>2.5</core.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>core</artifactId>
      <version>${core.version}</version>
    </dependency>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>managed</artifactId>
    </dependency>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>extra</artifactId>
      <version>1.1</version>
      <scope>runtime</scope>
      <optional>true</optional>
      <exclusions>
        <exclusion>
          <groupId>org.excluded</groupId>
          <artifactId>noisy</artifactId>
        </exclusion>
      </exclusions>
    </dependency>
  </dependencies>
</project>`

const parentPOM = `<?xml version="1.0"?>
<project>
  <groupId>org.example</groupId>
  <artifactId>parent</artifactId>
  <version>7</version>
  <properties>
    <managed.version>3.3</managed.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.example</groupId>
        <artifactId>managed</artifactId>
        <version>${managed.version}</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`

const snapshotMetadata = `<?xml version="1.0"?>
<metadata>
  <groupId>org.example</groupId>
  <artifactId>lib</artifactId>
  <version>2.0-SNAPSHOT</version>
  <versioning>
    <snapshot>
      <timestamp>20260214.093000</timestamp>
      <buildNumber>5</buildNumber>
    </snapshot>
  </versioning>
</metadata>`

func newTestRepo(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProviderFetch(t *testing.T) {
	srv := newTestRepo(t, map[string]string{
		"/org/example/lib/1.0/lib-1.0.pom":   libPOM,
		"/org/example/parent/7/parent-7.pom": parentPOM,
	})
	provider := NewHTTPProvider([]manifest.Repository{{Name: "test", URL: srv.URL}})
	defer provider.Close()

	desc, err := provider.Fetch(context.Background(), coord("org.example:lib"), "1.0")
	require.NoError(t, err)
	assert.Equal(t, "org.example:lib", desc.Coordinate.Key())
	assert.Equal(t, "1.0", desc.Version)
	assert.Equal(t, srv.URL, desc.Source)
	require.Len(t, desc.Dependencies, 3)

	core := desc.Dependencies[0]
	assert.Equal(t, "org.example:core", core.Coordinate.Key())
	assert.Equal(t, "2.5", core.Version, "property interpolation")
	assert.Equal(t, maven.ScopeCompile, core.Scope)

	managed := desc.Dependencies[1]
	assert.Empty(t, managed.Version)
	assert.Equal(t, "3.3", desc.EffectiveVersion(managed), "parent dependencyManagement fills version")

	extra := desc.Dependencies[2]
	assert.Equal(t, maven.ScopeRuntime, extra.Scope)
	assert.True(t, extra.Optional)
	require.Len(t, extra.Exclusions, 1)
	assert.Equal(t, "org.excluded:noisy", extra.Exclusions[0].Key())
}

func TestHTTPProviderFirstRepositoryWins(t *testing.T) {
	miss := newTestRepo(t, nil)
	hit := newTestRepo(t, map[string]string{
		"/org/example/lib/1.0/lib-1.0.pom": `<project><groupId>org.example</groupId><artifactId>lib</artifactId><version>1.0</version></project>`,
	})
	provider := NewHTTPProvider([]manifest.Repository{
		{Name: "first", URL: miss.URL},
		{Name: "second", URL: hit.URL},
	})
	defer provider.Close()

	desc, err := provider.Fetch(context.Background(), coord("org.example:lib"), "1.0")
	require.NoError(t, err)
	assert.Equal(t, hit.URL, desc.Source)
}

func TestHTTPProviderNotFound(t *testing.T) {
	srv := newTestRepo(t, nil)
	provider := NewHTTPProvider(nil)
	defer provider.Close()
	// Only the test repository: Maven Central must not be consulted from tests.
	provider.repos = []manifest.Repository{{Name: "test", URL: srv.URL}}
	_, err := provider.Fetch(context.Background(), coord("org.example:gone"), "1.0")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "org.example:gone", notFound.Coordinate.Key())
}

func TestHTTPProviderLatestSnapshot(t *testing.T) {
	srv := newTestRepo(t, map[string]string{
		"/org/example/lib/2.0-SNAPSHOT/maven-metadata.xml": snapshotMetadata,
	})
	provider := NewHTTPProvider([]manifest.Repository{{Name: "test", URL: srv.URL}})
	defer provider.Close()

	v, err := provider.LatestSnapshot(context.Background(), coord("org.example:lib"), "2.0")
	require.NoError(t, err)
	assert.Equal(t, "2.0-20260214.093000-5", v)
}

func TestInterpolate(t *testing.T) {
	props := map[string]string{"a": "1", "b.c": "2"}
	assert.Equal(t, "1-2", interpolate("${a}-${b.c}", props))
	assert.Equal(t, "plain", interpolate("plain", props))
	assert.Equal(t, "${missing}", interpolate("${missing}", props))
}
