package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/koral-build/koral/internal/ctxlog"
	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
)

// MavenCentralURL is appended to the repository chain when the manifest does
// not already name it.
const MavenCentralURL = "https://repo.maven.apache.org/maven2"

// maxParentDepth bounds parent-POM chains so a malformed repository cannot
// recurse forever.
const maxParentDepth = 16

// HTTPProvider fetches POMs and maven-metadata.xml over HTTP from an ordered
// repository chain; the first repository that has the file wins.
type HTTPProvider struct {
	repos  []manifest.Repository
	client *resty.Client
}

// NewHTTPProvider builds a provider over the manifest's repositories,
// ensuring Maven Central is present.
func NewHTTPProvider(repos []manifest.Repository) *HTTPProvider {
	out := make([]manifest.Repository, 0, len(repos)+1)
	hasCentral := false
	for _, r := range repos {
		r.URL = strings.TrimRight(r.URL, "/")
		if strings.Contains(r.URL, "repo.maven.apache.org") {
			hasCentral = true
		}
		out = append(out, r)
	}
	if !hasCentral {
		out = append(out, manifest.Repository{Name: "central", URL: MavenCentralURL})
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetHeader("User-Agent", "koral")

	return &HTTPProvider{repos: out, client: client}
}

var _ Provider = (*HTTPProvider)(nil)

// Close releases the underlying HTTP client.
func (p *HTTPProvider) Close() error {
	return p.client.Close()
}

// Fetch implements Provider: walk the repository chain, parse the first POM
// found, and fold in the parent chain's properties and managed versions.
func (p *HTTPProvider) Fetch(ctx context.Context, coord maven.Coordinate, version string) (*PackageDescriptor, error) {
	return p.fetchEffective(ctx, coord, version, 0)
}

func (p *HTTPProvider) fetchEffective(ctx context.Context, coord maven.Coordinate, version string, depth int) (*PackageDescriptor, error) {
	if depth > maxParentDepth {
		return nil, &FetchError{Coordinate: coord, Version: version,
			Err: fmt.Errorf("parent chain deeper than %d", maxParentDepth)}
	}

	raw, source, err := p.get(ctx, pomPath(coord, version))
	if err != nil {
		return nil, &FetchError{Coordinate: coord, Version: version, Err: err}
	}
	if raw == nil {
		return nil, &NotFoundError{Coordinate: coord, Version: version}
	}

	parsed, err := parsePOM(raw)
	if err != nil {
		return nil, &FetchError{Coordinate: coord, Version: version, Err: err}
	}

	props := map[string]string{}
	managed := map[string]string{}

	// Parent chain first, so the child's own values win.
	if parsed.Parent != nil {
		parentCoord := maven.Coordinate{Group: parsed.Parent.GroupID, Artifact: parsed.Parent.ArtifactID}
		parent, err := p.fetchEffective(ctx, parentCoord, parsed.Parent.Version, depth+1)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("parent pom unavailable",
				"coordinate", coord.Key(), "parent", parentCoord.Key(), "error", err)
		} else {
			for k, v := range parent.Managed {
				managed[k] = v
			}
			for k, v := range parent.properties {
				props[k] = v
			}
		}
	}
	for k, v := range parsed.Properties.values {
		props[k] = v
	}
	props["project.groupId"] = parsed.GroupID
	props["project.version"] = parsed.Version
	props["pom.version"] = parsed.Version

	for _, dep := range parsed.DependencyManagement.Dependencies {
		key := maven.Coordinate{
			Group:    interpolate(dep.GroupID, props),
			Artifact: interpolate(dep.ArtifactID, props),
		}
		ver := interpolate(dep.Version, props)
		if dep.Scope == "import" && strings.EqualFold(dep.Type, "pom") {
			// BOM import: pull the imported POM's managed block in place.
			bom, err := p.fetchEffective(ctx, key, ver, depth+1)
			if err != nil {
				ctxlog.FromContext(ctx).Warn("bom import unavailable",
					"coordinate", coord.Key(), "bom", key.Key(), "error", err)
				continue
			}
			for k, v := range bom.Managed {
				managed[k] = v
			}
			continue
		}
		managed[key.Key()] = ver
	}

	desc, err := parsed.toDescriptor(props, managed, source)
	if err != nil {
		return nil, &FetchError{Coordinate: coord, Version: version, Err: err}
	}
	desc.properties = props
	return desc, nil
}

// LatestSnapshot implements Provider via maven-metadata.xml.
func (p *HTTPProvider) LatestSnapshot(ctx context.Context, coord maven.Coordinate, baseVersion string) (string, error) {
	path := fmt.Sprintf("%s/%s/%s-SNAPSHOT/maven-metadata.xml",
		groupPath(coord.Group), coord.Artifact, baseVersion)
	raw, _, err := p.get(ctx, path)
	if err != nil {
		return "", &FetchError{Coordinate: coord, Version: baseVersion + "-SNAPSHOT", Err: err}
	}
	if raw == nil {
		return "", &NotFoundError{Coordinate: coord, Version: baseVersion + "-SNAPSHOT"}
	}
	resolved, err := parseSnapshotMetadata(raw, baseVersion)
	if err != nil {
		return "", &FetchError{Coordinate: coord, Version: baseVersion + "-SNAPSHOT", Err: err}
	}
	return resolved, nil
}

// get walks the repository chain. A nil body with nil error means not found
// anywhere; a non-2xx other than 404 aborts with an error.
func (p *HTTPProvider) get(ctx context.Context, path string) ([]byte, string, error) {
	for _, repo := range p.repos {
		url := repo.URL + "/" + path
		res, err := p.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, "", fmt.Errorf("GET %s: %w", url, err)
		}
		switch {
		case res.IsSuccess():
			return res.Bytes(), repo.URL, nil
		case res.StatusCode() == 404:
			continue
		default:
			return nil, "", fmt.Errorf("GET %s: unexpected status %d", url, res.StatusCode())
		}
	}
	return nil, "", nil
}

func pomPath(coord maven.Coordinate, version string) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s.pom",
		groupPath(coord.Group), coord.Artifact, version, coord.Artifact, version)
}

func groupPath(group string) string {
	return strings.ReplaceAll(group, ".", "/")
}
