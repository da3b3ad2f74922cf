package metadata

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/koral-build/koral/internal/maven"
)

// pom mirrors the subset of a Maven POM the resolver consumes: coordinates,
// parent reference, properties, dependencies, and dependencyManagement.
type pom struct {
	XMLName    xml.Name `xml:"project"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Version    string   `xml:"version"`
	Packaging  string   `xml:"packaging"`

	Parent *pomParent `xml:"parent"`

	Properties pomProperties `xml:"properties"`

	Dependencies []pomDependency `xml:"dependencies>dependency"`

	DependencyManagement struct {
		Dependencies []pomDependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Type       string `xml:"type"`
	Optional   string `xml:"optional"`
	Exclusions []struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	} `xml:"exclusions>exclusion"`
}

// pomProperties keeps property order irrelevant by decoding into a map.
type pomProperties struct {
	values map[string]string
}

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.values = make(map[string]string)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			p.values[t.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

func parsePOM(data []byte) (*pom, error) {
	var p pom
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pom: %w", err)
	}
	if p.Properties.values == nil {
		p.Properties.values = make(map[string]string)
	}
	// Coordinates inherit from the parent when omitted.
	if p.Parent != nil {
		if p.GroupID == "" {
			p.GroupID = p.Parent.GroupID
		}
		if p.Version == "" {
			p.Version = p.Parent.Version
		}
	}
	return &p, nil
}

// interpolate substitutes ${property} references from the effective
// property table, which includes parent properties and the project.* keys.
func interpolate(s string, props map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var out strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			out.WriteString(s)
			return out.String()
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			out.WriteString(s)
			return out.String()
		}
		out.WriteString(s[:start])
		key := s[start+2 : start+end]
		if v, ok := props[key]; ok {
			out.WriteString(v)
		} else {
			// Unresolvable property survives verbatim; the version will
			// fail later with the requesting path attached.
			out.WriteString(s[start : start+end+1])
		}
		s = s[start+end+1:]
	}
}

// toDescriptor converts an effective POM (own + inherited properties and
// managed versions) into the resolver's descriptor form. BOM imports in
// dependencyManagement have already been expanded into managed.
func (p *pom) toDescriptor(props, managed map[string]string, source string) (*PackageDescriptor, error) {
	coord := maven.Coordinate{Group: interpolate(p.GroupID, props), Artifact: interpolate(p.ArtifactID, props)}
	desc := &PackageDescriptor{
		Coordinate: coord,
		Version:    interpolate(p.Version, props),
		Managed:    managed,
		Source:     source,
	}

	for _, dep := range p.Dependencies {
		depCoord := maven.Coordinate{
			Group:    interpolate(dep.GroupID, props),
			Artifact: interpolate(dep.ArtifactID, props),
		}
		scope, err := maven.ParseScope(strings.TrimSpace(dep.Scope))
		if err != nil {
			// Scopes outside the resolver's model (system, import leftovers)
			// do not enter the graph.
			continue
		}
		declared := DeclaredDependency{
			Coordinate: depCoord,
			Version:    interpolate(dep.Version, props),
			Scope:      scope,
			Optional:   strings.EqualFold(strings.TrimSpace(dep.Optional), "true"),
		}
		for _, excl := range dep.Exclusions {
			declared.Exclusions = append(declared.Exclusions, maven.Coordinate{
				Group:    interpolate(excl.GroupID, props),
				Artifact: interpolate(excl.ArtifactID, props),
			})
		}
		desc.Dependencies = append(desc.Dependencies, declared)
	}
	return desc, nil
}

// mavenMetadata mirrors maven-metadata.xml for SNAPSHOT timestamp lookup.
type mavenMetadata struct {
	XMLName    xml.Name `xml:"metadata"`
	Versioning struct {
		Snapshot struct {
			Timestamp   string `xml:"timestamp"`
			BuildNumber string `xml:"buildNumber"`
		} `xml:"snapshot"`
	} `xml:"versioning"`
}

func parseSnapshotMetadata(data []byte, baseVersion string) (string, error) {
	var md mavenMetadata
	if err := xml.Unmarshal(data, &md); err != nil {
		return "", fmt.Errorf("parsing maven-metadata.xml: %w", err)
	}
	snap := md.Versioning.Snapshot
	if snap.Timestamp == "" || snap.BuildNumber == "" {
		return "", fmt.Errorf("maven-metadata.xml has no snapshot timestamp")
	}
	return fmt.Sprintf("%s-%s-%s", baseVersion, snap.Timestamp, snap.BuildNumber), nil
}
