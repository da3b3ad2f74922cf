package hclcfg

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/koral-build/koral/internal/manifest"
	"github.com/koral-build/koral/internal/maven"
)

// catalogFile mirrors the Gradle libs.versions.toml layout. Library and
// plugin entries are free-form (string shorthand or inline table), so they
// decode as `any` and are shaped afterwards.
type catalogFile struct {
	Versions  map[string]string   `toml:"versions"`
	Libraries map[string]any      `toml:"libraries"`
	Bundles   map[string][]string `toml:"bundles"`
	Plugins   map[string]any      `toml:"plugins"`
}

// LoadCatalogFile reads a TOML version catalog.
func LoadCatalogFile(path string) (*manifest.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var raw catalogFile
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}

	cat := &manifest.Catalog{
		Versions: raw.Versions,
		Bundles:  raw.Bundles,
	}
	if len(raw.Libraries) > 0 {
		cat.Libraries = make(map[string]manifest.CatalogLibrary, len(raw.Libraries))
		for alias, entry := range raw.Libraries {
			lib, err := shapeLibrary(entry)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: library %q: %w", path, alias, err)
			}
			cat.Libraries[alias] = lib
		}
	}
	if len(raw.Plugins) > 0 {
		cat.Plugins = make(map[string]manifest.CatalogPlugin, len(raw.Plugins))
		for alias, entry := range raw.Plugins {
			plugin, err := shapePlugin(entry)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: plugin %q: %w", path, alias, err)
			}
			cat.Plugins[alias] = plugin
		}
	}
	return cat, nil
}

// shapeLibrary accepts the catalog's library forms:
//
//	alias = "group:artifact:version"
//	alias = { module = "group:artifact", version = "1.0" }
//	alias = { group = "g", name = "a", version.ref = "key" }
func shapeLibrary(entry any) (manifest.CatalogLibrary, error) {
	switch v := entry.(type) {
	case string:
		coord, version, err := maven.ParseCoordinateVersion(v)
		if err != nil {
			return manifest.CatalogLibrary{}, err
		}
		return manifest.CatalogLibrary{Coordinate: coord, Version: version}, nil

	case map[string]any:
		var lib manifest.CatalogLibrary
		if module, ok := v["module"]; ok {
			s, ok := module.(string)
			if !ok {
				return manifest.CatalogLibrary{}, fmt.Errorf("module must be a string")
			}
			coord, err := maven.ParseCoordinate(s)
			if err != nil {
				return manifest.CatalogLibrary{}, err
			}
			lib.Coordinate = coord
		} else {
			group, _ := v["group"].(string)
			name, _ := v["name"].(string)
			if group == "" || name == "" {
				return manifest.CatalogLibrary{}, fmt.Errorf("needs module or group+name")
			}
			lib.Coordinate = maven.Coordinate{Group: group, Artifact: name}
		}
		version, ref, err := shapeVersion(v["version"])
		if err != nil {
			return manifest.CatalogLibrary{}, err
		}
		lib.Version = version
		lib.VersionRef = ref
		return lib, nil

	default:
		return manifest.CatalogLibrary{}, fmt.Errorf("unsupported entry type %T", entry)
	}
}

func shapePlugin(entry any) (manifest.CatalogPlugin, error) {
	v, ok := entry.(map[string]any)
	if !ok {
		return manifest.CatalogPlugin{}, fmt.Errorf("unsupported entry type %T", entry)
	}
	id, _ := v["id"].(string)
	if id == "" {
		return manifest.CatalogPlugin{}, fmt.Errorf("needs an id")
	}
	version, ref, err := shapeVersion(v["version"])
	if err != nil {
		return manifest.CatalogPlugin{}, err
	}
	return manifest.CatalogPlugin{ID: id, Version: version, VersionRef: ref}, nil
}

// shapeVersion accepts a plain version string, a { ref = "key" } table
// (TOML's version.ref dotted form), or nothing.
func shapeVersion(entry any) (version, ref string, err error) {
	switch v := entry.(type) {
	case nil:
		return "", "", nil
	case string:
		return v, "", nil
	case map[string]any:
		r, ok := v["ref"].(string)
		if !ok || strings.TrimSpace(r) == "" {
			return "", "", fmt.Errorf("version table needs ref")
		}
		return "", r, nil
	default:
		return "", "", fmt.Errorf("unsupported version type %T", entry)
	}
}
