package hclcfg

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// manifestFile is the top-level HCL layout of a koral manifest.
type manifestFile struct {
	Project      *projectBlock      `hcl:"project,block"`
	Repositories []*repositoryBlock `hcl:"repository,block"`
	Dependencies []*dependencyBlock `hcl:"dependency,block"`
	Flavors      *flavorsBlock      `hcl:"flavors,block"`
	Profiles     []*profileBlock    `hcl:"profile,block"`
	Catalog      *catalogBlock      `hcl:"catalog,block"`
}

type projectBlock struct {
	Group   string `hcl:"group"`
	Name    string `hcl:"name"`
	Version string `hcl:"version,optional"`
}

type repositoryBlock struct {
	Name string `hcl:"name,label"`
	URL  string `hcl:"url"`
}

// dependencyBlock is one dependency declaration. The label is either a
// "group:artifact" coordinate or a bare alias for catalog references.
type dependencyBlock struct {
	Name       string   `hcl:"name,label"`
	Version    string   `hcl:"version,optional"`
	VersionRef string   `hcl:"version_ref,optional"`
	Catalog    string   `hcl:"catalog,optional"`
	Bundle     bool     `hcl:"bundle,optional"`
	Scope      string   `hcl:"scope,optional"`
	Optional   bool     `hcl:"optional,optional"`
	Exclude    []string `hcl:"exclude,optional"`
}

type flavorsBlock struct {
	Dimensions []string       `hcl:"dimensions"`
	Flavors    []*flavorBlock `hcl:"flavor,block"`
	Excludes   []*tupleBlock  `hcl:"exclude,block"`
	Default    *tupleBlock    `hcl:"default,block"`
}

type flavorBlock struct {
	Name         string             `hcl:"name,label"`
	Dimension    string             `hcl:"dimension"`
	Dependencies []*dependencyBlock `hcl:"dependency,block"`
}

type profileBlock struct {
	Name         string             `hcl:"name,label"`
	Dependencies []*dependencyBlock `hcl:"dependency,block"`
}

type catalogBlock struct {
	File string `hcl:"file"`
}

// tupleBlock is a free-form dimension→flavor mapping, e.g.
//
//	exclude {
//	  tier        = "free"
//	  environment = "production"
//	}
type tupleBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// toMap evaluates the tuple block's attributes into a string map.
func (b *tupleBlock) toMap() (map[string]string, error) {
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding flavor tuple: %s", diags.Error())
	}
	out := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating flavor tuple attribute %q: %s", name, diags.Error())
		}
		if val.Type() != cty.String {
			return nil, fmt.Errorf("flavor tuple attribute %q must be a string", name)
		}
		out[name] = val.AsString()
	}
	return out, nil
}
