// Package hclcfg is the HCL implementation of the manifest.Loader interface.
// It decodes koral.hcl manifests and their referenced TOML version catalogs
// into the format-agnostic manifest model.
package hclcfg
