// Package manifest is the unified, format-agnostic representation of a
// project's build declarations: the project block, per-scope dependency
// declarations, flavor dimensions and profiles, repositories, and the
// version catalog table. Format-specific parsing lives behind the Loader
// interface (see internal/hclcfg).
package manifest
