// Package maven holds the core Maven-compatible value types shared by the
// resolution pipeline: artifact coordinates, dependency scopes, version
// ordering, and version range algebra.
//
// Maven versions are deliberately not semver. Segments split on '.' and '-',
// numeric segments compare as numbers, and string qualifiers carry a fixed
// ordering (alpha < beta < milestone < rc < snapshot < release < sp). The
// comparison and range code here follows Maven's ComparableVersion rules.
package maven
