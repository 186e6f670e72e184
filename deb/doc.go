// Package deb provides a pure Go model of Debian binary package metadata.
//
// # Design Philosophy
//
// The package operates entirely in-memory on already-fetched text: control
// stanzas, Packages indices and Release files are parsed into structured
// values without shelling out to 'dpkg' or 'apt-cache'. This makes it
// suitable for CI/CD pipelines, repository mirroring tools and install
// planners that need Debian semantics on platforms where the Debian
// toolchain is unavailable.
//
// # Features
//
// Versioning:
//   - Parse [epoch:]upstream_version[-debian_revision] strings.
//   - Total ordering per the dpkg version comparison algorithm, including
//     the special '~' (tilde) sorting rule.
//
// Dependency expressions:
//   - Parse Depends-style field values: comma-separated requirements,
//     pipe-separated alternatives, optional relational version constraints
//     and architecture qualifiers.
//   - Satisfaction predicates against concrete packages and against
//     versioned or unversioned Provides declarations.
//
// Control data:
//   - Parse control stanzas (folded fields) and whole Packages indices.
//   - Parse Release files including their SHA256 file lists.
//   - Deterministic content digest of a package's metadata, usable as a
//     structural-equality key.
package deb
