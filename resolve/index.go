// Package resolve builds an in-memory index over Debian package metadata
// and answers dependency queries against it: which loaded packages satisfy
// a relationship field, both directly and transitively.
//
// The index is read-only once built. It does not select among candidates
// or detect conflicts; it reports, for every requirement, the full set of
// packages that could satisfy it.
package resolve

import (
	"errors"
	"fmt"

	"github.com/etnz/apt-resolver/deb"
)

// ErrMissingField is returned by Load when a package stanza lacks one of
// the mandatory fields (Package, Version, Architecture).
var ErrMissingField = errors.New("missing mandatory control field")

// Entry is one indexed package: its identity plus the parsed relationship
// fields, ready for repeated queries.
type Entry struct {
	// Name is the package name.
	Name string
	// Version is the parsed package version.
	Version deb.Version
	// Architecture is the package architecture, or "all".
	Architecture string
	// Meta is the full control metadata the entry was built from.
	Meta *deb.Metadata

	relations map[deb.ControlField]deb.Relationship
	digest    string
}

// Relations returns the parsed relationship for a field, nil when the
// package does not declare it.
func (e *Entry) Relations(f deb.ControlField) deb.Relationship {
	return e.relations[f]
}

// Digest returns the structural-equality key of the entry: two entries
// with identical metadata content share a digest.
func (e *Entry) Digest() string { return e.digest }

// String renders the entry as "name version (arch)".
func (e *Entry) String() string {
	return fmt.Sprintf("%s %s (%s)", e.Name, e.Version, e.Architecture)
}

// ProvidesEntry records one virtual package declaration: the declared
// name, the declared version if any, and the real package declaring it.
type ProvidesEntry struct {
	// Name is the virtual package name.
	Name string
	// Version is the declared version of the virtual package, nil when
	// the declaration is unversioned.
	Version *deb.Version
	// Provider is the package declaring the virtual name.
	Provider *Entry
}

// Index holds the loaded packages keyed for the two lookups dependency
// resolution needs: by real package name and by provided virtual name.
type Index struct {
	entries    []*Entry
	byName     map[string][]*Entry
	byProvides map[string][]ProvidesEntry
}

// Load builds an index from package metadata. Every relationship field of
// every package is parsed eagerly, so malformed expressions surface here
// rather than mid-query. Stanzas missing Package, Version or Architecture
// are rejected.
func Load(metas []*deb.Metadata) (*Index, error) {
	idx := &Index{
		byName:     make(map[string][]*Entry),
		byProvides: make(map[string][]ProvidesEntry),
	}

	for _, m := range metas {
		e, err := newEntry(m)
		if err != nil {
			return nil, err
		}
		idx.entries = append(idx.entries, e)
		idx.byName[e.Name] = append(idx.byName[e.Name], e)

		for _, alts := range e.Relations(deb.FieldProvides) {
			// A Provides declaration has no alternatives; each group is a
			// single name, optionally versioned with "=".
			for _, c := range alts {
				p := ProvidesEntry{Name: c.Name, Provider: e}
				if c.Versioned() {
					v := c.Version
					p.Version = &v
				}
				idx.byProvides[c.Name] = append(idx.byProvides[c.Name], p)
			}
		}
	}
	return idx, nil
}

func newEntry(m *deb.Metadata) (*Entry, error) {
	if m.Package == "" {
		return nil, fmt.Errorf("stanza with version %q: Package: %w", m.Version, ErrMissingField)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("package %s: Version: %w", m.Package, ErrMissingField)
	}
	if m.Architecture == "" {
		return nil, fmt.Errorf("package %s: Architecture: %w", m.Package, ErrMissingField)
	}

	v, err := deb.ParseVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", m.Package, err)
	}

	e := &Entry{
		Name:         m.Package,
		Version:      v,
		Architecture: m.Architecture,
		Meta:         m,
		relations:    make(map[deb.ControlField]deb.Relationship),
		digest:       m.Digest(),
	}
	for _, f := range deb.RelationFields {
		rel, err := m.Relations(f)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			e.relations[f] = rel
		}
	}
	return e, nil
}

// Len returns the number of loaded packages.
func (idx *Index) Len() int { return len(idx.entries) }

// Entries returns all loaded packages in load order.
func (idx *Index) Entries() []*Entry { return idx.entries }

// Packages returns the loaded packages with the given real name.
func (idx *Index) Packages(name string) []*Entry { return idx.byName[name] }

// Providers returns the virtual package declarations for the given name.
func (idx *Index) Providers(name string) []ProvidesEntry { return idx.byProvides[name] }
