package deb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Metadata maps directly to the fields in a Debian binary package control
// stanza, as found inside a .deb or in a Packages index.
//
// Relationship fields are stored as their comma-split requirement strings;
// use Relations to obtain the parsed expression model.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#binary-package-control-files-debian-control
type Metadata struct {
	// Package is the name of the package.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#s-f-package
	Package string

	// Version is the version string of the package, in
	// [epoch:]upstream_version[-debian_revision] form.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#s-f-version
	Version string

	// Architecture is the hardware architecture the package is compiled for,
	// or "all" for architecture-independent packages.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#s-f-architecture
	Architecture string

	// Maintainer is the name and email address of the person responsible
	// for the package.
	Maintainer string

	// Description contains the package synopsis and extended description.
	Description string

	// Section classifies the package into a category (e.g., "utils").
	Section string

	// Priority represents the importance of the package (e.g., "optional").
	Priority string

	// Homepage is the URL of the upstream project's home page.
	Homepage string

	// Essential indicates the package is essential for the system to
	// function.
	Essential bool

	// Depends lists the requirements that must be installed for this
	// package to provide a significant amount of functionality, one
	// comma-separated requirement per element.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-relationships.html#s-binarydeps
	Depends []string

	// PreDepends lists requirements that must be installed and configured
	// before installation of this package can be attempted.
	PreDepends []string

	// Recommends lists requirements found together with this package in
	// all but unusual installations.
	Recommends []string

	// Suggests lists related packages that can enhance this one.
	Suggests []string

	// Enhances is the reverse of Suggests.
	Enhances []string

	// Conflicts lists packages that cannot be installed alongside this one.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-relationships.html#s-conflicts
	Conflicts []string

	// Breaks lists packages this one breaks; a weaker form of Conflicts.
	Breaks []string

	// Replaces lists packages whose files this one overwrites.
	Replaces []string

	// Provides lists virtual packages this one supplies, optionally with a
	// declared version (e.g. "mail-transport-agent" or "libfoo (= 1.2)").
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-relationships.html#s-virtual
	Provides []string

	// BuiltUsing identifies the source packages used to build this binary.
	BuiltUsing string

	// Source identifies the source package name when it differs from the
	// binary package name.
	Source string

	// ExtraFields holds any non-standard fields found in the stanza.
	ExtraFields map[string]string
}

// Set updates a specific field from its control-file textual value.
func (m *Metadata) Set(key, value string) {
	switch ControlField(key) {
	case FieldPackage:
		m.Package = value
	case FieldVersion:
		m.Version = value
	case FieldArchitecture:
		m.Architecture = value
	case FieldMaintainer:
		m.Maintainer = value
	case FieldDescription:
		m.Description = value
	case FieldSection:
		m.Section = value
	case FieldPriority:
		m.Priority = value
	case FieldHomepage:
		m.Homepage = value
	case FieldEssential:
		m.Essential = (value == "yes")
	case FieldDepends:
		m.Depends = splitList(value)
	case FieldPreDepends:
		m.PreDepends = splitList(value)
	case FieldRecommends:
		m.Recommends = splitList(value)
	case FieldSuggests:
		m.Suggests = splitList(value)
	case FieldEnhances:
		m.Enhances = splitList(value)
	case FieldConflicts:
		m.Conflicts = splitList(value)
	case FieldBreaks:
		m.Breaks = splitList(value)
	case FieldReplaces:
		m.Replaces = splitList(value)
	case FieldProvides:
		m.Provides = splitList(value)
	case FieldBuiltUsing:
		m.BuiltUsing = value
	case FieldSource:
		m.Source = value
	case FieldInstalledSize:
		// computed at package generation time, not metadata.
	default:
		if m.ExtraFields == nil {
			m.ExtraFields = make(map[string]string)
		}
		m.ExtraFields[key] = value
	}
}

// RelationStrings returns the stored requirement strings for a
// relationship field, nil when the field is absent or f is not a
// relationship field.
func (m *Metadata) RelationStrings(f ControlField) []string {
	switch f {
	case FieldDepends:
		return m.Depends
	case FieldPreDepends:
		return m.PreDepends
	case FieldRecommends:
		return m.Recommends
	case FieldSuggests:
		return m.Suggests
	case FieldEnhances:
		return m.Enhances
	case FieldConflicts:
		return m.Conflicts
	case FieldBreaks:
		return m.Breaks
	case FieldReplaces:
		return m.Replaces
	case FieldProvides:
		return m.Provides
	}
	return nil
}

// Relations parses the value of a relationship field into the expression
// model. An absent field yields a nil Relationship and no error.
func (m *Metadata) Relations(f ControlField) (Relationship, error) {
	items := m.RelationStrings(f)
	if items == nil {
		return nil, nil
	}
	rel, err := parseRelations(items)
	if err != nil {
		return nil, fmt.Errorf("package %s, field %s: %w", m.Package, f, err)
	}
	return rel, nil
}

// ParseControl parses the content of a single control stanza into a
// Metadata. It handles folded (continuation-line) values; unknown fields
// are kept in ExtraFields.
func ParseControl(content string) (*Metadata, error) {
	m := &Metadata{ExtraFields: make(map[string]string)}

	var currentKey string
	var currentValue strings.Builder

	flush := func() {
		if currentKey != "" {
			m.Set(currentKey, strings.TrimSpace(currentValue.String()))
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			currentValue.WriteString("\n" + line)
		} else if strings.Contains(line, ":") {
			flush()
			parts := strings.SplitN(line, ":", 2)
			currentKey = parts[0]
			currentValue.Reset()
			currentValue.WriteString(strings.TrimSpace(parts[1]))
		}
	}
	flush()
	return m, nil
}

// ParsePackagesIndex parses the content of a Packages index file. It splits
// the content into stanzas (separated by blank lines) and parses each into
// a Metadata. Index-only fields (Filename, Size, checksums) are removed so
// the result matches what the package's own control file would carry.
func ParsePackagesIndex(content string) ([]*Metadata, error) {
	var pkgs []*Metadata
	for _, stanza := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(stanza) == "" {
			continue
		}
		m, err := ParseControl(stanza)
		if err != nil {
			return nil, err
		}

		delete(m.ExtraFields, "Filename")
		delete(m.ExtraFields, "Size")
		delete(m.ExtraFields, "SHA256")
		delete(m.ExtraFields, "SHA1")
		delete(m.ExtraFields, "MD5sum")

		pkgs = append(pkgs, m)
	}
	return pkgs, nil
}

// splitList splits a comma-separated string into a slice of strings,
// trimming whitespace from each element. It returns nil for an empty input.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var res []string
	for _, p := range strings.Split(s, ",") {
		res = append(res, strings.TrimSpace(p))
	}
	return res
}

// Digest computes a deterministic SHA256 hash of the metadata content.
// Two Metadata values with the same field content produce the same digest
// regardless of where they were parsed from, making the digest usable as a
// structural-equality key.
func (m *Metadata) Digest() string {
	h := sha256.New()

	// write appends a length-prefixed string to the hash to ensure
	// uniqueness across field boundaries.
	write := func(s string) {
		fmt.Fprintf(h, "%d:%s\x00", len(s), s)
	}

	write(m.Package)
	write(m.Version)
	write(m.Architecture)
	write(m.Maintainer)
	write(m.Description)
	write(m.Section)
	write(m.Priority)
	write(m.Homepage)
	write(fmt.Sprintf("%v", m.Essential))
	write(m.BuiltUsing)
	write(m.Source)

	// List fields: order matters.
	lists := [][]string{
		m.Depends,
		m.PreDepends,
		m.Recommends,
		m.Suggests,
		m.Enhances,
		m.Conflicts,
		m.Breaks,
		m.Replaces,
		m.Provides,
	}
	for _, list := range lists {
		write(fmt.Sprintf("%d", len(list)))
		for _, v := range list {
			write(v)
		}
	}

	// ExtraFields, sorted by key.
	var extraKeys []string
	for k := range m.ExtraFields {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		write(k)
		write(m.ExtraFields[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Equal compares two Metadata values for content equality via their Digest.
func (m *Metadata) Equal(other *Metadata) bool {
	if m == nil && other == nil {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.Digest() == other.Digest()
}
