package deb

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadConstraint is returned when a dependency expression cannot be
// parsed. It is wrapped with the offending fragment.
var ErrBadConstraint = errors.New("malformed dependency constraint")

// VersionRelation is a relational operator in a versioned dependency
// constraint, e.g. the ">=" in "libc6 (>= 2.36)".
//
// Reference: https://www.debian.org/doc/debian-policy/ch-relationships.html#syntax-of-relationship-fields
type VersionRelation string

const (
	RelStrictlyEarlier VersionRelation = "<<"
	RelEarlierEqual    VersionRelation = "<="
	RelExactly         VersionRelation = "="
	RelLaterEqual      VersionRelation = ">="
	RelStrictlyLater   VersionRelation = ">>"
)

// versionRelations is ordered longest-first so that "<=" is not read as "<".
var versionRelations = []VersionRelation{
	RelStrictlyEarlier,
	RelEarlierEqual,
	RelLaterEqual,
	RelStrictlyLater,
	RelExactly,
}

// Constraint is a single dependency on one package name, optionally
// restricted to an architecture and to a version range.
type Constraint struct {
	// Name is the target package name, concrete or virtual.
	Name string
	// Arch is the bracketed architecture qualifier, empty when absent.
	Arch string
	// Relation is the relational operator, empty when the constraint is
	// unversioned.
	Relation VersionRelation
	// Version is the version operand. Only meaningful when Relation is set.
	Version Version
}

// Versioned reports whether the constraint carries a version relation.
func (c Constraint) Versioned() bool { return c.Relation != "" }

// String renders the constraint in control-file syntax,
// e.g. "libfoo (>= 1.0) [amd64]".
func (c Constraint) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Versioned() {
		fmt.Fprintf(&b, " (%s %s)", c.Relation, c.Version)
	}
	if c.Arch != "" {
		fmt.Fprintf(&b, " [%s]", c.Arch)
	}
	return b.String()
}

// relationHolds evaluates the version relation against a candidate version.
func (c Constraint) relationHolds(candidate Version) bool {
	d := candidate.Compare(c.Version)
	switch c.Relation {
	case RelStrictlyEarlier:
		return d < 0
	case RelEarlierEqual:
		return d <= 0
	case RelExactly:
		return d == 0
	case RelLaterEqual:
		return d >= 0
	case RelStrictlyLater:
		return d > 0
	}
	return false
}

// SatisfiedBy reports whether a concrete package with the given name,
// version and architecture satisfies the constraint.
func (c Constraint) SatisfiedBy(name string, version Version, arch string) bool {
	if name != c.Name {
		return false
	}
	if c.Arch != "" && arch != c.Arch {
		return false
	}
	if !c.Versioned() {
		return true
	}
	return c.relationHolds(version)
}

// SatisfiedByProvides reports whether a Provides declaration of the given
// virtual name satisfies the constraint. provided is the version the
// provider declared, or nil for a bare "Provides: name".
//
// An unversioned Provides never satisfies a versioned constraint: with no
// declared version there is nothing to evaluate the relation against.
func (c Constraint) SatisfiedByProvides(name string, provided *Version) bool {
	if name != c.Name {
		return false
	}
	if !c.Versioned() {
		return true
	}
	if provided == nil {
		return false
	}
	return c.relationHolds(*provided)
}

// ParseConstraint parses a single alternative of a dependency field:
// a package name optionally followed by a parenthesized version relation
// and/or a bracketed architecture qualifier.
func ParseConstraint(s string) (Constraint, error) {
	var c Constraint
	rest := strings.TrimSpace(s)

	if open := strings.Index(rest, "["); open != -1 {
		end := strings.Index(rest, "]")
		if end < open {
			return Constraint{}, fmt.Errorf("constraint %q: unterminated architecture qualifier: %w", s, ErrBadConstraint)
		}
		c.Arch = strings.TrimSpace(rest[open+1 : end])
		rest = strings.TrimSpace(rest[:open] + rest[end+1:])
	}

	if open := strings.Index(rest, "("); open != -1 {
		end := strings.Index(rest, ")")
		if end < open {
			return Constraint{}, fmt.Errorf("constraint %q: unterminated version restriction: %w", s, ErrBadConstraint)
		}
		inner := strings.TrimSpace(rest[open+1 : end])
		rest = strings.TrimSpace(rest[:open] + rest[end+1:])

		var rel VersionRelation
		for _, r := range versionRelations {
			if strings.HasPrefix(inner, string(r)) {
				rel = r
				break
			}
		}
		if rel == "" {
			return Constraint{}, fmt.Errorf("constraint %q: unknown relational operator in %q: %w", s, inner, ErrBadConstraint)
		}
		ver, err := ParseVersion(strings.TrimSpace(inner[len(rel):]))
		if err != nil {
			return Constraint{}, fmt.Errorf("constraint %q: %w", s, err)
		}
		c.Relation = rel
		c.Version = ver
	}

	if rest == "" || strings.ContainsAny(rest, " \t") {
		return Constraint{}, fmt.Errorf("constraint %q: bad package name %q: %w", s, rest, ErrBadConstraint)
	}
	c.Name = rest
	return c, nil
}

// Alternatives is an OR-group: a pipe-separated list of constraints, any
// one of which satisfies the group.
type Alternatives []Constraint

// String renders the group in control-file syntax, e.g. "a (>= 1) | b".
func (a Alternatives) String() string {
	parts := make([]string, len(a))
	for i, c := range a {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}

// ParseAlternatives parses one requirement: a pipe-separated OR-group of
// constraints.
func ParseAlternatives(s string) (Alternatives, error) {
	var alts Alternatives
	for _, part := range strings.Split(s, "|") {
		c, err := ParseConstraint(part)
		if err != nil {
			return nil, err
		}
		alts = append(alts, c)
	}
	return alts, nil
}

// Relationship is the full value of a dependency field: an AND-list of
// OR-groups. All groups must be satisfied; within a group any constraint
// suffices.
type Relationship []Alternatives

// String renders the relationship in control-file syntax.
func (r Relationship) String() string {
	parts := make([]string, len(r))
	for i, a := range r {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// ParseRelationship parses a raw field value such as
// "libfoo (>= 2.0) | libfoo-compat, libc6 (>= 2.36)".
// An empty value yields a nil relationship.
func ParseRelationship(raw string) (Relationship, error) {
	return parseRelations(splitList(raw))
}

// parseRelations parses a relationship from its already comma-split
// requirement strings, as stored in Metadata.
func parseRelations(items []string) (Relationship, error) {
	var rel Relationship
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		alts, err := ParseAlternatives(item)
		if err != nil {
			return nil, err
		}
		rel = append(rel, alts)
	}
	return rel, nil
}
