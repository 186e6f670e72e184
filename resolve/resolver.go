package resolve

import (
	"strings"

	"github.com/etnz/apt-resolver/deb"
)

// Candidates pairs one constraint with every loaded package able to
// satisfy it, whether by real name or through a Provides declaration.
type Candidates struct {
	// Constraint is the requirement being matched.
	Constraint deb.Constraint
	// Packages lists the entries satisfying the constraint.
	Packages []*Entry
}

// Empty reports whether no loaded package satisfies the constraint.
func (c Candidates) Empty() bool { return len(c.Packages) == 0 }

// Group is the resolution of one OR-group: the candidates of each
// alternative, in declaration order.
type Group struct {
	Alternatives []Candidates
}

// Empty reports whether any alternative of the group has no candidates.
// A group with one satisfiable and one unsatisfiable alternative is
// therefore reported empty; callers wanting "at least one alternative
// holds" inspect the alternatives themselves.
func (g Group) Empty() bool {
	for _, a := range g.Alternatives {
		if a.Empty() {
			return true
		}
	}
	return false
}

// String renders the group's constraints in control-file syntax.
func (g Group) String() string {
	parts := make([]string, len(g.Alternatives))
	for i, a := range g.Alternatives {
		parts[i] = a.Constraint.String()
	}
	return strings.Join(parts, " | ")
}

// FieldResolution is the result of resolving one relationship field of
// one package against the index.
type FieldResolution struct {
	// Package is the package whose field was resolved.
	Package *Entry
	// Field is the relationship field that was resolved.
	Field deb.ControlField
	// Groups holds one resolution per OR-group of the field, in
	// declaration order. An absent field yields no groups.
	Groups []Group
}

// Unsatisfied returns the groups reported empty by Group.Empty.
func (r FieldResolution) Unsatisfied() []Group {
	var out []Group
	for _, g := range r.Groups {
		if g.Empty() {
			out = append(out, g)
		}
	}
	return out
}

// Satisfied reports whether no group of the field is unsatisfied. An
// absent field is vacuously satisfied.
func (r FieldResolution) Satisfied() bool { return len(r.Unsatisfied()) == 0 }

// Provenance records why a package entered a transitive closure: which
// package required it, through which field, under which constraint.
type Provenance struct {
	// Depender is the package whose requirement pulled the target in.
	Depender *Entry
	// Field is the relationship field carrying the requirement.
	Field deb.ControlField
	// Constraint is the specific constraint the target satisfied.
	Constraint deb.Constraint
}

// Closure is the result of a transitive resolution walk.
type Closure struct {
	// Packages lists every distinct package reached, the start package
	// included, ordered so that the most recently visited come first.
	Packages []*Entry
	// ReverseDepends maps each reached package to the requirements that
	// pulled it in. The start package maps to an empty list.
	ReverseDepends map[*Entry][]Provenance
	// Unsatisfied collects the empty groups found on any visited
	// package's fields during the walk.
	Unsatisfied []FieldResolution
}

// FindDirect resolves one relationship field of a package against the
// index. Every constraint is probed against both real package names and
// Provides declarations; an unversioned Provides never satisfies a
// versioned constraint.
func (idx *Index) FindDirect(pkg *Entry, field deb.ControlField) FieldResolution {
	res := FieldResolution{Package: pkg, Field: field}
	for _, alts := range pkg.Relations(field) {
		g := Group{Alternatives: make([]Candidates, 0, len(alts))}
		for _, c := range alts {
			g.Alternatives = append(g.Alternatives, idx.candidates(c))
		}
		res.Groups = append(res.Groups, g)
	}
	return res
}

func (idx *Index) candidates(c deb.Constraint) Candidates {
	out := Candidates{Constraint: c}
	for _, e := range idx.byName[c.Name] {
		if c.SatisfiedBy(e.Name, e.Version, e.Architecture) {
			out.Packages = append(out.Packages, e)
		}
	}
	for _, p := range idx.byProvides[c.Name] {
		if c.SatisfiedByProvides(p.Name, p.Version) {
			out.Packages = append(out.Packages, p.Provider)
		}
	}
	return out
}

// FindTransitive computes the closure of the given fields starting from
// pkg: every candidate of every resolved constraint is itself resolved,
// breadth first, until no new package appears. Packages with identical
// metadata content are treated as one. The walk records, for every
// reached package, which requirements pulled it in.
func (idx *Index) FindTransitive(pkg *Entry, fields ...deb.ControlField) Closure {
	cl := Closure{ReverseDepends: make(map[*Entry][]Provenance)}

	// canon maps a metadata digest to the entry chosen to represent it,
	// so structurally identical packages collapse to one node.
	canon := make(map[string]*Entry)
	intern := func(e *Entry) *Entry {
		if c, ok := canon[e.Digest()]; ok {
			return c
		}
		canon[e.Digest()] = e
		return e
	}

	start := intern(pkg)
	cl.ReverseDepends[start] = []Provenance{}

	seen := make(map[string]bool)
	queue := []*Entry{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.Digest()] {
			continue
		}

		for _, f := range fields {
			res := idx.FindDirect(cur, f)
			if !res.Satisfied() {
				cl.Unsatisfied = append(cl.Unsatisfied, res)
			}
			for _, g := range res.Groups {
				for _, cand := range g.Alternatives {
					for _, hit := range cand.Packages {
						hit = intern(hit)
						cl.ReverseDepends[hit] = append(cl.ReverseDepends[hit], Provenance{
							Depender:   cur,
							Field:      f,
							Constraint: cand.Constraint,
						})
						if !seen[hit.Digest()] {
							queue = append(queue, hit)
						}
					}
				}
			}
		}

		seen[cur.Digest()] = true
		cl.Packages = append(cl.Packages, cur)
	}

	// Most recently visited first.
	for i, j := 0, len(cl.Packages)-1; i < j; i, j = i+1, j-1 {
		cl.Packages[i], cl.Packages[j] = cl.Packages[j], cl.Packages[i]
	}
	return cl
}
