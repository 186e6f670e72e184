package deb

import (
	"errors"
	"testing"
)

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		arch     string
		relation VersionRelation
		version  string
	}{
		{"libfoo", "libfoo", "", "", ""},
		{" libfoo ", "libfoo", "", "", ""},
		{"libfoo (>= 1.0)", "libfoo", "", RelLaterEqual, "1.0"},
		{"libfoo(>=1.0)", "libfoo", "", RelLaterEqual, "1.0"},
		{"libfoo (= 2:1.0-1)", "libfoo", "", RelExactly, "2:1.0-1"},
		{"libfoo (<< 2.0~rc1)", "libfoo", "", RelStrictlyEarlier, "2.0~rc1"},
		{"libfoo (>> 1.0) [amd64]", "libfoo", "amd64", RelStrictlyLater, "1.0"},
		{"libfoo [arm64]", "libfoo", "arm64", "", ""},
	}

	for _, tt := range tests {
		c, err := ParseConstraint(tt.input)
		if err != nil {
			t.Fatalf("ParseConstraint(%q) failed: %v", tt.input, err)
		}
		if c.Name != tt.name {
			t.Errorf("ParseConstraint(%q) name = %q, want %q", tt.input, c.Name, tt.name)
		}
		if c.Arch != tt.arch {
			t.Errorf("ParseConstraint(%q) arch = %q, want %q", tt.input, c.Arch, tt.arch)
		}
		if c.Relation != tt.relation {
			t.Errorf("ParseConstraint(%q) relation = %q, want %q", tt.input, c.Relation, tt.relation)
		}
		if tt.version != "" && c.Version.String() != tt.version {
			t.Errorf("ParseConstraint(%q) version = %q, want %q", tt.input, c.Version, tt.version)
		}
	}
}

func TestParseConstraintErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"(>= 1.0)",
		"libfoo (~> 1.0)",
		"libfoo (>= 1.0",
		"libfoo [amd64",
		"lib foo",
	} {
		if _, err := ParseConstraint(input); !errors.Is(err, ErrBadConstraint) {
			t.Errorf("ParseConstraint(%q) error = %v, want ErrBadConstraint", input, err)
		}
	}

	// A bad version inside the restriction surfaces the version error.
	if _, err := ParseConstraint("libfoo (>= a:1.0)"); !errors.Is(err, ErrEpochNonNumeric) {
		t.Errorf("ParseConstraint version error = %v, want ErrEpochNonNumeric", err)
	}
}

func TestParseRelationship(t *testing.T) {
	rel, err := ParseRelationship("libfoo (>= 2.0) | libfoo-compat, libc6 (>= 2.36)")
	if err != nil {
		t.Fatalf("ParseRelationship failed: %v", err)
	}
	if len(rel) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(rel))
	}
	if len(rel[0]) != 2 {
		t.Fatalf("expected 2 alternatives in first requirement, got %d", len(rel[0]))
	}
	if rel[0][0].Name != "libfoo" || rel[0][1].Name != "libfoo-compat" {
		t.Errorf("unexpected alternatives: %v", rel[0])
	}
	if rel[1][0].Name != "libc6" || rel[1][0].Relation != RelLaterEqual {
		t.Errorf("unexpected second requirement: %v", rel[1])
	}

	if got := rel.String(); got != "libfoo (>= 2.0) | libfoo-compat, libc6 (>= 2.36)" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseRelationshipEmpty(t *testing.T) {
	rel, err := ParseRelationship("")
	if err != nil {
		t.Fatalf("ParseRelationship(\"\") failed: %v", err)
	}
	if rel != nil {
		t.Errorf("expected nil relationship, got %v", rel)
	}
}

func TestConstraintSatisfiedBy(t *testing.T) {
	tests := []struct {
		constraint string
		name       string
		version    string
		arch       string
		want       bool
	}{
		{"libfoo", "libfoo", "1.0", "amd64", true},
		{"libfoo", "libbar", "1.0", "amd64", false},
		{"libfoo (>= 2.0)", "libfoo", "2.0", "amd64", true},
		{"libfoo (>= 2.0)", "libfoo", "1.9", "amd64", false},
		{"libfoo (>> 2.0)", "libfoo", "2.0", "amd64", false},
		{"libfoo (<< 2.0)", "libfoo", "2.0~rc1", "amd64", true},
		{"libfoo (= 1.0-1)", "libfoo", "1.0-1", "amd64", true},
		{"libfoo (= 1.0-1)", "libfoo", "1.0-2", "amd64", false},
		{"libfoo [amd64]", "libfoo", "1.0", "amd64", true},
		{"libfoo [amd64]", "libfoo", "1.0", "arm64", false},
	}

	for _, tt := range tests {
		c, err := ParseConstraint(tt.constraint)
		if err != nil {
			t.Fatalf("ParseConstraint(%q) failed: %v", tt.constraint, err)
		}
		got := c.SatisfiedBy(tt.name, MustParseVersion(tt.version), tt.arch)
		if got != tt.want {
			t.Errorf("%q satisfied by (%s, %s, %s) = %v, want %v",
				tt.constraint, tt.name, tt.version, tt.arch, got, tt.want)
		}
	}
}

func TestConstraintSatisfiedByProvides(t *testing.T) {
	versioned := MustParseVersion("1.0")

	tests := []struct {
		constraint string
		name       string
		provided   *Version
		want       bool
	}{
		// An unversioned Provides satisfies an unversioned constraint.
		{"foo", "foo", nil, true},
		// An unversioned Provides never satisfies a versioned constraint.
		{"foo (>= 1.0)", "foo", nil, false},
		// A versioned Provides is evaluated against the relation.
		{"foo (>= 1.0)", "foo", &versioned, true},
		{"foo (>= 2.0)", "foo", &versioned, false},
		{"bar", "foo", nil, false},
	}

	for _, tt := range tests {
		c, err := ParseConstraint(tt.constraint)
		if err != nil {
			t.Fatalf("ParseConstraint(%q) failed: %v", tt.constraint, err)
		}
		if got := c.SatisfiedByProvides(tt.name, tt.provided); got != tt.want {
			t.Errorf("%q satisfied by provides (%s, %v) = %v, want %v",
				tt.constraint, tt.name, tt.provided, got, tt.want)
		}
	}
}

func TestConstraintString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"libfoo", "libfoo"},
		{"libfoo(>=1.0)", "libfoo (>= 1.0)"},
		{"libfoo (>> 1.0) [amd64]", "libfoo (>> 1.0) [amd64]"},
	}
	for _, tt := range tests {
		c, err := ParseConstraint(tt.input)
		if err != nil {
			t.Fatalf("ParseConstraint(%q) failed: %v", tt.input, err)
		}
		if got := c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
