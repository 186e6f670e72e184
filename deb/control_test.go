package deb

import (
	"reflect"
	"strings"
	"testing"
)

const testControl = `Package: hello
Version: 2.10-3
Architecture: amd64
Maintainer: Santiago Vila <sanvila@debian.org>
Section: devel
Priority: optional
Essential: no
Depends: libc6 (>= 2.14)
Recommends: curl | wget
Provides: hello-world
Homepage: https://www.gnu.org/software/hello/
X-Custom-Field: custom value
Description: example package based on GNU hello
 The GNU hello program produces a familiar, friendly greeting.
 .
 Seriously, though: this is an example.
`

func TestParseControl(t *testing.T) {
	m, err := ParseControl(testControl)
	if err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}

	if m.Package != "hello" {
		t.Errorf("Package = %q, want %q", m.Package, "hello")
	}
	if m.Version != "2.10-3" {
		t.Errorf("Version = %q, want %q", m.Version, "2.10-3")
	}
	if m.Architecture != "amd64" {
		t.Errorf("Architecture = %q, want %q", m.Architecture, "amd64")
	}
	if m.Essential {
		t.Error("Essential = true, want false")
	}
	if want := []string{"libc6 (>= 2.14)"}; !reflect.DeepEqual(m.Depends, want) {
		t.Errorf("Depends = %v, want %v", m.Depends, want)
	}
	if want := []string{"curl | wget"}; !reflect.DeepEqual(m.Recommends, want) {
		t.Errorf("Recommends = %v, want %v", m.Recommends, want)
	}
	if want := []string{"hello-world"}; !reflect.DeepEqual(m.Provides, want) {
		t.Errorf("Provides = %v, want %v", m.Provides, want)
	}
	if got := m.ExtraFields["X-Custom-Field"]; got != "custom value" {
		t.Errorf("ExtraFields[X-Custom-Field] = %q, want %q", got, "custom value")
	}
	if !strings.Contains(m.Description, "friendly greeting") {
		t.Errorf("Description lost its continuation lines: %q", m.Description)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"libc6", []string{"libc6"}},
		{"libc6 (>= 2.14), zlib1g", []string{"libc6 (>= 2.14)", "zlib1g"}},
		{" a , b ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMetadataRelations(t *testing.T) {
	m := &Metadata{
		Package: "app",
		Depends: []string{"libfoo (>= 2.0) | libfoo-compat", "libc6 (>= 2.36)"},
	}

	rel, err := m.Relations(FieldDepends)
	if err != nil {
		t.Fatalf("Relations failed: %v", err)
	}
	if len(rel) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(rel))
	}
	if len(rel[0]) != 2 || rel[0][1].Name != "libfoo-compat" {
		t.Errorf("unexpected first requirement: %v", rel[0])
	}

	// Absent field yields nil without error.
	rel, err = m.Relations(FieldRecommends)
	if err != nil {
		t.Fatalf("Relations on absent field failed: %v", err)
	}
	if rel != nil {
		t.Errorf("expected nil relationship for absent field, got %v", rel)
	}

	// A malformed value names the package and field in the error.
	m.Recommends = []string{"bad name"}
	if _, err := m.Relations(FieldRecommends); err == nil {
		t.Error("expected error for malformed requirement")
	} else if !strings.Contains(err.Error(), "package app, field Recommends") {
		t.Errorf("error lacks context: %v", err)
	}
}

const testPackagesIndex = `Package: hello
Version: 2.10-3
Architecture: amd64
Depends: libc6 (>= 2.14)
Filename: pool/main/h/hello/hello_2.10-3_amd64.deb
Size: 53244
SHA256: 28eb82bd4a5a2db49eca866e12f3b55d58b72a6b4b02a4b6a46e9f0c26be3e6b
Description: example package

Package: libc6
Version: 2.36-9
Architecture: amd64
Provides: libc-abi (= 2.36)
Description: GNU C Library
`

func TestParsePackagesIndex(t *testing.T) {
	pkgs, err := ParsePackagesIndex(testPackagesIndex)
	if err != nil {
		t.Fatalf("ParsePackagesIndex failed: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(pkgs))
	}
	if pkgs[0].Package != "hello" || pkgs[1].Package != "libc6" {
		t.Errorf("unexpected package names: %q, %q", pkgs[0].Package, pkgs[1].Package)
	}

	// Index-only fields must not survive into the metadata.
	for _, f := range []string{"Filename", "Size", "SHA256"} {
		if _, ok := pkgs[0].ExtraFields[f]; ok {
			t.Errorf("index field %s survived into metadata", f)
		}
	}
	if want := []string{"libc-abi (= 2.36)"}; !reflect.DeepEqual(pkgs[1].Provides, want) {
		t.Errorf("Provides = %v, want %v", pkgs[1].Provides, want)
	}
}

func TestMetadataDigest(t *testing.T) {
	a, err := ParseControl(testControl)
	if err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}
	b, err := ParseControl(testControl)
	if err != nil {
		t.Fatalf("ParseControl failed: %v", err)
	}

	if a.Digest() != b.Digest() {
		t.Error("identical stanzas produced different digests")
	}
	if !a.Equal(b) {
		t.Error("identical stanzas compare unequal")
	}

	b.Version = "2.10-4"
	if a.Digest() == b.Digest() {
		t.Error("different versions produced the same digest")
	}

	// Field boundaries must not alias: ("ab","c") differs from ("a","bc").
	x := &Metadata{Package: "ab", Version: "c"}
	y := &Metadata{Package: "a", Version: "bc"}
	if x.Digest() == y.Digest() {
		t.Error("adjacent field contents aliased in the digest")
	}
}

const testRelease = `Origin: Debian
Label: Debian
Suite: stable
Version: 12.5
Codename: bookworm
Date: Sat, 10 Feb 2024 10:00:00 UTC
Architectures: amd64 arm64
Components: main contrib
Description: Debian 12.5 Released 10 February 2024
SHA256:
 28eb82bd4a5a2db49eca866e12f3b55d58b72a6b4b02a4b6a46e9f0c26be3e6b 53244 main/binary-amd64/Packages
 d2c8b1e9f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0 14240 main/binary-amd64/Packages.gz
`

func TestParseRelease(t *testing.T) {
	info, entries, err := ParseRelease(testRelease)
	if err != nil {
		t.Fatalf("ParseRelease failed: %v", err)
	}

	if info.Origin != "Debian" {
		t.Errorf("Origin = %q, want %q", info.Origin, "Debian")
	}
	if info.Codename != "bookworm" {
		t.Errorf("Codename = %q, want %q", info.Codename, "bookworm")
	}
	if info.Suite != "stable" {
		t.Errorf("Suite = %q, want %q", info.Suite, "stable")
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 file entries, got %d", len(entries))
	}
	if entries[0].Path != "main/binary-amd64/Packages" {
		t.Errorf("entry path = %q", entries[0].Path)
	}
	if entries[0].Size != 53244 {
		t.Errorf("entry size = %d, want 53244", entries[0].Size)
	}
	if entries[1].Path != "main/binary-amd64/Packages.gz" {
		t.Errorf("entry path = %q", entries[1].Path)
	}
}
