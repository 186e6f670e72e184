package deb

// ControlField represents a standard field in a Debian control file.
type ControlField string

const (
	FieldPackage       ControlField = "Package"
	FieldVersion       ControlField = "Version"
	FieldArchitecture  ControlField = "Architecture"
	FieldMaintainer    ControlField = "Maintainer"
	FieldDescription   ControlField = "Description"
	FieldSection       ControlField = "Section"
	FieldPriority      ControlField = "Priority"
	FieldHomepage      ControlField = "Homepage"
	FieldEssential     ControlField = "Essential"
	FieldDepends       ControlField = "Depends"
	FieldPreDepends    ControlField = "Pre-Depends"
	FieldRecommends    ControlField = "Recommends"
	FieldSuggests      ControlField = "Suggests"
	FieldEnhances      ControlField = "Enhances"
	FieldConflicts     ControlField = "Conflicts"
	FieldBreaks        ControlField = "Breaks"
	FieldReplaces      ControlField = "Replaces"
	FieldProvides      ControlField = "Provides"
	FieldBuiltUsing    ControlField = "Built-Using"
	FieldSource        ControlField = "Source"
	FieldInstalledSize ControlField = "Installed-Size"
)

// RelationFields lists the control fields whose values are dependency
// relationship expressions (comma-separated requirements with optional
// pipe-separated alternatives).
//
// Reference: https://www.debian.org/doc/debian-policy/ch-relationships.html
var RelationFields = []ControlField{
	FieldPreDepends,
	FieldDepends,
	FieldRecommends,
	FieldSuggests,
	FieldEnhances,
	FieldBreaks,
	FieldConflicts,
	FieldProvides,
	FieldReplaces,
}

// IsRelationField reports whether f holds a dependency relationship value.
func IsRelationField(f ControlField) bool {
	for _, rf := range RelationFields {
		if rf == f {
			return true
		}
	}
	return false
}

// PackageFile represents a standard member of a .deb archive (ar format).
type PackageFile string

const (
	PkgDebianBinary PackageFile = "debian-binary"
	PkgControlTarGz PackageFile = "control.tar.gz"
	PkgControlTarXz PackageFile = "control.tar.xz"
	PkgDataTarGz    PackageFile = "data.tar.gz"
)

// ControlFile represents a standard file found in the control.tar archive.
type ControlFile string

const (
	FileControl ControlFile = "control"
)

// ReleaseField represents a standard field in a Debian Release file.
type ReleaseField string

const (
	RelOrigin               ReleaseField = "Origin"
	RelLabel                ReleaseField = "Label"
	RelSuite                ReleaseField = "Suite"
	RelVersion              ReleaseField = "Version"
	RelCodename             ReleaseField = "Codename"
	RelDate                 ReleaseField = "Date"
	RelValidUntil           ReleaseField = "Valid-Until"
	RelArchitectures        ReleaseField = "Architectures"
	RelComponents           ReleaseField = "Components"
	RelDescription          ReleaseField = "Description"
	RelNotAutomatic         ReleaseField = "NotAutomatic"
	RelButAutomaticUpgrades ReleaseField = "ButAutomaticUpgrades"
	RelAcquireByHash        ReleaseField = "Acquire-By-Hash"
	RelSHA256               ReleaseField = "SHA256"
)
