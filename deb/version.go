package deb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version parsing errors. They are wrapped with the offending string, so
// callers should match them with errors.Is.
var (
	// ErrEpochNonNumeric is returned when the epoch component contains
	// anything but ASCII digits.
	ErrEpochNonNumeric = errors.New("epoch is not a number")
	// ErrUpstreamIllegalChar is returned when the upstream version component
	// contains a character outside [a-zA-Z0-9.+-~], or is empty.
	ErrUpstreamIllegalChar = errors.New("illegal character in upstream version")
	// ErrRevisionIllegalChar is returned when the debian revision component
	// contains a character outside [a-zA-Z0-9+.~].
	ErrRevisionIllegalChar = errors.New("illegal character in debian revision")
)

// Version is a parsed Debian package version of the form
// [epoch:]upstream_version[-debian_revision].
//
// Versions are immutable once parsed and must be ordered with Compare,
// never by plain string comparison.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#s-f-version
type Version struct {
	// Epoch is the numeric epoch component. Zero when absent.
	Epoch int
	// HasEpoch records whether the source string carried an explicit epoch.
	// "0:1.2" and "1.2" compare equal but render differently.
	HasEpoch bool
	// Upstream is the upstream version component.
	Upstream string
	// Revision is the debian revision component, empty when absent.
	// A missing revision compares as the literal string "0".
	Revision string
}

// ParseVersion parses a Debian version string.
//
// The epoch is everything before the first ':' and must be all-digit; the
// debian revision is everything after the last '-'. A hyphen is therefore
// only ever part of the upstream version when a revision is present.
func ParseVersion(s string) (Version, error) {
	var v Version

	rest := s
	if idx := strings.Index(rest, ":"); idx != -1 {
		epoch := rest[:idx]
		rest = rest[idx+1:]
		if epoch == "" || !allDigits(epoch) {
			return Version{}, fmt.Errorf("version %q: %w", s, ErrEpochNonNumeric)
		}
		n, err := strconv.Atoi(epoch)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: parsing epoch: %w", s, err)
		}
		v.Epoch = n
		v.HasEpoch = true
	}

	if idx := strings.LastIndex(rest, "-"); idx != -1 {
		v.Revision = rest[idx+1:]
		rest = rest[:idx]
	}
	v.Upstream = rest

	if v.Upstream == "" {
		return Version{}, fmt.Errorf("version %q: empty upstream version: %w", s, ErrUpstreamIllegalChar)
	}
	for i := 0; i < len(v.Upstream); i++ {
		c := v.Upstream[i]
		if !isAlnum(c) && c != '.' && c != '+' && c != '-' && c != '~' {
			return Version{}, fmt.Errorf("version %q: character %q: %w", s, c, ErrUpstreamIllegalChar)
		}
	}
	for i := 0; i < len(v.Revision); i++ {
		c := v.Revision[i]
		if !isAlnum(c) && c != '+' && c != '.' && c != '~' {
			return Version{}, fmt.Errorf("version %q: character %q: %w", s, c, ErrRevisionIllegalChar)
		}
	}

	return v, nil
}

// MustParseVersion is ParseVersion for statically known strings; it panics
// on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version in its canonical [epoch:]upstream[-revision]
// form. Parsing the result yields a Version equal to the receiver.
func (v Version) String() string {
	var b strings.Builder
	if v.HasEpoch {
		fmt.Fprintf(&b, "%d:", v.Epoch)
	}
	b.WriteString(v.Upstream)
	if v.Revision != "" {
		b.WriteByte('-')
		b.WriteString(v.Revision)
	}
	return b.String()
}

// Compare totally orders two versions per the dpkg algorithm. It returns a
// negative number when v sorts before o, zero when they are equal, and a
// positive number when v sorts after o.
//
// Epochs are compared numerically first (missing means 0), then the
// upstream versions, then the revisions (missing means "0").
func (v Version) Compare(o Version) int {
	if v.Epoch != o.Epoch {
		if v.Epoch < o.Epoch {
			return -1
		}
		return 1
	}
	if c := verrevcmp(v.Upstream, o.Upstream); c != 0 {
		return c
	}
	return verrevcmp(revisionOrZero(v.Revision), revisionOrZero(o.Revision))
}

// Less reports whether v sorts strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o order the same, regardless of how the
// epoch or revision were spelled.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

func revisionOrZero(r string) string {
	if r == "" {
		return "0"
	}
	return r
}

// verrevcmp compares two version fragments (an upstream version or a
// revision) the way dpkg's verrevcmp does: alternating maximal non-digit
// and digit spans. Non-digit spans compare character by character in a
// special order where '~' sorts before everything (including the end of
// the fragment), letters sort before non-letters, and end-of-fragment
// sorts before any remaining non-tilde character. Digit spans compare as
// unsigned integers, so "1.010" equals "1.10".
func verrevcmp(a, b string) int {
	for len(a) > 0 || len(b) > 0 {
		// Non-digit span.
		for (len(a) > 0 && !isDigit(a[0])) || (len(b) > 0 && !isDigit(b[0])) {
			ac, bc := 0, 0
			if len(a) > 0 {
				ac = charOrder(a[0])
			}
			if len(b) > 0 {
				bc = charOrder(b[0])
			}
			if ac != bc {
				return ac - bc
			}
			if len(a) > 0 {
				a = a[1:]
			}
			if len(b) > 0 {
				b = b[1:]
			}
		}
		// Digit span, compared numerically. Skipping leading zeros and
		// comparing digit-wise avoids integer overflow on long runs.
		for len(a) > 0 && a[0] == '0' {
			a = a[1:]
		}
		for len(b) > 0 && b[0] == '0' {
			b = b[1:]
		}
		firstDiff := 0
		for len(a) > 0 && isDigit(a[0]) && len(b) > 0 && isDigit(b[0]) {
			if firstDiff == 0 {
				firstDiff = int(a[0]) - int(b[0])
			}
			a = a[1:]
			b = b[1:]
		}
		if len(a) > 0 && isDigit(a[0]) {
			return 1
		}
		if len(b) > 0 && isDigit(b[0]) {
			return -1
		}
		if firstDiff != 0 {
			return firstDiff
		}
	}
	return 0
}

// charOrder maps a byte to its dpkg sort weight: '~' lowest, then
// end-of-string (weight 0, supplied by the caller), then letters by
// ordinal, then everything else by ordinal.
func charOrder(c byte) int {
	switch {
	case isDigit(c):
		return 0
	case isAlpha(c):
		return int(c)
	case c == '~':
		return -256
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
