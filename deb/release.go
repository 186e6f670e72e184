package deb

import (
	"fmt"
	"strconv"
	"strings"
)

// ArchiveInfo holds metadata about a repository snapshot, as read from its
// 'Release' file.
//
// Reference: https://wiki.debian.org/DebianRepository/Format#Release_file
type ArchiveInfo struct {
	// Origin identifies the repository origin (e.g., "Debian", "MyOrg").
	Origin string
	// Label is a short label for the repository.
	Label string
	// Suite specifies the suite name (e.g., "stable", "testing").
	Suite string
	// Version is the version of the release (e.g., "12.0").
	Version string
	// Codename specifies the release codename (e.g., "bookworm").
	Codename string
	// Date is the generation date in RFC1123Z format.
	Date string
	// ValidUntil specifies an expiration date for the Release file.
	ValidUntil string
	// Architectures is a space-separated list of supported architectures.
	Architectures string
	// Components is a space-separated list of components (e.g., "main").
	Components string
	// Description provides a description of the repository.
	Description string
	// NotAutomatic, if "yes", prevents default selection for upgrades.
	NotAutomatic string
	// ButAutomaticUpgrades, if "yes", allows upgrades of installed packages.
	ButAutomaticUpgrades string
	// AcquireByHash, if "yes", indicates support for by-hash index fetching.
	AcquireByHash string
}

// ReleaseEntry is one checksummed file listed under the SHA256 section of a
// Release file.
type ReleaseEntry struct {
	// Path is the file path relative to the Release file's directory.
	Path string
	// Size is the file size in bytes.
	Size int64
	// SHA256 is the hex-encoded SHA256 checksum of the file.
	SHA256 string
}

// ParseRelease parses the content of a Release file into the repository
// metadata and the list of SHA256 file entries.
func ParseRelease(content string) (ArchiveInfo, []ReleaseEntry, error) {
	var info ArchiveInfo
	var entries []ReleaseEntry
	inSHA256 := false

	for _, line := range strings.Split(content, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, " ") {
			if !inSHA256 {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return info, nil, fmt.Errorf("malformed checksum line %q", line)
			}
			size, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return info, nil, fmt.Errorf("malformed checksum line %q: %w", line, err)
			}
			entries = append(entries, ReleaseEntry{
				SHA256: fields[0],
				Size:   size,
				Path:   fields[2],
			})
			continue
		}

		inSHA256 = false
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])

		switch ReleaseField(key) {
		case RelOrigin:
			info.Origin = val
		case RelLabel:
			info.Label = val
		case RelSuite:
			info.Suite = val
		case RelVersion:
			info.Version = val
		case RelCodename:
			info.Codename = val
		case RelDate:
			info.Date = val
		case RelValidUntil:
			info.ValidUntil = val
		case RelArchitectures:
			info.Architectures = val
		case RelComponents:
			info.Components = val
		case RelDescription:
			info.Description = val
		case RelNotAutomatic:
			info.NotAutomatic = val
		case RelButAutomaticUpgrades:
			info.ButAutomaticUpgrades = val
		case RelAcquireByHash:
			info.AcquireByHash = val
		case RelSHA256:
			inSHA256 = true
		}
	}
	return info, entries, nil
}
