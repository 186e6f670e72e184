// Package apt loads a local repository snapshot: a directory holding a
// Release (or InRelease) file, Packages indices, and/or .deb files. It
// produces the package metadata the resolve package indexes.
//
// Loading is strictly local. Nothing is fetched over the network and no
// signature is verified; the clear-signed armor of an InRelease file is
// only unwrapped to reach the text inside.
package apt

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/blakesmith/ar"
	"github.com/ulikunitz/xz"

	"github.com/etnz/apt-resolver/deb"
)

// ErrEmptySnapshot is returned when a snapshot directory holds neither a
// Packages index nor any .deb file.
var ErrEmptySnapshot = errors.New("snapshot contains no package metadata")

// Snapshot is the loaded content of a repository snapshot directory.
type Snapshot struct {
	// Info is the repository metadata from the Release file, zero when
	// the snapshot has none.
	Info deb.ArchiveInfo
	// Entries lists the checksummed files declared by the Release file.
	Entries []deb.ReleaseEntry
	// Packages holds the metadata of every distinct package found, from
	// indices and .deb files combined.
	Packages []*deb.Metadata
}

// LoadDir loads a snapshot from a directory tree. It reads the Release or
// InRelease file at the root when present, parses every Packages index
// found (plain, gzip or xz compressed), and extracts the control stanza
// of every .deb file. Files listed in the Release file are verified
// against their declared SHA256. Structurally identical stanzas found
// through several sources are kept once.
//
// emit receives progress events and may be nil.
func LoadDir(dir string, emit Listener) (*Snapshot, error) {
	if emit == nil {
		emit = func(fmt.Stringer) {}
	}
	snap := &Snapshot{}

	if err := loadRelease(dir, snap, emit); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	add := func(metas ...*deb.Metadata) {
		for _, m := range metas {
			d := m.Digest()
			if !seen[d] {
				seen[d] = true
				snap.Packages = append(snap.Packages, m)
			}
		}
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case name == "Packages" || name == "Packages.gz" || name == "Packages.xz":
			metas, err := loadIndex(dir, path, snap.Entries)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(dir, path)
			emit(EventIndexLoaded{Path: rel, Packages: len(metas)})
			add(metas...)
		case strings.HasSuffix(name, ".deb"):
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			m, err := ReadPackage(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			rel, _ := filepath.Rel(dir, path)
			emit(EventDebScanned{
				Path:         rel,
				Package:      m.Package,
				Version:      m.Version,
				Architecture: m.Architecture,
			})
			add(m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(snap.Packages) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrEmptySnapshot)
	}
	return snap, nil
}

// loadRelease reads the snapshot's Release metadata. InRelease wins over
// Release when both exist; a snapshot with neither is valid.
func loadRelease(dir string, snap *Snapshot, emit Listener) error {
	if content, err := os.ReadFile(filepath.Join(dir, "InRelease")); err == nil {
		block, _ := clearsign.Decode(content)
		if block == nil {
			return fmt.Errorf("%s: no clear-signed block in InRelease", dir)
		}
		info, entries, err := deb.ParseRelease(string(block.Plaintext))
		if err != nil {
			return fmt.Errorf("%s: parsing InRelease: %w", dir, err)
		}
		snap.Info, snap.Entries = info, entries
		emit(EventReleaseLoaded{
			Path:     "InRelease",
			Origin:   info.Origin,
			Suite:    info.Suite,
			Codename: info.Codename,
			Entries:  len(entries),
		})
		return nil
	}

	content, err := os.ReadFile(filepath.Join(dir, "Release"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	info, entries, err := deb.ParseRelease(string(content))
	if err != nil {
		return fmt.Errorf("%s: parsing Release: %w", dir, err)
	}
	snap.Info, snap.Entries = info, entries
	emit(EventReleaseLoaded{
		Path:     "Release",
		Origin:   info.Origin,
		Suite:    info.Suite,
		Codename: info.Codename,
		Entries:  len(entries),
	})
	return nil
}

// loadIndex reads one Packages index file, checks it against the Release
// entries when listed, decompresses it as its extension requires and
// parses its stanzas.
func loadIndex(dir, path string, entries []deb.ReleaseEntry) ([]*deb.Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if rel, err := filepath.Rel(dir, path); err == nil {
		if err := checkEntry(rel, raw, entries); err != nil {
			return nil, err
		}
	}

	var r io.Reader = bytes.NewReader(raw)
	switch filepath.Ext(path) {
	case ".gz":
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer gzr.Close()
		r = gzr
	case ".xz":
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		r = xzr
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	metas, err := deb.ParsePackagesIndex(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return metas, nil
}

// checkEntry verifies raw content against the Release-declared size and
// SHA256 for the given relative path. Paths the Release does not list
// pass unchecked.
func checkEntry(rel string, raw []byte, entries []deb.ReleaseEntry) error {
	for _, e := range entries {
		if e.Path != filepath.ToSlash(rel) {
			continue
		}
		if int64(len(raw)) != e.Size {
			return fmt.Errorf("%s: size %d does not match Release entry %d", rel, len(raw), e.Size)
		}
		sum := sha256.Sum256(raw)
		if hex.EncodeToString(sum[:]) != e.SHA256 {
			return fmt.Errorf("%s: SHA256 mismatch against Release entry", rel)
		}
		return nil
	}
	return nil
}

// ReadPackage extracts the control stanza from a .deb file reader.
func ReadPackage(r io.Reader) (*deb.Metadata, error) {
	arR := ar.NewReader(r)
	for {
		header, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ar header: %w", err)
		}
		if !strings.HasPrefix(header.Name, "control.tar") {
			continue
		}

		var tr *tar.Reader
		switch deb.PackageFile(header.Name) {
		case deb.PkgControlTarGz:
			gzr, err := gzip.NewReader(arR)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", header.Name, err)
			}
			defer gzr.Close()
			tr = tar.NewReader(gzr)
		case deb.PkgControlTarXz:
			xzr, err := xz.NewReader(arR)
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", header.Name, err)
			}
			tr = tar.NewReader(xzr)
		default:
			tr = tar.NewReader(arR)
		}

		for {
			th, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("reading control tar header: %w", err)
			}
			if filepath.Base(th.Name) != string(deb.FileControl) {
				continue
			}
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, tr); err != nil {
				return nil, fmt.Errorf("reading control file: %w", err)
			}
			return deb.ParseControl(buf.String())
		}
		return nil, errors.New("control archive has no control file")
	}
	return nil, errors.New("not a debian package: no control archive")
}
