// Package ziparchive opens plain .zip installer artifacts and exposes
// their direct members for one level of nested analysis; it does not
// recurse into a zip found inside a zip.
package ziparchive

import (
	"archive/zip"
	"errors"
	"io"
)

// ErrNestedArchiveIgnored marks a zip member that is itself an archive,
// found while already inside one: it's surfaced in Entry.Name but its
// contents are never opened.
var ErrNestedArchiveIgnored = errors.New("ziparchive: nested archives are not expanded")

// Entry is one file inside a zip container.
type Entry struct {
	Name string
	Size int64
}

// Archive is an opened zip container and its direct entries.
type Archive struct {
	zr      *zip.Reader
	Entries []Entry
}

// Open reads r (size bytes long) as a zip container.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{Name: f.Name, Size: int64(f.UncompressedSize64)})
	}

	return &Archive{zr: zr, Entries: entries}, nil
}

// OpenEntry opens one member of the archive for reading, by exact name.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	for _, f := range a.zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, errNotFound(name)
}

type errNotFound string

func (e errNotFound) Error() string { return "ziparchive: entry not found: " + string(e) }
