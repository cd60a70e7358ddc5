// Package zipfs reads individual members of a ZIP archive through an
// io.ReaderAt, without materializing the archive. Over a ranged remote
// stream only the end-of-central-directory record and the central directory
// are fetched to locate an entry; member content is then addressed directly.
package zipfs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
)

// ErrEntryNotFound is returned when an interior path is not present in the
// archive's central directory.
var ErrEntryNotFound = errors.New("entry not found in archive")

// Archive provides entry-level access to one ZIP container.
type Archive struct {
	ra io.ReaderAt
	zr *zip.Reader
}

// Open parses the archive's central directory. size must be the total size
// of the container in bytes.
func Open(ra io.ReaderAt, size int64) (*Archive, error) {
	if size < 0 {
		return nil, fmt.Errorf("cannot open archive: object size unknown")
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read ZIP central directory: %w", err)
	}
	return &Archive{ra: ra, zr: zr}, nil
}

// Entries returns the interior paths of all archive members in directory
// order.
func (a *Archive) Entries() []string {
	names := make([]string, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// Glob returns the interior paths matching the given path.Match pattern.
func (a *Archive) Glob(pattern string) ([]string, error) {
	var matches []string
	for _, f := range a.zr.File {
		ok, err := path.Match(pattern, f.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, f.Name)
		}
	}
	return matches, nil
}

// Entry locates one member by its exact interior path.
func (a *Archive) Entry(interiorPath string) (*Entry, error) {
	for _, f := range a.zr.File {
		if f.Name == interiorPath {
			return &Entry{archive: a, f: f}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, interiorPath)
}

// Entry is one archive member.
type Entry struct {
	archive *Archive
	f       *zip.File
}

// Name returns the entry's interior path.
func (e *Entry) Name() string { return e.f.Name }

// UncompressedSize returns the decompressed size of the member in bytes.
func (e *Entry) UncompressedSize() int64 { return int64(e.f.UncompressedSize64) }

// Stored reports whether the member is stored uncompressed. Stored members
// support O(1) range addressing inside the outer stream; deflated members
// must be decompressed sequentially up to the requested offset.
func (e *Entry) Stored() bool { return e.f.Method == zip.Store }

// ReadAll returns the member's full decompressed content. Intended for
// small interior files such as the manifest and annotation documents.
func (e *Entry) ReadAll() ([]byte, error) {
	rc, err := e.f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", e.f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", e.f.Name, err)
	}
	return data, nil
}

// ReadRange returns exactly n bytes of the member's decompressed content
// starting at offset off. For stored members this issues a single direct
// read against the outer stream; for deflated members the entry is
// decompressed from its start up to off first.
func (e *Entry) ReadRange(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, fmt.Errorf("entry %s: invalid range [%d, +%d)", e.f.Name, off, n)
	}
	if end := off + n; end > e.UncompressedSize() {
		return nil, fmt.Errorf("entry %s: range [%d, %d) exceeds entry size %d",
			e.f.Name, off, end, e.UncompressedSize())
	}

	if e.Stored() {
		return e.readRangeStored(off, n)
	}
	return e.readRangeCompressed(off, n)
}

func (e *Entry) readRangeStored(off, n int64) ([]byte, error) {
	dataStart, err := e.f.DataOffset()
	if err != nil {
		return nil, fmt.Errorf("entry %s: failed to locate data: %w", e.f.Name, err)
	}

	buf := make([]byte, n)
	if _, err := e.archive.ra.ReadAt(buf, dataStart+off); err != nil {
		return nil, fmt.Errorf("entry %s: range read at %d failed: %w", e.f.Name, off, err)
	}
	return buf, nil
}

func (e *Entry) readRangeCompressed(off, n int64) ([]byte, error) {
	rc, err := e.f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", e.f.Name, err)
	}
	defer rc.Close()

	if off > 0 {
		if _, err := io.CopyN(io.Discard, rc, off); err != nil {
			return nil, fmt.Errorf("entry %s: failed to skip to offset %d: %w", e.f.Name, off, err)
		}
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(rc, buf); err != nil {
		return nil, fmt.Errorf("entry %s: failed to read %d bytes at %d: %w", e.f.Name, n, off, err)
	}
	return buf, nil
}
