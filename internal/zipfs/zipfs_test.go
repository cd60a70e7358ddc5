package zipfs

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

const (
	storedName   = "PRODUCT.SAFE/measurement/data.bin"
	deflatedName = "PRODUCT.SAFE/annotation/meta.xml"
)

func storedContent() []byte {
	buf := make([]byte, 512)
	for i := range buf {
		buf[i] = byte(i % 97)
	}
	return buf
}

func deflatedContent() []byte {
	return bytes.Repeat([]byte("<element>value</element>\n"), 40)
}

// buildArchive writes a two-entry archive: one stored, one deflated.
func buildArchive(t *testing.T) *Archive {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateHeader(&zip.FileHeader{Name: storedName, Method: zip.Store})
	if err != nil {
		t.Fatalf("CreateHeader(stored) error: %v", err)
	}
	if _, err := w.Write(storedContent()); err != nil {
		t.Fatalf("Write(stored) error: %v", err)
	}

	w, err = zw.CreateHeader(&zip.FileHeader{Name: deflatedName, Method: zip.Deflate})
	if err != nil {
		t.Fatalf("CreateHeader(deflated) error: %v", err)
	}
	if _, err := w.Write(deflatedContent()); err != nil {
		t.Fatalf("Write(deflated) error: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("zip.Writer.Close() error: %v", err)
	}

	archive, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return archive
}

func TestOpen_UnknownSize(t *testing.T) {
	if _, err := Open(bytes.NewReader(nil), -1); err == nil {
		t.Error("Open() with negative size should return error")
	}
}

func TestOpen_NotAnArchive(t *testing.T) {
	junk := []byte("this is not a zip file")
	if _, err := Open(bytes.NewReader(junk), int64(len(junk))); err == nil {
		t.Error("Open() on non-archive bytes should return error")
	}
}

func TestEntries(t *testing.T) {
	archive := buildArchive(t)

	names := archive.Entries()
	if len(names) != 2 {
		t.Fatalf("Entries() = %v, want 2 names", names)
	}
	if names[0] != storedName || names[1] != deflatedName {
		t.Errorf("Entries() = %v", names)
	}
}

func TestGlob(t *testing.T) {
	archive := buildArchive(t)

	matches, err := archive.Glob("PRODUCT.SAFE/annotation/*.xml")
	if err != nil {
		t.Fatalf("Glob() error: %v", err)
	}
	if len(matches) != 1 || matches[0] != deflatedName {
		t.Errorf("Glob() = %v, want [%s]", matches, deflatedName)
	}

	if _, err := archive.Glob("[bad"); err == nil {
		t.Error("Glob() with invalid pattern should return error")
	}
}

func TestEntry_NotFound(t *testing.T) {
	archive := buildArchive(t)

	_, err := archive.Entry("PRODUCT.SAFE/missing.bin")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Entry() error = %v, want ErrEntryNotFound", err)
	}
}

func TestEntry_Properties(t *testing.T) {
	archive := buildArchive(t)

	stored, err := archive.Entry(storedName)
	if err != nil {
		t.Fatalf("Entry(stored) error: %v", err)
	}
	if !stored.Stored() {
		t.Error("stored entry should report Stored() = true")
	}
	if stored.UncompressedSize() != int64(len(storedContent())) {
		t.Errorf("UncompressedSize() = %d, want %d", stored.UncompressedSize(), len(storedContent()))
	}

	deflated, err := archive.Entry(deflatedName)
	if err != nil {
		t.Fatalf("Entry(deflated) error: %v", err)
	}
	if deflated.Stored() {
		t.Error("deflated entry should report Stored() = false")
	}
}

func TestReadAll(t *testing.T) {
	archive := buildArchive(t)

	entry, err := archive.Entry(deflatedName)
	if err != nil {
		t.Fatalf("Entry() error: %v", err)
	}
	data, err := entry.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if !bytes.Equal(data, deflatedContent()) {
		t.Error("ReadAll() returned wrong content")
	}
}

func TestReadRange_Stored(t *testing.T) {
	archive := buildArchive(t)
	content := storedContent()

	entry, err := archive.Entry(storedName)
	if err != nil {
		t.Fatalf("Entry() error: %v", err)
	}

	got, err := entry.ReadRange(100, 64)
	if err != nil {
		t.Fatalf("ReadRange() error: %v", err)
	}
	if !bytes.Equal(got, content[100:164]) {
		t.Error("ReadRange() on stored entry returned wrong bytes")
	}
}

func TestReadRange_Deflated(t *testing.T) {
	archive := buildArchive(t)
	content := deflatedContent()

	entry, err := archive.Entry(deflatedName)
	if err != nil {
		t.Fatalf("Entry() error: %v", err)
	}

	got, err := entry.ReadRange(50, 100)
	if err != nil {
		t.Fatalf("ReadRange() error: %v", err)
	}
	if !bytes.Equal(got, content[50:150]) {
		t.Error("ReadRange() on deflated entry returned wrong bytes")
	}
}

func TestReadRange_Bounds(t *testing.T) {
	archive := buildArchive(t)

	entry, err := archive.Entry(storedName)
	if err != nil {
		t.Fatalf("Entry() error: %v", err)
	}

	if _, err := entry.ReadRange(-1, 10); err == nil {
		t.Error("ReadRange() with negative offset should return error")
	}
	if _, err := entry.ReadRange(0, -1); err == nil {
		t.Error("ReadRange() with negative length should return error")
	}
	size := entry.UncompressedSize()
	if _, err := entry.ReadRange(size-1, 2); err == nil {
		t.Error("ReadRange() past entry end should return error")
	}
}
