// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a/b.bin", "/a/b.bin"},
		{"/a/b.bin", "/a/b.bin"},
		{"//a///b.bin/", "/a/b.bin"},
		{`a\b.bin`, "/a/b.bin"},
		{"", "/"},
		{"/", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizePath(tt.input); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilderFinalizeSortsEntries(t *testing.T) {
	b := NewBuilder()
	b.Add("/z.bin", []byte("z"))
	b.Add("/a/nested.bin", []byte("n"))
	b.Add("/a.bin", []byte("a"))

	r := b.Finalize()
	entries, err := r.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	want := []string{"/a.bin", "/a/nested.bin", "/z.bin"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Errorf("entry[%d] = %q, want %q", i, e.Path, want[i])
		}
		if e.Kind != KindFile {
			t.Errorf("entry[%d] kind = %v, want file", i, e.Kind)
		}
	}

	data, err := r.ReadFile("/a/nested.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "n" {
		t.Errorf("ReadFile = %q, want %q", data, "n")
	}

	if _, err := r.ReadFile("/missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("missing entry error = %v, want ErrEntryNotFound", err)
	}
}

func TestDirReaderEntries(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "b.txt"), "B")
	mustWriteFile(t, filepath.Join(dir, "sub", "a.txt"), "A")

	r := NewDirReader(dir)
	entries, err := r.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}

	var files []string
	for _, e := range entries {
		if e.Kind == KindFile {
			files = append(files, e.Path)
		}
	}
	want := []string{"/b.txt", "/sub/a.txt"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}

	data, err := r.ReadFile("/sub/a.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "A" {
		t.Errorf("ReadFile = %q, want %q", data, "A")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.Add("/a.bin", []byte{1, 2, 3})
	b.Add("/dir/b.bin", []byte("payload"))
	b.Add("/empty", nil)
	src := b.Finalize()

	var buf bytes.Buffer
	if err := WriteArchive(&buf, src); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	got, err := ReadArchive(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	assertSameContent(t, src, got)
}

func TestArchiveGzipRoundTrip(t *testing.T) {
	b := NewBuilder()
	b.Add("/a.bin", bytes.Repeat([]byte("abc"), 1000))
	src := b.Finalize()

	var buf bytes.Buffer
	if err := WriteArchiveCompressed(&buf, src); err != nil {
		t.Fatalf("WriteArchiveCompressed: %v", err)
	}
	if buf.Len() >= 3000 {
		t.Errorf("compressed archive is %d bytes, expected compression", buf.Len())
	}

	got, err := ReadArchive(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadArchive(gzip): %v", err)
	}
	assertSameContent(t, src, got)
}

func TestArchiveSaveOpen(t *testing.T) {
	b := NewBuilder()
	b.Add("/f.bin", []byte("x"))
	src := b.Finalize()

	path := filepath.Join(t.TempDir(), "out.bin")
	if err := Save(path, src, true); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	assertSameContent(t, src, got)
}

func TestReadArchiveRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte("NOPE\x01\x00\x00\x00\x00")},
		{"bad version", append(archiveMagic[:], 0xff, 0, 0, 0, 0)},
		{"truncated table", append(archiveMagic[:], 1, 9, 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadArchive(tt.data); !errors.Is(err, ErrBadArchive) {
				t.Errorf("ReadArchive error = %v, want ErrBadArchive", err)
			}
		})
	}
}

func TestReadArchiveRejectsWrappingPayloadRange(t *testing.T) {
	// An offset near the uint64 ceiling must not wrap past the bound
	// check and panic when the payload is sliced.
	data := craftedIndex(archiveMagic, archiveVersion, "evil", 0xFFFFFFFFFFFFFFF0, 0x20)
	if _, err := ReadArchive(data); !errors.Is(err, ErrBadArchive) {
		t.Errorf("ReadArchive error = %v, want ErrBadArchive", err)
	}
}

func TestPartitionRoundTrip(t *testing.T) {
	names := []string{"main", "rtld", "subsdk0"}
	payloads := map[string][]byte{
		"main":    []byte("main image"),
		"rtld":    []byte("rtld image"),
		"subsdk0": []byte("sdk"),
	}

	var buf bytes.Buffer
	if err := WritePartition(&buf, names, payloads); err != nil {
		t.Fatalf("WritePartition: %v", err)
	}

	p, err := ReadPartition(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadPartition: %v", err)
	}

	got := p.Names()
	if len(got) != len(names) {
		t.Fatalf("Names = %v, want %v", got, names)
	}
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("Names[%d] = %q, want %q", i, got[i], names[i])
		}
	}

	data, err := p.ReadFile("rtld")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "rtld image" {
		t.Errorf("ReadFile = %q", data)
	}

	if p.Has("missing") {
		t.Error("Has(missing) = true")
	}
	if _, err := p.ReadFile("missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("missing entry error = %v, want ErrEntryNotFound", err)
	}
}

func TestReadPartitionRejectsGarbage(t *testing.T) {
	if _, err := ReadPartition([]byte("short")); !errors.Is(err, ErrBadPartition) {
		t.Errorf("ReadPartition error = %v, want ErrBadPartition", err)
	}
}

func TestReadPartitionRejectsWrappingPayloadRange(t *testing.T) {
	data := craftedIndex(partitionMagic, partitionVersion, "evil", 0xFFFFFFFFFFFFFFF0, 0x20)
	if _, err := ReadPartition(data); !errors.Is(err, ErrBadPartition) {
		t.Errorf("ReadPartition error = %v, want ErrBadPartition", err)
	}
}

// craftedIndex builds a one-entry container blob with an arbitrary payload
// offset and size, bypassing the writers' consistency. The archive and
// partition codecs share the same index layout.
func craftedIndex(magic [4]byte, version byte, name string, off, size uint64) []byte {
	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(version)
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, uint16(len(name)))
	buf.WriteString(name)
	binary.Write(&buf, binary.LittleEndian, off)
	binary.Write(&buf, binary.LittleEndian, size)
	buf.Write(bytes.Repeat([]byte{0xAA}, 16))
	return buf.Bytes()
}

func assertSameContent(t *testing.T, want, got Reader) {
	t.Helper()

	wantEntries, err := want.Entries()
	if err != nil {
		t.Fatalf("Entries(want): %v", err)
	}
	gotEntries, err := got.Entries()
	if err != nil {
		t.Fatalf("Entries(got): %v", err)
	}
	if len(wantEntries) != len(gotEntries) {
		t.Fatalf("entry count = %d, want %d", len(gotEntries), len(wantEntries))
	}
	for i, e := range wantEntries {
		if gotEntries[i].Path != e.Path {
			t.Errorf("entry[%d] = %q, want %q", i, gotEntries[i].Path, e.Path)
			continue
		}
		wd, err := want.ReadFile(e.Path)
		if err != nil {
			t.Fatalf("ReadFile(want, %s): %v", e.Path, err)
		}
		gd, err := got.ReadFile(e.Path)
		if err != nil {
			t.Fatalf("ReadFile(got, %s): %v", e.Path, err)
		}
		if !bytes.Equal(wd, gd) {
			t.Errorf("content mismatch for %s", e.Path)
		}
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
