// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	gzip "github.com/klauspost/compress/gzip"
)

// Archive layout (little endian):
//
//	[4]byte  magic "MCAR"
//	u8       version (1)
//	u32      entry count
//	entries: u16 path length, path bytes, u64 payload offset, u64 payload size
//	payload blob (offsets are relative to the end of the entry table)
//
// Archives may additionally be gzip-compressed as a whole; Open and
// ReadArchive detect the gzip magic and decompress transparently.

var (
	// ErrBadArchive is returned when archive data fails structural validation.
	ErrBadArchive = errors.New("malformed container archive")

	archiveMagic = [4]byte{'M', 'C', 'A', 'R'}
)

const (
	archiveVersion = 1

	// maxArchivePathLen bounds a single entry path.
	maxArchivePathLen = 0x1000
)

// WriteArchive serializes all file entries of r into the archive format.
// Entries are written in the Reader's (byte-wise sorted) enumeration order.
func WriteArchive(w io.Writer, r Reader) error {
	entries, err := r.Entries()
	if err != nil {
		return fmt.Errorf("enumerate entries: %w", err)
	}

	var table bytes.Buffer
	var blob bytes.Buffer
	count := uint32(0)
	for _, e := range entries {
		if e.Kind != KindFile {
			continue
		}
		data, err := r.ReadFile(e.Path)
		if err != nil {
			return fmt.Errorf("read entry %s: %w", e.Path, err)
		}
		path := []byte(e.Path)
		if len(path) > maxArchivePathLen {
			return fmt.Errorf("%w: path too long: %s", ErrBadArchive, e.Path)
		}
		if err := binary.Write(&table, binary.LittleEndian, uint16(len(path))); err != nil {
			return err
		}
		table.Write(path)
		if err := binary.Write(&table, binary.LittleEndian, uint64(blob.Len())); err != nil {
			return err
		}
		if err := binary.Write(&table, binary.LittleEndian, uint64(len(data))); err != nil {
			return err
		}
		blob.Write(data)
		count++
	}

	if _, err := w.Write(archiveMagic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{archiveVersion}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return err
	}
	if _, err := w.Write(table.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(blob.Bytes()); err != nil {
		return err
	}
	return nil
}

// WriteArchiveCompressed serializes r as a gzip-compressed archive.
func WriteArchiveCompressed(w io.Writer, r Reader) error {
	gz := gzip.NewWriter(w)
	if err := WriteArchive(gz, r); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// ReadArchive parses archive data into a Reader. Gzip-compressed data is
// detected by magic and decompressed first.
func ReadArchive(data []byte) (Reader, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		defer gz.Close()
		raw, err := io.ReadAll(gz)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress: %v", ErrBadArchive, err)
		}
		data = raw
	}

	if len(data) < 9 || !bytes.Equal(data[:4], archiveMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrBadArchive)
	}
	if data[4] != archiveVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadArchive, data[4])
	}
	count := binary.LittleEndian.Uint32(data[5:9])

	type rawEntry struct {
		path string
		off  uint64
		size uint64
	}
	pos := uint64(9)
	raw := make([]rawEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+2 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: truncated entry table", ErrBadArchive)
		}
		plen := uint64(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if plen == 0 || plen > maxArchivePathLen || pos+plen+16 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: truncated entry table", ErrBadArchive)
		}
		path := string(data[pos : pos+plen])
		pos += plen
		off := binary.LittleEndian.Uint64(data[pos : pos+8])
		size := binary.LittleEndian.Uint64(data[pos+8 : pos+16])
		pos += 16
		raw = append(raw, rawEntry{path: path, off: off, size: size})
	}

	blob := data[pos:]
	b := NewBuilder()
	for _, e := range raw {
		// Checked in two steps so a huge offset cannot wrap e.off+e.size
		// around uint64 and slip past the bound.
		if e.off > uint64(len(blob)) || e.size > uint64(len(blob))-e.off {
			return nil, fmt.Errorf("%w: payload out of range for %s", ErrBadArchive, e.path)
		}
		b.Add(e.path, blob[e.off:e.off+e.size])
	}
	return b.Finalize(), nil
}

// Open reads and parses an archive file from disk.
func Open(path string) (Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	r, err := ReadArchive(data)
	if err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", path, err)
	}
	return r, nil
}

// Save writes r as an archive file, optionally gzip-compressed.
func Save(path string, r Reader, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", path, err)
	}
	defer f.Close()

	if compress {
		if err := WriteArchiveCompressed(f, r); err != nil {
			return fmt.Errorf("write archive %s: %w", path, err)
		}
		return nil
	}
	if err := WriteArchive(f, r); err != nil {
		return fmt.Errorf("write archive %s: %w", path, err)
	}
	return nil
}
