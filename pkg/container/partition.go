// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Partition layout (little endian):
//
//	[4]byte  magic "MPFS"
//	u8       version (1)
//	u32      entry count
//	entries: u16 name length, name bytes, u64 payload offset, u64 payload size
//	payload blob (offsets relative to the end of the entry table)
//
// A partition is a flat named-payload container; it holds an application's
// executable modules. Names are unique and enumeration preserves the order
// the partition was written with (module load order is positional).

var (
	// ErrBadPartition is returned when partition data fails structural validation.
	ErrBadPartition = errors.New("malformed partition container")

	partitionMagic = [4]byte{'M', 'P', 'F', 'S'}
)

const partitionVersion = 1

// Partition is a read-only flat partition container.
type Partition struct {
	names    []string
	payloads map[string][]byte
}

// Names returns the entry names in written order.
func (p *Partition) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Has reports whether the partition contains the named entry.
func (p *Partition) Has(name string) bool {
	_, ok := p.payloads[name]
	return ok
}

// ReadFile returns the full payload of the named entry.
func (p *Partition) ReadFile(name string) ([]byte, error) {
	data, ok := p.payloads[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return data, nil
}

// ReadPartition parses partition data.
func ReadPartition(data []byte) (*Partition, error) {
	if len(data) < 9 || !bytes.Equal(data[:4], partitionMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrBadPartition)
	}
	if data[4] != partitionVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadPartition, data[4])
	}
	count := binary.LittleEndian.Uint32(data[5:9])

	type rawEntry struct {
		name string
		off  uint64
		size uint64
	}
	pos := uint64(9)
	raw := make([]rawEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+2 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: truncated entry table", ErrBadPartition)
		}
		nlen := uint64(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if nlen == 0 || pos+nlen+16 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: truncated entry table", ErrBadPartition)
		}
		name := string(data[pos : pos+nlen])
		pos += nlen
		off := binary.LittleEndian.Uint64(data[pos : pos+8])
		size := binary.LittleEndian.Uint64(data[pos+8 : pos+16])
		pos += 16
		raw = append(raw, rawEntry{name: name, off: off, size: size})
	}

	blob := data[pos:]
	p := &Partition{payloads: map[string][]byte{}}
	for _, e := range raw {
		// Two-step bound check: a huge offset must not wrap e.off+e.size
		// around uint64.
		if e.off > uint64(len(blob)) || e.size > uint64(len(blob))-e.off {
			return nil, fmt.Errorf("%w: payload out of range for %s", ErrBadPartition, e.name)
		}
		if _, dup := p.payloads[e.name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %s", ErrBadPartition, e.name)
		}
		p.names = append(p.names, e.name)
		p.payloads[e.name] = blob[e.off:e.off+e.size]
	}
	return p, nil
}

// OpenPartition reads and parses a partition file from disk.
func OpenPartition(path string) (*Partition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open partition %s: %w", path, err)
	}
	p, err := ReadPartition(data)
	if err != nil {
		return nil, fmt.Errorf("parse partition %s: %w", path, err)
	}
	return p, nil
}

// WritePartition serializes named payloads in the given order.
func WritePartition(w io.Writer, names []string, payloads map[string][]byte) error {
	var table bytes.Buffer
	var blob bytes.Buffer
	for _, name := range names {
		data, ok := payloads[name]
		if !ok {
			return fmt.Errorf("%w: missing payload for %s", ErrBadPartition, name)
		}
		if err := binary.Write(&table, binary.LittleEndian, uint16(len(name))); err != nil {
			return err
		}
		table.WriteString(name)
		if err := binary.Write(&table, binary.LittleEndian, uint64(blob.Len())); err != nil {
			return err
		}
		if err := binary.Write(&table, binary.LittleEndian, uint64(len(data))); err != nil {
			return err
		}
		blob.Write(data)
	}

	if _, err := w.Write(partitionMagic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{partitionVersion}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(names))); err != nil {
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
