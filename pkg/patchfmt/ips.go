// SPDX-License-Identifier: MPL-2.0

package patchfmt

import (
	"bytes"
	"fmt"
	"strings"
)

// IPS patch structure:
//
//	magic    "PATCH" (24-bit offsets) or "IPS32" (32-bit offsets)
//	records  offset (3 or 4 bytes BE), size u16 BE, size data bytes
//	         size == 0 marks an RLE record: count u16 BE, one value byte
//	trailer  "EOF" ("EEOF" for IPS32)
//
// The target build-id key of an IPS patch is not embedded in the data; it
// is derived from the patch's own filename (see IPSKeyFromName).

const (
	ipsMagic   = "PATCH"
	ips32Magic = "IPS32"

	ipsTrailer   = "EOF"
	ips32Trailer = "EEOF"
)

// IPSKeyFromName derives the target build-id key from an IPS patch
// filename: the text before the first '.', trailing zeros stripped.
func IPSKeyFromName(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return TrimBuildKey(stem)
}

// ParseIPS parses IPS or IPS32 data and appends every record's byte-range
// edit into sink. Nothing is appended when an error is returned.
func ParseIPS(data []byte, sink EditSink) error {
	var offsetLen int
	var trailer string
	switch {
	case bytes.HasPrefix(data, []byte(ipsMagic)):
		offsetLen, trailer = 3, ipsTrailer
	case bytes.HasPrefix(data, []byte(ips32Magic)):
		offsetLen, trailer = 4, ips32Trailer
	default:
		return fmt.Errorf("%w: bad IPS magic", ErrBadPatch)
	}

	type edit struct {
		offset uint32
		data   []byte
	}
	var edits []edit

	pos := len(ipsMagic)
	for {
		if pos+len(trailer) <= len(data) && string(data[pos:pos+len(trailer)]) == trailer {
			break
		}
		if pos+offsetLen+2 > len(data) {
			return fmt.Errorf("%w: truncated IPS record at %#x", ErrBadPatch, pos)
		}

		offset := uint32(0)
		for i := 0; i < offsetLen; i++ {
			offset = offset<<8 | uint32(data[pos+i])
		}
		pos += offsetLen

		size := int(data[pos])<<8 | int(data[pos+1])
		pos += 2

		var payload []byte
		if size == 0 {
			// RLE record: repeat count and a single fill byte.
			if pos+3 > len(data) {
				return fmt.Errorf("%w: truncated IPS RLE record at %#x", ErrBadPatch, pos)
			}
			count := int(data[pos])<<8 | int(data[pos+1])
			payload = bytes.Repeat(data[pos+2:pos+3], count)
			pos += 3
		} else {
			if pos+size > len(data) {
				return fmt.Errorf("%w: truncated IPS record data at %#x", ErrBadPatch, pos)
			}
			payload = append([]byte(nil), data[pos:pos+size]...)
			pos += size
		}

		edits = append(edits, edit{offset: offset, data: payload})
	}

	for _, e := range edits {
		sink.Append(e.offset, e.data)
	}
	return nil
}
