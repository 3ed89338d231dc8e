// SPDX-License-Identifier: MPL-2.0

package executable

import (
	"bytes"
	"fmt"
)

// Installed module raw layout (all offsets into the raw file):
//
//	0x00  [4]byte magic "MEXE"
//	0x04  u8 version (1)
//	0x10  [32]byte build id, zero padded
//	0x100 image bytes
//
// The in-memory image starts at InstalledHeaderSize: the header is not
// mapped, which is why installed-module patches are applied with a
// protected offset of InstalledHeaderSize (patches are authored against
// the raw file).

var installedMagic = [4]byte{'M', 'E', 'X', 'E'}

const (
	installedVersion = 1

	// InstalledHeaderSize is the size of the raw header absent from the
	// in-memory image of an installed module.
	InstalledHeaderSize = 0x100

	buildIDOffset = 0x10
)

// Installed is an executable module shipped inside a partition container.
type Installed struct {
	name    string
	header  []byte
	buildID []byte
	image   []byte
}

// NewInstalled parses an installed module from raw file bytes. The module
// is constructible fresh from raw bytes so whole-module overrides can
// rebuild it in place.
func NewInstalled(name string, raw []byte) (*Installed, error) {
	if len(raw) < InstalledHeaderSize {
		return nil, fmt.Errorf("%w: %s: short header (%d bytes)", ErrBadExecutable, name, len(raw))
	}
	if !bytes.Equal(raw[:4], installedMagic[:]) {
		return nil, fmt.Errorf("%w: %s: bad magic", ErrBadExecutable, name)
	}
	if raw[4] != installedVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrBadExecutable, name, raw[4])
	}

	header := make([]byte, InstalledHeaderSize)
	copy(header, raw[:InstalledHeaderSize])
	id := make([]byte, BuildIDLen)
	copy(id, raw[buildIDOffset:buildIDOffset+BuildIDLen])
	image := make([]byte, len(raw)-InstalledHeaderSize)
	copy(image, raw[InstalledHeaderSize:])

	return &Installed{name: name, header: header, buildID: id, image: image}, nil
}

// Name returns the partition entry name.
func (m *Installed) Name() string { return m.name }

// BuildID returns the zero-padded build identifier.
func (m *Installed) BuildID() []byte { return m.buildID }

// Image returns the mutable in-memory image (header excluded).
func (m *Installed) Image() []byte { return m.image }

// Header returns the raw file header preceding the image. Reassembling a
// raw module file is Header followed by Image; a module built from a
// replacement file keeps the replacement's own header, build id included.
func (m *Installed) Header() []byte { return m.header }

// Raw serializes the module back to its raw file form.
func (m *Installed) Raw() []byte {
	raw := make([]byte, 0, len(m.header)+len(m.image))
	raw = append(raw, m.header...)
	raw = append(raw, m.image...)
	return raw
}
