// SPDX-License-Identifier: MPL-2.0

package executable

import (
	"bytes"
	"fmt"
)

// Standalone module raw layout:
//
//	0x00  [4]byte magic "SEXE"
//	0x04  u8 version (1)
//	0x10  [32]byte build id, zero padded
//	...   image content
//
// Unlike installed modules the whole file is mapped, header included, so
// standalone patches are applied with a zero protected offset.

var standaloneMagic = [4]byte{'S', 'E', 'X', 'E'}

const (
	standaloneVersion = 1

	// StandaloneHeaderSize is the minimum size of a standalone module file.
	StandaloneHeaderSize = 0x40
)

// Standalone is an executable module loaded directly from a file.
type Standalone struct {
	name    string
	buildID []byte
	image   []byte
}

// NewStandalone parses a standalone module from raw file bytes.
func NewStandalone(name string, raw []byte) (*Standalone, error) {
	if len(raw) < StandaloneHeaderSize {
		return nil, fmt.Errorf("%w: %s: short header (%d bytes)", ErrBadExecutable, name, len(raw))
	}
	if !bytes.Equal(raw[:4], standaloneMagic[:]) {
		return nil, fmt.Errorf("%w: %s: bad magic", ErrBadExecutable, name)
	}
	if raw[4] != standaloneVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d", ErrBadExecutable, name, raw[4])
	}

	id := make([]byte, BuildIDLen)
	copy(id, raw[buildIDOffset:buildIDOffset+BuildIDLen])
	image := make([]byte, len(raw))
	copy(image, raw)

	return &Standalone{name: name, buildID: id, image: image}, nil
}

// Name returns the module name.
func (m *Standalone) Name() string { return m.name }

// BuildID returns the zero-padded build identifier.
func (m *Standalone) BuildID() []byte { return m.buildID }

// Image returns the mutable in-memory image (header included).
func (m *Standalone) Image() []byte { return m.image }
