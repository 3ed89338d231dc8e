// SPDX-License-Identifier: MPL-2.0

// Package executable models loadable executable modules. Two concrete kinds
// exist: Installed modules shipped inside a partition container, and
// Standalone modules loaded directly from a file. Both expose a name, a
// fixed-length build identifier, and a mutable in-memory image; the patch
// engine depends only on this capability surface.
package executable

import (
	"errors"
)

// BuildIDLen is the fixed length of a module build identifier in bytes.
// Shorter identifiers are zero padded; the padding carries no semantic
// weight (see BuildKey).
const BuildIDLen = 32

var (
	// ErrBadExecutable is returned when raw module bytes fail validation.
	ErrBadExecutable = errors.New("malformed executable module")
)

// Executable is one loadable executable image.
type Executable interface {
	// Name returns the module name (partition entry name for installed
	// modules, file stem for standalone ones).
	Name() string
	// BuildID returns the module's build identifier, zero padded to
	// BuildIDLen bytes. Callers must not mutate the returned slice.
	BuildID() []byte
	// Image returns the mutable in-memory image. Byte-range edits write
	// directly into the returned slice.
	Image() []byte
}
