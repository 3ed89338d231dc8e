// SPDX-License-Identifier: MPL-2.0

// Package patchfmt implements the two binary patch formats consumed by the
// patch engine: IPS (including the IPS32 extension) and pchtxt. Each format
// exposes target-key extraction and edit accumulation; parsed edits are
// appended into a caller-supplied sink and matched to modules elsewhere.
package patchfmt

import (
	"errors"
	"strings"
)

var (
	// ErrBadPatch is returned when patch data fails structural validation.
	ErrBadPatch = errors.New("malformed patch")
)

// EditSink receives parsed byte-range edits. The patch engine's
// per-module accumulator implements it.
type EditSink interface {
	// Append records one pending edit at the given raw-image offset.
	Append(offset uint32, data []byte)
}

// TrimBuildKey canonicalizes a build-id key: uppercase hexadecimal with
// trailing '0' characters stripped (zero padding carries no meaning).
func TrimBuildKey(key string) string {
	return strings.TrimRight(strings.ToUpper(key), "0")
}
