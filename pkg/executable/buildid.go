// SPDX-License-Identifier: MPL-2.0

package executable

import (
	"encoding/hex"
	"strings"
)

// NoMatch is the sentinel index returned by ResolveBuildKey when no module
// matches. Unmatched patches are skipped by callers, never treated as errors.
const NoMatch = -1

// BuildKey renders a build identifier as its matching key: uppercase
// hexadecimal with trailing '0' characters stripped. Zero padding carries
// no semantic weight, so "ABCDEF00" and "ABCDEF" reduce to the same key.
func BuildKey(id []byte) string {
	return strings.TrimRight(strings.ToUpper(hex.EncodeToString(id)), "0")
}

// ResolveBuildKey returns the position of the first module whose build key
// equals key, or NoMatch. An empty key never matches: it would otherwise
// pair arbitrary patches with modules carrying an all-zero build id.
func ResolveBuildKey(modules []Executable, key string) int {
	if key == "" {
		return NoMatch
	}
	for i, m := range modules {
		if BuildKey(m.BuildID()) == key {
			return i
		}
	}
	return NoMatch
}
