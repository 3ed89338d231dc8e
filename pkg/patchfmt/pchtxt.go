// SPDX-License-Identifier: MPL-2.0

package patchfmt

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// pchtxt is a line-oriented text patch format. Unlike IPS, the target
// build-id is embedded in the patch content itself:
//
//	@nsobid-<hex build id>
//	// comment
//	@enabled
//	<hex offset> <hex bytes>
//	<hex offset> "ascii text"
//	@disabled
//	...
//	@stop
//
// Only edits inside @enabled sections contribute; @stop ends parsing.

const pchtxtBuildIDPrefix = "@nsobid-"

// PchtxtKey extracts the target build-id key from pchtxt data without
// parsing the edit body. Returns "" when no build-id header is present.
func PchtxtKey(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, pchtxtBuildIDPrefix) {
			return TrimBuildKey(strings.TrimPrefix(line, pchtxtBuildIDPrefix))
		}
	}
	return ""
}

// ParsePchtxt parses pchtxt data and appends every enabled edit into sink.
// Nothing is appended when an error is returned.
func ParsePchtxt(data []byte, sink EditSink) error {
	type edit struct {
		offset uint32
		data   []byte
	}
	var edits []edit

	enabled := false
	lineNo := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "@") {
			switch directive := strings.ToLower(line); {
			case directive == "@stop":
				goto done
			case directive == "@enabled":
				enabled = true
			case directive == "@disabled":
				enabled = false
			default:
				// Unknown directives (including @nsobid-) carry no edits.
			}
			continue
		}
		if !enabled {
			continue
		}

		offsetField, valueField, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("%w: pchtxt line %d: missing value", ErrBadPatch, lineNo)
		}
		offset, err := strconv.ParseUint(strings.TrimPrefix(offsetField, "0x"), 16, 32)
		if err != nil {
			return fmt.Errorf("%w: pchtxt line %d: bad offset %q", ErrBadPatch, lineNo, offsetField)
		}

		valueField = strings.TrimSpace(valueField)
		if comment := strings.Index(valueField, "//"); comment >= 0 {
			valueField = strings.TrimSpace(valueField[:comment])
		}

		var payload []byte
		if strings.HasPrefix(valueField, `"`) {
			text, err := strconv.Unquote(valueField)
			if err != nil {
				return fmt.Errorf("%w: pchtxt line %d: bad string value", ErrBadPatch, lineNo)
			}
			payload = []byte(text)
		} else {
			compact := strings.ReplaceAll(valueField, " ", "")
			payload, err = hex.DecodeString(compact)
			if err != nil || len(payload) == 0 {
				return fmt.Errorf("%w: pchtxt line %d: bad hex value %q", ErrBadPatch, lineNo, valueField)
			}
		}

		edits = append(edits, edit{offset: uint32(offset), data: payload})
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPatch, err)
	}

done:
	for _, e := range edits {
		sink.Append(e.offset, e.data)
	}
	return nil
}
