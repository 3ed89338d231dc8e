// SPDX-License-Identifier: MPL-2.0

// Package types defines the small shared value types used across modkit
// packages: title identifiers and the validation helpers around them.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidTitleID is the sentinel error wrapped by InvalidTitleIDError.
	ErrInvalidTitleID = errors.New("invalid title id")
)

type (
	// TitleID is the 64-bit identifier of an application title. Its canonical
	// on-disk rendering is 16 lowercase hexadecimal digits.
	TitleID uint64

	// InvalidTitleIDError is returned when a title id string cannot be parsed.
	// It wraps ErrInvalidTitleID for errors.Is() compatibility.
	InvalidTitleIDError struct {
		Value string
	}
)

// Error implements the error interface for InvalidTitleIDError.
func (e *InvalidTitleIDError) Error() string {
	return fmt.Sprintf("invalid title id %q: expected up to 16 hexadecimal digits", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidTitleIDError) Unwrap() error { return ErrInvalidTitleID }

// ParseTitleID parses a title id from its hexadecimal rendering.
// A leading "0x" prefix and uppercase digits are accepted.
func ParseTitleID(s string) (TitleID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if trimmed == "" || len(trimmed) > 16 {
		return 0, &InvalidTitleIDError{Value: s}
	}
	v, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, &InvalidTitleIDError{Value: s}
	}
	return TitleID(v), nil
}

// Hex returns the canonical 16-digit lowercase hexadecimal rendering,
// zero padded. This is the form used for on-disk title directories.
func (t TitleID) Hex() string {
	return fmt.Sprintf("%016x", uint64(t))
}

// String returns the canonical hexadecimal rendering.
func (t TitleID) String() string { return t.Hex() }
