// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidModsRootPath is returned when a ModsRootPath value is whitespace-only.
	ErrInvalidModsRootPath = errors.New("invalid mods root path")
	// ErrInvalidSearchRootPath is returned when a SearchRootPath value is empty or whitespace-only.
	ErrInvalidSearchRootPath = errors.New("invalid search root path")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ModsRootPath represents the filesystem path of the mods root directory.
	// The zero value ("") is valid and means "use the default mods root".
	// Non-zero values must not be whitespace-only.
	ModsRootPath string

	// InvalidModsRootPathError is returned when a ModsRootPath value is
	// non-empty but whitespace-only. It wraps ErrInvalidModsRootPath for errors.Is().
	InvalidModsRootPathError struct {
		Value ModsRootPath
	}

	// SearchRootPath represents an additional directory scanned for mods
	// besides the mods root. A valid path must be non-empty and not
	// whitespace-only.
	SearchRootPath string

	// InvalidSearchRootPathError is returned when a SearchRootPath value is
	// empty or whitespace-only. It wraps ErrInvalidSearchRootPath for errors.Is().
	InvalidSearchRootPathError struct {
		Value SearchRootPath
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ModsRoot is the mods root directory; empty means the default.
		ModsRoot ModsRootPath `json:"mods_root" mapstructure:"mods_root"`
		// ExtraRoots lists additional directories scanned for mods.
		ExtraRoots []SearchRootPath `json:"extra_roots" mapstructure:"extra_roots"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		ModsRoot:   "",
		ExtraRoots: nil,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// IsValid returns whether the ColorScheme is one of the recognized values.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (expected auto, dark, or light)", string(e.Value))
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the ModsRootPath is valid. The zero value is
// valid; non-empty values must contain a non-whitespace character.
func (p ModsRootPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidModsRootPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidModsRootPathError.
func (e *InvalidModsRootPathError) Error() string {
	return fmt.Sprintf("invalid mods root path %q: must not be whitespace-only", string(e.Value))
}

// Unwrap returns ErrInvalidModsRootPath for errors.Is() compatibility.
func (e *InvalidModsRootPathError) Unwrap() error { return ErrInvalidModsRootPath }

// IsValid returns whether the SearchRootPath is non-empty and not
// whitespace-only.
func (p SearchRootPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidSearchRootPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSearchRootPathError.
func (e *InvalidSearchRootPathError) Error() string {
	return fmt.Sprintf("invalid search root path %q: must not be empty or whitespace-only", string(e.Value))
}

// Unwrap returns ErrInvalidSearchRootPath for errors.Is() compatibility.
func (e *InvalidSearchRootPathError) Unwrap() error { return ErrInvalidSearchRootPath }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to ModsRoot.IsValid(), each ExtraRoots entry's IsValid(),
// and UI.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ModsRoot.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, root := range c.ExtraRoots {
		if valid, fieldErrs := root.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
