// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions selects where the modkit configuration is read from.
// The zero value loads config.cue from the platform config directory,
// falling back to built-in defaults when no file exists.
type LoadOptions struct {
	// ConfigFilePath loads exactly this file when set (the --config
	// flag); a missing file is then an error rather than a fallback.
	ConfigFilePath string
	// ConfigDirPath replaces the platform config directory lookup.
	ConfigDirPath string
}

// Provider loads the modkit configuration. Load returns the validated
// config together with the path of the file it came from; the path is
// empty when built-in defaults were used.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, string, error)
}

// cueProvider loads CUE config files through the embedded schema.
type cueProvider struct{}

// NewProvider creates the file-backed configuration provider.
func NewProvider() Provider {
	return &cueProvider{}
}

func (p *cueProvider) Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
