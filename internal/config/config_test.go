// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions: %v", err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty without a config file", resolved)
	}
	if cfg.ModsRoot != "" || cfg.UI.ColorScheme != ColorSchemeAuto || cfg.UI.Verbose {
		t.Errorf("cfg = %+v, want built-in defaults", cfg)
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
mods_root: "/srv/mods"
extra_roots: ["/mnt/sd/mods"]
ui: {
	color_scheme: "dark"
	verbose:      true
}
`)

	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.ModsRoot != "/srv/mods" {
		t.Errorf("ModsRoot = %q", cfg.ModsRoot)
	}
	if len(cfg.ExtraRoots) != 1 || cfg.ExtraRoots[0] != "/mnt/sd/mods" {
		t.Errorf("ExtraRoots = %v", cfg.ExtraRoots)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark || !cfg.UI.Verbose {
		t.Errorf("UI = %+v", cfg.UI)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `mods_root: "/srv/mods"`)

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions: %v", err)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ColorScheme = %q, want default auto", cfg.UI.ColorScheme)
	}
}

func TestLoadRejectsBadColorScheme(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `ui: color_scheme: "sepia"`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("expected schema violation for unknown color scheme")
	}
}

func TestLoadRejectsBadSyntax(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `mods_root: {{{`)

	if _, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
		t.Fatal("expected error for invalid CUE syntax")
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestConfigIsValid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		valid   bool
		wantErr error
	}{
		{"defaults", *DefaultConfig(), true, nil},
		{"explicit values", Config{ModsRoot: "/srv/mods", UI: UIConfig{ColorScheme: ColorSchemeLight}}, true, nil},
		{"whitespace mods root", Config{ModsRoot: "   ", UI: UIConfig{ColorScheme: ColorSchemeAuto}}, false, ErrInvalidModsRootPath},
		{"empty extra root", Config{ExtraRoots: []SearchRootPath{""}, UI: UIConfig{ColorScheme: ColorSchemeAuto}}, false, ErrInvalidSearchRootPath},
		{"bad color scheme", Config{UI: UIConfig{ColorScheme: "sepia"}}, false, ErrInvalidColorScheme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := tt.cfg.IsValid()
			if valid != tt.valid {
				t.Fatalf("IsValid() = %v, want %v (errs: %v)", valid, tt.valid, errs)
			}
			if !tt.valid {
				if len(errs) != 1 {
					t.Fatalf("errs = %v, want one wrapper error", errs)
				}
				if !errors.Is(errs[0], ErrInvalidConfig) {
					t.Errorf("wrapper = %v, want ErrInvalidConfig", errs[0])
				}
				if !errors.Is(errs[0], tt.wantErr) {
					t.Errorf("chain of %v should contain %v", errs[0], tt.wantErr)
				}
			}
		})
	}
}

func TestConfigIsValidChain(t *testing.T) {
	cfg := Config{UI: UIConfig{ColorScheme: "sepia"}}
	_, errs := cfg.IsValid()
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidUIConfig) {
		t.Errorf("errs = %v, want UI wrapper in the chain", errs)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Config{
		ModsRoot:   "/srv/mods",
		ExtraRoots: []SearchRootPath{"/mnt/sd/mods"},
		UI:         UIConfig{ColorScheme: ColorSchemeDark, Verbose: true},
	}
	writeConfigFile(t, dir, GenerateCUE(want))

	got, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions: %v", err)
	}
	if got.ModsRoot != want.ModsRoot || got.UI != want.UI || len(got.ExtraRoots) != 1 {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestGenerateCUEOmitsEmptyModsRoot(t *testing.T) {
	out := GenerateCUE(DefaultConfig())
	if strings.Contains(out, "mods_root") {
		t.Errorf("GenerateCUE(defaults) = %q, should omit empty mods_root", out)
	}
}

func TestResolveModsRoot(t *testing.T) {
	got, err := ResolveModsRoot(&Config{ModsRoot: "/srv/mods"})
	if err != nil || got != "/srv/mods" {
		t.Errorf("ResolveModsRoot = (%q, %v), want configured path", got, err)
	}

	def, err := ResolveModsRoot(DefaultConfig())
	if err != nil {
		t.Fatalf("ResolveModsRoot(defaults): %v", err)
	}
	if !strings.HasSuffix(def, filepath.Join("."+AppName, "mods")) {
		t.Errorf("default mods root = %q, want ~/.modkit/mods", def)
	}
}

func TestProviderLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `mods_root: "/srv/mods"`)

	cfg, source, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModsRoot != "/srv/mods" {
		t.Errorf("ModsRoot = %q", cfg.ModsRoot)
	}
	if source != filepath.Join(dir, ConfigFileName+"."+ConfigFileExt) {
		t.Errorf("source = %q, want the loaded config file path", source)
	}
}

func TestProviderLoadDefaultsReportNoSource(t *testing.T) {
	_, source, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source != "" {
		t.Errorf("source = %q, want empty for built-in defaults", source)
	}
}

func TestSaveCreatesConfigDir(t *testing.T) {
	t.Cleanup(Reset)
	dir := filepath.Join(t.TempDir(), "nested", AppName)
	SetConfigDirOverride(dir)

	cfg := DefaultConfig()
	cfg.ModsRoot = "/srv/mods"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if got.ModsRoot != "/srv/mods" {
		t.Errorf("ModsRoot after round trip = %q", got.ModsRoot)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride("/tmp/custom")
	got, err := ConfigDir()
	if err != nil || got != "/tmp/custom" {
		t.Errorf("ConfigDir = (%q, %v), want override", got, err)
	}
}
