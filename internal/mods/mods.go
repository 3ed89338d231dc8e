// SPDX-License-Identifier: MPL-2.0

// Package mods ties discovery, overlay building, module overriding, and
// patching together behind one session facade.
//
// A Session owns a single mod registry and the engines reading from it.
// The session is single-threaded by contract: callers serialize Discover
// against the apply operations themselves, matching the registry's
// lock-free design.
package mods

import (
	"github.com/charmbracelet/log"

	"modkit-cli/internal/discovery"
	"modkit-cli/internal/overlay"
	"modkit-cli/internal/override"
	"modkit-cli/internal/patch"
	"modkit-cli/pkg/container"
	"modkit-cli/pkg/executable"
	"modkit-cli/pkg/types"
)

// Session is the entry point for loading mods: discover sources into the
// registry once, then build overlays and apply overrides and patches for
// any number of titles.
type Session struct {
	reg      *discovery.Registry
	scanner  *discovery.Scanner
	overlays *overlay.Builder
	override *override.Engine
	patches  *patch.Engine
	logger   *log.Logger
}

// NewSession creates an empty session. A nil logger falls back to the
// package default.
func NewSession(logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	reg := discovery.NewRegistry()
	return &Session{
		reg:      reg,
		scanner:  discovery.NewScanner(reg, logger),
		overlays: overlay.NewBuilder(reg, logger),
		override: override.NewEngine(reg, logger),
		patches:  patch.NewEngine(reg, logger),
		logger:   logger,
	}
}

// Registry exposes the session's registry for inspection.
func (s *Session) Registry() *discovery.Registry {
	return s.reg
}

// Discover scans the given roots into the registry. Title-scoped content
// is recorded only when title is non-nil; patch sources are recorded
// either way. Missing roots are skipped.
func (s *Session) Discover(title *types.TitleID, roots ...string) error {
	return s.scanner.Discover(title, roots...)
}

// BuildOverlay layers the title's discovered content overlays over base.
// Without recorded overlays, base is returned unchanged.
func (s *Session) BuildOverlay(id types.TitleID, base container.Reader) (container.Reader, []overlay.Warning, error) {
	return s.overlays.Build(id, base)
}

// OverridePartition returns the title's replacement partition from the
// first discovered partition overlay, and whether one exists.
func (s *Session) OverridePartition(id types.TitleID) (*container.Partition, bool, []override.Warning, error) {
	return s.override.OverridePartition(id)
}

// OverrideModules applies per-module replacements and stub removals,
// returning the resulting list and whether it was mutated.
func (s *Session) OverrideModules(id types.TitleID, modules []executable.Executable) ([]executable.Executable, bool, []override.Warning, error) {
	return s.override.OverrideModules(id, modules)
}

// ApplyStandalonePatches patches one standalone module from the global
// standalone patch bucket. Reports whether any edit was applied.
func (s *Session) ApplyStandalonePatches(mod executable.Executable) (bool, error) {
	return s.patches.ApplyStandalonePatches(mod)
}

// ApplyInstalledPatches patches a title's installed modules from the
// global installed patch bucket and the title's module overlays. Reports
// whether any edit was applied.
func (s *Session) ApplyInstalledPatches(id types.TitleID, modules []executable.Executable) (bool, error) {
	return s.patches.ApplyInstalledPatches(id, modules)
}

// Reset drops every discovered cache entry, returning the session to its
// initial empty state.
func (s *Session) Reset() {
	s.reg.Reset()
}
