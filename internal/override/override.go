// SPDX-License-Identifier: MPL-2.0

// Package override swaps whole partitions and individual executable
// modules for a title based on its discovered overlays.
//
// Partition replacement is wholesale: the first discovered partition
// container wins and additional candidates only produce a warning, never
// a merge. Module replacement works per position with first-wins across
// overlays, and a "<name>.stub" marker in any overlay removes the module
// unless some overlay also replaced it.
package override

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"

	"modkit-cli/internal/discovery"
	"modkit-cli/internal/issue"
	"modkit-cli/pkg/container"
	"modkit-cli/pkg/executable"
	"modkit-cli/pkg/types"
)

// MaxModules is the fixed capacity of a title's module list. Passing a
// longer list is a configuration error, never silently truncated.
const MaxModules = 32

// StubSuffix marks a module for removal when a file named
// "<module-name><StubSuffix>" exists in any module overlay.
const StubSuffix = ".stub"

// ErrTooManyModules signals a module list exceeding MaxModules positions.
var ErrTooManyModules = errors.New("module list exceeds the fixed position capacity")

// Warning records one recoverable conflict observed while overriding.
type Warning struct {
	// Issue classifies the warning.
	Issue issue.Id
	// Source names the overlay involved in the conflict.
	Source string
	// Module is the affected module name, empty for partition conflicts.
	Module string
}

// Engine applies partition and module overrides recorded in a registry.
type Engine struct {
	reg    *discovery.Registry
	logger *log.Logger
}

// NewEngine creates an override engine reading overlay sources from reg.
// A nil logger falls back to the package default.
func NewEngine(reg *discovery.Registry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{reg: reg, logger: logger}
}

// OverridePartition returns the title's replacement partition, read from
// the first discovered partition container overlay. The second result
// reports whether a replacement is available; when it is false the caller
// keeps its current partition. Extra candidates beyond the first produce
// an ambiguity warning and are ignored.
func (e *Engine) OverridePartition(id types.TitleID) (*container.Partition, bool, []Warning, error) {
	cache, ok := e.reg.Lookup(id)
	if !ok || len(cache.PartitionContainers) == 0 {
		return nil, false, nil, nil
	}

	var warnings []Warning
	for _, extra := range cache.PartitionContainers[1:] {
		warnings = append(warnings, Warning{
			Issue:  issue.PartitionAmbiguityId,
			Source: extra.Name,
		})
		e.logger.Warn("multiple partition overlays, first discovered wins",
			"title", id.Hex(), "ignored", extra.Name)
	}

	winner := cache.PartitionContainers[0]
	part, err := container.OpenPartition(winner.Path)
	if err != nil {
		return nil, false, nil, issue.NewErrorContext().
			WithOperation("open partition overlay").
			WithResource(winner.Path).
			WithSuggestion("Check that the file is a valid partition container").
			Wrap(err).
			BuildError()
	}
	e.logger.Info("replacing partition", "title", id.Hex(), "overlay", winner.Name)
	return part, true, warnings, nil
}

// OverrideModules rewrites modules according to the title's loose module
// overlays and returns the resulting list along with whether any mutation
// occurred.
//
// For each overlay in discovery order, a file matching a module's name
// replaces that module in place, rebuilt from the file's bytes; later
// overlays offering the same module only warn. Stub markers are collected
// across all overlays independently, then every stubbed position that was
// never replaced is removed, scanning last to first so removal does not
// shift pending positions. A position that is both replaced and stubbed
// keeps the replacement.
func (e *Engine) OverrideModules(id types.TitleID, modules []executable.Executable) ([]executable.Executable, bool, []Warning, error) {
	if len(modules) > MaxModules {
		return nil, false, nil, issue.NewErrorContext().
			WithOperation("override modules").
			WithResource(id.Hex()).
			WithSuggestion("Load at most 32 modules per title").
			Wrap(fmt.Errorf("%w: %d > %d", ErrTooManyModules, len(modules), MaxModules)).
			BuildError()
	}

	cache, ok := e.reg.Lookup(id)
	if !ok || len(cache.ModuleDirs) == 0 {
		return modules, false, nil, nil
	}

	var (
		replaced [MaxModules]bool
		stubbed  [MaxModules]bool
		warnings []Warning
		mutated  bool
	)

	for _, ref := range cache.ModuleDirs {
		for i, mod := range modules {
			path := filepath.Join(ref.Path, mod.Name())
			if !fileExists(path) {
				continue
			}
			if replaced[i] {
				warnings = append(warnings, Warning{
					Issue:  issue.DuplicateModuleReplacementId,
					Source: ref.Name,
					Module: mod.Name(),
				})
				e.logger.Warn("module already replaced by earlier overlay",
					"module", mod.Name(), "overlay", ref.Name)
				continue
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, false, nil, issue.NewErrorContext().
					WithOperation("read replacement module").
					WithResource(path).
					Wrap(err).
					BuildError()
			}
			rebuilt, err := executable.NewInstalled(mod.Name(), raw)
			if err != nil {
				return nil, false, nil, issue.NewErrorContext().
					WithOperation("parse replacement module").
					WithResource(path).
					WithSuggestion("Check that the overlay file is a valid module image").
					Wrap(err).
					BuildError()
			}
			modules[i] = rebuilt
			replaced[i] = true
			mutated = true
			e.logger.Info("replacing module", "module", mod.Name(), "overlay", ref.Name)
		}

		for i, mod := range modules {
			if fileExists(filepath.Join(ref.Path, mod.Name()+StubSuffix)) {
				stubbed[i] = true
			}
		}
	}

	for i := len(modules) - 1; i >= 0; i-- {
		if stubbed[i] && !replaced[i] {
			e.logger.Info("stubbing module", "module", modules[i].Name())
			modules = slices.Delete(modules, i, i+1)
			mutated = true
		}
	}

	return modules, mutated, warnings, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
