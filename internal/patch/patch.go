// SPDX-License-Identifier: MPL-2.0

// Package patch routes discovered binary patch files onto loaded
// executable modules and applies the resulting edits in memory.
//
// Every patch carries a build key: IPS files encode it in their filename,
// pchtxt files in an embedded header line. A patch applies to the first
// module whose trimmed build key equals the patch's key; unmatched
// patches are skipped silently. Edits accumulate per module and are only
// applied after every source parsed cleanly, shifted by the caller's
// protected offset for module kinds whose in-memory image omits the raw
// file header.
package patch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"modkit-cli/internal/discovery"
	"modkit-cli/internal/issue"
	"modkit-cli/internal/override"
	"modkit-cli/pkg/executable"
	"modkit-cli/pkg/patchfmt"
	"modkit-cli/pkg/types"
)

const (
	ipsExt    = ".ips"
	pchtxtExt = ".pchtxt"
)

type edit struct {
	offset uint32
	data   []byte
}

// Accumulator collects the pending byte-range edits for one module. It
// satisfies the sink contract of the patch format parsers.
type Accumulator struct {
	edits []edit
}

// Append records one edit. Offsets are kept as authored; shifting happens
// at apply time.
func (a *Accumulator) Append(offset uint32, data []byte) {
	a.edits = append(a.edits, edit{offset: offset, data: data})
}

// Len returns the number of pending edits.
func (a *Accumulator) Len() int { return len(a.edits) }

var _ patchfmt.EditSink = (*Accumulator)(nil)

// Engine applies discovered patches to executable modules.
type Engine struct {
	reg    *discovery.Registry
	logger *log.Logger
}

// NewEngine creates a patch engine reading patch sources from reg.
// A nil logger falls back to the package default.
func NewEngine(reg *discovery.Registry, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{reg: reg, logger: logger}
}

// ApplyStandalonePatches patches a single standalone module from the
// global standalone patch bucket. Standalone images span the whole raw
// file, so edits apply at their authored offsets. Reports whether any
// edit was applied.
func (e *Engine) ApplyStandalonePatches(mod executable.Executable) (bool, error) {
	return e.Apply(e.reg.Patches().Standalone, 0, []executable.Executable{mod})
}

// ApplyInstalledPatches patches a title's installed modules from the
// global installed patch bucket plus the title's loose module overlays,
// which double as patch sources. Installed images omit the raw header,
// so authored offsets are shifted down by the header size. Reports
// whether any edit was applied.
func (e *Engine) ApplyInstalledPatches(id types.TitleID, modules []executable.Executable) (bool, error) {
	if len(modules) > override.MaxModules {
		return false, issue.NewErrorContext().
			WithOperation("apply installed patches").
			WithResource(id.Hex()).
			WithSuggestion("Load at most 32 modules per title").
			Wrap(override.ErrTooManyModules).
			BuildError()
	}

	sources := e.reg.Patches().Installed
	if cache, ok := e.reg.Lookup(id); ok {
		sources = append(cloneRefs(sources), cache.ModuleDirs...)
	}
	return e.Apply(sources, executable.InstalledHeaderSize, modules)
}

// cloneRefs copies refs so appending title-local sources never mutates
// the registry's backing array.
func cloneRefs(refs []discovery.OverlayRef) []discovery.OverlayRef {
	out := make([]discovery.OverlayRef, len(refs))
	copy(out, refs)
	return out
}

// Apply scans every source directory in order, parses each patch file it
// holds, and applies matched edits to the modules' in-memory images with
// offsets shifted down by protectedOffset. Edits landing below the
// protected region or past the image end are dropped with a warning.
// Reports whether the total applied edit count is greater than zero.
func (e *Engine) Apply(sources []discovery.OverlayRef, protectedOffset uint32, modules []executable.Executable) (bool, error) {
	if len(modules) == 0 || len(sources) == 0 {
		return false, nil
	}

	accs := make([]Accumulator, len(modules))
	for _, src := range sources {
		entries, err := os.ReadDir(src.Path)
		if os.IsNotExist(err) {
			e.logger.Debug("patch source vanished since discovery, skipping", "source", src.Name, "path", src.Path)
			continue
		}
		if err != nil {
			return false, issue.NewErrorContext().
				WithOperation("enumerate patch source").
				WithResource(src.Path).
				Wrap(err).
				BuildError()
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			if err := e.collect(src, entry.Name(), modules, accs); err != nil {
				return false, err
			}
		}
	}

	applied := 0
	for i, mod := range modules {
		if accs[i].Len() == 0 {
			continue
		}
		n := applyEdits(mod, accs[i].edits, protectedOffset, e.logger)
		e.logger.Info("patched module", "module", mod.Name(), "edits", n)
		applied += n
	}
	return applied > 0, nil
}

// collect parses one patch file and routes its edits into the accumulator
// of the first module whose build key equals the patch's key. Files with
// an unknown extension or an unmatched key are skipped.
func (e *Engine) collect(src discovery.OverlayRef, name string, modules []executable.Executable, accs []Accumulator) error {
	path := filepath.Join(src.Path, name)
	switch strings.ToLower(filepath.Ext(name)) {
	case ipsExt:
		key := patchfmt.IPSKeyFromName(name)
		idx := executable.ResolveBuildKey(modules, key)
		if idx == executable.NoMatch {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return issue.WrapWithOperation(err, "read patch file")
		}
		if err := patchfmt.ParseIPS(data, &accs[idx]); err != nil {
			return badPatch(path, err)
		}
		e.logger.Debug("matched patch", "patch", name, "source", src.Name)
	case pchtxtExt:
		data, err := os.ReadFile(path)
		if err != nil {
			return issue.WrapWithOperation(err, "read patch file")
		}
		idx := executable.ResolveBuildKey(modules, patchfmt.PchtxtKey(data))
		if idx == executable.NoMatch {
			return nil
		}
		if err := patchfmt.ParsePchtxt(data, &accs[idx]); err != nil {
			return badPatch(path, err)
		}
		e.logger.Debug("matched patch", "patch", name, "source", src.Name)
	}
	return nil
}

func badPatch(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("parse patch file").
		WithResource(path).
		WithSuggestion("Check the patch file for corruption or an unsupported format").
		Wrap(err).
		BuildError()
}

// applyEdits writes edits into the module image, shifting authored
// offsets down by protectedOffset. Returns the number of edits written.
func applyEdits(mod executable.Executable, edits []edit, protectedOffset uint32, logger *log.Logger) int {
	image := mod.Image()
	applied := 0
	for _, ed := range edits {
		if ed.offset < protectedOffset {
			logger.Warn("edit targets the protected header region, dropping",
				"module", mod.Name(), "offset", ed.offset)
			continue
		}
		start := int(ed.offset - protectedOffset)
		if start+len(ed.data) > len(image) {
			logger.Warn("edit exceeds module image, dropping",
				"module", mod.Name(), "offset", ed.offset, "size", len(ed.data))
			continue
		}
		copy(image[start:], ed.data)
		applied++
	}
	return applied
}
