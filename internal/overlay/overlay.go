// SPDX-License-Identifier: MPL-2.0

// Package overlay merges loose-file and container-based content overlays
// with a base hierarchical container into one new immutable container.
//
// Precedence is fixed: loose directories out-rank containers, containers
// out-rank the base, and within each class the first discovered source
// wins. A claim set of container-relative paths enforces first-wins across
// both overlay classes; the base supplies every unclaimed path verbatim.
// Entry order depends only on byte-wise path sort order within each class,
// never on incidental iteration order.
package overlay

import (
	"os"

	"github.com/charmbracelet/log"

	"modkit-cli/internal/discovery"
	"modkit-cli/internal/issue"
	"modkit-cli/pkg/container"
	"modkit-cli/pkg/types"
)

// Warning records one recoverable conflict observed during a build.
type Warning struct {
	// Issue classifies the warning.
	Issue issue.Id
	// Source names the overlay that lost the conflict.
	Source string
	// Path is the contested container path.
	Path string
}

// Builder merges a title's recorded content overlays over a base container.
type Builder struct {
	reg    *discovery.Registry
	logger *log.Logger
}

// NewBuilder creates a builder reading overlay sources from reg.
// A nil logger falls back to the package default.
func NewBuilder(reg *discovery.Registry, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{reg: reg, logger: logger}
}

// Build returns a container layering the title's content overlays over
// base. When the title has no recorded content overlays, or no overlay
// supplies any file, base is returned unchanged. The merge is rebuilt
// fresh on every call; nothing is persisted.
//
// Any source failing to enumerate or read aborts the build: the partial
// result is discarded and the error propagated.
func (b *Builder) Build(id types.TitleID, base container.Reader) (container.Reader, []Warning, error) {
	cache, ok := b.reg.Lookup(id)
	if !ok || !cache.HasContent() {
		return base, nil, nil
	}

	claimed := map[string]struct{}{}
	out := container.NewBuilder()
	var warnings []Warning

	// Loose directories first: they out-rank containers for any
	// overlapping path regardless of discovery order between the classes.
	for _, ref := range cache.ContentDirs {
		if _, err := os.Stat(ref.Path); os.IsNotExist(err) {
			b.logger.Debug("overlay dir vanished since discovery, skipping", "overlay", ref.Name, "path", ref.Path)
			continue
		}
		src := container.NewDirReader(ref.Path)
		w, err := b.stageOverlay(ref, src, claimed, out)
		if err != nil {
			return nil, nil, issue.NewErrorContext().
				WithOperation("read overlay directory").
				WithResource(ref.Path).
				WithSuggestion("Check that the overlay directory is readable").
				Wrap(err).
				BuildError()
		}
		warnings = append(warnings, w...)
	}

	// Container files second, same claim set and per-entry logic.
	for _, ref := range cache.ContentContainers {
		if _, err := os.Stat(ref.Path); os.IsNotExist(err) {
			b.logger.Debug("overlay container vanished since discovery, skipping", "overlay", ref.Name, "path", ref.Path)
			continue
		}
		src, err := container.Open(ref.Path)
		if err != nil {
			return nil, nil, issue.NewErrorContext().
				WithOperation("open overlay container").
				WithResource(ref.Path).
				WithSuggestion("Check that the file is a valid content container").
				Wrap(err).
				BuildError()
		}
		w, err := b.stageOverlay(ref, src, claimed, out)
		if err != nil {
			return nil, nil, issue.NewErrorContext().
				WithOperation("read overlay container").
				WithResource(ref.Path).
				Wrap(err).
				BuildError()
		}
		warnings = append(warnings, w...)
	}

	// No overlay supplied anything: the staged builder is discarded and
	// the base passes through untouched.
	if len(claimed) == 0 {
		return base, warnings, nil
	}

	entries, err := base.Entries()
	if err != nil {
		return nil, nil, issue.WrapWithOperation(err, "enumerate base container")
	}
	for _, e := range entries {
		if e.Kind != container.KindFile {
			continue
		}
		if _, taken := claimed[e.Path]; taken {
			continue
		}
		data, err := base.ReadFile(e.Path)
		if err != nil {
			return nil, nil, issue.WrapWithOperation(err, "read base container entry")
		}
		out.Add(e.Path, data)
	}

	b.logger.Debug("built content overlay",
		"title", id.Hex(),
		"overridden", len(claimed),
		"entries", out.Len(),
		"warnings", len(warnings))
	return out.Finalize(), warnings, nil
}

// stageOverlay claims and stages every unclaimed regular file of src.
// Already-claimed paths are skipped with a duplicate warning naming the
// losing overlay.
func (b *Builder) stageOverlay(ref discovery.OverlayRef, src container.Reader, claimed map[string]struct{}, out *container.Builder) ([]Warning, error) {
	entries, err := src.Entries()
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	for _, e := range entries {
		if e.Kind != container.KindFile {
			continue
		}
		if _, taken := claimed[e.Path]; taken {
			warnings = append(warnings, Warning{
				Issue:  issue.DuplicateOverlayFileId,
				Source: ref.Name,
				Path:   e.Path,
			})
			b.logger.Warn("duplicate overlay file, first source wins",
				"overlay", ref.Name, "path", e.Path)
			continue
		}
		data, err := src.ReadFile(e.Path)
		if err != nil {
			return nil, err
		}
		claimed[e.Path] = struct{}{}
		out.Add(e.Path, data)
	}
	return warnings, nil
}
