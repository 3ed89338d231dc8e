// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"modkit-cli/pkg/types"
)

type (
	// OverlayRef is one discovered overlay or patch source: a display name
	// plus a path to either a directory or a single container file.
	// Immutable once recorded; the path's existence is re-validated at use
	// time since the filesystem is external and mutable.
	OverlayRef struct {
		// Name is the display name used in warnings and listings.
		Name string
		// Path is the absolute path recorded at discovery time.
		Path string
	}

	// TitleCache holds the overlay sources recorded for one title, in
	// discovery order. Lists are append-only until a full registry reset.
	TitleCache struct {
		// ContentContainers are content-container overlays (romfs.bin).
		ContentContainers []OverlayRef
		// PartitionContainers are partition-container overlays (exefs.nsp).
		PartitionContainers []OverlayRef
		// ContentDirs are loose content overlay directories (romfs/).
		ContentDirs []OverlayRef
		// ModuleDirs are loose module overlay directories (exefs/). They
		// double as both override and installed-patch sources.
		ModuleDirs []OverlayRef
	}

	// PatchCache holds the global patch sources, in discovery order, plus
	// the set of already-scanned roots used to keep repeated discovery
	// calls from re-recording the same patch root.
	PatchCache struct {
		// Installed are installed-module patch sources (exefs_patches).
		Installed []OverlayRef
		// Standalone are standalone-module patch sources (nro_patches).
		Standalone []OverlayRef
		// Kernel is reserved for kernel-module patches; recorded only via
		// an explicit patch-dir scan, never applied.
		Kernel []OverlayRef

		scannedRoots map[string]struct{}
	}

	// Registry is the process-wide mod state: per-title caches keyed by
	// title id plus the global patch cache. It has construct, discover,
	// and reset lifecycle and is passed by reference; there is no ambient
	// singleton and no internal locking.
	Registry struct {
		titles  map[types.TitleID]*TitleCache
		patches PatchCache
	}
)

// HasContent reports whether any content overlay (loose directory or
// container) is recorded.
func (c *TitleCache) HasContent() bool {
	return len(c.ContentDirs) > 0 || len(c.ContentContainers) > 0
}

// WasScanned reports whether root was already processed by a discovery
// call. Only patch scanning consults this guard.
func (p *PatchCache) WasScanned(root string) bool {
	_, ok := p.scannedRoots[root]
	return ok
}

// MarkScanned records root as processed.
func (p *PatchCache) MarkScanned(root string) {
	if p.scannedRoots == nil {
		p.scannedRoots = map[string]struct{}{}
	}
	p.scannedRoots[root] = struct{}{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{titles: map[types.TitleID]*TitleCache{}}
}

// Title returns the cache for id, creating it lazily on first use.
func (r *Registry) Title(id types.TitleID) *TitleCache {
	c, ok := r.titles[id]
	if !ok {
		c = &TitleCache{}
		r.titles[id] = c
	}
	return c
}

// Lookup returns the cache for id without creating one.
func (r *Registry) Lookup(id types.TitleID) (*TitleCache, bool) {
	c, ok := r.titles[id]
	return c, ok
}

// Patches returns the global patch cache.
func (r *Registry) Patches() *PatchCache {
	return &r.patches
}

// Titles returns all title ids with a cache, in ascending order.
func (r *Registry) Titles() []types.TitleID {
	ids := maps.Keys(r.titles)
	slices.Sort(ids)
	return ids
}

// Reset drops all recorded state: every title cache, every patch bucket,
// and the scanned-root set.
func (r *Registry) Reset() {
	r.titles = map[types.TitleID]*TitleCache{}
	r.patches = PatchCache{}
}
