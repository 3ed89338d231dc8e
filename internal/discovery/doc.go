// SPDX-License-Identifier: MPL-2.0

// Package discovery handles mod source discovery and the mod registry.
//
// This package intentionally combines two related concerns:
//   - Source scanning: classifying directories on disk into overlay and
//     patch buckets, per title or globally
//   - The registry: the per-title caches and the global patch cache that
//     every downstream engine (overlay builder, override engine, patch
//     engine) consumes
//
// These concerns are tightly coupled because bucket classification defines
// the registry's shape and discovery order defines merge precedence.
//
// The registry is plain mutable state with no internal locking; callers
// must serialize discovery against overlay/patch application themselves.
//
// File organization:
//   - registry.go: OverlayRef, TitleCache, PatchCache, Registry
//   - scanner.go: layout creation and the scan/discover entry points
package discovery
