// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"modkit-cli/internal/issue"
	"modkit-cli/pkg/types"
)

// Fixed on-disk names consumed under a mods root.
const (
	// ContentRootName is the per-title content subtree.
	ContentRootName = "content"
	// InstalledPatchRootName holds installed-module patch sources.
	InstalledPatchRootName = "exefs_patches"
	// StandalonePatchRootName holds standalone-module patch sources.
	StandalonePatchRootName = "nro_patches"
	// KernelPatchRootName is reserved; discovery never routes into it.
	KernelPatchRootName = "kip_patches"

	// ContentContainerName is the content-container overlay filename.
	ContentContainerName = "romfs.bin"
	// PartitionContainerName is the partition-container overlay filename.
	PartitionContainerName = "exefs.nsp"
	// LooseContentDirName is the reserved loose content folder name.
	LooseContentDirName = "romfs"
	// LooseModuleDirName is the reserved loose module folder name.
	LooseModuleDirName = "exefs"
)

// Scanner classifies directories on disk into the registry's buckets.
type Scanner struct {
	reg    *Registry
	logger *log.Logger
}

// NewScanner creates a scanner recording into reg. A nil logger falls back
// to the package default.
func NewScanner(reg *Registry, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{reg: reg, logger: logger}
}

// EnsureLayout idempotently creates the base mods root and its fixed
// subdirectories. The kernel-patch root is reserved and not created.
func EnsureLayout(root string) error {
	for _, dir := range []string{
		root,
		filepath.Join(root, ContentRootName),
		filepath.Join(root, InstalledPatchRootName),
		filepath.Join(root, StandalonePatchRootName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return issue.NewErrorContext().
				WithOperation("create mods layout").
				WithResource(dir).
				WithSuggestion("Check that the mods root is writable").
				Wrap(err).
				BuildError()
		}
	}
	return nil
}

// TitleDir locates the title's directory under root's content root: the
// first subdirectory whose name case-insensitively starts with the title
// id's lowercase hex form. When none exists one is created, named exactly
// by the hex id.
func TitleDir(root string, id types.TitleID) (string, error) {
	contentRoot := filepath.Join(root, ContentRootName)
	if found, ok := findTitleDir(contentRoot, id); ok {
		return found, nil
	}

	created := filepath.Join(contentRoot, id.Hex())
	if err := os.MkdirAll(created, 0o755); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("create title directory").
			WithResource(created).
			Wrap(err).
			BuildError()
	}
	return created, nil
}

// findTitleDir returns the first subdirectory of contentRoot whose name
// starts with the title's hex id, ignoring case.
func findTitleDir(contentRoot string, id types.TitleID) (string, bool) {
	entries, err := os.ReadDir(contentRoot)
	if err != nil {
		return "", false
	}
	prefix := id.Hex()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(e.Name()), prefix) {
			return filepath.Join(contentRoot, e.Name()), true
		}
	}
	return "", false
}

// ScanPatchDir classifies patchDir by its case-insensitive name into one of
// the three patch buckets and records every immediate subdirectory as one
// patch source. No-op when patchDir does not exist or searchRoot was
// already recorded as scanned.
func (s *Scanner) ScanPatchDir(patchDir, searchRoot string) issue.Outcome {
	if !dirExists(patchDir) {
		s.logger.Debug("patch dir missing, skipping", "dir", patchDir)
		return issue.Skippedf("patch dir %s does not exist", patchDir)
	}
	if s.reg.Patches().WasScanned(searchRoot) {
		s.logger.Debug("patch root already scanned", "root", searchRoot)
		return issue.Skippedf("root %s already scanned", searchRoot)
	}

	var bucket *[]OverlayRef
	switch strings.ToLower(filepath.Base(patchDir)) {
	case InstalledPatchRootName:
		bucket = &s.reg.Patches().Installed
	case StandalonePatchRootName:
		bucket = &s.reg.Patches().Standalone
	case KernelPatchRootName:
		bucket = &s.reg.Patches().Kernel
	default:
		return issue.Skippedf("%s is not a patch dir", patchDir)
	}

	entries, err := os.ReadDir(patchDir)
	if err != nil {
		return issue.Fatal(issue.NewErrorContext().
			WithOperation("scan patch dir").
			WithResource(patchDir).
			Wrap(err).
			BuildError())
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ref := OverlayRef{Name: e.Name(), Path: filepath.Join(patchDir, e.Name())}
		*bucket = append(*bucket, ref)
		s.logger.Debug("recorded patch source", "name", ref.Name, "path", ref.Path)
	}
	return issue.Ok()
}

// ScanTitleDir records the overlay sources found in one title directory:
// the two fixed container filenames at the top level, the reserved
// romfs/exefs folders, and named mod folders probed for nested
// romfs/exefs. No-op when titleDir does not exist.
func (s *Scanner) ScanTitleDir(id types.TitleID, titleDir string) issue.Outcome {
	if !dirExists(titleDir) {
		s.logger.Debug("title dir missing, skipping", "dir", titleDir)
		return issue.Skippedf("title dir %s does not exist", titleDir)
	}

	cache := s.reg.Title(id)
	titleName := filepath.Base(titleDir)

	if fileExists(filepath.Join(titleDir, ContentContainerName)) {
		cache.ContentContainers = append(cache.ContentContainers, OverlayRef{
			Name: titleName + " RomFs",
			Path: filepath.Join(titleDir, ContentContainerName),
		})
	}
	if fileExists(filepath.Join(titleDir, PartitionContainerName)) {
		cache.PartitionContainers = append(cache.PartitionContainers, OverlayRef{
			Name: titleName + " ExeFs",
			Path: filepath.Join(titleDir, PartitionContainerName),
		})
	}

	entries, err := os.ReadDir(titleDir)
	if err != nil {
		return issue.Fatal(issue.NewErrorContext().
			WithOperation("scan title dir").
			WithResource(titleDir).
			Wrap(err).
			BuildError())
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(titleDir, e.Name())
		switch e.Name() {
		case LooseContentDirName:
			cache.ContentDirs = append(cache.ContentDirs, OverlayRef{Name: titleName, Path: sub})
		case LooseModuleDirName:
			cache.ModuleDirs = append(cache.ModuleDirs, OverlayRef{Name: titleName, Path: sub})
		default:
			// Named mod folder: probe for nested romfs/exefs.
			if nested := filepath.Join(sub, LooseContentDirName); dirExists(nested) {
				cache.ContentDirs = append(cache.ContentDirs, OverlayRef{Name: e.Name(), Path: nested})
			}
			if nested := filepath.Join(sub, LooseModuleDirName); dirExists(nested) {
				cache.ModuleDirs = append(cache.ModuleDirs, OverlayRef{Name: e.Name(), Path: nested})
			}
		}
	}

	s.logger.Debug("scanned title dir",
		"title", id.Hex(),
		"dir", titleDir,
		"contentDirs", len(cache.ContentDirs),
		"moduleDirs", len(cache.ModuleDirs),
		"containers", len(cache.ContentContainers)+len(cache.PartitionContainers))
	return issue.Ok()
}

// ScanContentRoot locates the title's hex-prefixed subdirectory under
// contentRoot and delegates to ScanTitleDir.
func (s *Scanner) ScanContentRoot(id types.TitleID, contentRoot string) issue.Outcome {
	titleDir, ok := findTitleDir(contentRoot, id)
	if !ok {
		s.logger.Debug("no title dir under content root", "title", id.Hex(), "root", contentRoot)
		return issue.Skippedf("no title dir for %s under %s", id.Hex(), contentRoot)
	}
	return s.ScanTitleDir(id, titleDir)
}

// Discover processes each search root: a root that is itself a content or
// patch root is scanned as such; any other root has the same two checks
// applied to each of its immediate children. Content scanning requires a
// title id and is never deduplicated; patch scanning is deduplicated per
// search root via the registry's scanned-root set, which Discover updates
// after processing each root.
func (s *Scanner) Discover(title *types.TitleID, roots ...string) error {
	for _, root := range roots {
		if out := s.discoverRoot(title, root); out.IsFatal() {
			return out.Err
		}
		s.reg.Patches().MarkScanned(root)
	}
	return nil
}

func (s *Scanner) discoverRoot(title *types.TitleID, root string) issue.Outcome {
	base := strings.ToLower(filepath.Base(root))

	if base == ContentRootName && title != nil {
		return s.ScanContentRoot(*title, root)
	}
	if isPatchRootName(base) {
		return s.ScanPatchDir(root, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("search root missing, skipping", "root", root)
			return issue.Skippedf("root %s does not exist", root)
		}
		return issue.Fatal(issue.NewErrorContext().
			WithOperation("read search root").
			WithResource(root).
			Wrap(err).
			BuildError())
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		child := filepath.Join(root, e.Name())
		name := strings.ToLower(e.Name())
		switch {
		case name == ContentRootName && title != nil:
			if out := s.ScanContentRoot(*title, child); out.IsFatal() {
				return out
			}
		case isPatchRootName(name):
			if out := s.ScanPatchDir(child, root); out.IsFatal() {
				return out
			}
		}
	}
	return issue.Ok()
}

// isPatchRootName reports whether name is a scannable patch root. The
// kernel-patch root is reserved and deliberately excluded.
func isPatchRootName(name string) bool {
	return name == InstalledPatchRootName || name == StandalonePatchRootName
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Describe returns a short human-readable summary of a cache, used by the
// CLI list command.
func Describe(cache *TitleCache) string {
	return fmt.Sprintf("%d content dir(s), %d module dir(s), %d content container(s), %d partition container(s)",
		len(cache.ContentDirs), len(cache.ModuleDirs),
		len(cache.ContentContainers), len(cache.PartitionContainers))
}
