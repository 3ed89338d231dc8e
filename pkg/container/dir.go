// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirReader exposes a directory tree on disk through the Reader contract.
// Entry paths are container-relative (the root directory maps to "/").
// The directory is enumerated fresh on every Entries call since the
// filesystem is external and mutable.
type DirReader struct {
	root string
}

// NewDirReader creates a Reader rooted at the given directory.
// The directory must exist at the time of use, not at construction.
func NewDirReader(root string) *DirReader {
	return &DirReader{root: root}
}

// Root returns the backing directory path.
func (d *DirReader) Root() string { return d.root }

// Entries enumerates all entries under the root, sorted by container path
// in byte-wise ascending order.
func (d *DirReader) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == d.root {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		kind := KindFile
		if de.IsDir() {
			kind = KindDir
		} else if !de.Type().IsRegular() {
			// Symlinks and specials are not part of the container model.
			return nil
		}
		entries = append(entries, Entry{Path: NormalizePath(filepath.ToSlash(rel)), Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", d.root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Open opens the named file entry for reading.
func (d *DirReader) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(d.hostPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// ReadFile returns the full content of the named file entry.
func (d *DirReader) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(d.hostPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (d *DirReader) hostPath(path string) string {
	rel := strings.TrimPrefix(NormalizePath(path), "/")
	return filepath.Join(d.root, filepath.FromSlash(rel))
}
