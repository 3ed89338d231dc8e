// SPDX-License-Identifier: MPL-2.0

// Package container provides the content-container abstractions consumed by
// the overlay and patch engines: a read-only hierarchical path→bytes Reader,
// a Builder that assembles a new immutable container from staged payloads,
// a loose-directory adapter with the same contract, an indexed archive codec
// (optionally gzip-compressed), and a flat partition container for
// executable modules.
//
// Container paths are slash-separated, rooted at "/", and enumerated in
// byte-wise ascending order regardless of the backing store.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
)

var (
	// ErrEntryNotFound is returned when a requested entry path does not exist.
	ErrEntryNotFound = errors.New("container entry not found")
)

type (
	// EntryKind distinguishes file and directory entries.
	EntryKind int

	// Entry is one enumerated container entry.
	Entry struct {
		// Path is the slash-separated container path, rooted at "/".
		Path string
		// Kind reports whether the entry is a regular file or a directory.
		Kind EntryKind
	}

	// Reader is a read-only, byte-addressable hierarchical container.
	Reader interface {
		// Entries returns all entries sorted by path in byte-wise
		// ascending order.
		Entries() ([]Entry, error)
		// Open returns a reader over the named file entry.
		Open(path string) (io.ReadCloser, error)
		// ReadFile returns the full content of the named file entry.
		ReadFile(path string) ([]byte, error)
	}

	// Builder assembles a new immutable container from ordered named
	// payloads. Add order is irrelevant; Finalize sorts entries by path.
	Builder struct {
		payloads map[string][]byte
	}

	// memReader is the immutable container produced by Builder.Finalize.
	memReader struct {
		entries  []Entry
		payloads map[string][]byte
	}
)

const (
	// KindFile marks a regular file entry.
	KindFile EntryKind = iota
	// KindDir marks a directory entry.
	KindDir
)

// String returns a human-readable kind name.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// NewBuilder creates an empty container builder.
func NewBuilder() *Builder {
	return &Builder{payloads: map[string][]byte{}}
}

// Add stages a file payload under the given container path. Staging the
// same path twice keeps the last payload; callers that need first-wins
// semantics must guard with their own claim set.
func (b *Builder) Add(path string, data []byte) {
	b.payloads[NormalizePath(path)] = data
}

// Len returns the number of staged payloads.
func (b *Builder) Len() int { return len(b.payloads) }

// Finalize builds the immutable container. The builder must not be reused
// afterwards.
func (b *Builder) Finalize() Reader {
	entries := make([]Entry, 0, len(b.payloads))
	for path := range b.payloads {
		entries = append(entries, Entry{Path: path, Kind: KindFile})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	r := &memReader{entries: entries, payloads: b.payloads}
	b.payloads = nil
	return r
}

func (m *memReader) Entries() ([]Entry, error) {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memReader) ReadFile(path string) ([]byte, error) {
	data, ok := m.payloads[NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}
	return data, nil
}

func (m *memReader) Open(path string) (io.ReadCloser, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// NormalizePath canonicalizes a container path: forward slashes only,
// a single leading "/", no trailing slash.
func NormalizePath(path string) string {
	buf := make([]byte, 0, len(path)+1)
	buf = append(buf, '/')
	prevSlash := true
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '\\' {
			c = '/'
		}
		if c == '/' {
			if !prevSlash {
				buf = append(buf, c)
			}
			prevSlash = true
			continue
		}
		prevSlash = false
		buf = append(buf, c)
	}
	if len(buf) > 1 && buf[len(buf)-1] == '/' {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}
