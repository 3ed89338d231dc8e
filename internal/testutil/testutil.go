// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixture builders shared by package tests:
// raw executable-module images, partition containers, and on-disk mod
// directory trees.
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// InstalledRaw fabricates the raw bytes of an installed module with the
// given build id (zero padded to 32 bytes) and image content.
func InstalledRaw(buildID, image []byte) []byte {
	raw := make([]byte, 0x100+len(image))
	copy(raw[:4], "MEXE")
	raw[4] = 1
	copy(raw[0x10:0x30], buildID)
	copy(raw[0x100:], image)
	return raw
}

// StandaloneRaw fabricates the raw bytes of a standalone module. The image
// is the whole file, so content begins right after the 0x40-byte header.
func StandaloneRaw(buildID, content []byte) []byte {
	raw := make([]byte, 0x40+len(content))
	copy(raw[:4], "SEXE")
	raw[4] = 1
	copy(raw[0x10:0x30], buildID)
	copy(raw[0x40:], content)
	return raw
}

// PartitionRaw fabricates partition container bytes holding the named
// payloads in the given order.
func PartitionRaw(t *testing.T, names []string, payloads map[string][]byte) []byte {
	t.Helper()

	var table bytes.Buffer
	var blob bytes.Buffer
	for _, name := range names {
		data, ok := payloads[name]
		if !ok {
			t.Fatalf("PartitionRaw: missing payload for %s", name)
		}
		if err := binary.Write(&table, binary.LittleEndian, uint16(len(name))); err != nil {
			t.Fatal(err)
		}
		table.WriteString(name)
		if err := binary.Write(&table, binary.LittleEndian, uint64(blob.Len())); err != nil {
			t.Fatal(err)
		}
		if err := binary.Write(&table, binary.LittleEndian, uint64(len(data))); err != nil {
			t.Fatal(err)
		}
		blob.Write(data)
	}

	var out bytes.Buffer
	out.WriteString("MPFS")
	out.WriteByte(1)
	if err := binary.Write(&out, binary.LittleEndian, uint32(len(names))); err != nil {
		t.Fatal(err)
	}
	out.Write(table.Bytes())
	out.Write(blob.Bytes())
	return out.Bytes()
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteTree writes a set of relative path → content pairs under root.
func WriteTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
}
