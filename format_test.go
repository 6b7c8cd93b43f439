// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildV1ArchiveAt hand-assembles a one-entry version 1 archive with full
// control over the tree strings and metadata, so corrupt and hostile trees
// can be injected precisely.
func buildV1ArchiveAt(t *testing.T, ext, relPath, name string, meta dirEntry, data []byte) []byte {
	t.Helper()

	var tree bytes.Buffer
	tree.WriteString(ext + "\x00")
	tree.WriteString(relPath + "\x00")
	tree.WriteString(name + "\x00")
	require.NoError(t, binary.Write(&tree, binary.LittleEndian, &meta))
	tree.Write([]byte{0, 0, 0})

	var b bytes.Buffer
	require.NoError(t, binary.Write(&b, binary.LittleEndian, baseHeader{
		Magic:      vpkMagic,
		Version:    1,
		TreeLength: uint32(tree.Len()),
	}))
	b.Write(tree.Bytes())
	b.Write(data)
	return b.Bytes()
}

// buildV1Archive is buildV1ArchiveAt for the common case: the entry "a.txt"
// at the archive root with the given data, preload length and suffix.
func buildV1Archive(t *testing.T, suffix uint16, preload uint16, data []byte) []byte {
	t.Helper()

	return buildV1ArchiveAt(t, "txt", rootPathSentinel, "a", dirEntry{
		CRC:           crc32Update(0, data),
		PreloadLength: preload,
		ArchiveIndex:  archiveIndexSelf,
		FileLength:    uint32(len(data)),
		Suffix:        suffix,
	}, data)
}

func writeTestFile(t *testing.T, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.vpk")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestOpenBadMagic(t *testing.T) {
	t.Parallel()

	raw := buildV1Archive(t, entryTerminator, 0, []byte("data"))
	raw[0] = 0x00
	_, err := Open(writeTestFile(t, raw))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestOpenRespawnVariant(t *testing.T) {
	t.Parallel()

	raw := buildV1Archive(t, entryTerminator, 0, []byte("data"))
	binary.LittleEndian.PutUint32(raw[4:8], respawnVersion)
	_, err := Open(writeTestFile(t, raw))
	require.ErrorIs(t, err, ErrUnsupportedVariant)
}

func TestOpenUnknownVersion(t *testing.T) {
	t.Parallel()

	raw := buildV1Archive(t, entryTerminator, 0, []byte("data"))
	binary.LittleEndian.PutUint32(raw[4:8], 5)
	_, err := Open(writeTestFile(t, raw))
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestOpenBadHashesLength(t *testing.T) {
	t.Parallel()

	a := New()
	require.NoError(t, a.AddBytes("txt", "", "a", []byte("data")))
	path := filepath.Join(t.TempDir(), "v2.vpk")
	require.NoError(t, a.Save(path, false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// hashesLength lives at offset 20 in the v2 header.
	binary.LittleEndian.PutUint32(raw[20:24], 47)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	_, err = Open(path)
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestOpenTruncatedTree(t *testing.T) {
	t.Parallel()

	raw := buildV1Archive(t, entryTerminator, 0, []byte("data"))
	// Declare a tree larger than the file actually holds.
	binary.LittleEndian.PutUint32(raw[8:12], 4096)
	_, err := Open(writeTestFile(t, raw))
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestOpenBadEntrySuffix(t *testing.T) {
	t.Parallel()

	raw := buildV1Archive(t, 0x0000, 0, []byte("data"))
	_, err := Open(writeTestFile(t, raw))
	require.ErrorIs(t, err, ErrCorruptEntry)
}

func TestOpenPreloadUnsupported(t *testing.T) {
	t.Parallel()

	raw := buildV1Archive(t, entryTerminator, 8, []byte("data"))
	_, err := Open(writeTestFile(t, raw))
	require.ErrorIs(t, err, ErrCorruptEntry)
}

func TestOpenRejectsUnsafeTreeStrings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label   string
		ext     string
		relPath string
		name    string
	}{
		{"dot-dot path", "txt", "../escape", "evil"},
		{"nested dot-dot path", "txt", "sub/../../escape", "evil"},
		{"absolute path", "txt", "/abs", "evil"},
		{"backslash path", "txt", `sub\dir`, "evil"},
		{"dot-dot name", "txt", rootPathSentinel, ".."},
		{"separator in name", "txt", rootPathSentinel, "e/vil"},
		{"separator in extension", "t/xt", rootPathSentinel, "evil"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.label, func(t *testing.T) {
			t.Parallel()

			raw := buildV1ArchiveAt(t, tc.ext, tc.relPath, tc.name, dirEntry{
				ArchiveIndex: archiveIndexSelf,
				Suffix:       entryTerminator,
			}, nil)
			_, err := Open(writeTestFile(t, raw))
			require.ErrorIs(t, err, ErrCorruptEntry)
		})
	}
}

func TestExternalArchiveIndexEntry(t *testing.T) {
	t.Parallel()

	raw := buildV1ArchiveAt(t, "txt", rootPathSentinel, "remote", dirEntry{
		ArchiveIndex:  3,
		ArchiveOffset: 0x40,
		FileLength:    9,
		Suffix:        entryTerminator,
	}, nil)
	path := writeTestFile(t, raw)

	// The entry parses and lists with its raw metadata.
	entries, err := List(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint16(3), entries[0].ArchiveIndex)
	assert.Equal(t, uint32(0x40), entries[0].ArchiveOffset)
	assert.Equal(t, "remote.txt", entries[0].FilePath())

	// Its data is not in this file, so verification has nothing to check.
	mismatches, err := Verify(path)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	// Reading, extracting or re-saving the entry needs the companion
	// archive, which is unsupported.
	a, err := Open(path)
	require.NoError(t, err)
	e, ok := a.GetFile("txt", "", "remote")
	require.True(t, ok)

	_, err = e.ReadAll()
	require.ErrorIs(t, err, ErrExternalArchive)
	require.ErrorIs(t, a.Extract(t.TempDir(), false), ErrExternalArchive)
	require.ErrorIs(t, a.Save(filepath.Join(t.TempDir(), "resave.vpk"), false), ErrExternalArchive)
}

func TestOpenHandcraftedArchive(t *testing.T) {
	t.Parallel()

	data := []byte("hand-assembled payload")
	a, err := Open(writeTestFile(t, buildV1Archive(t, entryTerminator, 0, data)))
	require.NoError(t, err)

	e, ok := a.GetFile("txt", "", "a")
	require.True(t, ok)
	require.Equal(t, uint32(len(data)), e.FileLength)
	require.Equal(t, crc32Update(0, data), e.CRC)

	got, err := e.ReadAll()
	require.NoError(t, err)
	require.Equal(t, data, got)
}
