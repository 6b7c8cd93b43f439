// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Mismatch kinds reported by Verify.
const (
	MismatchCRC32       = "crc32"
	MismatchTreeSum     = "tree checksum"
	MismatchChunkHashes = "chunk hashes checksum"
	MismatchFileSum     = "file checksum"
)

// Mismatch describes one checksum that did not match during verification.
// Want and Got are hex-encoded. Path names the affected entry, or is empty
// for whole-archive checksums.
type Mismatch struct {
	Kind string
	Path string
	Want string
	Got  string
}

func (m Mismatch) String() string {
	if m.Path == "" {
		return fmt.Sprintf("%s mismatch: stored %s, computed %s", m.Kind, m.Want, m.Got)
	}
	return fmt.Sprintf("%s mismatch for %s: stored %s, computed %s", m.Kind, m.Path, m.Want, m.Got)
}

// Verify re-reads every entry's data region and recomputes its CRC-32, and
// for version 2 archives recomputes the three trailer checksums. Mismatches
// are collected rather than treated as failures; an empty result means the
// archive verified clean. Entries stored in companion archive parts are
// skipped. The returned error covers I/O and parse problems only.
func Verify(path string) ([]Mismatch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	h, entries, err := parseArchive(f, path, defaultEncoding())
	if err != nil {
		return nil, err
	}

	var findings []Mismatch
	buf := make([]byte, copyBufferSize)

	for _, e := range entries {
		if e.ArchiveIndex != archiveIndexSelf {
			continue
		}

		if _, err := f.Seek(int64(e.ArchiveOffset), io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek to %s: %w", e.FilePath(), err)
		}
		crc := &crcWriter{}
		if err := copySection(crc, f, int64(e.FileLength), buf); err != nil {
			return nil, fmt.Errorf("read %s: %w", e.FilePath(), err)
		}

		if crc.sum != e.CRC {
			findings = append(findings, Mismatch{
				Kind: MismatchCRC32,
				Path: e.FilePath(),
				Want: fmt.Sprintf("%08x", e.CRC),
				Got:  fmt.Sprintf("%08x", crc.sum),
			})
		}
	}

	if h.Version == 2 {
		trailerFindings, err := verifyTrailer(f, h, buf)
		if err != nil {
			return nil, err
		}
		findings = append(findings, trailerFindings...)
	}

	return findings, nil
}

// verifyTrailer recomputes the composite V2 checksums over the header, tree
// and embedded chunk and compares them with the stored trailer digests.
func verifyTrailer(f *os.File, h *archiveHeader, buf []byte) ([]Mismatch, error) {
	headerLen := int64(h.headerLength())
	treeLen := int64(h.TreeLength)
	chunkLen := int64(h.EmbedChunkLength)

	trailerOffset := headerLen + treeLen + chunkLen + int64(h.ChunkHashesLength)
	if _, err := f.Seek(trailerOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to trailer: %w", err)
	}
	stored := make([]byte, hashesLengthV2)
	if _, err := io.ReadFull(f, stored); err != nil {
		return nil, fmt.Errorf("read trailer checksums: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to start: %w", err)
	}
	sums := newArchiveChecksums()
	if err := sums.readFrom(f, headerLen, treeLen, chunkLen, buf); err != nil {
		return nil, fmt.Errorf("checksum archive: %w", err)
	}
	treeSum, chunkHashesSum, fileSum := sums.sums()

	var findings []Mismatch
	compare := func(kind string, stored, computed []byte) {
		want := hex.EncodeToString(stored)
		got := hex.EncodeToString(computed)
		if want != got {
			findings = append(findings, Mismatch{Kind: kind, Want: want, Got: got})
		}
	}
	compare(MismatchTreeSum, stored[0:16], treeSum)
	compare(MismatchChunkHashes, stored[16:32], chunkHashesSum)
	compare(MismatchFileSum, stored[32:48], fileSum)

	return findings, nil
}
