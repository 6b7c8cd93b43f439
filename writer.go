// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Save writes the archive to path. The write goes to a temp file in the same
// directory which is renamed into place on success. With createDirs set the
// parent directory is created as needed; otherwise a missing parent fails
// with ErrPathUnavailable.
func (a *Archive) Save(path string, createDirs bool) error {
	dir := filepath.Dir(path)
	if createDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	} else if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathUnavailable, dir)
	}

	tmp, err := os.CreateTemp(dir, "vpk_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := a.writeArchive(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	os.Remove(path)
	if err := os.Rename(tmpPath, path); err != nil {
		if err := copyFile(tmpPath, path); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("save archive: %w", err)
		}
		os.Remove(tmpPath)
	}

	a.log.Debug().
		Str("path", path).
		Uint32("version", a.version).
		Int("entries", a.tree.len()).
		Uint32("tree_length", a.tree.length).
		Msg("archive saved")

	return nil
}

// writeArchive writes the complete archive into f.
//
// The tree region is skipped first (its length is known up front from the
// incremental bookkeeping), entry data streams sequentially after it while
// the serialized tree accumulates in memory, and the finished tree is then
// written back into the reserved region. For version 2 the embed-chunk
// length is patched into the header and the three trailer checksums are
// recomputed from the bytes just written.
func (a *Archive) writeArchive(f *os.File) error {
	h := &archiveHeader{
		baseHeader: baseHeader{
			Magic:      vpkMagic,
			Version:    a.version,
			TreeLength: a.tree.length,
		},
		extendedHeader: extendedHeader{
			HashesLength: hashesLengthV2,
		},
	}
	if err := writeArchiveHeader(f, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	headerLen := int64(h.headerLength())
	treeLen := int64(a.tree.length)
	dataStart := headerLen + treeLen

	if _, err := f.Seek(dataStart, io.SeekStart); err != nil {
		return fmt.Errorf("seek past tree: %w", err)
	}

	var tree bytes.Buffer
	buf := make([]byte, copyBufferSize)
	dataPos := dataStart

	for _, ext := range a.tree.extensions() {
		if _, err := writeNullString(&tree, ext, a.enc); err != nil {
			return err
		}
		for _, relPath := range a.tree.paths(ext) {
			if _, err := writeNullString(&tree, relPath, a.enc); err != nil {
				return err
			}
			for _, e := range a.tree.entriesAt(ext, relPath) {
				if _, err := writeNullString(&tree, e.Name, a.enc); err != nil {
					return err
				}

				crc := &crcWriter{}
				n, err := e.writeTo(io.MultiWriter(f, crc), buf)
				if err != nil {
					return fmt.Errorf("write entry %s: %w", e.FilePath(), err)
				}

				meta := dirEntry{
					CRC:           crc.sum,
					ArchiveIndex:  archiveIndexSelf,
					ArchiveOffset: uint32(dataPos - dataStart),
					FileLength:    n,
					Suffix:        entryTerminator,
				}
				if err := binary.Write(&tree, binary.LittleEndian, &meta); err != nil {
					return fmt.Errorf("write entry metadata: %w", err)
				}

				e.CRC = crc.sum
				e.FileLength = n
				e.ArchiveOffset = uint32(dataPos)
				e.ArchiveIndex = archiveIndexSelf
				dataPos += int64(n)
			}
			tree.WriteByte(0)
		}
		tree.WriteByte(0)
	}
	tree.WriteByte(0)

	if int64(tree.Len()) != treeLen {
		return fmt.Errorf("vpk: serialized tree is %d bytes, bookkeeping says %d",
			tree.Len(), treeLen)
	}
	if _, err := f.WriteAt(tree.Bytes(), headerLen); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}

	if a.version != 2 {
		return nil
	}

	embedLen := dataPos - dataStart

	// Patch the embed-chunk length into its reserved header slot.
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(embedLen))
	if _, err := f.WriteAt(lenBuf[:], headerSizeV1); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}

	// The trailer digests cover the bytes as written, so re-read them from
	// the file rather than trusting in-memory copies.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to start: %w", err)
	}
	sums := newArchiveChecksums()
	if err := sums.readFrom(f, headerLen, treeLen, embedLen, buf); err != nil {
		return fmt.Errorf("checksum archive: %w", err)
	}

	treeSum, chunkHashesSum, fileSum := sums.sums()
	trailer := make([]byte, 0, hashesLengthV2)
	trailer = append(trailer, treeSum...)
	trailer = append(trailer, chunkHashesSum...)
	trailer = append(trailer, fileSum...)
	if _, err := f.WriteAt(trailer, dataPos); err != nil {
		return fmt.Errorf("write trailer checksums: %w", err)
	}

	return nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
