// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// dataSource locates an entry's bytes. Exactly one of the three shapes is
// attached to an entry at a time.
type dataSource interface {
	isDataSource()
}

// fileSource reads a whole file from disk.
type fileSource struct {
	Path string
}

// regionSource reads a byte range of a file, typically a data region inside
// an existing archive.
type regionSource struct {
	Path   string
	Offset int64
	Length uint32
}

// bufferSource serves bytes held in memory.
type bufferSource struct {
	Data []byte
}

func (fileSource) isDataSource()   {}
func (regionSource) isDataSource() {}
func (bufferSource) isDataSource() {}

// Entry is one logical file recorded in the archive's directory tree.
//
// CRC, FileLength and ArchiveOffset hold on-disk metadata: they are populated
// when an archive is parsed and refreshed by Save. ArchiveOffset is absolute
// within the archive file. For entries added in memory the metadata is filled
// in once the archive is saved.
type Entry struct {
	Extension string
	RelPath   string // forward-slash relative path, "" for the archive root
	Name      string // file name without extension

	CRC           uint32
	FileLength    uint32
	ArchiveOffset uint32
	ArchiveIndex  uint16

	src dataSource
}

// FilePath returns the entry's path within the archive, extension included.
func (e *Entry) FilePath() string {
	name := e.Name + "." + e.Extension
	if e.RelPath == "" {
		return name
	}
	return e.RelPath + "/" + name
}

// ReadAll loads the entry's data into memory. The backing file, if any, is
// opened and closed within the call.
func (e *Entry) ReadAll() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := e.writeTo(&buf, make([]byte, copyBufferSize)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeTo streams the entry's data into w through buf and returns the number
// of bytes written. File handles are scoped to the call.
func (e *Entry) writeTo(w io.Writer, buf []byte) (uint32, error) {
	switch src := e.src.(type) {
	case fileSource:
		f, err := os.Open(src.Path)
		if err != nil {
			return 0, fmt.Errorf("open source %s: %w", src.Path, err)
		}
		defer f.Close()

		n, err := io.CopyBuffer(w, f, buf)
		if err != nil {
			return 0, fmt.Errorf("copy source %s: %w", src.Path, err)
		}
		return uint32(n), nil

	case regionSource:
		f, err := os.Open(src.Path)
		if err != nil {
			return 0, fmt.Errorf("open source %s: %w", src.Path, err)
		}
		defer f.Close()

		if _, err := f.Seek(src.Offset, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek source %s: %w", src.Path, err)
		}
		if err := copySection(w, f, int64(src.Length), buf); err != nil {
			return 0, fmt.Errorf("copy region of %s: %w", src.Path, err)
		}
		return src.Length, nil

	case bufferSource:
		if _, err := w.Write(src.Data); err != nil {
			return 0, err
		}
		return uint32(len(src.Data)), nil

	default:
		if e.ArchiveIndex != archiveIndexSelf {
			return 0, fmt.Errorf("%w: %s", ErrExternalArchive, e.FilePath())
		}
		return 0, fmt.Errorf("vpk: entry %s has no data source", e.FilePath())
	}
}
