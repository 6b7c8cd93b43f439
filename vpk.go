// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Archive represents a VPK archive as an in-memory directory tree plus a
// format version. An Archive is not safe for concurrent use; every operation
// that touches the filesystem opens and closes its own file handles.
type Archive struct {
	version uint32
	tree    *fileTree
	enc     encoding.Encoding
	log     zerolog.Logger
}

// defaultEncoding decodes tree names the way Valve's tools write them.
func defaultEncoding() encoding.Encoding {
	return charmap.Windows1252
}

// New creates an empty archive using format version 2.
func New() *Archive {
	enc := defaultEncoding()
	return &Archive{
		version: 2,
		tree:    newFileTree(enc),
		enc:     enc,
		log:     zerolog.Nop(),
	}
}

// Open parses an existing archive into a tree of region descriptors pointing
// back into the source file. Entry data is not loaded into memory; it is
// re-read from the file when streamed.
func Open(path string) (*Archive, error) {
	return OpenWithEncoding(path, defaultEncoding())
}

// OpenWithEncoding is Open with an explicit text encoding for tree names.
// A nil encoding reads names as raw UTF-8.
func OpenWithEncoding(path string, enc encoding.Encoding) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	h, entries, err := parseArchive(f, path, enc)
	if err != nil {
		return nil, err
	}

	a := &Archive{
		version: h.Version,
		tree:    newFileTree(enc),
		enc:     enc,
		log:     zerolog.Nop(),
	}
	for _, e := range entries {
		if err := a.tree.insert(e); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// List reads just the directory index of an archive and returns each entry's
// metadata, in on-disk order, without constructing a mutable Archive.
func List(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	_, entries, err := parseArchive(f, path, defaultEncoding())
	if err != nil {
		return nil, err
	}

	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out, nil
}

// Version returns the archive format version.
func (a *Archive) Version() uint32 {
	return a.version
}

// SetVersion changes the archive format version. Only versions 1 and 2 are
// defined.
func (a *Archive) SetVersion(v uint32) error {
	if v != 1 && v != 2 {
		return fmt.Errorf("vpk: unsupported version %d (must be 1 or 2)", v)
	}
	a.version = v
	return nil
}

// HeaderLength returns the on-disk header size implied by the version.
func (a *Archive) HeaderLength() uint32 {
	if a.version == 2 {
		return headerSizeV2
	}
	return headerSizeV1
}

// TreeLength returns the serialized byte length of the directory tree.
func (a *Archive) TreeLength() uint32 {
	return a.tree.length
}

// SetLogger attaches a logger for debug output. The default logger discards
// everything.
func (a *Archive) SetLogger(log zerolog.Logger) {
	a.log = log
}

// SetEncoding changes the text encoding used for tree names. It must be
// called before any entries are added.
func (a *Archive) SetEncoding(enc encoding.Encoding) error {
	if a.tree.len() != 0 {
		return fmt.Errorf("vpk: encoding must be set before entries are added")
	}
	a.enc = enc
	a.tree.enc = enc
	return nil
}

// AddFile adds an entry whose data is read from the file at srcPath when the
// archive is saved or the entry is extracted.
func (a *Archive) AddFile(ext, relPath, name, srcPath string) error {
	return a.add(ext, relPath, name, fileSource{Path: srcPath})
}

// AddRegion adds an entry whose data is a byte range of the file at srcPath.
func (a *Archive) AddRegion(ext, relPath, name, srcPath string, offset int64, length uint32) error {
	return a.add(ext, relPath, name, regionSource{Path: srcPath, Offset: offset, Length: length})
}

// AddBytes adds an entry backed by an in-memory buffer. The caller must not
// modify data afterwards.
func (a *Archive) AddBytes(ext, relPath, name string, data []byte) error {
	return a.add(ext, relPath, name, bufferSource{Data: data})
}

func (a *Archive) add(ext, relPath, name string, src dataSource) error {
	e := &Entry{
		Extension:    ext,
		RelPath:      denormalizePath(normalizePath(relPath)),
		Name:         name,
		ArchiveIndex: archiveIndexSelf,
		src:          src,
	}
	switch s := src.(type) {
	case regionSource:
		e.FileLength = s.Length
	case bufferSource:
		e.FileLength = uint32(len(s.Data))
	}
	return a.tree.insert(e)
}

// GetFile returns the entry for (ext, relPath, name), if present.
func (a *Archive) GetFile(ext, relPath, name string) (*Entry, bool) {
	return a.tree.lookup(ext, relPath, name)
}

// RemoveFile deletes the entry for (ext, relPath, name). Removing an absent
// entry is a no-op.
func (a *Archive) RemoveFile(ext, relPath, name string) {
	a.tree.remove(ext, relPath, name)
}

// Entries returns every entry in stable insertion order.
func (a *Archive) Entries() []*Entry {
	return a.tree.all()
}

// parseArchive reads the header and walks the serialized directory tree,
// resolving each entry's absolute data offset. Entries stored in this file
// get a region descriptor back into path; entries in numbered companion
// archives are recorded without a data source.
func parseArchive(f *os.File, path string, enc encoding.Encoding) (*archiveHeader, []*Entry, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("seek archive: %w", err)
	}

	h, err := readArchiveHeader(f)
	if err != nil {
		return nil, nil, err
	}

	dataStart := int64(h.headerLength()) + int64(h.TreeLength)

	// The tree walk must never read past the declared tree length.
	tr := bufio.NewReader(io.LimitReader(f, int64(h.TreeLength)))

	var entries []*Entry
	for {
		ext, err := readNullString(tr, enc)
		if err != nil {
			return nil, nil, treeReadError(err)
		}
		if ext == "" {
			break
		}
		if unsafeTreeName(ext) {
			return nil, nil, fmt.Errorf("%w: unsafe extension %q", ErrCorruptEntry, ext)
		}

		for {
			relPath, err := readNullString(tr, enc)
			if err != nil {
				return nil, nil, treeReadError(err)
			}
			if relPath == "" {
				break
			}
			if unsafeTreePath(denormalizePath(relPath)) {
				return nil, nil, fmt.Errorf("%w: unsafe path %q", ErrCorruptEntry, relPath)
			}

			for {
				name, err := readNullString(tr, enc)
				if err != nil {
					return nil, nil, treeReadError(err)
				}
				if name == "" {
					break
				}
				if unsafeTreeName(name) {
					return nil, nil, fmt.Errorf("%w: unsafe name %q", ErrCorruptEntry, name)
				}

				var meta dirEntry
				if err := binary.Read(tr, binary.LittleEndian, &meta); err != nil {
					return nil, nil, treeReadError(err)
				}
				if meta.Suffix != entryTerminator {
					return nil, nil, fmt.Errorf("%w: %s has suffix 0x%04X",
						ErrCorruptEntry, name, meta.Suffix)
				}
				if meta.PreloadLength != 0 {
					return nil, nil, fmt.Errorf("%w: %s has preload data (unsupported)",
						ErrCorruptEntry, name)
				}

				e := &Entry{
					Extension:    ext,
					RelPath:      denormalizePath(relPath),
					Name:         name,
					CRC:          meta.CRC,
					FileLength:   meta.FileLength,
					ArchiveIndex: meta.ArchiveIndex,
				}
				if meta.ArchiveIndex == archiveIndexSelf {
					// Offsets on disk are relative to the end of the tree.
					abs := dataStart + int64(meta.ArchiveOffset)
					e.ArchiveOffset = uint32(abs)
					e.src = regionSource{Path: path, Offset: abs, Length: meta.FileLength}
				} else {
					e.ArchiveOffset = meta.ArchiveOffset
				}
				entries = append(entries, e)
			}
		}
	}

	return h, entries, nil
}

// treeReadError maps reads that ran off the end of the tree region to
// ErrIndexOutOfBounds.
func treeReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrIndexOutOfBounds
	}
	return fmt.Errorf("read directory tree: %w", err)
}
