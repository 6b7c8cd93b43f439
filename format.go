// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"encoding/binary"
	"fmt"
	"io"
)

// VPK format constants
const (
	// Magic signature, stored little-endian
	vpkMagic = 0x55AA1234

	// Version used by the Respawn-customized variant (Titanfall et al.),
	// which is rejected outright.
	respawnVersion = 0x00030002

	// Header sizes
	headerSizeV1 = 12 // magic + version + tree length
	headerSizeV2 = 28 // V1 fields + four extended length fields

	// Size of one serialized directory entry record
	dirEntrySize = 18

	// Archive index marking entry data as embedded in this file rather than
	// a numbered companion archive.
	archiveIndexSelf = 0x7FFF

	// Terminator closing every directory entry record
	entryTerminator = 0xFFFF

	// Fixed length of the v2 trailer checksum block (three MD5 digests)
	hashesLengthV2 = 48

	// Buffer size for streaming entry data
	copyBufferSize = 16 * 1024
)

// baseHeader is the VPK archive header common to V1 and V2 (12 bytes)
type baseHeader struct {
	Magic      uint32 // 0x55AA1234
	Version    uint32 // 1 or 2
	TreeLength uint32 // Serialized directory tree size in bytes
}

// extendedHeader contains V2 extended header fields (16 bytes)
type extendedHeader struct {
	EmbedChunkLength  uint32 // Size of embedded entry data after the tree
	ChunkHashesLength uint32 // Size of the chunk-hash section (always 0 here)
	HashesLength      uint32 // Size of the trailer checksum block, must be 48
	SignatureLength   uint32 // Size of the signature section (always 0 here)
}

// archiveHeader combines V1 and V2 headers
type archiveHeader struct {
	baseHeader
	extendedHeader
}

// headerLength returns the on-disk header size for the archive version.
func (h *archiveHeader) headerLength() uint32 {
	if h.Version == 2 {
		return headerSizeV2
	}
	return headerSizeV1
}

// dirEntry is the fixed 18-byte metadata record following each file name in
// the directory tree.
type dirEntry struct {
	CRC           uint32 // CRC-32 of the entry data
	PreloadLength uint16 // Preload segment size, always 0 (unsupported)
	ArchiveIndex  uint16 // archiveIndexSelf, or a numbered companion archive
	ArchiveOffset uint32 // Data offset relative to header end + tree length
	FileLength    uint32 // Entry data size in bytes
	Suffix        uint16 // Must equal entryTerminator
}

// readArchiveHeader reads and validates the VPK header from a reader.
func readArchiveHeader(r io.Reader) (*archiveHeader, error) {
	h := &archiveHeader{}

	if err := binary.Read(r, binary.LittleEndian, &h.baseHeader); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}

	if h.Magic != vpkMagic {
		return nil, fmt.Errorf("%w: 0x%08X", ErrBadMagic, h.Magic)
	}

	if h.Version == respawnVersion {
		return nil, ErrUnsupportedVariant
	}

	if h.Version != 1 && h.Version != 2 {
		return nil, fmt.Errorf("%w: version %d", ErrMalformedHeader, h.Version)
	}

	if h.Version == 2 {
		if err := binary.Read(r, binary.LittleEndian, &h.extendedHeader); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
		if h.HashesLength != hashesLengthV2 {
			return nil, fmt.Errorf("%w: hashes length %d, want %d",
				ErrMalformedHeader, h.HashesLength, hashesLengthV2)
		}
	}

	return h, nil
}

// writeArchiveHeader writes the VPK header to a writer.
func writeArchiveHeader(w io.Writer, h *archiveHeader) error {
	if err := binary.Write(w, binary.LittleEndian, &h.baseHeader); err != nil {
		return err
	}

	if h.Version == 2 {
		if err := binary.Write(w, binary.LittleEndian, &h.extendedHeader); err != nil {
			return err
		}
	}

	return nil
}
