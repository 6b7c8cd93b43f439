// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import "errors"

// Sentinel errors returned by archive operations. Wrapped errors carry
// context; match with errors.Is.
var (
	// ErrBadMagic indicates the file does not start with the VPK signature.
	ErrBadMagic = errors.New("vpk: bad magic")

	// ErrUnsupportedVariant indicates the Respawn-customized VPK variant,
	// which this package deliberately rejects.
	ErrUnsupportedVariant = errors.New("vpk: respawn variant not supported")

	// ErrMalformedHeader indicates unreadable fixed header fields, a version
	// outside {1, 2}, or a v2 hashes length other than 48.
	ErrMalformedHeader = errors.New("vpk: malformed header")

	// ErrIndexOutOfBounds indicates the directory tree walk ran past the
	// tree length declared in the header.
	ErrIndexOutOfBounds = errors.New("vpk: directory tree exceeds declared length")

	// ErrCorruptEntry indicates a directory entry whose terminator is not
	// 0xFFFF or that carries unsupported preload data.
	ErrCorruptEntry = errors.New("vpk: corrupt directory entry")

	// ErrDuplicateEntry indicates an insert collision on
	// (extension, path, name).
	ErrDuplicateEntry = errors.New("vpk: duplicate entry")

	// ErrPathUnavailable indicates a missing target directory when directory
	// creation is disabled.
	ErrPathUnavailable = errors.New("vpk: path unavailable")

	// ErrUnsupportedInput indicates a file without an extension during
	// directory ingest.
	ErrUnsupportedInput = errors.New("vpk: file has no extension")

	// ErrExternalArchive indicates an entry whose data lives in a numbered
	// companion archive. Such entries are parsed but their data cannot be
	// read through this package.
	ErrExternalArchive = errors.New("vpk: entry stored in external archive part")
)
