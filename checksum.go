// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"crypto/md5"
	"hash"
	"io"
)

// archiveChecksums accumulates the three composite MD5 digests stored in a
// V2 trailer while archive bytes stream past in file order.
//
// The chunk-hashes digest is always the MD5 of empty input: chunk hashes are
// only produced by multi-archive splitting, which this package does not
// support. The digest is still written and verified so the trailer layout
// stays exact.
type archiveChecksums struct {
	file        hash.Hash // header + tree + embedded chunk
	tree        hash.Hash // tree bytes only
	chunkHashes hash.Hash // chunk-hash section bytes, always empty
}

func newArchiveChecksums() *archiveChecksums {
	return &archiveChecksums{
		file:        md5.New(),
		tree:        md5.New(),
		chunkHashes: md5.New(),
	}
}

// readFrom consumes header, tree and embedded chunk sections from r, feeding
// each byte to the digests it belongs to.
func (c *archiveChecksums) readFrom(r io.Reader, headerLen, treeLen, chunkLen int64, buf []byte) error {
	if err := copySection(c.file, r, headerLen, buf); err != nil {
		return err
	}
	if err := copySection(io.MultiWriter(c.file, c.tree), r, treeLen, buf); err != nil {
		return err
	}
	return copySection(c.file, r, chunkLen, buf)
}

// sums finalizes the accumulators and returns the digests in trailer order.
func (c *archiveChecksums) sums() (treeSum, chunkHashesSum, fileSum []byte) {
	return c.tree.Sum(nil), c.chunkHashes.Sum(nil), c.file.Sum(nil)
}
