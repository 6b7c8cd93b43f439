// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"encoding/hex"
	hashcrc32 "hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32MatchesZip(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte("hello, world"),
		[]byte("The quick brown fox jumps over the lazy dog"),
		make([]byte, 4096),
	}
	for i := range inputs[4] {
		inputs[4][i] = byte(i % 251)
	}

	for _, input := range inputs {
		assert.Equal(t, hashcrc32.ChecksumIEEE(input), crc32Update(0, input))
	}
}

func TestCRC32Streaming(t *testing.T) {
	t.Parallel()

	data := []byte("streaming checksums must match one-shot checksums exactly")

	oneShot := crc32Update(0, data)

	var running uint32
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		running = crc32Update(running, data[i:end])
	}
	assert.Equal(t, oneShot, running)
}

func TestCRCWriter(t *testing.T) {
	t.Parallel()

	data := []byte("written in pieces")
	w := &crcWriter{}
	n, err := w.Write(data[:5])
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	_, err = w.Write(data[5:])
	require.NoError(t, err)

	assert.Equal(t, hashcrc32.ChecksumIEEE(data), w.sum)
}

func TestChunkHashesChecksumIsEmptyMD5(t *testing.T) {
	t.Parallel()

	// No chunk-hash bytes are ever produced, so the digest is MD5("").
	sums := newArchiveChecksums()
	_, chunkHashesSum, _ := sums.sums()
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", hex.EncodeToString(chunkHashesSum))
}
