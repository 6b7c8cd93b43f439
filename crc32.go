// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

var crc32Table = func() [256]uint32 {
	var table [256]uint32
	const poly = 0xEDB88320
	for i := 0; i < 256; i++ {
		crc := uint32(i)
		for j := 0; j < 8; j++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}()

// crc32Update folds p into a running zip-compatible CRC-32. Start from zero
// and feed chunks in order; the result of one call is the running state for
// the next.
func crc32Update(running uint32, p []byte) uint32 {
	crc := running ^ 0xFFFFFFFF
	for _, v := range p {
		crc = crc32Table[(crc^uint32(v))&0xFF] ^ (crc >> 8)
	}
	return crc ^ 0xFFFFFFFF
}

// crcWriter accumulates a zip CRC-32 over everything written to it.
type crcWriter struct {
	sum uint32
}

func (w *crcWriter) Write(p []byte) (int, error) {
	w.sum = crc32Update(w.sum, p)
	return len(p), nil
}
