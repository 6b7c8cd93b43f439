// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// readNullString reads bytes up to a NUL terminator and decodes them with
// enc. A nil encoding treats the bytes as UTF-8.
func readNullString(r *bufio.Reader, enc encoding.Encoding) (string, error) {
	raw, err := r.ReadBytes(0)
	if err != nil {
		return "", err
	}
	raw = raw[:len(raw)-1]

	if len(raw) == 0 || enc == nil {
		return string(raw), nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode string: %w", err)
	}
	return string(decoded), nil
}

// writeNullString encodes s with enc and writes it followed by a NUL
// terminator. It returns the number of bytes written.
func writeNullString(w io.Writer, s string, enc encoding.Encoding) (int, error) {
	b := []byte(s)
	if enc != nil && len(b) > 0 {
		encoded, err := enc.NewEncoder().Bytes(b)
		if err != nil {
			return 0, fmt.Errorf("encode %q: %w", s, err)
		}
		b = encoded
	}

	n, err := w.Write(b)
	if err != nil {
		return n, err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return n, err
	}
	return n + 1, nil
}

// encodedLen returns the byte length of s under enc, without the terminator.
func encodedLen(s string, enc encoding.Encoding) (uint32, error) {
	if enc == nil {
		return uint32(len(s)), nil
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return 0, fmt.Errorf("encode %q: %w", s, err)
	}
	return uint32(len(b)), nil
}

// copySection copies exactly n bytes from r to w through the provided buffer.
// A short source yields io.ErrUnexpectedEOF.
func copySection(w io.Writer, r io.Reader, n int64, buf []byte) error {
	copied, err := io.CopyBuffer(w, io.LimitReader(r, n), buf)
	if err != nil {
		return err
	}
	if copied != n {
		return io.ErrUnexpectedEOF
	}
	return nil
}
