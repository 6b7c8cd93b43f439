// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AddDirectory walks root depth-first and adds every file as an entry, using
// the path relative to root. Files without an extension fail with
// ErrUnsupportedInput.
func (a *Archive) AddDirectory(root string) error {
	root = filepath.Clean(root)

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		base := filepath.Base(rel)
		ext := filepath.Ext(base)
		if ext == "" || ext == base {
			return fmt.Errorf("%w: %s", ErrUnsupportedInput, rel)
		}
		name := strings.TrimSuffix(base, ext)

		dir := filepath.ToSlash(filepath.Dir(rel))
		if dir == "." {
			dir = ""
		}

		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		return a.AddFile(ext[1:], dir, name, abs)
	})
}

// Extract writes every entry into destDir, recreating the archive's relative
// paths. With createDirs set, destDir is created as needed; otherwise a
// missing destDir fails with ErrPathUnavailable. Directories for entry
// subpaths are always created.
func (a *Archive) Extract(destDir string, createDirs bool) error {
	if createDirs {
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	} else if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathUnavailable, destDir)
	}

	buf := make([]byte, copyBufferSize)
	for _, e := range a.tree.all() {
		dest := filepath.Join(destDir, filepath.FromSlash(e.FilePath()))
		if !pathWithin(destDir, dest) {
			return fmt.Errorf("%w: %s escapes destination directory", ErrCorruptEntry, e.FilePath())
		}
		if err := a.extractEntry(e, dest, buf); err != nil {
			return err
		}
	}
	return nil
}

// pathWithin reports whether path stays inside root once joined and cleaned.
func pathWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ExtractEntry writes a single entry's data to destPath, creating parent
// directories as needed.
func (a *Archive) ExtractEntry(e *Entry, destPath string) error {
	return a.extractEntry(e, destPath, make([]byte, copyBufferSize))
}

func (a *Archive) extractEntry(e *Entry, destPath string, buf []byte) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := e.writeTo(out, buf); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}

	a.log.Debug().Str("path", e.FilePath()).Str("dest", destPath).Msg("entry extracted")
	return nil
}
