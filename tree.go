// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package vpk

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
)

// rootPathSentinel stands in for the empty relative path inside the tree and
// on disk, so the walk can tell "root directory" from "end of path list".
// It never appears in results returned to callers.
const rootPathSentinel = " "

// normalizePath converts a caller-supplied relative path to its tree form:
// forward slashes, no leading or trailing separator, sentinel for root.
func normalizePath(p string) string {
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return rootPathSentinel
	}
	return p
}

// denormalizePath strips the root sentinel for caller-facing paths.
func denormalizePath(p string) string {
	if p == rootPathSentinel {
		return ""
	}
	return p
}

// unsafeTreeName reports whether a file or extension name read from an
// archive could step outside the extraction root when used as a path
// component.
func unsafeTreeName(s string) bool {
	return s == "." || s == ".." || strings.ContainsAny(s, "/\\")
}

// unsafeTreePath reports whether a denormalized relative path read from an
// archive carries an absolute prefix, backslashes, or dot components. Such
// paths would escape the destination directory during extraction.
func unsafeTreePath(p string) bool {
	if p == "" {
		return false
	}
	if strings.Contains(p, "\\") {
		return true
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." {
			return true
		}
	}
	return false
}

// treeKey addresses one entry in the directory tree. The path component is
// stored normalized.
type treeKey struct {
	ext  string
	path string
	name string
}

// fileTree is the in-memory directory index: one flat map keyed by
// (extension, path, name) plus the insertion order of those keys. The
// serialized byte length of the tree is tracked incrementally as entries come
// and go, never recomputed from scratch, so offsets stay deterministic across
// repeated saves.
type fileTree struct {
	entries map[treeKey]*Entry
	order   []treeKey
	length  uint32
	enc     encoding.Encoding
}

func newFileTree(enc encoding.Encoding) *fileTree {
	return &fileTree{
		entries: make(map[treeKey]*Entry),
		length:  1, // final tree terminator
		enc:     enc,
	}
}

func (t *fileTree) len() int {
	return len(t.order)
}

// measure returns the encoded byte length of a tree name.
func (t *fileTree) measure(s string) (uint32, error) {
	return encodedLen(s, t.enc)
}

// insert adds an entry, failing with ErrDuplicateEntry when its key is
// already present. Each new extension or path bucket contributes its name
// plus two terminators to the tree length; each entry contributes its name,
// one terminator and the fixed metadata record.
func (t *fileTree) insert(e *Entry) error {
	k := treeKey{ext: e.Extension, path: normalizePath(e.RelPath), name: e.Name}
	if _, ok := t.entries[k]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.FilePath())
	}

	nameLen, err := t.measure(k.name)
	if err != nil {
		return err
	}
	add := nameLen + 1 + dirEntrySize

	if !t.hasExtension(k.ext) {
		extLen, err := t.measure(k.ext)
		if err != nil {
			return err
		}
		add += extLen + 2
	}
	if !t.hasPath(k.ext, k.path) {
		pathLen, err := t.measure(k.path)
		if err != nil {
			return err
		}
		add += pathLen + 2
	}

	t.entries[k] = e
	t.order = append(t.order, k)
	t.length += add
	return nil
}

// lookup returns the entry for (ext, relPath, name), if present.
func (t *fileTree) lookup(ext, relPath, name string) (*Entry, bool) {
	e, ok := t.entries[treeKey{ext: ext, path: normalizePath(relPath), name: name}]
	return e, ok
}

// remove deletes an entry and gives back its tree-length contribution,
// including the bucket overhead when it was the last entry of its path or
// extension. Removing an absent entry is a no-op.
func (t *fileTree) remove(ext, relPath, name string) {
	k := treeKey{ext: ext, path: normalizePath(relPath), name: name}
	if _, ok := t.entries[k]; !ok {
		return
	}

	delete(t.entries, k)
	for i, o := range t.order {
		if o == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}

	// The names measured fine at insert time, so errors cannot occur here.
	nameLen, _ := t.measure(k.name)
	t.length -= nameLen + 1 + dirEntrySize
	if !t.hasPath(k.ext, k.path) {
		pathLen, _ := t.measure(k.path)
		t.length -= pathLen + 2
	}
	if !t.hasExtension(k.ext) {
		extLen, _ := t.measure(k.ext)
		t.length -= extLen + 2
	}
}

func (t *fileTree) hasExtension(ext string) bool {
	for _, k := range t.order {
		if k.ext == ext {
			return true
		}
	}
	return false
}

func (t *fileTree) hasPath(ext, path string) bool {
	for _, k := range t.order {
		if k.ext == ext && k.path == path {
			return true
		}
	}
	return false
}

// extensions returns the distinct extensions in first-insertion order.
func (t *fileTree) extensions() []string {
	var exts []string
	seen := make(map[string]bool)
	for _, k := range t.order {
		if !seen[k.ext] {
			seen[k.ext] = true
			exts = append(exts, k.ext)
		}
	}
	return exts
}

// paths returns the distinct normalized paths under ext in first-insertion
// order.
func (t *fileTree) paths(ext string) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, k := range t.order {
		if k.ext == ext && !seen[k.path] {
			seen[k.path] = true
			paths = append(paths, k.path)
		}
	}
	return paths
}

// entriesAt returns the entries under (ext, path) in insertion order.
func (t *fileTree) entriesAt(ext, path string) []*Entry {
	var entries []*Entry
	for _, k := range t.order {
		if k.ext == ext && k.path == path {
			entries = append(entries, t.entries[k])
		}
	}
	return entries
}

// all returns every entry in flat insertion order.
func (t *fileTree) all() []*Entry {
	entries := make([]*Entry, len(t.order))
	for i, k := range t.order {
		entries[i] = t.entries[k]
	}
	return entries
}
