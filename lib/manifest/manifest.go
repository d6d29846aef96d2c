// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/binary"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/glyphos/glifzip/lib/codec"
	"github.com/glyphos/glifzip/lib/glif"
)

// Version is the manifest format version written by this code.
// Readers accept exactly this value.
const Version = 1

// MaxSize caps the manifest length a reader will accept. A manifest
// past this size (roughly 400k entries) indicates corruption or an
// archive built by something else entirely.
const MaxSize = 100 << 20

// framePrefixSize is the length prefix in front of the manifest bytes.
const framePrefixSize = 8

// Type classifies a manifest entry.
type Type string

const (
	TypeFile    Type = "file"
	TypeDir     Type = "dir"
	TypeSymlink Type = "symlink"
)

// Letter returns the single-character tag used in listings.
func (t Type) Letter() string {
	switch t {
	case TypeFile:
		return "f"
	case TypeDir:
		return "d"
	case TypeSymlink:
		return "l"
	default:
		return "?"
	}
}

func (t Type) valid() bool {
	return t == TypeFile || t == TypeDir || t == TypeSymlink
}

// Entry records one filesystem object in the archive.
type Entry struct {
	// Path is the slash-separated path relative to the archive root.
	// Always clean and relative; paths that could escape the
	// extraction root never validate.
	Path string `json:"path"`

	// Type classifies the entry.
	Type Type `json:"type"`

	// Size is the content length for files and the link target length
	// for symlinks; always zero for directories.
	Size uint64 `json:"size"`

	// Mode is the full unix st_mode (type and permission bits) at
	// archive time. Extraction applies only the permission bits.
	Mode uint32 `json:"mode"`

	// UID and GID record ownership at archive time. Informational:
	// extraction does not change ownership, which would require
	// privileges.
	UID uint32 `json:"uid"`
	GID uint32 `json:"gid"`

	// Mtime and Atime are unix nanoseconds.
	Mtime int64 `json:"mtime"`
	Atime int64 `json:"atime"`

	// Target is the symlink target, empty for other types. Stored
	// exactly as read; may be absolute or point outside the tree.
	Target string `json:"target,omitempty"`

	// Offset is the entry's byte position in the file blob following
	// the manifest. Meaningful for files only; file regions are
	// contiguous in entry order.
	Offset uint64 `json:"offset"`

	// ContentHash is the file-domain digest of the file's content;
	// zero for directories and symlinks.
	ContentHash glif.Digest `json:"content_hash"`
}

// Manifest indexes a directory payload. Entries appear in walk order:
// parents before children, siblings in lexical order.
type Manifest struct {
	Version  uint32 `json:"version"`
	Files    uint64 `json:"files"`
	Dirs     uint64 `json:"dirs"`
	Symlinks uint64 `json:"symlinks"`

	// TotalSize is the byte length of the file blob: the sum of all
	// file entry sizes.
	TotalSize uint64 `json:"total_size"`

	// Created is the archive creation instant, RFC3339. Deterministic
	// archives record the fixed epoch.
	Created string `json:"created"`

	// Creator names what built the archive.
	Creator string `json:"creator"`

	// BaseDir is the directory that was archived, as given to the
	// tool. Informational; extraction ignores it.
	BaseDir string `json:"base_dir"`

	Entries []Entry `json:"entries"`
}

// New returns an empty manifest for the given base directory.
func New(baseDir, creator string, created time.Time) *Manifest {
	return &Manifest{
		Version: Version,
		Created: created.UTC().Format(time.RFC3339),
		Creator: creator,
		BaseDir: baseDir,
	}
}

// Add appends an entry, maintaining the counts and the blob length.
// File entries must be added in blob order with contiguous offsets;
// Validate enforces this on the decode side.
func (m *Manifest) Add(entry Entry) {
	switch entry.Type {
	case TypeFile:
		m.Files++
		m.TotalSize += entry.Size
	case TypeDir:
		m.Dirs++
	case TypeSymlink:
		m.Symlinks++
	}
	m.Entries = append(m.Entries, entry)
}

// Find returns the entry with the given slash path.
func (m *Manifest) Find(p string) (*Entry, bool) {
	for i := range m.Entries {
		if m.Entries[i].Path == p {
			return &m.Entries[i], true
		}
	}
	return nil, false
}

// Encode serializes the manifest as deterministic CBOR behind the
// 8-byte length prefix, ready to be placed in front of the file blob.
func (m *Manifest) Encode() ([]byte, error) {
	body, err := codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if len(body) > MaxSize {
		return nil, fmt.Errorf("%w: manifest is %d bytes, exceeds the %d-byte cap",
			glif.ErrFormat, len(body), MaxSize)
	}
	framed := make([]byte, 0, framePrefixSize+len(body))
	framed = binary.BigEndian.AppendUint64(framed, uint64(len(body)))
	return append(framed, body...), nil
}

// Decode splits a directory payload into its manifest and the file
// blob that follows. The manifest is validated against the blob length
// before anything is returned, so callers can trust entry offsets.
func Decode(payload []byte) (*Manifest, []byte, error) {
	if len(payload) < framePrefixSize {
		return nil, nil, fmt.Errorf("%w: payload is %d bytes, shorter than the manifest length prefix",
			glif.ErrFormat, len(payload))
	}
	size := binary.BigEndian.Uint64(payload)
	if size > MaxSize {
		return nil, nil, fmt.Errorf("%w: declared manifest length %d exceeds the %d-byte cap",
			glif.ErrFormat, size, MaxSize)
	}
	if size > uint64(len(payload)-framePrefixSize) {
		return nil, nil, fmt.Errorf("%w: declared manifest length %d exceeds the %d payload bytes that follow",
			glif.ErrFormat, size, len(payload)-framePrefixSize)
	}

	var m Manifest
	body := payload[framePrefixSize : framePrefixSize+int(size)]
	if err := codec.Unmarshal(body, &m); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding manifest: %v", glif.ErrFormat, err)
	}

	blob := payload[framePrefixSize+int(size):]
	if err := m.Validate(uint64(len(blob))); err != nil {
		return nil, nil, err
	}
	return &m, blob, nil
}

// Validate checks internal consistency against the blob length: clean
// relative paths with no duplicates, per-type field rules, contiguous
// file regions, and counts and total size that match the entries.
func (m *Manifest) Validate(blobLen uint64) error {
	if m.Version != Version {
		return fmt.Errorf("%w: manifest version %d is not supported (this code supports %d)",
			glif.ErrFormat, m.Version, Version)
	}

	seen := make(map[string]struct{}, len(m.Entries))
	var files, dirs, symlinks, offset uint64
	for i := range m.Entries {
		e := &m.Entries[i]
		if err := validPath(e.Path); err != nil {
			return fmt.Errorf("%w: entry %d: %v", glif.ErrFormat, i, err)
		}
		if _, dup := seen[e.Path]; dup {
			return fmt.Errorf("%w: duplicate entry %q", glif.ErrFormat, e.Path)
		}
		seen[e.Path] = struct{}{}

		switch e.Type {
		case TypeFile:
			if e.Target != "" {
				return fmt.Errorf("%w: file %q has a symlink target", glif.ErrFormat, e.Path)
			}
			if e.Offset != offset {
				return fmt.Errorf("%w: file %q at blob offset %d, want %d (regions must be contiguous)",
					glif.ErrFormat, e.Path, e.Offset, offset)
			}
			offset += e.Size
			files++
		case TypeDir:
			if e.Size != 0 {
				return fmt.Errorf("%w: directory %q has size %d", glif.ErrFormat, e.Path, e.Size)
			}
			if e.Target != "" {
				return fmt.Errorf("%w: directory %q has a symlink target", glif.ErrFormat, e.Path)
			}
			dirs++
		case TypeSymlink:
			if e.Target == "" {
				return fmt.Errorf("%w: symlink %q has no target", glif.ErrFormat, e.Path)
			}
			symlinks++
		default:
			return fmt.Errorf("%w: entry %q has unknown type %q", glif.ErrFormat, e.Path, e.Type)
		}
	}

	if files != m.Files || dirs != m.Dirs || symlinks != m.Symlinks {
		return fmt.Errorf("%w: declared counts (%d files, %d dirs, %d symlinks) do not match entries (%d, %d, %d)",
			glif.ErrFormat, m.Files, m.Dirs, m.Symlinks, files, dirs, symlinks)
	}
	if offset != m.TotalSize {
		return fmt.Errorf("%w: file sizes sum to %d, manifest declares %d",
			glif.ErrFormat, offset, m.TotalSize)
	}
	if m.TotalSize != blobLen {
		return &glif.SizeMismatchError{What: "file blob", Want: m.TotalSize, Got: blobLen}
	}
	return nil
}

// validPath accepts only clean, relative, slash-separated paths that
// stay inside the extraction root.
func validPath(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("empty path")
	case p == ".":
		return fmt.Errorf("path is the archive root")
	case strings.HasPrefix(p, "/"):
		return fmt.Errorf("absolute path %q", p)
	case path.Clean(p) != p:
		return fmt.Errorf("unclean path %q", p)
	case p == ".." || strings.HasPrefix(p, "../"):
		return fmt.Errorf("path %q escapes the archive root", p)
	}
	return nil
}
