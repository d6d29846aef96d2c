// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/glyphos/glifzip/lib/glif"
	"github.com/glyphos/glifzip/lib/manifest"
)

// ExtractTree restores a directory payload under dest, creating it if
// missing. Every file's content digest is verified before the file is
// written. Directory permissions and timestamps are applied after all
// contents exist: writing a child would bump the directory's mtime,
// and a read-only directory mode would block the writes.
func ExtractTree(payload []byte, dest string, opts Options) (*manifest.Manifest, error) {
	m, blob, err := manifest.Decode(payload)
	if err != nil {
		return nil, err
	}
	logger := opts.logger()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}

	for i := range m.Entries {
		e := &m.Entries[i]
		target := filepath.Join(dest, filepath.FromSlash(e.Path))

		switch e.Type {
		case manifest.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("creating directory %s: %w", target, err)
			}
			logger.Debug("created directory", "path", e.Path)

		case manifest.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("creating parent of %s: %w", target, err)
			}
			// Replace rather than fail when extracting over the
			// remains of a previous run.
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("replacing %s: %w", target, err)
			}
			if err := os.Symlink(e.Target, target); err != nil {
				return nil, fmt.Errorf("creating symlink %s: %w", target, err)
			}
			logger.Debug("created symlink", "path", e.Path, "target", e.Target)

		case manifest.TypeFile:
			content, err := fileRegion(blob, e)
			if err != nil {
				return nil, err
			}
			if got := glif.HashFileContent(content); got != e.ContentHash {
				return nil, &glif.HashMismatchError{Region: "file " + e.Path, Want: e.ContentHash, Got: got}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("creating parent of %s: %w", target, err)
			}
			if err := os.WriteFile(target, content, 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", target, err)
			}
			if err := restoreMetadata(target, e); err != nil {
				return nil, err
			}
			logger.Debug("extracted file", "path", e.Path, "size", e.Size)
		}
	}

	for i := len(m.Entries) - 1; i >= 0; i-- {
		e := &m.Entries[i]
		if e.Type != manifest.TypeDir {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(e.Path))
		if err := restoreMetadata(target, e); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// fileRegion slices a file's content out of the blob. Decode has
// already validated contiguity against the blob length; this guards
// the arithmetic.
func fileRegion(blob []byte, e *manifest.Entry) ([]byte, error) {
	end := e.Offset + e.Size
	if end < e.Offset || end > uint64(len(blob)) {
		return nil, &glif.SizeMismatchError{What: "file " + e.Path, Want: end, Got: uint64(len(blob))}
	}
	return blob[e.Offset:end], nil
}

// restoreMetadata applies the entry's permission bits and timestamps
// to target. Ownership is not restored (that would require
// privileges), and the type bits in Mode are ignored. Symlinks never
// get here: their metadata is whatever os.Symlink produced.
func restoreMetadata(target string, e *manifest.Entry) error {
	if err := unix.Chmod(target, e.Mode&0o7777); err != nil {
		return fmt.Errorf("restoring mode of %s: %w", target, err)
	}
	times := []unix.Timespec{
		unix.NsecToTimespec(e.Atime),
		unix.NsecToTimespec(e.Mtime),
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, target, times, 0); err != nil {
		return fmt.Errorf("restoring times of %s: %w", target, err)
	}
	return nil
}
