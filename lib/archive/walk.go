// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/glyphos/glifzip/lib/glif"
	"github.com/glyphos/glifzip/lib/manifest"
)

// treeCreator is the creator string recorded in deterministic
// manifests. Non-deterministic manifests record the hostname instead.
const treeCreator = "glifzip"

// BuildTreePayload walks the directory rooted at dir and assembles the
// directory payload: the encoded manifest followed by the concatenated
// contents of every regular file. Walk order is deterministic (parents
// before children, siblings in lexical order), so identical trees
// produce identical payloads.
func BuildTreePayload(dir string, deterministic bool, opts Options) ([]byte, *manifest.Manifest, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("stating %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", dir)
	}

	// The manifest's own creation stamp follows the archive's
	// determinism: pinned epoch and bare tool name, or wall clock and
	// hostname. BaseDir records only the final path element so the
	// payload does not depend on where the tree sits.
	created := glif.DeterministicEpoch
	creator := treeCreator
	if !deterministic {
		created = opts.clock().Now()
		if host, err := os.Hostname(); err == nil {
			creator = host
		}
	}

	logger := opts.logger()
	m := manifest.New(filepath.Base(filepath.Clean(dir)), creator, created)
	var blob []byte

	err = filepath.WalkDir(dir, func(fsPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if fsPath == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, fsPath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		excluded, err := excludeMatch(opts.Exclude, rel)
		if err != nil {
			return err
		}
		if excluded {
			logger.Debug("excluded", "path", rel)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		entry, content, err := captureEntry(fsPath, rel)
		if err != nil {
			return err
		}
		if entry.Type == manifest.TypeFile {
			entry.Offset = uint64(len(blob))
			blob = append(blob, content...)
		}
		m.Add(entry)
		logger.Debug("added entry", "path", rel, "type", string(entry.Type), "size", entry.Size)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	framed, err := m.Encode()
	if err != nil {
		return nil, nil, err
	}
	return append(framed, blob...), m, nil
}

// captureEntry reads one filesystem object into a manifest entry. For
// regular files the content is returned for blob assembly. Symlinks
// are never followed: they are archived as links, with the target
// stored verbatim.
func captureEntry(fsPath, rel string) (manifest.Entry, []byte, error) {
	var st unix.Stat_t
	if err := unix.Lstat(fsPath, &st); err != nil {
		return manifest.Entry{}, nil, fmt.Errorf("stating %s: %w", fsPath, err)
	}
	atime, mtime := statTimes(&st)

	mode := uint32(st.Mode)
	entry := manifest.Entry{
		Path:  rel,
		Mode:  mode,
		UID:   st.Uid,
		GID:   st.Gid,
		Mtime: mtime,
		Atime: atime,
	}

	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		content, err := os.ReadFile(fsPath)
		if err != nil {
			return manifest.Entry{}, nil, fmt.Errorf("reading %s: %w", fsPath, err)
		}
		entry.Type = manifest.TypeFile
		entry.Size = uint64(len(content))
		entry.ContentHash = glif.HashFileContent(content)
		return entry, content, nil
	case unix.S_IFDIR:
		entry.Type = manifest.TypeDir
		return entry, nil, nil
	case unix.S_IFLNK:
		target, err := os.Readlink(fsPath)
		if err != nil {
			return manifest.Entry{}, nil, fmt.Errorf("reading link %s: %w", fsPath, err)
		}
		entry.Type = manifest.TypeSymlink
		entry.Size = uint64(len(target))
		entry.Target = target
		return entry, nil, nil
	default:
		return manifest.Entry{}, nil, fmt.Errorf("%s: unsupported file type %#o", fsPath, mode&unix.S_IFMT)
	}
}

// excludeMatch reports whether any pattern matches the relative path
// or its base name. Malformed patterns are reported, never silently
// skipped.
func excludeMatch(patterns []string, rel string) (bool, error) {
	base := path.Base(rel)
	for _, pattern := range patterns {
		pathMatch, err := path.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		baseMatch, _ := path.Match(pattern, base)
		if pathMatch || baseMatch {
			return true, nil
		}
	}
	return false, nil
}
