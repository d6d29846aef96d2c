// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/glyphos/glifzip/lib/clock"
	"github.com/glyphos/glifzip/lib/glif"
	"github.com/glyphos/glifzip/lib/manifest"
	"github.com/glyphos/glifzip/lib/pool"
)

// Options configures archive assembly and extraction.
type Options struct {
	// Exclude holds glob patterns applied while walking a tree. A
	// pattern excludes an entry when it matches either the entry's
	// slash-separated relative path or its base name. Excluding a
	// directory prunes everything beneath it.
	Exclude []string

	// Logger receives per-entry progress at debug level. If nil,
	// slog.Default() is used.
	Logger *slog.Logger

	// Clock supplies the manifest creation time for non-deterministic
	// archives. If nil, the real clock is used.
	Clock clock.Clock
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.Real()
	}
	return o.Clock
}

// CreateFile compresses the file at inputPath into an archive written
// atomically to outputPath. The archive is re-verified before the
// write. Returns the archive's sidecar.
func CreateFile(inputPath, outputPath string, cfg glif.Config, opts Options) (*glif.Sidecar, error) {
	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inputPath, err)
	}
	opts.logger().Debug("compressing file", "path", inputPath, "size", len(payload))
	return writeCompressed(payload, outputPath, cfg, opts)
}

// CreateTree archives the directory rooted at dir into an archive
// written atomically to outputPath. The payload embeds a manifest, and
// the sidecar records the file and directory counts so extraction can
// route without inspecting payload bytes. Returns the archive's
// sidecar.
func CreateTree(dir, outputPath string, cfg glif.Config, opts Options) (*glif.Sidecar, error) {
	payload, m, err := BuildTreePayload(dir, cfg.Deterministic, opts)
	if err != nil {
		return nil, err
	}
	opts.logger().Debug("tree collected",
		"dir", dir, "files", m.Files, "dirs", m.Dirs, "symlinks", m.Symlinks, "size", m.TotalSize)

	cfg.Content = &glif.ContentSummary{Files: m.Files, Directories: m.Dirs}
	return writeCompressed(payload, outputPath, cfg, opts)
}

func writeCompressed(payload []byte, outputPath string, cfg glif.Config, opts Options) (*glif.Sidecar, error) {
	archiveBytes, err := glif.Compress(payload, cfg)
	if err != nil {
		return nil, err
	}
	sidecar, err := glif.Verify(archiveBytes)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(outputPath, archiveBytes); err != nil {
		return nil, err
	}
	opts.logger().Debug("archive written", "path", outputPath, "size", len(archiveBytes))
	return sidecar, nil
}

// Extract restores the archive at archivePath. Directory archives are
// restored under outputPath (created if missing); flat archives are
// written to outputPath as a single file.
func Extract(archivePath, outputPath string, p *pool.Pool, opts Options) error {
	archiveBytes, err := os.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", archivePath, err)
	}
	sidecar, err := glif.Verify(archiveBytes)
	if err != nil {
		return err
	}
	payload, err := glif.Decompress(archiveBytes, p)
	if err != nil {
		return err
	}

	if sidecar.Payload.Files != nil {
		_, err := ExtractTree(payload, outputPath, opts)
		return err
	}

	opts.logger().Debug("writing file", "path", outputPath, "size", len(payload))
	return writeFileAtomic(outputPath, payload)
}

// VerifyFile checks the integrity of the archive at archivePath
// without decompressing it, returning its sidecar.
func VerifyFile(archivePath string) (*glif.Sidecar, error) {
	archiveBytes, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", archivePath, err)
	}
	return glif.Verify(archiveBytes)
}

// ReadManifest loads the manifest from a directory archive. For flat
// archives it returns a nil manifest alongside the sidecar, letting
// callers fall back to the sidecar summary.
func ReadManifest(archivePath string, p *pool.Pool) (*manifest.Manifest, *glif.Sidecar, error) {
	archiveBytes, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", archivePath, err)
	}
	sidecar, err := glif.Verify(archiveBytes)
	if err != nil {
		return nil, nil, err
	}
	if sidecar.Payload.Files == nil {
		return nil, sidecar, nil
	}

	payload, err := glif.Decompress(archiveBytes, p)
	if err != nil {
		return nil, nil, err
	}
	m, _, err := manifest.Decode(payload)
	if err != nil {
		return nil, nil, err
	}
	return m, sidecar, nil
}

// writeFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename, so a crash never leaves a partially
// written file at the destination.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".glifzip-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("setting mode of %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	success = true
	return nil
}
