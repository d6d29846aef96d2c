// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the glifzip command tree: create,
// extract, verify, list, batch, and version, wired to the archive and
// pipeline layers.
package commands

import (
	"fmt"
	"os"

	"github.com/glyphos/glifzip/cmd/glifzip/cli"
	"github.com/glyphos/glifzip/lib/config"
	"github.com/glyphos/glifzip/lib/glif"
	"github.com/glyphos/glifzip/lib/pool"
	"github.com/glyphos/glifzip/lib/version"
)

// Root builds and returns the complete glifzip CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "glifzip",
		Description: `glifzip: self-describing compressed archives.

Compress files and directory trees into GLIF archives: zstd-compressed
containers carrying BLAKE3 digests of both the payload and the
compressed region, plus a JSON sidecar describing how the archive was
built. Archives are deterministic by default, so identical inputs
produce byte-identical archives across runs and worker counts.`,
		Subcommands: []*cli.Command{
			createCommand(),
			extractCommand(),
			verifyCommand(),
			listCommand(),
			batchCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ []string) error {
					fmt.Printf("glifzip %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Compress a file (writes dataset.bin.glif)",
				Command:     "glifzip create dataset.bin",
			},
			{
				Description: "Archive a directory tree, skipping object files",
				Command:     "glifzip create src -r -x '*.o' -o src.glif",
			},
			{
				Description: "Restore an archive",
				Command:     "glifzip extract src.glif -o src",
			},
			{
				Description: "Check integrity without extracting",
				Command:     "glifzip verify src.glif",
			},
			{
				Description: "Run a list of compression jobs",
				Command:     "glifzip batch nightly.jsonc",
			},
		},
	}
}

// loadConfig resolves the effective tool configuration: an explicit
// --config path wins, then the GLIFZIP_CONFIG environment variable,
// then built-in defaults. The config file is optional; only a file
// that was explicitly named but cannot be read or parsed is an error.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv("GLIFZIP_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildPool constructs the worker pool for one command invocation.
// A nonzero -t/--workers flag wins over the configured default, and
// zero means one worker per CPU. Negative counts are rejected by
// pool.New.
func buildPool(flagWorkers, configWorkers int) (*pool.Pool, error) {
	workers := configWorkers
	if flagWorkers != 0 {
		workers = flagWorkers
	}
	if workers == 0 {
		return pool.Default(), nil
	}
	return pool.New(workers)
}

// isTree reports whether input should be archived as a directory
// tree: either the caller asked for recursion or the path is a
// directory. A path that cannot be statted is treated as a flat file
// so the read error surfaces from the file path.
func isTree(path string, recursive bool) bool {
	if recursive {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// printSidecarSummary prints the archive's recorded sizes and
// compression settings, indented under whatever heading the caller
// has already printed.
func printSidecarSummary(sidecar *glif.Sidecar) {
	fmt.Printf("  Payload size: %d bytes\n", sidecar.Payload.Size)
	fmt.Printf("  Archive size: %d bytes\n", sidecar.Archive.Size)
	fmt.Printf("  Compression ratio: %.2f%%\n", sidecar.Payload.CompressionRatio*100)
	fmt.Printf("  Compression level: %d\n", sidecar.Archive.CompressionLevel)
	fmt.Printf("  Workers used: %d\n", sidecar.Archive.Workers)
}
