// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/glyphos/glifzip/cmd/glifzip/cli"
	"github.com/glyphos/glifzip/lib/archive"
	"github.com/glyphos/glifzip/lib/glif"
)

// createCommand returns the "create" subcommand for building archives.
func createCommand() *cli.Command {
	var (
		output          string
		level           int
		workers         int
		recursive       bool
		exclude         []string
		mode            string
		noDeterministic bool
		verbose         bool
		configPath      string
	)

	return &cli.Command{
		Name:    "create",
		Summary: "Compress a file or directory into an archive",
		Description: `Compress a file, or with -r a directory tree, into a GLIF archive.

Directories are archived with a manifest recording every entry's path,
permissions, ownership, timestamps, and content hash, so extraction
can restore the tree and verify each file independently. A path that
is a directory is archived as a tree even without -r.

The archive is written atomically: a temporary file in the destination
directory is renamed into place only after the finished archive has
been re-read and verified.

Flags override the config file; settings absent from both fall back to
level 8, fast-wrap, deterministic.`,
		Usage: "glifzip create <input> [flags]",
		Examples: []cli.Example{
			{
				Description: "Compress a file at the default level",
				Command:     "glifzip create dataset.bin",
			},
			{
				Description: "Archive a tree at high compression, excluding logs",
				Command:     "glifzip create build -r -l 16 -x '*.log' -o build.glif",
			},
			{
				Description: "Record the real timestamp and worker count",
				Command:     "glifzip create dataset.bin --no-deterministic",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "", "output archive path (default <input>.glif)")
			flagSet.IntVarP(&level, "level", "l", 0, "zstd compression level, 1 to 22 (default from config)")
			flagSet.IntVarP(&workers, "workers", "t", 0, "parallel workers, 0 = one per CPU")
			flagSet.BoolVarP(&recursive, "recursive", "r", false, "archive a directory tree")
			flagSet.StringArrayVarP(&exclude, "exclude", "x", nil, "glob pattern to skip while walking (repeatable)")
			flagSet.StringVar(&mode, "mode", "", `archive layout: "fast-wrap" or "block-only"`)
			flagSet.BoolVar(&noDeterministic, "no-deterministic", false, "record the real timestamp and worker count")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "narrate progress on stderr")
			flagSet.StringVar(&configPath, "config", "", "path to a glifzip.yaml config file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one input path, got %d\n\nUsage: glifzip create <input> [flags]", len(args))
			}
			input := args[0]

			logger := cli.NewCommandLogger(verbose)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			pipeline, err := cfg.Pipeline()
			if err != nil {
				return err
			}
			if level != 0 {
				pipeline.Level = level
			}
			if mode != "" {
				parsed, err := glif.ParseMode(mode)
				if err != nil {
					return err
				}
				pipeline.Mode = parsed
			}
			if noDeterministic {
				pipeline.Deterministic = false
			}

			workerPool, err := buildPool(workers, cfg.Defaults.Workers)
			if err != nil {
				return err
			}
			pipeline.Pool = workerPool

			outputPath := output
			if outputPath == "" {
				outputPath = input + ".glif"
			}

			patterns := append(append([]string(nil), cfg.Exclude...), exclude...)
			opts := archive.Options{Exclude: patterns, Logger: logger}

			logger.Debug("create",
				"input", input, "output", outputPath,
				"level", pipeline.Level, "mode", pipeline.Mode.String(),
				"workers", workerPool.Workers(), "deterministic", pipeline.Deterministic)

			if isTree(input, recursive) {
				_, err = archive.CreateTree(input, outputPath, pipeline, opts)
			} else {
				_, err = archive.CreateFile(input, outputPath, pipeline, opts)
			}
			return err
		},
	}
}
