// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/glyphos/glifzip/cmd/glifzip/cli"
	"github.com/glyphos/glifzip/lib/archive"
)

// listCommand returns the "list" subcommand for inspecting archive
// contents.
func listCommand() *cli.Command {
	var verbose bool

	return &cli.Command{
		Name:    "list",
		Summary: "List the contents of an archive",
		Description: `List what a GLIF archive contains.

For a directory archive, the manifest is decoded and every entry is
printed in archive order: a type letter (f, d, or l), the size, and
the path. With -v each line adds permissions, ownership, and the
modification time, and symlink targets are shown.

For a single-file archive there is no manifest; the sidecar summary
is printed instead.`,
		Usage: "glifzip list <archive> [flags]",
		Examples: []cli.Example{
			{
				Description: "List a directory archive",
				Command:     "glifzip list src.glif",
			},
			{
				Description: "Long listing with permissions and times",
				Command:     "glifzip list src.glif -v",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "long listing with permissions, ownership, and times")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path, got %d\n\nUsage: glifzip list <archive> [flags]", len(args))
			}
			input := args[0]

			fmt.Printf("Listing contents of %s...\n", input)

			m, sidecar, err := archive.ReadManifest(input, nil)
			if err != nil {
				return err
			}

			fmt.Printf("Archive: %s\n", input)
			if m == nil {
				// Flat archive: no manifest to list, so show the sidecar
				// summary.
				printSidecarSummary(sidecar)
				return nil
			}

			fmt.Printf("Files: %d\n", m.Files)
			fmt.Printf("Total size: %d bytes\n", m.TotalSize)
			fmt.Printf("Base directory: %s\n", m.BaseDir)
			fmt.Println("\nContents:")
			for _, line := range m.Listing(verbose) {
				fmt.Printf("  %s\n", line)
			}
			return nil
		},
	}
}
