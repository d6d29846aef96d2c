// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/glyphos/glifzip/cmd/glifzip/cli"
	"github.com/glyphos/glifzip/lib/archive"
)

// verifyCommand returns the "verify" subcommand for integrity checks.
func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:    "verify",
		Summary: "Check archive integrity without extracting",
		Description: `Verify a GLIF archive: header checksum, magic, version, field
ranges, and the BLAKE3 digest of the compressed region. Nothing is
decompressed, so runtime is proportional to the archive size and no
payload-sized memory is allocated.

On success the sidecar summary is printed. On any failure the reason
is reported and the exit code is 1.`,
		Usage: "glifzip verify <archive>",
		Examples: []cli.Example{
			{
				Description: "Verify an archive",
				Command:     "glifzip verify dataset.bin.glif",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one archive path, got %d\n\nUsage: glifzip verify <archive>", len(args))
			}
			input := args[0]

			fmt.Printf("Verifying %s...\n", input)

			sidecar, err := archive.VerifyFile(input)
			if err != nil {
				// The failure is this command's primary output; report it
				// here and exit nonzero without a redundant error line
				// from main.
				fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
				return &cli.ExitError{Code: 1}
			}

			fmt.Println("Archive verified successfully!")
			printSidecarSummary(sidecar)
			return nil
		},
	}
}
