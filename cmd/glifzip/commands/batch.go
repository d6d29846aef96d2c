// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/glyphos/glifzip/cmd/glifzip/cli"
	"github.com/glyphos/glifzip/lib/archive"
	"github.com/glyphos/glifzip/lib/batch"
	"github.com/glyphos/glifzip/lib/glif"
)

// batchCommand returns the "batch" subcommand for running a list of
// create jobs from a JSONC file.
func batchCommand() *cli.Command {
	var (
		verbose    bool
		configPath string
	)

	return &cli.Command{
		Name:    "batch",
		Summary: "Run a list of create jobs from a JSONC file",
		Description: `Run every compression job in a JSONC batch file, in order.

The batch file holds a list of jobs, each naming an input and
optionally an output path, level, worker count, mode, determinism,
and exclude patterns. Comments and trailing commas are allowed. Job
settings override the config file; job exclude patterns extend it.

The whole file is validated before any job runs, so a typo in job
twelve is reported before job one has written anything. Jobs then run
sequentially; the first failure stops the batch with the jobs before
it completed and the jobs after it untouched. One line per finished
job reports the input, output, and sizes.`,
		Usage: "glifzip batch <jobs.jsonc> [flags]",
		Examples: []cli.Example{
			{
				Description: "Run a nightly compression batch",
				Command:     "glifzip batch nightly.jsonc",
			},
			{
				Description: "Run a batch against an explicit config",
				Command:     "glifzip batch nightly.jsonc --config ci.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("batch", pflag.ContinueOnError)
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "narrate progress on stderr")
			flagSet.StringVar(&configPath, "config", "", "path to a glifzip.yaml config file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one batch file path, got %d\n\nUsage: glifzip batch <jobs.jsonc> [flags]", len(args))
			}

			file, err := batch.ReadFile(args[0])
			if err != nil {
				return err
			}
			if issues := batch.Validate(file); len(issues) > 0 {
				return fmt.Errorf("invalid batch file %s:\n  %s",
					args[0], strings.Join(issues, "\n  "))
			}

			logger := cli.NewCommandLogger(verbose)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			for i, job := range file.Jobs {
				plan, err := job.Resolve(cfg)
				if err != nil {
					return fmt.Errorf("jobs[%d] %q: %w", i, job.Input, err)
				}
				workerPool, err := buildPool(0, plan.Workers)
				if err != nil {
					return fmt.Errorf("jobs[%d] %q: %w", i, job.Input, err)
				}
				plan.Config.Pool = workerPool

				outputPath := job.OutputPath()
				opts := archive.Options{Exclude: plan.Exclude, Logger: logger}

				logger.Debug("batch job",
					"index", i, "input", job.Input, "output", outputPath,
					"level", plan.Config.Level, "mode", plan.Config.Mode.String(),
					"workers", workerPool.Workers())

				var sidecar *glif.Sidecar
				if isTree(job.Input, job.Recursive) {
					sidecar, err = archive.CreateTree(job.Input, outputPath, plan.Config, opts)
				} else {
					sidecar, err = archive.CreateFile(job.Input, outputPath, plan.Config, opts)
				}
				if err != nil {
					return fmt.Errorf("jobs[%d] %q: %w", i, job.Input, err)
				}

				fmt.Printf("%s -> %s (%d -> %d bytes)\n",
					job.Input, outputPath, sidecar.Payload.Size, sidecar.Archive.Size)
			}
			return nil
		},
	}
}
