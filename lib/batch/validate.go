// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"fmt"
	"path"

	"github.com/glyphos/glifzip/lib/glif"
)

// Validate checks a File for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the batch
// file is valid.
//
// Structural checks include:
//   - At least one job is required
//   - Each job must have a non-empty Input
//   - Level (when set) must be within the supported range
//   - Workers must not be negative
//   - Mode (when set) must name a known archive layout
//   - Exclude patterns must be well-formed globs
//   - No two jobs may write the same output path
func Validate(file *File) []string {
	var issues []string

	if len(file.Jobs) == 0 {
		issues = append(issues, "batch has no jobs (at least one job is required)")
	}

	// Duplicate outputs would make later jobs silently overwrite
	// earlier results.
	outputs := make(map[string]int, len(file.Jobs))
	for index, job := range file.Jobs {
		if job.Input == "" {
			continue
		}
		output := job.OutputPath()
		if firstIndex, exists := outputs[output]; exists {
			issues = append(issues, fmt.Sprintf(
				"jobs[%d] %q: duplicate output %q (first written by jobs[%d])",
				index, job.Input, output, firstIndex,
			))
		} else {
			outputs[output] = index
		}
	}

	for index, job := range file.Jobs {
		prefix := fmt.Sprintf("jobs[%d]", index)
		issues = append(issues, validateJob(job, prefix)...)
	}

	return issues
}

// validateJob checks a single job for structural issues. The prefix
// identifies the job's position (e.g., "jobs[0]") for error messages.
func validateJob(job Job, prefix string) []string {
	var issues []string

	if job.Input == "" {
		issues = append(issues, fmt.Sprintf("%s: input is required", prefix))
	} else {
		prefix = fmt.Sprintf("%s %q", prefix, job.Input)
	}

	if job.Level != 0 && (job.Level < glif.MinLevel || job.Level > glif.MaxLevel) {
		issues = append(issues, fmt.Sprintf("%s: level must be between %d and %d, got %d",
			prefix, glif.MinLevel, glif.MaxLevel, job.Level))
	}

	if job.Workers < 0 {
		issues = append(issues, fmt.Sprintf("%s: workers must not be negative, got %d",
			prefix, job.Workers))
	}

	if job.Mode != "" {
		if _, err := glif.ParseMode(job.Mode); err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", prefix, err))
		}
	}

	for _, pattern := range job.Exclude {
		if _, err := path.Match(pattern, pattern); err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid exclude pattern %q: %v", prefix, pattern, err))
		}
	}

	return issues
}
