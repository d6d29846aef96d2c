// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch provides parsing, validation, and resolution for
// glifzip batch job files. A batch file is a list of create operations
// run in order, so automation can produce many archives from one
// invocation.
//
// Batch files are authored as JSONC (JSON extended with comments and
// trailing commas). Each job names an input and may override the
// configured defaults for level, workers, mode, and determinism; job
// exclude patterns extend the configured ones.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → File
//  2. Validate: structural checks (input present, level in range, etc.)
//  3. Job.Resolve: merge job overrides over the configured defaults
package batch

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/glyphos/glifzip/lib/config"
	"github.com/glyphos/glifzip/lib/glif"
)

// File is a parsed batch job file.
type File struct {
	// Description is free-form text for humans; the tool ignores it.
	Description string `json:"description,omitempty"`

	// Jobs are the create operations, run in order.
	Jobs []Job `json:"jobs"`
}

// Job describes one create operation.
type Job struct {
	// Input is the file or directory to archive.
	Input string `json:"input"`

	// Output is the archive path. Defaults to Input + ".glif".
	Output string `json:"output,omitempty"`

	// Recursive archives Input as a directory tree.
	Recursive bool `json:"recursive,omitempty"`

	// Level overrides the configured compression level when nonzero.
	Level int `json:"level,omitempty"`

	// Workers overrides the configured worker count when nonzero.
	Workers int `json:"workers,omitempty"`

	// Mode overrides the configured archive layout when non-empty:
	// "fast-wrap" or "block-only".
	Mode string `json:"mode,omitempty"`

	// Deterministic overrides the configured determinism when set.
	Deterministic *bool `json:"deterministic,omitempty"`

	// Exclude holds additional glob patterns for tree jobs.
	Exclude []string `json:"exclude,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a File.
func Parse(data []byte) (*File, error) {
	stripped := jsonc.ToJSON(data)

	var file File
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}

	return &file, nil
}

// ReadFile reads a JSONC batch file from disk and parses it. Returns a
// descriptive error if the file cannot be read or the JSON is
// malformed.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return file, nil
}

// OutputPath returns the job's archive path, defaulting to the input
// path with a ".glif" suffix.
func (j Job) OutputPath() string {
	if j.Output != "" {
		return j.Output
	}
	return j.Input + ".glif"
}

// Plan is a fully resolved job: the pipeline configuration, worker
// count, and exclude patterns to archive one input with.
type Plan struct {
	Config  glif.Config
	Workers int
	Exclude []string
}

// Resolve merges the job's overrides over the configured defaults.
func (j Job) Resolve(base *config.Config) (Plan, error) {
	cfg, err := base.Pipeline()
	if err != nil {
		return Plan{}, err
	}

	if j.Level != 0 {
		cfg.Level = j.Level
	}
	if j.Mode != "" {
		mode, err := glif.ParseMode(j.Mode)
		if err != nil {
			return Plan{}, err
		}
		cfg.Mode = mode
	}
	if j.Deterministic != nil {
		cfg.Deterministic = *j.Deterministic
	}

	workers := base.Defaults.Workers
	if j.Workers != 0 {
		workers = j.Workers
	}

	exclude := append(append([]string(nil), base.Exclude...), j.Exclude...)
	return Plan{Config: cfg, Workers: workers, Exclude: exclude}, nil
}
