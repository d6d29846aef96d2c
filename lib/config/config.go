// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/glyphos/glifzip/lib/glif"
)

// Config is the tool configuration.
type Config struct {
	// Defaults supplies the pipeline settings used when no
	// command-line flag overrides them.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Exclude holds glob patterns applied when archiving directory
	// trees, in addition to any patterns given on the command line.
	Exclude []string `yaml:"exclude"`
}

// DefaultsConfig selects the pipeline settings the tool starts from.
type DefaultsConfig struct {
	// Level is the compression level, 1 to 22.
	// Default: 8
	Level int `yaml:"level"`

	// Workers is the number of parallel compression workers.
	// 0 means one worker per CPU.
	Workers int `yaml:"workers"`

	// Mode selects the archive layout: "fast-wrap" or "block-only".
	// Default: fast-wrap
	Mode string `yaml:"mode"`

	// Deterministic makes archives byte-reproducible across runs.
	// Default: true
	Deterministic bool `yaml:"deterministic"`
}

// Default returns the default configuration. These defaults are the
// base a config file is merged over, and the effective configuration
// when no file is given at all; the file itself is optional.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Level:         glif.DefaultLevel,
			Workers:       0,
			Mode:          glif.ModeFastWrap.String(),
			Deterministic: true,
		},
	}
}

// Load loads configuration from the GLIFZIP_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There is no fallback search; if GLIFZIP_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("GLIFZIP_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("GLIFZIP_CONFIG environment variable not set; " +
			"set it to the path of your glifzip.yaml config file, or use --config")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults. Keys absent from the file keep their default
// values; environment variables never override file values.
func LoadFile(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Defaults.Level < glif.MinLevel || c.Defaults.Level > glif.MaxLevel {
		errs = append(errs, fmt.Errorf("defaults.level must be between %d and %d, got %d",
			glif.MinLevel, glif.MaxLevel, c.Defaults.Level))
	}

	if c.Defaults.Workers < 0 {
		errs = append(errs, fmt.Errorf("defaults.workers must not be negative, got %d",
			c.Defaults.Workers))
	}

	if _, err := glif.ParseMode(c.Defaults.Mode); err != nil {
		errs = append(errs, fmt.Errorf("defaults.mode: %w", err))
	}

	for _, pattern := range c.Exclude {
		// Matching a pattern against itself exercises its syntax.
		if _, err := path.Match(pattern, pattern); err != nil {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Pipeline converts the configured defaults into a pipeline Config.
// The worker count is not part of the result; callers build their
// worker pool from Defaults.Workers separately.
func (c *Config) Pipeline() (glif.Config, error) {
	mode, err := glif.ParseMode(c.Defaults.Mode)
	if err != nil {
		return glif.Config{}, err
	}

	cfg := glif.DefaultConfig()
	cfg.Level = c.Defaults.Level
	cfg.Mode = mode
	cfg.Deterministic = c.Defaults.Deterministic
	return cfg, nil
}
