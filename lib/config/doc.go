// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the glifzip
// tool.
//
// Configuration is loaded from a single file specified by either the
// GLIFZIP_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search; when no file is given the defaults
// apply as they are. This keeps the effective configuration
// deterministic and auditable, with no hidden overrides.
//
// The file is merged over the defaults: keys absent from the file keep
// their default values, and environment variables never override file
// values.
//
// Key exports:
//
//   - [Config] -- pipeline defaults plus tree exclude patterns
//   - [Default] -- the built-in defaults (level 8, fast-wrap,
//     deterministic, one worker per CPU)
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
