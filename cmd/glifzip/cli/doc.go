// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the glifzip tool.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/glifzip/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3). This is
// implemented in suggest.go.
//
// [ExitError] lets a command exit non-zero after printing its own
// output (verify reporting an integrity failure) without the framework
// adding a redundant error line. [NewCommandLogger] builds the stderr
// slog logger commands hand to the archive layer, text for terminals
// and JSON for pipes.
package cli
