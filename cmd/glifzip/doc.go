// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Glifzip is the CLI for GLIF archives. It provides subcommands for
// building archives from files and directory trees (create, batch),
// restoring them (extract), and inspecting them without extraction
// (verify, list).
package main
