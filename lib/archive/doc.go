// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive assembles and extracts archive files.
//
// Single files pass straight through the compression pipeline. For
// directories, the package walks the tree in deterministic order,
// builds a manifest-fronted payload (lib/manifest), and compresses
// that; extraction reverses the process, verifying each file's content
// digest and restoring permissions and timestamps. Archive files are
// written atomically: a temporary file in the destination directory,
// then a rename.
package archive
