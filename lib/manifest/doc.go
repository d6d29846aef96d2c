// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest defines the file index embedded at the front of
// directory payloads.
//
// A directory payload is the manifest's length-prefixed encoding
// followed by the concatenated contents of every regular file, in
// entry order:
//
//	[8-byte big-endian manifest length][manifest CBOR][file blob]
//
// The whole payload then goes through the normal compression pipeline,
// so directory archives are ordinary archives: the container layer
// neither knows nor cares that a manifest is inside. Entries record
// unix metadata and a per-file content digest, which lets extraction
// verify each file independently of the archive-level digests.
//
// The manifest is serialized as deterministic CBOR (lib/codec), so a
// given tree always produces identical manifest bytes.
package manifest
