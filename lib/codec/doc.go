// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration for
// binary interior structures, today the directory manifest.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, which is what
// lets two compressions of the same directory tree yield byte-identical
// archives: the manifest is part of the compressed payload, so any
// encoding wobble would break that guarantee.
//
// The human-readable surfaces of an archive (the JSON sidecar, the
// CLI's list output) do not go through this package; it is strictly
// for structures embedded in payload bytes.
package codec
