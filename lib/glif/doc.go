// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package glif implements the GLIF compressed container format and the
// multithreaded pipeline that produces and consumes it. It is the pure
// data engine that the archive assembly layer and the CLI build on.
//
// An archive is a single immutable byte sequence: a fixed 116-byte
// big-endian header, a JSON sidecar for human inspection, and the
// compressed payload. The payload is partitioned into fixed-size
// chunks, each compressed independently with zstd so the work
// parallelizes across a bounded worker pool, and the concatenated
// result is optionally wrapped in self-delimiting LZ4 frames that trade
// a little size for much faster extraction.
//
// The package is organized in layers, each usable independently:
//
//   - Hashing: BLAKE3 with domain-separated keyed mode. Separate
//     payload, archive, and file-content domains prevent a digest from
//     one context being replayed in another.
//
//   - Chunking: fixed 128MB partition derived from the payload length
//     alone. The same payload always yields the same chunk boundaries
//     no matter how many workers process them, which is what makes
//     archives byte-identical across worker counts.
//
//   - Block compression: per-chunk zstd at levels 1-22 with pooled
//     single-threaded encoders, framed as a length-prefixed chunk
//     stream.
//
//   - Fast wrap: LZ4 block frames over the zstd stream, each frame
//     recording its own raw and compressed lengths. Incompressible
//     frames are stored verbatim. Archives written in block-only mode
//     skip this layer for maximum ratio.
//
//   - Container: header encode/parse with Adler-32 checksum
//     validation, sidecar construction, archive assembly.
//
//   - Pipeline: Compress, Decompress, Verify, and RoundTrip. Verify
//     checks the header and the archive digest without decompressing
//     anything, so integrity checks stay cheap for large archives.
//
// All operations work on in-memory byte slices and hold no global
// state; they are safe to call from multiple goroutines at once.
package glif
