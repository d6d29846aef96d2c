// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the pipeline can produce.
// Wrapped errors carry operation-specific detail; callers classify with
// errors.Is. All of these are fatal to the operation that returned
// them: nothing is retried and no partial output is ever returned.
var (
	// ErrConfig indicates an invalid compression configuration, such
	// as an out-of-range level or a bad worker count.
	ErrConfig = errors.New("glif: invalid configuration")

	// ErrFormat indicates bytes that are not a GLIF archive: wrong
	// magic, unsupported version, truncated header, an invalid
	// decompression mode, or a sidecar that does not decode.
	ErrFormat = errors.New("glif: malformed archive")

	// ErrHeaderChecksum indicates the header's Adler-32 checksum did
	// not validate. None of the header fields can be trusted.
	ErrHeaderChecksum = errors.New("glif: header checksum mismatch")

	// ErrHashMismatch indicates a BLAKE3 digest recorded in the
	// header did not match the recomputed digest.
	ErrHashMismatch = errors.New("glif: hash mismatch")

	// ErrSizeMismatch indicates a declared length disagrees with the
	// actual byte count.
	ErrSizeMismatch = errors.New("glif: size mismatch")

	// ErrCorrupted indicates the compressed chunk stream or the LZ4
	// frame stream is malformed, or a chunk decoded to the wrong
	// length.
	ErrCorrupted = errors.New("glif: corrupted compressed data")
)

// HashMismatchError reports a digest verification failure with both
// digests. Region names what was being verified: "archive" for the
// compressed payload region, "payload" for the decompressed bytes, or
// "file <path>" for a per-file content check during extraction.
type HashMismatchError struct {
	Region string
	Want   Digest
	Got    Digest
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("glif: %s hash mismatch: expected %s, got %s",
		e.Region, FormatDigest(e.Want), FormatDigest(e.Got))
}

// Unwrap ties the structured error to ErrHashMismatch so callers can
// use errors.Is without caring which region failed.
func (e *HashMismatchError) Unwrap() error { return ErrHashMismatch }

// SizeMismatchError reports a declared-versus-actual length
// disagreement. What names the measured quantity ("payload",
// "archive region").
type SizeMismatchError struct {
	What string
	Want uint64
	Got  uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("glif: %s size mismatch: declared %d bytes, got %d",
		e.What, e.Want, e.Got)
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }
