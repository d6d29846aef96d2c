// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"
)

// sidecarFormat is the format identifier written into every sidecar.
const sidecarFormat = "glif/1.0"

// Sidecar is the human-inspectable metadata stored between the header
// and the compressed payload region. It restates the header in
// structured text plus context the fixed header has no room for
// (algorithm names, platform, creator). The sidecar is descriptive,
// never authoritative: verification trusts only the header.
type Sidecar struct {
	Format       string           `json:"format"`
	Payload      PayloadInfo      `json:"payload"`
	Archive      ArchiveInfo      `json:"archive"`
	Cryptography CryptographyInfo `json:"cryptography"`
	Metadata     CreationInfo     `json:"metadata"`
}

// PayloadInfo describes the original uncompressed bytes.
type PayloadInfo struct {
	Size uint64 `json:"size"`
	Hash string `json:"hash"`

	// CompressionRatio is archive size over payload size (0 for an
	// empty payload). Values above 1 mean the archive is larger than
	// the input, which is expected for tiny or incompressible
	// payloads.
	CompressionRatio float64 `json:"compression_ratio"`

	// Files and Directories are present only for archives whose
	// payload embeds a directory manifest (Config.Content). Readers
	// use them to route extraction: nil means a flat payload.
	Files       *uint64 `json:"files,omitempty"`
	Directories *uint64 `json:"directories,omitempty"`
}

// ArchiveInfo describes the compressed payload region.
type ArchiveInfo struct {
	Size             uint64 `json:"size"`
	Hash             string `json:"hash"`
	CompressedWith   string `json:"compressed_with"`
	DecompressedWith string `json:"decompressed_with"`
	CompressionLevel uint32 `json:"compression_level"`
	Workers          uint32 `json:"workers"`
}

// CryptographyInfo records the digest algorithm and both digests in
// bare hex.
type CryptographyInfo struct {
	Algorithm     string `json:"algorithm"`
	PayloadDigest string `json:"payload_digest"`
	ArchiveDigest string `json:"archive_digest"`

	// Signature is reserved; archives are not signed today.
	Signature string `json:"signature,omitempty"`
}

// CreationInfo records when, by what, and on which platform the
// archive was created.
type CreationInfo struct {
	Created       string `json:"created"`
	Creator       string `json:"creator"`
	Platform      string `json:"source_platform"`
	Architecture  string `json:"source_architecture"`
	Deterministic bool   `json:"deterministic"`
}

// buildSidecar derives the sidecar from the finished header. Every
// numeric field restates a header field, which keeps the two
// consistent by construction.
func buildSidecar(header *Header, creator string, deterministic bool, created time.Time, content *ContentSummary) *Sidecar {
	ratio := 0.0
	if header.PayloadSize > 0 {
		ratio = float64(header.ArchiveSize) / float64(header.PayloadSize)
	}

	decompressedWith := "lz4"
	if header.Mode == ModeBlockOnly {
		decompressedWith = "zstd"
	}

	payload := PayloadInfo{
		Size:             header.PayloadSize,
		Hash:             hashAlgorithm + ":" + FormatDigest(header.PayloadHash),
		CompressionRatio: ratio,
	}
	if content != nil {
		files, dirs := content.Files, content.Directories
		payload.Files = &files
		payload.Directories = &dirs
	}

	return &Sidecar{
		Format:  sidecarFormat,
		Payload: payload,
		Archive: ArchiveInfo{
			Size:             header.ArchiveSize,
			Hash:             hashAlgorithm + ":" + FormatDigest(header.ArchiveHash),
			CompressedWith:   "zstd",
			DecompressedWith: decompressedWith,
			CompressionLevel: header.Level,
			Workers:          header.Workers,
		},
		Cryptography: CryptographyInfo{
			Algorithm:     hashAlgorithm,
			PayloadDigest: FormatDigest(header.PayloadHash),
			ArchiveDigest: FormatDigest(header.ArchiveHash),
		},
		Metadata: CreationInfo{
			Created:       created.UTC().Format(time.RFC3339),
			Creator:       creator,
			Platform:      runtime.GOOS,
			Architecture:  runtime.GOARCH,
			Deterministic: deterministic,
		},
	}
}

// encodeSidecar serializes the sidecar as indented JSON. Struct fields
// marshal in declaration order, so the encoding is deterministic.
func encodeSidecar(sidecar *Sidecar) ([]byte, error) {
	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding sidecar: %w", err)
	}
	return data, nil
}

// parseSidecar decodes sidecar bytes. Archives with unparseable
// sidecars are malformed even when the binary layers are intact.
func parseSidecar(data []byte) (*Sidecar, error) {
	var sidecar Sidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("%w: malformed sidecar: %v", ErrFormat, err)
	}
	return &sidecar, nil
}
