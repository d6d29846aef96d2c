// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/glyphos/glifzip/lib/clock"
	"github.com/glyphos/glifzip/lib/pool"
)

// defaultCreator is recorded in sidecars unless the config overrides it.
const defaultCreator = "glifzip v1.0"

// DeterministicEpoch is the fixed creation instant recorded in
// deterministic archives, in both the header timestamp and the sidecar.
// Callers embedding their own timestamps (directory manifests) use the
// same instant so determinism holds end to end.
var DeterministicEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Config holds the compression parameters. The zero value is not
// valid; start from DefaultConfig (or a preset) and adjust.
type Config struct {
	// Level is the zstd compression level, MinLevel through MaxLevel.
	Level int

	// Mode selects whether the zstd stream is wrapped in LZ4 frames
	// for fast extraction (ModeFastWrap) or stored bare for maximum
	// ratio (ModeBlockOnly).
	Mode Mode

	// Deterministic makes archive bytes a pure function of payload,
	// level, and mode: the header records a fixed timestamp and no
	// worker count, so identical inputs produce byte-identical
	// archives across runs, worker counts, and machines of the same
	// platform.
	Deterministic bool

	// Pool runs the chunk transforms. Nil uses a pool with one worker
	// per CPU, scoped to the call.
	Pool *pool.Pool

	// Clock supplies the creation timestamp for non-deterministic
	// archives. Nil uses the real clock.
	Clock clock.Clock

	// Creator overrides the creator string recorded in the sidecar.
	Creator string

	// Content, when non-nil, is recorded in the sidecar's payload
	// section. Callers that embed a directory manifest in the payload
	// set it so readers can route extraction without inspecting
	// payload bytes; the pipeline itself never looks inside the
	// payload.
	Content *ContentSummary
}

// ContentSummary annotates an archive whose payload embeds a directory
// manifest.
type ContentSummary struct {
	Files       uint64
	Directories uint64
}

// DefaultConfig returns the standard configuration: level 8,
// fast-wrap, deterministic.
func DefaultConfig() Config {
	return Config{Level: DefaultLevel, Mode: ModeFastWrap, Deterministic: true}
}

// FastConfig returns a configuration tuned for speed: level 3,
// fast-wrap, deterministic.
func FastConfig() Config {
	return Config{Level: 3, Mode: ModeFastWrap, Deterministic: true}
}

// HighCompressionConfig returns a configuration tuned for ratio:
// level 16, block-only (no LZ4 wrap), deterministic.
func HighCompressionConfig() Config {
	return Config{Level: 16, Mode: ModeBlockOnly, Deterministic: true}
}

// resolve validates the config and fills in defaults for the optional
// collaborators.
func (c Config) resolve() (Config, error) {
	if c.Level < MinLevel || c.Level > MaxLevel {
		return c, fmt.Errorf("%w: compression level %d out of range [%d, %d]",
			ErrConfig, c.Level, MinLevel, MaxLevel)
	}
	if !c.Mode.valid() {
		return c, fmt.Errorf("%w: invalid decompression mode %d", ErrConfig, uint32(c.Mode))
	}
	if c.Pool == nil {
		c.Pool = pool.Default()
	}
	if c.Clock == nil {
		c.Clock = clock.Real()
	}
	if c.Creator == "" {
		c.Creator = defaultCreator
	}
	return c, nil
}

// Compress builds an archive from the payload: hash the payload,
// compress its chunks in parallel, optionally wrap the result in LZ4
// frames, hash the compressed region, and assemble header + sidecar +
// bytes. The payload is only read; the returned archive shares no
// memory with it.
func Compress(payload []byte, cfg Config) ([]byte, error) {
	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	payloadHash := HashPayload(payload)

	stream, err := compressChunks(payload, cfg.Level, ChunkSize, cfg.Pool)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == ModeFastWrap {
		stream, err = wrapFast(stream, ChunkSize, cfg.Pool)
		if err != nil {
			return nil, err
		}
	}

	archiveHash := HashArchive(stream)

	// Deterministic archives must not record anything that varies
	// between two compressions of the same input: the timestamp is
	// pinned and the worker count is left zero.
	created := DeterministicEpoch
	workers := uint32(0)
	if !cfg.Deterministic {
		created = cfg.Clock.Now()
		workers = uint32(cfg.Pool.Workers())
	}

	header := &Header{
		PayloadSize: uint64(len(payload)),
		ArchiveSize: uint64(len(stream)),
		PayloadHash: payloadHash,
		ArchiveHash: archiveHash,
		Level:       uint32(cfg.Level),
		Mode:        cfg.Mode,
		Workers:     workers,
		Timestamp:   created.Unix(),
	}

	sidecar, err := encodeSidecar(buildSidecar(header, cfg.Creator, cfg.Deterministic, created, cfg.Content))
	if err != nil {
		return nil, err
	}
	if len(sidecar) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: sidecar is %d bytes, exceeds the %d-byte limit",
			ErrConfig, len(sidecar), math.MaxUint16)
	}
	header.SidecarSize = uint16(len(sidecar))

	return writeArchive(header, sidecar, stream), nil
}

// Decompress extracts the original payload from an archive. The
// archive digest is verified before any decompression work, so
// corrupted archives are rejected at hashing speed; the payload digest
// and length are verified after reassembly.
func Decompress(archive []byte, p *pool.Pool) ([]byte, error) {
	if p == nil {
		p = pool.Default()
	}

	header, err := ReadHeader(archive)
	if err != nil {
		return nil, err
	}
	stream, err := readPayload(archive, header)
	if err != nil {
		return nil, err
	}

	if got := HashArchive(stream); got != header.ArchiveHash {
		return nil, &HashMismatchError{Region: "archive", Want: header.ArchiveHash, Got: got}
	}

	if header.Mode == ModeFastWrap {
		stream, err = unwrapFast(stream, p)
		if err != nil {
			return nil, err
		}
	}

	payload, err := decompressChunks(stream, int(header.PayloadSize), p)
	if err != nil {
		return nil, err
	}

	if got := HashPayload(payload); got != header.PayloadHash {
		return nil, &HashMismatchError{Region: "payload", Want: header.PayloadHash, Got: got}
	}
	if uint64(len(payload)) != header.PayloadSize {
		return nil, &SizeMismatchError{What: "payload", Want: header.PayloadSize, Got: uint64(len(payload))}
	}
	return payload, nil
}

// Verify checks archive integrity without decompressing anything:
// header validation, then the archive digest over the compressed
// region. It returns the parsed sidecar for inspection. Runtime is
// proportional to the archive size, not the payload size, and no
// payload-sized buffer is ever allocated.
func Verify(archive []byte) (*Sidecar, error) {
	header, err := ReadHeader(archive)
	if err != nil {
		return nil, err
	}
	sidecarBytes, err := readSidecar(archive, header)
	if err != nil {
		return nil, err
	}
	stream, err := readPayload(archive, header)
	if err != nil {
		return nil, err
	}

	if got := HashArchive(stream); got != header.ArchiveHash {
		return nil, &HashMismatchError{Region: "archive", Want: header.ArchiveHash, Got: got}
	}

	return parseSidecar(sidecarBytes)
}

// RoundTrip compresses the payload, immediately decompresses the
// result with the same pool, and errors unless the bytes match.
// It returns the archive. Useful as a self-test when archiving
// irreplaceable data.
func RoundTrip(payload []byte, cfg Config) ([]byte, error) {
	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	archive, err := Compress(payload, cfg)
	if err != nil {
		return nil, err
	}
	restored, err := Decompress(archive, cfg.Pool)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(restored, payload) {
		return nil, fmt.Errorf("%w: round-trip produced different bytes", ErrCorrupted)
	}
	return archive, nil
}
