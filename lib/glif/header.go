// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"math"
)

const (
	// HeaderSize is the fixed archive header length. Every archive
	// starts with exactly this many bytes.
	HeaderSize = 116

	// Version is the format version written into every header:
	// major in the high 16 bits, minor in the low 16. Readers accept
	// exactly this value.
	Version uint32 = 0x00000100

	// headerChecksumSize is the trailing Adler-32 field; the checksum
	// covers every header byte before it.
	headerChecksumSize = 4
)

// archiveMagic is the 6-byte archive file signature.
var archiveMagic = [6]byte{'G', 'L', 'I', 'F', '0', '1'}

// Field offsets within the fixed header. All integers are big-endian
// so archives are byte-identical across machine architectures. These
// are format constants; changing them breaks every existing archive.
const (
	offMagic       = 0
	offVersion     = 6
	offPayloadSize = 10
	offArchiveSize = 18
	offPayloadHash = 26
	offArchiveHash = 58
	offLevel       = 90
	offMode        = 94
	offWorkers     = 98
	offTimestamp   = 102
	offSidecarSize = 110
	offChecksum    = 112
)

// Mode identifies the decompression strategy recorded in the header.
// The value is a format constant stored in a 4-byte field; readers
// branch on it and reject anything unknown rather than guessing from
// the archive contents.
type Mode uint32

const (
	// ModeFastWrap indicates the zstd chunk stream is wrapped in LZ4
	// block frames. Extraction unwraps the fast outer layer first,
	// which makes large-archive extraction substantially faster for a
	// small size cost.
	ModeFastWrap Mode = 0

	// ModeBlockOnly indicates the archive holds the bare zstd chunk
	// stream. Used when maximum ratio matters more than extraction
	// speed.
	ModeBlockOnly Mode = 1
)

// String returns the human-readable name of a mode.
func (m Mode) String() string {
	switch m {
	case ModeFastWrap:
		return "fast-wrap"
	case ModeBlockOnly:
		return "block-only"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(m))
	}
}

// ParseMode parses a mode from its string representation.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "fast-wrap":
		return ModeFastWrap, nil
	case "block-only":
		return ModeBlockOnly, nil
	default:
		return 0, fmt.Errorf("unknown decompression mode: %q", name)
	}
}

func (m Mode) valid() bool {
	return m == ModeFastWrap || m == ModeBlockOnly
}

// Header is the decoded fixed-size archive header. It is the
// authoritative record for verification; the sidecar merely restates
// it for human inspection.
type Header struct {
	// PayloadSize is the length of the original uncompressed payload.
	PayloadSize uint64

	// ArchiveSize is the length of the compressed payload region that
	// follows the sidecar.
	ArchiveSize uint64

	// PayloadHash is the payload-domain digest of the original bytes.
	PayloadHash Digest

	// ArchiveHash is the archive-domain digest of the compressed
	// payload region.
	ArchiveHash Digest

	// Level is the zstd level the archive was compressed with.
	// Informational: decompression does not need it.
	Level uint32

	// Mode selects the decompression strategy.
	Mode Mode

	// Workers is the worker count used during compression, or 0 for
	// deterministic archives (recording the count would make archive
	// bytes depend on it).
	Workers uint32

	// Timestamp is the creation time in seconds since the Unix epoch.
	// Deterministic archives record a fixed instant.
	Timestamp int64

	// SidecarSize is the byte length of the JSON sidecar between the
	// header and the compressed payload region.
	SidecarSize uint16
}

// encode serializes the header into its fixed 116-byte form, computing
// the trailing checksum over all preceding bytes.
func (h *Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offMagic:], archiveMagic[:])
	binary.BigEndian.PutUint32(buf[offVersion:], Version)
	binary.BigEndian.PutUint64(buf[offPayloadSize:], h.PayloadSize)
	binary.BigEndian.PutUint64(buf[offArchiveSize:], h.ArchiveSize)
	copy(buf[offPayloadHash:], h.PayloadHash[:])
	copy(buf[offArchiveHash:], h.ArchiveHash[:])
	binary.BigEndian.PutUint32(buf[offLevel:], h.Level)
	binary.BigEndian.PutUint32(buf[offMode:], uint32(h.Mode))
	binary.BigEndian.PutUint32(buf[offWorkers:], h.Workers)
	binary.BigEndian.PutUint64(buf[offTimestamp:], uint64(h.Timestamp))
	binary.BigEndian.PutUint16(buf[offSidecarSize:], h.SidecarSize)
	binary.BigEndian.PutUint32(buf[offChecksum:], adler32.Checksum(buf[:offChecksum]))
	return buf
}

// ReadHeader parses and validates the archive header. Validation
// order matters: magic and version identify the format (wrong ones are
// ErrFormat), then the checksum proves the remaining fields are intact
// (ErrHeaderChecksum), and only then are field values trusted and
// range-checked. Nothing past the first failure is examined.
func ReadHeader(archive []byte) (*Header, error) {
	if len(archive) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header",
			ErrFormat, len(archive), HeaderSize)
	}

	if [6]byte(archive[offMagic:offVersion]) != archiveMagic {
		return nil, fmt.Errorf("%w: bad magic %q, want %q",
			ErrFormat, archive[offMagic:offVersion], archiveMagic[:])
	}

	version := binary.BigEndian.Uint32(archive[offVersion:])
	if version != Version {
		return nil, fmt.Errorf("%w: version 0x%08x is not supported (this code supports 0x%08x)",
			ErrFormat, version, Version)
	}

	stored := binary.BigEndian.Uint32(archive[offChecksum:])
	computed := adler32.Checksum(archive[:offChecksum])
	if stored != computed {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x",
			ErrHeaderChecksum, stored, computed)
	}

	header := &Header{
		PayloadSize: binary.BigEndian.Uint64(archive[offPayloadSize:]),
		ArchiveSize: binary.BigEndian.Uint64(archive[offArchiveSize:]),
		Level:       binary.BigEndian.Uint32(archive[offLevel:]),
		Mode:        Mode(binary.BigEndian.Uint32(archive[offMode:])),
		Workers:     binary.BigEndian.Uint32(archive[offWorkers:]),
		Timestamp:   int64(binary.BigEndian.Uint64(archive[offTimestamp:])),
		SidecarSize: binary.BigEndian.Uint16(archive[offSidecarSize:]),
	}
	copy(header.PayloadHash[:], archive[offPayloadHash:])
	copy(header.ArchiveHash[:], archive[offArchiveHash:])

	if !header.Mode.valid() {
		return nil, fmt.Errorf("%w: invalid decompression mode %d",
			ErrFormat, uint32(header.Mode))
	}
	if header.PayloadSize > math.MaxInt64 || header.ArchiveSize > math.MaxInt64 {
		return nil, fmt.Errorf("%w: declared sizes exceed addressable memory", ErrFormat)
	}

	return header, nil
}

// writeArchive assembles the final archive bytes from the encoded
// header, the sidecar, and the compressed payload region.
func writeArchive(header *Header, sidecar, payload []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(sidecar)+len(payload))
	out = append(out, header.encode()...)
	out = append(out, sidecar...)
	out = append(out, payload...)
	return out
}

// readSidecar returns the sidecar bytes between the header and the
// compressed payload region.
func readSidecar(archive []byte, header *Header) ([]byte, error) {
	end := HeaderSize + int(header.SidecarSize)
	if len(archive) < end {
		return nil, fmt.Errorf("%w: archive truncated inside sidecar (%d bytes, need %d)",
			ErrFormat, len(archive), end)
	}
	return archive[HeaderSize:end], nil
}

// readPayload returns the compressed payload region. The archive must
// be exactly header + sidecar + declared archive size; anything
// shorter or longer means the declared layout and the actual bytes
// disagree.
func readPayload(archive []byte, header *Header) ([]byte, error) {
	start := HeaderSize + int(header.SidecarSize)
	want := uint64(start) + header.ArchiveSize
	if uint64(len(archive)) != want {
		return nil, &SizeMismatchError{What: "archive region", Want: want, Got: uint64(len(archive))}
	}
	return archive[start:], nil
}
