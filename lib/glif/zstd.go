// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/glyphos/glifzip/lib/pool"
)

// Compression levels follow the zstd convention: 1 is fastest, 22 is
// the strongest (and slowest) setting. Level 8 is the default, a good
// ratio for mixed content without excessive CPU.
const (
	MinLevel     = 1
	MaxLevel     = 22
	DefaultLevel = 8
)

// Chunk stream layout: a 4-byte chunk count and the 8-byte chunk size
// used for partitioning, then one record per chunk (8-byte compressed
// length, compressed bytes). Uncompressed chunk sizes are not stored;
// the reader rederives them from the header's payload size and the
// recorded chunk size.
const (
	chunkStreamHeaderSize = 12
	chunkRecordPrefixSize = 8
)

// zstdCodec compresses chunks at a fixed level with pooled encoders.
// Each encoder is pinned to concurrency 1 so that EncodeAll output is
// a pure function of input and level; parallelism comes from
// compressing many chunks at once, one encoder per busy worker.
type zstdCodec struct {
	level    int
	encoders sync.Pool
}

func newZstdCodec(level int) (*zstdCodec, error) {
	if level < MinLevel || level > MaxLevel {
		return nil, fmt.Errorf("%w: compression level %d out of range [%d, %d]",
			ErrConfig, level, MinLevel, MaxLevel)
	}
	codec := &zstdCodec{level: level}
	codec.encoders.New = func() any { return newChunkEncoder(level) }
	return codec, nil
}

func (c *zstdCodec) get() *zstd.Encoder        { return c.encoders.Get().(*zstd.Encoder) }
func (c *zstdCodec) put(encoder *zstd.Encoder) { c.encoders.Put(encoder) }

func newChunkEncoder(level int) *zstd.Encoder {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		// The options above are valid for every level in range, so
		// this cannot fail after newZstdCodec's level check.
		panic("glif: zstd encoder initialization failed: " + err.Error())
	}
	return encoder
}

// zstdDecoder is shared across all decompression calls. zstd.Decoder
// is safe for concurrent DecodeAll use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("glif: zstd decoder initialization failed: " + err.Error())
	}
}

// compressChunks partitions the payload, compresses every chunk in
// parallel, and returns the assembled chunk stream. The stream layout
// depends only on the payload bytes, the level, and the chunk size,
// never on the pool's worker count. The pipeline always passes
// ChunkSize; the parameter exists so tests can exercise multi-chunk
// streams without building 128MB payloads.
func compressChunks(payload []byte, level, chunkSize int, p *pool.Pool) ([]byte, error) {
	codec, err := newZstdCodec(level)
	if err != nil {
		return nil, err
	}

	count := chunkCount(len(payload), chunkSize)
	compressed, err := p.MapOrdered(count, func(index int) ([]byte, error) {
		start, end := chunkBounds(len(payload), chunkSize, index)
		encoder := codec.get()
		defer codec.put(encoder)
		return encoder.EncodeAll(payload[start:end], nil), nil
	})
	if err != nil {
		return nil, err
	}

	streamSize := chunkStreamHeaderSize
	for _, chunk := range compressed {
		streamSize += chunkRecordPrefixSize + len(chunk)
	}

	stream := make([]byte, 0, streamSize)
	stream = binary.BigEndian.AppendUint32(stream, uint32(count))
	stream = binary.BigEndian.AppendUint64(stream, uint64(chunkSize))
	for _, chunk := range compressed {
		stream = binary.BigEndian.AppendUint64(stream, uint64(len(chunk)))
		stream = append(stream, chunk...)
	}
	return stream, nil
}

// decompressChunks parses a chunk stream, validates it against the
// declared payload size, decompresses every chunk in parallel, and
// returns the reassembled payload.
func decompressChunks(stream []byte, payloadSize int, p *pool.Pool) ([]byte, error) {
	if len(stream) < chunkStreamHeaderSize {
		return nil, fmt.Errorf("%w: chunk stream is %d bytes, need at least %d",
			ErrCorrupted, len(stream), chunkStreamHeaderSize)
	}
	count := int(binary.BigEndian.Uint32(stream[0:4]))
	chunkSize := binary.BigEndian.Uint64(stream[4:12])

	if chunkSize > math.MaxInt || (chunkSize == 0 && payloadSize > 0) {
		return nil, fmt.Errorf("%w: invalid chunk size %d", ErrCorrupted, chunkSize)
	}
	if payloadSize > 0 {
		if want := chunkCount(payloadSize, int(chunkSize)); count != want {
			return nil, fmt.Errorf("%w: chunk count %d does not match payload size %d (want %d)",
				ErrCorrupted, count, payloadSize, want)
		}
	} else if count != 0 {
		return nil, fmt.Errorf("%w: %d chunks declared for an empty payload", ErrCorrupted, count)
	}

	// Walk the records sequentially (cheap slicing), then decompress
	// in parallel.
	records := make([][]byte, count)
	offset := chunkStreamHeaderSize
	for index := range records {
		if len(stream)-offset < chunkRecordPrefixSize {
			return nil, fmt.Errorf("%w: chunk stream truncated at record %d", ErrCorrupted, index)
		}
		compLen := binary.BigEndian.Uint64(stream[offset:])
		offset += chunkRecordPrefixSize
		if compLen > uint64(len(stream)-offset) {
			return nil, fmt.Errorf("%w: chunk %d declares %d compressed bytes, %d remain",
				ErrCorrupted, index, compLen, len(stream)-offset)
		}
		records[index] = stream[offset : offset+int(compLen)]
		offset += int(compLen)
	}
	if offset != len(stream) {
		return nil, fmt.Errorf("%w: %d trailing bytes after final chunk", ErrCorrupted, len(stream)-offset)
	}

	chunks, err := p.MapOrdered(count, func(index int) ([]byte, error) {
		start, end := chunkBounds(payloadSize, int(chunkSize), index)
		chunk, err := decompressChunk(records[index], end-start)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", index, err)
		}
		return chunk, nil
	})
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, payloadSize)
	for _, chunk := range chunks {
		payload = append(payload, chunk...)
	}
	return payload, nil
}

// decompressChunk decompresses a single zstd chunk. The decoded length
// must match the partition-derived size exactly.
func decompressChunk(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, 0, uncompressedSize)
	result, err := zstdDecoder.DecodeAll(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decompress: %v", ErrCorrupted, err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("%w: zstd decompress: got %d bytes, want %d",
			ErrCorrupted, len(result), uncompressedSize)
	}
	return result, nil
}
