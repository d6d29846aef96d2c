// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/glyphos/glifzip/lib/pool"
)

// Fast-wrap stream layout: a 4-byte frame count, then one frame per
// partition of the wrapped bytes (8-byte raw length, 8-byte compressed
// length, compressed bytes). A frame whose compressed length equals
// its raw length is stored verbatim: LZ4 declined to shrink it, which
// is common since the input is already zstd output. Every frame is
// self-delimiting, so unwrapping parallelizes over frames without
// knowing how many workers produced them.
const (
	wrapStreamHeaderSize = 4
	wrapFramePrefixSize  = 16
)

// wrapFast wraps the chunk stream in LZ4 frames, one per chunkSize
// partition, compressing frames in parallel. The pipeline always
// passes ChunkSize; tests pass smaller sizes to exercise multi-frame
// streams.
func wrapFast(stream []byte, chunkSize int, p *pool.Pool) ([]byte, error) {
	count := chunkCount(len(stream), chunkSize)
	frames, err := p.MapOrdered(count, func(index int) ([]byte, error) {
		start, end := chunkBounds(len(stream), chunkSize, index)
		frame, err := wrapFrame(stream[start:end])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		return frame, nil
	})
	if err != nil {
		return nil, err
	}

	framedSize := wrapStreamHeaderSize
	for _, frame := range frames {
		framedSize += wrapFramePrefixSize + len(frame)
	}

	framed := make([]byte, 0, framedSize)
	framed = binary.BigEndian.AppendUint32(framed, uint32(count))
	for index, frame := range frames {
		start, end := chunkBounds(len(stream), chunkSize, index)
		framed = binary.BigEndian.AppendUint64(framed, uint64(end-start))
		framed = binary.BigEndian.AppendUint64(framed, uint64(len(frame)))
		framed = append(framed, frame...)
	}
	return framed, nil
}

// wrapFrame compresses a single frame with LZ4, returning the input
// unchanged (a stored frame) when LZ4 cannot make it smaller.
func wrapFrame(chunk []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(chunk))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(chunk, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 wrap: %v", ErrCorrupted, err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible. An output no smaller than the input is not
	// worth keeping either.
	if written == 0 || written >= len(chunk) {
		return chunk, nil
	}
	return destination[:written], nil
}

// unwrapFast parses the frame stream and decompresses every frame in
// parallel, reassembling the wrapped bytes. The total raw size is
// carried by the frames themselves; each frame's decoded length is
// validated against its declared raw length.
func unwrapFast(framed []byte, p *pool.Pool) ([]byte, error) {
	if len(framed) < wrapStreamHeaderSize {
		return nil, fmt.Errorf("%w: frame stream is %d bytes, need at least %d",
			ErrCorrupted, len(framed), wrapStreamHeaderSize)
	}
	count := int(binary.BigEndian.Uint32(framed[0:4]))

	raws := make([]int, count)
	records := make([][]byte, count)
	offset := wrapStreamHeaderSize
	total := 0
	for index := range records {
		if len(framed)-offset < wrapFramePrefixSize {
			return nil, fmt.Errorf("%w: frame stream truncated at frame %d", ErrCorrupted, index)
		}
		rawLen := binary.BigEndian.Uint64(framed[offset:])
		compLen := binary.BigEndian.Uint64(framed[offset+8:])
		offset += wrapFramePrefixSize

		if rawLen == 0 || rawLen > ChunkSize {
			return nil, fmt.Errorf("%w: frame %d declares raw length %d (limit %d)",
				ErrCorrupted, index, rawLen, ChunkSize)
		}
		if compLen > rawLen {
			return nil, fmt.Errorf("%w: frame %d compressed length %d exceeds raw length %d",
				ErrCorrupted, index, compLen, rawLen)
		}
		if compLen > uint64(len(framed)-offset) {
			return nil, fmt.Errorf("%w: frame %d declares %d compressed bytes, %d remain",
				ErrCorrupted, index, compLen, len(framed)-offset)
		}

		records[index] = framed[offset : offset+int(compLen)]
		raws[index] = int(rawLen)
		total += int(rawLen)
		offset += int(compLen)
	}
	if offset != len(framed) {
		return nil, fmt.Errorf("%w: %d trailing bytes after final frame", ErrCorrupted, len(framed)-offset)
	}

	frames, err := p.MapOrdered(count, func(index int) ([]byte, error) {
		record := records[index]
		if len(record) == raws[index] {
			// Stored frame.
			return record, nil
		}
		frame, err := unwrapFrame(record, raws[index])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		return frame, nil
	})
	if err != nil {
		return nil, err
	}

	stream := make([]byte, 0, total)
	for _, frame := range frames {
		stream = append(stream, frame...)
	}
	return stream, nil
}

// unwrapFrame decompresses a single LZ4 frame into a buffer of exactly
// the declared raw size.
func unwrapFrame(compressed []byte, rawSize int) ([]byte, error) {
	destination := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 unwrap: %v", ErrCorrupted, err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("%w: lz4 unwrap: got %d bytes, want %d", ErrCorrupted, read, rawSize)
	}
	return destination, nil
}
