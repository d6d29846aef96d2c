// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

// ChunkSize is the fixed partition unit: the maximum number of payload
// bytes handed to a single compression task. Chunk boundaries are a
// pure function of the payload length and this constant, never of the
// worker count, so a payload always splits the same way no matter how
// it is processed.
const ChunkSize = 128 << 20

// chunkCount returns the number of chunks a payload of the given
// length splits into. An empty payload has no chunks.
func chunkCount(total, chunkSize int) int {
	if total == 0 {
		return 0
	}
	return (total + chunkSize - 1) / chunkSize
}

// chunkBounds returns the half-open byte range [start, end) of chunk
// index within a payload of the given length. Every chunk except the
// last is exactly chunkSize bytes.
func chunkBounds(total, chunkSize, index int) (start, end int) {
	start = index * chunkSize
	end = start + chunkSize
	if end > total {
		end = total
	}
	return start, end
}
