// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest. Both header hash fields (payload
// and archive) and the per-file content hashes in directory manifests
// are this size.
type Digest [32]byte

// hashAlgorithm is the algorithm name recorded in sidecars so archives
// stay self-describing if the digest ever changes.
const hashAlgorithm = "blake3"

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// digests in different contexts, so an archive digest can never be
// replayed where a payload digest is expected.
type domainKey [32]byte

// Domain separation keys. These are format constants; changing them
// invalidates every existing archive. The byte values are the ASCII
// encoding of the domain name, zero-padded to 32 bytes, which keeps
// the keys inspectable in hex dumps without weakening BLAKE3's keyed
// mode (the key is an opaque 32-byte value either way).
var (
	payloadDomainKey = domainKey{
		'g', 'l', 'i', 'f', 'z', 'i', 'p', '.', 'p', 'a', 'y', 'l', 'o', 'a', 'd', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	archiveDomainKey = domainKey{
		'g', 'l', 'i', 'f', 'z', 'i', 'p', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e', 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	fileDomainKey = domainKey{
		'g', 'l', 'i', 'f', 'z', 'i', 'p', '.', 'f', 'i', 'l', 'e', 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashPayload computes the payload-domain digest of the original
// uncompressed bytes. Stored in the header before compression begins
// and verified as the final step of decompression.
func HashPayload(data []byte) Digest {
	return keyedHash(payloadDomainKey, data)
}

// HashArchive computes the archive-domain digest of the compressed
// payload region (after any LZ4 wrap). Verifying it is the whole of
// archive verification; it requires no decompression.
func HashArchive(data []byte) Digest {
	return keyedHash(archiveDomainKey, data)
}

// HashFileContent computes the file-domain digest of a single file's
// contents. Stored per entry in directory manifests and verified
// during extraction.
func HashFileContent(data []byte) Digest {
	return keyedHash(fileDomainKey, data)
}

// FormatDigest returns the hex-encoded string form of a digest. This
// is the canonical format used in sidecars, logs, and CLI output.
func FormatDigest(digest Digest) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// keyedHash computes the BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Digest {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	// The error is only returned for wrong key length, so this cannot
	// fail with our fixed-size type.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("glif: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
