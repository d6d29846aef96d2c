// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package glif

import (
	"strings"
	"testing"
)

func TestHashDeterminism(t *testing.T) {
	data := []byte("the same bytes always produce the same digest")

	if HashPayload(data) != HashPayload(data) {
		t.Error("HashPayload is not deterministic")
	}
	if HashArchive(data) != HashArchive(data) {
		t.Error("HashArchive is not deterministic")
	}
	if HashFileContent(data) != HashFileContent(data) {
		t.Error("HashFileContent is not deterministic")
	}
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte("identical input, three domains")

	payload := HashPayload(data)
	archive := HashArchive(data)
	file := HashFileContent(data)

	if payload == archive {
		t.Error("payload and archive domains produced the same digest")
	}
	if payload == file {
		t.Error("payload and file domains produced the same digest")
	}
	if archive == file {
		t.Error("archive and file domains produced the same digest")
	}
}

func TestHashEmptyInput(t *testing.T) {
	// Hashing must be defined for empty input, and nil versus empty
	// slice must not matter.
	if HashPayload(nil) != HashPayload([]byte{}) {
		t.Error("HashPayload(nil) != HashPayload(empty)")
	}

	var zero Digest
	if HashPayload(nil) == zero {
		t.Error("digest of empty input should not be all zeros")
	}
}

func TestFormatParseDigest(t *testing.T) {
	digest := HashPayload([]byte("format me"))

	formatted := FormatDigest(digest)
	if len(formatted) != 64 {
		t.Fatalf("FormatDigest returned %d characters, want 64", len(formatted))
	}
	if formatted != strings.ToLower(formatted) {
		t.Errorf("FormatDigest should be lowercase hex: %q", formatted)
	}

	parsed, err := ParseDigest(formatted)
	if err != nil {
		t.Fatalf("ParseDigest(%q) failed: %v", formatted, err)
	}
	if parsed != digest {
		t.Error("ParseDigest did not invert FormatDigest")
	}
}

func TestParseDigestErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", "abcdef"},
		{"long", strings.Repeat("ab", 33)},
		{"not hex", strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDigest(tt.input); err == nil {
				t.Errorf("ParseDigest(%q) should fail", tt.input)
			}
		})
	}
}
