// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"time"
)

// Listing renders the entries for display, one line per entry in
// manifest order. The short form is a type letter, the size, and the
// path; the long form adds permissions, ownership, and the
// modification time, with symlink targets appended.
func (m *Manifest) Listing(long bool) []string {
	lines := make([]string, 0, len(m.Entries))
	for i := range m.Entries {
		lines = append(lines, formatEntry(&m.Entries[i], long))
	}
	return lines
}

func formatEntry(e *Entry, long bool) string {
	if !long {
		return fmt.Sprintf("%s %10d %s", e.Type.Letter(), e.Size, e.Path)
	}
	line := fmt.Sprintf("%s %04o %d:%d %10d %s %s",
		e.Type.Letter(), e.Mode&0o7777, e.UID, e.GID, e.Size,
		time.Unix(0, e.Mtime).UTC().Format(time.RFC3339), e.Path)
	if e.Target != "" {
		line += " -> " + e.Target
	}
	return line
}
