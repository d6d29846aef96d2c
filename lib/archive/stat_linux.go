// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package archive

import "golang.org/x/sys/unix"

// statTimes extracts access and modification times in unix
// nanoseconds. The Stat_t timespec field names differ between linux
// and darwin, hence the build split.
func statTimes(st *unix.Stat_t) (atime, mtime int64) {
	return st.Atim.Nano(), st.Mtim.Nano()
}
