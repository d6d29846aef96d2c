// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides the bounded worker pool that runs chunk
// transforms in parallel. A Pool is an explicit value owned by the
// caller, not a process-wide singleton, so worker count is a visible,
// testable configuration input rather than hidden global state.
//
// The single operation is an ordered parallel map: apply a function to
// every index of a sequence and collect the results in index order,
// regardless of which worker finishes first. The first failure cancels
// dispatch of remaining work and becomes the operation's error; no
// partial results are returned.
package pool
