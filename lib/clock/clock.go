// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// The pipeline stamps non-deterministic archives with a creation time.
// Production code injects Real(); tests inject Fixed() so recorded
// timestamps can be asserted exactly instead of approximately.
package clock

import "time"

// Clock supplies the current time. Code that records timestamps
// accepts a Clock (or holds one in its config) instead of calling
// time.Now directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fixed returns a Clock that always reports the given instant.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
