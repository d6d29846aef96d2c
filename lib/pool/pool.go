// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool is a bounded worker pool for CPU-bound chunk transforms. A Pool
// holds no goroutines or other resources between calls; it is a
// worker-count policy that MapOrdered applies. It needs no Close and
// is safe for concurrent use by multiple operations at once.
type Pool struct {
	workers int
}

// New creates a pool that runs at most workers tasks concurrently.
// A worker count of 1 is the lawful sequential mode; zero or negative
// counts are rejected rather than silently clamped.
func New(workers int) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("pool: worker count %d, must be at least 1", workers)
	}
	return &Pool{workers: workers}, nil
}

// Default returns a pool with one worker per available CPU.
func Default() *Pool {
	return &Pool{workers: runtime.GOMAXPROCS(0)}
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// MapOrdered applies fn to every index in [0, n) across the pool's
// workers and returns the results in index order, regardless of
// completion order. Each worker writes only its own index's slot, so
// no locking is needed on the result slice.
//
// The first error cancels dispatch of all remaining indexes and is
// returned; results computed before the failure are discarded.
// In-flight calls to fn are not preempted (fn is CPU-bound and owns
// its chunk), but nothing new starts once a failure is known.
func (p *Pool) MapOrdered(n int, fn func(index int) ([]byte, error)) ([][]byte, error) {
	if n == 0 {
		return nil, nil
	}

	results := make([][]byte, n)
	workers := min(p.workers, n)

	group, ctx := errgroup.WithContext(context.Background())
	indexes := make(chan int)

	// Producer: feed indexes until done or a worker fails. The error
	// itself is carried by the failing worker; the producer just stops.
	group.Go(func() error {
		defer close(indexes)
		for i := 0; i < n; i++ {
			select {
			case indexes <- i:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		group.Go(func() error {
			for i := range indexes {
				out, err := fn(i)
				if err != nil {
					return err
				}
				results[i] = out
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
