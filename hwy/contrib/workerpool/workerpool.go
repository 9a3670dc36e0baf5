// Copyright 2025 tgemm Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent worker pool for splitting the
// output rows of a GEMM across goroutines.
//
// Every output row of Y = X·W + B depends only on the matching row of X and on
// read-only shared state, so rows can be partitioned freely as long as no two
// workers write the same row. A Pool is created once and reused across many
// kernel invocations.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	pool.ParallelRows(m, 1, func(m0, m1 int) {
//	    kernel(x.RowView(m0, m1), y.RowView(m0, m1))
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool. Workers are spawned once at creation.
type Pool struct {
	numWorkers int
	workC      chan task
	closeOnce  sync.Once
	closed     atomic.Bool
}

type task struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a pool with numWorkers goroutines.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan task, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for t := range p.workC {
		t.fn()
		t.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the pool. Calling Close multiple times is safe; a closed
// pool runs all later work on the calling goroutine.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// ParallelRows calls fn over disjoint ranges [m0, m1) covering [0, n) and
// blocks until all ranges are done.
//
// Range boundaries other than n are multiples of grain, so a BCSR kernel can
// ask for whole block-rows. Ranges are contiguous and about equal in size.
func (p *Pool) ParallelRows(n, grain int, fn func(m0, m1 int)) {
	if n <= 0 {
		return
	}
	if grain <= 0 {
		grain = 1
	}
	units := (n + grain - 1) / grain
	workers := min(p.numWorkers, units)
	if workers <= 1 || p.closed.Load() {
		fn(0, n)
		return
	}

	chunk := (units + workers - 1) / workers * grain
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		p.workC <- task{
			fn:      func() { fn(start, end) },
			barrier: &wg,
		}
	}
	wg.Wait()
}

// ParallelRowsDynamic is like ParallelRows but hands out batches of batch rows
// to whichever worker is free, which balances uneven rows better.
func (p *Pool) ParallelRowsDynamic(n, batch int, fn func(m0, m1 int)) {
	if n <= 0 {
		return
	}
	if batch <= 0 {
		batch = 1
	}
	numBatches := (n + batch - 1) / batch
	workers := min(p.numWorkers, numBatches)
	if workers <= 1 || p.closed.Load() {
		fn(0, n)
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- task{
			fn: func() {
				for {
					start := int(next.Add(1)-1) * batch
					if start >= n {
						return
					}
					fn(start, min(start+batch, n))
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}
