// Copyright 2025 tgemm Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewDefault(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

// coverage records how many times each row was visited.
func coverage(t *testing.T, n int, run func(fn func(m0, m1 int))) []int32 {
	t.Helper()
	hits := make([]int32, n)
	run(func(m0, m1 int) {
		for i := m0; i < m1; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	return hits
}

func TestParallelRows(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	for _, n := range []int{1, 3, 7, 64, 100, 1001} {
		hits := coverage(t, n, func(fn func(m0, m1 int)) { pool.ParallelRows(n, 1, fn) })
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: row %d visited %d times", n, i, h)
			}
		}
	}
}

func TestParallelRowsGrain(t *testing.T) {
	pool := New(3)
	defer pool.Close()

	const n, grain = 40, 8
	var mu sync.Mutex
	var ranges [][2]int
	pool.ParallelRows(n, grain, func(m0, m1 int) {
		mu.Lock()
		ranges = append(ranges, [2]int{m0, m1})
		mu.Unlock()
	})
	total := 0
	for _, r := range ranges {
		if r[0]%grain != 0 {
			t.Errorf("range %v does not start on a multiple of %d", r, grain)
		}
		if r[1] != n && r[1]%grain != 0 {
			t.Errorf("range %v does not end on a multiple of %d", r, grain)
		}
		total += r[1] - r[0]
	}
	if total != n {
		t.Errorf("ranges cover %d rows, want %d", total, n)
	}
}

func TestParallelRowsDynamic(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	const n = 100
	hits := coverage(t, n, func(fn func(m0, m1 int)) { pool.ParallelRowsDynamic(n, 7, fn) })
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("row %d visited %d times", i, h)
		}
	}
}

func TestParallelRowsZeroN(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var called bool
	pool.ParallelRows(0, 1, func(m0, m1 int) { called = true })
	pool.ParallelRowsDynamic(0, 1, func(m0, m1 int) { called = true })
	if called {
		t.Error("n=0 should not call fn")
	}
}

func TestCloseMultipleTimes(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close()
}

func TestClosedPoolFallback(t *testing.T) {
	pool := New(4)
	pool.Close()

	var calls int
	pool.ParallelRows(100, 1, func(m0, m1 int) {
		calls++
		if m0 != 0 || m1 != 100 {
			t.Errorf("closed pool: got range [%d, %d), want [0, 100)", m0, m1)
		}
	})
	if calls != 1 {
		t.Errorf("closed pool: fn called %d times, want 1", calls)
	}
}

func BenchmarkParallelRows(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	for b.Loop() {
		pool.ParallelRows(1000, 1, func(m0, m1 int) {
			for j := m0; j < m1; j++ {
				_ = j * j
			}
		})
	}
}

func BenchmarkParallelRowsDynamic(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	for b.Loop() {
		pool.ParallelRowsDynamic(1000, 16, func(m0, m1 int) {
			for j := m0; j < m1; j++ {
				_ = j * j
			}
		})
	}
}
