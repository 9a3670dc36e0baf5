// Copyright 2025 tgemm Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bench holds what a benchmark driver needs around the kernels: a
// pluggable clock and measurement loop, an optional operation counter used to
// cross-check expected work, the pseudo-FLOP model, and the run parameters.
//
// Platform cycle counters and hardware performance counters are privileged
// and platform specific; they plug in behind Clock and Counter. The compute
// kernels in dense, tcsc and bcsr never depend on this package.
package bench

import (
	"errors"
	"fmt"
	"time"
)

// Clock is a monotonic tick source, such as a timestamp counter.
type Clock interface {
	// Now returns the current tick count.
	Now() uint64
	// Unit names the tick, e.g. "ns" or "cycles".
	Unit() string
}

// WallClock is the portable Clock: nanoseconds on the monotonic clock since
// it was created.
type WallClock struct {
	origin time.Time
}

// NewWallClock returns a WallClock starting at zero.
func NewWallClock() *WallClock {
	return &WallClock{origin: time.Now()}
}

// Now returns nanoseconds since the clock was created.
func (c *WallClock) Now() uint64 { return uint64(time.Since(c.origin)) }

// Unit returns "ns".
func (c *WallClock) Unit() string { return "ns" }

// ErrCounterMismatch is returned by CrossCheck when the counted operations
// differ from the expected count.
var ErrCounterMismatch = errors.New("bench: counted operations differ from the expected count")

// Counter counts retired operations between Start and Stop.
type Counter interface {
	Start() error
	Stop() (uint64, error)
}

// PresetCounter is the Counter used when hardware counters are unavailable:
// Stop reports the preset Count instead of measuring anything.
type PresetCounter struct {
	Count   uint64
	running bool
}

// Start begins a counting interval.
func (c *PresetCounter) Start() error {
	if c.running {
		return errors.New("bench: counter already started")
	}
	c.running = true
	return nil
}

// Stop ends the interval and returns the preset count.
func (c *PresetCounter) Stop() (uint64, error) {
	if !c.running {
		return 0, errors.New("bench: counter not started")
	}
	c.running = false
	return c.Count, nil
}

// CrossCheck counts the operations fn performs and compares them with want.
// It fails with ErrCounterMismatch if they differ by more than relTol*want.
// The counted value is returned either way.
func CrossCheck(c Counter, want uint64, relTol float64, fn func()) (uint64, error) {
	if err := c.Start(); err != nil {
		return 0, err
	}
	fn()
	got, err := c.Stop()
	if err != nil {
		return 0, err
	}
	diff := float64(got) - float64(want)
	if diff < 0 {
		diff = -diff
	}
	if diff > relTol*float64(want) {
		return got, fmt.Errorf("%w: counted %d, expected %d", ErrCounterMismatch, got, want)
	}
	return got, nil
}
