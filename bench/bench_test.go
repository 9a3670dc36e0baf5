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

package bench

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/ternlab/tgemm/bcsr"
	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/tcsc"
)

// fakeClock advances only when the measured function tells it to.
type fakeClock struct{ ticks uint64 }

func (c *fakeClock) Now() uint64  { return c.ticks }
func (c *fakeClock) Unit() string { return "cycles" }

func TestMeasureWarmup(t *testing.T) {
	clock := &fakeClock{}
	const perCall = 1000
	calls := 0
	fn := func() {
		clock.ticks += perCall
		calls++
	}
	res := Measure(clock, fn, Options{Runs: 20, Reps: 5, MinTicks: 1e6, Warmup: true})

	// 20 calls take 2e4 ticks, so the batch grows 50x to 1000 calls, which
	// reach MinTicks and end the warm-up.
	if res.Runs != 1000 {
		t.Errorf("Runs = %d, want 1000", res.Runs)
	}
	if calls != 20+1000+5*1000 {
		t.Errorf("fn called %d times, want %d", calls, 20+1000+5*1000)
	}
	if res.Mean != perCall || res.Median != perCall {
		t.Errorf("Mean %v, Median %v, want %v", res.Mean, res.Median, perCall)
	}
	if len(res.Samples) != 5 {
		t.Errorf("%d samples, want 5", len(res.Samples))
	}
}

func TestMeasureNoWarmup(t *testing.T) {
	clock := &fakeClock{}
	batch := 0
	calls := 0
	fn := func() {
		// Every batch of 4 calls costs 10 ticks per call more than the last.
		clock.ticks += uint64(10 * (1 + batch))
		calls++
		if calls%4 == 0 {
			batch++
		}
	}
	res := Measure(clock, fn, Options{Runs: 4, Reps: 3})
	if diff := cmp.Diff([]float64{10, 20, 30}, res.Samples); diff != "" {
		t.Errorf("Samples mismatch (-want +got):\n%s", diff)
	}
	if res.Mean != 20 || res.Median != 20 {
		t.Errorf("Mean %v, Median %v, want 20", res.Mean, res.Median)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := median(tt.in); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWallClock(t *testing.T) {
	c := NewWallClock()
	a := c.Now()
	b := c.Now()
	if b < a {
		t.Errorf("WallClock went backwards: %d then %d", a, b)
	}
	if c.Unit() != "ns" {
		t.Errorf("Unit() = %q", c.Unit())
	}
}

func TestCrossCheck(t *testing.T) {
	counter := &PresetCounter{Count: 1000}
	ran := false
	got, err := CrossCheck(counter, 1000, 0, func() { ran = true })
	if err != nil || got != 1000 || !ran {
		t.Errorf("CrossCheck = %d, %v (ran %v)", got, err, ran)
	}

	if _, err := CrossCheck(counter, 900, 0.05, func() {}); !errors.Is(err, ErrCounterMismatch) {
		t.Errorf("CrossCheck off by 11%%: got %v, want ErrCounterMismatch", err)
	}
	if _, err := CrossCheck(counter, 990, 0.05, func() {}); err != nil {
		t.Errorf("CrossCheck within 5%%: %v", err)
	}
}

func TestPresetCounterMisuse(t *testing.T) {
	var c PresetCounter
	if _, err := c.Stop(); err == nil {
		t.Error("Stop before Start succeeded")
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err == nil {
		t.Error("second Start succeeded")
	}
}

func TestFLOPs(t *testing.T) {
	if got := DenseFLOPs(2, 3, 4); got != 2*2*3*4+2*3 {
		t.Errorf("DenseFLOPs = %d", got)
	}

	w, _ := dense.FromSlice(4, 4, []float32{
		-1, -1, 0, -1,
		0, -1, 0, 0,
		0, 0, -1, -1,
		0, 0, -1, 0,
	})
	tw, err := tcsc.FromDense(w)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := TCSCFLOPs(tw, 3), int64(2*3*7+3*4); got != want {
		t.Errorf("TCSCFLOPs = %d, want %d", got, want)
	}
	bw, err := bcsr.FromDense(w, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := BCSRFLOPs(bw, 3), int64(2*3*3*4+3*4); got != want {
		t.Errorf("BCSRFLOPs = %d, want %d", got, want)
	}
	if got := Performance(100, 50); got != 2 {
		t.Errorf("Performance = %v, want 2", got)
	}
	if got := Performance(100, 0); got != 0 {
		t.Errorf("Performance with no ticks = %v, want 0", got)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("DefaultParams: %v", err)
	}
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero M", func(p *Params) { p.M = 0 }},
		{"nonzero 0", func(p *Params) { p.NonZero = 0 }},
		{"block does not divide", func(p *Params) { p.BlockR = 3 }},
		{"negative block", func(p *Params) { p.BlockC = -8 }},
		{"nan slope", func(p *Params) { p.Slope = float32(math.NaN()) }},
		{"inf slope", func(p *Params) { p.Slope = float32(math.Inf(-1)) }},
	}
	for _, tt := range tests {
		p := DefaultParams()
		tt.modify(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%s: got %v, want ErrInvalidParams", tt.name, err)
		}
	}
}

func TestParamsFlags(t *testing.T) {
	p := DefaultParams()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	p.AddFlags(fs)
	if err := fs.Parse([]string{"--m=8", "--n=16", "--slope=0.5", "--block-cols=16", "--seed=9"}); err != nil {
		t.Fatal(err)
	}
	want := DefaultParams()
	want.M, want.N, want.Slope, want.BlockC, want.Seed = 8, 16, 0.5, 16, 9
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Params mismatch (-want +got):\n%s", diff)
	}
}
