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
	"slices"

	"k8s.io/klog/v2"
)

// Options controls Measure.
type Options struct {
	// Runs is the number of calls per timed batch before warm-up scaling.
	Runs int
	// Reps is the number of timed batches averaged into the result.
	Reps int
	// MinTicks is the batch duration warm-up aims for, in clock ticks.
	MinTicks float64
	// Warmup enables the warm-up phase.
	Warmup bool
}

// DefaultOptions returns 20 runs per batch, 50 batches, and warm-up towards
// batches of 1e8 ticks.
func DefaultOptions() Options {
	return Options{Runs: 20, Reps: 50, MinTicks: 1e8, Warmup: true}
}

// Result is the outcome of Measure, in ticks per call.
type Result struct {
	Runs    int       // calls per batch after warm-up
	Samples []float64 // ticks per call of each batch
	Mean    float64
	Median  float64
}

// Measure times fn with clock.
//
// During warm-up the batch size is multiplied by MinTicks/elapsed until one
// batch lasts at least half of MinTicks, which keeps timer overhead out of
// short kernels. Then Reps batches are timed and reported per call.
func Measure(clock Clock, fn func(), opts Options) Result {
	runs := max(opts.Runs, 1)
	reps := max(opts.Reps, 1)

	if opts.Warmup && opts.MinTicks > 0 {
		multiplier := 1.0
		for {
			runs = max(int(float64(runs)*multiplier), 1)
			elapsed := timeBatch(clock, fn, runs)
			multiplier = opts.MinTicks / float64(max(elapsed, 1))
			if multiplier <= 2 {
				break
			}
		}
		klog.V(2).Infof("bench: warm-up settled on %d runs per batch", runs)
	}

	res := Result{Runs: runs, Samples: make([]float64, reps)}
	var total float64
	for i := range reps {
		perCall := float64(timeBatch(clock, fn, runs)) / float64(runs)
		res.Samples[i] = perCall
		total += perCall
	}
	res.Mean = total / float64(reps)
	res.Median = median(res.Samples)
	return res
}

func timeBatch(clock Clock, fn func(), runs int) uint64 {
	start := clock.Now()
	for range runs {
		fn()
	}
	return clock.Now() - start
}

func median(samples []float64) float64 {
	s := slices.Clone(samples)
	slices.Sort(s)
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
