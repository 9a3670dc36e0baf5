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

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternlab/tgemm/bench"
	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/hwy/contrib/workerpool"
	"github.com/ternlab/tgemm/kernels"
	"github.com/ternlab/tgemm/validate"
	"k8s.io/klog/v2"
)

type measureOptions struct {
	params  bench.Params
	fixture fixtureOptions
	bench   bench.Options
	kinds   []string
	workers int
	batch   int
	// presetFLOPs replaces the pseudo-FLOP model as the counter's reading.
	presetFLOPs uint64
	countTol    float64
}

func newMeasureCmd() *cobra.Command {
	opts := measureOptions{params: bench.DefaultParams(), bench: bench.DefaultOptions(), countTol: 0.01}
	var noWarmup bool
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Time each certified kernel on a random problem",
		Long: "Time each kernel with the wall clock. A kernel is only timed after it\n" +
			"agrees with the dense reference; the others are reported and skipped.\n" +
			"One certified call is counted and checked against the pseudo-FLOP model;\n" +
			"the counted figure is what the performance column divides.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.bench.Warmup = !noWarmup
			return runMeasure(cmd, opts)
		},
	}
	fs := cmd.Flags()
	opts.params.AddFlags(fs)
	opts.fixture.addFlags(fs)
	fs.StringSliceVar(&opts.kinds, "kinds", nil, "kernels to time, by name or format:<dense|tcsc|bcsr> (default all)")
	fs.IntVar(&opts.bench.Runs, "runs", opts.bench.Runs, "calls per timed batch before warm-up")
	fs.IntVar(&opts.bench.Reps, "reps", opts.bench.Reps, "timed batches per kernel")
	fs.Float64Var(&opts.bench.MinTicks, "min-ticks", opts.bench.MinTicks, "warm-up target per batch, in ns")
	fs.BoolVar(&noWarmup, "no-warmup", false, "time exactly --runs calls per batch")
	fs.IntVar(&opts.workers, "workers", 0, "split output rows over this many workers (0 runs on the calling goroutine)")
	fs.IntVar(&opts.batch, "batch", 0, "with --workers, hand out rows in batches of this size to free workers (0 splits evenly)")
	fs.Uint64Var(&opts.presetFLOPs, "preset-flops", 0, "operation count the counter reports per call (0 reports the pseudo-FLOP model)")
	fs.Float64Var(&opts.countTol, "count-tol", opts.countTol, "relative tolerance between counted and modeled operations")
	return cmd
}

func runMeasure(cmd *cobra.Command, opts measureOptions) error {
	kinds, err := selectKinds(opts.kinds)
	if err != nil {
		return err
	}
	if opts.workers < 0 || opts.batch < 0 {
		return fmt.Errorf("--workers and --batch must be >= 0, got %d and %d", opts.workers, opts.batch)
	}
	f, err := newFixture(opts.params, opts.fixture)
	if err != nil {
		return err
	}
	defer f.release()

	var pool *workerpool.Pool
	if opts.workers > 0 {
		pool = workerpool.New(opts.workers)
		defer pool.Close()
	}
	run := func(kind kernels.Kind, y *dense.Matrix) error {
		if opts.batch > 0 {
			return kernels.RunParallelDynamic(pool, opts.batch, kind, f.x, f.w, f.bias, f.params.Slope, y)
		}
		return kernels.RunParallel(pool, kind, f.x, f.w, f.bias, f.params.Slope, y)
	}

	clock := bench.NewWallClock()
	y := dense.New(f.params.M, f.params.N)
	defer y.Release()

	out := cmd.OutOrStdout()
	printer.Fprintf(out, "M=%d K=%d N=%d nonzero=1/%d blocks=%dx%d workers=%d\n",
		f.params.M, f.params.K, f.params.N, f.params.NonZero, f.params.BlockR, f.params.BlockC, opts.workers)
	fmt.Fprintf(out, "  %-22s %14s %14s %12s %14s\n", "kernel", "median "+clock.Unit(), "mean "+clock.Unit(), "runs", "flops/"+clock.Unit())
	mismatched := 0
	for _, kind := range kinds {
		if err := kernels.Supported(kind, f.w); err != nil {
			fmt.Fprintf(out, "  %-22s SKIP  %v\n", kind, err)
			continue
		}
		if err := kernels.Certify(kind, f.x, f.w, f.bias, f.params.Slope, validate.DefaultTolerance); err != nil {
			fmt.Fprintf(out, "  %-22s FAIL  %v\n", kind, err)
			continue
		}

		modeled := uint64(kernels.PseudoFLOPs(kind, f.w, f.params.M))
		counter := &bench.PresetCounter{Count: modeled}
		if opts.presetFLOPs > 0 {
			counter.Count = opts.presetFLOPs
		}
		var runErr error
		counted, err := bench.CrossCheck(counter, modeled, opts.countTol, func() { runErr = run(kind, y) })
		if runErr != nil {
			return fmt.Errorf("%v: %w", kind, runErr)
		}
		if errors.Is(err, bench.ErrCounterMismatch) {
			mismatched++
			fmt.Fprintf(out, "  %-22s COUNT %v\n", kind, err)
		} else if err != nil {
			return fmt.Errorf("%v: %w", kind, err)
		}

		res := bench.Measure(clock, func() {
			if err := run(kind, y); err != nil && runErr == nil {
				runErr = err
			}
		}, opts.bench)
		if runErr != nil {
			return fmt.Errorf("%v: %w", kind, runErr)
		}
		printer.Fprintf(out, "  %-22s %14.0f %14.0f %12d %14.3f\n",
			kind.String(), res.Median, res.Mean, res.Runs, bench.Performance(int64(counted), res.Median))
		klog.V(2).Infof("measure: %v counted %d operations, samples %v", kind, counted, res.Samples)
	}
	if mismatched > 0 {
		return fmt.Errorf("%d of %d kernels: %w", mismatched, len(kinds), bench.ErrCounterMismatch)
	}
	return nil
}
