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
	"runtime"

	"github.com/spf13/cobra"
	"github.com/ternlab/tgemm/bench"
	"github.com/ternlab/tgemm/kernels"
	"github.com/ternlab/tgemm/validate"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// errCheckFailed is returned by the check command if any kernel disagrees
// with the dense reference.
var errCheckFailed = errors.New("certification failed")

type checkOptions struct {
	params  bench.Params
	fixture fixtureOptions
	kinds   []string
	tol     float64
}

func newCheckCmd() *cobra.Command {
	opts := checkOptions{params: bench.DefaultParams(), tol: validate.DefaultTolerance}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Certify each kernel against the dense reference on a random problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}
	fs := cmd.Flags()
	opts.params.AddFlags(fs)
	opts.fixture.addFlags(fs)
	fs.StringSliceVar(&opts.kinds, "kinds", nil, "kernels to certify, by name or format:<dense|tcsc|bcsr> (default all)")
	fs.Float64Var(&opts.tol, "tol", opts.tol, "absolute tolerance per output element")
	return cmd
}

type checkResult struct {
	kind    kernels.Kind
	skipped error
	err     error
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	kinds, err := selectKinds(opts.kinds)
	if err != nil {
		return err
	}
	f, err := newFixture(opts.params, opts.fixture)
	if err != nil {
		return err
	}
	defer f.release()

	results := make([]checkResult, len(kinds))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, kind := range kinds {
		results[i].kind = kind
		if err := kernels.Supported(kind, f.w); err != nil {
			results[i].skipped = err
			continue
		}
		// Certification failures are collected, not returned, so every kind
		// gets reported.
		g.Go(func() error {
			results[i].err = kernels.Certify(kind, f.x, f.w, f.bias, f.params.Slope, opts.tol)
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	p := f.params
	printer.Fprintf(out, "M=%d K=%d N=%d nonzero=1/%d blocks=%dx%d seed=%d\n",
		p.M, p.K, p.N, p.NonZero, p.BlockR, p.BlockC, p.Seed)
	printer.Fprintf(out, "TCSC: %d nonzeros (%d positive, %d negative)\n",
		f.w.TCSC.NNZ(), f.w.TCSC.NumPos, f.w.TCSC.NumNeg)
	if b := f.w.BCSR; b != nil {
		printer.Fprintf(out, "BCSR: %d of %d blocks stored, density %.3f\n",
			b.NumBlocks, b.BlockRows*b.BlockCols, b.Density())
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.skipped != nil:
			fmt.Fprintf(out, "  %-22s SKIP  %v\n", r.kind, r.skipped)
		case r.err != nil:
			failed++
			fmt.Fprintf(out, "  %-22s FAIL  %v\n", r.kind, r.err)
		default:
			fmt.Fprintf(out, "  %-22s ok\n", r.kind)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d kernels", errCheckFailed, failed, len(results))
	}
	klog.V(1).Infof("check: %d kernels certified", len(results))
	return nil
}
