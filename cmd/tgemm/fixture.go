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
	"fmt"

	"github.com/spf13/pflag"
	"github.com/ternlab/tgemm/bench"
	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/kernels"
	"github.com/ternlab/tgemm/randmat"
)

// fixture is one random problem: X is M×K, bias is 1×N and W is encoded in
// every format.
type fixture struct {
	params bench.Params
	x      *dense.Matrix
	bias   *dense.Matrix
	w      *kernels.Weights
}

// fixtureOptions pick the generators behind a fixture.
type fixtureOptions struct {
	// balanced uses the row-balanced weight generator.
	balanced bool
	// intLimit > 0 draws X from the integers in [-intLimit, intLimit]
	// instead of [-1, 1).
	intLimit int
}

func (o *fixtureOptions) addFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.balanced, "balanced", false, "use the row-balanced weight generator")
	fs.IntVar(&o.intLimit, "integer-inputs", 0, "draw X from the integers in [-limit, limit] (0 draws from [-1, 1))")
}

func newFixture(p bench.Params, opts fixtureOptions) (*fixture, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rng := randmat.New(p.Seed)
	gen := randmat.Ternary
	if opts.balanced {
		gen = randmat.TernaryBalanced
	}
	wd, err := gen(rng, p.K, p.N, p.NonZero)
	if err != nil {
		return nil, err
	}
	var x *dense.Matrix
	if opts.intLimit != 0 {
		if x, err = randmat.Integers(rng, p.M, p.K, opts.intLimit); err != nil {
			return nil, fmt.Errorf("--integer-inputs: %w", err)
		}
	} else {
		x = randmat.Uniform(rng, p.M, p.K)
	}
	w, err := kernels.Prepare(wd, p.BlockR, p.BlockC)
	if err != nil {
		return nil, err
	}
	return &fixture{
		params: p,
		x:      x,
		bias:   randmat.Uniform(rng, 1, p.N),
		w:      w,
	}, nil
}

func (f *fixture) release() {
	f.w.Release()
	f.w.Dense.Release()
	f.x.Release()
	f.bias.Release()
}

// selectKinds resolves --kinds selectors, or returns every kind if there
// are none.
func selectKinds(selectors []string) ([]kernels.Kind, error) {
	kinds, err := kernels.SelectKinds(selectors)
	if err != nil {
		return nil, fmt.Errorf("--kinds: %w", err)
	}
	return kinds, nil
}
