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
	"fmt"
	"math"

	"github.com/spf13/pflag"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("bench: invalid parameters")

// Params are the run parameters a driver picks for one measurement:
// X is M×K, W is K×N with about one nonzero in NonZero, and BCSR uses
// BlockR×BlockC blocks.
type Params struct {
	M, K, N int
	NonZero int
	Slope   float32
	BlockR  int
	BlockC  int
	Seed    uint64
}

// DefaultParams returns a 64×512×512 problem with 1 in 4 nonzero weights,
// 8×8 blocks and slope 0.25.
func DefaultParams() Params {
	return Params{M: 64, K: 512, N: 512, NonZero: 4, Slope: 0.25, BlockR: 8, BlockC: 8, Seed: 1}
}

// AddFlags registers the parameters on fs, with p's current values as
// defaults.
func (p *Params) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&p.M, "m", p.M, "rows of X and Y")
	fs.IntVar(&p.K, "k", p.K, "columns of X, rows of W")
	fs.IntVar(&p.N, "n", p.N, "columns of W and Y")
	fs.IntVar(&p.NonZero, "nonzero", p.NonZero, "about one weight in this many is nonzero")
	fs.Float32Var(&p.Slope, "slope", p.Slope, "PReLU slope for negative outputs")
	fs.IntVar(&p.BlockR, "block-rows", p.BlockR, "BCSR block height")
	fs.IntVar(&p.BlockC, "block-cols", p.BlockC, "BCSR block width")
	fs.Uint64Var(&p.Seed, "seed", p.Seed, "random seed for the fixtures")
}

// Validate checks that the dimensions are positive, NonZero is at least 1,
// the block shape divides K×N and the slope is finite.
func (p Params) Validate() error {
	var errs []error
	if p.M <= 0 || p.K <= 0 || p.N <= 0 {
		errs = append(errs, fmt.Errorf("dimensions must be positive, got M=%d K=%d N=%d", p.M, p.K, p.N))
	}
	if p.NonZero < 1 {
		errs = append(errs, fmt.Errorf("nonzero must be >= 1, got %d", p.NonZero))
	}
	if p.BlockR <= 0 || p.BlockC <= 0 {
		errs = append(errs, fmt.Errorf("block shape must be positive, got %dx%d", p.BlockR, p.BlockC))
	} else if p.K%p.BlockR != 0 || p.N%p.BlockC != 0 {
		errs = append(errs, fmt.Errorf("block shape %dx%d does not divide %dx%d", p.BlockR, p.BlockC, p.K, p.N))
	}
	if s := float64(p.Slope); math.IsNaN(s) || math.IsInf(s, 0) {
		errs = append(errs, fmt.Errorf("slope must be finite, got %v", p.Slope))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}
