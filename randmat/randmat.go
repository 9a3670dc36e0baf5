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

// Package randmat generates the random dense matrices used as GEMM fixtures:
// ternary weights with a controlled sparsity, and plain inputs.
//
// Every generator takes the *rand.Rand to draw from, so fixtures are
// reproducible when built from New(seed).
package randmat

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/ternlab/tgemm/dense"
)

var (
	// ErrSparsity is returned for a nonZero parameter below 1.
	ErrSparsity = errors.New("randmat: sparsity parameter must be >= 1")

	// ErrRange is returned for a negative integer range.
	ErrRange = errors.New("randmat: integer range must be >= 0")
)

// New returns a PCG generator seeded with seed.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Ternary returns a rows×cols matrix with values in {-1, 0, +1} where
//
//	P(-1) = P(+1) = 1/(2*nonZero)
//	P(0)  = 1 - 1/nonZero
//
// so about one entry in nonZero is nonzero.
func Ternary(rng *rand.Rand, rows, cols, nonZero int) (*dense.Matrix, error) {
	if nonZero < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrSparsity, nonZero)
	}
	m := dense.New(rows, cols)
	data := m.Data()
	draws := 2 * nonZero
	for i := range data {
		switch rng.IntN(draws) {
		case 0:
			data[i] = -1
		case 1:
			data[i] = 1
		}
	}
	return m, nil
}

// TernaryBalanced returns a rows×cols ternary matrix in which every row holds
// about cols/nonZero nonzero entries, split between the signs with a small
// random skew: cols/nonZero/2 + v positive and cols/nonZero/2 - v negative,
// with v drawn from [0, cols/nonZero/20 + 1].
//
// Unlike Ternary, the per-row nonzero count barely varies, which keeps the
// work of every output row of a sparse kernel about equal.
func TernaryBalanced(rng *rand.Rand, rows, cols, nonZero int) (*dense.Matrix, error) {
	if nonZero < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrSparsity, nonZero)
	}
	m := dense.New(rows, cols)
	perRow := cols / nonZero
	for i := range rows {
		skew := rng.IntN(perRow/20 + 2)
		numPos := min(perRow/2+skew, cols)
		numNeg := min(max(perRow/2-skew, 0), cols-numPos)
		row := m.Row(i)
		perm := rng.Perm(cols)
		for _, j := range perm[:numPos] {
			row[j] = 1
		}
		for _, j := range perm[numPos : numPos+numNeg] {
			row[j] = -1
		}
	}
	return m, nil
}

// Uniform returns a rows×cols matrix with values drawn uniformly from [-1, 1).
func Uniform(rng *rand.Rand, rows, cols int) *dense.Matrix {
	m := dense.New(rows, cols)
	data := m.Data()
	for i := range data {
		data[i] = 2*rng.Float32() - 1
	}
	return m
}

// Integers returns a rows×cols matrix of integers drawn uniformly from
// [-limit, limit]. Sums of such values stay exact in float32, which makes
// kernels comparable bit for bit.
func Integers(rng *rand.Rand, rows, cols, limit int) (*dense.Matrix, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrRange, limit)
	}
	m := dense.New(rows, cols)
	data := m.Data()
	for i := range data {
		data[i] = float32(rng.IntN(2*limit+1) - limit)
	}
	return m, nil
}
