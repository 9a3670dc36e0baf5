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

package tcsc

import (
	"fmt"

	"github.com/ternlab/tgemm/dense"
)

// All kernels compute Y = X·W + B (optionally followed by PReLU) where
//
//   - X is M×K
//   - W is the K×N descriptor
//   - B holds N values
//   - Y is M×N and is fully overwritten
//
// Every output row depends only on the matching row of X, so callers may run
// a kernel on disjoint row views of X and Y concurrently.

func check(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if w == nil || w.released {
		return fmt.Errorf("%w: tcsc weights", dense.ErrReleased)
	}
	return dense.CheckOperands(x, bias, y, w.Rows, w.Cols)
}

// GEMM is the basic kernel: for each output row, for each column, it walks
// the column's positive then negative index list.
func GEMM(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	gemmRowMajor(x, w, bias, y)
	return nil
}

func gemmRowMajor(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) {
	b := bias.Data()
	for m := range x.Rows() {
		xRow, yRow := x.Row(m), y.Row(m)
		for n := range w.Cols {
			acc := b[n]
			for _, k := range w.RowIndexPos[w.ColStartPos[n]:w.ColStartPos[n+1]] {
				acc += xRow[k]
			}
			for _, k := range w.RowIndexNeg[w.ColStartNeg[n]:w.ColStartNeg[n+1]] {
				acc -= xRow[k]
			}
			yRow[n] = acc
		}
	}
}

// GEMMReordered swaps the loops: for a fixed column it sweeps all rows once
// for the positive list and once more for the negative list, so the column's
// index lists stay hot while X rows stream past.
func GEMMReordered(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	gemmColumnMajor(x, w, bias, y, nil)
	return nil
}

// gemmColumnMajor runs the reordered loop nest. If activate is non-nil it is
// applied to each element right after its negative sweep.
func gemmColumnMajor(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix, activate func(float32) float32) {
	initBias(bias, y)
	rows, k, n := x.Rows(), x.Cols(), w.Cols
	xd, yd := x.Data(), y.Data()
	for j := range n {
		pos, neg := w.Column(j)
		for m := range rows {
			xRow := xd[m*k : (m+1)*k]
			var acc float32
			for _, i := range pos {
				acc += xRow[i]
			}
			yd[m*n+j] += acc
		}
		for m := range rows {
			xRow := xd[m*k : (m+1)*k]
			var acc float32
			for _, i := range neg {
				acc += xRow[i]
			}
			v := yd[m*n+j] - acc
			if activate != nil {
				v = activate(v)
			}
			yd[m*n+j] = v
		}
	}
}

func initBias(bias, y *dense.Matrix) {
	b := bias.Data()
	for m := range y.Rows() {
		copy(y.Row(m), b)
	}
}

// GEMMPReLU fuses the activation into the basic kernel: each element is
// summed in full, bias included, then branched on once before its single
// store.
func GEMMPReLU(x *dense.Matrix, w *Matrix, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	b := bias.Data()
	for m := range x.Rows() {
		xRow, yRow := x.Row(m), y.Row(m)
		for n := range w.Cols {
			var acc float32
			for _, k := range w.RowIndexPos[w.ColStartPos[n]:w.ColStartPos[n+1]] {
				acc += xRow[k]
			}
			for _, k := range w.RowIndexNeg[w.ColStartNeg[n]:w.ColStartNeg[n+1]] {
				acc -= xRow[k]
			}
			acc += b[n]
			if acc < 0 {
				acc *= a
			}
			yRow[n] = acc
		}
	}
	return nil
}

// GEMMPReLUSeparate runs the reordered product over the whole output first,
// then applies the activation in a separate vectorized pass.
func GEMMPReLUSeparate(x *dense.Matrix, w *Matrix, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	gemmColumnMajor(x, w, bias, y, nil)
	dense.PReLUSlice(y.Data(), a)
	return nil
}

// GEMMPReLUOnTheFly runs the reordered product and activates each element as
// soon as its negative sweep finishes, while the value is still in a
// register.
func GEMMPReLUOnTheFly(x *dense.Matrix, w *Matrix, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	gemmColumnMajor(x, w, bias, y, func(v float32) float32 { return dense.PReLU(v, a) })
	return nil
}
