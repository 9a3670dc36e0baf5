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

package bcsr

import (
	"fmt"

	"github.com/ternlab/tgemm/dense"
)

func check(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if w == nil || w.released {
		return fmt.Errorf("%w: bcsr weights", dense.ErrReleased)
	}
	return dense.CheckOperands(x, bias, y, w.Rows, w.Cols)
}

// GEMM computes Y = X·W + B block by block. It is the reference semantics
// for the vectorized kernels.
//
// For each output row and each stored block, X[m, br*R+i] times block row i
// is accumulated into Y[m, bc*C : bc*C+C].
func GEMM(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	b := bias.Data()
	r, c := w.R, w.C
	for m := range x.Rows() {
		xRow, yRow := x.Row(m), y.Row(m)
		copy(yRow, b)
		for brow := range w.BlockRows {
			xs := xRow[brow*r : (brow+1)*r]
			for bi := w.RowStart[brow]; bi < w.RowStart[brow+1]; bi++ {
				out := yRow[int(w.ColIdx[bi])*c:][:c]
				block := w.Block(int(bi))
				for i, xv := range xs {
					for j, wv := range block[i*c : (i+1)*c] {
						out[j] += xv * wv
					}
				}
			}
		}
	}
	return nil
}

// GEMMPReLU computes Y = PReLU(X·W + B).
//
// Each output element is held in a register while the block's rows are
// accumulated into it and stored once per block. The activation is applied
// once the output row has seen every block-row, never to a partial sum.
func GEMMPReLU(x *dense.Matrix, w *Matrix, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	b := bias.Data()
	r, c := w.R, w.C
	for m := range x.Rows() {
		xRow, yRow := x.Row(m), y.Row(m)
		copy(yRow, b)
		for brow := range w.BlockRows {
			xs := xRow[brow*r : (brow+1)*r]
			for bi := w.RowStart[brow]; bi < w.RowStart[brow+1]; bi++ {
				out := yRow[int(w.ColIdx[bi])*c:][:c]
				block := w.Block(int(bi))
				for j := range c {
					acc := out[j]
					for i, xv := range xs {
						acc += xv * block[i*c+j]
					}
					out[j] = acc
				}
			}
		}
		for n, v := range yRow {
			yRow[n] = dense.PReLU(v, a)
		}
	}
	return nil
}
