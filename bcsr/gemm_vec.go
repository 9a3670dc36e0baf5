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
	"github.com/ternlab/tgemm/hwy"
)

// gemmVecImpl runs the vectorized kernel on validated operands. If activate
// is set, PReLU with slope a is applied to every finished output row.
//
// It defaults to the portable hwy implementation; z_gemm_amd64.go replaces it
// with the AVX2 kernel when the CPU supports it.
var gemmVecImpl = gemmVecPortable

// VecImplName names the implementation behind GEMMVec, for diagnostics.
var VecImplName = "portable"

// SupportsVector reports whether the vectorized kernels accept a weight
// matrix with block width c and N output columns.
func SupportsVector(c, n int) bool {
	return c%VectorWidth == 0 && n%VectorWidth == 0
}

func checkVec(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if err := check(x, w, bias, y); err != nil {
		return err
	}
	if !SupportsVector(w.C, w.Cols) {
		return fmt.Errorf("%w: block width %d, N %d", ErrVectorShape, w.C, w.Cols)
	}
	if err := dense.CheckAligned("y", y); err != nil {
		return err
	}
	return dense.CheckAligned("bias", bias)
}

// GEMMVec computes Y = X·W + B with vector registers.
//
// For every stored block it broadcasts X[m, br*R+i] and fuses it into one
// accumulator per 8-lane output segment, multiply-adding one contiguous load
// of block row i. The block width and N must be multiples of VectorWidth
// (ErrVectorShape), and Y and the bias must be 32-byte aligned
// (dense.ErrMisaligned). Results match GEMM within rounding.
func GEMMVec(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix) error {
	if err := checkVec(x, w, bias, y); err != nil {
		return err
	}
	gemmVecImpl(x, w, bias, y, false, 0)
	return nil
}

// GEMMVecPReLU is GEMMVec followed by a branchless PReLU: a greater-than-zero
// mask blends each finished output row with a times itself.
func GEMMVecPReLU(x *dense.Matrix, w *Matrix, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if err := checkVec(x, w, bias, y); err != nil {
		return err
	}
	gemmVecImpl(x, w, bias, y, true, a)
	return nil
}

func gemmVecPortable(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix, activate bool, a float32) {
	step := min(hwy.MaxLanes[float32](), VectorWidth)
	b := bias.Data()
	r, c := w.R, w.C
	for m := range x.Rows() {
		xRow, yRow := x.Row(m), y.Row(m)
		for n := 0; n < len(yRow); n += step {
			hwy.Load(b[n : n+step]).Store(yRow[n : n+step])
		}
		for brow := range w.BlockRows {
			xs := xRow[brow*r : (brow+1)*r]
			for bi := w.RowStart[brow]; bi < w.RowStart[brow+1]; bi++ {
				out := yRow[int(w.ColIdx[bi])*c:][:c]
				block := w.Block(int(bi))
				for seg := 0; seg < c; seg += step {
					acc := hwy.Load(out[seg : seg+step])
					for i, xv := range xs {
						acc = hwy.MulAdd(hwy.Set(xv), hwy.Load(block[i*c+seg:i*c+seg+step]), acc)
					}
					acc.Store(out[seg : seg+step])
				}
			}
		}
		if activate {
			dense.PReLUSlice(yRow, a)
		}
	}
}
