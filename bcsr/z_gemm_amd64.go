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

//go:build amd64 && goexperiment.simd

// NOTE: This file is named "z_gemm_amd64.go" (starting with 'z') so its
// init() runs after the other files of the package and overrides the
// portable kernel.

package bcsr

import (
	"simd/archsimd"

	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/hwy"
	"k8s.io/klog/v2"
)

func init() {
	if hwy.CurrentLevel() < hwy.DispatchAVX2 {
		return
	}
	gemmVecImpl = gemmVecAVX2
	VecImplName = "avx2"
	klog.V(1).Infof("bcsr: vector kernels use AVX2 (%s)", hwy.CurrentName())
}

func gemmVecAVX2(x *dense.Matrix, w *Matrix, bias, y *dense.Matrix, activate bool, a float32) {
	b := bias.Data()
	r, c := w.R, w.C
	slope := archsimd.BroadcastFloat32x8(a)
	zero := archsimd.BroadcastFloat32x8(0)
	unrolled := r == 8 && c == 8
	for m := range x.Rows() {
		xRow, yRow := x.Row(m), y.Row(m)
		for n := 0; n < len(yRow); n += 8 {
			archsimd.LoadFloat32x8Slice(b[n:]).StoreSlice(yRow[n:])
		}
		for brow := range w.BlockRows {
			xs := xRow[brow*r : (brow+1)*r]
			for bi := w.RowStart[brow]; bi < w.RowStart[brow+1]; bi++ {
				out := yRow[int(w.ColIdx[bi])*c:][:c]
				block := w.Block(int(bi))
				if unrolled {
					block8x8AVX2(xs, block, out)
					continue
				}
				for seg := 0; seg < c; seg += 8 {
					acc := archsimd.LoadFloat32x8Slice(out[seg:])
					for i, xv := range xs {
						wv := archsimd.LoadFloat32x8Slice(block[i*c+seg:])
						acc = archsimd.BroadcastFloat32x8(xv).MulAdd(wv, acc)
					}
					acc.StoreSlice(out[seg:])
				}
			}
		}
		if activate {
			for n := 0; n < len(yRow); n += 8 {
				v := archsimd.LoadFloat32x8Slice(yRow[n:])
				v = v.Merge(v.Mul(slope), v.Greater(zero))
				v.StoreSlice(yRow[n:])
			}
		}
	}
}

// block8x8AVX2 accumulates one 8×8 block into the 8 outputs of out: eight
// broadcast multiply-adds against one accumulator, then a single store.
func block8x8AVX2(xs, block, out []float32) {
	_ = xs[7]
	_ = block[63]
	x0 := archsimd.BroadcastFloat32x8(xs[0])
	x1 := archsimd.BroadcastFloat32x8(xs[1])
	x2 := archsimd.BroadcastFloat32x8(xs[2])
	x3 := archsimd.BroadcastFloat32x8(xs[3])
	x4 := archsimd.BroadcastFloat32x8(xs[4])
	x5 := archsimd.BroadcastFloat32x8(xs[5])
	x6 := archsimd.BroadcastFloat32x8(xs[6])
	x7 := archsimd.BroadcastFloat32x8(xs[7])

	w0 := archsimd.LoadFloat32x8Slice(block[0:])
	w1 := archsimd.LoadFloat32x8Slice(block[8:])
	w2 := archsimd.LoadFloat32x8Slice(block[16:])
	w3 := archsimd.LoadFloat32x8Slice(block[24:])
	w4 := archsimd.LoadFloat32x8Slice(block[32:])
	w5 := archsimd.LoadFloat32x8Slice(block[40:])
	w6 := archsimd.LoadFloat32x8Slice(block[48:])
	w7 := archsimd.LoadFloat32x8Slice(block[56:])

	acc := archsimd.LoadFloat32x8Slice(out)
	acc = x0.MulAdd(w0, acc)
	acc = x1.MulAdd(w1, acc)
	acc = x2.MulAdd(w2, acc)
	acc = x3.MulAdd(w3, acc)
	acc = x4.MulAdd(w4, acc)
	acc = x5.MulAdd(w5, acc)
	acc = x6.MulAdd(w6, acc)
	acc = x7.MulAdd(w7, acc)
	acc.StoreSlice(out)
}
