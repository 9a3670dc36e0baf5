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

package dense

import "fmt"

// GEMM computes Y = X·W + B with a plain triple loop.
//
//   - X is M×K
//   - W is K×N
//   - B holds N values
//   - Y is M×N and is fully overwritten
//
// This is the reference every sparse kernel is certified against; it does
// not assume anything about the values of W.
func GEMM(x, w, bias, y *Matrix) error {
	if err := checkWeights(x, w, bias, y); err != nil {
		return err
	}
	gemm(x, w, bias, y)
	return nil
}

// GEMMPReLU computes Y = PReLU(X·W + B) with slope a for negative outputs.
func GEMMPReLU(x, w, bias *Matrix, a float32, y *Matrix) error {
	if err := checkWeights(x, w, bias, y); err != nil {
		return err
	}
	gemm(x, w, bias, y)
	for i := range y.data {
		y.data[i] = PReLU(y.data[i], a)
	}
	return nil
}

func checkWeights(x, w, bias, y *Matrix) error {
	if w == nil || w.released {
		return fmt.Errorf("%w: w", ErrReleased)
	}
	if err := CheckOperands(x, bias, y, w.rows, w.cols); err != nil {
		return err
	}
	if Overlaps(y.data, w.data) {
		return fmt.Errorf("%w: y and w", ErrAliased)
	}
	return nil
}

func gemm(x, w, bias, y *Matrix) {
	m, k, n := x.rows, x.cols, w.cols
	xd, wd, bd, yd := x.data, w.data, bias.data, y.data
	for i := range m {
		xRow := xd[i*k : (i+1)*k]
		for j := range n {
			var acc float32
			for p, xv := range xRow {
				acc += xv * wd[p*n+j]
			}
			yd[i*n+j] = acc + bd[j]
		}
	}
}
