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
	"github.com/ternlab/tgemm/bcsr"
	"github.com/ternlab/tgemm/tcsc"
)

// Pseudo-FLOPs count an addition or subtraction of a sparse kernel as the
// multiply-add it replaces, so sparse and dense throughput compare directly.
// Every model includes one bias addition per output element.

// DenseFLOPs returns 2·M·N·K + M·N.
func DenseFLOPs(m, n, k int) int64 {
	return 2*int64(m)*int64(n)*int64(k) + int64(m)*int64(n)
}

// TCSCFLOPs returns 2·M·nnz + M·N for a TCSC weight matrix.
func TCSCFLOPs(w *tcsc.Matrix, m int) int64 {
	return 2*int64(m)*int64(w.NumPos+w.NumNeg) + int64(m)*int64(w.Cols)
}

// BCSRFLOPs returns 2·M·k·R·C + M·N: every stored block is processed densely.
func BCSRFLOPs(w *bcsr.Matrix, m int) int64 {
	return 2*int64(m)*int64(w.NumBlocks)*int64(w.R*w.C) + int64(m)*int64(w.Cols)
}

// Performance returns flops per tick.
func Performance(flops int64, ticks float64) float64 {
	if ticks <= 0 {
		return 0
	}
	return float64(flops) / ticks
}
