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

package kernels

import "github.com/ternlab/tgemm/bench"

// PseudoFLOPs returns the work model of kind for M input rows: dense
// multiply-adds for the dense kinds, one operation per nonzero weight for
// TCSC, and every element of the stored blocks for BCSR.
func PseudoFLOPs(kind Kind, w *Weights, m int) int64 {
	switch kind.Format() {
	case FormatTCSC:
		return bench.TCSCFLOPs(w.TCSC, m)
	case FormatBCSR:
		if w.BCSR == nil {
			return 0
		}
		return bench.BCSRFLOPs(w.BCSR, m)
	default:
		return bench.DenseFLOPs(m, w.N(), w.K())
	}
}
