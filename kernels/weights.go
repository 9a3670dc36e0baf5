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

import (
	"fmt"

	"github.com/ternlab/tgemm/bcsr"
	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/tcsc"
)

// Weights holds one K×N ternary weight matrix in every encoding. It is
// immutable after Prepare and may be shared by concurrent Run calls.
type Weights struct {
	// Dense is the matrix Prepare was called with. It stays owned by the
	// caller.
	Dense *dense.Matrix
	TCSC  *tcsc.Matrix
	// BCSR is nil when Prepare was called without a block shape.
	BCSR *bcsr.Matrix
}

// Prepare encodes w as TCSC and, if blockR and blockC are positive, as BCSR
// with blockR×blockC blocks. Passing 0, 0 skips the BCSR encoding; the BCSR
// kinds then fail with ErrUnsupported.
func Prepare(w *dense.Matrix, blockR, blockC int) (*Weights, error) {
	t, err := tcsc.FromDense(w)
	if err != nil {
		return nil, fmt.Errorf("tcsc encoding: %w", err)
	}
	weights := &Weights{Dense: w, TCSC: t}
	if blockR == 0 && blockC == 0 {
		return weights, nil
	}
	b, err := bcsr.FromDense(w, blockR, blockC)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("bcsr encoding: %w", err)
	}
	weights.BCSR = b
	return weights, nil
}

// K returns the number of weight rows.
func (w *Weights) K() int { return w.TCSC.Rows }

// N returns the number of weight columns.
func (w *Weights) N() int { return w.TCSC.Cols }

// Release drops the sparse encodings. The dense matrix is left to its owner.
func (w *Weights) Release() {
	w.TCSC.Release()
	if w.BCSR != nil {
		w.BCSR.Release()
	}
}

// Supported returns nil if kind can run on w, or an error wrapping
// ErrUnknownKind or ErrUnsupported that says why not. Nil weights are
// dense.ErrReleased.
func Supported(kind Kind, w *Weights) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	if w == nil || w.TCSC == nil {
		return fmt.Errorf("%w: %v: weights", dense.ErrReleased, kind)
	}
	if kind.Format() != FormatBCSR {
		return nil
	}
	if w.BCSR == nil {
		return fmt.Errorf("%w: %v needs a block shape", ErrUnsupported, kind)
	}
	if kind.Vectorized() && !bcsr.SupportsVector(w.BCSR.C, w.BCSR.Cols) {
		return fmt.Errorf("%w: %v needs block width and N to be multiples of %d, have %d and %d",
			ErrUnsupported, kind, bcsr.VectorWidth, w.BCSR.C, w.BCSR.Cols)
	}
	return nil
}
