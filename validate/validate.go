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

// Package validate compares kernel outputs against a reference output with an
// absolute tolerance.
//
// Kernels accumulate in different orders, so agreement is never checked bit
// for bit. A mismatch is reported with its coordinates and both values; it
// ends the current comparison and nothing else.
package validate

import (
	"fmt"
	"math"

	"github.com/ternlab/tgemm/dense"
	"k8s.io/klog/v2"
)

// DefaultTolerance is the absolute per-element tolerance used by Compare.
const DefaultTolerance = 1e-4

// MismatchError describes the first element that differs by more than Tol.
type MismatchError struct {
	Row, Col  int
	Got, Want float32
	Tol       float64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mismatch at (row, col) = (%d, %d): expected=%f got=%f (tolerance %g)",
		e.Row, e.Col, e.Want, e.Got, e.Tol)
}

// Within returns nil if result and reference have the same shape and every
// pair of elements differs by at most tol. Otherwise it returns a shape error
// or a *MismatchError for the first offending element in row-major order.
//
// NaN never compares equal, so a NaN in either matrix is a mismatch.
func Within(result, reference *dense.Matrix, tol float64) error {
	if result == nil || reference == nil || result.Released() || reference.Released() {
		return fmt.Errorf("%w: cannot compare", dense.ErrReleased)
	}
	if result.Rows() != reference.Rows() || result.Cols() != reference.Cols() {
		return fmt.Errorf("%w: result is %dx%d, reference is %dx%d", dense.ErrShapeMismatch,
			result.Rows(), result.Cols(), reference.Rows(), reference.Cols())
	}
	cols := result.Cols()
	got, want := result.Data(), reference.Data()
	for i, g := range got {
		diff := math.Abs(float64(g) - float64(want[i]))
		if !(diff <= tol) {
			return &MismatchError{Row: i / cols, Col: i % cols, Got: g, Want: want[i], Tol: tol}
		}
	}
	return nil
}

// Compare reports whether result matches reference within DefaultTolerance.
// The first mismatch is logged as a warning.
func Compare(result, reference *dense.Matrix) bool {
	if err := Within(result, reference, DefaultTolerance); err != nil {
		klog.Warningf("validate: %v", err)
		return false
	}
	return true
}
