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

import (
	"fmt"
	"unsafe"
)

// CheckOperands validates the operands of Y = X·W + B for a weight matrix of
// shape k×n. It is shared by the dense, TCSC and BCSR kernels.
//
// It checks that no operand is nil or released, that X is M×k, Y is M×n and
// the bias holds n values (1×n or n×1), and that Y shares no storage with X
// or the bias.
func CheckOperands(x, bias, y *Matrix, k, n int) error {
	for _, op := range []struct {
		name string
		m    *Matrix
	}{{"x", x}, {"bias", bias}, {"y", y}} {
		if op.m == nil {
			return fmt.Errorf("%w: %s is nil", ErrReleased, op.name)
		}
		if op.m.released {
			return fmt.Errorf("%w: %s", ErrReleased, op.name)
		}
	}
	if x.cols != k {
		return fmt.Errorf("%w: x is %dx%d but weights have %d rows", ErrShapeMismatch, x.rows, x.cols, k)
	}
	if y.rows != x.rows || y.cols != n {
		return fmt.Errorf("%w: y is %dx%d, want %dx%d", ErrShapeMismatch, y.rows, y.cols, x.rows, n)
	}
	if bias.Len() != n || (bias.rows != 1 && bias.cols != 1) {
		return fmt.Errorf("%w: bias is %dx%d, want 1x%d", ErrShapeMismatch, bias.rows, bias.cols, n)
	}
	if Overlaps(y.data, x.data) {
		return fmt.Errorf("%w: y and x", ErrAliased)
	}
	if Overlaps(y.data, bias.data) {
		return fmt.Errorf("%w: y and bias", ErrAliased)
	}
	return nil
}

// CheckAligned returns ErrMisaligned if the storage of m, called name in the
// message, does not start on a 32-byte boundary.
func CheckAligned(name string, m *Matrix) error {
	if !m.Aligned() {
		return fmt.Errorf("%w: %s", ErrMisaligned, name)
	}
	return nil
}

// CheckTernary returns ErrNotTernary with the coordinates of the first value
// of w that is not exactly -1, 0 or +1.
func CheckTernary(w *Matrix) error {
	for i, v := range w.data {
		if v != 0 && v != 1 && v != -1 {
			return fmt.Errorf("%w: %v at (%d, %d)", ErrNotTernary, v, i/w.cols, i%w.cols)
		}
	}
	return nil
}

// IsNonZero reports whether v counts as a nonzero ternary weight. Only exact
// +1 and -1 do; anything else, including values a rounding error away from
// ±1, encodes as zero.
func IsNonZero(v float32) bool {
	return v == 1 || v == -1
}

// Overlaps reports whether two slices share any element of storage.
func Overlaps(a, b []float32) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	const size = unsafe.Sizeof(float32(0))
	a0 := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	b0 := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	a1 := a0 + uintptr(len(a))*size
	b1 := b0 + uintptr(len(b))*size
	return a0 < b1 && b0 < a1
}
