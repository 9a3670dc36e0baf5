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

// Package dense holds the row-major float32 matrix shared by every kernel as
// input, output and bias, together with the dense reference GEMM the sparse
// kernels are certified against.
//
// Storage is allocated through hwy.AlignedFloat32s, so the first element of a
// Matrix is always 32-byte aligned, and rows stay aligned whenever the column
// count is a multiple of 8.
package dense

import (
	"errors"
	"fmt"
	"math"

	"github.com/ternlab/tgemm/hwy"
	"k8s.io/klog/v2"
)

var (
	// ErrInvalidShape is returned for negative dimensions or a value slice
	// whose length does not match the requested shape.
	ErrInvalidShape = errors.New("dense: invalid shape")

	// ErrShapeMismatch is returned when kernel operands disagree on M, K or N.
	ErrShapeMismatch = errors.New("dense: shape mismatch")

	// ErrReleased is returned when a released matrix is passed to a kernel.
	ErrReleased = errors.New("dense: matrix already released")

	// ErrAliased is returned when a kernel output shares storage with one of
	// its inputs.
	ErrAliased = errors.New("dense: output aliases an input")

	// ErrMisaligned is returned by vectorized kernels when a buffer they load
	// with vector instructions is not 32-byte aligned.
	ErrMisaligned = errors.New("dense: buffer not 32-byte aligned")

	// ErrNotTernary is returned by strict encoders for a weight outside
	// {-1, 0, +1}.
	ErrNotTernary = errors.New("dense: value is not ternary")
)

// Matrix is a row-major float32 matrix. Element (i, j) lives at i*Cols()+j.
//
// A Matrix owns its storage until Release is called. Views created with
// RowView share the storage of their parent.
type Matrix struct {
	rows, cols int
	data       []float32
	released   bool
}

// New allocates a zeroed rows×cols matrix.
//
// Negative dimensions panic. A size that cannot be allocated aborts the
// process: nothing useful can be measured without the requested memory.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("dense: negative dimensions %dx%d", rows, cols))
	}
	if cols != 0 && rows > math.MaxInt32/cols {
		klog.Exitf("Fatal error: cannot allocate a %dx%d float32 matrix", rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: hwy.AlignedFloat32s(rows * cols)}
}

// FromSlice copies values (row-major) into a new aligned rows×cols matrix.
func FromSlice(rows, cols int, values []float32) (*Matrix, error) {
	if rows < 0 || cols < 0 || len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d from %d values", ErrInvalidShape, rows, cols, len(values))
	}
	m := New(rows, cols)
	copy(m.data, values)
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Len returns Rows()*Cols().
func (m *Matrix) Len() int { return m.rows * m.cols }

// Data returns the row-major backing slice. It is nil after Release.
func (m *Matrix) Data() []float32 { return m.data }

// At returns element (i, j).
func (m *Matrix) At(i, j int) float32 { return m.data[i*m.cols+j] }

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v float32) { m.data[i*m.cols+j] = v }

// Row returns row i as a slice sharing storage with m.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// RowView returns rows [m0, m1) as a matrix sharing storage with m.
//
// Views are how row-parallel execution splits X and Y: writes through a view
// land in the parent. Releasing a view does not release the parent.
func (m *Matrix) RowView(m0, m1 int) *Matrix {
	if m0 < 0 || m1 < m0 || m1 > m.rows {
		panic(fmt.Sprintf("dense: row view [%d, %d) out of range for %d rows", m0, m1, m.rows))
	}
	return &Matrix{
		rows:     m1 - m0,
		cols:     m.cols,
		data:     m.data[m0*m.cols : m1*m.cols : m1*m.cols],
		released: m.released,
	}
}

// Clone returns an aligned deep copy of m.
func (m *Matrix) Clone() *Matrix {
	c := New(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// Fill sets every element to v.
func (m *Matrix) Fill(v float32) {
	for i := range m.data {
		m.data[i] = v
	}
}

// Release drops the storage. It is safe to call more than once; any later
// kernel call with m fails with ErrReleased.
func (m *Matrix) Release() {
	m.data = nil
	m.released = true
}

// Released reports whether Release has been called.
func (m *Matrix) Released() bool { return m.released }

// Aligned reports whether the first element is 32-byte aligned.
func (m *Matrix) Aligned() bool { return hwy.IsAligned(m.data) }

// String returns a short description, e.g. "dense.Matrix[4x8]".
func (m *Matrix) String() string {
	if m.released {
		return fmt.Sprintf("dense.Matrix[%dx%d, released]", m.rows, m.cols)
	}
	return fmt.Sprintf("dense.Matrix[%dx%d]", m.rows, m.cols)
}
