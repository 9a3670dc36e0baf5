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

// Package bcsr implements block compressed sparse row storage for ternary
// weights and the scalar and vectorized GEMM kernels that run on it.
//
// The K×N weight matrix is cut into R×C blocks. A block is stored, densely and
// whole, iff it holds at least one ±1; blocks are numbered in row-major block
// scan order and that order defines the storage layout:
//
//	RowStart[br] .. RowStart[br+1]   stored blocks of block-row br
//	ColIdx[b]                        block-column of stored block b
//	Values[b*R*C : (b+1)*R*C]        contents of block b, row-major
//
// Storing whole blocks removes per-element indirection from the inner loop:
// each block row is a contiguous run of C weights that vector kernels load
// directly.
package bcsr

import (
	"errors"
	"fmt"

	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/hwy"
)

var (
	// ErrBlockShape is returned when the block shape is not positive or does
	// not divide the matrix shape.
	ErrBlockShape = errors.New("bcsr: block shape does not divide the matrix")

	// ErrVectorShape is returned by the vectorized kernels when the block
	// width or N is not a multiple of VectorWidth.
	ErrVectorShape = errors.New("bcsr: block width and N must be multiples of 8")

	// ErrNotTernary is returned by FromDenseStrict.
	ErrNotTernary = dense.ErrNotTernary
)

// VectorWidth is the number of float32 lanes the vectorized kernels process
// per output segment: one AVX2 register.
const VectorWidth = 8

// Matrix is a BCSR descriptor of a Rows×Cols ternary matrix cut into R×C
// blocks. It is immutable after construction and safe for concurrent use.
type Matrix struct {
	Rows, Cols           int
	R, C                 int
	BlockRows, BlockCols int
	NumBlocks            int

	RowStart []int32   // len BlockRows+1
	ColIdx   []int32   // len NumBlocks
	Values   []float32 // len NumBlocks*R*C, 32-byte aligned

	released bool
}

// FromDense encodes the K×N matrix w with r×c blocks. K must be a multiple of
// r and N a multiple of c, otherwise ErrBlockShape is returned.
//
// The first pass numbers the nonzero blocks in row-major block scan order;
// the second allocates the arrays for that count and fills them. Inside a
// stored block, values other than ±1 are stored as 0.
func FromDense(w *dense.Matrix, r, c int) (*Matrix, error) {
	if w == nil || w.Released() {
		return nil, fmt.Errorf("%w: w", dense.ErrReleased)
	}
	rows, cols := w.Rows(), w.Cols()
	if r <= 0 || c <= 0 || rows%r != 0 || cols%c != 0 {
		return nil, fmt.Errorf("%w: %dx%d matrix with %dx%d blocks", ErrBlockShape, rows, cols, r, c)
	}
	br, bc := rows/r, cols/c

	// Pass 1: blockIndex[brow*bc+bcol] is the storage index of that block,
	// or -1 if the block holds no ±1.
	blockIndex := make([]int32, br*bc)
	var k int32
	for brow := range br {
		for bcol := range bc {
			idx := int32(-1)
			if blockHasNonZero(w, brow*r, bcol*c, r, c) {
				idx = k
				k++
			}
			blockIndex[brow*bc+bcol] = idx
		}
	}

	b := &Matrix{
		Rows: rows, Cols: cols,
		R: r, C: c,
		BlockRows: br, BlockCols: bc,
		NumBlocks: int(k),
		RowStart:  make([]int32, br+1),
		ColIdx:    make([]int32, k),
		Values:    hwy.AlignedFloat32s(int(k) * r * c),
	}

	// Pass 2. RowStart[brow] is the running count of stored blocks, so a
	// block-row without blocks gets an empty range instead of a gap.
	var next int32
	for brow := range br {
		b.RowStart[brow] = next
		for bcol := range bc {
			idx := blockIndex[brow*bc+bcol]
			if idx < 0 {
				continue
			}
			b.ColIdx[idx] = int32(bcol)
			block := b.Values[int(idx)*r*c : int(idx+1)*r*c]
			for i := range r {
				src := w.Row(brow*r + i)[bcol*c : (bcol+1)*c]
				for j, v := range src {
					if dense.IsNonZero(v) {
						block[i*c+j] = v
					}
				}
			}
			next++
		}
	}
	b.RowStart[br] = next
	return b, nil
}

func blockHasNonZero(w *dense.Matrix, row0, col0, r, c int) bool {
	for i := row0; i < row0+r; i++ {
		for _, v := range w.Row(i)[col0 : col0+c] {
			if dense.IsNonZero(v) {
				return true
			}
		}
	}
	return false
}

// FromDenseStrict is like FromDense but fails with ErrNotTernary, carrying
// the coordinates, if w holds any value outside {-1, 0, +1}.
func FromDenseStrict(w *dense.Matrix, r, c int) (*Matrix, error) {
	if w == nil || w.Released() {
		return nil, fmt.Errorf("%w: w", dense.ErrReleased)
	}
	if err := dense.CheckTernary(w); err != nil {
		return nil, err
	}
	return FromDense(w, r, c)
}

// Block returns the R×C row-major contents of stored block i.
func (b *Matrix) Block(i int) []float32 {
	n := b.R * b.C
	return b.Values[i*n : (i+1)*n : (i+1)*n]
}

// Density returns the fraction of blocks that are stored.
func (b *Matrix) Density() float64 {
	total := b.BlockRows * b.BlockCols
	if total == 0 {
		return 0
	}
	return float64(b.NumBlocks) / float64(total)
}

// ToDense reconstructs the dense matrix from the stored blocks, zero
// elsewhere.
func (b *Matrix) ToDense() *dense.Matrix {
	m := dense.New(b.Rows, b.Cols)
	for brow := range b.BlockRows {
		for bi := b.RowStart[brow]; bi < b.RowStart[brow+1]; bi++ {
			col0 := int(b.ColIdx[bi]) * b.C
			block := b.Block(int(bi))
			for i := range b.R {
				copy(m.Row(brow*b.R + i)[col0:col0+b.C], block[i*b.C:(i+1)*b.C])
			}
		}
	}
	return m
}

// Release drops the arrays. Kernels fail with dense.ErrReleased afterwards.
// Calling Release more than once is safe.
func (b *Matrix) Release() {
	b.RowStart, b.ColIdx, b.Values = nil, nil, nil
	b.released = true
}

// Released reports whether Release has been called.
func (b *Matrix) Released() bool { return b.released }
