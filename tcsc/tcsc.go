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

// Package tcsc implements the ternary compressed sparse column format and the
// GEMM kernels that run on it.
//
// A K×N ternary weight matrix is stored as two CSC-like index lists per
// column: the rows holding +1 and the rows holding -1. Multiplying by it then
// needs no multiplications at all:
//
//	Y[m, n] = B[n] + Σ_{k ∈ pos(n)} X[m, k] - Σ_{k ∈ neg(n)} X[m, k]
//
// Only values exactly equal to ±1 are encoded; every other value counts as
// zero. FromDenseStrict rejects such values instead.
package tcsc

import (
	"fmt"

	"github.com/ternlab/tgemm/dense"
)

// ErrNotTernary is returned by FromDenseStrict.
var ErrNotTernary = dense.ErrNotTernary

// Matrix is a TCSC descriptor of a Rows×Cols ternary matrix.
//
// The positive row indices of column j are
// RowIndexPos[ColStartPos[j]:ColStartPos[j+1]], in ascending order, and
// likewise for the negative ones. A Matrix is immutable after construction
// and safe for concurrent use by any number of kernels.
type Matrix struct {
	Rows, Cols     int
	NumPos, NumNeg int

	ColStartPos, ColStartNeg []int32 // len Cols+1
	RowIndexPos, RowIndexNeg []int32 // len NumPos, NumNeg

	released bool
}

// FromDense encodes the K×N matrix w.
//
// The first pass counts the +1 and -1 entries to size the index lists, the
// second walks w column by column, top to bottom, recording the prefix
// boundaries and appending row indices as it meets them.
func FromDense(w *dense.Matrix) (*Matrix, error) {
	if w == nil || w.Released() {
		return nil, fmt.Errorf("%w: w", dense.ErrReleased)
	}
	rows, cols := w.Rows(), w.Cols()
	data := w.Data()

	var numPos, numNeg int
	for _, v := range data {
		switch v {
		case 1:
			numPos++
		case -1:
			numNeg++
		}
	}

	t := &Matrix{
		Rows:        rows,
		Cols:        cols,
		NumPos:      numPos,
		NumNeg:      numNeg,
		ColStartPos: make([]int32, cols+1),
		ColStartNeg: make([]int32, cols+1),
		RowIndexPos: make([]int32, numPos),
		RowIndexNeg: make([]int32, numNeg),
	}

	var p, n int32
	for j := range cols {
		t.ColStartPos[j] = p
		t.ColStartNeg[j] = n
		for i := range rows {
			switch data[i*cols+j] {
			case 1:
				t.RowIndexPos[p] = int32(i)
				p++
			case -1:
				t.RowIndexNeg[n] = int32(i)
				n++
			}
		}
	}
	t.ColStartPos[cols] = p
	t.ColStartNeg[cols] = n
	return t, nil
}

// FromDenseStrict is like FromDense but fails with ErrNotTernary, carrying
// the coordinates, if w holds any value outside {-1, 0, +1}.
func FromDenseStrict(w *dense.Matrix) (*Matrix, error) {
	if w == nil || w.Released() {
		return nil, fmt.Errorf("%w: w", dense.ErrReleased)
	}
	if err := dense.CheckTernary(w); err != nil {
		return nil, err
	}
	return FromDense(w)
}

// Column returns the positive and negative row indices of column j.
func (t *Matrix) Column(j int) (pos, neg []int32) {
	return t.RowIndexPos[t.ColStartPos[j]:t.ColStartPos[j+1]],
		t.RowIndexNeg[t.ColStartNeg[j]:t.ColStartNeg[j+1]]
}

// NNZ returns the number of nonzero weights.
func (t *Matrix) NNZ() int { return t.NumPos + t.NumNeg }

// ToDense reconstructs the ternary matrix: +1 at positive indices, -1 at
// negative ones, 0 elsewhere.
func (t *Matrix) ToDense() *dense.Matrix {
	m := dense.New(t.Rows, t.Cols)
	for j := range t.Cols {
		pos, neg := t.Column(j)
		for _, i := range pos {
			m.Set(int(i), j, 1)
		}
		for _, i := range neg {
			m.Set(int(i), j, -1)
		}
	}
	return m
}

// Release drops the index arrays. Kernels fail with dense.ErrReleased
// afterwards. Calling Release more than once is safe.
func (t *Matrix) Release() {
	t.ColStartPos, t.ColStartNeg = nil, nil
	t.RowIndexPos, t.RowIndexNeg = nil, nil
	t.released = true
}

// Released reports whether Release has been called.
func (t *Matrix) Released() bool { return t.released }
