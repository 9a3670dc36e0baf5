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

package tcsc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/randmat"
)

func mustDense(t testing.TB, rows, cols int, values ...float32) *dense.Matrix {
	t.Helper()
	m, err := dense.FromSlice(rows, cols, values)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestFromDenseLayout(t *testing.T) {
	w := mustDense(t, 4, 4,
		-1, -1, 0, -1,
		0, -1, 0, 0,
		0, 0, -1, -1,
		0, 0, -1, 0,
	)
	got, err := FromDense(w)
	if err != nil {
		t.Fatalf("FromDense: %v", err)
	}
	want := &Matrix{
		Rows: 4, Cols: 4, NumPos: 0, NumNeg: 7,
		ColStartPos: []int32{0, 0, 0, 0, 0},
		ColStartNeg: []int32{0, 1, 3, 5, 7},
		RowIndexPos: []int32{},
		RowIndexNeg: []int32{0, 0, 1, 2, 3, 0, 2},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Matrix{}), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("FromDense mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := randmat.New(42)
	for _, shape := range [][3]int{{1, 1, 1}, {4, 4, 2}, {64, 32, 3}, {33, 97, 5}, {128, 128, 16}} {
		t.Run(fmt.Sprintf("%dx%d/nz%d", shape[0], shape[1], shape[2]), func(t *testing.T) {
			w, err := randmat.Ternary(rng, shape[0], shape[1], shape[2])
			if err != nil {
				t.Fatal(err)
			}
			enc, err := FromDense(w)
			if err != nil {
				t.Fatalf("FromDense: %v", err)
			}
			if diff := cmp.Diff(w.Data(), enc.ToDense().Data()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			checkInvariants(t, enc)
		})
	}
}

func checkInvariants(t *testing.T, w *Matrix) {
	t.Helper()
	for _, lists := range []struct {
		start, index []int32
		total        int
	}{{w.ColStartPos, w.RowIndexPos, w.NumPos}, {w.ColStartNeg, w.RowIndexNeg, w.NumNeg}} {
		if len(lists.start) != w.Cols+1 || lists.start[0] != 0 || int(lists.start[w.Cols]) != lists.total {
			t.Fatalf("bad prefix boundaries %v for %d entries", lists.start, lists.total)
		}
		for j := range w.Cols {
			col := lists.index[lists.start[j]:lists.start[j+1]]
			for i := 1; i < len(col); i++ {
				if col[i] <= col[i-1] {
					t.Fatalf("column %d row indices not ascending: %v", j, col)
				}
			}
		}
	}
}

func TestFromDenseNearOne(t *testing.T) {
	w := mustDense(t, 2, 2, 1, 0.5, 1.0000001, -1)

	enc, err := FromDense(w)
	if err != nil {
		t.Fatalf("FromDense: %v", err)
	}
	if enc.NNZ() != 2 {
		t.Errorf("lenient NNZ = %d, want 2", enc.NNZ())
	}
	want := []float32{1, 0, 0, -1}
	if diff := cmp.Diff(want, enc.ToDense().Data()); diff != "" {
		t.Errorf("lenient encoding mismatch (-want +got):\n%s", diff)
	}

	if _, err := FromDenseStrict(w); !errors.Is(err, ErrNotTernary) {
		t.Errorf("FromDenseStrict: got %v, want ErrNotTernary", err)
	}
}

func TestRelease(t *testing.T) {
	w := mustDense(t, 2, 2, 1, 0, 0, -1)
	enc, _ := FromDense(w)
	enc.Release()
	enc.Release()
	err := GEMM(dense.New(1, 2), enc, dense.New(1, 2), dense.New(1, 2))
	if !errors.Is(err, dense.ErrReleased) {
		t.Errorf("GEMM on released descriptor: got %v, want ErrReleased", err)
	}
	w.Release()
	if _, err := FromDense(w); !errors.Is(err, dense.ErrReleased) {
		t.Errorf("FromDense on released matrix: got %v, want ErrReleased", err)
	}
}
