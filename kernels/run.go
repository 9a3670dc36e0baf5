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
	"sync"

	"github.com/ternlab/tgemm/bcsr"
	"github.com/ternlab/tgemm/dense"
	"github.com/ternlab/tgemm/hwy/contrib/workerpool"
	"github.com/ternlab/tgemm/tcsc"
	"github.com/ternlab/tgemm/validate"
)

// Run computes Y = X·W + B with the strategy kind, followed by PReLU with
// slope a if kind.Activated(). a is ignored otherwise.
func Run(kind Kind, x *dense.Matrix, w *Weights, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if err := Supported(kind, w); err != nil {
		return err
	}
	switch kind {
	case Dense:
		return dense.GEMM(x, w.Dense, bias, y)
	case DensePReLU:
		return dense.GEMMPReLU(x, w.Dense, bias, a, y)
	case TCSCBasic:
		return tcsc.GEMM(x, w.TCSC, bias, y)
	case TCSCReordered:
		return tcsc.GEMMReordered(x, w.TCSC, bias, y)
	case TCSCPReLU:
		return tcsc.GEMMPReLU(x, w.TCSC, bias, a, y)
	case TCSCPReLUSeparate:
		return tcsc.GEMMPReLUSeparate(x, w.TCSC, bias, a, y)
	case TCSCPReLUOnTheFly:
		return tcsc.GEMMPReLUOnTheFly(x, w.TCSC, bias, a, y)
	case BCSRScalar:
		return bcsr.GEMM(x, w.BCSR, bias, y)
	case BCSRScalarPReLU:
		return bcsr.GEMMPReLU(x, w.BCSR, bias, a, y)
	case BCSRVector:
		return bcsr.GEMMVec(x, w.BCSR, bias, y)
	case BCSRVectorPReLU:
		return bcsr.GEMMVecPReLU(x, w.BCSR, bias, a, y)
	}
	return fmt.Errorf("%w: %v", ErrUnknownKind, kind)
}

// RunParallel is Run with the output rows split over pool. Each worker runs
// the same kernel on its own row views of X and Y, so the result is bit for
// bit the one Run produces.
//
// With a nil pool, or fewer than MinParallelRows() rows, it calls Run.
func RunParallel(pool *workerpool.Pool, kind Kind, x *dense.Matrix, w *Weights, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if pool == nil {
		return Run(kind, x, w, bias, a, y)
	}
	return runRows(func(n int, fn func(m0, m1 int)) { pool.ParallelRows(n, 1, fn) },
		kind, x, w, bias, a, y)
}

// RunParallelDynamic is RunParallel with rows handed out in batches of batch
// rows to whichever worker is free. The result is still bit for bit the one
// Run produces.
func RunParallelDynamic(pool *workerpool.Pool, batch int, kind Kind, x *dense.Matrix, w *Weights, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if pool == nil {
		return Run(kind, x, w, bias, a, y)
	}
	return runRows(func(n int, fn func(m0, m1 int)) { pool.ParallelRowsDynamic(n, batch, fn) },
		kind, x, w, bias, a, y)
}

func runRows(split func(n int, fn func(m0, m1 int)), kind Kind, x *dense.Matrix, w *Weights, bias *dense.Matrix, a float32, y *dense.Matrix) error {
	if x == nil || x.Rows() < MinParallelRows() {
		return Run(kind, x, w, bias, a, y)
	}
	if err := Supported(kind, w); err != nil {
		return err
	}
	// Operand errors are reported once, before any worker starts.
	if err := dense.CheckOperands(x, bias, y, w.K(), w.N()); err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	split(x.Rows(), func(m0, m1 int) {
		err := Run(kind, x.RowView(m0, m1), w, bias, a, y.RowView(m0, m1))
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	})
	return firstErr
}

// Certify runs kind and the dense reference (with PReLU if kind is
// activated) on the same operands and compares the outputs within tol. It
// returns nil if they agree, a *validate.MismatchError for the first
// differing element, or the error that kept either kernel from running.
func Certify(kind Kind, x *dense.Matrix, w *Weights, bias *dense.Matrix, a float32, tol float64) error {
	if x == nil || x.Released() {
		return fmt.Errorf("%v: %w: x", kind, dense.ErrReleased)
	}
	if err := Supported(kind, w); err != nil {
		return err
	}
	ref := dense.New(x.Rows(), w.N())
	defer ref.Release()
	refKind := Dense
	if kind.Activated() {
		refKind = DensePReLU
	}
	if err := Run(refKind, x, w, bias, a, ref); err != nil {
		return fmt.Errorf("%v reference: %w", kind, err)
	}

	y := dense.New(x.Rows(), w.N())
	defer y.Release()
	if err := Run(kind, x, w, bias, a, y); err != nil {
		return fmt.Errorf("%v: %w", kind, err)
	}
	if err := validate.Within(y, ref, tol); err != nil {
		return fmt.Errorf("%v: %w", kind, err)
	}
	return nil
}
