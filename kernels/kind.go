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

// Package kernels is the closed set of GEMM strategies being compared: the
// dense reference, the TCSC kernels and the BCSR kernels, each with and
// without the fused PReLU.
//
// A strategy is named by a Kind. Weights are encoded once by Prepare into
// every format, and Run dispatches a Kind to its kernel. Certify is the
// acceptance gate: a strategy whose output does not match the dense reference
// has no meaningful timing.
//
//	w, err := kernels.Prepare(weights, 8, 8)
//	...
//	defer w.Release()
//	for _, kind := range kernels.Kinds() {
//	    if err := kernels.Certify(kind, x, w, bias, 0.25, validate.DefaultTolerance); err != nil {
//	        ...
//	    }
//	}
package kernels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrUnknownKind is returned for a Kind outside the defined set, or a
	// name ParseKind does not recognize.
	ErrUnknownKind = errors.New("kernels: unknown kernel kind")

	// ErrUnsupported is returned when the weights cannot run a kind, such as
	// a vector kind on blocks narrower than 8 or a BCSR kind on weights
	// prepared without a block shape.
	ErrUnsupported = errors.New("kernels: kind not supported for these weights")
)

// Kind names one GEMM strategy.
type Kind int

const (
	Dense Kind = iota
	DensePReLU
	TCSCBasic
	TCSCReordered
	TCSCPReLU
	TCSCPReLUSeparate
	TCSCPReLUOnTheFly
	BCSRScalar
	BCSRScalarPReLU
	BCSRVector
	BCSRVectorPReLU

	numKinds
)

var kindNames = [numKinds]string{
	Dense:             "dense",
	DensePReLU:        "dense-prelu",
	TCSCBasic:         "tcsc",
	TCSCReordered:     "tcsc-reordered",
	TCSCPReLU:         "tcsc-prelu",
	TCSCPReLUSeparate: "tcsc-prelu-separate",
	TCSCPReLUOnTheFly: "tcsc-prelu-onthefly",
	BCSRScalar:        "bcsr",
	BCSRScalarPReLU:   "bcsr-prelu",
	BCSRVector:        "bcsr-vec",
	BCSRVectorPReLU:   "bcsr-vec-prelu",
}

// Format is the weight encoding a Kind runs on.
type Format int

const (
	FormatDense Format = iota
	FormatTCSC
	FormatBCSR
)

func (f Format) String() string {
	switch f {
	case FormatDense:
		return "dense"
	case FormatTCSC:
		return "tcsc"
	case FormatBCSR:
		return "bcsr"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Format returns the weight encoding k runs on.
func (k Kind) Format() Format {
	switch k {
	case TCSCBasic, TCSCReordered, TCSCPReLU, TCSCPReLUSeparate, TCSCPReLUOnTheFly:
		return FormatTCSC
	case BCSRScalar, BCSRScalarPReLU, BCSRVector, BCSRVectorPReLU:
		return FormatBCSR
	default:
		return FormatDense
	}
}

// Activated reports whether k applies PReLU to its output.
func (k Kind) Activated() bool {
	switch k {
	case DensePReLU, TCSCPReLU, TCSCPReLUSeparate, TCSCPReLUOnTheFly, BCSRScalarPReLU, BCSRVectorPReLU:
		return true
	default:
		return false
	}
}

// Vectorized reports whether k is one of the vector BCSR kinds.
func (k Kind) Vectorized() bool {
	return k == BCSRVector || k == BCSRVectorPReLU
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return lo.Times(int(numKinds), func(i int) Kind { return Kind(i) })
}

// KindsOf returns the kinds running on format f.
func KindsOf(f Format) []Kind {
	return lo.Filter(Kinds(), func(k Kind, _ int) bool { return k.Format() == f })
}

// ParseKind returns the kind named name, ignoring case.
func ParseKind(name string) (Kind, error) {
	k, ok := lo.Find(Kinds(), func(k Kind) bool { return strings.EqualFold(k.String(), name) })
	if !ok {
		return 0, fmt.Errorf("%w: %q (known: %s)", ErrUnknownKind, name,
			strings.Join(lo.Map(Kinds(), func(k Kind, _ int) string { return k.String() }), ", "))
	}
	return k, nil
}

// formatPrefix marks a selector naming a whole format in SelectKinds.
const formatPrefix = "format:"

// ParseFormat returns the format named name, ignoring case.
func ParseFormat(name string) (Format, error) {
	formats := []Format{FormatDense, FormatTCSC, FormatBCSR}
	f, ok := lo.Find(formats, func(f Format) bool { return strings.EqualFold(f.String(), name) })
	if !ok {
		return 0, fmt.Errorf("%w: format %q", ErrUnknownKind, name)
	}
	return f, nil
}

// SelectKinds resolves selectors to kinds, in order and without duplicates.
// A selector is a kind name, or "format:<name>" for every kind of that
// format. No selectors select every kind.
func SelectKinds(selectors []string) ([]Kind, error) {
	if len(selectors) == 0 {
		return Kinds(), nil
	}
	var kinds []Kind
	for _, sel := range selectors {
		if name, ok := strings.CutPrefix(strings.ToLower(sel), formatPrefix); ok {
			f, err := ParseFormat(name)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, KindsOf(f)...)
			continue
		}
		k, err := ParseKind(sel)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return lo.Uniq(kinds), nil
}
