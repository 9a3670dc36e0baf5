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

// Package hwy is the portable vector layer the ternary GEMM kernels are
// written against.
//
// It detects the SIMD capabilities of the running CPU once at start-up
// (AVX2/AVX-512 on amd64, NEON on arm64) and exposes the result through
// CurrentLevel and MaxLanes, so kernel packages can pick an accelerated
// implementation in their init functions. The Vec type and the operations in
// ops_base.go are the scalar reference path: they are always available and
// give every accelerated kernel a portable twin to be checked against.
//
// Basic usage:
//
//	lanes := hwy.MaxLanes[float32]()
//	acc := hwy.Load(y[j:])
//	acc = hwy.MulAdd(hwy.Set(x), hwy.Load(w[j:]), acc)
//	acc.Store(y[j:])
package hwy

// Floats is the constraint for the lane types the kernels operate on.
type Floats interface {
	~float32 | ~float64
}

// Lanes is the constraint for all types that can be stored in a Vec.
//
// Only floating-point lanes are needed: weights are ternary but they are
// stored and accumulated as float32.
type Lanes interface {
	Floats
}

// Vec is a portable vector handle. In the scalar path it wraps a slice of
// MaxLanes elements.
//
// Vec instances should not be created directly; use Load, Set, or Zero.
type Vec[T Lanes] struct {
	data []T
}

// Store writes the vector's lanes to dst.
func (v Vec[T]) Store(dst []T) {
	n := min(len(dst), len(v.data))
	copy(dst[:n], v.data[:n])
}

// Mask is the result of a lane-wise comparison, consumed by IfThenElse.
type Mask[T Lanes] struct {
	bits []bool
}
