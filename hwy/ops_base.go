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

package hwy

import "math"

// This file provides the pure Go (scalar) vector operations. Kernels written
// against these operations are the portable twin of the archsimd kernels and
// run whenever TGEMM_NO_SIMD is set or the CPU lacks AVX2+FMA.

// Load creates a vector from the first MaxLanes elements of src.
func Load[T Lanes](src []T) Vec[T] {
	n := min(len(src), MaxLanes[T]())
	data := make([]T, n)
	copy(data, src[:n])
	return Vec[T]{data: data}
}

// Set creates a vector with all lanes set to value (a broadcast).
func Set[T Lanes](value T) Vec[T] {
	data := make([]T, MaxLanes[T]())
	for i := range data {
		data[i] = value
	}
	return Vec[T]{data: data}
}

// Zero creates a vector with all lanes set to zero.
func Zero[T Lanes]() Vec[T] {
	return Vec[T]{data: make([]T, MaxLanes[T]())}
}

// Mul performs element-wise multiplication.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	n := min(len(a.data), len(b.data))
	result := make([]T, n)
	for i := range n {
		result[i] = a.data[i] * b.data[i]
	}
	return Vec[T]{data: result}
}

// MulAdd performs fused multiply-add: a*b + c.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	n := min(len(a.data), len(b.data), len(c.data))
	result := make([]T, n)
	for i := range n {
		switch any(a.data[i]).(type) {
		case float32:
			// The float32 product is exact in float64; only the sum rounds.
			result[i] = T(float32(float64(a.data[i])*float64(b.data[i]) + float64(c.data[i])))
		default:
			result[i] = T(math.FMA(float64(a.data[i]), float64(b.data[i]), float64(c.data[i])))
		}
	}
	return Vec[T]{data: result}
}

// GreaterThan performs element-wise a > b.
func GreaterThan[T Lanes](a, b Vec[T]) Mask[T] {
	n := min(len(a.data), len(b.data))
	bits := make([]bool, n)
	for i := range n {
		bits[i] = a.data[i] > b.data[i]
	}
	return Mask[T]{bits: bits}
}

// IfThenElse selects lanes of a where mask is set and lanes of b elsewhere.
func IfThenElse[T Lanes](mask Mask[T], a, b Vec[T]) Vec[T] {
	n := min(len(mask.bits), len(a.data), len(b.data))
	result := make([]T, n)
	for i := range n {
		if mask.bits[i] {
			result[i] = a.data[i]
		} else {
			result[i] = b.data[i]
		}
	}
	return Vec[T]{data: result}
}
