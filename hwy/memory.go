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

import "unsafe"

// VectorAlignment is the byte alignment of slices returned by
// AlignedFloat32s: the size of one AVX2 register.
const VectorAlignment = 32

// AlignedFloat32s returns a zeroed slice of n float32 values whose first
// element sits on a VectorAlignment boundary.
//
// The Go heap does not move objects, so the alignment holds for the lifetime
// of the slice. The capacity is clipped to n so appends never reuse the
// padding.
func AlignedFloat32s(n int) []float32 {
	if n < 0 {
		panic("hwy: negative allocation size")
	}
	if n == 0 {
		return []float32{}
	}
	const pad = VectorAlignment / int(unsafe.Sizeof(float32(0)))
	buf := make([]float32, n+pad)
	off := 0
	for !IsAligned(buf[off:]) {
		off++
	}
	return buf[off : off+n : off+n]
}

// IsAligned reports whether the first element of s sits on a VectorAlignment
// boundary. Empty slices are considered aligned.
func IsAligned[T Lanes](s []T) bool {
	if len(s) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(s)))%VectorAlignment == 0
}
