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

import (
	"os"
	"strconv"
	"unsafe"
)

// DispatchLevel represents the SIMD instruction set selected for this process.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD, pure Go implementation.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 instructions (x86-64 baseline).
	DispatchSSE2

	// DispatchAVX2 indicates AVX2+FMA instructions (256-bit, 8 float32 lanes).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 instructions (512-bit).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON instructions (128-bit).
	DispatchNEON
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// NoSimdEnvVar is the environment variable that forces the scalar path.
const NoSimdEnvVar = "TGEMM_NO_SIMD"

// Set by init() in dispatch_*.go files.
var (
	currentLevel DispatchLevel
	currentWidth int
	currentName  string
	hasFMA       bool
)

// CurrentLevel returns the SIMD instruction set being used.
func CurrentLevel() DispatchLevel {
	return currentLevel
}

// CurrentWidth returns the SIMD register width in bytes.
// For example: 16 for SSE2/NEON, 32 for AVX2, 64 for AVX-512.
func CurrentWidth() int {
	return currentWidth
}

// CurrentName returns a human-readable name for the current SIMD target.
func CurrentName() string {
	return currentName
}

// HasFMA reports whether the CPU has fused multiply-add instructions.
// The vectorized BCSR kernels rely on FMA; on amd64 AVX2 is only selected
// when FMA is present too.
func HasFMA() bool {
	return hasFMA
}

// NoSimdEnv checks if TGEMM_NO_SIMD is set.
// When set, the scalar fallback is used regardless of CPU capabilities,
// which is how the accelerated kernels are cross-checked on SIMD hardware.
func NoSimdEnv() bool {
	val := os.Getenv(NoSimdEnvVar)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// MaxLanes returns the number of lanes of type T for the current SIMD width.
//
// With AVX2 (32 bytes) float32 has 8 lanes, with NEON or the scalar
// fallback (16 bytes) it has 4.
func MaxLanes[T Lanes]() int {
	var dummy T
	elementSize := int(unsafe.Sizeof(dummy))
	if elementSize == 0 {
		return 0
	}
	return currentWidth / elementSize
}

func setScalarMode() {
	currentLevel = DispatchScalar
	currentWidth = 16 // Use 16-byte vectors even in scalar mode for consistency
	currentName = "scalar"
}
