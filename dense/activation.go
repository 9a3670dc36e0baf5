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

package dense

import "github.com/ternlab/tgemm/hwy"

// PReLU returns y if y >= 0 and a*y otherwise.
func PReLU(y, a float32) float32 {
	if y < 0 {
		return a * y
	}
	return y
}

// PReLUSlice applies PReLU in place over s, MaxLanes values at a time: a
// greater-than-zero mask selects between y and a*y, with a scalar tail.
//
// Lanes equal to zero take the a*y branch, which yields the same zero.
func PReLUSlice(s []float32, a float32) {
	lanes := hwy.MaxLanes[float32]()
	slope := hwy.Set(a)
	zero := hwy.Zero[float32]()
	i := 0
	for ; i+lanes <= len(s); i += lanes {
		v := hwy.Load(s[i:])
		hwy.IfThenElse(hwy.GreaterThan(v, zero), v, hwy.Mul(v, slope)).Store(s[i:])
	}
	for ; i < len(s); i++ {
		s[i] = PReLU(s[i], a)
	}
}
