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

import "testing"

func TestAlignedFloat32s(t *testing.T) {
	for _, n := range []int{1, 3, 7, 8, 9, 64, 1000} {
		s := AlignedFloat32s(n)
		if len(s) != n {
			t.Fatalf("len(AlignedFloat32s(%d)) = %d", n, len(s))
		}
		if cap(s) != n {
			t.Errorf("cap(AlignedFloat32s(%d)) = %d, want %d", n, cap(s), n)
		}
		if !IsAligned(s) {
			t.Errorf("AlignedFloat32s(%d) is not %d-byte aligned", n, VectorAlignment)
		}
		for i, v := range s {
			if v != 0 {
				t.Fatalf("AlignedFloat32s(%d)[%d] = %v, want 0", n, i, v)
			}
		}
	}
}

func TestAlignedFloat32sEmpty(t *testing.T) {
	s := AlignedFloat32s(0)
	if len(s) != 0 {
		t.Errorf("len = %d, want 0", len(s))
	}
	if !IsAligned(s) {
		t.Error("empty slice should count as aligned")
	}
}

func TestIsAlignedOffset(t *testing.T) {
	s := AlignedFloat32s(16)
	if IsAligned(s[1:]) {
		t.Error("s[1:] reported aligned")
	}
	if !IsAligned(s[8:]) {
		t.Error("s[8:] should be 32-byte aligned")
	}
}

func TestAlignedFloat32sNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AlignedFloat32s(-1) did not panic")
		}
	}()
	AlignedFloat32s(-1)
}
