package hwy

import (
	"math"
	"testing"
)

func TestLoad(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}
	v := Load(data)

	if len(v.data) != MaxLanes[float32]() {
		t.Fatalf("Load: got %d lanes, want %d", len(v.data), MaxLanes[float32]())
	}
	for i := range v.data {
		if v.data[i] != data[i] {
			t.Errorf("Load: lane %d: got %v, want %v", i, v.data[i], data[i])
		}
	}
}

func TestLoadShort(t *testing.T) {
	v := Load([]float32{1, 2})
	if len(v.data) != 2 {
		t.Errorf("Load of 2 elements: got %d lanes", len(v.data))
	}
}

func TestSet(t *testing.T) {
	v := Set[float32](42.0)

	if len(v.data) == 0 {
		t.Error("Set created empty vector")
	}
	for i := range v.data {
		if v.data[i] != 42.0 {
			t.Errorf("Set: lane %d: got %v, want %v", i, v.data[i], 42.0)
		}
	}
}

func TestZero(t *testing.T) {
	v := Zero[float64]()
	for i := range v.data {
		if v.data[i] != 0 {
			t.Errorf("Zero: lane %d: got %v, want 0", i, v.data[i])
		}
	}
}

func TestArithmetic(t *testing.T) {
	a := Set[float32](10.0)
	b := Set[float32](4.0)

	tests := []struct {
		name string
		got  Vec[float32]
		want float32
	}{
		{"Mul", Mul(a, b), 40},
		{"MulAdd", MulAdd(a, b, Set[float32](1.5)), 41.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range tt.got.data {
				if tt.got.data[i] != tt.want {
					t.Errorf("%s: lane %d: got %v, want %v", tt.name, i, tt.got.data[i], tt.want)
				}
			}
		})
	}
}

func TestMulAddSingleRounding(t *testing.T) {
	// 1+2^-12 squared needs 25 bits; a separate multiply would round the
	// 2^-24 term away before the subtraction.
	x := float32(1 + 1.0/4096)
	got := MulAdd(Set(x), Set(x), Set(float32(-1))).data[0]
	want := float32(math.FMA(float64(x), float64(x), -1))
	if got != want {
		t.Errorf("MulAdd: got %v, want %v", got, want)
	}
}

func TestGreaterThanIfThenElse(t *testing.T) {
	// PReLU with a = 0.25 over lanes alternating in sign.
	n := MaxLanes[float32]()
	data := make([]float32, n)
	for i := range data {
		if i%2 == 0 {
			data[i] = float32(i + 1)
		} else {
			data[i] = -float32(i + 1)
		}
	}
	v := Load(data)
	mask := GreaterThan(v, Zero[float32]())
	out := IfThenElse(mask, v, Mul(v, Set[float32](0.25)))
	for i := range n {
		want := data[i]
		if want < 0 {
			want *= 0.25
		}
		if out.data[i] != want {
			t.Errorf("IfThenElse: lane %d: got %v, want %v", i, out.data[i], want)
		}
		if mask.bits[i] != (data[i] > 0) {
			t.Errorf("GreaterThan lane %d = %v", i, mask.bits[i])
		}
	}
}

func TestStore(t *testing.T) {
	dst := make([]float32, 2)
	Set[float32](3).Store(dst)
	if dst[0] != 3 || dst[1] != 3 {
		t.Errorf("Store into short slice: got %v", dst)
	}
	full := make([]float32, MaxLanes[float32]())
	Set[float32](7).Store(full)
	for i, v := range full {
		if v != 7 {
			t.Errorf("Store: lane %d: got %v", i, v)
		}
	}
}

func BenchmarkMulAdd(b *testing.B) {
	x := Set[float32](1.5)
	w := Set[float32](2)
	acc := Zero[float32]()
	for b.Loop() {
		acc = MulAdd(x, w, acc)
	}
	_ = acc
}
