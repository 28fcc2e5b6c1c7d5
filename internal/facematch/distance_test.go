package facematch

import (
	"math"
	"testing"
)

func filled(n int, v float32) []float32 {
	d := make([]float32, n)
	for i := range d {
		d[i] = v
	}
	return d
}

func TestDistance_Identity(t *testing.T) {
	a := filled(128, 0.3)
	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a, a) = %v, want 0", d)
	}
}

func TestDistance_Known(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"3-4-5", []float32{0, 0}, []float32{3, 4}, 5},
		{"single axis", []float32{0.25, 1, 1}, []float32{0.75, 1, 1}, 0.5},
		{"negative values", []float32{-1, -1}, []float32{1, 1}, math.Sqrt(8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistance_Commutative(t *testing.T) {
	a := make([]float32, 128)
	b := make([]float32, 128)
	for i := range a {
		a[i] = float32(i) * 0.013
		b[i] = float32(127-i) * 0.007
	}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("Distance(a, b) = %v, Distance(b, a) = %v", Distance(a, b), Distance(b, a))
	}
}

func TestDistance_Incomparable(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"nil first", nil, filled(128, 0)},
		{"nil second", filled(128, 0), nil},
		{"both nil", nil, nil},
		{"empty", []float32{}, []float32{}},
		{"length mismatch", filled(128, 0), filled(127, 0)},
		{"nan component", append(filled(127, 0), float32(math.NaN())), filled(128, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := Distance(tt.a, tt.b); !math.IsInf(d, 1) {
				t.Errorf("Distance() = %v, want +Inf", d)
			}
		})
	}
}
