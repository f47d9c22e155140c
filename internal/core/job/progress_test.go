package job

import (
	"math"
	"testing"
)

func TestNormalizeProgress(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	nan := math.NaN()

	tests := []struct {
		name string
		in   *float64
		want int
	}{
		{name: "nil", in: nil, want: 0},
		{name: "nan", in: &nan, want: 0},
		{name: "fraction", in: f(0.42), want: 42},
		{name: "fraction rounds", in: f(0.005), want: 1},
		{name: "one is full fraction", in: f(1), want: 100},
		{name: "percent", in: f(87), want: 87},
		{name: "percent rounds", in: f(87.6), want: 88},
		{name: "zero", in: f(0), want: 0},
		{name: "negative clamps", in: f(-0.5), want: 0},
		{name: "over 100 clamps", in: f(140), want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeProgress(tt.in); got != tt.want {
				t.Errorf("NormalizeProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}
