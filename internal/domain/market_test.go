package domain

import (
	"math"
	"testing"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		in      float64
		want    float64
		wantNil bool
	}{
		{0.42, 0.42, false},
		{-0.1, 0, false},
		{1.7, 1, false},
		{math.Inf(1), 1, false},
		{math.Inf(-1), 0, false},
		{math.NaN(), 0, true},
	}
	for _, tt := range tests {
		got := Price(tt.in)
		if (got == nil) != tt.wantNil {
			t.Fatalf("Price(%v) = %v, want nil=%v", tt.in, got, tt.wantNil)
		}
		if got != nil && *got != tt.want {
			t.Errorf("Price(%v) = %v, want %v", tt.in, *got, tt.want)
		}
	}
}
