package domain

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "2500", want: 2500},
		{in: "1500,5", want: 1500.5},
		{in: "1 500,50", want: 1500.5},
		{in: "1 000", want: 1000},
		{in: " 42.75 ", want: 42.75},
		{in: "n/a", wantErr: true},
		{in: "", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "nan", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "-Infinity", wantErr: true},
		{in: "0x1p4", wantErr: true},
		{in: "1e400", wantErr: true},
		{in: "1e3", want: 1000},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	for _, ok := range []float64{0.01, 1, 999999999} {
		if err := ValidateAmount(ok); err != nil {
			t.Errorf("ValidateAmount(%v) = %v", ok, err)
		}
	}
	for _, bad := range []float64{0, -5, 1e9, 5e9, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := ValidateAmount(bad); err == nil {
			t.Errorf("ValidateAmount(%v) expected error", bad)
		}
	}
}
