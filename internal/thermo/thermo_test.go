package thermo

import (
	"math"
	"testing"

	"github.com/dflemin3/ICgen/internal/units"
)

func TestPowerLaw(t *testing.T) {
	law := PowerLaw{
		T0:   units.NewScalar(750, units.Kelvin),
		R0:   units.NewScalar(1, units.AU),
		Q:    -1,
		TMin: units.NewScalar(150, units.Kelvin),
		TMax: units.NewScalar(math.Inf(1), units.Kelvin),
	}

	tests := []struct {
		name string
		r    float64
		want float64
	}{
		{"at r0", 1.0, 750},
		{"double r0", 2.0, 375},
		{"clamped to Tmin", 100.0, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			temp, err := law.T(units.NewScalar(tt.r, units.AU))
			if err != nil {
				t.Fatalf("T failed: %v", err)
			}
			if math.Abs(temp.Value-tt.want) > 1e-9 {
				t.Errorf("T(%v au) = %v, want %v", tt.r, temp.Value, tt.want)
			}
		})
	}
}

func TestPowerLawUnitConversion(t *testing.T) {
	law := PowerLaw{
		T0: units.NewScalar(100, units.Kelvin),
		R0: units.NewScalar(1, units.AU),
		Q:  -0.5,
	}

	// 1 au expressed in cm must give the same temperature.
	rCm := units.NewScalar(1.495978707e13, units.Cm)
	temp, err := law.T(rCm)
	if err != nil {
		t.Fatalf("T failed: %v", err)
	}
	if math.Abs(temp.Value-100) > 1e-6 {
		t.Errorf("T(1 au in cm) = %v, want 100", temp.Value)
	}
}

func TestPowerLawMismatch(t *testing.T) {
	law := PowerLaw{
		T0: units.NewScalar(100, units.Kelvin),
		R0: units.NewScalar(1, units.AU),
	}
	if _, err := law.T(units.NewScalar(1, units.Kelvin)); err == nil {
		t.Error("expected unit mismatch error")
	}
}

func TestConstant(t *testing.T) {
	law := Constant{T0: units.NewScalar(42, units.Kelvin)}
	temp, err := law.T(units.NewScalar(3, units.AU))
	if err != nil {
		t.Fatalf("T failed: %v", err)
	}
	if temp.Value != 42 {
		t.Errorf("constant law returned %v", temp.Value)
	}
}
