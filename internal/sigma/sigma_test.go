package sigma

import (
	"math"
	"testing"

	"github.com/dflemin3/ICgen/internal/units"
)

func testProfile(t *testing.T) *Profile {
	t.Helper()
	p, err := PowerLaw(PowerLawConfig{
		Power:     -0.5,
		RIn:       units.NewScalar(0.25, units.AU),
		RD:        units.NewScalar(2.0, units.AU),
		RMax:      units.NewScalar(2.5, units.AU),
		CutLength: units.NewScalar(0.1, units.AU),
		MDisk:     units.NewScalar(0.1, units.MSol),
		NPoints:   200,
	})
	if err != nil {
		t.Fatalf("PowerLaw failed: %v", err)
	}
	return p
}

func TestPowerLawMassNormalization(t *testing.T) {
	p := testProfile(t)

	r := p.rBins.Values
	s := p.sigma.Values
	total := 0.0
	for i := 1; i < len(r); i++ {
		f0 := 2 * math.Pi * r[i-1] * s[i-1]
		f1 := 2 * math.Pi * r[i] * s[i]
		total += 0.5 * (f0 + f1) * (r[i] - r[i-1])
	}
	if math.Abs(total-0.1) > 1e-9 {
		t.Errorf("enclosed mass = %v Msol, want 0.1", total)
	}
}

func TestInvertCDFBounds(t *testing.T) {
	p := testProfile(t)

	r, err := p.InvertCDF([]float64{0, 1})
	if err != nil {
		t.Fatalf("InvertCDF failed: %v", err)
	}
	if math.Abs(r.Values[0]-p.RMin().Value) > 1e-9 {
		t.Errorf("InvertCDF(0) = %v, want rmin %v", r.Values[0], p.RMin().Value)
	}
	if math.Abs(r.Values[1]-p.RMax().Value) > 1e-9 {
		t.Errorf("InvertCDF(1) = %v, want rmax %v", r.Values[1], p.RMax().Value)
	}
}

func TestInvertCDFMonotone(t *testing.T) {
	p := testProfile(t)

	ms := make([]float64, 101)
	for i := range ms {
		ms[i] = float64(i) / 100
	}
	r, err := p.InvertCDF(ms)
	if err != nil {
		t.Fatalf("InvertCDF failed: %v", err)
	}
	for i := 1; i < len(r.Values); i++ {
		if r.Values[i] < r.Values[i-1] {
			t.Fatalf("inverse CDF not monotone at m=%v: %v < %v", ms[i], r.Values[i], r.Values[i-1])
		}
	}
}

func TestInvertCDFRejectsOutOfRange(t *testing.T) {
	p := testProfile(t)
	if _, err := p.InvertCDF([]float64{1.5}); err == nil {
		t.Error("expected error for m > 1")
	}
	if _, err := p.InvertCDF([]float64{-0.1}); err == nil {
		t.Error("expected error for m < 0")
	}
}

func TestSigmaOutsideGridIsZero(t *testing.T) {
	p := testProfile(t)
	s, err := p.Sigma(units.NewScalar(100, units.AU))
	if err != nil {
		t.Fatalf("Sigma failed: %v", err)
	}
	if s.Value != 0 {
		t.Errorf("Sigma outside grid = %v, want 0", s.Value)
	}
}

func TestSigmaUnitConversion(t *testing.T) {
	p := testProfile(t)
	rAU := units.NewScalar(1.0, units.AU)
	rCm := units.NewScalar(1.495978707e13, units.Cm)

	a, err := p.Sigma(rAU)
	if err != nil {
		t.Fatalf("Sigma failed: %v", err)
	}
	b, err := p.Sigma(rCm)
	if err != nil {
		t.Fatalf("Sigma failed: %v", err)
	}
	if math.Abs(a.Value-b.Value) > 1e-9*a.Value {
		t.Errorf("Sigma(1 au) = %v but Sigma(1 au in cm) = %v", a.Value, b.Value)
	}
}

func TestFromTableValidation(t *testing.T) {
	au := units.AU
	sd := units.SurfaceDensity

	tests := []struct {
		name string
		r    []float64
		s    []float64
	}{
		{"length mismatch", []float64{1, 2}, []float64{1}},
		{"too short", []float64{1}, []float64{1}},
		{"not increasing", []float64{1, 1, 2}, []float64{1, 1, 1}},
		{"negative density", []float64{1, 2, 3}, []float64{1, -1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTable(units.NewVector(tt.r, au), units.NewVector(tt.s, sd))
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}
