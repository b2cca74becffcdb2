package density

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/dflemin3/ICgen/internal/units"
)

func testSolveParams() SolveParams {
	z := make([]float64, 201)
	floats.Span(z, -0.5, 0.5)
	return SolveParams{
		R:           units.NewScalar(1.0, units.AU),
		Sigma:       units.NewScalar(1e-4, units.SurfaceDensity),
		Temp:        units.NewScalar(100, units.Kelvin),
		StarMass:    units.NewScalar(1.0, units.MSol),
		MeanMolMass: units.NewScalar(2.0, units.ProtonMass),
		ZGrid:       units.NewVector(z, units.AU),
		RhoTol:      1.001,
		MaxIter:     40,
	}
}

func TestSolveVerticalColumnDensity(t *testing.T) {
	p := testSolveParams()
	res, err := SolveVertical(p)
	if err != nil {
		t.Fatalf("SolveVertical failed: %v", err)
	}

	if res.Rho.Len() != p.ZGrid.Len() {
		t.Fatalf("column length %d does not match grid %d", res.Rho.Len(), p.ZGrid.Len())
	}

	// The vertical integral must reproduce Sigma within the tolerance.
	got := integrate.Trapezoidal(res.Z.Values, res.Rho.Values)
	want := 1e-4
	ratio := want / got
	if math.Max(ratio, 1/ratio) > p.RhoTol {
		t.Errorf("column integral %v Msol/au^2, want %v within tol %v", got, want, p.RhoTol)
	}

	// Symmetric profile, maximal at the midplane.
	n := res.Rho.Len()
	if res.Rho.Values[0] > res.Rho.Values[n/2] {
		t.Error("density not peaked at the midplane")
	}
	if math.Abs(res.Rho.Values[0]-res.Rho.Values[n-1]) > 1e-12*res.Rho.Values[n/2] {
		t.Error("density not symmetric about the midplane")
	}
}

func TestSolveVerticalZeroSigma(t *testing.T) {
	p := testSolveParams()
	p.Sigma = units.NewScalar(0, units.SurfaceDensity)
	res, err := SolveVertical(p)
	if err != nil {
		t.Fatalf("SolveVertical failed: %v", err)
	}
	for i, v := range res.Rho.Values {
		if v != 0 {
			t.Fatalf("expected empty column, got %v at index %d", v, i)
		}
	}
}

func TestSolveVerticalInvertCDF(t *testing.T) {
	res, err := SolveVertical(testSolveParams())
	if err != nil {
		t.Fatalf("SolveVertical failed: %v", err)
	}
	inv, err := res.InvertCDF()
	if err != nil {
		t.Fatalf("InvertCDF failed: %v", err)
	}

	lo, err := inv(0)
	if err != nil {
		t.Fatalf("inv(0) failed: %v", err)
	}
	if math.Abs(lo.Value+0.5) > 1e-12 {
		t.Errorf("inv(0) = %v, want -0.5", lo.Value)
	}
	hi, err := inv(1)
	if err != nil {
		t.Fatalf("inv(1) failed: %v", err)
	}
	if math.Abs(hi.Value-0.5) > 1e-12 {
		t.Errorf("inv(1) = %v, want 0.5", hi.Value)
	}
	mid, err := inv(0.5)
	if err != nil {
		t.Fatalf("inv(0.5) failed: %v", err)
	}
	if math.Abs(mid.Value) > 1e-6 {
		t.Errorf("inv(0.5) = %v, want ~0 for a symmetric column", mid.Value)
	}

	if _, err := inv(1.5); err == nil {
		t.Error("expected error for m outside [0,1]")
	}

	// Monotone non-decreasing in m.
	prev := math.Inf(-1)
	for m := 0.0; m <= 1.0; m += 0.05 {
		z, err := inv(m)
		if err != nil {
			t.Fatalf("inv(%v) failed: %v", m, err)
		}
		if z.Value < prev {
			t.Fatalf("inverse CDF decreased at m=%v", m)
		}
		prev = z.Value
	}
}

func TestSolveVerticalValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SolveParams)
	}{
		{"tolerance not above 1", func(p *SolveParams) { p.RhoTol = 1.0 }},
		{"no iteration budget", func(p *SolveParams) { p.MaxIter = 0 }},
		{"short grid", func(p *SolveParams) { p.ZGrid = units.NewVector([]float64{0}, units.AU) }},
		{"negative star mass", func(p *SolveParams) { p.StarMass = units.NewScalar(-1, units.MSol) }},
		{"wrong sigma unit", func(p *SolveParams) { p.Sigma = units.NewScalar(1, units.Kelvin) }},
		{"grid not increasing", func(p *SolveParams) {
			p.ZGrid = units.NewVector([]float64{-1, 0, 0}, units.AU)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testSolveParams()
			tt.mutate(&p)
			if _, err := SolveVertical(p); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSolveVerticalAcceptsCgsInputs(t *testing.T) {
	p := testSolveParams()
	res1, err := SolveVertical(p)
	if err != nil {
		t.Fatalf("SolveVertical failed: %v", err)
	}

	var errConv error
	p.R, errConv = p.R.ConvertTo(units.Cm)
	if errConv != nil {
		t.Fatal(errConv)
	}
	p.StarMass, errConv = p.StarMass.ConvertTo(units.Gram)
	if errConv != nil {
		t.Fatal(errConv)
	}
	res2, err := SolveVertical(p)
	if err != nil {
		t.Fatalf("SolveVertical with cgs inputs failed: %v", err)
	}

	for i := range res1.Rho.Values {
		a, b := res1.Rho.Values[i], res2.Rho.Values[i]
		if math.Abs(a-b) > 1e-9*math.Max(a, 1e-300) {
			t.Fatalf("unit-converted solve diverged at index %d: %v vs %v", i, a, b)
		}
	}
}
