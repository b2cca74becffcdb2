package density

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/integrate"

	"github.com/dflemin3/ICgen/internal/sigma"
	"github.com/dflemin3/ICgen/internal/thermo"
	"github.com/dflemin3/ICgen/internal/units"
)

func testProfile(t *testing.T) *sigma.Profile {
	t.Helper()
	p, err := sigma.PowerLaw(sigma.PowerLawConfig{
		Power:     -0.5,
		RIn:       units.NewScalar(0.25, units.AU),
		RD:        units.NewScalar(2.0, units.AU),
		RMax:      units.NewScalar(2.5, units.AU),
		CutLength: units.NewScalar(0.1, units.AU),
		MDisk:     units.NewScalar(0.1, units.MSol),
		NPoints:   64,
	})
	if err != nil {
		t.Fatalf("PowerLaw failed: %v", err)
	}
	return p
}

func testLaw() thermo.Law {
	return thermo.PowerLaw{
		T0:   units.NewScalar(750, units.Kelvin),
		R0:   units.NewScalar(1, units.AU),
		Q:    -1,
		TMin: units.NewScalar(150, units.Kelvin),
		TMax: units.NewScalar(math.Inf(1), units.Kelvin),
	}
}

func testPhysical() Physical {
	return Physical{
		StarMass:    units.NewScalar(1.198, units.MSol),
		MeanMolMass: units.NewScalar(2.35, units.ProtonMass),
	}
}

func TestBuildField(t *testing.T) {
	prof := testProfile(t)
	cfg := BuildConfig{
		NR:      24,
		NZ:      65,
		ZMax:    units.NewScalar(0.5, units.AU),
		RhoTol:  1.001,
		MaxIter: 40,
	}

	var mu sync.Mutex
	calls := 0
	cfg.Progress = func(done, total int) {
		mu.Lock()
		calls++
		mu.Unlock()
		if total != cfg.NR {
			t.Errorf("progress total = %d, want %d", total, cfg.NR)
		}
	}

	f, err := BuildField(context.Background(), cfg, prof, testLaw(), testPhysical())
	if err != nil {
		t.Fatalf("BuildField failed: %v", err)
	}
	if calls != cfg.NR {
		t.Errorf("progress reported %d times, want %d", calls, cfg.NR)
	}

	tbl := f.TableCopy()
	if len(tbl.Rho) != cfg.NZ || tbl.R.Len() != cfg.NR {
		t.Fatalf("table shape %dx%d, want %dx%d", len(tbl.Rho), tbl.R.Len(), cfg.NZ, cfg.NR)
	}

	// The radial grid spans the profile bounds.
	if tbl.R.Values[0] != prof.RMin().Value || tbl.R.Values[cfg.NR-1] != prof.RMax().Value {
		t.Errorf("radial grid [%v, %v] does not span profile bounds [%v, %v]",
			tbl.R.Values[0], tbl.R.Values[cfg.NR-1], prof.RMin().Value, prof.RMax().Value)
	}

	// Column integrals reproduce Sigma(r) within the tolerance at
	// every radius.
	col := make([]float64, cfg.NZ)
	for j := 0; j < cfg.NR; j++ {
		for i := 0; i < cfg.NZ; i++ {
			col[i] = tbl.Rho[i][j]
		}
		got := integrate.Trapezoidal(tbl.Z.Values, col)
		want, err := prof.Sigma(tbl.R.At(j))
		if err != nil {
			t.Fatalf("Sigma failed: %v", err)
		}
		if want.Value == 0 {
			if got != 0 {
				t.Errorf("r index %d: empty column integrates to %v", j, got)
			}
			continue
		}
		ratio := want.Value / got
		if math.Max(ratio, 1/ratio) > cfg.RhoTol {
			t.Errorf("r index %d: column integral %v, want %v within tol", j, got, want.Value)
		}
	}
}

func TestBuildFieldSerialMatchesParallel(t *testing.T) {
	prof := testProfile(t)
	cfg := BuildConfig{
		NR:      12,
		NZ:      33,
		ZMax:    units.NewScalar(0.5, units.AU),
		RhoTol:  1.001,
		MaxIter: 40,
	}

	cfg.Workers = 1
	serial, err := BuildField(context.Background(), cfg, prof, testLaw(), testPhysical())
	if err != nil {
		t.Fatalf("serial build failed: %v", err)
	}
	cfg.Workers = 8
	parallel, err := BuildField(context.Background(), cfg, prof, testLaw(), testPhysical())
	if err != nil {
		t.Fatalf("parallel build failed: %v", err)
	}

	a, b := serial.TableCopy(), parallel.TableCopy()
	for i := range a.Rho {
		for j := range a.Rho[i] {
			if a.Rho[i][j] != b.Rho[i][j] {
				t.Fatalf("worker count changed rho[%d][%d]: %v vs %v", i, j, a.Rho[i][j], b.Rho[i][j])
			}
		}
	}
}

// faultyProfile fails its Sigma lookups beyond a cutoff radius, so a
// build hits several independent per-radius failures.
type faultyProfile struct {
	inner *sigma.Profile
	limit float64
}

func (p *faultyProfile) RMin() units.Scalar { return p.inner.RMin() }
func (p *faultyProfile) RMax() units.Scalar { return p.inner.RMax() }

func (p *faultyProfile) Sigma(r units.Scalar) (units.Scalar, error) {
	rr, err := r.In(units.AU)
	if err != nil {
		return units.Scalar{}, err
	}
	if rr > p.limit {
		return units.Scalar{}, fmt.Errorf("no data beyond %v au", p.limit)
	}
	return p.inner.Sigma(r)
}

func TestBuildFieldAggregatesFailures(t *testing.T) {
	prof := &faultyProfile{inner: testProfile(t), limit: 2.0}
	cfg := BuildConfig{
		NR:      16,
		NZ:      17,
		ZMax:    units.NewScalar(0.5, units.AU),
		RhoTol:  1.001,
		MaxIter: 40,
	}

	_, err := BuildField(context.Background(), cfg, prof, testLaw(), testPhysical())
	var build *BuildError
	if !errors.As(err, &build) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if len(build.Errs) < 2 {
		t.Errorf("expected several aggregated failures, got %d", len(build.Errs))
	}
}

func TestBuildFieldContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := BuildConfig{
		NR:      64,
		NZ:      17,
		ZMax:    units.NewScalar(0.5, units.AU),
		RhoTol:  1.001,
		MaxIter: 40,
	}
	_, err := BuildField(ctx, cfg, testProfile(t), testLaw(), testPhysical())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuildFieldConfigValidation(t *testing.T) {
	base := BuildConfig{
		NR:      8,
		NZ:      8,
		ZMax:    units.NewScalar(0.5, units.AU),
		RhoTol:  1.001,
		MaxIter: 10,
	}
	tests := []struct {
		name   string
		mutate func(*BuildConfig)
	}{
		{"nr too small", func(c *BuildConfig) { c.NR = 1 }},
		{"nz too small", func(c *BuildConfig) { c.NZ = 0 }},
		{"tolerance not above 1", func(c *BuildConfig) { c.RhoTol = 0.999 }},
		{"no iterations", func(c *BuildConfig) { c.MaxIter = 0 }},
		{"non-positive zmax", func(c *BuildConfig) { c.ZMax = units.NewScalar(0, units.AU) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if _, err := BuildField(context.Background(), cfg, testProfile(t), testLaw(), testPhysical()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
