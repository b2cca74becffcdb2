package density

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/dflemin3/ICgen/internal/thermo"
	"github.com/dflemin3/ICgen/internal/units"
)

// SurfaceProfile is the surface-density collaborator the builder
// consumes.
type SurfaceProfile interface {
	RMin() units.Scalar
	RMax() units.Scalar
	Sigma(r units.Scalar) (units.Scalar, error)
}

// Physical carries the physical parameters entering the vertical solver.
type Physical struct {
	StarMass    units.Scalar
	MeanMolMass units.Scalar
}

// BuildConfig controls a field build.
type BuildConfig struct {
	NR, NZ  int
	ZMax    units.Scalar
	RhoTol  float64
	MaxIter int

	// Workers bounds the solver pool; 0 means one per CPU.
	Workers int

	// SkipOutOfRange is forwarded to the resulting Field.
	SkipOutOfRange bool

	// Progress, if set, is called after each completed radial solve. It
	// must be safe to call from multiple goroutines.
	Progress func(done, total int)
}

func (cfg BuildConfig) validate() error {
	if cfg.NR < 2 || cfg.NZ < 2 {
		return fmt.Errorf("density: grid must be at least 2x2, got nr=%d nz=%d", cfg.NR, cfg.NZ)
	}
	if cfg.RhoTol <= 1 {
		return fmt.Errorf("density: rho tolerance must exceed 1, got %v", cfg.RhoTol)
	}
	if cfg.MaxIter < 1 {
		return fmt.Errorf("density: iteration budget must be positive, got %d", cfg.MaxIter)
	}
	if cfg.ZMax.Value <= 0 {
		return fmt.Errorf("density: zmax must be positive, got %v", cfg.ZMax.Value)
	}
	return nil
}

// BuildField runs the vertical solver once per radial grid point and
// assembles the rho(z,r) table. The radial grid spans the bounds of the
// surface-density profile; the vertical grid is symmetric about the
// midplane. Solves are independent, so they run on a bounded worker
// pool, each writing its own column; per-radius failures are collected
// and surfaced together in a *BuildError after all siblings finish.
func BuildField(ctx context.Context, cfg BuildConfig, prof SurfaceProfile, law thermo.Law, phys Physical) (*Field, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if prof == nil {
		return nil, fmt.Errorf("density: surface-density profile is required")
	}
	if law == nil {
		return nil, fmt.Errorf("density: temperature law is required")
	}

	rmin, err := prof.RMin().In(units.AU)
	if err != nil {
		return nil, err
	}
	rmax, err := prof.RMax().In(units.AU)
	if err != nil {
		return nil, err
	}
	zmax, err := cfg.ZMax.In(units.AU)
	if err != nil {
		return nil, err
	}

	rGrid := make([]float64, cfg.NR)
	floats.Span(rGrid, rmin, rmax)
	zGrid := make([]float64, cfg.NZ)
	floats.Span(zGrid, -zmax, zmax)
	zVec := units.NewVector(zGrid, units.AU)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > cfg.NR {
		workers = cfg.NR
	}

	columns := make([][]float64, cfg.NR)
	errs := make([]error, cfg.NR)
	indices := make(chan int)
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range indices {
				errs[n] = solveColumn(cfg, prof, law, phys, zVec, rGrid[n], columns, n)
				if cfg.Progress != nil {
					cfg.Progress(int(done.Add(1)), cfg.NR)
				}
			}
		}()
	}

feed:
	for n := 0; n < cfg.NR; n++ {
		select {
		case <-ctx.Done():
			break feed
		case indices <- n:
		}
	}
	close(indices)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return nil, &BuildError{Errs: failures}
	}

	rho := make([][]float64, cfg.NZ)
	for i := range rho {
		rho[i] = make([]float64, cfg.NR)
		for j := 0; j < cfg.NR; j++ {
			rho[i][j] = columns[j][i]
		}
	}

	return NewField(Table{
		Rho:     rho,
		RhoUnit: units.VolumeDensity,
		Z:       zVec,
		R:       units.NewVector(rGrid, units.AU),
	}, cfg.SkipOutOfRange)
}

func solveColumn(cfg BuildConfig, prof SurfaceProfile, law thermo.Law, phys Physical, zGrid units.Vector, r float64, columns [][]float64, n int) error {
	radius := units.NewScalar(r, units.AU)

	sig, err := prof.Sigma(radius)
	if err != nil {
		return fmt.Errorf("density: surface density at r=%v au: %w", r, err)
	}
	temp, err := law.T(radius)
	if err != nil {
		return fmt.Errorf("density: temperature at r=%v au: %w", r, err)
	}

	res, err := SolveVertical(SolveParams{
		R:           radius,
		Sigma:       sig,
		Temp:        temp,
		StarMass:    phys.StarMass,
		MeanMolMass: phys.MeanMolMass,
		ZGrid:       zGrid,
		RhoTol:      cfg.RhoTol,
		MaxIter:     cfg.MaxIter,
	})
	if err != nil {
		return err
	}
	columns[n] = res.Rho.Values
	return nil
}
