// Package density is the numerical core of the initial-conditions
// pipeline: it solves vertical hydrostatic equilibrium per radius, builds
// the 2-D rho(z,r) table, and wraps it in an interpolant with invertible
// per-radius CDFs used for particle sampling.
package density

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/dflemin3/ICgen/internal/units"
)

// SolveParams are the inputs for one vertical hydrostatic solve.
type SolveParams struct {
	R           units.Scalar // cylindrical radius
	Sigma       units.Scalar // target column density at R
	Temp        units.Scalar // gas temperature at R
	StarMass    units.Scalar
	MeanMolMass units.Scalar
	ZGrid       units.Vector // strictly increasing heights shared across radii
	RhoTol      float64      // relative tolerance on the column integral, > 1
	MaxIter     int
}

// SolveResult is a density column aligned to the input vertical grid.
type SolveResult struct {
	Rho units.Vector // Msol au**-3
	Z   units.Vector // au

	Ratio float64 // final Sigma / integral ratio
	Iters int
}

var gPerCm3 = units.Gram.Div(units.Cm.Pow(3))

// SolveVertical computes rho(z) at a fixed radius under isothermal
// vertical hydrostatic balance against the thin-disk gravity of the
// central mass, g_z = G M z / r^3. The gaussian shape is set by the
// scale height h^2 = kB T r^3 / (G M mu); the central density is
// adjusted iteratively until the column integral matches Sigma within
// RhoTol, or a ConvergenceError is returned.
func SolveVertical(p SolveParams) (SolveResult, error) {
	if p.RhoTol <= 1 {
		return SolveResult{}, fmt.Errorf("density: rho tolerance must exceed 1, got %v", p.RhoTol)
	}
	if p.MaxIter < 1 {
		return SolveResult{}, fmt.Errorf("density: iteration budget must be positive, got %d", p.MaxIter)
	}
	if p.ZGrid.Len() < 2 {
		return SolveResult{}, fmt.Errorf("density: vertical grid needs at least 2 points, got %d", p.ZGrid.Len())
	}

	rCm, err := p.R.In(units.Cm)
	if err != nil {
		return SolveResult{}, err
	}
	tK, err := p.Temp.In(units.Kelvin)
	if err != nil {
		return SolveResult{}, err
	}
	mG, err := p.StarMass.In(units.Gram)
	if err != nil {
		return SolveResult{}, err
	}
	muG, err := p.MeanMolMass.In(units.Gram)
	if err != nil {
		return SolveResult{}, err
	}
	zCm, err := p.ZGrid.In(units.Cm)
	if err != nil {
		return SolveResult{}, err
	}
	sigmaCgs, err := p.Sigma.In(units.Gram.Div(units.Cm.Pow(2)))
	if err != nil {
		return SolveResult{}, err
	}
	for i := 1; i < len(zCm); i++ {
		if zCm[i] <= zCm[i-1] {
			return SolveResult{}, fmt.Errorf("density: vertical grid not strictly increasing at index %d", i)
		}
	}
	if rCm <= 0 || tK <= 0 || mG <= 0 || muG <= 0 {
		return SolveResult{}, fmt.Errorf("density: radius, temperature and masses must be positive")
	}

	zAU, err := p.ZGrid.ConvertTo(units.AU)
	if err != nil {
		return SolveResult{}, err
	}

	// Zero column density means an empty column; nothing to normalize.
	if sigmaCgs <= 0 {
		return SolveResult{
			Rho:   units.Zeros(len(zCm), units.VolumeDensity),
			Z:     zAU,
			Ratio: 1,
		}, nil
	}

	h2 := units.KB.Value * tK * rCm * rCm * rCm / (units.G.Value * mG * muG)

	shape := make([]float64, len(zCm))
	for i, z := range zCm {
		shape[i] = math.Exp(-z * z / (2 * h2))
	}

	col := make([]float64, len(zCm))
	rho0 := sigmaCgs / integrate.Trapezoidal(zCm, shape)

	var ratio float64
	for iter := 1; iter <= p.MaxIter; iter++ {
		for i, s := range shape {
			col[i] = rho0 * s
		}
		ratio = sigmaCgs / integrate.Trapezoidal(zCm, col)
		if math.Max(ratio, 1/ratio) <= p.RhoTol {
			rhoAU, err := units.NewVector(col, gPerCm3).ConvertTo(units.VolumeDensity)
			if err != nil {
				return SolveResult{}, err
			}
			return SolveResult{Rho: rhoAU, Z: zAU, Ratio: ratio, Iters: iter}, nil
		}
		rho0 *= ratio
	}
	return SolveResult{}, &ConvergenceError{Radius: p.R, Ratio: ratio, Iters: p.MaxIter}
}

// InvertCDF derives the inverse cumulative vertical distribution of the
// solved column: a monotone map from cumulative probability in [0,1] to
// height.
func (res SolveResult) InvertCDF() (func(m float64) (units.Scalar, error), error) {
	inv, err := newInvCDFZ(res.Z.Values, res.Rho.Values)
	if err != nil {
		return nil, err
	}
	return func(m float64) (units.Scalar, error) {
		if m < 0 || m > 1 {
			return units.Scalar{}, fmt.Errorf("density: cumulative probability %v outside [0,1]", m)
		}
		return units.NewScalar(inv.eval(m), res.Z.Unit), nil
	}, nil
}
