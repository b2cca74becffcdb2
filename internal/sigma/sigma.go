// Package sigma provides surface-density profiles for disk models: a
// smooth Sigma(r) interpolant over a radial grid plus the inverse CDF of
// enclosed mass used for radial particle sampling.
package sigma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/dflemin3/ICgen/internal/units"
)

// Profile is a tabulated surface-density law. Immutable after
// construction.
type Profile struct {
	rBins  units.Vector // au, strictly increasing
	sigma  units.Vector // Msol au**-2, non-negative
	spline interp.NaturalCubic
	inv    interp.FritschButland // mass fraction -> radius
}

// FromTable builds a profile from matching radius and surface-density
// tables. Radii must be strictly increasing and densities non-negative.
func FromTable(r, s units.Vector) (*Profile, error) {
	if r.Len() != s.Len() {
		return nil, fmt.Errorf("sigma: grid length %d does not match density length %d", r.Len(), s.Len())
	}
	if r.Len() < 2 {
		return nil, fmt.Errorf("sigma: need at least 2 radial points, got %d", r.Len())
	}
	rAU, err := r.ConvertTo(units.AU)
	if err != nil {
		return nil, err
	}
	sDisk, err := s.ConvertTo(units.SurfaceDensity)
	if err != nil {
		return nil, err
	}
	for i := 1; i < rAU.Len(); i++ {
		if rAU.Values[i] <= rAU.Values[i-1] {
			return nil, fmt.Errorf("sigma: radial grid not strictly increasing at index %d", i)
		}
	}
	for i, v := range sDisk.Values {
		if v < 0 {
			return nil, fmt.Errorf("sigma: negative surface density at index %d", i)
		}
	}

	p := &Profile{rBins: rAU, sigma: sDisk}
	if err := p.spline.Fit(rAU.Values, sDisk.Values); err != nil {
		return nil, fmt.Errorf("sigma: fitting profile: %w", err)
	}
	if err := p.fitInverseCDF(); err != nil {
		return nil, err
	}
	return p, nil
}

// fitInverseCDF integrates the enclosed mass M(<r) = int 2 pi r' Sigma dr',
// normalizes it to a fraction in [0,1] and fits a monotone spline of r
// against it. Flat stretches (zero density) are dropped so the abscissa
// stays strictly increasing.
func (p *Profile) fitInverseCDF() error {
	r := p.rBins.Values
	s := p.sigma.Values
	n := len(r)

	cum := make([]float64, n)
	for i := 1; i < n; i++ {
		f0 := 2 * math.Pi * r[i-1] * s[i-1]
		f1 := 2 * math.Pi * r[i] * s[i]
		cum[i] = cum[i-1] + 0.5*(f0+f1)*(r[i]-r[i-1])
	}
	total := cum[n-1]
	if total <= 0 {
		return fmt.Errorf("sigma: profile encloses no mass")
	}
	floats.Scale(1/total, cum)
	cum[n-1] = 1

	ms := make([]float64, 0, n)
	rs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && cum[i] <= ms[len(ms)-1] {
			continue
		}
		ms = append(ms, cum[i])
		rs = append(rs, r[i])
	}
	if err := p.inv.Fit(ms, rs); err != nil {
		return fmt.Errorf("sigma: fitting inverse CDF: %w", err)
	}
	return nil
}

// RBins returns the radial grid.
func (p *Profile) RBins() units.Vector { return p.rBins.Clone() }

// RMin returns the innermost grid radius.
func (p *Profile) RMin() units.Scalar { return p.rBins.At(0) }

// RMax returns the outermost grid radius.
func (p *Profile) RMax() units.Scalar { return p.rBins.At(p.rBins.Len() - 1) }

// Sigma evaluates the profile at r. Outside the grid it is zero.
func (p *Profile) Sigma(r units.Scalar) (units.Scalar, error) {
	rr, err := r.In(units.AU)
	if err != nil {
		return units.Scalar{}, err
	}
	if rr < p.rBins.Values[0] || rr > p.rBins.Values[p.rBins.Len()-1] {
		return units.NewScalar(0, units.SurfaceDensity), nil
	}
	v := p.spline.Predict(rr)
	if v < 0 {
		v = 0
	}
	return units.NewScalar(v, units.SurfaceDensity), nil
}

// InvertCDF maps cumulative mass fractions in [0,1] to radii.
func (p *Profile) InvertCDF(ms []float64) (units.Vector, error) {
	out := make([]float64, len(ms))
	for i, m := range ms {
		if m < 0 || m > 1 {
			return units.Vector{}, fmt.Errorf("sigma: cumulative fraction %v at index %d outside [0,1]", m, i)
		}
		out[i] = p.inv.Predict(m)
	}
	return units.NewVector(out, units.AU), nil
}
