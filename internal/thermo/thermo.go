// Package thermo provides radial temperature laws for disk models.
package thermo

import (
	"math"

	"github.com/dflemin3/ICgen/internal/units"
)

// Law maps a cylindrical radius to a gas temperature.
type Law interface {
	T(r units.Scalar) (units.Scalar, error)
}

// PowerLaw is T(r) = T0 * (r/r0)^Q, clamped to [TMin, TMax].
type PowerLaw struct {
	T0   units.Scalar
	R0   units.Scalar
	Q    float64
	TMin units.Scalar
	TMax units.Scalar
}

func (p PowerLaw) T(r units.Scalar) (units.Scalar, error) {
	rr, err := r.In(p.R0.Unit)
	if err != nil {
		return units.Scalar{}, err
	}
	t := p.T0.Value * math.Pow(rr/p.R0.Value, p.Q)
	if p.TMin.Unit.Compatible(p.T0.Unit) {
		if lo, err := p.TMin.In(p.T0.Unit); err == nil && t < lo {
			t = lo
		}
	}
	if p.TMax.Unit.Compatible(p.T0.Unit) {
		if hi, err := p.TMax.In(p.T0.Unit); err == nil && !math.IsInf(hi, 1) && t > hi {
			t = hi
		}
	}
	return units.NewScalar(t, p.T0.Unit), nil
}

// Constant is a radius-independent temperature.
type Constant struct {
	T0 units.Scalar
}

func (c Constant) T(r units.Scalar) (units.Scalar, error) {
	return c.T0, nil
}
