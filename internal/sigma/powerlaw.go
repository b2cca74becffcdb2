package sigma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dflemin3/ICgen/internal/units"
)

// PowerLawConfig describes a power-law disk with smooth cutoffs at the
// inner edge and beyond the disk radius.
type PowerLawConfig struct {
	Power     float64      // Sigma ~ r^Power between RIn and RD
	RIn       units.Scalar // inner disk edge
	RD        units.Scalar // outer edge of the power-law region
	RMax      units.Scalar // outermost grid radius
	CutLength units.Scalar // scale of the Gaussian tapers
	MDisk     units.Scalar // total disk mass the profile is normalized to
	NPoints   int
}

// PowerLaw tabulates Sigma(r) = A r^p with a Gaussian rise above RIn and a
// Gaussian taper beyond RD, with A set so the enclosed mass equals MDisk.
func PowerLaw(cfg PowerLawConfig) (*Profile, error) {
	if cfg.NPoints < 2 {
		return nil, fmt.Errorf("sigma: power law needs at least 2 points, got %d", cfg.NPoints)
	}
	rin, err := cfg.RIn.In(units.AU)
	if err != nil {
		return nil, err
	}
	rd, err := cfg.RD.In(units.AU)
	if err != nil {
		return nil, err
	}
	rmax, err := cfg.RMax.In(units.AU)
	if err != nil {
		return nil, err
	}
	cut, err := cfg.CutLength.In(units.AU)
	if err != nil {
		return nil, err
	}
	mdisk, err := cfg.MDisk.In(units.MSol)
	if err != nil {
		return nil, err
	}
	if !(0 < rin && rin < rd && rd <= rmax) {
		return nil, fmt.Errorf("sigma: need 0 < rin < rd <= rmax, got rin=%v rd=%v rmax=%v au", rin, rd, rmax)
	}
	if cut <= 0 {
		return nil, fmt.Errorf("sigma: cut length must be positive, got %v au", cut)
	}
	if mdisk <= 0 {
		return nil, fmt.Errorf("sigma: disk mass must be positive, got %v Msol", mdisk)
	}

	r := make([]float64, cfg.NPoints)
	floats.Span(r, rin, rmax)

	s := make([]float64, cfg.NPoints)
	for i, ri := range r {
		v := math.Pow(ri, cfg.Power)
		// Smooth rise from zero at the inner edge.
		v *= 1 - math.Exp(-((ri-rin)*(ri-rin))/(2*cut*cut))
		// Taper beyond the disk radius.
		if ri > rd {
			v *= math.Exp(-((ri - rd) * (ri - rd)) / (2 * cut * cut))
		}
		s[i] = v
	}

	// Normalize the enclosed mass to MDisk.
	total := 0.0
	for i := 1; i < len(r); i++ {
		f0 := 2 * math.Pi * r[i-1] * s[i-1]
		f1 := 2 * math.Pi * r[i] * s[i]
		total += 0.5 * (f0 + f1) * (r[i] - r[i-1])
	}
	if total <= 0 {
		return nil, fmt.Errorf("sigma: power-law profile encloses no mass")
	}
	floats.Scale(mdisk/total, s)

	return FromTable(units.NewVector(r, units.AU), units.NewVector(s, units.SurfaceDensity))
}
