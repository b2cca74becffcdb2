// Package particles draws particle positions from a surface-density
// profile and a vertical density field: radii through the profile's
// inverse CDF, heights through the field's per-radius inverse vertical
// CDF, and azimuths either at random or along a deterministic
// area-equalizing spiral.
package particles

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/dflemin3/ICgen/internal/units"
)

// Method selects how radii and azimuths are drawn.
type Method string

const (
	// MethodGrid places particles at evenly spaced cumulative
	// probabilities with a deterministic spiral in azimuth.
	MethodGrid Method = "grid"
	// MethodRandom draws radii and azimuths uniformly at random.
	MethodRandom Method = "random"
)

// RadialInverter is the surface-density collaborator: it maps cumulative
// mass fractions to radii.
type RadialInverter interface {
	InvertCDF(ms []float64) (units.Vector, error)
}

// VerticalInverter is the density-field collaborator: it maps cumulative
// vertical probabilities to heights at given radii.
type VerticalInverter interface {
	InvertCDF(ms []float64, rs units.Vector) (units.Vector, error)
}

// Config controls one generation run.
type Config struct {
	N      int
	Method Method
}

// Positions is a generated particle set in cylindrical and Cartesian
// coordinates. Not mutated after generation.
type Positions struct {
	Method Method
	R      units.Vector
	Z      units.Vector
	Theta  units.Vector // rad
	X      units.Vector
	Y      units.Vector
}

// N returns the particle count.
func (p *Positions) N() int { return p.R.Len() }

// Generate draws cfg.N particle positions. The field and profile must
// both be present; their absence is a usage error reported before any
// sampling starts.
func Generate(cfg Config, field VerticalInverter, prof RadialInverter, rng *rand.Rand) (*Positions, error) {
	if field == nil {
		return nil, fmt.Errorf("particles: density field has not been calculated yet")
	}
	if prof == nil {
		return nil, fmt.Errorf("particles: surface-density profile has not been set")
	}
	if cfg.N < 1 {
		return nil, fmt.Errorf("particles: particle count must be positive, got %d", cfg.N)
	}
	if cfg.Method != MethodGrid && cfg.Method != MethodRandom {
		return nil, fmt.Errorf("particles: unknown sampling method %q", cfg.Method)
	}
	if rng == nil {
		return nil, fmt.Errorf("particles: random source is required")
	}

	pos := &Positions{Method: cfg.Method}
	if err := pos.generateR(cfg, prof, rng); err != nil {
		return nil, err
	}
	if err := pos.generateZ(cfg, field, rng); err != nil {
		return nil, err
	}
	pos.generateTheta(cfg, rng)
	pos.cartesian()
	return pos, nil
}

// generateR draws radial positions. Grid mode spaces N+2 cumulative
// values evenly over [0,1] and drops both endpoints so no particle
// lands exactly on the disk edges; the result is strictly increasing.
func (p *Positions) generateR(cfg Config, prof RadialInverter, rng *rand.Rand) error {
	ms := make([]float64, cfg.N)
	switch cfg.Method {
	case MethodGrid:
		edge := make([]float64, cfg.N+2)
		floats.Span(edge, 0, 1)
		copy(ms, edge[1:cfg.N+1])
	case MethodRandom:
		for i := range ms {
			ms[i] = rng.Float64()
		}
	}
	r, err := prof.InvertCDF(ms)
	if err != nil {
		return fmt.Errorf("particles: sampling radii: %w", err)
	}
	p.R = r
	return nil
}

// generateZ draws a height for each particle by inverting the vertical
// CDF at its radius, then flips a fair coin for the side of the
// midplane.
func (p *Positions) generateZ(cfg Config, field VerticalInverter, rng *rand.Rand) error {
	ms := make([]float64, cfg.N)
	for i := range ms {
		ms[i] = rng.Float64()
	}
	z, err := field.InvertCDF(ms, p.R)
	if err != nil {
		return fmt.Errorf("particles: sampling heights: %w", err)
	}
	for i := range z.Values {
		if rng.Intn(2) == 0 {
			z.Values[i] = -z.Values[i]
		}
	}
	p.Z = z
	return nil
}

// generateTheta assigns azimuths. Grid mode walks a spiral whose step
// between consecutive radii is dtheta = sqrt(2 pi (1 - r_i/r_{i+1})),
// accumulated by subtraction so the outgoing spiral winds clockwise
// against the counter-clockwise orbital motion and consecutive turns do
// not kink. Requires the radii to be sorted ascending, which grid-mode
// radial sampling guarantees.
func (p *Positions) generateTheta(cfg Config, rng *rand.Rand) {
	theta := make([]float64, cfg.N)
	switch cfg.Method {
	case MethodGrid:
		r := p.R.Values
		for i := 0; i < cfg.N-1; i++ {
			dtheta := math.Sqrt(2 * math.Pi * (1 - r[i]/r[i+1]))
			theta[i+1] = theta[i] - dtheta
		}
	case MethodRandom:
		for i := range theta {
			theta[i] = 2 * math.Pi * rng.Float64()
		}
	}
	p.Theta = units.NewVector(theta, units.Rad)
}

func (p *Positions) cartesian() {
	n := p.R.Len()
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = p.R.Values[i] * math.Cos(p.Theta.Values[i])
		y[i] = p.R.Values[i] * math.Sin(p.Theta.Values[i])
	}
	p.X = units.NewVector(x, p.R.Unit)
	p.Y = units.NewVector(y, p.R.Unit)
}
