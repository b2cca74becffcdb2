// Package icgen drives the full initial-conditions pipeline: surface
// density profile, vertical density field, particle positions and the
// snapshot on disk.
package icgen

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/dflemin3/ICgen/internal/config"
	"github.com/dflemin3/ICgen/internal/density"
	"github.com/dflemin3/ICgen/internal/particles"
	"github.com/dflemin3/ICgen/internal/sigma"
	"github.com/dflemin3/ICgen/internal/snapshot"
	"github.com/dflemin3/ICgen/internal/thermo"
	"github.com/dflemin3/ICgen/internal/units"
)

// IC holds the settings for one run and the products built so far.
// Build the stages in order or call Generate to run them all.
type IC struct {
	Settings *config.Settings

	// Out receives progress lines; nil silences them.
	Out io.Writer

	// Progress, if set, is called after each solved radial column.
	// Must be safe to call from multiple goroutines.
	Progress func(done, total int)

	Profile   *sigma.Profile
	Law       thermo.Law
	Field     *density.Field
	Positions *particles.Positions
	Masses    units.Vector
	Temps     units.Vector
}

func New(s *config.Settings) *IC {
	return &IC{Settings: s, Out: os.Stdout}
}

func (ic *IC) logf(format string, args ...any) {
	if ic.Out != nil {
		fmt.Fprintf(ic.Out, format+"\n", args...)
	}
}

// BuildSigma tabulates the surface density profile from the settings.
func (ic *IC) BuildSigma() error {
	s := ic.Settings
	mdisk := s.Sigma.MScale * s.Physical.StarMass
	prof, err := sigma.PowerLaw(sigma.PowerLawConfig{
		Power:     s.Sigma.Power,
		RIn:       units.NewScalar(s.Sigma.RIn, units.AU),
		RD:        units.NewScalar(s.Sigma.RD, units.AU),
		RMax:      units.NewScalar(s.Sigma.RMax, units.AU),
		CutLength: units.NewScalar(s.Sigma.CutLength, units.AU),
		MDisk:     units.NewScalar(mdisk, units.MSol),
		NPoints:   s.Sigma.NPoints,
	})
	if err != nil {
		return fmt.Errorf("icgen: surface density: %w", err)
	}
	ic.Profile = prof
	ic.Law = makeLaw(s.Physical)
	ic.logf("surface density: %d points, %.3g - %.3g au, Mdisk = %.4g Msol",
		s.Sigma.NPoints, s.Sigma.RIn, s.Sigma.RMax, mdisk)
	return nil
}

// BuildField solves vertical hydrostatic equilibrium on the settings
// grid and writes the field to the configured rho file.
func (ic *IC) BuildField(ctx context.Context) error {
	if ic.Profile == nil {
		if err := ic.BuildSigma(); err != nil {
			return err
		}
	}
	s := ic.Settings
	cfg := density.BuildConfig{
		NR:             s.RhoCalc.NR,
		NZ:             s.RhoCalc.NZ,
		ZMax:           units.NewScalar(s.RhoCalc.ZMax, units.AU),
		RhoTol:         s.RhoCalc.RhoTol,
		MaxIter:        s.RhoCalc.MaxIter,
		Workers:        s.RhoCalc.Workers,
		SkipOutOfRange: s.RhoCalc.SkipOutOfRange,
	}
	cfg.Progress = ic.Progress
	ic.logf("density field: solving %d radial columns (%dx%d grid)...",
		s.RhoCalc.NR, s.RhoCalc.NR, s.RhoCalc.NZ)
	start := time.Now()
	phys := density.Physical{
		StarMass:    units.NewScalar(s.Physical.StarMass, units.MSol),
		MeanMolMass: units.NewScalar(s.Physical.MeanMolMass, units.ProtonMass),
	}
	field, err := density.BuildField(ctx, cfg, ic.Profile, ic.Law, phys)
	if err != nil {
		return fmt.Errorf("icgen: density field: %w", err)
	}
	ic.Field = field
	ic.logf("density field: %d columns in %s", s.RhoCalc.NR, time.Since(start).Round(time.Millisecond))

	if s.Filenames.RhoFile != "" {
		if err := field.Save(s.Filenames.RhoFile); err != nil {
			return fmt.Errorf("icgen: save density field: %w", err)
		}
		ic.logf("density field: wrote %s", s.Filenames.RhoFile)
	}
	return nil
}

// GeneratePositions samples particle positions from the built field
// and profile, then assigns per-particle masses and temperatures.
func (ic *IC) GeneratePositions(ctx context.Context) error {
	if ic.Field == nil {
		if err := ic.BuildField(ctx); err != nil {
			return err
		}
	}
	s := ic.Settings
	seed := s.PosGen.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	pos, err := particles.Generate(particles.Config{
		N:      s.PosGen.NParticles,
		Method: particles.Method(s.PosGen.Method),
	}, ic.Field, ic.Profile, rng)
	if err != nil {
		return fmt.Errorf("icgen: positions: %w", err)
	}
	ic.Positions = pos

	mdisk := s.Sigma.MScale * s.Physical.StarMass
	mPart := mdisk / float64(pos.N())
	masses := units.Zeros(pos.N(), units.MSol)
	temps := units.Zeros(pos.N(), units.Kelvin)
	for i := range masses.Values {
		masses.Values[i] = mPart
		t, err := ic.Law.T(pos.R.At(i))
		if err != nil {
			return fmt.Errorf("icgen: temperature at particle %d: %w", i, err)
		}
		tk, err := t.In(units.Kelvin)
		if err != nil {
			return fmt.Errorf("icgen: temperature at particle %d: %w", i, err)
		}
		temps.Values[i] = tk
	}
	ic.Masses = masses
	ic.Temps = temps
	ic.logf("positions: %d particles (%s), m = %.4g Msol each",
		pos.N(), s.PosGen.Method, mPart)
	return nil
}

// WriteSnapshot stores the particle table at the configured path.
func (ic *IC) WriteSnapshot() error {
	s := ic.Settings
	if ic.Positions == nil {
		return fmt.Errorf("icgen: no positions to write")
	}
	mdisk := s.Sigma.MScale * s.Physical.StarMass
	meta := snapshot.Metadata{
		Timestamp:    time.Now().UTC(),
		Method:       s.PosGen.Method,
		StarMass:     s.Physical.StarMass,
		DiskMass:     mdisk,
		ParticleMass: mdisk / float64(ic.Positions.N()),
		Metals:       s.Snapshot.Metals,
		Eps:          s.Snapshot.Eps,
	}
	if err := snapshot.Write(s.Filenames.SnapshotFile, meta, ic.Positions, ic.Masses, ic.Temps); err != nil {
		return fmt.Errorf("icgen: snapshot: %w", err)
	}
	ic.logf("snapshot: wrote %s", s.Filenames.SnapshotFile)
	return nil
}

// Generate runs the whole pipeline.
func (ic *IC) Generate(ctx context.Context) error {
	s := ic.Settings
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Filenames.ICFile != "" {
		if err := config.Save(s.Filenames.ICFile, s); err != nil {
			return fmt.Errorf("icgen: save settings: %w", err)
		}
		ic.logf("settings: wrote %s", s.Filenames.ICFile)
	}
	if err := ic.BuildSigma(); err != nil {
		return err
	}
	if err := ic.BuildField(ctx); err != nil {
		return err
	}
	if err := ic.GeneratePositions(ctx); err != nil {
		return err
	}
	return ic.WriteSnapshot()
}

func makeLaw(p config.Physical) thermo.Law {
	if p.TKind == "constant" {
		return thermo.Constant{T0: units.NewScalar(p.T0, units.Kelvin)}
	}
	tmax := p.TMax
	if tmax == 0 {
		tmax = math.Inf(1)
	}
	return thermo.PowerLaw{
		T0:   units.NewScalar(p.T0, units.Kelvin),
		R0:   units.NewScalar(p.R0, units.AU),
		Q:    p.TPower,
		TMin: units.NewScalar(p.TMin, units.Kelvin),
		TMax: units.NewScalar(tmax, units.Kelvin),
	}
}
