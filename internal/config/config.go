// Package config holds the persisted settings tree for an
// initial-conditions run: filenames, physical parameters, the density
// calculation grid, and position-generator options.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRhoTol     = 1.001
	DefaultMaxIter    = 40
	DefaultNR         = 1000
	DefaultNZ         = 1000
	DefaultNParticles = 40411
)

type Settings struct {
	Filenames Filenames `yaml:"filenames"`
	Physical  Physical  `yaml:"physical"`
	Sigma     Sigma     `yaml:"sigma"`
	RhoCalc   RhoCalc   `yaml:"rho_calc"`
	PosGen    PosGen    `yaml:"pos_gen"`
	Snapshot  Snapshot  `yaml:"snapshot"`
}

// Filenames are the run outputs. ICFile receives a copy of the
// effective settings for provenance; empty entries disable the write.
type Filenames struct {
	ICFile       string `yaml:"ic_file"`
	RhoFile      string `yaml:"rho_file"`
	SnapshotFile string `yaml:"snapshot_file"`
}

// Physical parameters. Masses are in Msol except the mean molecular
// mass, which is in proton masses; temperatures in K, lengths in au.
type Physical struct {
	MeanMolMass float64 `yaml:"m"`
	StarMass    float64 `yaml:"M"`
	T0          float64 `yaml:"T0"`
	R0          float64 `yaml:"r0"`
	TPower      float64 `yaml:"t_power"`
	TMin        float64 `yaml:"t_min"`
	TMax        float64 `yaml:"t_max"`
	TKind       string  `yaml:"t_kind"` // "powerlaw" or "constant"
}

// Sigma describes the surface-density profile. Lengths in au; MDisk is
// the disk mass as a fraction of the star mass.
type Sigma struct {
	Kind      string  `yaml:"kind"`
	Power     float64 `yaml:"power"`
	RIn       float64 `yaml:"rin"`
	RD        float64 `yaml:"rd"`
	RMax      float64 `yaml:"rmax"`
	CutLength float64 `yaml:"cutlength"`
	MScale    float64 `yaml:"m_scale"`
	NPoints   int     `yaml:"n_points"`
}

// RhoCalc controls the density-field build. ZMax is in au.
type RhoCalc struct {
	NR             int     `yaml:"nr"`
	NZ             int     `yaml:"nz"`
	ZMax           float64 `yaml:"zmax"`
	RhoTol         float64 `yaml:"rho_tol"`
	MaxIter        int     `yaml:"max_iter"`
	Workers        int     `yaml:"workers"`
	SkipOutOfRange bool    `yaml:"skip_out_of_range"`
}

type PosGen struct {
	NParticles int    `yaml:"n_particles"`
	Method     string `yaml:"method"`
	Seed       int64  `yaml:"seed"`
}

type Snapshot struct {
	Metals float64 `yaml:"metals"`
	Eps    float64 `yaml:"eps"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Filenames: Filenames{
			ICFile:       "IC.yaml",
			RhoFile:      "rho.json",
			SnapshotFile: "snapshot.csv",
		},
		Physical: Physical{
			MeanMolMass: 2.00132,
			StarMass:    0.33,
			T0:          332.406,
			R0:          0.5,
			TPower:      -0.59,
			TMin:        0,
			TMax:        math.Inf(1),
			TKind:       "powerlaw",
		},
		Sigma: Sigma{
			Kind:      "powerlaw",
			Power:     -0.5,
			RIn:       0.25,
			RD:        1.0,
			RMax:      1.5,
			CutLength: 0.05,
			MScale:    0.01,
			NPoints:   1000,
		},
		RhoCalc: RhoCalc{
			NR:      DefaultNR,
			NZ:      DefaultNZ,
			ZMax:    1.0,
			RhoTol:  DefaultRhoTol,
			MaxIter: DefaultMaxIter,
		},
		PosGen: PosGen{
			NParticles: DefaultNParticles,
			Method:     "grid",
		},
		Snapshot: Snapshot{
			Metals: 1.0,
			Eps:    0.01,
		},
	}
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Save(path string, s *Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Settings) Validate() error {
	if s.RhoCalc.NR < 2 || s.RhoCalc.NZ < 2 {
		return fmt.Errorf("config: rho_calc grid must be at least 2x2, got nr=%d nz=%d", s.RhoCalc.NR, s.RhoCalc.NZ)
	}
	if s.RhoCalc.ZMax <= 0 {
		return fmt.Errorf("config: rho_calc.zmax must be positive, got %v", s.RhoCalc.ZMax)
	}
	if s.RhoCalc.RhoTol <= 1 {
		return fmt.Errorf("config: rho_calc.rho_tol must exceed 1, got %v", s.RhoCalc.RhoTol)
	}
	if s.RhoCalc.MaxIter < 1 {
		return fmt.Errorf("config: rho_calc.max_iter must be positive, got %d", s.RhoCalc.MaxIter)
	}
	if s.PosGen.NParticles < 1 {
		return fmt.Errorf("config: pos_gen.n_particles must be positive, got %d", s.PosGen.NParticles)
	}
	if m := s.PosGen.Method; m != "grid" && m != "random" {
		return fmt.Errorf("config: pos_gen.method must be \"grid\" or \"random\", got %q", m)
	}
	if s.Physical.StarMass <= 0 {
		return fmt.Errorf("config: physical.M must be positive, got %v", s.Physical.StarMass)
	}
	if s.Physical.MeanMolMass <= 0 {
		return fmt.Errorf("config: physical.m must be positive, got %v", s.Physical.MeanMolMass)
	}
	switch s.Physical.TKind {
	case "powerlaw", "constant":
	default:
		return fmt.Errorf("config: physical.t_kind must be \"powerlaw\" or \"constant\", got %q", s.Physical.TKind)
	}
	if s.Sigma.Kind != "powerlaw" {
		return fmt.Errorf("config: sigma.kind %q is not supported", s.Sigma.Kind)
	}
	if !(0 < s.Sigma.RIn && s.Sigma.RIn < s.Sigma.RD && s.Sigma.RD <= s.Sigma.RMax) {
		return fmt.Errorf("config: sigma needs 0 < rin < rd <= rmax")
	}
	if s.Sigma.MScale <= 0 || s.Sigma.MScale > 1 {
		return fmt.Errorf("config: sigma.m_scale must be in (0, 1], got %v", s.Sigma.MScale)
	}
	return nil
}
