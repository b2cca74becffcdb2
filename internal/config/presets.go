package config

import (
	"fmt"
	"math"
	"sort"
)

// Presets are ready-made settings for known systems.
var Presets = map[string]func() *Settings{
	"default": DefaultSettings,
	"kepler38": func() *Settings {
		s := DefaultSettings()
		s.Physical.MeanMolMass = 2.35
		s.Physical.StarMass = 1.198
		s.Physical.T0 = 750
		s.Physical.R0 = 1.0
		s.Physical.TPower = -1.0
		s.Physical.TMin = 150
		s.Physical.TMax = math.Inf(1)
		s.Sigma.Power = -0.5
		s.Sigma.RIn = 0.25
		s.Sigma.RD = 2.0
		s.Sigma.RMax = 2.0
		s.Sigma.CutLength = 0.01
		s.Sigma.MScale = 0.1
		s.RhoCalc.NR = 100
		s.RhoCalc.NZ = 100
		s.PosGen.NParticles = 10000
		return s
	},
}

func GetPreset(name string) (*Settings, error) {
	f, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown preset %q", name)
	}
	return f(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
