package icgen

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dflemin3/ICgen/internal/config"
	"github.com/dflemin3/ICgen/internal/density"
	"github.com/dflemin3/ICgen/internal/snapshot"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	s, err := config.GetPreset("kepler38")
	if err != nil {
		t.Fatal(err)
	}
	s.Sigma.NPoints = 200
	s.RhoCalc.NR = 12
	s.RhoCalc.NZ = 41
	s.RhoCalc.ZMax = 0.5
	s.PosGen.NParticles = 50
	s.PosGen.Seed = 7
	s.Filenames.ICFile = filepath.Join(dir, "IC.yaml")
	s.Filenames.RhoFile = filepath.Join(dir, "rho.json")
	s.Filenames.SnapshotFile = filepath.Join(dir, "snap.csv")
	return s
}

func TestGenerateEndToEnd(t *testing.T) {
	s := testSettings(t)
	ic := New(s)
	ic.Out = nil

	var calls int
	ic.Progress = func(done, total int) { calls++ }

	if err := ic.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != s.RhoCalc.NR {
		t.Errorf("progress calls = %d, want %d", calls, s.RhoCalc.NR)
	}
	if ic.Positions.N() != 50 {
		t.Fatalf("N = %d, want 50", ic.Positions.N())
	}

	// every particle sits inside the disk
	rmin, _ := ic.Profile.RMin().In(ic.Positions.R.Unit)
	rmax, _ := ic.Profile.RMax().In(ic.Positions.R.Unit)
	for i, r := range ic.Positions.R.Values {
		if r < rmin || r > rmax {
			t.Errorf("particle %d at r = %v outside [%v, %v]", i, r, rmin, rmax)
		}
	}

	// particle masses sum to the disk mass
	total := 0.0
	for _, m := range ic.Masses.Values {
		total += m
	}
	want := s.Sigma.MScale * s.Physical.StarMass
	if math.Abs(total-want) > 1e-12*want {
		t.Errorf("total particle mass = %v, want %v", total, want)
	}

	// temperatures respect the floor
	for i, temp := range ic.Temps.Values {
		if temp < s.Physical.TMin-1e-9 {
			t.Errorf("particle %d at T = %v below floor %v", i, temp, s.Physical.TMin)
		}
	}

	// intermediate and final products landed on disk
	if saved, err := config.Load(s.Filenames.ICFile); err != nil {
		t.Errorf("reload settings: %v", err)
	} else if saved.PosGen.NParticles != 50 {
		t.Errorf("saved settings n_particles = %d, want 50", saved.PosGen.NParticles)
	}
	if _, err := density.Load(s.Filenames.RhoFile, false); err != nil {
		t.Errorf("reload density field: %v", err)
	}
	pos, _, _, meta, err := snapshot.Read(s.Filenames.SnapshotFile)
	if err != nil {
		t.Fatalf("reload snapshot: %v", err)
	}
	if pos.N() != 50 {
		t.Errorf("snapshot N = %d, want 50", pos.N())
	}
	if meta.StarMass != s.Physical.StarMass {
		t.Errorf("snapshot star mass = %v, want %v", meta.StarMass, s.Physical.StarMass)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := New(testSettings(t))
	a.Out = nil
	b := New(testSettings(t))
	b.Out = nil
	if err := a.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i := range a.Positions.Z.Values {
		if a.Positions.Z.Values[i] != b.Positions.Z.Values[i] {
			t.Fatalf("z[%d] differs between seeded runs", i)
		}
	}
}

func TestGenerateRejectsInvalidSettings(t *testing.T) {
	s := testSettings(t)
	s.PosGen.Method = "halton"
	ic := New(s)
	ic.Out = nil
	if err := ic.Generate(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildFieldSkipsSaveWithoutPath(t *testing.T) {
	s := testSettings(t)
	rhoFile := s.Filenames.RhoFile
	s.Filenames.RhoFile = ""
	ic := New(s)
	ic.Out = nil
	if err := ic.BuildField(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(rhoFile); !os.IsNotExist(err) {
		t.Errorf("rho file unexpectedly present: %v", err)
	}
}
