// Package snapshot writes sampled particle tables to disk as a CSV
// file with a sibling JSON metadata file.
package snapshot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dflemin3/ICgen/internal/particles"
	"github.com/dflemin3/ICgen/internal/units"
)

type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	NParticles   int       `json:"n_particles"`
	Method       string    `json:"method"`
	StarMass     float64   `json:"star_mass_msol"`
	DiskMass     float64   `json:"disk_mass_msol"`
	ParticleMass float64   `json:"particle_mass_msol"`
	Metals       float64   `json:"metals"`
	Eps          float64   `json:"eps"`
	LengthUnit   string    `json:"length_unit"`
	MassUnit     string    `json:"mass_unit"`
	TempUnit     string    `json:"temp_unit"`
}

// Write stores the particle table at path and its metadata beside it.
// Columns are x, y, z, r, theta, m, T with lengths in au, masses in
// Msol, theta in radians and temperatures in K. masses and temps must
// have one entry per particle.
func Write(path string, meta Metadata, pos *particles.Positions, masses, temps units.Vector) error {
	n := pos.N()
	if masses.Len() != n || temps.Len() != n {
		return fmt.Errorf("snapshot: got %d masses and %d temperatures for %d particles",
			masses.Len(), temps.Len(), n)
	}

	x, err := pos.X.In(units.AU)
	if err != nil {
		return fmt.Errorf("snapshot: x: %w", err)
	}
	y, err := pos.Y.In(units.AU)
	if err != nil {
		return fmt.Errorf("snapshot: y: %w", err)
	}
	z, err := pos.Z.In(units.AU)
	if err != nil {
		return fmt.Errorf("snapshot: z: %w", err)
	}
	r, err := pos.R.In(units.AU)
	if err != nil {
		return fmt.Errorf("snapshot: r: %w", err)
	}
	m, err := masses.In(units.MSol)
	if err != nil {
		return fmt.Errorf("snapshot: m: %w", err)
	}
	temp, err := temps.In(units.Kelvin)
	if err != nil {
		return fmt.Errorf("snapshot: T: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"x", "y", "z", "r", "theta", "m", "T"}); err != nil {
		return err
	}
	row := make([]string, 7)
	for i := 0; i < n; i++ {
		row[0] = formatFloat(x[i])
		row[1] = formatFloat(y[i])
		row[2] = formatFloat(z[i])
		row[3] = formatFloat(r[i])
		row[4] = formatFloat(pos.Theta.Values[i])
		row[5] = formatFloat(m[i])
		row[6] = formatFloat(temp[i])
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	meta.NParticles = n
	meta.LengthUnit = units.AU.String()
	meta.MassUnit = units.MSol.String()
	meta.TempUnit = units.Kelvin.String()

	metaFile, err := os.Create(metaPath(path))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// Read loads the particle table and its metadata.
func Read(path string) (*particles.Positions, units.Vector, units.Vector, *Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, units.Vector{}, units.Vector{}, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, units.Vector{}, units.Vector{}, nil, err
	}
	if len(records) < 1 {
		return nil, units.Vector{}, units.Vector{}, nil, fmt.Errorf("snapshot: %s has no header", path)
	}

	n := len(records) - 1
	cols := make([][]float64, 7)
	for i := range cols {
		cols[i] = make([]float64, n)
	}
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) != 7 {
			return nil, units.Vector{}, units.Vector{}, nil,
				fmt.Errorf("snapshot: row %d has %d fields, want 7", i, len(rec))
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, units.Vector{}, units.Vector{}, nil,
					fmt.Errorf("snapshot: row %d field %d: %w", i, j, err)
			}
			cols[j][i-1] = v
		}
	}

	metaData, err := os.ReadFile(metaPath(path))
	if err != nil {
		return nil, units.Vector{}, units.Vector{}, nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, units.Vector{}, units.Vector{}, nil, err
	}

	pos := &particles.Positions{
		X:     units.NewVector(cols[0], units.AU),
		Y:     units.NewVector(cols[1], units.AU),
		Z:     units.NewVector(cols[2], units.AU),
		R:     units.NewVector(cols[3], units.AU),
		Theta: units.NewVector(cols[4], units.Rad),
	}
	if meta.Method == string(particles.MethodRandom) {
		pos.Method = particles.MethodRandom
	} else {
		pos.Method = particles.MethodGrid
	}
	masses := units.NewVector(cols[5], units.MSol)
	temps := units.NewVector(cols[6], units.Kelvin)
	return pos, masses, temps, &meta, nil
}

func metaPath(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndexByte(path, '/') {
		path = path[:i]
	}
	return path + ".meta.json"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}
