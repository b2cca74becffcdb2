package density

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dflemin3/ICgen/internal/units"
)

// The persisted form holds only the raw table and its axes, all
// unit-tagged; interpolants, derivatives and CDFs are rebuilt on load.
type blob1D struct {
	Values []float64 `json:"values"`
	Unit   string    `json:"unit"`
}

type blob2D struct {
	Values [][]float64 `json:"values"`
	Unit   string      `json:"unit"`
}

type fieldBlob struct {
	Rho blob2D `json:"rho"`
	Z   blob1D `json:"z"`
	R   blob1D `json:"r"`
}

// Save writes the density table to path as JSON.
func (f *Field) Save(path string) error {
	blob := fieldBlob{
		Rho: blob2D{Values: f.rho, Unit: units.VolumeDensity.String()},
		Z:   blob1D{Values: f.zBins.Values, Unit: f.zBins.Unit.String()},
		R:   blob1D{Values: f.rBins.Values, Unit: f.rBins.Unit.String()},
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("density: saving table: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(blob); err != nil {
		return fmt.Errorf("density: encoding table: %w", err)
	}
	return nil
}

// Load reads a table saved by Save and reconstructs the full Field.
func Load(path string, skipOutOfRange bool) (*Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("density: loading table: %w", err)
	}
	var blob fieldBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("density: decoding table: %w", err)
	}

	rhoUnit, err := units.Parse(blob.Rho.Unit)
	if err != nil {
		return nil, err
	}
	zUnit, err := units.Parse(blob.Z.Unit)
	if err != nil {
		return nil, err
	}
	rUnit, err := units.Parse(blob.R.Unit)
	if err != nil {
		return nil, err
	}

	return NewField(Table{
		Rho:     blob.Rho.Values,
		RhoUnit: rhoUnit,
		Z:       units.NewVector(blob.Z.Values, zUnit),
		R:       units.NewVector(blob.R.Values, rUnit),
	}, skipOutOfRange)
}
