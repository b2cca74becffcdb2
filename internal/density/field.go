package density

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/dflemin3/ICgen/internal/units"
)

// Table is the persisted form of a density field: the raw rho(z,r) grid
// and its axes. Everything else a Field carries is rebuilt from it.
type Table struct {
	Rho     [][]float64 // indexed [vertical][radial]
	RhoUnit units.Unit
	Z       units.Vector
	R       units.Vector
}

// Field is a smooth 2-D interpolant over a completed density table,
// with a radial-derivative field and one inverse vertical CDF per radial
// grid point. Immutable after construction.
//
// Interpolation is cubic in z along each radial column with a linear
// blend between bracketing columns in r. Outside the covered
// [zmin,zmax] x [rmin,rmax] domain the density is zero.
type Field struct {
	rBins units.Vector // au, strictly increasing
	zBins units.Vector // au, strictly increasing
	rho   [][]float64  // [nz][nr], Msol au**-3

	zSplines   []interp.NaturalCubic // rho(z), one per radial column
	ddrSplines []interp.NaturalCubic // drho/dr(z), one per radial column
	cdfInv     []*invCDFZ            // one per radial grid point

	skipOutOfRange bool
}

// NewField constructs a Field from a density table. If skipOutOfRange is
// set, InvertCDF silently leaves out-of-domain entries at zero instead
// of failing; that reproduces the historical behavior and is off by
// default.
func NewField(tbl Table, skipOutOfRange bool) (*Field, error) {
	nz, nr := len(tbl.Rho), tbl.R.Len()
	if nz < 2 || nr < 2 {
		return nil, fmt.Errorf("density: table needs at least 2x2 points, got %dx%d", nz, nr)
	}
	if tbl.Z.Len() != nz {
		return nil, fmt.Errorf("density: vertical grid length %d does not match table height %d", tbl.Z.Len(), nz)
	}
	for i, row := range tbl.Rho {
		if len(row) != nr {
			return nil, fmt.Errorf("density: table row %d has %d columns, want %d", i, len(row), nr)
		}
		for j, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("density: negative density at (%d,%d)", i, j)
			}
		}
	}

	z, err := tbl.Z.ConvertTo(units.AU)
	if err != nil {
		return nil, err
	}
	r, err := tbl.R.ConvertTo(units.AU)
	if err != nil {
		return nil, err
	}
	for i := 1; i < nz; i++ {
		if z.Values[i] <= z.Values[i-1] {
			return nil, fmt.Errorf("density: vertical grid not strictly increasing at index %d", i)
		}
	}
	for i := 1; i < nr; i++ {
		if r.Values[i] <= r.Values[i-1] {
			return nil, fmt.Errorf("density: radial grid not strictly increasing at index %d", i)
		}
	}

	rhoVec := make([]float64, 0, nz*nr)
	for _, row := range tbl.Rho {
		rhoVec = append(rhoVec, row...)
	}
	conv, err := units.NewVector(rhoVec, tbl.RhoUnit).ConvertTo(units.VolumeDensity)
	if err != nil {
		return nil, err
	}
	rho := make([][]float64, nz)
	for i := range rho {
		rho[i] = conv.Values[i*nr : (i+1)*nr]
	}

	f := &Field{rBins: r, zBins: z, rho: rho, skipOutOfRange: skipOutOfRange}

	f.zSplines = make([]interp.NaturalCubic, nr)
	col := make([]float64, nz)
	for j := 0; j < nr; j++ {
		for i := 0; i < nz; i++ {
			col[i] = rho[i][j]
		}
		if err := f.zSplines[j].Fit(z.Values, append([]float64(nil), col...)); err != nil {
			return nil, fmt.Errorf("density: fitting column %d: %w", j, err)
		}
	}

	if err := f.fitRadialDerivative(); err != nil {
		return nil, err
	}

	f.cdfInv = make([]*invCDFZ, nr)
	for j := 0; j < nr; j++ {
		for i := 0; i < nz; i++ {
			col[i] = rho[i][j]
		}
		inv, err := newInvCDFZ(z.Values, col)
		if err != nil {
			return nil, fmt.Errorf("density: CDF at radial index %d: %w", j, err)
		}
		f.cdfInv[j] = inv
	}

	return f, nil
}

// fitRadialDerivative precomputes d rho / d r by central finite
// differences across the radial grid (one-sided at the edges) and fits
// the same per-column interpolation used for rho itself.
func (f *Field) fitRadialDerivative() error {
	nz, nr := len(f.rho), f.rBins.Len()
	r := f.rBins.Values

	ddr := make([][]float64, nz)
	for i := 0; i < nz; i++ {
		ddr[i] = make([]float64, nr)
		row := f.rho[i]
		ddr[i][0] = (row[1] - row[0]) / (r[1] - r[0])
		for j := 1; j < nr-1; j++ {
			ddr[i][j] = (row[j+1] - row[j-1]) / (r[j+1] - r[j-1])
		}
		ddr[i][nr-1] = (row[nr-1] - row[nr-2]) / (r[nr-1] - r[nr-2])
	}

	f.ddrSplines = make([]interp.NaturalCubic, nr)
	col := make([]float64, nz)
	for j := 0; j < nr; j++ {
		for i := 0; i < nz; i++ {
			col[i] = ddr[i][j]
		}
		if err := f.ddrSplines[j].Fit(f.zBins.Values, append([]float64(nil), col...)); err != nil {
			return fmt.Errorf("density: fitting derivative column %d: %w", j, err)
		}
	}
	return nil
}

// RBins returns the radial grid.
func (f *Field) RBins() units.Vector { return f.rBins.Clone() }

// ZBins returns the vertical grid.
func (f *Field) ZBins() units.Vector { return f.zBins.Clone() }

// RhoUnit returns the unit the table is stored in.
func (f *Field) RhoUnit() units.Unit { return units.VolumeDensity }

// TableCopy returns a copy of the underlying table.
func (f *Field) TableCopy() Table {
	rho := make([][]float64, len(f.rho))
	for i, row := range f.rho {
		rho[i] = append([]float64(nil), row...)
	}
	return Table{Rho: rho, RhoUnit: units.VolumeDensity, Z: f.zBins.Clone(), R: f.rBins.Clone()}
}

// MidplaneRho returns the density row nearest z=0, for plotting.
func (f *Field) MidplaneRho() units.Vector {
	best := 0
	for i, z := range f.zBins.Values {
		if abs(z) < abs(f.zBins.Values[best]) {
			best = i
		}
	}
	return units.NewVector(append([]float64(nil), f.rho[best]...), units.VolumeDensity)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// bracket returns j such that rBins[j-1] <= r < rBins[j]. The caller
// guarantees rmin <= r < rmax.
func (f *Field) bracket(r float64) int {
	j := sort.SearchFloat64s(f.rBins.Values, r)
	if j < f.rBins.Len() && f.rBins.Values[j] == r {
		j++
	}
	return j
}

func (f *Field) evalColumns(splines []interp.NaturalCubic, z, r float64) float64 {
	bins := f.rBins.Values
	n := len(bins)
	if r == bins[n-1] {
		return splines[n-1].Predict(z)
	}
	j := f.bracket(r)
	lo, hi := bins[j-1], bins[j]
	w := (r - lo) / (hi - lo)
	return (1-w)*splines[j-1].Predict(z) + w*splines[j].Predict(z)
}

// Evaluate returns the interpolated density at (z, r). Outside the
// covered domain the density is zero.
func (f *Field) Evaluate(z, r units.Scalar) (units.Scalar, error) {
	zz, err := z.In(units.AU)
	if err != nil {
		return units.Scalar{}, err
	}
	rr, err := r.In(units.AU)
	if err != nil {
		return units.Scalar{}, err
	}
	if f.outside(zz, rr) {
		return units.NewScalar(0, units.VolumeDensity), nil
	}
	v := f.evalColumns(f.zSplines, zz, rr)
	if v < 0 {
		v = 0
	}
	return units.NewScalar(v, units.VolumeDensity), nil
}

// EvaluateAll evaluates the density over equal-length z and r vectors in
// one batched call. A length-1 vector broadcasts against the other.
func (f *Field) EvaluateAll(z, r units.Vector) (units.Vector, error) {
	zv, rv, err := broadcastPair(z, r)
	if err != nil {
		return units.Vector{}, err
	}
	zz, err := zv.In(units.AU)
	if err != nil {
		return units.Vector{}, err
	}
	rr, err := rv.In(units.AU)
	if err != nil {
		return units.Vector{}, err
	}
	out := make([]float64, len(zz))
	for i := range zz {
		if f.outside(zz[i], rr[i]) {
			continue
		}
		if v := f.evalColumns(f.zSplines, zz[i], rr[i]); v > 0 {
			out[i] = v
		}
	}
	return units.NewVector(out, units.VolumeDensity), nil
}

// RadialDerivative returns d rho / d r at (z, r) from the precomputed
// derivative field. Outside the covered domain it is zero.
func (f *Field) RadialDerivative(z, r units.Scalar) (units.Scalar, error) {
	zz, err := z.In(units.AU)
	if err != nil {
		return units.Scalar{}, err
	}
	rr, err := r.In(units.AU)
	if err != nil {
		return units.Scalar{}, err
	}
	u := units.VolumeDensity.Div(units.AU)
	if f.outside(zz, rr) {
		return units.NewScalar(0, u), nil
	}
	return units.NewScalar(f.evalColumns(f.ddrSplines, zz, rr), u), nil
}

func (f *Field) outside(z, r float64) bool {
	return z < f.zBins.Values[0] || z > f.zBins.Values[f.zBins.Len()-1] ||
		r < f.rBins.Values[0] || r > f.rBins.Values[f.rBins.Len()-1]
}

// InvertCDF maps cumulative vertical probabilities to heights at the
// given radii. ms and rs must have equal length, or either may have
// length 1 to broadcast. Radii are bracketed in the radial grid over the
// half-open interval [rmin, rmax); the two bracketing per-radius inverse
// CDFs are evaluated at m and blended linearly in r.
//
// Radii outside [rmin, rmax) fail with *OutOfDomainError unless the
// field was built with skipOutOfRange, in which case those entries are
// left at zero.
func (f *Field) InvertCDF(ms []float64, rs units.Vector) (units.Vector, error) {
	msv, rsv, err := broadcastPair(units.NewVector(ms, units.Dimensionless), rs)
	if err != nil {
		return units.Vector{}, err
	}
	m := msv.Values
	r, err := rsv.In(units.AU)
	if err != nil {
		return units.Vector{}, err
	}
	for i, mi := range m {
		if mi < 0 || mi > 1 {
			return units.Vector{}, fmt.Errorf("density: cumulative probability %v at index %d outside [0,1]", mi, i)
		}
	}

	bins := f.rBins.Values
	rmin, rmax := bins[0], bins[len(bins)-1]
	out := make([]float64, len(r))
	var outOfRange []int

	for i := range r {
		if r[i] < rmin || r[i] >= rmax {
			outOfRange = append(outOfRange, i)
			continue
		}
		j := f.bracket(r[i])
		zLo := f.cdfInv[j-1].eval(m[i])
		zHi := f.cdfInv[j].eval(m[i])
		w := (r[i] - bins[j-1]) / (bins[j] - bins[j-1])
		out[i] = zLo + (zHi-zLo)*w
	}

	if len(outOfRange) > 0 && !f.skipOutOfRange {
		return units.Vector{}, &OutOfDomainError{
			Indices: outOfRange,
			RMin:    f.rBins.At(0),
			RMax:    f.rBins.At(f.rBins.Len() - 1),
		}
	}
	return units.NewVector(out, units.AU), nil
}

// broadcastPair expands a length-1 vector against the other and checks
// the units stay with their grids.
func broadcastPair(a, b units.Vector) (units.Vector, units.Vector, error) {
	switch {
	case a.Len() == b.Len():
		return a, b, nil
	case a.Len() == 1:
		vals := make([]float64, b.Len())
		for i := range vals {
			vals[i] = a.Values[0]
		}
		return units.NewVector(vals, a.Unit), b, nil
	case b.Len() == 1:
		vals := make([]float64, a.Len())
		for i := range vals {
			vals[i] = b.Values[0]
		}
		return a, units.NewVector(vals, b.Unit), nil
	default:
		return units.Vector{}, units.Vector{}, fmt.Errorf("density: length mismatch %d vs %d", a.Len(), b.Len())
	}
}
