package density

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// invCDFZ maps cumulative vertical probability m in [0,1] to a height at
// one fixed radius. Monotone non-decreasing; m=0 maps to the bottom of
// the vertical grid and m=1 to the top.
type invCDFZ struct {
	fb         interp.FritschButland
	zmin, zmax float64

	// Columns with no mass get a degenerate uniform map so the boundary
	// invariant still holds for every radius in the domain.
	uniform bool
}

func newInvCDFZ(z, rho []float64) (*invCDFZ, error) {
	n := len(z)
	if n < 2 || len(rho) != n {
		return nil, fmt.Errorf("density: CDF needs matching grids of at least 2 points, got %d and %d", n, len(rho))
	}

	inv := &invCDFZ{zmin: z[0], zmax: z[n-1]}

	cum := make([]float64, n)
	for i := 1; i < n; i++ {
		cum[i] = cum[i-1] + 0.5*(rho[i-1]+rho[i])*(z[i]-z[i-1])
	}
	total := cum[n-1]
	if total <= 0 {
		inv.uniform = true
		return inv, nil
	}
	for i := range cum {
		cum[i] /= total
	}

	// Pin both endpoints so m=0 and m=1 hit the grid bounds exactly, and
	// drop interior flats so the abscissa is strictly increasing.
	ms := []float64{0}
	zs := []float64{z[0]}
	for i := 1; i < n-1; i++ {
		if cum[i] > ms[len(ms)-1] && cum[i] < 1 {
			ms = append(ms, cum[i])
			zs = append(zs, z[i])
		}
	}
	ms = append(ms, 1)
	zs = append(zs, z[n-1])

	if err := inv.fb.Fit(ms, zs); err != nil {
		return nil, fmt.Errorf("density: fitting inverse CDF: %w", err)
	}
	return inv, nil
}

func (c *invCDFZ) eval(m float64) float64 {
	if c.uniform {
		return c.zmin + (c.zmax-c.zmin)*m
	}
	return c.fb.Predict(m)
}
