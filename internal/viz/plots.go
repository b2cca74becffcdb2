// Package viz renders terminal plots of disk profiles and a live view
// of the density-field build.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/dflemin3/ICgen/internal/density"
	"github.com/dflemin3/ICgen/internal/sigma"
	"github.com/dflemin3/ICgen/internal/thermo"
	"github.com/dflemin3/ICgen/internal/units"
)

const (
	plotWidth  = 70
	plotHeight = 15
)

// SigmaProfile plots the surface density against radius in au.
func SigmaProfile(prof *sigma.Profile) (string, error) {
	rBins, err := prof.RBins().In(units.AU)
	if err != nil {
		return "", err
	}
	vals := make([]float64, 0, len(rBins))
	samples := downsample(rBins, plotWidth)
	for _, r := range samples {
		s, err := prof.Sigma(units.NewScalar(r, units.AU))
		if err != nil {
			return "", err
		}
		v, err := s.In(units.SurfaceDensity)
		if err != nil {
			return "", err
		}
		vals = append(vals, v)
	}
	graph := asciigraph.Plot(vals,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("Sigma [%s] vs r, %.3g - %.3g au",
			units.SurfaceDensity, rBins[0], rBins[len(rBins)-1])))
	return graph + "\n", nil
}

// MidplaneRho plots the midplane density against radius in au.
func MidplaneRho(field *density.Field) (string, error) {
	rBins, err := field.RBins().In(units.AU)
	if err != nil {
		return "", err
	}
	mid := field.MidplaneRho()
	vals, err := mid.In(units.VolumeDensity)
	if err != nil {
		return "", err
	}
	graph := asciigraph.Plot(thin(vals, plotWidth),
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("midplane rho [%s] vs r, %.3g - %.3g au",
			units.VolumeDensity, rBins[0], rBins[len(rBins)-1])))
	return graph + "\n", nil
}

// VerticalColumn plots rho(z) at the given radius.
func VerticalColumn(field *density.Field, r units.Scalar) (string, error) {
	zBins, err := field.ZBins().In(units.AU)
	if err != nil {
		return "", err
	}
	rAU, err := r.In(units.AU)
	if err != nil {
		return "", err
	}
	vals := make([]float64, 0, plotWidth)
	for _, z := range downsample(zBins, plotWidth) {
		rho, err := field.Evaluate(units.NewScalar(z, units.AU), units.NewScalar(rAU, units.AU))
		if err != nil {
			return "", err
		}
		v, err := rho.In(units.VolumeDensity)
		if err != nil {
			return "", err
		}
		vals = append(vals, v)
	}
	graph := asciigraph.Plot(vals,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("rho [%s] vs z at r = %.3g au", units.VolumeDensity, rAU)))
	return graph + "\n", nil
}

// TemperatureProfile plots the temperature law over [rmin, rmax] au.
func TemperatureProfile(law thermo.Law, rmin, rmax units.Scalar) (string, error) {
	lo, err := rmin.In(units.AU)
	if err != nil {
		return "", err
	}
	hi, err := rmax.In(units.AU)
	if err != nil {
		return "", err
	}
	if hi <= lo {
		return "", fmt.Errorf("viz: empty radius range [%v, %v]", lo, hi)
	}
	vals := make([]float64, 0, plotWidth)
	for i := 0; i < plotWidth; i++ {
		r := lo + (hi-lo)*float64(i)/float64(plotWidth-1)
		t, err := law.T(units.NewScalar(r, units.AU))
		if err != nil {
			return "", err
		}
		tk, err := t.In(units.Kelvin)
		if err != nil {
			return "", err
		}
		vals = append(vals, tk)
	}
	graph := asciigraph.Plot(vals,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("T [K] vs r, %.3g - %.3g au", lo, hi)))
	return graph + "\n", nil
}

// ParticleScatter renders a plan view of particle positions as an
// ASCII density map.
func ParticleScatter(x, y units.Vector, cols, rows int) (string, error) {
	xs, err := x.In(units.AU)
	if err != nil {
		return "", err
	}
	ys, err := y.In(units.AU)
	if err != nil {
		return "", err
	}
	if len(xs) == 0 {
		return "", fmt.Errorf("viz: no particles to plot")
	}
	lim := 0.0
	for i := range xs {
		if v := abs(xs[i]); v > lim {
			lim = v
		}
		if v := abs(ys[i]); v > lim {
			lim = v
		}
	}
	if lim == 0 {
		lim = 1
	}

	counts := make([][]int, rows)
	for i := range counts {
		counts[i] = make([]int, cols)
	}
	max := 0
	for i := range xs {
		cx := int((xs[i] + lim) / (2 * lim) * float64(cols-1))
		cy := int((lim - ys[i]) / (2 * lim) * float64(rows-1))
		counts[cy][cx]++
		if counts[cy][cx] > max {
			max = counts[cy][cx]
		}
	}

	shades := []rune(" .:-=+*#%@")
	var b strings.Builder
	for _, row := range counts {
		for _, c := range row {
			idx := 0
			if max > 0 {
				idx = c * (len(shades) - 1) / max
			}
			b.WriteRune(shades[idx])
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "plan view, +/- %.3g au\n", lim)
	return b.String(), nil
}

// downsample picks up to n evenly spaced entries of xs.
func downsample(xs []float64, n int) []float64 {
	if len(xs) <= n {
		out := make([]float64, len(xs))
		copy(out, xs)
		return out
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = xs[i*(len(xs)-1)/(n-1)]
	}
	return out
}

func thin(xs []float64, n int) []float64 { return downsample(xs, n) }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
