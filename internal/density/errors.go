package density

import (
	"fmt"
	"strings"

	"github.com/dflemin3/ICgen/internal/units"
)

// ConvergenceError reports that the vertical solver could not normalize
// the density column to the target surface density at one radius.
type ConvergenceError struct {
	Radius units.Scalar
	Ratio  float64 // final Sigma / integral ratio
	Iters  int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("density: no convergence at r=%v %v after %d iterations (ratio %v)",
		e.Radius.Value, e.Radius.Unit, e.Iters, e.Ratio)
}

// BuildError aggregates per-radius failures from a field build. Sibling
// radii keep computing; the failures surface together afterward.
type BuildError struct {
	Errs []error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "density: %d of the radial solves failed", len(e.Errs))
	for i, err := range e.Errs {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Errs)-i)
			break
		}
		fmt.Fprintf(&b, "; %v", err)
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error { return e.Errs }

// OutOfDomainError reports inverse-CDF queries at radii outside the
// half-open [rmin, rmax) range covered by the density table.
type OutOfDomainError struct {
	Indices []int
	RMin    units.Scalar
	RMax    units.Scalar
}

func (e *OutOfDomainError) Error() string {
	return fmt.Sprintf("density: %d radii outside [%v, %v) %v (first offending index %d)",
		len(e.Indices), e.RMin.Value, e.RMax.Value, e.RMin.Unit, e.Indices[0])
}
