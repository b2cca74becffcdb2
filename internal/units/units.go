package units

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dim is the dimension vector of a unit as integer exponents over the
// base dimensions mass, length, temperature and time.
type Dim struct {
	Mass   int
	Length int
	Temp   int
	Time   int
}

func (d Dim) add(o Dim) Dim {
	return Dim{d.Mass + o.Mass, d.Length + o.Length, d.Temp + o.Temp, d.Time + o.Time}
}

func (d Dim) scale(n int) Dim {
	return Dim{d.Mass * n, d.Length * n, d.Temp * n, d.Time * n}
}

type comp struct {
	Sym string
	Pow int
}

// Unit is a physical unit: a scale factor to cgs times a dimension
// vector, plus the symbolic composition used for printing and parsing.
type Unit struct {
	scale float64
	dim   Dim
	comps []comp
}

func base(sym string, scale float64, dim Dim) Unit {
	return Unit{scale: scale, dim: dim, comps: []comp{{sym, 1}}}
}

// Base units. Scales are relative to cgs (g, cm, K, s).
var (
	Gram       = base("g", 1, Dim{Mass: 1})
	Kilogram   = base("kg", 1e3, Dim{Mass: 1})
	MSol       = base("Msol", 1.98892e33, Dim{Mass: 1})
	ProtonMass = base("m_p", 1.6726219e-24, Dim{Mass: 1})
	Cm         = base("cm", 1, Dim{Length: 1})
	Meter      = base("m", 1e2, Dim{Length: 1})
	AU         = base("au", 1.495978707e13, Dim{Length: 1})
	Kelvin     = base("K", 1, Dim{Temp: 1})
	Second     = base("s", 1, Dim{Time: 1})
	Rad        = base("rad", 1, Dim{})

	Dimensionless = Unit{scale: 1}
)

// Common derived units.
var (
	Erg            = Gram.Mul(Cm.Pow(2)).Div(Second.Pow(2))
	SurfaceDensity = MSol.Div(AU.Pow(2))
	VolumeDensity  = MSol.Div(AU.Pow(3))
)

var registry = map[string]Unit{
	"g": Gram, "kg": Kilogram, "Msol": MSol, "m_p": ProtonMass,
	"cm": Cm, "m": Meter, "au": AU, "K": Kelvin, "s": Second, "rad": Rad,
}

// String renders the unit in symbolic form, e.g. "Msol au**-3".
// The dimensionless unit renders as "1".
func (u Unit) String() string {
	if len(u.comps) == 0 {
		return "1"
	}
	parts := make([]string, 0, len(u.comps))
	for _, c := range u.comps {
		if c.Pow == 1 {
			parts = append(parts, c.Sym)
		} else {
			parts = append(parts, c.Sym+"**"+strconv.Itoa(c.Pow))
		}
	}
	return strings.Join(parts, " ")
}

// Compatible reports whether quantities in u can be converted to v.
func (u Unit) Compatible(v Unit) bool { return u.dim == v.dim }

func merge(a, b []comp) []comp {
	pows := map[string]int{}
	for _, c := range a {
		pows[c.Sym] += c.Pow
	}
	for _, c := range b {
		pows[c.Sym] += c.Pow
	}
	syms := make([]string, 0, len(pows))
	for s, p := range pows {
		if p != 0 {
			syms = append(syms, s)
		}
	}
	sort.Strings(syms)
	out := make([]comp, len(syms))
	for i, s := range syms {
		out[i] = comp{s, pows[s]}
	}
	return out
}

func (u Unit) Mul(v Unit) Unit {
	return Unit{scale: u.scale * v.scale, dim: u.dim.add(v.dim), comps: merge(u.comps, v.comps)}
}

func (u Unit) Div(v Unit) Unit {
	return u.Mul(v.Pow(-1))
}

func (u Unit) Pow(n int) Unit {
	out := Unit{scale: 1, dim: u.dim.scale(n)}
	for i := 0; i < abs(n); i++ {
		out.scale *= u.scale
	}
	if n < 0 {
		out.scale = 1 / out.scale
	}
	comps := make([]comp, len(u.comps))
	for i, c := range u.comps {
		comps[i] = comp{c.Sym, c.Pow * n}
	}
	out.comps = merge(comps, nil)
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MismatchError reports an attempted conversion between incompatible units.
type MismatchError struct {
	From, To Unit
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("units: cannot convert %q to %q", e.From, e.To)
}

// factorTo returns the multiplier taking magnitudes in u to magnitudes in v.
func (u Unit) factorTo(v Unit) (float64, error) {
	if !u.Compatible(v) {
		return 0, &MismatchError{From: u, To: v}
	}
	return u.scale / v.scale, nil
}

// Parse reads a unit in the symbolic form produced by String, e.g.
// "Msol au**-3" or "1". Only base unit symbols appear in parsed forms.
func Parse(s string) (Unit, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "1" {
		return Dimensionless, nil
	}
	out := Dimensionless
	for _, field := range strings.Fields(s) {
		sym, pow := field, 1
		if i := strings.Index(field, "**"); i >= 0 {
			sym = field[:i]
			p, err := strconv.Atoi(field[i+2:])
			if err != nil {
				return Unit{}, fmt.Errorf("units: bad exponent in %q: %w", field, err)
			}
			pow = p
		}
		b, ok := registry[sym]
		if !ok {
			return Unit{}, fmt.Errorf("units: unknown unit symbol %q", sym)
		}
		out = out.Mul(b.Pow(pow))
	}
	return out, nil
}
