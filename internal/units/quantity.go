package units

// Scalar is a single magnitude tagged with a physical unit.
type Scalar struct {
	Value float64
	Unit  Unit
}

func NewScalar(v float64, u Unit) Scalar { return Scalar{Value: v, Unit: u} }

// ConvertTo returns the scalar expressed in u. Fails with *MismatchError
// if the dimensions differ.
func (s Scalar) ConvertTo(u Unit) (Scalar, error) {
	f, err := s.Unit.factorTo(u)
	if err != nil {
		return Scalar{}, err
	}
	return Scalar{Value: s.Value * f, Unit: u}, nil
}

// In is ConvertTo returning only the magnitude.
func (s Scalar) In(u Unit) (float64, error) {
	c, err := s.ConvertTo(u)
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// Vector is an ordered sequence of magnitudes sharing one unit.
type Vector struct {
	Values []float64
	Unit   Unit
}

func NewVector(vals []float64, u Unit) Vector { return Vector{Values: vals, Unit: u} }

// Zeros returns an n-length vector of zeros in u.
func Zeros(n int, u Unit) Vector { return Vector{Values: make([]float64, n), Unit: u} }

func (v Vector) Len() int { return len(v.Values) }

func (v Vector) Clone() Vector {
	out := make([]float64, len(v.Values))
	copy(out, v.Values)
	return Vector{Values: out, Unit: v.Unit}
}

// ConvertTo returns a new vector expressed in u.
func (v Vector) ConvertTo(u Unit) (Vector, error) {
	f, err := v.Unit.factorTo(u)
	if err != nil {
		return Vector{}, err
	}
	out := make([]float64, len(v.Values))
	for i, x := range v.Values {
		out[i] = x * f
	}
	return Vector{Values: out, Unit: u}, nil
}

// In converts and returns only the magnitudes.
func (v Vector) In(u Unit) ([]float64, error) {
	c, err := v.ConvertTo(u)
	if err != nil {
		return nil, err
	}
	return c.Values, nil
}

// At returns element i as a scalar.
func (v Vector) At(i int) Scalar { return Scalar{Value: v.Values[i], Unit: v.Unit} }

// Min returns the smallest element as a scalar.
func (v Vector) Min() Scalar {
	m := v.Values[0]
	for _, x := range v.Values[1:] {
		if x < m {
			m = x
		}
	}
	return Scalar{Value: m, Unit: v.Unit}
}

// Max returns the largest element as a scalar.
func (v Vector) Max() Scalar {
	m := v.Values[0]
	for _, x := range v.Values[1:] {
		if x > m {
			m = x
		}
	}
	return Scalar{Value: m, Unit: v.Unit}
}
