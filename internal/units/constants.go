package units

// Physical constants in cgs, CODATA 2018.
var (
	// G is the Newtonian gravitational constant.
	G = Scalar{Value: 6.674e-8, Unit: Cm.Pow(3).Div(Gram).Div(Second.Pow(2))}
	// KB is the Boltzmann constant.
	KB = Scalar{Value: 1.380649e-16, Unit: Erg.Div(Kelvin)}
)
