package reactor

import "math"

// Arrhenius holds the parameters of the rate constant k(T) = K0·exp(−Ea/(R·T)).
type Arrhenius struct {
	K0 float64 // pre-exponential factor, ml/mol/s
	Ea float64 // activation energy, J/mol
	R  float64 // gas constant, J/mol K
}

// Constant returns k at the absolute temperature, K.
func (a Arrhenius) Constant(temperature float64) float64 {
	return a.K0 * math.Exp(-a.Ea/(a.R*temperature))
}

// Rate returns the bimolecular rate for concentrations cA and cB, mol/ml.
func (a Arrhenius) Rate(cA, cB, temperature float64) float64 {
	return Rate(cA, cB, temperature, a.K0, a.Ea, a.R)
}

/*
Computes the instantaneous reaction rate of A + B -> 2C.

	Args:
	    cA, cB: concentrations, mol/ml
	    temperature: absolute temperature, K, must be positive
	    k0: pre-exponential factor, ml/mol/s
	    ea: activation energy, J/mol
	    r: gas constant, J/mol K

	Returns:
	    rate, mol/ml/s

	Notes:
	    At low temperature the exponential underflows to 0, which is accepted.
*/
func Rate(cA, cB, temperature, k0, ea, r float64) float64 {
	return cA * cB * k0 * math.Exp(-ea/(r*temperature))
}

// Kinetics combines the rate law with the reaction enthalpy.
type Kinetics struct {
	Arrhenius
	Enthalpy float64 // J/mol, negative when exothermic
}
