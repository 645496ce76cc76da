package reactor

// 0 °C in K
const zeroCelsius = 273.15

// Gas constant, J/mol K
const gasConstant = 8.314

// Species is a pure liquid feed component.
type Species struct {
	MolarMass float64 // g/mol
	Density   float64 // g/ml
}

// PureConcentration returns the molar concentration of the pure liquid, mol/ml.
func (s Species) PureConcentration() float64 {
	return s.Density / s.MolarMass
}

// 水
func get_water() Species {
	return Species{MolarMass: 18.01528, Density: 0.999842}
}

// 無水酢酸
func get_acetic_anhydride() Species {
	return Species{MolarMass: 102.089, Density: 1.082}
}

// dilute aqueous mixture, g/ml and J/g K
func get_aqueous_liquid() Phase {
	return Phase{Density: 1.0, HeatCapacity: 4.186}
}

// soda-lime glass beads, g/ml and J/g K
func get_glass() Phase {
	return Phase{Density: 2.4, HeatCapacity: 0.84}
}

// Hydrolysis kinetics (Asprey et al., 1996), k0 in ml/mol/s
func get_hydrolysis() Kinetics {
	return Kinetics{
		Arrhenius: Arrhenius{K0: 7e6, Ea: 45622.34, R: gasConstant},
		Enthalpy:  -56.6e3,
	}
}

// ToKelvin converts a temperature in °C to K.
func ToKelvin(celsius float64) float64 {
	return celsius + zeroCelsius
}

// ToCelsius converts an absolute temperature, K, to °C.
func ToCelsius(kelvin float64) float64 {
	return kelvin - zeroCelsius
}
