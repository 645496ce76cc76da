package reactor

// Compartment is the state of one well-mixed stage. The same record holds
// time derivatives when returned by StageDerivative.
type Compartment struct {
	Water            float64 // A, mol/ml
	Anhydride        float64 // B, mol/ml
	Acid             float64 // C, mol/ml
	Temperature      float64 // liquid, K
	SolidTemperature float64 // packing, K; unused without packing
}

/*
Computes the time derivative of one compartment.

	Args:
	    c: current state of the compartment
	    in: state of the inflow, the feed for the first compartment or the
	        upstream compartment otherwise
	    p: parameter set of the segment

	Returns:
	    d/dt of every field of c; SolidTemperature stays 0 without packing

	Notes:
	    A + B -> 2C. The liquid heats up when Enthalpy < 0 and the rate is
	    positive. With packing the liquid and solid exchange heat through U·A.
*/
func StageDerivative(c, in Compartment, p *Params) Compartment {
	r := p.Kinetics.Rate(c.Water, c.Anhydride, c.Temperature)
	dilution := p.TotalFlow() / p.Volume
	rhoCp := p.Liquid.HeatCapacityPerVolume()

	var d Compartment
	d.Water = dilution*(in.Water-c.Water) - r
	d.Anhydride = dilution*(in.Anhydride-c.Anhydride) - r
	d.Acid = dilution*(in.Acid-c.Acid) + 2*r
	d.Temperature = dilution*(in.Temperature-c.Temperature) - p.Kinetics.Enthalpy/rhoCp*r

	if pk := p.Packing; pk != nil {
		ua := pk.UA()
		d.Temperature += ua / (rhoCp * p.Volume) * (c.SolidTemperature - c.Temperature)
		d.SolidTemperature = ua / (pk.HeatCapacityPerVolume() * p.Volume) * (c.Temperature - c.SolidTemperature)
	}
	return d
}
