package reactor

import (
	"fmt"
	"strings"

	"reactor_sim/ode"
)

// ErrInvalidArgument is returned for parameter sets or model inputs that
// would make the network meaningless. It wraps ode.ErrInvalidArgument.
var ErrInvalidArgument = fmt.Errorf("reactor: %w", ode.ErrInvalidArgument)

// Phase holds the bulk thermal properties of a phase.
type Phase struct {
	Density      float64 // g/ml
	HeatCapacity float64 // J/g K
}

// HeatCapacityPerVolume returns ρ·cp, J/ml K.
func (p Phase) HeatCapacityPerVolume() float64 {
	return p.Density * p.HeatCapacity
}

// Packing is the solid thermal mass of one compartment, exchanging heat
// with the liquid through U·A.
type Packing struct {
	Phase
	Area float64 // contact area per compartment, cm2
	U    float64 // heat transfer coefficient, J/s cm2 K
}

// UA returns the heat exchange rate constant, J/s K.
func (p Packing) UA() float64 {
	return p.U * p.Area
}

// Params is the parameter set of one integration segment. It is passed by
// value and never mutated; a segment change builds a new Params.
type Params struct {
	FeedWater       float64 // mol/ml
	FeedAnhydride   float64 // mol/ml
	FeedTemperature float64 // K
	WaterFlow       float64 // ml/s
	AnhydrideFlow   float64 // ml/s
	Volume          float64 // liquid volume per compartment, ml

	Kinetics Kinetics
	Liquid   Phase
	// Packing is nil when no solid phase is modeled.
	Packing *Packing
}

// TotalFlow returns the volumetric throughput, ml/s.
func (p Params) TotalFlow() float64 {
	return p.WaterFlow + p.AnhydrideFlow
}

// Width returns the number of state slots per compartment, 4 or 5.
func (p Params) Width() int {
	if p.Packing != nil {
		return 5
	}
	return 4
}

// Feed returns the external inflow of the first compartment.
func (p Params) Feed() Compartment {
	return Compartment{
		Water:            p.FeedWater,
		Anhydride:        p.FeedAnhydride,
		Acid:             0,
		Temperature:      p.FeedTemperature,
		SolidTemperature: p.FeedTemperature,
	}
}

// WithPacking returns a copy of p with its own copy of the packing.
func (p Params) WithPacking(pk Packing) Params {
	p.Packing = &pk
	return p
}

// Validate checks the values that a derivative evaluation divides by.
// A zero total flow is valid here (closed vessel); negative flows are not.
func (p Params) Validate() error {
	var errs []string
	if !(p.Volume > 0) {
		errs = append(errs, fmt.Sprintf("volume %g must be positive", p.Volume))
	}
	if !(p.WaterFlow >= 0) || !(p.AnhydrideFlow >= 0) {
		errs = append(errs, fmt.Sprintf("flows %g, %g must not be negative", p.WaterFlow, p.AnhydrideFlow))
	}
	if !(p.FeedTemperature > 0) {
		errs = append(errs, fmt.Sprintf("feed temperature %g K must be positive", p.FeedTemperature))
	}
	if !(p.Liquid.HeatCapacityPerVolume() > 0) {
		errs = append(errs, "liquid density and heat capacity must be positive")
	}
	if !(p.Kinetics.R > 0) {
		errs = append(errs, "gas constant must be positive")
	}
	if p.Packing != nil && !(p.Packing.HeatCapacityPerVolume() > 0) {
		errs = append(errs, "packing density and heat capacity must be positive")
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(errs, "; "))
}
