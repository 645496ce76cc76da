package reactor

import (
	"fmt"

	"reactor_sim/ode"
)

// State slot offsets within a compartment block.
const (
	SlotWater = iota
	SlotAnhydride
	SlotAcid
	SlotTemperature
	SlotSolid
)

// Network is a series of well-mixed compartments. The outflow of stage i
// is the inflow of stage i+1; stage 0 draws from the feed of its Params.
// The flat state vector holds one fixed-stride block per stage.
type Network struct {
	params []Params
	width  int
}

// NewNetwork builds a homogeneous network of stages identical compartments.
func NewNetwork(p Params, stages int) (*Network, error) {
	if stages <= 0 {
		return nil, fmt.Errorf("%w: stage count %d must be positive", ErrInvalidArgument, stages)
	}
	ps := make([]Params, stages)
	for i := range ps {
		ps[i] = p
	}
	return NewStagedNetwork(ps)
}

// NewStagedNetwork builds a network with one parameter set per stage. Only
// the first stage's feed is used. All stages must agree on packing.
func NewStagedNetwork(ps []Params) (*Network, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: network without stages", ErrInvalidArgument)
	}
	width := ps[0].Width()
	params := make([]Params, len(ps))
	for i, p := range ps {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		if p.Width() != width {
			return nil, fmt.Errorf("%w: stage %d packing differs from stage 0", ErrInvalidArgument, i)
		}
		if p.Packing != nil {
			p = p.WithPacking(*p.Packing)
		}
		params[i] = p
	}
	return &Network{params: params, width: width}, nil
}

func (n *Network) Stages() int {
	return len(n.params)
}

// Width returns the number of slots per stage, 4 or 5.
func (n *Network) Width() int {
	return n.width
}

// Dim returns the length of the flat state vector.
func (n *Network) Dim() int {
	return n.width * len(n.params)
}

// Params returns the parameter set of stage i.
func (n *Network) Params(i int) Params {
	return n.params[i]
}

// Index returns the position of a slot of a stage in the flat state vector.
func (n *Network) Index(stage, slot int) int {
	return stage*n.width + slot
}

// Compartment decodes stage i from the flat state vector y.
func (n *Network) Compartment(y []float64, i int) Compartment {
	b := y[i*n.width : (i+1)*n.width]
	c := Compartment{
		Water:       b[SlotWater],
		Anhydride:   b[SlotAnhydride],
		Acid:        b[SlotAcid],
		Temperature: b[SlotTemperature],
	}
	if n.width > SlotSolid {
		c.SolidTemperature = b[SlotSolid]
	}
	return c
}

func (n *Network) put(y []float64, i int, c Compartment) {
	b := y[i*n.width : (i+1)*n.width]
	b[SlotWater] = c.Water
	b[SlotAnhydride] = c.Anhydride
	b[SlotAcid] = c.Acid
	b[SlotTemperature] = c.Temperature
	if n.width > SlotSolid {
		b[SlotSolid] = c.SolidTemperature
	}
}

// InitialState returns a flat state with every stage set to c.
func (n *Network) InitialState(c Compartment) []float64 {
	y := make([]float64, n.Dim())
	for i := range n.params {
		n.put(y, i, c)
	}
	return y
}

// Derivative evaluates dy = f(t, y) for the whole network. It only reads
// y and the parameter sets, so the integrator may call it freely.
func (n *Network) Derivative(t float64, y, dy []float64) {
	in := n.params[0].Feed()
	for i := range n.params {
		c := n.Compartment(y, i)
		n.put(dy, i, StageDerivative(c, in, &n.params[i]))
		in = c
	}
}

var _ ode.Function = (*Network)(nil).Derivative
