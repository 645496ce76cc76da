package reactor

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"reactor_sim/ode"
)

// Conditions are the operating conditions at the reactor boundary.
type Conditions struct {
	FeedTemperature float64 // °C
	WaterFlow       float64 // ml/min
	AnhydrideFlow   float64 // ml/min
}

func (c Conditions) WithFeedTemperature(celsius float64) Conditions {
	c.FeedTemperature = celsius
	return c
}

func (c Conditions) WithWaterFlow(flow float64) Conditions {
	c.WaterFlow = flow
	return c
}

func (c Conditions) WithAnhydrideFlow(flow float64) Conditions {
	c.AnhydrideFlow = flow
	return c
}

// Breakpoint replaces the operating conditions from Time onwards.
type Breakpoint struct {
	Time       float64 // s
	Conditions Conditions
}

// Fill is the initial charge of the compartments.
type Fill int

const (
	// FillFeed starts every compartment at feed composition and temperature.
	FillFeed Fill = iota
	// FillWater starts every compartment full of pure water at feed temperature.
	FillWater
)

// Model holds the physical constants and solver settings of a reactor run.
type Model struct {
	// Volume is the total liquid volume, ml, split evenly over Stages.
	Volume float64
	Stages int

	Water     Species
	Anhydride Species
	Kinetics  Kinetics
	Liquid    Phase
	// Packing per compartment, nil without solid phase.
	Packing *Packing
	Fill    Fill

	// Method and Steps select the fixed-step integrator. Steps is the budget
	// for the whole time span and is shared among segments by duration.
	Method ode.Method
	Steps  int
	// Adaptive, if set, selects the adaptive DoPri5 integrator instead.
	Adaptive *ode.AdaptiveConfig

	Logger logrus.FieldLogger
}

/*
Returns the 500 ml laboratory stirred tank: one stage,
aqueous liquid, hydrolysis kinetics, rk4 with 200 steps.
*/
func DefaultModel() Model {
	return Model{
		Volume:    500,
		Stages:    1,
		Water:     get_water(),
		Anhydride: get_acetic_anhydride(),
		Kinetics:  get_hydrolysis(),
		Liquid:    get_aqueous_liquid(),
		Fill:      FillFeed,
		Method:    ode.RK4,
		Steps:     200,
	}
}

/*
Builds the parameter set of one stage for the given conditions.

	Args:
	    c: operating conditions, °C and ml/min

	Returns:
	    the per-stage parameter set in K, ml/s and mol/ml

	Notes:
	    The feed concentration of each species is its pure molar
	    concentration diluted by the flow split, C = F_i·ρ/M / (F_w + F_a).
*/
func (m Model) Params(c Conditions) (Params, error) {
	if m.Stages <= 0 {
		return Params{}, fmt.Errorf("%w: stage count %d must be positive", ErrInvalidArgument, m.Stages)
	}
	if !(m.Volume > 0) {
		return Params{}, fmt.Errorf("%w: volume %g must be positive", ErrInvalidArgument, m.Volume)
	}
	water, anhydride := c.WaterFlow/60, c.AnhydrideFlow/60
	total := water + anhydride
	if !(total > 0) || water < 0 || anhydride < 0 {
		return Params{}, fmt.Errorf("%w: flows %g + %g ml/min must add up to a positive throughput", ErrInvalidArgument, c.WaterFlow, c.AnhydrideFlow)
	}

	p := Params{
		FeedWater:       water * m.Water.PureConcentration() / total,
		FeedAnhydride:   anhydride * m.Anhydride.PureConcentration() / total,
		FeedTemperature: ToKelvin(c.FeedTemperature),
		WaterFlow:       water,
		AnhydrideFlow:   anhydride,
		Volume:          m.Volume / float64(m.Stages),
		Kinetics:        m.Kinetics,
		Liquid:          m.Liquid,
	}
	if m.Packing != nil {
		p = p.WithPacking(*m.Packing)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// initialState returns the cold-start state of the network.
func (m Model) initialState(n *Network, p Params) []float64 {
	c := p.Feed()
	if m.Fill == FillWater {
		c.Water = m.Water.PureConcentration()
		c.Anhydride = 0
	}
	return n.InitialState(c)
}

// Segment is one constant-parameter interval of a run.
type Segment struct {
	Start, End float64
	Params     Params
	Steps      int // 0 for adaptive runs
}

// Result is the concatenated trajectory of a run.
type Result struct {
	*ode.Trajectory
	Stages   int
	Width    int
	Segments []Segment
}

// Index returns the trajectory column of a slot of a stage.
func (r *Result) Index(stage, slot int) int {
	return stage*r.Width + slot
}

// Series returns the time series of one slot of one stage.
func (r *Result) Series(stage, slot int) []float64 {
	return r.Column(r.Index(stage, slot))
}

// Compartment decodes a stage at sample n.
func (r *Result) Compartment(n, stage int) Compartment {
	c := Compartment{
		Water:       r.At(n, r.Index(stage, SlotWater)),
		Anhydride:   r.At(n, r.Index(stage, SlotAnhydride)),
		Acid:        r.At(n, r.Index(stage, SlotAcid)),
		Temperature: r.At(n, r.Index(stage, SlotTemperature)),
	}
	if r.Width > SlotSolid {
		c.SolidTemperature = r.At(n, r.Index(stage, SlotSolid))
	}
	return c
}

// TemperatureCelsius returns the liquid temperature of a stage, °C.
func (r *Result) TemperatureCelsius(stage int) []float64 {
	ts := r.Series(stage, SlotTemperature)
	for i, t := range ts {
		ts[i] = ToCelsius(t)
	}
	return ts
}

func (m Model) validateRun(t0, t1 float64, breakpoints []Breakpoint) error {
	if !(t1 > t0) {
		return fmt.Errorf("%w: time span [%g, %g] is empty", ErrInvalidArgument, t0, t1)
	}
	if m.Adaptive == nil {
		if _, err := ode.ParseMethod(string(m.Method)); err != nil || m.Method == ode.DoPri5 {
			return fmt.Errorf("%w: fixed-step method %q", ode.ErrUnsupportedMethod, m.Method)
		}
		if m.Steps <= 0 {
			return fmt.Errorf("%w: step count %d must be positive", ErrInvalidArgument, m.Steps)
		}
	}
	prev := t0
	for i, bp := range breakpoints {
		if !(bp.Time > prev) || !(bp.Time < t1) {
			return fmt.Errorf("%w: breakpoint %d at t=%g is not inside (%g, %g) after the previous one", ErrInvalidArgument, i, bp.Time, prev, t1)
		}
		prev = bp.Time
	}
	return nil
}

/*
Integrates the staged reactor over [t0, t1].

	Args:
	    c: operating conditions at t0
	    t0, t1: time span, s
	    breakpoints: increasing times inside (t0, t1) at which the conditions
	                 are replaced

	Returns:
	    the concatenated trajectory of all segments

	Notes:
	    Every segment starts from the exact final state of the previous one
	    with a freshly built parameter set. The boundary sample appears once.
*/
func (m Model) Run(c Conditions, t0, t1 float64, breakpoints ...Breakpoint) (*Result, error) {
	if err := m.validateRun(t0, t1, breakpoints); err != nil {
		return nil, err
	}

	// parameter sets for all segments are checked before integrating
	segments := make([]Segment, len(breakpoints)+1)
	start, cond := t0, c
	for i := range segments {
		end := t1
		if i < len(breakpoints) {
			end = breakpoints[i].Time
		}
		p, err := m.Params(cond)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments[i] = Segment{Start: start, End: end, Params: p}
		if m.Adaptive == nil {
			steps := int(math.Round(float64(m.Steps) * (end - start) / (t1 - t0)))
			if steps < 1 {
				steps = 1
			}
			segments[i].Steps = steps
		}
		if i < len(breakpoints) {
			start, cond = end, breakpoints[i].Conditions
		}
	}

	var (
		total *ode.Trajectory
		y     []float64
		width int
	)
	for i, seg := range segments {
		n, err := NewNetwork(seg.Params, m.Stages)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if i == 0 {
			y = m.initialState(n, seg.Params)
			width = n.Width()
		}

		if m.Logger != nil {
			m.Logger.WithFields(logrus.Fields{
				"segment":          i,
				"start":            seg.Start,
				"end":              seg.End,
				"steps":            seg.Steps,
				"feed_temperature": ToCelsius(seg.Params.FeedTemperature),
				"total_flow":       seg.Params.TotalFlow(),
			}).Debug("integrating segment")
		}

		var tr *ode.Trajectory
		if m.Adaptive != nil {
			tr, err = ode.IntegrateAdaptive(n.Derivative, seg.Start, seg.End, y, m.Adaptive)
		} else {
			tr, err = ode.Integrate(n.Derivative, seg.Start, seg.End, y, m.Method, seg.Steps)
		}
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}

		if total == nil {
			total = tr
		} else if total, err = ode.Concat(total, tr); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		y = tr.Final()
	}

	return &Result{
		Trajectory: total,
		Stages:     m.Stages,
		Width:      width,
		Segments:   segments,
	}, nil
}

/*
Runs the default model with the given operating point.

	Args:
	    feedTemperature: °C
	    waterFlow, anhydrideFlow: ml/min
	    volume: total liquid volume, ml
	    span: [t0, t1], s
	    stages: number of compartments
	    breakpoints: optional condition changes
*/
func RunModel(feedTemperature, waterFlow, anhydrideFlow, volume float64, span [2]float64, stages int, breakpoints ...Breakpoint) (*Result, error) {
	m := DefaultModel()
	m.Volume = volume
	m.Stages = stages
	c := Conditions{
		FeedTemperature: feedTemperature,
		WaterFlow:       waterFlow,
		AnhydrideFlow:   anhydrideFlow,
	}
	return m.Run(c, span[0], span[1], breakpoints...)
}
