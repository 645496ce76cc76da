package ode

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stepper performs single explicit Runge-Kutta steps for one tableau.
// Its buffers make it unsafe for concurrent use.
type stepper struct {
	tab    *tableau
	fcn    Function
	ks     [][]float64
	yStage []float64
}

func newStepper(tab *tableau, fcn Function, n int) *stepper {
	ks := make([][]float64, tab.stages())
	for i := range ks {
		ks[i] = make([]float64, n)
	}
	return &stepper{tab: tab, fcn: fcn, ks: ks, yStage: make([]float64, n)}
}

// step advances y from t by h and writes the result into out.
func (s *stepper) step(t, h float64, y, out []float64) {
	for stg := 0; stg < s.tab.stages(); stg++ {
		copy(s.yStage, y)
		for j, a := range s.tab.a[stg] {
			if a != 0 {
				floats.AddScaled(s.yStage, h*a, s.ks[j])
			}
		}
		s.fcn(t+h*s.tab.c[stg], s.yStage, s.ks[stg])
	}

	copy(out, y)
	for stg, b := range s.tab.b {
		if b != 0 {
			floats.AddScaled(out, h*b, s.ks[stg])
		}
	}
}

/*
Integrates y' = fcn(t, y) over [t0, t1] with a fixed step size.

	Args:
	    fcn: right hand side
	    t0, t1: time span, t1 > t0
	    y0: initial state, not modified
	    method: euler, midpoint, rk2 or rk4
	    steps: number of steps, dt = (t1-t0)/steps

	Returns:
	    a trajectory of steps+1 uniformly spaced samples t0, t0+dt, ..., t1

	Notes:
	    No error estimation is made; accuracy depends only on steps.
*/
func Integrate(fcn Function, t0, t1 float64, y0 []float64, method Method, steps int) (*Trajectory, error) {
	tab, err := method.tableau()
	if err != nil {
		return nil, err
	}
	if err := validate(fcn, t0, t1, y0); err != nil {
		return nil, err
	}
	if steps <= 0 {
		return nil, fmt.Errorf("%w: step count %d must be positive", ErrInvalidArgument, steps)
	}

	n := len(y0)
	dt := (t1 - t0) / float64(steps)

	times := make([]float64, steps+1)
	states := mat.NewDense(steps+1, n, nil)
	copy(states.RawRowView(0), y0)
	times[0] = t0

	s := newStepper(tab, fcn, n)
	for i := 0; i < steps; i++ {
		t := t0 + float64(i)*dt
		s.step(t, dt, states.RawRowView(i), states.RawRowView(i+1))
		times[i+1] = t0 + float64(i+1)*dt
	}
	times[steps] = t1

	tr := &Trajectory{times: times, states: states}
	tr.Stats = Statistics{
		StepCount:       steps,
		EvaluationCount: steps * tab.stages(),
	}
	return tr, nil
}
