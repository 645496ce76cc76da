package ode

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type AdaptiveConfig struct {
	// InitialStepSize, if > 0.0 specifies the step size
	// to be used in the first integration step
	// Else, a step size is estimated from the derivative at t0
	InitialStepSize float64

	// MinStepSize, if > 0.0 specifies the minimal size of a processing step
	// processing will abort, if this value could not be reached
	MinStepSize float64

	// MaxStepSize, if > 0.0 limits the size of a processing step
	MaxStepSize float64

	AbsoluteTolerance float64
	RelativeTolerance float64

	// MaxStepCount, if > 0 specifies the maximum number of steps before
	// aborting processing if the target time has not been reached
	MaxStepCount int
}

// withDefaults fills unset values for an integration over [t0, t1].
func (c AdaptiveConfig) withDefaults(t0, t1 float64) AdaptiveConfig {
	if c.MaxStepSize <= 0.0 {
		c.MaxStepSize = t1 - t0
	}
	if c.MinStepSize <= 0.0 {
		c.MinStepSize = 1e-10
	}
	if c.MaxStepCount <= 0 {
		c.MaxStepCount = 1000000
	}
	if c.AbsoluteTolerance <= 0.0 {
		c.AbsoluteTolerance = 1e-6
	}
	if c.RelativeTolerance <= 0.0 {
		c.RelativeTolerance = 1e-6
	}
	return c
}

// Dormand-Prince 5(4) coefficients; e holds b - bhat.
var dopri = struct {
	c, b, e []float64
	a       [][]float64
}{
	c: []float64{0, 0.2, 0.3, 0.8, 8.0 / 9.0, 1, 1},
	a: [][]float64{
		{},
		{0.2},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	},
	b: []float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0},
	e: []float64{71.0 / 57600.0, 0, -71.0 / 16695.0, 71.0 / 1920.0, -17253.0 / 339200.0, 22.0 / 525.0, -1.0 / 40.0},
}

// estimateStepSize guesses a first step from the derivative at t.
func estimateStepSize(t float64, y, fcnValue []float64, fcn Function, c *AdaptiveConfig, order int) float64 {
	n := len(y)
	var h, h1 float64

	y2, f2 := make([]float64, n), make([]float64, n)

	dnf, dny := 0.0, 0.0
	for id := 0; id < n; id++ {
		rc := c.AbsoluteTolerance + c.RelativeTolerance*math.Abs(y[id])
		dnf += math.Pow(fcnValue[id]/rc, 2)
		dny += math.Pow(y[id]/rc, 2)
	}

	if math.Min(dnf, dny) < 1e-10 {
		h = 1.e-6
	} else {
		h = 1.e-2 * math.Sqrt(dny/dnf)
	}
	h = math.Min(h, c.MaxStepSize)

	// explicit Euler step
	floats.AddScaledTo(y2, y, h, fcnValue)
	fcn(t+h, y2, f2)

	der2 := 0.0
	for id := 0; id < n; id++ {
		rc := c.AbsoluteTolerance + c.RelativeTolerance*math.Abs(y[id])
		der2 += math.Pow((f2[id]-fcnValue[id])/rc, 2)
	}

	//estimate for second derivative
	der2 = math.Sqrt(der2) / h
	der12 := math.Max(der2, math.Sqrt(dnf))

	if der12 <= 1.e-15 {
		h1 = math.Max(1.e-6, h*1.e-3)
	} else {
		h1 = math.Pow(1.e-2/der12, 1.0/float64(order))
	}
	return math.Min(1e2*h, math.Min(h1, c.MaxStepSize))
}

/*
Integrates y' = fcn(t, y) over [t0, t1] with the embedded Dormand-Prince
5(4) pair and step size control.

	Args:
	    fcn: right hand side
	    t0, t1: time span, t1 > t0
	    y0: initial state, not modified
	    cfg: tolerances and step limits, nil for defaults

	Returns:
	    a trajectory holding y0 at t0 and the state after every accepted step,
	    the last sample at exactly t1
*/
func IntegrateAdaptive(fcn Function, t0, t1 float64, y0 []float64, cfg *AdaptiveConfig) (*Trajectory, error) {
	if err := validate(fcn, t0, t1, y0); err != nil {
		return nil, err
	}
	var c AdaptiveConfig
	if cfg != nil {
		c = *cfg
	}
	c = c.withDefaults(t0, t1)

	const order = 5
	n := len(y0)
	stages := len(dopri.b)

	var stat Statistics
	y := make([]float64, n)
	copy(y, y0)
	fcnValue := make([]float64, n)
	yCurrent := make([]float64, n)
	yError := make([]float64, n)
	ks := make([][]float64, stages)
	for i := range ks {
		ks[i] = make([]float64, n)
	}

	times := []float64{t0}
	rows := [][]float64{append([]float64(nil), y0...)}

	fcn(t0, y, fcnValue)
	stat.EvaluationCount = 1

	stepEstimate := c.InitialStepSize
	if stepEstimate <= 0.0 {
		stepEstimate = estimateStepSize(t0, y, fcnValue, fcn, &c, order)
		stat.EvaluationCount++
	}

	t := t0
	for t < t1 {
		stepNext := math.Min(stepEstimate, c.MaxStepSize)
		stat.StepCount++
		last := false
		if t+stepNext >= t1 {
			stepNext = t1 - t
			last = true
		}

		// stage 0 is fcnValue
		copy(ks[0], fcnValue)
		for stg := 1; stg < stages; stg++ {
			copy(yCurrent, y)
			for ic, a := range dopri.a[stg] {
				if a != 0 {
					floats.AddScaled(yCurrent, stepNext*a, ks[ic])
				}
			}
			fcn(t+stepNext*dopri.c[stg], yCurrent, ks[stg])
			stat.EvaluationCount++
		}

		for id := range yError {
			yError[id] = 0
		}
		for stg, e := range dopri.e {
			if e != 0 {
				floats.AddScaled(yError, stepNext*e, ks[stg])
			}
		}

		relativeError := 0.0
		for id := 0; id < n; id++ {
			tol := c.AbsoluteTolerance + c.RelativeTolerance*math.Abs(y[id])
			relativeError += math.Pow(yError[id]/tol, 2.0)
		}
		relativeError = math.Sqrt(relativeError / float64(n))

		// new step size estimate
		if math.IsNaN(relativeError) || math.IsInf(relativeError, 0) {
			// a non-finite state is carried forward for Check to report,
			// the grid still has to reach t1
			stepEstimate = stepNext
			relativeError = 0
		} else {
			stepEstimate = 0.9 * math.Exp(-math.Log(1.0e-8+relativeError)/float64(order))
			stepEstimate = stepNext * math.Max(0.2, math.Min(stepEstimate, 2.0)) // safety interval
		}

		if relativeError > 1.0 {
			stat.RejectedCount++
			if stepEstimate < c.MinStepSize {
				return nil, fmt.Errorf("%w: %g at t=%g", ErrStepSizeTooSmall, stepEstimate, t)
			}
		} else {
			// accept; the last stage is evaluated at the new solution (FSAL)
			copy(y, yCurrent)
			if last {
				t = t1
			} else {
				t += stepNext
			}
			copy(fcnValue, ks[stages-1])

			times = append(times, t)
			rows = append(rows, append([]float64(nil), y...))
		}

		if stat.StepCount > c.MaxStepCount {
			return nil, fmt.Errorf("%w: %d steps, reached t=%g", ErrMaxStepCount, stat.StepCount, t)
		}
	}

	tr := newTrajectory(times, rows)
	tr.Stats = stat
	return tr, nil
}
