// Package calibration turns laboratory measurements into model inputs: the
// conductivity to concentration curve and the Arrhenius parameters derived
// from steady-state runs at several temperatures.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"reactor_sim/reactor"
)

var (
	ErrInvalidData = errors.New("calibration: invalid data")
	ErrFitFailed   = errors.New("calibration: fit failed")
)

// ExpOffset is the curve y = A·exp(B·x) + D.
type ExpOffset struct {
	A, B, D float64
	// SSE is the residual sum of squares of the fit.
	SSE float64
}

func (f ExpOffset) Eval(x float64) float64 {
	return f.A*math.Exp(f.B*x) + f.D
}

func (f ExpOffset) String() string {
	return fmt.Sprintf("%.5f * exp(%.5f * x) + %.5f", f.A, f.B, f.D)
}

// Line is y = Slope·x + Intercept.
type Line struct {
	Slope, Intercept float64
	RSquared         float64
}

func (l Line) Eval(x float64) float64 {
	return l.Slope*x + l.Intercept
}

func checkPairs(x, y []float64, min int) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d x values for %d y values", ErrInvalidData, len(x), len(y))
	}
	if len(x) < min {
		return fmt.Errorf("%w: %d points, need at least %d", ErrInvalidData, len(x), min)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return fmt.Errorf("%w: point %d is not finite", ErrInvalidData, i)
		}
	}
	return nil
}

/*
Fits y = A·exp(B·x) + D by least squares.

	Args:
	    x, y: data points
	    guess: starting value for the rate B, e.g. -0.001 for conductivity in µS/cm

	Returns:
	    the fitted curve

	Notes:
	    For a fixed B the model is linear in A and D, which are solved exactly
	    by linear regression on exp(B·x). Only B is searched, with Nelder-Mead
	    on B·max|x| so the simplex works on a unit scale.
*/
func FitExpOffset(x, y []float64, guess float64) (ExpOffset, error) {
	if err := checkPairs(x, y, 3); err != nil {
		return ExpOffset{}, err
	}
	scale := math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
	if scale == 0 || floats.Max(x) == floats.Min(x) {
		return ExpOffset{}, fmt.Errorf("%w: x values are all equal", ErrInvalidData)
	}

	e := make([]float64, len(x))
	solve := func(b float64) (ExpOffset, bool) {
		for i, xi := range x {
			e[i] = math.Exp(b * xi)
			if math.IsInf(e[i], 0) {
				return ExpOffset{}, false
			}
		}
		if floats.Max(e) == floats.Min(e) {
			return ExpOffset{}, false
		}
		d, a := stat.LinearRegression(e, y, nil, false)
		f := ExpOffset{A: a, B: b, D: d}
		for i, xi := range x {
			r := y[i] - f.Eval(xi)
			f.SSE += r * r
		}
		return f, !math.IsNaN(f.SSE)
	}

	problem := optimize.Problem{
		Func: func(s []float64) float64 {
			f, ok := solve(s[0] / scale)
			if !ok {
				return math.Inf(1)
			}
			return f.SSE
		},
	}
	settings := &optimize.Settings{
		Converger:       &optimize.FunctionConverge{Absolute: 1e-14, Iterations: 200},
		MajorIterations: 5000,
	}
	result, err := optimize.Minimize(problem, []float64{guess * scale}, settings, &optimize.NelderMead{})
	if err != nil {
		return ExpOffset{}, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}

	f, ok := solve(result.X[0] / scale)
	if !ok {
		return ExpOffset{}, fmt.Errorf("%w: no finite optimum from B=%g", ErrFitFailed, guess)
	}
	return f, nil
}

// FitLine fits a straight line by ordinary least squares.
func FitLine(x, y []float64) (Line, error) {
	if err := checkPairs(x, y, 2); err != nil {
		return Line{}, err
	}
	if floats.Max(x) == floats.Min(x) {
		return Line{}, fmt.Errorf("%w: x values are all equal", ErrInvalidData)
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Line{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(x, y, nil, alpha, beta),
	}, nil
}

/*
Back-calculates the rate constant of a stirred tank at steady state.

	Args:
	    acid: outlet acid concentration, mol/ml
	    feedWater, feedAnhydride: inlet concentrations, mol/ml
	    totalFlow: ml/s
	    volume: ml

	Returns:
	    k, ml/mol s

	Notes:
	    From 0 = -F/V·C + 2·k·(A0 - C/2)(B0 - C/2):
	    k = 2·C·F / (V·(2A0 - C)·(2B0 - C)).
*/
func SteadyStateRateConstant(acid, feedWater, feedAnhydride, totalFlow, volume float64) (float64, error) {
	if !(acid > 0) || !(totalFlow > 0) || !(volume > 0) {
		return 0, fmt.Errorf("%w: acid %g, flow %g and volume %g must be positive", ErrInvalidData, acid, totalFlow, volume)
	}
	water, anhydride := 2*feedWater-acid, 2*feedAnhydride-acid
	if !(water > 0) || !(anhydride > 0) {
		return 0, fmt.Errorf("%w: acid %g exceeds the stoichiometric limit of the feed", ErrInvalidData, acid)
	}
	return 2 * acid * totalFlow / (volume * water * anhydride), nil
}

/*
Estimates Arrhenius parameters from rate constants at several temperatures.

	Args:
	    temperatures: °C
	    k: rate constants at those temperatures
	    r: gas constant, J/mol K

	Returns:
	    the Arrhenius law and the ln k against 1/T line it was read from

	Notes:
	    ln k = ln k0 - Ea/R · 1/T, so k0 = exp(intercept) and Ea = -slope·R.
*/
func FitArrhenius(temperatures, k []float64, r float64) (reactor.Arrhenius, Line, error) {
	if err := checkPairs(temperatures, k, 2); err != nil {
		return reactor.Arrhenius{}, Line{}, err
	}
	if !(r > 0) {
		return reactor.Arrhenius{}, Line{}, fmt.Errorf("%w: gas constant %g", ErrInvalidData, r)
	}
	inv := make([]float64, len(k))
	lnk := make([]float64, len(k))
	for i := range k {
		t := reactor.ToKelvin(temperatures[i])
		if !(k[i] > 0) || !(t > 0) {
			return reactor.Arrhenius{}, Line{}, fmt.Errorf("%w: point %d (%g °C, k=%g)", ErrInvalidData, i, temperatures[i], k[i])
		}
		inv[i] = 1 / t
		lnk[i] = math.Log(k[i])
	}
	line, err := FitLine(inv, lnk)
	if err != nil {
		return reactor.Arrhenius{}, Line{}, err
	}
	return reactor.Arrhenius{
		K0: math.Exp(line.Intercept),
		Ea: -line.Slope * r,
		R:  r,
	}, line, nil
}
