package ode

import (
	"fmt"
	"strings"
)

// Method names an explicit single-step integration scheme.
type Method string

const (
	Euler    Method = "euler"
	Midpoint Method = "midpoint"
	RK2      Method = "rk2"
	RK4      Method = "rk4"
	// DoPri5 is only available through IntegrateAdaptive.
	DoPri5 Method = "dopri5"
)

/*
Converts a method name to a Method.

	Args:
	    name: method name, case insensitive

	Returns:
	    the method, or ErrUnsupportedMethod
*/
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	switch m {
	case Euler, Midpoint, RK2, RK4, DoPri5:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, name)
	}
}

// Order returns the convergence order of the method, 0 if unknown.
func (m Method) Order() int {
	switch m {
	case Euler:
		return 1
	case Midpoint, RK2:
		return 2
	case RK4:
		return 4
	case DoPri5:
		return 5
	default:
		return 0
	}
}

// tableau holds the Butcher coefficients of an explicit Runge-Kutta method.
type tableau struct {
	c []float64
	a [][]float64
	b []float64
}

func (t *tableau) stages() int {
	return len(t.b)
}

func (m Method) tableau() (*tableau, error) {
	switch m {
	case Euler:
		return &tableau{
			c: []float64{0},
			a: [][]float64{{}},
			b: []float64{1},
		}, nil
	case Midpoint:
		return &tableau{
			c: []float64{0, 0.5},
			a: [][]float64{{}, {0.5}},
			b: []float64{0, 1},
		}, nil
	case RK2:
		// Heun
		return &tableau{
			c: []float64{0, 1},
			a: [][]float64{{}, {1}},
			b: []float64{0.5, 0.5},
		}, nil
	case RK4:
		return &tableau{
			c: []float64{0, 0.5, 0.5, 1},
			a: [][]float64{
				{},
				{0.5},
				{0, 0.5},
				{0, 0, 1},
			},
			b: []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(m))
	}
}
