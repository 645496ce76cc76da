package ode

import (
	"errors"
	"fmt"
)

// Function evaluates the right hand side of y'(t) = f(t, y) into dy.
// It may be called several times per step with perturbed states and must
// not retain y or dy.
type Function func(t float64, y []float64, dy []float64)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported integration method", ErrInvalidArgument)
	ErrStepSizeTooSmall  = errors.New("step size too small")
	ErrMaxStepCount      = errors.New("maximum step count exceeded")
	ErrNonFinite         = errors.New("non-finite value in trajectory")
)

type Statistics struct {
	// StepCount is the number of steps the integrator performed
	StepCount int
	// RejectedCount is the number of steps rejected by the error control
	RejectedCount int
	// EvaluationCount is the number of right hand side evaluations
	EvaluationCount int
}

func validate(fcn Function, t0, t1 float64, y0 []float64) error {
	if fcn == nil {
		return fmt.Errorf("%w: nil derivative function", ErrInvalidArgument)
	}
	if !(t1 > t0) {
		return fmt.Errorf("%w: time span [%g, %g] is empty", ErrInvalidArgument, t0, t1)
	}
	if len(y0) == 0 {
		return fmt.Errorf("%w: empty initial state", ErrInvalidArgument)
	}
	return nil
}
