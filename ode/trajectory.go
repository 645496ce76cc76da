package ode

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Trajectory is an ordered sequence of (time, state) samples with strictly
// increasing times. It is not modified after an integrator returns it.
type Trajectory struct {
	times  []float64
	states *mat.Dense
	Stats  Statistics
}

func newTrajectory(times []float64, rows [][]float64) *Trajectory {
	n := len(rows[0])
	data := make([]float64, 0, len(rows)*n)
	for _, r := range rows {
		data = append(data, r...)
	}
	return &Trajectory{
		times:  times,
		states: mat.NewDense(len(rows), n, data),
	}
}

// Len returns the number of samples.
func (tr *Trajectory) Len() int {
	return len(tr.times)
}

// Dim returns the length of each state vector.
func (tr *Trajectory) Dim() int {
	_, c := tr.states.Dims()
	return c
}

func (tr *Trajectory) Time(i int) float64 {
	return tr.times[i]
}

// Times returns a copy of the sample times.
func (tr *Trajectory) Times() []float64 {
	t := make([]float64, len(tr.times))
	copy(t, tr.times)
	return t
}

// State returns a copy of the i-th state vector.
func (tr *Trajectory) State(i int) []float64 {
	return mat.Row(nil, i, tr.states)
}

func (tr *Trajectory) Final() []float64 {
	return tr.State(tr.Len() - 1)
}

func (tr *Trajectory) At(i, j int) float64 {
	return tr.states.At(i, j)
}

// Column returns the time series of state slot j.
func (tr *Trajectory) Column(j int) []float64 {
	return mat.Col(nil, j, tr.states)
}

/*
Looks for NaN or Inf values left behind by a diverging integration.

	Returns:
	    nil if every value is finite, otherwise an error wrapping ErrNonFinite
	    that names the first offending sample and slot

	Notes:
	    Fixed-step methods cannot abort and retry mid-integration, so the check
	    is made on the finished trajectory.
*/
func (tr *Trajectory) Check() error {
	r, c := tr.states.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := tr.states.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: sample %d (t=%g) slot %d is %v", ErrNonFinite, i, tr.times[i], j, v)
			}
		}
	}
	return nil
}

/*
Joins two consecutive trajectory segments.

	Args:
	    a: first segment
	    b: second segment, starting where a ends

	Returns:
	    a trajectory holding a's samples followed by b's samples without b's
	    first sample, which duplicates a's last one

	Notes:
	    State continuity is mandatory: b must start at exactly a's final time
	    and state.
*/
func Concat(a, b *Trajectory) (*Trajectory, error) {
	if a.Dim() != b.Dim() {
		return nil, fmt.Errorf("%w: dimension mismatch %d != %d", ErrInvalidArgument, a.Dim(), b.Dim())
	}
	last := a.Len() - 1
	if b.times[0] != a.times[last] {
		return nil, fmt.Errorf("%w: segment starts at t=%g, previous ends at t=%g", ErrInvalidArgument, b.times[0], a.times[last])
	}
	for j := 0; j < a.Dim(); j++ {
		if b.states.At(0, j) != a.states.At(last, j) {
			return nil, fmt.Errorf("%w: state discontinuity at t=%g slot %d", ErrInvalidArgument, b.times[0], j)
		}
	}

	times := make([]float64, 0, a.Len()+b.Len()-1)
	times = append(times, a.times...)
	times = append(times, b.times[1:]...)

	out := &Trajectory{times: times, states: &mat.Dense{}}
	if b.Len() == 1 {
		out.states = mat.DenseCopyOf(a.states)
	} else {
		rb, cb := b.states.Dims()
		out.states.Stack(a.states, b.states.Slice(1, rb, 0, cb))
	}
	out.Stats = Statistics{
		StepCount:       a.Stats.StepCount + b.Stats.StepCount,
		RejectedCount:   a.Stats.RejectedCount + b.Stats.RejectedCount,
		EvaluationCount: a.Stats.EvaluationCount + b.Stats.EvaluationCount,
	}
	return out, nil
}
