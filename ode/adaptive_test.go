package ode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrateAdaptive(t *testing.T) {
	tr, err := IntegrateAdaptive(decay, 0, 5, []float64{1}, &AdaptiveConfig{
		AbsoluteTolerance: 1e-10,
		RelativeTolerance: 1e-10,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, tr.Time(0))
	assert.Equal(t, 5.0, tr.Time(tr.Len()-1))
	assert.Equal(t, []float64{1}, tr.State(0))
	for i := 1; i < tr.Len(); i++ {
		assert.Greater(t, tr.Time(i), tr.Time(i-1))
		assert.InDelta(t, math.Exp(-tr.Time(i)), tr.At(i, 0), 1e-8)
	}
	assert.Equal(t, tr.Len()-1, tr.Stats.StepCount-tr.Stats.RejectedCount)

	if testing.Verbose() {
		t.Logf("DoPri5: %d steps, %d rejected, %d evaluations", tr.Stats.StepCount, tr.Stats.RejectedCount, tr.Stats.EvaluationCount)
	}
}

func TestIntegrateAdaptiveDefaults(t *testing.T) {
	tr, err := IntegrateAdaptive(oscillator, 0, 2*math.Pi, []float64{1, 0}, nil)
	require.NoError(t, err)
	final := tr.Final()
	assert.InDelta(t, 1.0, final[0], 1e-4)
	assert.InDelta(t, 0.0, final[1], 1e-4)
}

func TestIntegrateAdaptiveMaxSteps(t *testing.T) {
	_, err := IntegrateAdaptive(oscillator, 0, 100, []float64{1, 0}, &AdaptiveConfig{
		MaxStepSize:  0.01,
		MaxStepCount: 10,
	})
	assert.ErrorIs(t, err, ErrMaxStepCount)
}

func TestIntegrateAdaptiveInvalid(t *testing.T) {
	_, err := IntegrateAdaptive(decay, 1, 0, []float64{1}, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIntegrateAdaptiveNonFinite(t *testing.T) {
	blowup := func(t float64, y []float64, dy []float64) {
		dy[0] = -y[0]
		if t > 1 {
			dy[0] = math.NaN()
		}
	}
	tr, err := IntegrateAdaptive(blowup, 0, 5, []float64{1}, nil)
	require.NoError(t, err)

	// the grid still ends at t1 and the NaN is left for Check
	assert.Equal(t, 5.0, tr.Time(tr.Len()-1))
	for i := 1; i < tr.Len(); i++ {
		require.Greater(t, tr.Time(i), tr.Time(i-1))
	}
	assert.True(t, math.IsNaN(tr.Final()[0]))
	assert.ErrorIs(t, tr.Check(), ErrNonFinite)
}
