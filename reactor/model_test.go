package reactor

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reactor_sim/ode"
)

var baseConditions = Conditions{FeedTemperature: 25, WaterFlow: 160, AnhydrideFlow: 12}

func TestModelParams(t *testing.T) {
	m := DefaultModel()
	m.Stages = 4
	p, err := m.Params(baseConditions)
	require.NoError(t, err)

	assert.InDelta(t, 298.15, p.FeedTemperature, 1e-12)
	assert.InDelta(t, 172.0/60, p.TotalFlow(), 1e-12)
	assert.InDelta(t, 125, p.Volume, 1e-12)
	assert.InEpsilon(t, 0.0516276, p.FeedWater, 1e-5)
	assert.InEpsilon(t, 0.00073944, p.FeedAnhydride, 1e-4)
	assert.Nil(t, p.Packing)

	// only water, no anhydride
	p, err = m.Params(baseConditions.WithAnhydrideFlow(0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.FeedAnhydride)
	assert.InEpsilon(t, get_water().PureConcentration(), p.FeedWater, 1e-12)
}

func TestModelParamsInvalid(t *testing.T) {
	m := DefaultModel()
	_, err := m.Params(Conditions{FeedTemperature: 25})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Params(baseConditions.WithWaterFlow(-200))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	m.Volume = 0
	_, err = m.Params(baseConditions)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	m = DefaultModel()
	m.Stages = 0
	_, err = m.Params(baseConditions)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = DefaultModel().Params(baseConditions.WithFeedTemperature(-300))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func monotone(t *testing.T, name string, xs []float64, rising bool) {
	t.Helper()
	for i := 1; i < len(xs); i++ {
		if rising {
			require.GreaterOrEqual(t, xs[i], xs[i-1], "%s falls at sample %d", name, i)
		} else {
			require.LessOrEqual(t, xs[i], xs[i-1], "%s rises at sample %d", name, i)
		}
	}
}

func TestRunSingleTank(t *testing.T) {
	res, err := DefaultModel().Run(baseConditions, 0, 3600)
	require.NoError(t, err)
	require.NoError(t, res.Check())

	assert.Equal(t, 201, res.Len())
	assert.Equal(t, 4, res.Dim())
	assert.Equal(t, 0.0, res.Time(0))
	assert.Equal(t, 3600.0, res.Time(res.Len()-1))
	require.Len(t, res.Segments, 1)
	assert.Equal(t, 200, res.Segments[0].Steps)

	// cold start at feed conditions
	first := res.State(0)
	assert.InEpsilon(t, 0.0516276, first[SlotWater], 1e-5)
	assert.InEpsilon(t, 0.00073944, first[SlotAnhydride], 1e-4)
	assert.Equal(t, 0.0, first[SlotAcid])
	assert.InDelta(t, 298.15, first[SlotTemperature], 1e-12)

	final := res.Final()
	assert.InEpsilon(t, 0.0512901, final[SlotWater], 1e-4)
	assert.InEpsilon(t, 0.00040195, final[SlotAnhydride], 1e-3)
	assert.InEpsilon(t, 0.00067497, final[SlotAcid], 1e-3)
	assert.InDelta(t, 302.713, final[SlotTemperature], 0.01)

	monotone(t, "water", res.Series(0, SlotWater), false)
	monotone(t, "anhydride", res.Series(0, SlotAnhydride), false)
	monotone(t, "acid", res.Series(0, SlotAcid), true)
	monotone(t, "temperature", res.Series(0, SlotTemperature), true)

	celsius := res.TemperatureCelsius(0)
	assert.InDelta(t, 29.563, celsius[len(celsius)-1], 0.01)
}

func TestRunSteadyState(t *testing.T) {
	var finals [][]float64
	for _, method := range []ode.Method{ode.Midpoint, ode.RK2, ode.RK4} {
		m := DefaultModel()
		m.Method = method
		m.Steps = 1000
		res, err := m.Run(baseConditions, 0, 20000)
		require.NoError(t, err, method)
		finals = append(finals, res.Final())
	}
	for _, f := range finals[1:] {
		assert.InDeltaSlice(t, finals[0][:3], f[:3], 1e-9)
		assert.InDelta(t, finals[0][SlotTemperature], f[SlotTemperature], 1e-6)
	}

	p, err := DefaultModel().Params(baseConditions)
	require.NoError(t, err)
	n, err := NewNetwork(p, 1)
	require.NoError(t, err)
	dy := make([]float64, 4)
	n.Derivative(20000, finals[2], dy)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, dy[:3], 1e-12)
	assert.InDelta(t, 0, dy[SlotTemperature], 1e-8)
}

func TestRunBreakpoints(t *testing.T) {
	m := DefaultModel()
	m.Steps = 300
	hot := Breakpoint{Time: 1200, Conditions: baseConditions.WithFeedTemperature(40)}
	res, err := m.Run(baseConditions, 0, 3600, hot)
	require.NoError(t, err)

	require.Len(t, res.Segments, 2)
	assert.Equal(t, 100, res.Segments[0].Steps)
	assert.Equal(t, 200, res.Segments[1].Steps)
	assert.InDelta(t, 313.15, res.Segments[1].Params.FeedTemperature, 1e-12)
	// one shared boundary sample
	assert.Equal(t, 301, res.Len())

	times := res.Times()
	for i := 1; i < len(times); i++ {
		require.Greater(t, times[i], times[i-1])
	}
	assert.Equal(t, 1200.0, times[100])

	// the first segment alone ends exactly at the boundary sample
	m.Steps = 100
	head, err := m.Run(baseConditions, 0, 1200)
	require.NoError(t, err)
	assert.Equal(t, head.Final(), res.State(100))

	// the hotter feed warms the tank after the breakpoint
	ts := res.Series(0, SlotTemperature)
	assert.Greater(t, ts[len(ts)-1], ts[100]+5)
}

func TestRunBreakpointsMultiStage(t *testing.T) {
	m := DefaultModel()
	m.Volume = 131
	m.Stages = 3
	m.Steps = 600
	c := Conditions{FeedTemperature: 20, WaterFlow: 100, AnhydrideFlow: 20}
	res, err := m.Run(c, 0, 600,
		Breakpoint{Time: 200, Conditions: c.WithAnhydrideFlow(0)},
		Breakpoint{Time: 400, Conditions: c},
	)
	require.NoError(t, err)
	require.NoError(t, res.Check())
	assert.Equal(t, 601, res.Len())
	assert.Equal(t, 12, res.Dim())
	assert.Equal(t, 3, res.Stages)
	require.Len(t, res.Segments, 3)

	// without anhydride feed the first stage washes out faster than the last
	first := res.Series(0, SlotAnhydride)
	last := res.Series(2, SlotAnhydride)
	assert.Less(t, first[400], last[400])
}

func TestRunErrors(t *testing.T) {
	m := DefaultModel()

	_, err := m.Run(baseConditions, 10, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Run(Conditions{FeedTemperature: 25}, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Run(baseConditions, 0, 10, Breakpoint{Time: 10})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = m.Run(baseConditions, 0, 10, Breakpoint{Time: 5, Conditions: baseConditions}, Breakpoint{Time: 5, Conditions: baseConditions})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// a bad later segment fails before anything is integrated
	_, err = m.Run(baseConditions, 0, 10, Breakpoint{Time: 5})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "segment 1")

	bad := m
	bad.Method = "bogus"
	_, err = bad.Run(baseConditions, 0, 10)
	assert.ErrorIs(t, err, ode.ErrUnsupportedMethod)
	assert.ErrorIs(t, err, ode.ErrInvalidArgument)

	bad.Method = ode.DoPri5
	_, err = bad.Run(baseConditions, 0, 10)
	assert.ErrorIs(t, err, ode.ErrUnsupportedMethod)

	bad = m
	bad.Steps = 0
	_, err = bad.Run(baseConditions, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	bad = m
	bad.Stages = -1
	_, err = bad.Run(baseConditions, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRunFillWater(t *testing.T) {
	m := DefaultModel()
	m.Fill = FillWater
	res, err := m.Run(baseConditions, 0, 600)
	require.NoError(t, err)

	first := res.State(0)
	assert.InEpsilon(t, get_water().PureConcentration(), first[SlotWater], 1e-12)
	assert.Equal(t, 0.0, first[SlotAnhydride])

	// anhydride builds up from the feed
	bs := res.Series(0, SlotAnhydride)
	assert.Greater(t, bs[len(bs)-1], 0.0002)
	monotone(t, "acid", res.Series(0, SlotAcid), true)
}

func TestRunPacking(t *testing.T) {
	pk, err := GlassBeads(200, 80, 0.3, 2, 5e-3)
	require.NoError(t, err)

	m := DefaultModel()
	m.Volume = 80
	m.Stages = 2
	m.Packing = &pk
	m.Steps = 2000
	res, err := m.Run(baseConditions, 0, 1200)
	require.NoError(t, err)
	require.NoError(t, res.Check())
	assert.Equal(t, 5, res.Width)
	assert.Equal(t, 10, res.Dim())

	// the beads start at feed temperature and lag behind the liquid
	for _, stage := range []int{0, 1} {
		liquid := res.Series(stage, SlotTemperature)
		solid := res.Series(stage, SlotSolid)
		assert.InDelta(t, 298.15, solid[0], 1e-12)
		last := len(solid) - 1
		assert.Greater(t, solid[last], 298.15)
		assert.LessOrEqual(t, solid[last], liquid[last]+1e-9)
	}

	// the packing of the caller is not shared with the run
	pk.U = 0
	assert.Equal(t, 5e-3, res.Segments[0].Params.Packing.U)
}

func TestRunAdaptive(t *testing.T) {
	m := DefaultModel()
	m.Adaptive = &ode.AdaptiveConfig{AbsoluteTolerance: 1e-12, RelativeTolerance: 1e-10}
	m.Method = ""
	m.Steps = 0
	res, err := m.Run(baseConditions, 0, 3600, Breakpoint{Time: 1800, Conditions: baseConditions})
	require.NoError(t, err)

	fixed, err := DefaultModel().Run(baseConditions, 0, 3600)
	require.NoError(t, err)
	assert.InDeltaSlice(t, fixed.Final()[:3], res.Final()[:3], 1e-9)
	assert.InDelta(t, fixed.Final()[SlotTemperature], res.Final()[SlotTemperature], 1e-5)
	assert.Equal(t, 0, res.Segments[0].Steps)
	assert.Greater(t, res.Stats.StepCount, 0)
}

func TestRunLogsSegments(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	m := DefaultModel()
	m.Logger = logger
	_, err := m.Run(baseConditions, 0, 100, Breakpoint{Time: 50, Conditions: baseConditions.WithWaterFlow(100)})
	require.NoError(t, err)

	require.Len(t, hook.AllEntries(), 2)
	e := hook.LastEntry()
	assert.Equal(t, 1, e.Data["segment"])
	assert.Equal(t, 50.0, e.Data["start"])
	assert.InDelta(t, 112.0/60, e.Data["total_flow"].(float64), 1e-12)
}

func TestRunModel(t *testing.T) {
	res, err := RunModel(25, 160, 12, 500, [2]float64{0, 3600}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 302.713, res.Final()[SlotTemperature], 0.01)

	res, err = RunModel(25, 160, 12, 500, [2]float64{0, 3600}, 5)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Dim())
	// staging brings the outlet closer to plug flow, more conversion
	single, err := RunModel(25, 160, 12, 500, [2]float64{0, 3600}, 1)
	require.NoError(t, err)
	assert.Less(t, res.Final()[res.Index(4, SlotAnhydride)], single.Final()[SlotAnhydride])

	_, err = RunModel(25, 160, 12, 0, [2]float64{0, 3600}, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = RunModel(25, 0, 0, 500, [2]float64{0, 3600}, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = RunModel(25, 160, 12, 500, [2]float64{0, 3600}, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.False(t, math.IsNaN(single.Final()[SlotTemperature]))
}

func TestGlassBeads(t *testing.T) {
	pk, err := GlassBeads(200, 80, 0.3, 4, 5e-3)
	require.NoError(t, err)
	assert.InDelta(t, 6*120/0.3/4, pk.Area, 1e-9)
	assert.InDelta(t, 5e-3*600, pk.UA(), 1e-9)
	assert.Equal(t, get_glass(), pk.Phase)
	assert.InDelta(t, 0.4, VoidFraction(200, 80), 1e-12)

	_, err = GlassBeads(200, 250, 0.3, 1, 5e-3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GlassBeads(200, 200, 0.3, 1, 5e-3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GlassBeads(-100, -50, 0.3, 1, 5e-3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GlassBeads(200, -10, 0.3, 1, 5e-3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GlassBeads(200, 80, 0, 1, 5e-3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GlassBeads(200, 80, 0.3, 0, 5e-3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
