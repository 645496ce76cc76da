package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulate(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	dir := filepath.Join(t.TempDir(), "out")
	fits, err := simulate(cfg, dir, true, logger)
	require.NoError(t, err)
	assert.Nil(t, fits)

	for _, name := range []string{"result.csv", "temperature.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0))
	}

	var segments int
	for _, e := range hook.AllEntries() {
		if e.Message == "integrating segment" {
			segments++
		}
	}
	assert.Equal(t, 1, segments)
}

func TestSimulateInvalid(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.Model.Volume = 0
	logger, _ := test.NewNullLogger()

	_, err = simulate(cfg, t.TempDir(), false, logger)
	assert.Error(t, err)
}

func TestEstimateArrhenius(t *testing.T) {
	cfg, err := loadConfig("conf/reactor.ini")
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()

	est, err := estimateArrhenius(cfg, logger)
	require.NoError(t, err)
	assert.Len(t, est.K, 3)
	assert.Greater(t, est.K[2], est.K[0])
	assert.Greater(t, est.Law.Ea, 0.0)
	assert.Greater(t, est.Law.K0, 0.0)
	assert.Greater(t, est.Line.RSquared, 0.99)
	assert.Equal(t, "arrhenius fit", hook.LastEntry().Message)

	cfg.Calibration.Runs = ""
	_, err = estimateArrhenius(cfg, logger)
	assert.Error(t, err)
}

func TestSimulateConditionsFromLog(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.Sensor = logSensorConfig()
	cfg.Sensor.Path = writeRunLog(t)
	cfg.Model.Steps = 50
	cfg.End = 600
	logger, hook := test.NewNullLogger()

	fits, err := simulate(cfg, t.TempDir(), false, logger)
	require.NoError(t, err)
	assert.Nil(t, fits)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "conditions from sensor log" {
			found = true
			assert.Equal(t, 22.5, e.Data["feed_temperature"])
			assert.Equal(t, 159.0, e.Data["water_flow"])
			assert.Equal(t, 12.0, e.Data["anhydride_flow"])
		}
	}
	assert.True(t, found)

	cfg.Sensor.WaterTag = "P199_Flow"
	_, err = simulate(cfg, t.TempDir(), false, logger)
	assert.Error(t, err)
}

func TestEstimateArrheniusFromLog(t *testing.T) {
	cfg, err := loadConfig("conf/reactor.ini")
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	fromRuns, err := estimateArrhenius(cfg, logger)
	require.NoError(t, err)

	// the same conductivities averaged from a log
	cfg.Calibration.Runs = ""
	cfg.Calibration.Log = writeRunLog(t)
	cfg.Calibration.Windows = []SteadyWindow{
		{Name: "27", Temperature: 27, From: 0, To: 3},
		{Name: "30", Temperature: 30, From: 3, To: 5},
		{Name: "35", Temperature: 35, From: 5, To: 8},
	}
	fromLog, err := estimateArrhenius(cfg, logger)
	require.NoError(t, err)
	assert.InDeltaSlice(t, fromRuns.K, fromLog.K, 1e-12)
	assert.InDelta(t, fromRuns.Law.Ea, fromLog.Law.Ea, 1e-6)

	cfg.Calibration.Windows = nil
	_, err = estimateArrhenius(cfg, logger)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	err := run(Options{OutputDataDir: t.TempDir(), Mode: "simulate", LogLevel: "error"})
	assert.NoError(t, err)

	err = run(Options{Mode: "fly", LogLevel: "error"})
	assert.Error(t, err)

	err = run(Options{Mode: "simulate", LogLevel: "loud"})
	assert.Error(t, err)
}
