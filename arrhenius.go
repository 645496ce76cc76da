package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"reactor_sim/calibration"
	"reactor_sim/reactor"
	"reactor_sim/sensorlog"
)

type ArrheniusEstimate struct {
	Curve        calibration.ExpOffset
	Temperatures []float64 // °C
	K            []float64 // ml/mol s
	Law          reactor.Arrhenius
	Line         calibration.Line
}

/*
Estimates the Arrhenius parameters from steady-state runs.

	Args:
	    cfg: configuration; [calibration] names the standards and either a
	         runs file or a conductivity log whose [steady.*] windows are
	         averaged, [operation] the shared flows of the runs
	    logger

	Notes:
	    Conductivity is turned into acid concentration with the exponential
	    curve fitted to the standards, then into k by the steady-state
	    balance of a single stirred tank of the configured volume.
*/
func estimateArrhenius(cfg *Config, logger logrus.FieldLogger) (*ArrheniusEstimate, error) {
	cc := cfg.Calibration
	if cc.Standards == "" || (cc.Runs == "" && cc.Log == "") {
		return nil, fmt.Errorf("[calibration] needs standards and either runs or a log")
	}

	logger.WithField("path", cc.Standards).Info("calibration standards")
	points, err := calibration.LoadPoints(cc.Standards)
	if err != nil {
		return nil, err
	}
	curve, err := calibration.FitPoints(points, cc.Guess)
	if err != nil {
		return nil, err
	}
	logger.WithField("sse", curve.SSE).Infof("calibration curve: y = %s", curve)

	var runs []*calibration.SteadyRun
	if cc.Log != "" {
		logger.WithFields(logrus.Fields{"path": cc.Log, "tag": cc.Tag}).Info("steady-state windows")
		sl, err := sensorlog.Load(cc.Log)
		if err != nil {
			return nil, err
		}
		if runs, err = steadyRuns(sl, cc.Tag, cc.Windows); err != nil {
			return nil, err
		}
	} else {
		logger.WithField("path", cc.Runs).Info("steady-state runs")
		if runs, err = calibration.LoadRuns(cc.Runs); err != nil {
			return nil, err
		}
	}

	m := cfg.Model
	m.Stages = 1
	m.Packing = nil
	p, err := m.Params(cfg.Conditions)
	if err != nil {
		return nil, err
	}
	ts, ks, err := calibration.RateConstants(curve, runs, p)
	if err != nil {
		return nil, err
	}
	law, line, err := calibration.FitArrhenius(ts, ks, m.Kinetics.R)
	if err != nil {
		return nil, err
	}
	for i := range ts {
		logger.WithFields(logrus.Fields{"temperature_c": ts[i], "k": ks[i]}).Debug("rate constant")
	}
	logger.WithFields(logrus.Fields{
		"k0": law.K0,
		"ea": law.Ea,
		"r2": line.RSquared,
	}).Info("arrhenius fit")

	return &ArrheniusEstimate{
		Curve:        curve,
		Temperatures: ts,
		K:            ks,
		Law:          law,
		Line:         line,
	}, nil
}
