package main

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"reactor_sim/reactor"
	"reactor_sim/sensorlog"
)

var ErrNoOverlap = errors.New("no sensor samples inside the simulated span")

type ErrorList []error

func (e ErrorList) Error() string {
	var str string
	for i, err := range e {
		if err != nil {
			str += fmt.Sprintf("  case %d: %s", i, err.Error())
		}
	}
	return str
}

func (e ErrorList) AllNil() bool {
	for _, err := range e {
		if err != nil {
			return false
		}
	}
	return true
}

// ProbeFit is the agreement of one probe with its model stage.
type ProbeFit struct {
	Tag   string
	Stage int
	// Measured and Model are °C at the sample times, s.
	Times    []float64
	Measured []float64
	Model    []float64
	RMSE     float64
	Bias     float64 // mean of model - measured
}

// fitCurve fits the piecewise linear curve through (xs, ys). Predict
// holds the end values outside [xs[0], xs[n-1]].
func fitCurve(xs, ys []float64) (*interp.PiecewiseLinear, error) {
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &pl, nil
}

/*
Compares the model temperatures with a sensor log.

	Args:
	    res: model result, its time origin being the pump start of the log
	    log: sensor log
	    sc: start marker and alignment settings
	    probes: temperature tags and the stage each one sits in

	Returns:
	    the fit of each probe that could be compared, and an ErrorList
	    naming the probes that could not

	Notes:
	    Only samples inside the simulated span are used. With sc.Align the
	    measured series is shifted so its first sample equals the model.
*/
func compare(res *reactor.Result, log *sensorlog.Log, sc SensorConfig, probes []Probe) ([]ProbeFit, error) {
	start, err := log.StartTime(sc.FlowTag, sc.Threshold)
	if err != nil {
		return nil, err
	}

	times := res.Times()
	t0, t1 := times[0], times[len(times)-1]

	var (
		fits []ProbeFit
		errs ErrorList
	)
	for _, pb := range probes {
		if pb.Stage < 0 || pb.Stage >= res.Stages {
			errs = append(errs, fmt.Errorf("%s: stage %d outside 0..%d", pb.Tag, pb.Stage, res.Stages-1))
			continue
		}
		series, err := log.Extract(pb.Tag, start, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		model, err := fitCurve(times, res.TemperatureCelsius(pb.Stage))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pb.Tag, err))
			continue
		}

		fit := ProbeFit{Tag: pb.Tag, Stage: pb.Stage}
		for i, t := range series.Seconds() {
			if t < t0 || t > t1 {
				continue
			}
			fit.Times = append(fit.Times, t)
			fit.Measured = append(fit.Measured, series.Values[i])
			fit.Model = append(fit.Model, model.Predict(t))
		}
		if len(fit.Times) == 0 {
			errs = append(errs, fmt.Errorf("%s: %w", pb.Tag, ErrNoOverlap))
			continue
		}
		if sc.Align {
			floats.AddConst(fit.Model[0]-fit.Measured[0], fit.Measured)
		}

		diff := make([]float64, len(fit.Model))
		floats.SubTo(diff, fit.Model, fit.Measured)
		fit.RMSE = floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))
		fit.Bias = stat.Mean(diff, nil)
		fits = append(fits, fit)
	}

	if len(errs) == 0 {
		return fits, nil
	}
	return fits, errs
}
