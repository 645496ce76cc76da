package main

import (
	"fmt"
	"math"
	"time"

	"reactor_sim/calibration"
	"reactor_sim/reactor"
	"reactor_sim/sensorlog"
)

/*
Reads the operating conditions of an experiment from its sensor log.

	Args:
	    l: sensor log
	    sc: start marker and the flow and feed temperature tags

	Returns:
	    the conditions after the pump start, flows in ml/min and the feed
	    temperature in °C

	Notes:
	    The flows are medians, as the pumps are sometimes primed before the
	    start and the signal is noisy. The feed temperature is the lowest
	    reading, taken before the reaction heats the tank.
*/
func conditionsFromLog(l *sensorlog.Log, sc SensorConfig) (reactor.Conditions, error) {
	start, err := l.StartTime(sc.FlowTag, sc.Threshold)
	if err != nil {
		return reactor.Conditions{}, err
	}

	after := func(tag string) (sensorlog.Series, error) {
		s, err := l.Extract(tag, start, 0)
		if err != nil {
			return sensorlog.Series{}, err
		}
		s = s.After(0)
		if len(s.Values) == 0 {
			return sensorlog.Series{}, fmt.Errorf("%s: %w", tag, ErrNoOverlap)
		}
		return s, nil
	}

	water, err := after(sc.WaterTag)
	if err != nil {
		return reactor.Conditions{}, err
	}
	anhydride, err := after(sc.AnhydrideTag)
	if err != nil {
		return reactor.Conditions{}, err
	}
	temperature, err := after(sc.TemperatureTag)
	if err != nil {
		return reactor.Conditions{}, err
	}

	return reactor.Conditions{
		FeedTemperature: temperature.Min(),
		WaterFlow:       water.Median(),
		AnhydrideFlow:   anhydride.Median(),
	}, nil
}

/*
Averages the steady stretches of a conductivity log.

	Args:
	    l: sensor log
	    tag: conductivity tag, µS/cm
	    windows: sample ranges of the tag and their feed temperatures

	Returns:
	    one steady run per window
*/
func steadyRuns(l *sensorlog.Log, tag string, windows []SteadyWindow) ([]*calibration.SteadyRun, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("no [steady.*] windows for %s", tag)
	}
	// windows count samples, the time origin is irrelevant
	s, err := l.Extract(tag, time.Time{}, 0)
	if err != nil {
		return nil, err
	}
	runs := make([]*calibration.SteadyRun, 0, len(windows))
	for _, w := range windows {
		c := s.Mean(w.From, w.To)
		if math.IsNaN(c) {
			return nil, fmt.Errorf("[steady.%s]: samples [%d, %d) outside the %d of %s", w.Name, w.From, w.To, len(s.Values), tag)
		}
		runs = append(runs, &calibration.SteadyRun{Temperature: w.Temperature, Conductivity: c})
	}
	return runs, nil
}
