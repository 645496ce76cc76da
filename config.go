package main

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"reactor_sim/ode"
	"reactor_sim/reactor"
)

type SensorConfig struct {
	Path      string
	FlowTag   string
	Threshold float64
	// Align shifts each probe so its first sample after the start matches
	// the model, leaving only the change in temperature to compare.
	Align bool

	// Conditions takes the initial operating conditions from the log
	// instead of [operation].
	Conditions     bool
	WaterTag       string
	AnhydrideTag   string
	TemperatureTag string
}

// Probe maps a temperature tag of the sensor log onto a model stage.
type Probe struct {
	Tag   string
	Stage int
}

// SteadyWindow is a steady stretch of the conductivity log, samples
// [From, To), held at one feed temperature.
type SteadyWindow struct {
	Name        string
	Temperature float64 // °C
	From, To    int
}

type CalibrationConfig struct {
	Standards string
	Runs      string
	Guess     float64

	// Log and Windows replace Runs when Log is set.
	Log     string
	Tag     string
	Windows []SteadyWindow
}

type Config struct {
	Model       reactor.Model
	Conditions  reactor.Conditions
	Start, End  float64
	Breakpoints []reactor.Breakpoint

	Sensor      SensorConfig
	Probes      []Probe
	Calibration CalibrationConfig

	LogLevel string
}

/*
Loads the run configuration from an ini file.

	Args:
	    path: ini file; an empty path gives the defaults of the stirred tank

	Returns:
	    the configuration with every missing key at its default

	Notes:
	    Breakpoints are read from the sections [breakpoint.<name>]. Each one
	    needs a time and overrides only the conditions it names; the others
	    carry over from the breakpoint before it.
*/
func loadConfig(path string) (*Config, error) {
	file := ini.Empty()
	if path != "" {
		var err error
		if file, err = ini.Load(path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return parseConfig(file)
}

func parseConfig(file *ini.File) (*Config, error) {
	m := reactor.DefaultModel()

	rc := file.Section("reactor")
	m.Volume = rc.Key("volume").MustFloat64(m.Volume)
	m.Stages = rc.Key("stages").MustInt(m.Stages)
	switch fill := rc.Key("fill").In("feed", []string{"feed", "water"}); fill {
	case "water":
		m.Fill = reactor.FillWater
	default:
		m.Fill = reactor.FillFeed
	}

	kn := file.Section("kinetics")
	m.Kinetics.K0 = kn.Key("k0").MustFloat64(m.Kinetics.K0)
	m.Kinetics.Ea = kn.Key("ea").MustFloat64(m.Kinetics.Ea)
	m.Kinetics.R = kn.Key("r").MustFloat64(m.Kinetics.R)
	m.Kinetics.Enthalpy = kn.Key("enthalpy").MustFloat64(m.Kinetics.Enthalpy)

	lq := file.Section("liquid")
	m.Liquid.Density = lq.Key("density").MustFloat64(m.Liquid.Density)
	m.Liquid.HeatCapacity = lq.Key("heat_capacity").MustFloat64(m.Liquid.HeatCapacity)

	if pk := file.Section("packing"); pk.Key("enabled").MustBool(false) {
		beads, err := reactor.GlassBeads(
			pk.Key("bed_volume").MustFloat64(0),
			m.Volume,
			pk.Key("bead_diameter").MustFloat64(0.3),
			m.Stages,
			pk.Key("u").MustFloat64(0),
		)
		if err != nil {
			return nil, fmt.Errorf("[packing]: %w", err)
		}
		m.Packing = &beads
	}

	sv := file.Section("solver")
	method, err := ode.ParseMethod(sv.Key("method").MustString(string(m.Method)))
	if err != nil {
		return nil, fmt.Errorf("[solver]: %w", err)
	}
	m.Method = method
	m.Steps = sv.Key("steps").MustInt(m.Steps)
	if method == ode.DoPri5 || sv.Key("adaptive").MustBool(false) {
		m.Adaptive = &ode.AdaptiveConfig{
			AbsoluteTolerance: sv.Key("abs_tol").MustFloat64(1e-10),
			RelativeTolerance: sv.Key("rel_tol").MustFloat64(1e-8),
			MaxStepSize:       sv.Key("max_step").MustFloat64(0),
		}
	}

	op := file.Section("operation")
	cfg := &Config{
		Model: m,
		Conditions: reactor.Conditions{
			FeedTemperature: op.Key("feed_temperature").MustFloat64(25),
			WaterFlow:       op.Key("water_flow").MustFloat64(160),
			AnhydrideFlow:   op.Key("anhydride_flow").MustFloat64(12),
		},
		Start: op.Key("t_start").MustFloat64(0),
		End:   op.Key("t_end").MustFloat64(3600),
		Sensor: SensorConfig{
			Path:           file.Section("sensor").Key("path").String(),
			FlowTag:        file.Section("sensor").Key("flow_tag").MustString("P120_Flow"),
			Threshold:      file.Section("sensor").Key("threshold").MustFloat64(1),
			Align:          file.Section("sensor").Key("align").MustBool(true),
			Conditions:     file.Section("sensor").Key("conditions").MustBool(false),
			WaterTag:       file.Section("sensor").Key("water_tag").MustString("P100_Flow"),
			AnhydrideTag:   file.Section("sensor").Key("anhydride_tag").MustString("P120_Flow"),
			TemperatureTag: file.Section("sensor").Key("temperature_tag").MustString("T200_PV"),
		},
		Calibration: CalibrationConfig{
			Standards: file.Section("calibration").Key("standards").String(),
			Runs:      file.Section("calibration").Key("runs").String(),
			Guess:     file.Section("calibration").Key("guess").MustFloat64(-0.001),
			Log:       file.Section("calibration").Key("log").String(),
			Tag:       file.Section("calibration").Key("tag").MustString("Q210_PV"),
		},
		LogLevel: file.Section("log").Key("level").MustString("info"),
	}

	if cfg.Breakpoints, err = parseBreakpoints(file, cfg.Conditions); err != nil {
		return nil, err
	}

	if cfg.Calibration.Windows, err = parseWindows(file); err != nil {
		return nil, err
	}

	for _, key := range file.Section("probes").Keys() {
		stage, err := key.Int()
		if err != nil {
			return nil, fmt.Errorf("[probes] %s: %w", key.Name(), err)
		}
		cfg.Probes = append(cfg.Probes, Probe{Tag: key.Name(), Stage: stage})
	}
	return cfg, nil
}

func parseBreakpoints(file *ini.File, initial reactor.Conditions) ([]reactor.Breakpoint, error) {
	var secs []*ini.Section
	for _, sec := range file.Sections() {
		if strings.HasPrefix(sec.Name(), "breakpoint.") {
			if !sec.HasKey("time") {
				return nil, fmt.Errorf("[%s]: missing time", sec.Name())
			}
			secs = append(secs, sec)
		}
	}
	sort.SliceStable(secs, func(i, j int) bool {
		return secs[i].Key("time").MustFloat64(0) < secs[j].Key("time").MustFloat64(0)
	})

	bps := make([]reactor.Breakpoint, 0, len(secs))
	c := initial
	for _, sec := range secs {
		t, err := sec.Key("time").Float64()
		if err != nil {
			return nil, fmt.Errorf("[%s] time: %w", sec.Name(), err)
		}
		if sec.HasKey("feed_temperature") {
			c = c.WithFeedTemperature(sec.Key("feed_temperature").MustFloat64(c.FeedTemperature))
		}
		if sec.HasKey("water_flow") {
			c = c.WithWaterFlow(sec.Key("water_flow").MustFloat64(c.WaterFlow))
		}
		if sec.HasKey("anhydride_flow") {
			c = c.WithAnhydrideFlow(sec.Key("anhydride_flow").MustFloat64(c.AnhydrideFlow))
		}
		bps = append(bps, reactor.Breakpoint{Time: t, Conditions: c})
	}
	return bps, nil
}

// parseWindows reads the [steady.<name>] sections in file order.
func parseWindows(file *ini.File) ([]SteadyWindow, error) {
	var ws []SteadyWindow
	for _, sec := range file.Sections() {
		if !strings.HasPrefix(sec.Name(), "steady.") {
			continue
		}
		temperature, err := sec.Key("temperature").Float64()
		if err != nil {
			return nil, fmt.Errorf("[%s] temperature: %w", sec.Name(), err)
		}
		from, err := sec.Key("from").Int()
		if err != nil {
			return nil, fmt.Errorf("[%s] from: %w", sec.Name(), err)
		}
		to, err := sec.Key("to").Int()
		if err != nil {
			return nil, fmt.Errorf("[%s] to: %w", sec.Name(), err)
		}
		ws = append(ws, SteadyWindow{
			Name:        strings.TrimPrefix(sec.Name(), "steady."),
			Temperature: temperature,
			From:        from,
			To:          to,
		})
	}
	return ws, nil
}
