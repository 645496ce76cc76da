package calibration

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"reactor_sim/reactor"
)

// Point is one standard of the conductivity calibration curve.
type Point struct {
	Conductivity  float64 `csv:"conductivity"`  // µS/cm
	Concentration float64 `csv:"concentration"` // acetic acid, mol/L
}

// SteadyRun is the steady-state conductivity of a run at one feed
// temperature.
type SteadyRun struct {
	Temperature  float64 `csv:"temperature_c"`
	Conductivity float64 `csv:"conductivity"`
}

func unmarshalFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadPoints reads calibration standards from a CSV file with the columns
// conductivity,concentration.
func LoadPoints(path string) ([]*Point, error) {
	var pp []*Point
	if err := unmarshalFile(path, &pp); err != nil {
		return nil, err
	}
	return pp, nil
}

// LoadRuns reads steady-state runs from a CSV file with the columns
// temperature_c,conductivity.
func LoadRuns(path string) ([]*SteadyRun, error) {
	var rr []*SteadyRun
	if err := unmarshalFile(path, &rr); err != nil {
		return nil, err
	}
	return rr, nil
}

// FitPoints fits the exponential calibration curve to the standards.
func FitPoints(pp []*Point, guess float64) (ExpOffset, error) {
	x := make([]float64, len(pp))
	y := make([]float64, len(pp))
	for i, p := range pp {
		x[i], y[i] = p.Conductivity, p.Concentration
	}
	return FitExpOffset(x, y, guess)
}

/*
Converts steady-state runs into rate constants.

	Args:
	    curve: conductivity to concentration curve, mol/L
	    runs: steady-state conductivities at their feed temperatures
	    p: single-stage parameter set shared by all runs; its feed
	       concentrations, flow and volume are used

	Returns:
	    the feed temperature, °C, and rate constant, ml/mol s, of each run
*/
func RateConstants(curve ExpOffset, runs []*SteadyRun, p reactor.Params) ([]float64, []float64, error) {
	ts := make([]float64, len(runs))
	ks := make([]float64, len(runs))
	for i, run := range runs {
		acid := curve.Eval(run.Conductivity) * 1e-3
		k, err := SteadyStateRateConstant(acid, p.FeedWater, p.FeedAnhydride, p.TotalFlow(), p.Volume)
		if err != nil {
			return nil, nil, fmt.Errorf("run %d at %g °C: %w", i, run.Temperature, err)
		}
		ts[i], ks[i] = run.Temperature, k
	}
	return ts, ks, nil
}
