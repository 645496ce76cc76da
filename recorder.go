package main

import (
	"os"
	"strconv"

	"github.com/gocarina/gocsv"

	"reactor_sim/reactor"
)

// RecordRow is one stage at one sample time.
type RecordRow struct {
	Time        float64 `csv:"time_s"`
	Stage       int     `csv:"stage"`
	Water       float64 `csv:"water"`
	Anhydride   float64 `csv:"anhydride"`
	Acid        float64 `csv:"acid"`
	Temperature float64 `csv:"temperature_c"`
	// empty without packing
	Solid string `csv:"solid_c"`
}

type Recorder struct {
	n_stage  int
	n_sample int
	solid    bool
	rows     []*RecordRow
}

func NewRecorder(n_stage int, n_sample int, solid bool) *Recorder {
	var r Recorder
	r.n_stage = n_stage
	r.n_sample = n_sample
	r.solid = solid
	r.rows = make([]*RecordRow, 0, n_stage*n_sample)
	return &r
}

/*
Records the state of every stage at one sample time.

	Args:
	    t: time, s
	    cs: compartment of each stage, K and mol/ml
*/
func (r *Recorder) recording(t float64, cs []reactor.Compartment) {
	for i, c := range cs {
		row := &RecordRow{
			Time:        t,
			Stage:       i,
			Water:       c.Water,
			Anhydride:   c.Anhydride,
			Acid:        c.Acid,
			Temperature: reactor.ToCelsius(c.Temperature),
		}
		if r.solid {
			row.Solid = strconv.FormatFloat(reactor.ToCelsius(c.SolidTemperature), 'g', -1, 64)
		}
		r.rows = append(r.rows, row)
	}
}

// RecordResult records every sample of a finished run.
func RecordResult(res *reactor.Result) *Recorder {
	r := NewRecorder(res.Stages, res.Len(), res.Width > reactor.SlotSolid)
	cs := make([]reactor.Compartment, res.Stages)
	for n := 0; n < res.Len(); n++ {
		for i := range cs {
			cs[i] = res.Compartment(n, i)
		}
		r.recording(res.Time(n), cs)
	}
	return r
}

func (r *Recorder) Rows() []*RecordRow {
	return r.rows
}

// Save writes the records as CSV, one row per stage and sample time.
func (r *Recorder) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(&r.rows, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
