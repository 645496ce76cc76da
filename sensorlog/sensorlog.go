// Package sensorlog reads historian exports of the reactor rig and aligns
// the measured series with the start of an experiment.
package sensorlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	ErrUnknownTag = errors.New("sensorlog: unknown tag")
	ErrNoStart    = errors.New("sensorlog: no start marker")
)

// Record is one row of the export, TagName;DateTime;vValue.
type Record struct {
	TagName  string `csv:"TagName"`
	DateTime string `csv:"DateTime"`
	Value    string `csv:"vValue"`
}

type Sample struct {
	Time  time.Time
	Value float64
}

// Log holds the valid samples of every tag in time order.
type Log struct {
	samples map[string][]Sample
}

// Tags returns the tag names in the log, sorted.
func (l *Log) Tags() []string {
	tags := make([]string, 0, len(l.samples))
	for tag := range l.samples {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (l *Log) Samples(tag string) ([]Sample, error) {
	ss, ok := l.samples[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	return ss, nil
}

func parseTime(s string) (time.Time, error) {
	// fractional seconds are dropped
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return time.Parse(timeLayout, strings.TrimSpace(s))
}

/*
Reads a semicolon separated historian export.

	Args:
	    r: export with a TagName;DateTime;vValue header, extra columns ignored

	Returns:
	    the samples grouped by tag

	Notes:
	    Rows whose value is empty or "(null)" are skipped. A malformed time or
	    number is an error naming the line.
*/
func Read(r io.Reader) (*Log, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var rows []*Record
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("sensorlog: %w", err)
	}

	l := &Log{samples: map[string][]Sample{}}
	for i, row := range rows {
		v := strings.TrimSpace(row.Value)
		if v == "" || v == "(null)" {
			continue
		}
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("sensorlog: line %d: %w", i+2, err)
		}
		t, err := parseTime(row.DateTime)
		if err != nil {
			return nil, fmt.Errorf("sensorlog: line %d: %w", i+2, err)
		}
		l.samples[row.TagName] = append(l.samples[row.TagName], Sample{Time: t, Value: value})
	}
	for _, ss := range l.samples {
		sort.SliceStable(ss, func(i, j int) bool { return ss[i].Time.Before(ss[j].Time) })
	}
	return l, nil
}

func Load(path string) (*Log, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file)
}

// StartTime returns the time of the first sample at which the flow of
// flowTag rises across threshold, the moment the feed pump is switched on.
func (l *Log) StartTime(flowTag string, threshold float64) (time.Time, error) {
	ss, err := l.Samples(flowTag)
	if err != nil {
		return time.Time{}, err
	}
	for i := 1; i < len(ss); i++ {
		if ss[i-1].Value < threshold && ss[i].Value > threshold {
			return ss[i].Time, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s never rises above %g", ErrNoStart, flowTag, threshold)
}

// Series is a measured signal against elapsed minutes.
type Series struct {
	Tag     string
	Elapsed []float64 // min, negative before the start
	Values  []float64
}

// Extract returns the samples of tag relative to start, each value shifted
// by offset.
func (l *Log) Extract(tag string, start time.Time, offset float64) (Series, error) {
	ss, err := l.Samples(tag)
	if err != nil {
		return Series{}, err
	}
	s := Series{
		Tag:     tag,
		Elapsed: make([]float64, len(ss)),
		Values:  make([]float64, len(ss)),
	}
	for i, smp := range ss {
		s.Elapsed[i] = smp.Time.Sub(start).Minutes()
		s.Values[i] = smp.Value + offset
	}
	return s, nil
}

// Seconds returns the elapsed times in seconds.
func (s Series) Seconds() []float64 {
	out := make([]float64, len(s.Elapsed))
	for i, m := range s.Elapsed {
		out[i] = m * 60
	}
	return out
}

// Median returns the empirical median, the lower middle value for an even
// count, NaN for an empty series.
func (s Series) Median() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Min returns the lowest value, NaN for an empty series.
func (s Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Mean returns the mean of the values in [from, to) by sample index.
func (s Series) Mean(from, to int) float64 {
	if from < 0 || to > len(s.Values) || from >= to {
		return math.NaN()
	}
	return stat.Mean(s.Values[from:to], nil)
}

// After returns the part of the series at or after the given minute.
func (s Series) After(minute float64) Series {
	i := sort.SearchFloat64s(s.Elapsed, minute)
	return Series{Tag: s.Tag, Elapsed: s.Elapsed[i:], Values: s.Values[i:]}
}
