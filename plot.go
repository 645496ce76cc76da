package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"reactor_sim/reactor"
)

func xys(xs, ys []float64, scale float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i] * scale
		pts[i].Y = ys[i]
	}
	return pts
}

/*
Draws the liquid temperature of every stage against time.

	Args:
	    res: model result
	    fits: measured probe temperatures drawn as points, may be nil
	    path: image file, the format follows its extension

	Notes:
	    Time is shown in minutes.
*/
func savePlot(res *reactor.Result, fits []ProbeFit, path string) error {
	p := plot.New()
	p.Title.Text = "Reactor temperature"
	p.X.Label.Text = "Elapsed time (min)"
	p.Y.Label.Text = "Temperature (°C)"
	p.Add(plotter.NewGrid())

	times := res.Times()
	for i := 0; i < res.Stages; i++ {
		line, err := plotter.NewLine(xys(times, res.TemperatureCelsius(i), 1.0/60))
		if err != nil {
			return err
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("stage %d", i+1), line)
	}

	for _, f := range fits {
		sc, err := plotter.NewScatter(xys(f.Times, f.Measured, 1.0/60))
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = plotutil.Color(f.Stage)
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add(f.Tag, sc)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
