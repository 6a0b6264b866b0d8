// Package plot renders gap distributions and randomisation spread charts.
// The output format follows the file extension (png, svg, pdf).
package plot

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/signalnine/gapbench/internal/analysis"
)

// CDF draws one line per group: the fraction of runs with gap at most t.
func CDF(groups []analysis.GroupSummary, path string) error {
	if len(groups) == 0 {
		return fmt.Errorf("no groups to plot")
	}
	p := plot.New()
	p.Title.Text = "Primal gap distribution"
	p.X.Label.Text = "Primal gap threshold"
	p.Y.Label.Text = "Fraction of runs"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false
	p.Legend.Left = false
	p.Add(plotter.NewGrid())

	for i, g := range groups {
		pts := make(plotter.XYs, len(g.CDF))
		for j, pt := range g.CDF {
			pts[j].X = pt.Threshold
			pts[j].Y = pt.Fraction
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(g.Name, line)
	}
	p.Legend.XOffs = -vg.Points(4)
	p.Legend.YOffs = vg.Points(4)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Spread draws best against average cost per instance on log-log axes with
// the y = x reference line. Points with a non-positive cost cannot be placed
// on a log axis and are dropped; the number dropped is returned.
func Spread(group string, points []analysis.SpreadPoint, path string) (int, error) {
	pts := make(plotter.XYs, 0, len(points))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, sp := range points {
		if sp.Min <= 0 || sp.Mean <= 0 {
			continue
		}
		x := float64(sp.Min)
		pts = append(pts, plotter.XY{X: x, Y: sp.Mean})
		lo, hi = math.Min(lo, x), math.Max(hi, x)
	}
	dropped := len(points) - len(pts)
	if len(pts) == 0 {
		return dropped, fmt.Errorf("group %s: no instance with a positive cost", group)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Best vs average cost (%s)", group)
	p.X.Label.Text = "Best cost (min across seeds)"
	p.Y.Label.Text = "Average cost (mean across seeds)"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return dropped, fmt.Errorf("group %s: %w", group, err)
	}
	scatter.GlyphStyle.Color = plotutil.Color(0)
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return dropped, fmt.Errorf("reference line: %w", err)
	}
	ref.Color = plotutil.Color(1)
	ref.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(ref)
	p.Legend.Add("y = x", ref)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return dropped, fmt.Errorf("saving %s: %w", path, err)
	}
	return dropped, nil
}
