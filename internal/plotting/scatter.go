package plotting

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/monitoring"
)

const scatterAlpha = 0.5

// Humidity renders the relative humidity scatter plots whose columns are
// present and returns the written paths. A plot whose columns are missing
// is skipped with a log line.
func (r *Renderer) Humidity(t *measurement.Table, base string) ([]string, error) {
	schema := t.Schema()
	var paths []string

	if missing := schema.Missing(RHModuleTempColumns...); len(missing) > 0 {
		monitoring.Opsf("%s: skipping %s, missing %v", base, KindRHModuleTemp, missing)
	} else {
		path, err := r.scatter(t, base, KindRHModuleTemp,
			"Relative humidity vs module temperature", "Module temperature (°C)",
			[]series{{measurement.ModA, tabBlue}, {measurement.ModB, tabOrange}})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	if missing := schema.Missing(RHGHIColumns...); len(missing) > 0 {
		monitoring.Opsf("%s: skipping %s, missing %v", base, KindRHGHI, missing)
	} else {
		path, err := r.scatter(t, base, KindRHGHI,
			"Relative humidity vs GHI", measurement.Label(measurement.GHI),
			[]series{{measurement.GHI, tabGreen}})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type series struct {
	column string
	colour color.RGBA
}

// scatter plots each series against RH on the x axis.
func (r *Renderer) scatter(t *measurement.Table, base, kind, title, yLabel string, ys []series) (string, error) {
	rh, err := t.Floats(measurement.RH)
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = measurement.Label(measurement.RH)
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for _, s := range ys {
		vals, err := t.Floats(s.column)
		if err != nil {
			return "", err
		}
		pts := pairs(rh, vals)
		if len(pts) == 0 {
			monitoring.Diagf("%s: %s has no complete RH/%s pairs", base, kind, s.column)
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return "", fmt.Errorf("%s scatter: %w", s.column, err)
		}
		sc.GlyphStyle.Color = withAlpha(s.colour, scatterAlpha)
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(s.column, sc)
	}

	path := r.Path(base, kind)
	if err := r.save(p, r.cfg.Width, r.cfg.Height, path); err != nil {
		return "", err
	}
	return path, nil
}

// pairs returns the points where both x and y are finite.
func pairs(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	return pts
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
