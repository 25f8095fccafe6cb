package plotting

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/irradiance.report/internal/measurement"
)

type panel struct {
	column string
	colour color.RGBA
}

var timeSeriesPanels = []panel{
	{measurement.GHI, tabBlue},
	{measurement.DNI, tabOrange},
	{measurement.DHI, tabGreen},
	{measurement.Tamb, tabRed},
}

// TimeSeries renders GHI, DNI, DHI and Tamb against time as a 2x2 grid
// into "{base}_time_series.png". Rows are ordered by timestamp first.
func (r *Renderer) TimeSeries(t *measurement.Table, base string) (string, error) {
	if missing := t.Schema().Missing(TimeSeriesColumns...); len(missing) > 0 {
		return "", fmt.Errorf("time series needs %v", missing)
	}
	sorted, times, err := t.SortedByTime()
	if err != nil {
		return "", err
	}

	plots := make([][]*plot.Plot, 2)
	for i := range plots {
		plots[i] = make([]*plot.Plot, 2)
	}
	for i, pn := range timeSeriesPanels {
		vals, err := sorted.Floats(pn.column)
		if err != nil {
			return "", err
		}
		p, err := timePanel(pn, times, vals)
		if err != nil {
			return "", err
		}
		plots[i/2][i%2] = p
	}

	img := vgimg.New(r.cfg.CompositeWidth, r.cfg.CompositeHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: 12, PadY: 12,
		PadTop: 8, PadBottom: 8, PadLeft: 8, PadRight: 8,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	path := r.Path(base, KindTimeSeries)
	if err := r.write(vgimg.PngCanvas{Canvas: img}, path); err != nil {
		return "", err
	}
	return path, nil
}

func timePanel(pn panel, times []time.Time, vals []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = pn.column + " over time"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = measurement.Label(pn.column)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(times[i].Unix()), Y: v})
	}
	if len(pts) == 0 {
		return p, nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("%s line: %w", pn.column, err)
	}
	line.Color = pn.colour
	line.Width = 1
	p.Add(line)
	return p, nil
}
