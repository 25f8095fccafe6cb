package plotting

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"

	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/monitoring"
	"github.com/banshee-data/irradiance.report/internal/wind"
)

// RosePalette is the ColorBrewer sequential scheme used for speed classes.
const RosePalette = "YlGnBu"

// Palette bounds for sequential ColorBrewer schemes.
const (
	minPaletteSize = 3
	maxPaletteSize = 9
)

// wedgeFill is the share of a sector's angular width that its wedge covers.
const wedgeFill = 0.92

// Wind renders the wind rose and the directional frequency chart and returns
// the written paths. Rows with null WS or WD are ignored for these charts
// only.
func (r *Renderer) Wind(t *measurement.Table, base string) ([]string, error) {
	if missing := t.Schema().Missing(WindColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("wind analysis needs %v", missing)
	}
	view, err := t.DropNull(measurement.WS, measurement.WD)
	if err != nil {
		return nil, err
	}
	if dropped := t.Len() - view.Len(); dropped > 0 {
		monitoring.Diagf("%s: wind charts ignore %d rows with null WS or WD", base, dropped)
	}
	ws, err := view.Floats(measurement.WS)
	if err != nil {
		return nil, err
	}
	wd, err := view.Floats(measurement.WD)
	if err != nil {
		return nil, err
	}

	rosePath, err := r.windRose(ws, wd, base)
	if err != nil {
		return nil, err
	}
	dirPath, err := r.windDirection(wd, base)
	if err != nil {
		return []string{rosePath}, err
	}
	return []string{rosePath, dirPath}, nil
}

func (r *Renderer) windRose(ws, wd []float64, base string) (string, error) {
	rose, err := wind.NewRose(ws, wd, r.cfg.WindSectors, r.cfg.SpeedEdges)
	if err != nil {
		return "", err
	}
	colours, err := SpeedPalette(len(rose.SpeedEdges))
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = "Wind rose"
	p.HideAxes()
	p.Legend.Top = true
	p.Legend.Left = false

	chart := newPolarChart(rose.MaxSectorPercent(), p.Legend.TextStyle)
	chart.RingLabel = func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64) + "%"
	}
	width := 360.0 / float64(rose.Sectors)
	for s := 0; s < rose.Sectors; s++ {
		centre := wind.SectorCentre(s, rose.Sectors)
		from, to := centre-width*wedgeFill/2, centre+width*wedgeFill/2
		r0 := 0.0
		for c := range rose.SpeedEdges {
			r1 := r0 + rose.Percent(s, c)
			chart.Wedges = append(chart.Wedges, wedge{From: from, To: to, R0: r0, R1: r1, Colour: colours[c]})
			r0 = r1
		}
	}
	p.Add(chart)
	for c, label := range rose.ClassLabels() {
		p.Legend.Add(label+" m/s", swatch{colours[c]})
	}

	path := r.Path(base, KindWindRose)
	if err := r.save(p, r.cfg.Height, r.cfg.Height, path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Renderer) windDirection(wd []float64, base string) (string, error) {
	edges, err := wind.DirectionEdges(r.cfg.DirectionBinWidth)
	if err != nil {
		return "", err
	}
	counts, err := wind.DirectionHistogram(wd, edges)
	if err != nil {
		return "", err
	}

	p := plot.New()
	p.Title.Text = "Wind direction frequency"
	p.HideAxes()

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	chart := newPolarChart(float64(max), p.Legend.TextStyle)
	chart.RingLabel = func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	fill := withAlpha(tabBlue, 0.75)
	for i, n := range counts {
		pad := (edges[i+1] - edges[i]) * (1 - wedgeFill) / 2
		chart.Wedges = append(chart.Wedges, wedge{
			From: edges[i] + pad, To: edges[i+1] - pad,
			R1: float64(n), Colour: fill,
		})
	}
	p.Add(chart)

	path := r.Path(base, KindWindDirection)
	if err := r.save(p, r.cfg.Height, r.cfg.Height, path); err != nil {
		return "", err
	}
	return path, nil
}

// SpeedPalette returns n colours from the sequential rose palette, light to
// dark.
func SpeedPalette(n int) ([]color.Color, error) {
	if n < 1 || n > maxPaletteSize {
		return nil, fmt.Errorf("palette %s supports 1 to %d speed classes, got %d", RosePalette, maxPaletteSize, n)
	}
	size := n
	if size < minPaletteSize {
		size = minPaletteSize
	}
	pal, err := brewer.GetPalette(brewer.TypeSequential, RosePalette, size)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", RosePalette, err)
	}
	return pal.Colors()[:n], nil
}
