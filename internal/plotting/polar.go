package plotting

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// polarMargin leaves room outside the outer ring for compass labels.
const polarMargin = 1.18

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// wedge is an annular sector between compass bearings From and To
// (degrees clockwise from north) and radii R0 and R1.
type wedge struct {
	From, To float64
	R0, R1   float64
	Colour   color.Color
}

// polarChart is a plot.Plotter drawing wedges on compass axes: north up,
// bearings clockwise. Use it with hidden cartesian axes on a square canvas.
type polarChart struct {
	RMax      float64
	Wedges    []wedge
	RingLabel func(float64) string

	GridStyle draw.LineStyle
	TextStyle text.Style
}

func newPolarChart(rMax float64, textStyle text.Style) *polarChart {
	if !(rMax > 0) {
		rMax = 1
	}
	ts := textStyle
	ts.XAlign = text.XCenter
	ts.YAlign = text.YCenter
	return &polarChart{
		RMax: rMax,
		GridStyle: draw.LineStyle{
			Color: color.Gray{Y: 0xb0},
			Width: vg.Points(0.5),
		},
		TextStyle: ts,
	}
}

// DataRange implements plot.DataRanger.
func (pc *polarChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	e := pc.RMax * polarMargin
	return -e, e, -e, e
}

// Plot implements plot.Plotter.
func (pc *polarChart) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	at := func(r, bearing float64) vg.Point {
		rad := bearing * math.Pi / 180
		return vg.Point{X: trX(r * math.Sin(rad)), Y: trY(r * math.Cos(rad))}
	}

	for _, w := range pc.Wedges {
		if w.R1 <= w.R0 {
			continue
		}
		c.FillPolygon(w.Colour, wedgeOutline(w, at))
	}

	rings := pc.rings()
	for _, r := range rings {
		c.StrokeLines(pc.GridStyle, arc(r, 0, 360, at))
	}
	c.StrokeLines(pc.GridStyle, arc(pc.RMax, 0, 360, at))
	for i := range compassPoints {
		bearing := float64(i) * 45
		c.StrokeLines(pc.GridStyle, []vg.Point{at(0, 0), at(pc.RMax, bearing)})
		c.FillText(pc.TextStyle, at(pc.RMax*1.09, bearing), compassPoints[i])
	}
	if pc.RingLabel != nil {
		for _, r := range rings {
			c.FillText(pc.TextStyle, at(r, 22.5), pc.RingLabel(r))
		}
	}
}

// rings returns the labelled radii strictly inside the outer ring.
func (pc *polarChart) rings() []float64 {
	var out []float64
	for _, t := range (plot.DefaultTicks{}).Ticks(0, pc.RMax) {
		if t.Label == "" || t.Value <= 0 || t.Value >= pc.RMax {
			continue
		}
		out = append(out, t.Value)
	}
	return out
}

// arc samples the circle of radius r between two bearings.
func arc(r, from, to float64, at func(r, bearing float64) vg.Point) []vg.Point {
	const step = 2.0
	n := int(math.Ceil(math.Abs(to-from)/step)) + 1
	if n < 2 {
		n = 2
	}
	pts := make([]vg.Point, n)
	for i := range pts {
		pts[i] = at(r, from+(to-from)*float64(i)/float64(n-1))
	}
	return pts
}

func wedgeOutline(w wedge, at func(r, bearing float64) vg.Point) []vg.Point {
	outer := arc(w.R1, w.From, w.To, at)
	if w.R0 <= 0 {
		return append(outer, at(0, 0))
	}
	inner := arc(w.R0, w.To, w.From, at)
	return append(outer, inner...)
}

// swatch is a legend thumbnail filled with a single colour.
type swatch struct{ colour color.Color }

// Thumbnail implements plot.Thumbnailer.
func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.colour, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	})
}
