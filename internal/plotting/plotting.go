// Package plotting renders the diagnostic PNG charts of a cleaned
// measurement table: irradiance time series, humidity scatter plots, the
// wind rose and the directional frequency chart.
package plotting

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/irradiance.report/internal/fsutil"
	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/wind"
)

// Output kinds, used as the "{base}_{kind}.png" suffix.
const (
	KindTimeSeries     = "time_series"
	KindRHModuleTemp   = "rh_vs_module_temp"
	KindRHGHI          = "rh_vs_ghi"
	KindWindRose       = "wind_rose"
	KindWindDirection  = "wind_direction"
	KindDashboard      = "dashboard"
	defaultImageFormat = "png"
)

// Required columns per renderer.
var (
	TimeSeriesColumns   = []string{measurement.Timestamp, measurement.GHI, measurement.DNI, measurement.DHI, measurement.Tamb}
	RHModuleTempColumns = []string{measurement.RH, measurement.ModA, measurement.ModB}
	RHGHIColumns        = []string{measurement.RH, measurement.ModA, measurement.ModB, measurement.GHI}
	WindColumns         = []string{measurement.WS, measurement.WD}
)

// Config controls image geometry and wind binning.
type Config struct {
	// Width and Height of single-plot images.
	Width, Height vg.Length
	// CompositeWidth and CompositeHeight of the 2x2 time-series image.
	CompositeWidth, CompositeHeight vg.Length
	// WindSectors is the number of wind rose sectors.
	WindSectors int
	// SpeedEdges are the lower edges of the wind rose speed classes.
	SpeedEdges []float64
	// DirectionBinWidth is the width in degrees of a directional bin.
	DirectionBinWidth float64
	// DashboardPoints caps the samples per dashboard series.
	DashboardPoints int
}

// DefaultConfig returns the standard geometry and binning.
func DefaultConfig() Config {
	return Config{
		Width:             10 * vg.Inch,
		Height:            6 * vg.Inch,
		CompositeWidth:    14 * vg.Inch,
		CompositeHeight:   8 * vg.Inch,
		WindSectors:       wind.DefaultSectors,
		SpeedEdges:        wind.DefaultSpeedEdges,
		DirectionBinWidth: wind.DefaultBinWidth,
		DashboardPoints:   2000,
	}
}

// Renderer writes charts for one output directory.
type Renderer struct {
	fs     fsutil.FileSystem
	outDir string
	cfg    Config
}

// NewRenderer creates a renderer writing into outDir through fsys.
func NewRenderer(fsys fsutil.FileSystem, outDir string, cfg Config) *Renderer {
	return &Renderer{fs: fsys, outDir: outDir, cfg: cfg}
}

// Path returns the output path for one chart of a file.
func (r *Renderer) Path(base, kind string) string {
	return fsutil.OutputPath(r.outDir, base, kind, defaultImageFormat)
}

// save renders p at the given size and writes it to path.
func (r *Renderer) save(p *plot.Plot, w, h vg.Length, path string) error {
	wt, err := p.WriterTo(w, h, defaultImageFormat)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return r.write(wt, path)
}

func (r *Renderer) write(wt io.WriterTo, path string) error {
	f, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Matplotlib "tab" colours, kept so charts look familiar next to notebooks.
var (
	tabBlue   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	tabOrange = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	tabGreen  = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	tabRed    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// withAlpha returns c with the given opacity, premultiplied as image/color
// expects.
func withAlpha(c color.RGBA, alpha float64) color.RGBA {
	a := uint8(alpha * 255)
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: a,
	}
}
