package plotting

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/irradiance.report/internal/fsutil"
	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/monitoring"
	"github.com/banshee-data/irradiance.report/internal/wind"
)

// echarts renders "-" as a gap.
const missingValue = "-"

// Dashboard writes an interactive HTML page with the charts whose columns
// are present to "{base}_dashboard.html". It returns "" when no chart
// applies.
func (r *Renderer) Dashboard(t *measurement.Table, base string) (string, error) {
	schema := t.Schema()
	page := components.NewPage()
	page.PageTitle = base + " irradiance dashboard"
	added := 0

	if schema.HasAll(TimeSeriesColumns...) {
		line, err := r.irradianceLine(t, base)
		if err != nil {
			return "", err
		}
		page.AddCharts(line)
		added++
	}
	if schema.HasAll(WindColumns...) {
		bar, err := r.directionBar(t, base)
		if err != nil {
			return "", err
		}
		page.AddCharts(bar)
		added++
	}
	if schema.HasAll(measurement.RH, measurement.GHI) {
		sc, err := r.humidityScatter(t, base)
		if err != nil {
			return "", err
		}
		page.AddCharts(sc)
		added++
	}
	if added == 0 {
		monitoring.Opsf("%s: skipping %s, no charted columns", base, KindDashboard)
		return "", nil
	}

	path := fsutil.OutputPath(r.outDir, base, KindDashboard, "html")
	f, err := r.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return "", fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func (r *Renderer) irradianceLine(t *measurement.Table, base string) (*charts.Line, error) {
	sorted, times, err := t.SortedByTime()
	if err != nil {
		return nil, err
	}
	stride := r.stride(len(times))

	x := make([]string, 0, len(times)/stride+1)
	for i := 0; i < len(times); i += stride {
		x = append(x, times[i].Format("2006-01-02 15:04"))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: "irradiance", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Irradiance and temperature", Subtitle: base}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(x)
	for _, pn := range timeSeriesPanels {
		vals, err := sorted.Floats(pn.column)
		if err != nil {
			return nil, err
		}
		data := make([]opts.LineData, 0, len(x))
		for i := 0; i < len(vals); i += stride {
			data = append(data, opts.LineData{Value: chartValue(vals[i])})
		}
		line.AddSeries(pn.column, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line, nil
}

func (r *Renderer) directionBar(t *measurement.Table, base string) (*charts.Bar, error) {
	view, err := t.DropNull(measurement.WS, measurement.WD)
	if err != nil {
		return nil, err
	}
	wd, err := view.Floats(measurement.WD)
	if err != nil {
		return nil, err
	}
	edges, err := wind.DirectionEdges(r.cfg.DirectionBinWidth)
	if err != nil {
		return nil, err
	}
	counts, err := wind.DirectionHistogram(wd, edges)
	if err != nil {
		return nil, err
	}

	data := make([]opts.BarData, len(counts))
	for i, n := range counts {
		data[i] = opts.BarData{Value: n}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: "wind_direction", Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Wind direction frequency", Subtitle: base}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "WD (°)"}),
	)
	bar.SetXAxis(wind.BinLabels(edges)).
		AddSeries("observations", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar, nil
}

func (r *Renderer) humidityScatter(t *measurement.Table, base string) (*charts.Scatter, error) {
	rh, err := t.Floats(measurement.RH)
	if err != nil {
		return nil, err
	}
	ghi, err := t.Floats(measurement.GHI)
	if err != nil {
		return nil, err
	}
	pts := pairs(rh, ghi)
	stride := r.stride(len(pts))
	data := make([]opts.ScatterData, 0, len(pts)/stride+1)
	for i := 0; i < len(pts); i += stride {
		data = append(data, opts.ScatterData{Value: []interface{}{pts[i].X, pts[i].Y}})
	}

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: "rh_vs_ghi", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Relative humidity vs GHI", Subtitle: base}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: measurement.Label(measurement.RH), NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: measurement.Label(measurement.GHI), NameLocation: "middle", NameGap: 40}),
	)
	sc.AddSeries("GHI", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return sc, nil
}

// stride returns the sampling step that keeps n points under the cap.
func (r *Renderer) stride(n int) int {
	max := r.cfg.DashboardPoints
	if max <= 0 || n <= max {
		return 1
	}
	return (n + max - 1) / max
}

func chartValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missingValue
	}
	return v
}
