package analysis

import (
	"context"

	"github.com/banshee-data/irradiance.report/internal/fsutil"
	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/plotting"
	"github.com/banshee-data/irradiance.report/internal/summary"
)

// Input is what every analysis of one file receives. Table is the cleaned
// snapshot and must not be modified; analyses needing a narrower view derive
// their own.
type Input struct {
	// Path is the source file and Base its output prefix.
	Path string
	Base string
	// Columns are the header names of the raw export.
	Columns []string
	Table   *measurement.Table
}

// Output is one file written by an analysis.
type Output struct {
	Kind string
	Path string
}

// Result is what an analysis produced for one file.
type Result struct {
	Outputs []Output
	// Records is set by the summary analysis.
	Records []summary.Record
}

// Analysis is one report section computed from a cleaned table.
type Analysis interface {
	// Name identifies the analysis in logs.
	Name() string
	// Requires lists the columns that must be present for Run to apply.
	Requires() []string
	Run(ctx context.Context, in Input) (Result, error)
}

// Summary writes the descriptive statistics of every input column.
type Summary struct {
	FS      fsutil.FileSystem
	OutDir  string
	Formats []string
}

func (Summary) Name() string       { return "summary" }
func (Summary) Requires() []string { return nil }

func (a Summary) Run(ctx context.Context, in Input) (Result, error) {
	records, err := summary.Describe(in.Table, in.Columns)
	if err != nil {
		return Result{}, err
	}
	paths, err := summary.Save(a.FS, a.OutDir, in.Base, records, a.Formats)
	if err != nil {
		return Result{}, err
	}
	res := Result{Records: records}
	for _, p := range paths {
		res.Outputs = append(res.Outputs, Output{Kind: "summary", Path: p})
	}
	return res, nil
}

// TimeSeries plots irradiance and ambient temperature over time.
type TimeSeries struct{ Renderer *plotting.Renderer }

func (TimeSeries) Name() string       { return plotting.KindTimeSeries }
func (TimeSeries) Requires() []string { return plotting.TimeSeriesColumns }

func (a TimeSeries) Run(ctx context.Context, in Input) (Result, error) {
	path, err := a.Renderer.TimeSeries(in.Table, in.Base)
	if err != nil {
		return Result{}, err
	}
	return Result{Outputs: []Output{{Kind: plotting.KindTimeSeries, Path: path}}}, nil
}

// Humidity plots module temperature and GHI against relative humidity.
// Each plot checks its own columns.
type Humidity struct{ Renderer *plotting.Renderer }

func (Humidity) Name() string       { return "humidity" }
func (Humidity) Requires() []string { return []string{measurement.RH} }

func (a Humidity) Run(ctx context.Context, in Input) (Result, error) {
	paths, err := a.Renderer.Humidity(in.Table, in.Base)
	res := Result{}
	for _, p := range paths {
		res.Outputs = append(res.Outputs, Output{Kind: kindOf(in.Base, p), Path: p})
	}
	return res, err
}

// Wind draws the wind rose and the directional frequency chart.
type Wind struct{ Renderer *plotting.Renderer }

func (Wind) Name() string       { return "wind" }
func (Wind) Requires() []string { return plotting.WindColumns }

func (a Wind) Run(ctx context.Context, in Input) (Result, error) {
	paths, err := a.Renderer.Wind(in.Table, in.Base)
	res := Result{}
	for _, p := range paths {
		res.Outputs = append(res.Outputs, Output{Kind: kindOf(in.Base, p), Path: p})
	}
	return res, err
}

// Dashboard writes the interactive HTML page.
type Dashboard struct{ Renderer *plotting.Renderer }

func (Dashboard) Name() string       { return plotting.KindDashboard }
func (Dashboard) Requires() []string { return nil }

func (a Dashboard) Run(ctx context.Context, in Input) (Result, error) {
	path, err := a.Renderer.Dashboard(in.Table, in.Base)
	if err != nil || path == "" {
		return Result{}, err
	}
	return Result{Outputs: []Output{{Kind: plotting.KindDashboard, Path: path}}}, nil
}

// kindOf recovers the kind from a "{base}_{kind}.{ext}" path.
func kindOf(base, path string) string {
	name := fsutil.BaseName(path)
	if len(name) > len(base)+1 && name[:len(base)+1] == base+"_" {
		return name[len(base)+1:]
	}
	return name
}
