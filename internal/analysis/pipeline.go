// Package analysis drives a report run: it finds the CSV exports in the
// input directory and, for each, loads and cleans the table once before
// dispatching every analysis whose columns are present.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/irradiance.report/internal/cleaning"
	"github.com/banshee-data/irradiance.report/internal/config"
	"github.com/banshee-data/irradiance.report/internal/fsutil"
	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/monitoring"
	"github.com/banshee-data/irradiance.report/internal/plotting"
	"github.com/banshee-data/irradiance.report/internal/summary"
	"github.com/banshee-data/irradiance.report/internal/timeutil"
)

// Recorder persists run history. *catalog.Catalog implements it.
type Recorder interface {
	BeginRun(inputDir, outputDir string) (string, error)
	RecordSummary(runID, file string, records []summary.Record) error
	RecordOutput(runID, file, kind, path string) error
	FinishRun(runID string, filesProcessed int, runErr error) error
}

// FileResult describes the processing of one input file.
type FileResult struct {
	Path     string
	Base     string
	Rows     int
	Cleaning cleaning.Report
	Outputs  []Output
	// Skipped names the analyses whose columns were missing.
	Skipped []string
	Elapsed time.Duration
	Err     error
}

// RunResult describes a whole run.
type RunResult struct {
	// RunID is set when a Recorder is attached.
	RunID string
	Files []FileResult
}

// Outputs returns every path written during the run, in order.
func (r RunResult) Outputs() []string {
	var out []string
	for _, f := range r.Files {
		for _, o := range f.Outputs {
			out = append(out, o.Path)
		}
	}
	return out
}

// Failed returns the files that could not be processed.
func (r RunResult) Failed() []string {
	var out []string
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f.Path)
		}
	}
	return out
}

// Pipeline runs the configured analyses over an input directory.
type Pipeline struct {
	cfg      *config.AnalysisConfig
	fs       fsutil.FileSystem
	clock    timeutil.Clock
	recorder Recorder
	analyses []Analysis
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFileSystem replaces the OS filesystem.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(p *Pipeline) { p.fs = fsys }
}

// WithClock replaces the real clock used for per-file timings.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRecorder attaches run history storage.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithAnalyses replaces the default analysis set.
func WithAnalyses(a ...Analysis) Option {
	return func(p *Pipeline) { p.analyses = a }
}

// NewPipeline creates a pipeline for cfg. A nil cfg uses the defaults.
func NewPipeline(cfg *config.AnalysisConfig, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	p := &Pipeline{
		cfg:   cfg,
		fs:    fsutil.OSFileSystem{},
		clock: timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.analyses == nil {
		p.analyses = p.defaultAnalyses()
	}
	return p
}

func (p *Pipeline) defaultAnalyses() []Analysis {
	outDir := p.cfg.GetOutputDir()
	r := plotting.NewRenderer(p.fs, outDir, p.cfg.PlotConfig())
	list := []Analysis{
		Summary{FS: p.fs, OutDir: outDir, Formats: p.cfg.GetSummaryFormats()},
		TimeSeries{Renderer: r},
		Humidity{Renderer: r},
		Wind{Renderer: r},
	}
	if p.cfg.GetDashboard() {
		list = append(list, Dashboard{Renderer: r})
	}
	return list
}

// ListInputs returns the CSV files of the input directory in lexical order.
func (p *Pipeline) ListInputs() ([]string, error) {
	dir := p.cfg.GetInputDir()
	names, err := p.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, name := range names {
		if fsutil.HasExt(name, ".csv") {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out, nil
}

// Run processes every input file. By default the first failing file stops
// the run and its error is returned; with continue_on_error every file is
// attempted and the failures are returned joined. An empty input directory
// is not an error.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	var res RunResult
	inputs, err := p.ListInputs()
	if err != nil {
		return res, err
	}
	outDir := p.cfg.GetOutputDir()
	if err := p.fs.MkdirAll(outDir, 0755); err != nil {
		return res, fmt.Errorf("create %s: %w", outDir, err)
	}
	if len(inputs) == 0 {
		monitoring.Opsf("no CSV files in %s", p.cfg.GetInputDir())
	}

	if p.recorder != nil {
		runID, err := p.recorder.BeginRun(p.cfg.GetInputDir(), outDir)
		if err != nil {
			return res, err
		}
		res.RunID = runID
	}

	var errs []error
	processed := 0
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		fr := p.processFile(ctx, res.RunID, path)
		res.Files = append(res.Files, fr)
		if fr.Err == nil {
			processed++
			monitoring.Diagf("%s: %d rows, %d outputs in %s", fr.Base, fr.Rows, len(fr.Outputs), fr.Elapsed)
			continue
		}
		errs = append(errs, fr.Err)
		if !p.cfg.GetContinueOnError() {
			break
		}
		monitoring.Opsf("%v (continuing)", fr.Err)
	}

	runErr := errors.Join(errs...)
	if p.recorder != nil {
		if err := p.recorder.FinishRun(res.RunID, processed, runErr); err != nil {
			monitoring.Opsf("catalog: %v", err)
		}
	}
	return res, runErr
}

func (p *Pipeline) processFile(ctx context.Context, runID, path string) FileResult {
	start := p.clock.Now()
	fr := FileResult{Path: path, Base: fsutil.BaseName(path)}
	fail := func(err error) FileResult {
		fr.Err = fmt.Errorf("%s: %w", path, err)
		fr.Elapsed = p.clock.Since(start)
		return fr
	}

	raw, err := measurement.LoadFile(p.fs, path)
	if err != nil {
		return fail(err)
	}
	fr.Rows = raw.Len()
	schema := raw.Schema()
	monitoring.Tracef("%s: columns %s", fr.Base, schema)

	cleaned, report, err := cleaning.Clean(raw, p.cfg.GetCleanColumns())
	if err != nil {
		return fail(fmt.Errorf("clean: %w", err))
	}
	fr.Cleaning = report
	if report.FlaggedRows > 0 {
		monitoring.Diagf("%s: clamped negative readings in %d rows %v", fr.Base, report.FlaggedRows, report.Clamped)
	}

	in := Input{Path: path, Base: fr.Base, Columns: raw.Names(), Table: cleaned}
	file := filepath.Base(path)
	for _, a := range p.analyses {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if missing := schema.Missing(a.Requires()...); len(missing) > 0 {
			monitoring.Opsf("%s: skipping %s, missing %v", fr.Base, a.Name(), missing)
			fr.Skipped = append(fr.Skipped, a.Name())
			continue
		}
		out, err := a.Run(ctx, in)
		fr.Outputs = append(fr.Outputs, out.Outputs...)
		if err != nil {
			return fail(fmt.Errorf("%s: %w", a.Name(), err))
		}
		for _, o := range out.Outputs {
			monitoring.Tracef("%s: wrote %s", fr.Base, o.Path)
		}
		if p.recorder != nil {
			if err := p.record(runID, file, out); err != nil {
				return fail(fmt.Errorf("catalog: %w", err))
			}
		}
	}
	fr.Elapsed = p.clock.Since(start)
	return fr
}

func (p *Pipeline) record(runID, file string, out Result) error {
	if out.Records != nil {
		if err := p.recorder.RecordSummary(runID, file, out.Records); err != nil {
			return err
		}
	}
	for _, o := range out.Outputs {
		if err := p.recorder.RecordOutput(runID, file, o.Kind, o.Path); err != nil {
			return err
		}
	}
	return nil
}
