package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v2"

	"github.com/banshee-data/irradiance.report/internal/cleaning"
	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/plotting"
	"github.com/banshee-data/irradiance.report/internal/summary"
	"github.com/banshee-data/irradiance.report/internal/wind"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// AnalysisConfig holds the settings of a report run. Nil fields fall back
// to the defaults returned by the Get* accessors, so partial files are
// safe.
type AnalysisConfig struct {
	InputDir  *string `json:"input_dir,omitempty" yaml:"input_dir,omitempty" validate:"omitempty,min=1"`
	OutputDir *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" validate:"omitempty,min=1"`

	// CleanColumns are the columns whose negative readings are clamped.
	// An explicit empty list disables clamping.
	CleanColumns []string `json:"clean_columns,omitempty" yaml:"clean_columns,omitempty" validate:"omitempty,dive,measurement_column"`

	WindSectors       *int      `json:"wind_sectors,omitempty" yaml:"wind_sectors,omitempty" validate:"omitempty,min=4,max=72"`
	DirectionBinWidth *float64  `json:"direction_bin_width,omitempty" yaml:"direction_bin_width,omitempty" validate:"omitempty,gt=0,lte=360"`
	WindSpeedEdges    []float64 `json:"wind_speed_edges,omitempty" yaml:"wind_speed_edges,omitempty" validate:"omitempty,min=1,max=9,dive,gte=0"`

	SummaryFormats []string `json:"summary_formats,omitempty" yaml:"summary_formats,omitempty" validate:"omitempty,dive,oneof=csv xlsx"`
	Dashboard      *bool    `json:"dashboard,omitempty" yaml:"dashboard,omitempty"`
	CatalogDB      *string  `json:"catalog_db,omitempty" yaml:"catalog_db,omitempty"`

	// ContinueOnError keeps processing later files after one fails.
	ContinueOnError *bool `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`

	PlotWidthInches  *float64 `json:"plot_width_inches,omitempty" yaml:"plot_width_inches,omitempty" validate:"omitempty,gt=0,lte=100"`
	PlotHeightInches *float64 `json:"plot_height_inches,omitempty" yaml:"plot_height_inches,omitempty" validate:"omitempty,gt=0,lte=100"`
	DashboardPoints  *int     `json:"dashboard_points,omitempty" yaml:"dashboard_points,omitempty" validate:"omitempty,min=0"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// Load reads an AnalysisConfig from a .json, .yaml or .yml file and
// validates it.
func Load(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, ext)
}

// Parse decodes data in the format named by ext and validates the result.
func Parse(data []byte, ext string) (*AnalysisConfig, error) {
	cfg := EmptyAnalysisConfig()
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("measurement_column", func(fl validator.FieldLevel) bool {
		return measurement.IsRecognised(fl.Field().String())
	})
	return v
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s fails %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return err
	}

	// omitempty lets an explicit zero through the tags.
	if c.WindSectors != nil && *c.WindSectors < 4 {
		return fmt.Errorf("wind_sectors must be at least 4, got %d", *c.WindSectors)
	}
	for name, v := range map[string]*float64{"plot_width_inches": c.PlotWidthInches, "plot_height_inches": c.PlotHeightInches} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, *v)
		}
	}
	if c.DirectionBinWidth != nil {
		if _, err := wind.DirectionEdges(*c.DirectionBinWidth); err != nil {
			return fmt.Errorf("direction_bin_width: %w", err)
		}
	}
	if c.WindSpeedEdges != nil {
		if _, err := wind.NewRose(nil, nil, 1, c.WindSpeedEdges); err != nil {
			return fmt.Errorf("wind_speed_edges: %w", err)
		}
		if _, err := plotting.SpeedPalette(len(c.WindSpeedEdges)); err != nil {
			return fmt.Errorf("wind_speed_edges: %w", err)
		}
	}
	return nil
}

// GetInputDir returns the input_dir value or the default.
func (c *AnalysisConfig) GetInputDir() string {
	if c.InputDir == nil || *c.InputDir == "" {
		return "data"
	}
	return *c.InputDir
}

// GetOutputDir returns the output_dir value or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "results"
	}
	return *c.OutputDir
}

// GetCleanColumns returns the clean_columns value or the default.
func (c *AnalysisConfig) GetCleanColumns() []string {
	if c.CleanColumns == nil {
		return cleaning.DefaultColumns
	}
	return c.CleanColumns
}

// GetWindSectors returns the wind_sectors value or the default.
func (c *AnalysisConfig) GetWindSectors() int {
	if c.WindSectors == nil {
		return wind.DefaultSectors
	}
	return *c.WindSectors
}

// GetDirectionBinWidth returns the direction_bin_width value or the default.
func (c *AnalysisConfig) GetDirectionBinWidth() float64 {
	if c.DirectionBinWidth == nil {
		return wind.DefaultBinWidth
	}
	return *c.DirectionBinWidth
}

// GetWindSpeedEdges returns the wind_speed_edges value or the default.
func (c *AnalysisConfig) GetWindSpeedEdges() []float64 {
	if len(c.WindSpeedEdges) == 0 {
		return wind.DefaultSpeedEdges
	}
	return c.WindSpeedEdges
}

// GetSummaryFormats returns the summary_formats value or the default.
func (c *AnalysisConfig) GetSummaryFormats() []string {
	if len(c.SummaryFormats) == 0 {
		return []string{summary.FormatCSV}
	}
	return c.SummaryFormats
}

// GetDashboard returns the dashboard value or the default.
func (c *AnalysisConfig) GetDashboard() bool {
	if c.Dashboard == nil {
		return false // default: no HTML output
	}
	return *c.Dashboard
}

// GetCatalogDB returns the catalog_db path, empty when cataloguing is off.
func (c *AnalysisConfig) GetCatalogDB() string {
	if c.CatalogDB == nil {
		return ""
	}
	return *c.CatalogDB
}

// GetContinueOnError returns the continue_on_error value or the default.
func (c *AnalysisConfig) GetContinueOnError() bool {
	if c.ContinueOnError == nil {
		return false // default: first failure aborts the run
	}
	return *c.ContinueOnError
}

// GetDashboardPoints returns the dashboard_points value or the default.
func (c *AnalysisConfig) GetDashboardPoints() int {
	if c.DashboardPoints == nil {
		return plotting.DefaultConfig().DashboardPoints
	}
	return *c.DashboardPoints
}

// PlotConfig returns the renderer settings described by c.
func (c *AnalysisConfig) PlotConfig() plotting.Config {
	pc := plotting.DefaultConfig()
	if c.PlotWidthInches != nil {
		pc.Width = vg.Length(*c.PlotWidthInches) * vg.Inch
	}
	if c.PlotHeightInches != nil {
		pc.Height = vg.Length(*c.PlotHeightInches) * vg.Inch
	}
	pc.WindSectors = c.GetWindSectors()
	pc.SpeedEdges = c.GetWindSpeedEdges()
	pc.DirectionBinWidth = c.GetDirectionBinWidth()
	pc.DashboardPoints = c.GetDashboardPoints()
	return pc
}

// Override replaces the fields set on o.
func (c *AnalysisConfig) Override(o *AnalysisConfig) {
	if o.InputDir != nil {
		c.InputDir = o.InputDir
	}
	if o.OutputDir != nil {
		c.OutputDir = o.OutputDir
	}
	if o.CatalogDB != nil {
		c.CatalogDB = o.CatalogDB
	}
	if o.Dashboard != nil {
		c.Dashboard = o.Dashboard
	}
	if o.ContinueOnError != nil {
		c.ContinueOnError = o.ContinueOnError
	}
}

// Flags holds command-line values that override the config file. Empty
// strings and false booleans leave the file values in place.
type Flags struct {
	InputDir, OutputDir, CatalogDB string
	Dashboard, KeepGoing           bool
}

// Apply overrides c with the flags that were given.
func (f Flags) Apply(c *AnalysisConfig) {
	o := EmptyAnalysisConfig()
	if f.InputDir != "" {
		o.InputDir = ptrString(f.InputDir)
	}
	if f.OutputDir != "" {
		o.OutputDir = ptrString(f.OutputDir)
	}
	if f.CatalogDB != "" {
		o.CatalogDB = ptrString(f.CatalogDB)
	}
	if f.Dashboard {
		o.Dashboard = ptrBool(true)
	}
	if f.KeepGoing {
		o.ContinueOnError = ptrBool(true)
	}
	c.Override(o)
}
