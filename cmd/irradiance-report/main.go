// Command irradiance-report cleans solar site CSV exports and writes
// summary statistics and diagnostic charts for each of them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/irradiance.report/internal/analysis"
	"github.com/banshee-data/irradiance.report/internal/catalog"
	"github.com/banshee-data/irradiance.report/internal/config"
	"github.com/banshee-data/irradiance.report/internal/monitoring"
	"github.com/banshee-data/irradiance.report/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("irradiance-report: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("irradiance-report", flag.ContinueOnError)
	var flags config.Flags
	fs.StringVar(&flags.InputDir, "input", "", "Directory of CSV exports (default data)")
	fs.StringVar(&flags.OutputDir, "output", "", "Directory for results (default results)")
	configPath := fs.String("config", "", "JSON or YAML config file")
	fs.StringVar(&flags.CatalogDB, "catalog", "", "sqlite file recording run history")
	fs.BoolVar(&flags.Dashboard, "dashboard", false, "Also write an HTML dashboard per file")
	fs.BoolVar(&flags.KeepGoing, "keep-going", false, "Continue with later files after a failure")
	verbose := fs.Bool("v", false, "Log per-analysis detail")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "irradiance-report %s\n", version.String())
		return nil
	}
	if *verbose {
		monitoring.SetVerbose(os.Stderr)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	flags.Apply(cfg)

	var opts []analysis.Option
	if path := cfg.GetCatalogDB(); path != "" {
		cat, err := catalog.Open(path)
		if err != nil {
			return err
		}
		defer cat.Close()
		opts = append(opts, analysis.WithRecorder(cat))
	}

	monitoring.Logf("reading %s, writing %s", cfg.GetInputDir(), cfg.GetOutputDir())
	res, err := analysis.NewPipeline(cfg, opts...).Run(ctx)
	for _, path := range res.Outputs() {
		fmt.Fprintln(stdout, path)
	}
	if failed := res.Failed(); len(failed) > 0 {
		monitoring.Opsf("%d of %d files failed", len(failed), len(res.Files))
	}
	return err
}

// loadConfig reads path, or the checked-in defaults when no path is given
// and they exist next to the working directory.
func loadConfig(path string) (*config.AnalysisConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.Load(config.DefaultConfigPath)
	}
	return config.EmptyAnalysisConfig(), nil
}
