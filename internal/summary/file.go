package summary

import (
	"fmt"
	"io"

	"github.com/banshee-data/irradiance.report/internal/cleaning"
	"github.com/banshee-data/irradiance.report/internal/fsutil"
	"github.com/banshee-data/irradiance.report/internal/measurement"
)

// Output formats accepted by Save.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Save writes records to "{outDir}/{base}_summary.{format}" for each format
// and returns the written paths. CSV is always written first.
func Save(fsys fsutil.FileSystem, outDir, base string, records []Record, formats []string) ([]string, error) {
	paths := []string{}
	write := func(format string, fn func(io.Writer, []Record) error) error {
		path := fsutil.OutputPath(outDir, base, "summary", format)
		w, err := fsys.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := fn(w, records); err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	}

	if err := write(FormatCSV, WriteCSV); err != nil {
		return nil, err
	}
	for _, format := range formats {
		switch format {
		case FormatCSV:
		case FormatXLSX:
			if err := write(FormatXLSX, WriteXLSX); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown summary format %q", format)
		}
	}
	return paths, nil
}

// SummarizeFile loads the export at path, cleans the monitored columns and
// saves the statistics of every input column. It returns the written paths.
func SummarizeFile(fsys fsutil.FileSystem, path, outDir string, cleanColumns, formats []string) ([]string, error) {
	raw, err := measurement.LoadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	cleaned, _, err := cleaning.Clean(raw, cleanColumns)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", path, err)
	}
	records, err := Describe(cleaned, raw.Names())
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", path, err)
	}
	return Save(fsys, outDir, fsutil.BaseName(path), records, formats)
}
