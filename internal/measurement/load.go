package measurement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/banshee-data/irradiance.report/internal/fsutil"
)

// ErrEmptyHeader is returned for input without a header row.
var ErrEmptyHeader = errors.New("csv has no header")

// NullTokens are the cell values read as a missing reading.
var NullTokens = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

// ReadCSV parses a sensor export with a header row. Integer and float
// columns become numeric; everything else is kept as text. A column whose
// every entry is null is treated as numeric, so a header without data rows
// yields an empty table of numeric columns.
func ReadCSV(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyHeader
	}
	if len(records) == 1 {
		cols := make([]ColumnData, 0, len(records[0]))
		for _, name := range records[0] {
			cols = append(cols, FloatColumn(name))
		}
		return NewTable(cols...)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(NullTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}

	names := df.Names()
	cols := make([]ColumnData, 0, len(names))
	for _, name := range names {
		cols = append(cols, fromSeries(name, df.Col(name)))
	}
	return NewTable(cols...)
}

func fromSeries(name string, s series.Series) ColumnData {
	nulls := s.IsNaN()
	switch s.Type() {
	case series.Int, series.Float:
		vals := s.Float()
		for i, null := range nulls {
			if null {
				vals[i] = math.NaN()
			}
		}
		return ColumnData{Name: name, Floats: vals}
	}

	allNull := true
	for _, null := range nulls {
		if !null {
			allNull = false
			break
		}
	}
	if allNull {
		vals := make([]float64, len(nulls))
		for i := range vals {
			vals[i] = math.NaN()
		}
		return ColumnData{Name: name, Floats: vals}
	}

	texts := s.Records()
	for i, null := range nulls {
		if null {
			texts[i] = ""
		}
	}
	return ColumnData{Name: name, Texts: texts, Nulls: nulls}
}

// LoadFile reads a sensor export through fsys.
func LoadFile(fsys fsutil.FileSystem, path string) (*Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}
