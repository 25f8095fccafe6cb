package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/irradiance.report/internal/measurement"
)

// Header is the column layout of a written summary. The first cell is the
// (unnamed) row label holding the source column name.
var Header = []string{"", "count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max", "median", "missing_values"}

// Cells renders a record as one row of strings aligned with Header.
// Statistics that do not apply are empty.
func (r Record) Cells() []string {
	row := []string{r.Column, strconv.Itoa(r.Count)}
	if r.Kind == measurement.Text {
		row = append(row, strconv.Itoa(r.Unique), r.Top, strconv.Itoa(r.Freq))
	} else {
		row = append(row, "", "", "")
	}
	for _, v := range []float64{r.Mean, r.Std, r.Min, r.Q25, r.Q50, r.Q75, r.Max, r.Median} {
		row = append(row, FormatFloat(v))
	}
	return append(row, strconv.Itoa(r.Missing))
}

// FormatFloat writes the shortest representation that round-trips, with a
// trailing ".0" on integral values and exponent notation only for very small
// or very large magnitudes. NaN is written as an empty cell.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteCSV writes the records as CSV. Output depends only on the records,
// so identical input yields byte-identical files.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Cells()); err != nil {
			return fmt.Errorf("write summary row %s: %w", r.Column, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SheetName is the worksheet that WriteXLSX fills.
const SheetName = "summary"

// WriteXLSX writes the records as a single-sheet workbook. Numeric cells are
// stored as numbers so spreadsheets can compute on them.
func WriteXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %s: %w", r.Column, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func xlsxRow(r Record) []interface{} {
	row := []interface{}{r.Column, r.Count}
	if r.Kind == measurement.Text {
		row = append(row, r.Unique, r.Top, r.Freq)
	} else {
		row = append(row, nil, nil, nil)
	}
	for _, v := range []float64{r.Mean, r.Std, r.Min, r.Q25, r.Q50, r.Q75, r.Max, r.Median} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			row = append(row, nil)
			continue
		}
		row = append(row, v)
	}
	return append(row, r.Missing)
}
