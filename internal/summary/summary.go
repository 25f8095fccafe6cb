// Package summary computes per-column descriptive statistics of a cleaned
// measurement table and writes them as a one-row-per-column report.
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/irradiance.report/internal/measurement"
)

// Record holds the statistics of one column. Numeric statistics are NaN for
// text columns and when too few values exist to compute them; text
// statistics are zero for numeric columns.
type Record struct {
	Column string
	Kind   measurement.Kind

	// Count is the number of non-null entries.
	Count int

	// Text columns only.
	Unique int
	Top    string
	Freq   int

	// Numeric columns only.
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
	Median float64

	// Missing is the number of null entries.
	Missing int
}

// Describe computes one Record per named column, in the order given.
// Columns the table lacks are skipped.
func Describe(t *measurement.Table, columns []string) ([]Record, error) {
	out := make([]Record, 0, len(columns))
	for _, name := range columns {
		if !t.Has(name) {
			continue
		}
		kind, err := t.Kind(name)
		if err != nil {
			return nil, err
		}
		missing, err := t.NullCount(name)
		if err != nil {
			return nil, err
		}

		var rec Record
		switch kind {
		case measurement.Numeric:
			vals, err := t.Floats(name)
			if err != nil {
				return nil, err
			}
			rec = describeNumeric(vals)
		default:
			vals, nulls, err := t.Texts(name)
			if err != nil {
				return nil, err
			}
			rec = describeText(vals, nulls)
		}
		rec.Column = name
		rec.Kind = kind
		rec.Missing = missing
		out = append(out, rec)
	}
	return out, nil
}

func describeNumeric(vals []float64) Record {
	x := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	nan := math.NaN()
	rec := Record{
		Count: len(x),
		Mean:  nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan, Median: nan,
	}
	if len(x) == 0 {
		return rec
	}
	sort.Float64s(x)

	rec.Mean = stat.Mean(x, nil)
	if len(x) > 1 {
		rec.Std = stat.StdDev(x, nil)
	}
	rec.Min = floats.Min(x)
	rec.Max = floats.Max(x)
	rec.Q25 = Quantile(x, 0.25)
	rec.Q50 = Quantile(x, 0.50)
	rec.Q75 = Quantile(x, 0.75)
	rec.Median = rec.Q50
	return rec
}

func describeText(vals []string, nulls []bool) Record {
	nan := math.NaN()
	rec := Record{Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan, Median: nan}

	counts := make(map[string]int)
	var order []string
	for i, v := range vals {
		if nulls[i] {
			continue
		}
		rec.Count++
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	rec.Unique = len(order)
	for _, v := range order {
		if counts[v] > rec.Freq {
			rec.Top = v
			rec.Freq = counts[v]
		}
	}
	return rec
}

// Quantile returns the p-quantile of sorted data by linear interpolation
// between the closest ranks, position (n-1)*p. sorted must be ascending and
// free of NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
