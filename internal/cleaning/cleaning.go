// Package cleaning clamps physically impossible negative sensor readings
// and records which rows needed it.
package cleaning

import (
	"fmt"
	"math"

	"github.com/banshee-data/irradiance.report/internal/measurement"
)

// DefaultColumns are the readings that can never legitimately be negative.
// RH is deliberately absent.
var DefaultColumns = []string{
	measurement.GHI,
	measurement.DNI,
	measurement.DHI,
	measurement.ModA,
	measurement.ModB,
	measurement.WS,
	measurement.WSgust,
}

// Report summarises one cleaning pass.
type Report struct {
	// Clamped counts the negative readings replaced per column.
	Clamped map[string]int
	// Skipped lists monitored columns that were absent or not numeric.
	Skipped []string
	// FlaggedRows is the number of rows with Cleaning set.
	FlaggedRows int
}

// Clean returns a snapshot of t where every monitored numeric column is
// clamped at zero and a Cleaning column marks rows that held at least one
// negative monitored value. NaN readings pass through and never set the
// flag. Any Cleaning column already present in t is replaced.
func Clean(t *measurement.Table, columns []string) (*measurement.Table, Report, error) {
	rep := Report{Clamped: make(map[string]int)}
	flag := make([]bool, t.Len())

	out := t
	for _, name := range columns {
		if !t.Has(name) {
			rep.Skipped = append(rep.Skipped, name)
			continue
		}
		kind, err := t.Kind(name)
		if err != nil {
			return nil, Report{}, err
		}
		if kind != measurement.Numeric {
			rep.Skipped = append(rep.Skipped, name)
			continue
		}

		vals, err := t.Floats(name)
		if err != nil {
			return nil, Report{}, err
		}
		n := clampNegative(vals, flag)
		rep.Clamped[name] = n
		if n == 0 {
			continue
		}
		out, err = out.WithFloats(name, vals)
		if err != nil {
			return nil, Report{}, fmt.Errorf("clean %s: %w", name, err)
		}
	}

	flagCol := make([]float64, len(flag))
	for i, f := range flag {
		if f {
			flagCol[i] = 1
			rep.FlaggedRows++
		}
	}
	out, err := out.WithFloats(measurement.Cleaning, flagCol)
	if err != nil {
		return nil, Report{}, fmt.Errorf("add %s: %w", measurement.Cleaning, err)
	}
	return out, rep, nil
}

// clampNegative replaces negative values with zero in place, ORs each hit
// into flag and returns the number of values replaced.
func clampNegative(vals []float64, flag []bool) int {
	n := 0
	for i, v := range vals {
		if math.IsNaN(v) || v >= 0 {
			continue
		}
		vals[i] = 0
		flag[i] = true
		n++
	}
	return n
}
