// Package testutil provides shared test helpers and measurement fixtures.
package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"image"
	"image/png"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/banshee-data/irradiance.report/internal/fsutil"
	"github.com/banshee-data/irradiance.report/internal/measurement"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertPNG fails the test unless data decodes as a PNG, and returns its
// bounds.
func AssertPNG(t testing.TB, data []byte) image.Rectangle {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	return img.Bounds()
}

// Fixture builds a measurement CSV export row by row.
type Fixture struct {
	Columns []string
	Rows    [][]string
}

// NewFixture starts a fixture with the given header.
func NewFixture(columns ...string) *Fixture {
	return &Fixture{Columns: columns}
}

// Row appends one row. nil and NaN become empty cells, float64 values use
// the shortest representation, and strings are written as given.
func (f *Fixture) Row(values ...interface{}) *Fixture {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = cell(v)
	}
	f.Rows = append(f.Rows, row)
	return f
}

func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02 15:04")
	default:
		return fmt.Sprint(x)
	}
}

// String renders the fixture as CSV.
func (f *Fixture) String() string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(f.Columns)
	w.WriteAll(f.Rows)
	return buf.String()
}

// WriteFile stores the fixture at path, creating parent directories.
func (f *Fixture) WriteFile(fsys fsutil.FileSystem, path string) error {
	return fsys.WriteFile(path, []byte(f.String()), 0644)
}

// SiteDay returns a fixture with every recognised column and n one-minute
// rows starting at start. Values follow a smooth daily pattern and include
// a few negative night-time irradiance readings.
func SiteDay(start time.Time, n int) *Fixture {
	f := NewFixture(measurement.Vocabulary...)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		phase := 2 * math.Pi * float64(i) / float64(n)
		sun := math.Sin(phase)
		ghi := round(800*sun, 1)
		values := map[string]interface{}{
			measurement.Timestamp: ts,
			measurement.GHI:       ghi,
			measurement.DNI:       round(600*sun, 1),
			measurement.DHI:       round(200*sun, 1),
			measurement.ModA:      round(25+20*sun, 1),
			measurement.ModB:      round(24+19*sun, 1),
			measurement.WS:        round(3+2*math.Cos(phase), 2),
			measurement.WSgust:    round(4+3*math.Cos(phase), 2),
			measurement.WD:        float64((i * 37) % 361),
			measurement.RH:        round(60-20*sun, 1),
			measurement.Tamb:      round(22+6*sun, 1),
		}
		row := make([]interface{}, len(f.Columns))
		for j, c := range f.Columns {
			row[j] = values[c]
		}
		f.Row(row...)
	}
	return f
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
