package summary

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/irradiance.report/internal/cleaning"
	"github.com/banshee-data/irradiance.report/internal/fsutil"
	m "github.com/banshee-data/irradiance.report/internal/measurement"
)

const siteCSV = `Timestamp,GHI,RH,Comments
2021-08-09 00:01,-1,50,
2021-08-09 00:02,2,,
2021-08-09 00:01,4,50,
`

const wantSummaryCSV = `,count,unique,top,freq,mean,std,min,25%,50%,75%,max,median,missing_values
Timestamp,3,2,2021-08-09 00:01,2,,,,,,,,,0
GHI,3,,,,2.0,2.0,0.0,1.0,2.0,3.0,4.0,2.0,0
RH,2,,,,50.0,0.0,50.0,50.0,50.0,50.0,50.0,50.0,1
Comments,0,,,,,,,,,,,,3
`

func TestDescribe(t *testing.T) {
	nan := math.NaN()
	tbl, err := m.NewTable(
		m.TextColumn(m.Timestamp, "a", "b", "a", "", "c"),
		m.FloatColumn(m.GHI, 0, 10, 20, 30, nan),
	)
	require.NoError(t, err)

	got, err := Describe(tbl, []string{m.Timestamp, m.GHI, m.WS})
	require.NoError(t, err)

	want := []Record{
		{
			Column: m.Timestamp, Kind: m.Text,
			Count: 4, Unique: 3, Top: "a", Freq: 2,
			Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan, Median: nan,
			Missing: 1,
		},
		{
			Column: m.GHI, Kind: m.Numeric,
			Count: 4,
			Mean:  15, Std: math.Sqrt(500.0 / 3), Min: 0, Q25: 7.5, Q50: 15, Q75: 22.5, Max: 30, Median: 15,
			Missing: 1,
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Describe mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe_TopTieKeepsFirstSeen(t *testing.T) {
	tbl, err := m.NewTable(m.TextColumn("Site", "b", "a", "a", "b"))
	require.NoError(t, err)

	got, err := Describe(tbl, []string{"Site"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Top)
	assert.Equal(t, 2, got[0].Freq)
}

func TestDescribe_SingleValueHasNoStd(t *testing.T) {
	tbl, err := m.NewTable(m.FloatColumn(m.Tamb, 21.5))
	require.NoError(t, err)

	got, err := Describe(tbl, []string{m.Tamb})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0].Std))
	assert.Equal(t, 21.5, got[0].Median)
}

func TestQuantile(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	tests := []struct {
		p, want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(x, tt.p), 1e-12, "p=%v", tt.p)
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.9))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{15, "15.0"},
		{-3.25, "-3.25"},
		{1000000, "1000000.0"},
		{0.1, "0.1"},
		{0.00001, "1e-05"},
		{math.NaN(), ""},
		{math.Inf(1), "inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in), "FormatFloat(%v)", tt.in)
	}
}

func TestWriteCSV(t *testing.T) {
	raw, err := m.ReadCSV(strings.NewReader(siteCSV))
	require.NoError(t, err)
	cleaned, _, err := cleaning.Clean(raw, cleaning.DefaultColumns)
	require.NoError(t, err)
	records, err := Describe(cleaned, raw.Names())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	assert.Equal(t, wantSummaryCSV, buf.String())
}

func TestSummarizeFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/data/site.csv", []byte(siteCSV), 0644))
	require.NoError(t, mfs.MkdirAll("/results", 0755))

	paths, err := SummarizeFile(mfs, "/data/site.csv", "/results", cleaning.DefaultColumns, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/results/site_summary.csv"}, paths)

	first, err := mfs.ReadFile("/results/site_summary.csv")
	require.NoError(t, err)
	assert.Equal(t, wantSummaryCSV, string(first))

	// Statistics are taken after cleaning: GHI min is 0, not -1.
	assert.Contains(t, string(first), "GHI,3,,,,2.0,2.0,0.0,")

	_, err = SummarizeFile(mfs, "/data/site.csv", "/results", cleaning.DefaultColumns, nil)
	require.NoError(t, err)
	second, err := mfs.ReadFile("/results/site_summary.csv")
	require.NoError(t, err)
	assert.Equal(t, first, second, "summary output must be byte-identical across runs")
}

func TestSummarizeFile_MissingInput(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	_, err := SummarizeFile(mfs, "/data/none.csv", "/results", cleaning.DefaultColumns, nil)
	assert.Error(t, err)
}

func TestSave_XLSX(t *testing.T) {
	raw, err := m.ReadCSV(strings.NewReader(siteCSV))
	require.NoError(t, err)
	records, err := Describe(raw, raw.Names())
	require.NoError(t, err)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/results", 0755))

	paths, err := Save(mfs, "/results", "site", records, []string{FormatCSV, FormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, []string{"/results/site_summary.csv", "/results/site_summary.xlsx"}, paths)

	data, err := mfs.ReadFile("/results/site_summary.xlsx")
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "count", rows[0][1])
	assert.Equal(t, "Timestamp", rows[1][0])
	assert.Equal(t, "GHI", rows[2][0])
	assert.Equal(t, "Comments", rows[4][0])
}

func TestSave_UnknownFormat(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/results", 0755))

	_, err := Save(mfs, "/results", "site", nil, []string{"parquet"})
	assert.Error(t, err)
}
