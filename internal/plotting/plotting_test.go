package plotting

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/irradiance.report/internal/fsutil"
	m "github.com/banshee-data/irradiance.report/internal/measurement"
)

func testRenderer(t *testing.T) (*Renderer, *fsutil.MemoryFileSystem) {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/results", 0755))
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 4*vg.Inch, 3*vg.Inch
	cfg.CompositeWidth, cfg.CompositeHeight = 6*vg.Inch, 4*vg.Inch
	return NewRenderer(mfs, "/results", cfg), mfs
}

func fullTable(t *testing.T) *m.Table {
	t.Helper()
	nan := math.NaN()
	tbl, err := m.NewTable(
		m.TextColumn(m.Timestamp, "2021-08-09 00:03", "2021-08-09 00:01", "2021-08-09 00:02", "2021-08-09 00:04"),
		m.FloatColumn(m.GHI, 10, 0, 5, nan),
		m.FloatColumn(m.DNI, 20, 0, 8, 12),
		m.FloatColumn(m.DHI, 5, 0, 2, 3),
		m.FloatColumn(m.Tamb, 24.1, 23.9, 24.0, 24.5),
		m.FloatColumn(m.ModA, 30, 28, 29, 31),
		m.FloatColumn(m.ModB, 29, 27, 28, 30),
		m.FloatColumn(m.RH, 60, 70, nan, 65),
		m.FloatColumn(m.WS, 1.5, 3.2, nan, 11),
		m.FloatColumn(m.WD, 0, 90, 180, 360),
	)
	require.NoError(t, err)
	return tbl
}

func decodePNG(t *testing.T, mfs *fsutil.MemoryFileSystem, path string) (int, int) {
	t.Helper()
	data, err := mfs.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "%s is not a PNG", path)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestTimeSeries(t *testing.T) {
	r, mfs := testRenderer(t)

	path, err := r.TimeSeries(fullTable(t), "site")
	require.NoError(t, err)
	assert.Equal(t, "/results/site_time_series.png", path)

	// 96 dpi.
	w, h := decodePNG(t, mfs, path)
	assert.Equal(t, 576, w)
	assert.Equal(t, 384, h)
}

func TestTimeSeriesPanelColours(t *testing.T) {
	got := map[string]color.RGBA{}
	for _, p := range timeSeriesPanels {
		got[p.column] = p.colour
	}
	assert.Equal(t, map[string]color.RGBA{
		m.GHI:  tabBlue,
		m.DNI:  tabOrange,
		m.DHI:  tabGreen,
		m.Tamb: tabRed,
	}, got)
}

func TestTimeSeries_MissingColumn(t *testing.T) {
	r, mfs := testRenderer(t)
	tbl, err := m.NewTable(
		m.TextColumn(m.Timestamp, "2021-08-09 00:01"),
		m.FloatColumn(m.GHI, 1),
	)
	require.NoError(t, err)

	_, err = r.TimeSeries(tbl, "site")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DNI")
	assert.Empty(t, mfs.Files("/results"))
}

func TestTimeSeries_BadTimestamp(t *testing.T) {
	r, _ := testRenderer(t)
	tbl, err := m.NewTable(
		m.TextColumn(m.Timestamp, "yesterday"),
		m.FloatColumn(m.GHI, 1),
		m.FloatColumn(m.DNI, 1),
		m.FloatColumn(m.DHI, 1),
		m.FloatColumn(m.Tamb, 1),
	)
	require.NoError(t, err)

	_, err = r.TimeSeries(tbl, "site")
	assert.Error(t, err)
}

func TestHumidity(t *testing.T) {
	r, mfs := testRenderer(t)

	paths, err := r.Humidity(fullTable(t), "site")
	require.NoError(t, err)
	assert.Equal(t, []string{"/results/site_rh_vs_module_temp.png", "/results/site_rh_vs_ghi.png"}, paths)
	for _, p := range paths {
		w, h := decodePNG(t, mfs, p)
		assert.Equal(t, 384, w)
		assert.Equal(t, 288, h)
	}
}

func TestHumidity_SkipsPlotsWithMissingColumns(t *testing.T) {
	r, mfs := testRenderer(t)

	// No GHI: only the module temperature plot applies.
	tbl, err := m.NewTable(
		m.FloatColumn(m.RH, 50, 60),
		m.FloatColumn(m.ModA, 20, 21),
		m.FloatColumn(m.ModB, 19, 20),
	)
	require.NoError(t, err)
	paths, err := r.Humidity(tbl, "site")
	require.NoError(t, err)
	assert.Equal(t, []string{"/results/site_rh_vs_module_temp.png"}, paths)

	// No RH: nothing applies and nothing fails.
	tbl, err = m.NewTable(m.FloatColumn(m.GHI, 1))
	require.NoError(t, err)
	paths, err = r.Humidity(tbl, "other")
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.False(t, mfs.Exists("/results/other_rh_vs_ghi.png"))
}

func TestWind(t *testing.T) {
	r, mfs := testRenderer(t)

	paths, err := r.Wind(fullTable(t), "site")
	require.NoError(t, err)
	assert.Equal(t, []string{"/results/site_wind_rose.png", "/results/site_wind_direction.png"}, paths)
	for _, p := range paths {
		w, h := decodePNG(t, mfs, p)
		assert.Equal(t, w, h, "%s should be square", p)
	}
}

func TestWind_AllNullStillRenders(t *testing.T) {
	r, mfs := testRenderer(t)
	nan := math.NaN()
	tbl, err := m.NewTable(
		m.FloatColumn(m.WS, nan, nan),
		m.FloatColumn(m.WD, 10, nan),
	)
	require.NoError(t, err)

	paths, err := r.Wind(tbl, "calm")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	decodePNG(t, mfs, paths[0])
}

func TestWind_MissingColumn(t *testing.T) {
	r, _ := testRenderer(t)
	tbl, err := m.NewTable(m.FloatColumn(m.WS, 1))
	require.NoError(t, err)

	_, err = r.Wind(tbl, "site")
	assert.Error(t, err)
}

func TestWind_DoesNotTouchInput(t *testing.T) {
	r, _ := testRenderer(t)
	tbl := fullTable(t)

	_, err := r.Wind(tbl, "site")
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
}

func TestSpeedPalette(t *testing.T) {
	for _, n := range []int{1, 2, 6, 9} {
		cs, err := SpeedPalette(n)
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, cs, n)
	}
	_, err := SpeedPalette(10)
	assert.Error(t, err)
	_, err = SpeedPalette(0)
	assert.Error(t, err)
}

func TestDashboard(t *testing.T) {
	r, mfs := testRenderer(t)

	path, err := r.Dashboard(fullTable(t), "site")
	require.NoError(t, err)
	assert.Equal(t, "/results/site_dashboard.html", path)

	first, err := mfs.ReadFile(path)
	require.NoError(t, err)
	html := string(first)
	for _, id := range []string{"irradiance", "wind_direction", "rh_vs_ghi"} {
		assert.Contains(t, html, id)
	}
	assert.Contains(t, html, "330-360")

	_, err = r.Dashboard(fullTable(t), "site")
	require.NoError(t, err)
	second, err := mfs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDashboard_NoChartedColumns(t *testing.T) {
	r, mfs := testRenderer(t)
	tbl, err := m.NewTable(m.FloatColumn(m.ModA, 1))
	require.NoError(t, err)

	path, err := r.Dashboard(tbl, "site")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Empty(t, mfs.Files("/results"))
}

func TestStride(t *testing.T) {
	r := &Renderer{cfg: Config{DashboardPoints: 100}}
	assert.Equal(t, 1, r.stride(50))
	assert.Equal(t, 1, r.stride(100))
	assert.Equal(t, 2, r.stride(101))
	assert.Equal(t, 10, r.stride(1000))

	r.cfg.DashboardPoints = 0
	assert.Equal(t, 1, r.stride(1_000_000))
}

func TestPolarRings(t *testing.T) {
	pc := &polarChart{RMax: 12.5}
	rings := pc.rings()
	require.NotEmpty(t, rings)
	for _, r := range rings {
		assert.Greater(t, r, 0.0)
		assert.Less(t, r, 12.5)
	}
}
