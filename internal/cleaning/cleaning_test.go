package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/banshee-data/irradiance.report/internal/measurement"
)

func TestClean_ClampsAndFlags(t *testing.T) {
	tbl, err := m.NewTable(
		m.FloatColumn(m.GHI, -50, 10, 20),
		m.FloatColumn(m.DNI, 100, -1, 30),
		m.FloatColumn(m.WD, 45, -10, 90),
		m.FloatColumn(m.WS, 3, 4, 5),
	)
	require.NoError(t, err)

	cleaned, rep, err := Clean(tbl, DefaultColumns)
	require.NoError(t, err)

	ghi, _ := cleaned.Floats(m.GHI)
	dni, _ := cleaned.Floats(m.DNI)
	wd, _ := cleaned.Floats(m.WD)
	flag, _ := cleaned.Floats(m.Cleaning)

	assert.Equal(t, []float64{0, 10, 20}, ghi)
	assert.Equal(t, []float64{100, 0, 30}, dni)
	assert.Equal(t, []float64{45, -10, 90}, wd, "WD is not monitored")
	assert.Equal(t, []float64{1, 1, 0}, flag)

	assert.Equal(t, 2, rep.FlaggedRows)
	assert.Equal(t, 1, rep.Clamped[m.GHI])
	assert.Equal(t, 1, rep.Clamped[m.DNI])
	assert.Equal(t, 0, rep.Clamped[m.WS])
	assert.ElementsMatch(t, []string{m.DHI, m.ModA, m.ModB, m.WSgust}, rep.Skipped)
}

func TestClean_SingleRowScenario(t *testing.T) {
	tbl, err := m.NewTable(
		m.FloatColumn(m.GHI, -50),
		m.FloatColumn(m.DNI, 100),
		m.FloatColumn(m.WD, 45),
		m.FloatColumn(m.WS, 3),
	)
	require.NoError(t, err)

	cleaned, _, err := Clean(tbl, DefaultColumns)
	require.NoError(t, err)

	ghi, _ := cleaned.Floats(m.GHI)
	flag, _ := cleaned.Floats(m.Cleaning)
	assert.Equal(t, 0.0, ghi[0])
	assert.Equal(t, 1.0, flag[0])
}

func TestClean_NaNPassesThroughUnflagged(t *testing.T) {
	nan := math.NaN()
	tbl, err := m.NewTable(m.FloatColumn(m.GHI, nan, -2, 3))
	require.NoError(t, err)

	cleaned, rep, err := Clean(tbl, DefaultColumns)
	require.NoError(t, err)

	ghi, _ := cleaned.Floats(m.GHI)
	flag, _ := cleaned.Floats(m.Cleaning)
	assert.True(t, math.IsNaN(ghi[0]))
	assert.Equal(t, []float64{0, 1, 0}, flag)
	assert.Equal(t, 1, rep.FlaggedRows)
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	tbl, err := m.NewTable(m.FloatColumn(m.ModA, -3, 4))
	require.NoError(t, err)

	_, _, err = Clean(tbl, DefaultColumns)
	require.NoError(t, err)

	raw, _ := tbl.Floats(m.ModA)
	assert.Equal(t, []float64{-3, 4}, raw)
	assert.False(t, tbl.Has(m.Cleaning))
}

func TestClean_ReplacesExistingFlag(t *testing.T) {
	tbl, err := m.NewTable(
		m.FloatColumn(m.GHI, 1, -1),
		m.FloatColumn(m.Cleaning, 1, 0),
	)
	require.NoError(t, err)

	cleaned, _, err := Clean(tbl, DefaultColumns)
	require.NoError(t, err)

	flag, _ := cleaned.Floats(m.Cleaning)
	assert.Equal(t, []float64{0, 1}, flag)
	assert.Equal(t, []string{m.GHI, m.Cleaning}, cleaned.Names())
}

func TestClean_SkipsTextAndMissingColumns(t *testing.T) {
	tbl, err := m.NewTable(
		m.TextColumn(m.GHI, "-1", "n/a"),
		m.FloatColumn(m.RH, -5, 50),
	)
	require.NoError(t, err)

	cleaned, rep, err := Clean(tbl, DefaultColumns)
	require.NoError(t, err)
	assert.Contains(t, rep.Skipped, m.GHI)

	rh, _ := cleaned.Floats(m.RH)
	assert.Equal(t, []float64{-5, 50}, rh, "RH is outside the default policy")

	withRH, _, err := Clean(tbl, append(append([]string{}, DefaultColumns...), m.RH))
	require.NoError(t, err)
	rh, _ = withRH.Floats(m.RH)
	assert.Equal(t, []float64{0, 50}, rh)
}

// Post-clean values of every monitored column are non-negative and the flag
// is set exactly on rows that held a negative monitored reading.
func TestClean_Properties(t *testing.T) {
	rows := [][]float64{
		{-1, 0, 5, 2, 2, 1, 1},
		{0, 0, 0, 0, 0, 0, 0},
		{3, 4, 5, 6, 7, 8, -0.5},
		{1, 1, 1, 1, -9, 1, 1},
		{2, 2, 2, 2, 2, 2, 2},
	}
	cols := make([]m.ColumnData, len(DefaultColumns))
	for j, name := range DefaultColumns {
		vals := make([]float64, len(rows))
		for i := range rows {
			vals[i] = rows[i][j]
		}
		cols[j] = m.FloatColumn(name, vals...)
	}
	tbl, err := m.NewTable(cols...)
	require.NoError(t, err)

	cleaned, _, err := Clean(tbl, DefaultColumns)
	require.NoError(t, err)

	flag, _ := cleaned.Floats(m.Cleaning)
	for i, row := range rows {
		hadNegative := false
		for _, v := range row {
			if v < 0 {
				hadNegative = true
			}
		}
		assert.Equal(t, hadNegative, flag[i] == 1, "row %d", i)
	}
	for _, name := range DefaultColumns {
		vals, _ := cleaned.Floats(name)
		for i, v := range vals {
			assert.GreaterOrEqual(t, v, 0.0, "%s row %d", name, i)
		}
	}
}
