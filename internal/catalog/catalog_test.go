package catalog

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/summary"
	"github.com/banshee-data/irradiance.report/internal/timeutil"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleRecords() []summary.Record {
	nan := math.NaN()
	return []summary.Record{
		{
			Column: m.Timestamp, Kind: m.Text,
			Count: 3, Unique: 2, Top: "2021-08-09 00:01", Freq: 2,
			Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan, Median: nan,
		},
		{
			Column: m.GHI, Kind: m.Numeric,
			Count: 3, Mean: 2, Std: 2, Min: 0, Q25: 1, Q50: 2, Q75: 3, Max: 4, Median: 2,
		},
		{
			Column: m.RH, Kind: m.Numeric,
			Count: 1, Mean: 50, Std: nan, Min: 50, Q25: 50, Q50: 50, Q75: 50, Max: 50, Median: 50,
			Missing: 2,
		},
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	c := openTestCatalog(t)

	version, dirty, err := c.MigrateVersion(Migrations())
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Already at the latest version.
	require.NoError(t, c.MigrateUp(Migrations()))
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	require.NoError(t, err)
	runID, err := c.BeginRun("data", "results")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()
	run, err := c.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
}

func TestRunLifecycle(t *testing.T) {
	c := openTestCatalog(t)
	start := time.Date(2021, 8, 9, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(start)
	c.SetClock(clock)

	runID, err := c.BeginRun("data", "results")
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	clock.Advance(time.Minute)
	require.NoError(t, c.FinishRun(runID, 3, nil))

	run, err := c.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, &Run{
		RunID:          runID,
		InputDir:       "data",
		OutputDir:      "results",
		StartedAt:      start.UnixNano(),
		FinishedAt:     start.Add(time.Minute).UnixNano(),
		FilesProcessed: 3,
		Status:         StatusSucceeded,
	}, run)
}

func TestFinishRun_Failed(t *testing.T) {
	c := openTestCatalog(t)
	runID, err := c.BeginRun("data", "results")
	require.NoError(t, err)

	require.NoError(t, c.FinishRun(runID, 1, errors.New("load b.csv: bad row")))
	run, err := c.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "load b.csv: bad row", run.Error)
}

func TestFinishRun_UnknownRun(t *testing.T) {
	c := openTestCatalog(t)
	err := c.FinishRun("nope", 0, nil)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = c.GetRun("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSummaries_RoundTrip(t *testing.T) {
	c := openTestCatalog(t)
	runID, err := c.BeginRun("data", "results")
	require.NoError(t, err)

	want := sampleRecords()
	require.NoError(t, c.RecordSummary(runID, "site.csv", want))

	got, err := c.Summaries(runID, "site.csv")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("Summaries mismatch (-want +got):\n%s", diff)
	}

	other, err := c.Summaries(runID, "other.csv")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecordSummary_Replaces(t *testing.T) {
	c := openTestCatalog(t)
	runID, err := c.BeginRun("data", "results")
	require.NoError(t, err)

	require.NoError(t, c.RecordSummary(runID, "site.csv", sampleRecords()))
	require.NoError(t, c.RecordSummary(runID, "site.csv", sampleRecords()[1:2]))

	got, err := c.Summaries(runID, "site.csv")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m.GHI, got[0].Column)
}

func TestRecordSummary_UnknownRun(t *testing.T) {
	c := openTestCatalog(t)
	err := c.RecordSummary("nope", "site.csv", sampleRecords())
	assert.Error(t, err, "foreign key should reject unknown runs")
}

func TestOutputs(t *testing.T) {
	c := openTestCatalog(t)
	runID, err := c.BeginRun("data", "results")
	require.NoError(t, err)

	require.NoError(t, c.RecordOutput(runID, "site.csv", "wind_rose", "results/site_wind_rose.png"))
	require.NoError(t, c.RecordOutput(runID, "site.csv", "summary", "results/site_summary.csv"))
	require.NoError(t, c.RecordOutput(runID, "site.csv", "summary", "results/site_summary.csv"))

	got, err := c.Outputs(runID)
	require.NoError(t, err)
	assert.Equal(t, []Output{
		{File: "site.csv", Kind: "summary", Path: "results/site_summary.csv"},
		{File: "site.csv", Kind: "wind_rose", Path: "results/site_wind_rose.png"},
	}, got)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isBusy(errors.New("no such table")))

	calls := 0
	err := retryOnBusy(func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
