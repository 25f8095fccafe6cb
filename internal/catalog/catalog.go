// Package catalog records analysis runs and their summary statistics in a
// sqlite database so results can be compared across runs.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/irradiance.report/internal/measurement"
	"github.com/banshee-data/irradiance.report/internal/summary"
	"github.com/banshee-data/irradiance.report/internal/timeutil"
)

// Run states.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of the analysis pipeline.
type Run struct {
	RunID          string `json:"run_id"`
	InputDir       string `json:"input_dir"`
	OutputDir      string `json:"output_dir"`
	StartedAt      int64  `json:"started_at"`
	FinishedAt     int64  `json:"finished_at,omitempty"`
	FilesProcessed int    `json:"files_processed"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

// Output is one file written by a run.
type Output struct {
	File string `json:"file"`
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Catalog is a sqlite-backed run store.
type Catalog struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database at path and brings its
// schema up to date.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	c := &Catalog{db: db, clock: timeutil.RealClock{}}
	if err := c.MigrateUp(Migrations()); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// SetClock replaces the clock used for run timestamps.
func (c *Catalog) SetClock(clock timeutil.Clock) {
	c.clock = clock
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// BeginRun records the start of a run and returns its ID.
func (c *Catalog) BeginRun(inputDir, outputDir string) (string, error) {
	runID := uuid.New().String()
	err := retryOnBusy(func() error {
		_, err := c.db.Exec(`
			INSERT INTO analysis_runs (run_id, input_dir, output_dir, started_at, status)
			VALUES (?, ?, ?, ?, ?)`,
			runID, inputDir, outputDir, c.clock.Now().UnixNano(), StatusRunning,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return runID, nil
}

// FinishRun marks a run as done. A non-nil runErr marks it failed and keeps
// the message.
func (c *Catalog) FinishRun(runID string, filesProcessed int, runErr error) error {
	status := StatusSucceeded
	var msg interface{}
	if runErr != nil {
		status = StatusFailed
		msg = runErr.Error()
	}
	var res sql.Result
	err := retryOnBusy(func() error {
		var err error
		res, err = c.db.Exec(`
			UPDATE analysis_runs
			SET finished_at = ?, files_processed = ?, status = ?, error = ?
			WHERE run_id = ?`,
			c.clock.Now().UnixNano(), filesProcessed, status, msg, runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun returns a run by ID.
func (c *Catalog) GetRun(runID string) (*Run, error) {
	var r Run
	var finished sql.NullInt64
	var msg sql.NullString
	err := c.db.QueryRow(`
		SELECT run_id, input_dir, output_dir, started_at, finished_at, files_processed, status, error
		FROM analysis_runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &r.InputDir, &r.OutputDir, &r.StartedAt, &finished, &r.FilesProcessed, &r.Status, &msg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.FinishedAt = finished.Int64
	r.Error = msg.String
	return &r, nil
}

// RecordSummary stores the summary records of one input file. Records
// already stored for the same run and file are replaced.
func (c *Catalog) RecordSummary(runID, file string, records []summary.Record) error {
	return retryOnBusy(func() error {
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM summary_records WHERE run_id = ? AND file = ?`, runID, file); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO summary_records (
				run_id, file, position, column_name, kind, count,
				unique_count, top, freq,
				mean, std, min, q25, q50, q75, max, median,
				missing
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, r := range records {
			var unique, top, freq interface{}
			if r.Kind == measurement.Text {
				unique, top, freq = r.Unique, r.Top, r.Freq
			}
			_, err := stmt.Exec(
				runID, file, i, r.Column, r.Kind.String(), r.Count,
				unique, top, freq,
				nullable(r.Mean), nullable(r.Std), nullable(r.Min), nullable(r.Q25),
				nullable(r.Q50), nullable(r.Q75), nullable(r.Max), nullable(r.Median),
				r.Missing,
			)
			if err != nil {
				return fmt.Errorf("insert %s/%s: %w", file, r.Column, err)
			}
		}
		return tx.Commit()
	})
}

// Summaries returns the records stored for a run and file, in the order
// they were recorded.
func (c *Catalog) Summaries(runID, file string) ([]summary.Record, error) {
	rows, err := c.db.Query(`
		SELECT column_name, kind, count, unique_count, top, freq,
		       mean, std, min, q25, q50, q75, max, median, missing
		FROM summary_records
		WHERE run_id = ? AND file = ?
		ORDER BY position`, runID, file)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []summary.Record
	for rows.Next() {
		var r summary.Record
		var kind string
		var unique, freq sql.NullInt64
		var top sql.NullString
		stats := make([]sql.NullFloat64, 8)
		err := rows.Scan(
			&r.Column, &kind, &r.Count, &unique, &top, &freq,
			&stats[0], &stats[1], &stats[2], &stats[3], &stats[4], &stats[5], &stats[6], &stats[7],
			&r.Missing,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if kind == measurement.Text.String() {
			r.Kind = measurement.Text
		}
		r.Unique, r.Top, r.Freq = int(unique.Int64), top.String, int(freq.Int64)
		dst := []*float64{&r.Mean, &r.Std, &r.Min, &r.Q25, &r.Q50, &r.Q75, &r.Max, &r.Median}
		for i, s := range stats {
			*dst[i] = math.NaN()
			if s.Valid {
				*dst[i] = s.Float64
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordOutput stores a file written by a run.
func (c *Catalog) RecordOutput(runID, file, kind, path string) error {
	return retryOnBusy(func() error {
		_, err := c.db.Exec(`
			INSERT OR REPLACE INTO run_outputs (run_id, file, kind, path)
			VALUES (?, ?, ?, ?)`, runID, file, kind, path)
		return err
	})
}

// Outputs lists the files written by a run, ordered by path.
func (c *Catalog) Outputs(runID string) ([]Output, error) {
	rows, err := c.db.Query(`
		SELECT file, kind, path FROM run_outputs
		WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outputs: %w", err)
	}
	defer rows.Close()

	var out []Output
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.File, &o.Kind, &o.Path); err != nil {
			return nil, fmt.Errorf("scan output: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// retryOnBusy retries fn while sqlite reports the database as locked.
func retryOnBusy(fn func() error) error {
	const attempts = 5
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(i+1) * 20 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
