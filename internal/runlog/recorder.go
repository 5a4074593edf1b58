// Package runlog persists completed model runs to Postgres for later
// analysis of which parameter combinations users actually explore.
package runlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/model"
	"github.com/gridlume/electromap/scenario"
)

// Schema for the model_runs table. Applied by deployment tooling, kept here
// as the single source of truth.
const Schema = `
CREATE TABLE IF NOT EXISTS model_runs (
	id          BIGSERIAL PRIMARY KEY,
	scenario    TEXT NOT NULL,
	country     TEXT NOT NULL,
	dynamic     BOOLEAN NOT NULL,
	params      JSONB NOT NULL,
	summary     JSONB NOT NULL,
	duration_ms BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Recorder writes one row per completed model run. It satisfies
// explore.RunRecorder. Failures are returned to the caller, which logs and
// drops them; a broken run log never blocks exploration.
type Recorder struct {
	db  *sqlx.DB
	log logging.Logger
}

// NewRecorder wraps an open database handle.
func NewRecorder(db *sqlx.DB, log logging.Logger) *Recorder {
	if log == nil {
		log = logging.Noop()
	}
	return &Recorder{db: db, log: log}
}

// Open connects to Postgres and returns a recorder over the connection.
func Open(connStr string, log logging.Logger) (*Recorder, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connect run log database: %w", err)
	}
	return NewRecorder(db, log), nil
}

// RecordRun inserts one completed run.
func (r *Recorder) RecordRun(ctx context.Context, key scenario.Key, st *scenario.State, summary model.Summary, durationMS int64) error {
	const query = `
		INSERT INTO model_runs (
			scenario, country, dynamic, params, summary, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6)`

	paramsJSON, err := json.Marshal(paramsRow(st))
	if err != nil {
		return fmt.Errorf("marshal run parameters: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		string(key), st.Country, st.Dynamic,
		paramsJSON, summaryJSON, durationMS,
	)
	if err != nil {
		return fmt.Errorf("insert model run: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Recorder) Close() error { return r.db.Close() }

// paramsRow flattens the parameter state into the stored JSON shape: bare
// numbers for single sliders, [lo, hi] pairs for ranges.
func paramsRow(st *scenario.State) map[string]interface{} {
	out := make(map[string]interface{})
	for name, v := range st.Parameters() {
		switch v.Kind {
		case scenario.KindRange:
			out[name] = [2]float64{v.Lo, v.Hi}
		default:
			out[name] = v.Scalar
		}
	}
	return out
}
