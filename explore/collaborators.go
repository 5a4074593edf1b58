package explore

import (
	"context"

	"github.com/gridlume/electromap/model"
	"github.com/gridlume/electromap/scenario"
)

// ModelRunner is the remote modeling service. Run is addressed per scenario
// key with that scenario's parameter names; no timeout is enforced here. The
// state is a detached snapshot, safe to read for the whole call.
type ModelRunner interface {
	Run(ctx context.Context, key scenario.Key, state *scenario.State) (*model.RunResult, error)
}

// GeometrySource supplies the one-time national geometry load for a country.
type GeometrySource interface {
	CountryGeometry(ctx context.Context, country string) (*model.CountryGeometry, error)
}

// RawBuilding is one building element as fetched from the external source:
// an outline ring of lon/lat positions, not yet GeoJSON. Point buildings and
// relations carry fewer than three positions; they still count toward the
// admissibility window, but only closed outlines reach the layer geometry.
type RawBuilding struct {
	Outline [][2]float64
}

// BuildingSource fetches raw building footprints inside a bounding box. The
// request carries its own fixed timeout; it is never retried automatically.
type BuildingSource interface {
	FetchBuildings(ctx context.Context, bounds model.BBox) ([]RawBuilding, error)
}

// RunRecorder persists a completed model run for later analysis. Optional;
// failures are logged and never affect the transition.
type RunRecorder interface {
	RecordRun(ctx context.Context, key scenario.Key, state *scenario.State, summary model.Summary, durationMS int64) error
}

// MetricsRecorder receives controller events. Optional.
type MetricsRecorder interface {
	ObserveTransition(name string)
	ObserveRun(key string, outcome string, seconds float64)
	ObserveFootprintFetch(outcome string)
}
