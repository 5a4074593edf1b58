package explore

import (
	"errors"
	"fmt"

	"github.com/gridlume/electromap/model"
)

// ZoomState enumerates the national-to-local workflow states.
type ZoomState string

const (
	ZoomNational        ZoomState = "national"
	ZoomPending         ZoomState = "pending-building-data"
	ZoomLocalReady      ZoomState = "local-ready"
	ZoomRejectedTooFew  ZoomState = "rejected-too-few"
	ZoomRejectedTooMany ZoomState = "rejected-too-many"
)

// Admissibility window for local analysis, in building count. Both bounds
// are inclusive: 5 and 2000 buildings are admissible, 4 and 2001 are not.
const (
	MinBuildings = 5
	MaxBuildings = 2000
)

var (
	ErrZoomBusy     = errors.New("zoom transition already in progress")
	ErrNotZoomedIn  = errors.New("not zoomed in")
	ErrNotPending   = errors.New("no pending building fetch")
	ErrNoGeometry   = errors.New("cluster has no usable geometry")
	errZoomNotReady = errors.New("zoom workflow not in a terminal state")
)

// ZoomWorkflow tracks the national→local transition for one session. It is
// driven by the controller under the controller's lock and keeps no lock of
// its own.
type ZoomWorkflow struct {
	state      ZoomState
	bounds     model.BBox
	footprints *model.FeatureCollection

	// dynamicWasActive remembers whether the dynamic affordance was showing
	// before zoom-in, so zooming out can restore it.
	dynamicWasActive bool
}

// NewZoomWorkflow starts at national scope.
func NewZoomWorkflow() *ZoomWorkflow {
	return &ZoomWorkflow{state: ZoomNational}
}

// State returns the current workflow state.
func (z *ZoomWorkflow) State() ZoomState { return z.state }

// Bounds returns the selected cluster's bounding box. Valid only away from
// the national state.
func (z *ZoomWorkflow) Bounds() model.BBox { return z.bounds }

// Footprints returns the accepted building collection, nil unless LocalReady.
func (z *ZoomWorkflow) Footprints() *model.FeatureCollection { return z.footprints }

// Begin moves National → PendingBuildingData: it derives the cluster bounds
// from the clicked feature and records whether dynamic playback was showing.
// A second cluster click while any zoom state is active is not a reachable
// transition; it fails rather than unwinding implicitly.
func (z *ZoomWorkflow) Begin(cluster *model.Feature, dynamicActive bool) (model.BBox, error) {
	if z.state != ZoomNational {
		return model.BBox{}, fmt.Errorf("%w: state %s", ErrZoomBusy, z.state)
	}
	bounds, ok := cluster.Bounds()
	if !ok {
		return model.BBox{}, ErrNoGeometry
	}
	z.state = ZoomPending
	z.bounds = bounds
	z.footprints = nil
	z.dynamicWasActive = dynamicActive
	return bounds, nil
}

// Admit applies the admissibility window to a successful fetch and, when the
// count fits, converts the raw footprints into the buildings layer shape.
// Counting and thresholding happen here, not in the fetcher.
func (z *ZoomWorkflow) Admit(raw []RawBuilding) (ZoomState, error) {
	if z.state != ZoomPending {
		return z.state, fmt.Errorf("%w: state %s", ErrNotPending, z.state)
	}
	switch n := len(raw); {
	case n < MinBuildings:
		z.state = ZoomRejectedTooFew
	case n > MaxBuildings:
		z.state = ZoomRejectedTooMany
	default:
		z.state = ZoomLocalReady
		z.footprints = footprintsToCollection(raw)
	}
	return z.state, nil
}

// ClearRejection returns a count-rejected workflow to national. It is the
// timed auto-clear companion to Admit; calling it in any other state is a
// no-op.
func (z *ZoomWorkflow) ClearRejection() bool {
	if z.state != ZoomRejectedTooFew && z.state != ZoomRejectedTooMany {
		return false
	}
	z.reset()
	return true
}

// Cancel abandons a pending fetch (typically after a transport failure) and
// returns to national. Only valid while pending.
func (z *ZoomWorkflow) Cancel() error {
	if z.state != ZoomPending {
		return fmt.Errorf("%w: state %s", ErrNotPending, z.state)
	}
	z.reset()
	return nil
}

// ZoomOut unwinds LocalReady (or a lingering rejection) back to national and
// reports whether the dynamic affordance should be re-shown.
func (z *ZoomWorkflow) ZoomOut() (restoreDynamic bool, err error) {
	switch z.state {
	case ZoomLocalReady, ZoomRejectedTooFew, ZoomRejectedTooMany:
		restoreDynamic = z.dynamicWasActive
		z.reset()
		return restoreDynamic, nil
	case ZoomPending:
		return false, fmt.Errorf("%w: building fetch still pending", errZoomNotReady)
	default:
		return false, ErrNotZoomedIn
	}
}

func (z *ZoomWorkflow) reset() {
	z.state = ZoomNational
	z.bounds = model.BBox{}
	z.footprints = nil
	z.dynamicWasActive = false
}

// footprintsToCollection converts raw outlines into GeoJSON polygons. Ring
// order is reversed so polygons wind the way the rendering engine expects.
// Elements without a closed outline (point buildings, relations) count
// toward admissibility but have nothing to draw.
func footprintsToCollection(raw []RawBuilding) *model.FeatureCollection {
	fc := model.NewFeatureCollection()
	for _, b := range raw {
		if len(b.Outline) < 3 {
			continue
		}
		ring := make([][]float64, 0, len(b.Outline))
		for i := len(b.Outline) - 1; i >= 0; i-- {
			ring = append(ring, []float64{b.Outline[i][0], b.Outline[i][1]})
		}
		fc.Features = append(fc.Features, model.Feature{
			Type:       "Feature",
			Properties: map[string]interface{}{},
			Geometry: model.Geometry{
				Type:        "Polygon",
				Coordinates: [][][]float64{ring},
			},
		})
	}
	return fc
}
