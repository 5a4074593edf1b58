package explore

import "github.com/gridlume/electromap/model"

// Map layer names shared with the rendering engine.
const (
	LayerClusters  = "clusters"
	LayerNetwork   = "network"
	LayerGrid      = "grid"
	LayerBuildings = "buildings"
)

// Directive ops. Each directive is one instruction for the rendering engine;
// a transition emits an ordered batch of them.
const (
	OpSetData     = "set-data"
	OpSetFilter   = "set-filter"
	OpSetPaint    = "set-paint"
	OpSetVisible  = "set-visibility"
	OpFillOpacity = "set-fill-opacity"
	OpSetPopup    = "set-popup"
	OpFitBounds   = "fit-bounds"
	OpRedraw      = "redraw"
)

// Directive is a single data-update or styling instruction for a named map
// layer. Only the fields meaningful for Op are populated.
type Directive struct {
	Op       string                   `json:"op"`
	Layer    string                   `json:"layer,omitempty"`
	Data     *model.FeatureCollection `json:"data,omitempty"`
	Filter   []interface{}            `json:"filter,omitempty"`
	Property string                   `json:"property,omitempty"`
	Value    interface{}              `json:"value,omitempty"`
	Bounds   *model.BBox              `json:"bounds,omitempty"`
}

// Binder receives directive batches. The production binder relays them to
// the browser; tests capture them.
type Binder interface {
	Apply(batch []Directive)
}

// NoopBinder drops all directives.
type NoopBinder struct{}

func (NoopBinder) Apply([]Directive) {}

// Cluster category colors for plan mode, keyed by the `type` property the
// modeling service assigns (orig = connected at start, new = newly grid
// connected, og = off-grid).
var clusterTypeColors = []interface{}{
	"orig", "#377eb8",
	"new", "#4daf4a",
	"og", "#e41a1c",
}

// clusterTypePaint colors clusters by connection category over the given
// property name (type for a static plan, type_<step> during playback).
func clusterTypePaint(property string) []interface{} {
	expr := []interface{}{"match", []interface{}{"get", property}}
	expr = append(expr, clusterTypeColors...)
	expr = append(expr, "#bdbdbd")
	return expr
}

// scorePaint colors clusters on the continuous 1..5 priority score ramp used
// in find mode.
func scorePaint() map[string]interface{} {
	return map[string]interface{}{
		"property": "score",
		"stops": [][]interface{}{
			{1, "#ffffcc"},
			{2, "#c2e699"},
			{3, "#78c679"},
			{4, "#31a354"},
			{5, "#006837"},
		},
	}
}

// stageFilter reveals network arcs cumulatively: everything whose stage tag
// is at or below the current step stays visible.
func stageFilter(step int) []interface{} {
	return []interface{}{"all", []interface{}{"<=", "stage", step}}
}

func setData(layer string, fc *model.FeatureCollection) Directive {
	return Directive{Op: OpSetData, Layer: layer, Data: fc}
}

func setFilter(layer string, filter []interface{}) Directive {
	return Directive{Op: OpSetFilter, Layer: layer, Filter: filter}
}

func setPaint(layer, property string, value interface{}) Directive {
	return Directive{Op: OpSetPaint, Layer: layer, Property: property, Value: value}
}

func setVisible(layer string, visible bool) Directive {
	return Directive{Op: OpSetVisible, Layer: layer, Value: visible}
}

func setFillOpacity(layer string, opacity float64) Directive {
	return Directive{Op: OpFillOpacity, Layer: layer, Value: opacity}
}

func setPopup(layer string, enabled bool) Directive {
	return Directive{Op: OpSetPopup, Layer: layer, Value: enabled}
}

func fitBounds(b model.BBox) Directive {
	return Directive{Op: OpFitBounds, Bounds: &b}
}

func redraw() Directive {
	return Directive{Op: OpRedraw}
}
