package buildings

import (
	"strings"
	"testing"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/gridlume/electromap/model"
)

func wayWithNodes(coords ...[2]float64) *overpass.Way {
	way := &overpass.Way{}
	for _, c := range coords {
		node := &overpass.Node{}
		node.Lon = c[0]
		node.Lat = c[1]
		way.Nodes = append(way.Nodes, node)
	}
	return way
}

func TestBuildingQueryShape(t *testing.T) {
	bounds := model.BBox{West: 36.8, South: -1.3, East: 36.9, North: -1.2}
	q := buildingQuery(bounds, 15*time.Second)

	box := bounds.OverpassBounds()
	for _, part := range []string{
		"[out:json]",
		"[timeout:15]",
		"node[building](" + box + ")",
		"way[building](" + box + ")",
		"relation[building](" + box + ")",
		"out body geom;",
	} {
		if !strings.Contains(q, part) {
			t.Fatalf("query missing %q: %s", part, q)
		}
	}
}

func TestFootprintsFromResultCountsEveryElement(t *testing.T) {
	pointBuilding := &overpass.Node{}
	pointBuilding.Lon = 36.82
	pointBuilding.Lat = -1.28

	result := &overpass.Result{
		Nodes: map[int64]*overpass.Node{
			10: pointBuilding,
			11: nil,
		},
		Ways: map[int64]*overpass.Way{
			1: wayWithNodes([2]float64{36.80, -1.30}, [2]float64{36.81, -1.30}, [2]float64{36.81, -1.29}, [2]float64{36.80, -1.30}),
			2: wayWithNodes([2]float64{36.85, -1.25}, [2]float64{36.86, -1.25}), // open stub, still a building
			3: nil,
		},
		Relations: map[int64]*overpass.Relation{
			20: {},
		},
	}

	// Nil entries aside, every fetched element counts: one node, two ways,
	// one relation.
	raw := footprintsFromResult(result)
	if len(raw) != 4 {
		t.Fatalf("elements = %d, want 4", len(raw))
	}

	var closed [][2]float64
	for _, b := range raw {
		if len(b.Outline) >= 3 {
			closed = b.Outline
		}
	}
	if closed == nil {
		t.Fatal("no drawable outline survived conversion")
	}
	if got := closed[0]; got != [2]float64{36.80, -1.30} {
		t.Fatalf("first position = %v, want lon/lat order", got)
	}
}

func TestFootprintsFromEmptyResult(t *testing.T) {
	if raw := footprintsFromResult(&overpass.Result{}); len(raw) != 0 {
		t.Fatalf("footprints from empty result = %d, want 0", len(raw))
	}
}
