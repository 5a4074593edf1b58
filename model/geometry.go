package model

import "fmt"

// BBox is an axis-aligned bounding box in lon/lat degrees: [west, south,
// east, north].
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// OverpassBounds renders the box in the "S,W,N,E" order the Overpass API
// expects.
func (b BBox) OverpassBounds() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.South, b.West, b.North, b.East)
}

// Geometry is a minimal GeoJSON geometry. Coordinates is left as raw JSON
// shape (nested float slices) since this service never computes with it, only
// relays it between collaborators and derives bounding boxes.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Feature is a GeoJSON feature with numeric/string properties.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns an empty, well-formed collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// NumProperty reads a numeric property off a feature, tolerating the
// int/float ambiguity of decoded JSON.
func (f *Feature) NumProperty(name string) (float64, bool) {
	v, ok := f.Properties[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bounds computes the feature's bounding box by walking its coordinate
// arrays. Returns false for geometries without positions.
func (f *Feature) Bounds() (BBox, bool) {
	box := BBox{West: 180, South: 90, East: -180, North: -90}
	found := false

	var walk func(v interface{})
	walk = func(v interface{}) {
		switch c := v.(type) {
		case []interface{}:
			// A position is a leaf [lon, lat] pair of numbers.
			if len(c) >= 2 {
				lon, lonOK := asFloat(c[0])
				lat, latOK := asFloat(c[1])
				if lonOK && latOK {
					found = true
					if lon < box.West {
						box.West = lon
					}
					if lon > box.East {
						box.East = lon
					}
					if lat < box.South {
						box.South = lat
					}
					if lat > box.North {
						box.North = lat
					}
					return
				}
			}
			for _, item := range c {
				walk(item)
			}
		case []float64:
			if len(c) >= 2 {
				found = true
				if c[0] < box.West {
					box.West = c[0]
				}
				if c[0] > box.East {
					box.East = c[0]
				}
				if c[1] < box.South {
					box.South = c[1]
				}
				if c[1] > box.North {
					box.North = c[1]
				}
			}
		case [][]float64:
			for _, item := range c {
				walk(item)
			}
		case [][][]float64:
			for _, item := range c {
				walk(item)
			}
		}
	}
	walk(f.Geometry.Coordinates)

	if !found {
		return BBox{}, false
	}
	return box, true
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
