// Package buildings fetches building footprints from an Overpass API
// endpoint for the local zoom-in step.
package buildings

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/gridlume/electromap/explore"
	"github.com/gridlume/electromap/internal/logging"
	"github.com/gridlume/electromap/model"
)

const (
	// DefaultEndpoint is the public Overpass API interpreter.
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"

	// DefaultTimeout bounds one footprint query end to end. The same value
	// is passed to the interpreter so the server gives up at the same time
	// the client does.
	DefaultTimeout = 15 * time.Second
)

// Client queries Overpass for building outlines inside a bounding box. It
// satisfies explore.BuildingSource. Requests are never retried here; the
// caller decides whether a failed fetch is retried.
type Client struct {
	client  overpass.Client
	timeout time.Duration
	log     logging.Logger
}

// NewClient builds an Overpass client against the given endpoint. An empty
// endpoint selects the public interpreter; a non-positive timeout selects the
// default.
func NewClient(endpoint string, timeout time.Duration, log logging.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logging.Noop()
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		client:  overpass.NewWithSettings(endpoint, 1, httpClient),
		timeout: timeout,
		log:     log,
	}
}

// FetchBuildings runs one footprint query for the bounding box. Every fetched
// element is returned, one RawBuilding each, so the caller's admissibility
// count sees the raw response size; only ways carry a drawable outline.
func (c *Client) FetchBuildings(ctx context.Context, bounds model.BBox) ([]explore.RawBuilding, error) {
	query := buildingQuery(bounds, c.timeout)

	start := time.Now()
	result, err := c.client.Query(query)
	if err != nil {
		c.log.Warn(ctx, "overpass query failed",
			logging.String("bounds", bounds.OverpassBounds()),
			logging.Err(err),
		)
		return nil, fmt.Errorf("overpass query failed: %w", err)
	}

	raw := footprintsFromResult(&result)
	c.log.Info(ctx, "fetched building footprints",
		logging.String("bounds", bounds.OverpassBounds()),
		logging.Int("count", len(raw)),
		logging.Float64("seconds", time.Since(start).Seconds()),
	)
	return raw, nil
}

// buildingQuery asks for every building node, way and relation inside the
// box. Geometry comes back inline so no second resolve pass is needed.
func buildingQuery(bounds model.BBox, timeout time.Duration) string {
	box := bounds.OverpassBounds()
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf(
		"[out:json][timeout:%d];(node[building](%s);way[building](%s);relation[building](%s););out body geom;",
		secs, box, box, box,
	)
}

// footprintsFromResult returns one entry per fetched element so counting is
// lossless: node buildings become single-point outlines, ways keep their
// node outlines, relations count with no outline at all. Downstream polygon
// conversion draws only outlines with at least three positions.
func footprintsFromResult(result *overpass.Result) []explore.RawBuilding {
	out := make([]explore.RawBuilding, 0, len(result.Nodes)+len(result.Ways)+len(result.Relations))
	for _, node := range result.Nodes {
		if node == nil {
			continue
		}
		out = append(out, explore.RawBuilding{Outline: [][2]float64{{node.Lon, node.Lat}}})
	}
	for _, way := range result.Ways {
		if way == nil {
			continue
		}
		outline := make([][2]float64, 0, len(way.Nodes))
		for _, node := range way.Nodes {
			if node == nil {
				continue
			}
			outline = append(outline, [2]float64{node.Lon, node.Lat})
		}
		out = append(out, explore.RawBuilding{Outline: outline})
	}
	for _, rel := range result.Relations {
		if rel == nil {
			continue
		}
		out = append(out, explore.RawBuilding{})
	}
	return out
}
