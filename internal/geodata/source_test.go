package geodata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const gridJSON = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[36.8,-1.3],[36.9,-1.2]]}}
]}`

const clustersJSON = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"pop":300},"geometry":{"type":"Point","coordinates":[36.85,-1.25]}},
	{"type":"Feature","properties":{"pop":4500},"geometry":{"type":"Point","coordinates":[36.86,-1.26]}}
]}`

type countingObserver struct {
	hits, misses int64
}

func (o *countingObserver) ObserveGeometryCache(hit bool) {
	if hit {
		atomic.AddInt64(&o.hits, 1)
	} else {
		atomic.AddInt64(&o.misses, 1)
	}
}

func geometryServer(t *testing.T, requests *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(requests, 1)
		switch r.URL.Path {
		case "/kenya/grid.geojson":
			_, _ = w.Write([]byte(gridJSON))
		case "/kenya/clusters.geojson":
			_, _ = w.Write([]byte(clustersJSON))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCountryGeometryFetchesBothCollections(t *testing.T) {
	var requests int64
	srv := geometryServer(t, &requests)
	defer srv.Close()

	src, err := NewSource(srv.URL, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	geom, err := src.CountryGeometry(context.Background(), "kenya")
	if err != nil {
		t.Fatalf("CountryGeometry: %v", err)
	}
	if len(geom.Grid.Features) != 1 || len(geom.Clusters.Features) != 2 {
		t.Fatalf("grid=%d clusters=%d, want 1 and 2",
			len(geom.Grid.Features), len(geom.Clusters.Features))
	}
	if requests != 2 {
		t.Fatalf("server requests = %d, want 2 (grid + clusters)", requests)
	}
}

func TestCountryGeometryIsCached(t *testing.T) {
	var requests int64
	srv := geometryServer(t, &requests)
	defer srv.Close()

	obs := &countingObserver{}
	src, err := NewSource(srv.URL, 5*time.Second, nil, WithCacheObserver(obs))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := src.CountryGeometry(context.Background(), "kenya"); err != nil {
			t.Fatalf("CountryGeometry %d: %v", i, err)
		}
	}
	if requests != 2 {
		t.Fatalf("server requests = %d, want 2 — repeats must hit the cache", requests)
	}
	if obs.misses != 1 || obs.hits != 2 {
		t.Fatalf("observer hits=%d misses=%d, want 2 and 1", obs.hits, obs.misses)
	}
}

func TestConcurrentMissesCollapse(t *testing.T) {
	var requests int64
	srv := geometryServer(t, &requests)
	defer srv.Close()

	src, err := NewSource(srv.URL, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := src.CountryGeometry(context.Background(), "kenya"); err != nil {
				t.Errorf("CountryGeometry: %v", err)
			}
		}()
	}
	wg.Wait()

	if requests != 2 {
		t.Fatalf("server requests = %d, want 2 — concurrent misses must collapse", requests)
	}
}

func TestUnknownCountryFails(t *testing.T) {
	var requests int64
	srv := geometryServer(t, &requests)
	defer srv.Close()

	src, err := NewSource(srv.URL, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, err := src.CountryGeometry(context.Background(), "atlantis"); err == nil {
		t.Fatal("expected error for unknown country")
	}
}
