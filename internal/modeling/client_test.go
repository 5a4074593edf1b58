package modeling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gridlume/electromap/scenario"
)

func planState(t *testing.T) *scenario.State {
	t.Helper()
	store := scenario.NewStore()
	store.SetCountry("kenya")
	if err := store.EnsureInitialized(scenario.PlanNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	st, err := store.State(scenario.PlanNational)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	return st
}

func TestRunPostsScenarioParameters(t *testing.T) {
	var gotPath string
	var gotBody runRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"summary": map[string]float64{"new-conn": 120, "tot-cost": 2.5e8},
			"layers":  map[string]interface{}{},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	result, err := client.Run(context.Background(), scenario.PlanNational, planState(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if gotPath != "/run/plan-national" {
		t.Fatalf("path = %q, want /run/plan-national", gotPath)
	}
	if gotBody.Country != "kenya" {
		t.Fatalf("country = %q, want kenya", gotBody.Country)
	}
	var gridDist float64
	if err := json.Unmarshal(gotBody.Params["grid-dist"], &gridDist); err != nil {
		t.Fatalf("grid-dist param: %v", err)
	}
	if gridDist != 1000 {
		t.Fatalf("grid-dist = %v, want the default 1000", gridDist)
	}
	if result.Summary["new-conn"] != 120 {
		t.Fatalf("summary new-conn = %v, want 120", result.Summary["new-conn"])
	}
}

func TestRunEncodesRangesAsPairs(t *testing.T) {
	store := scenario.NewStore()
	if err := store.EnsureInitialized(scenario.FindNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	if err := store.Set(scenario.FindNational, "pop", scenario.Value{Kind: scenario.KindRange, Lo: 100, Hi: 5000}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	st, err := store.State(scenario.FindNational)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	var gotBody runRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"summary": map[string]float64{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	if _, err := client.Run(context.Background(), scenario.FindNational, st); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var pop [2]float64
	if err := json.Unmarshal(gotBody.Params["pop"], &pop); err != nil {
		t.Fatalf("pop param: %v", err)
	}
	if pop != [2]float64{100, 5000} {
		t.Fatalf("pop = %v, want [100 5000]", pop)
	}
}

func TestRunSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)
	if _, err := client.Run(context.Background(), scenario.PlanNational, planState(t)); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
