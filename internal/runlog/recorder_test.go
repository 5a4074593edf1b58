package runlog

import (
	"testing"

	"github.com/gridlume/electromap/scenario"
)

func TestParamsRowFlattensBothKinds(t *testing.T) {
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

	row := paramsRow(st)
	if len(row) != 5 {
		t.Fatalf("row has %d parameters, want 5", len(row))
	}
	pop, ok := row["pop"].([2]float64)
	if !ok || pop != [2]float64{100, 5000} {
		t.Fatalf("pop = %v, want [100 5000]", row["pop"])
	}
}

func TestParamsRowSingles(t *testing.T) {
	store := scenario.NewStore()
	if err := store.EnsureInitialized(scenario.PlanLocal); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	st, err := store.State(scenario.PlanLocal)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	row := paramsRow(st)
	if got, ok := row["tariff"].(float64); !ok || got != 0.2 {
		t.Fatalf("tariff = %v, want the default 0.2", row["tariff"])
	}
}
