package scenario

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gridlume/electromap/model"
)

func initializedFindState(t *testing.T) (*Store, *State) {
	t.Helper()
	s := NewStore()
	if err := s.EnsureInitialized(FindNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	st, err := s.State(FindNational)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	return s, st
}

func TestBuildPredicateClauseShape(t *testing.T) {
	_, st := initializedFindState(t)

	p, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}

	// Five range parameters, one >= and one <= clause each.
	if len(p.Clauses) != 10 {
		t.Fatalf("clause count = %d, want 10", len(p.Clauses))
	}
	for i := 0; i < len(p.Clauses); i += 2 {
		lo, hi := p.Clauses[i], p.Clauses[i+1]
		if lo.Op != ">=" || hi.Op != "<=" {
			t.Fatalf("clause pair %d = (%s, %s), want (>=, <=)", i/2, lo.Op, hi.Op)
		}
		if lo.Property != hi.Property {
			t.Fatalf("clause pair %d tests different properties: %s vs %s", i/2, lo.Property, hi.Property)
		}
	}
}

func TestBuildPredicateIsPure(t *testing.T) {
	_, st := initializedFindState(t)

	first, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	second, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate (second): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same state produced different predicates:\n%+v\n%+v", first, second)
	}
}

func TestChangingOneParameterChangesExactlyTwoClauses(t *testing.T) {
	s, st := initializedFindState(t)

	before, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}

	if err := s.Set(FindNational, "pop", Value{Kind: KindRange, Lo: 100, Hi: 5000}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	after, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate (after): %v", err)
	}

	changed := 0
	var popLo, popHi *Clause
	for i := range after.Clauses {
		if after.Clauses[i] != before.Clauses[i] {
			changed++
		}
		if after.Clauses[i].Property == "pop" {
			if after.Clauses[i].Op == ">=" {
				popLo = &after.Clauses[i]
			} else {
				popHi = &after.Clauses[i]
			}
		}
	}
	if changed != 2 {
		t.Fatalf("changed clause count = %d, want 2", changed)
	}
	if popLo == nil || popLo.Bound != 100 {
		t.Fatalf("pop >= clause = %+v, want bound 100", popLo)
	}
	if popHi == nil || popHi.Bound != 5000 {
		t.Fatalf("pop <= clause = %+v, want bound 5000", popHi)
	}
}

func TestBuildPredicateFailsFastOnMissingParameter(t *testing.T) {
	st := &State{Key: FindNational, values: map[string]Value{
		// Deliberately missing the other four range parameters.
		"pop": {Kind: KindRange, Lo: 0, Hi: Unbounded},
	}}
	if _, err := BuildPredicate(st); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("BuildPredicate on partial state: err = %v, want ErrUnknownParameter", err)
	}
}

func TestPredicateMatchesAndFilters(t *testing.T) {
	s, st := initializedFindState(t)
	if err := s.Set(FindNational, "pop", Value{Kind: KindRange, Lo: 100, Hi: 5000}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}

	mk := func(pop float64) model.Feature {
		return model.Feature{
			Type: "Feature",
			Properties: map[string]interface{}{
				"pop": pop, "area": 500.0, "ntl": 10.0, "grid_dist": 4000.0, "gdp": 900.0,
			},
		}
	}

	fc := &model.FeatureCollection{Type: "FeatureCollection", Features: []model.Feature{
		mk(50), mk(100), mk(4999), mk(5001),
	}}
	got := p.Filter(fc)
	if len(got.Features) != 2 {
		t.Fatalf("filtered count = %d, want 2 (inclusive bounds)", len(got.Features))
	}

	missing := model.Feature{Type: "Feature", Properties: map[string]interface{}{"pop": 200.0}}
	if p.Matches(&missing) {
		t.Fatal("feature missing tested properties must not match")
	}
}

func TestMapFilterExpressionShape(t *testing.T) {
	s, st := initializedFindState(t)
	if err := s.Set(FindNational, "pop", Value{Kind: KindRange, Lo: 100, Hi: 5000}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p, err := BuildPredicate(st)
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}

	expr := p.MapFilter()
	if expr[0] != "all" {
		t.Fatalf("expression head = %v, want all", expr[0])
	}
	if len(expr) != 11 {
		t.Fatalf("expression length = %d, want 11", len(expr))
	}
	want := []interface{}{">=", "pop", 100.0}
	if !reflect.DeepEqual(expr[1], want) {
		t.Fatalf("first clause = %v, want %v", expr[1], want)
	}
}
