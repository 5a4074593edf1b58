package scenario

import (
	"fmt"

	"github.com/gridlume/electromap/model"
)

// Clause is one inclusive bound test against a named numeric feature
// property. Op is ">=" or "<=".
type Clause struct {
	Property string  `json:"property"`
	Op       string  `json:"op"`
	Bound    float64 `json:"bound"`
}

// Predicate is a conjunction of bound clauses: every range parameter
// contributes exactly one >= and one <= clause, in the declared parameter
// order. The clause order is deterministic so predicates compare equal for
// equal states.
type Predicate struct {
	Clauses []Clause `json:"clauses"`
}

// BuildPredicate derives the geometry display filter from a scenario state.
// Every range parameter of the scenario must already be initialized: a
// missing parameter is a programming error and fails immediately rather than
// silently dropping its clauses, which would render a partially filtered
// view that looks unfiltered.
func BuildPredicate(st *State) (Predicate, error) {
	if st == nil {
		return Predicate{}, fmt.Errorf("%w: nil state", ErrNotInitialized)
	}

	var p Predicate
	for _, d := range Descriptors(st.Key) {
		if d.Kind != KindRange {
			continue
		}
		v, err := st.Value(d.Name)
		if err != nil {
			return Predicate{}, fmt.Errorf("build predicate for %s: %w", st.Key, err)
		}
		p.Clauses = append(p.Clauses,
			Clause{Property: d.Property, Op: ">=", Bound: v.Lo},
			Clause{Property: d.Property, Op: "<=", Bound: v.Hi},
		)
	}
	return p, nil
}

// Matches evaluates the predicate against a single feature. Features missing
// a tested property fail the clause.
func (p Predicate) Matches(f *model.Feature) bool {
	for _, c := range p.Clauses {
		v, ok := f.NumProperty(c.Property)
		if !ok {
			return false
		}
		switch c.Op {
		case ">=":
			if v < c.Bound {
				return false
			}
		case "<=":
			if v > c.Bound {
				return false
			}
		}
	}
	return true
}

// MapFilter renders the predicate as the rendering engine's filter
// expression: ["all", [">=", prop, lo], ["<=", prop, hi], ...].
func (p Predicate) MapFilter() []interface{} {
	expr := make([]interface{}, 0, len(p.Clauses)+1)
	expr = append(expr, "all")
	for _, c := range p.Clauses {
		expr = append(expr, []interface{}{c.Op, c.Property, c.Bound})
	}
	return expr
}

// Filter applies the predicate to a collection, returning the matching
// features. The input is never mutated.
func (p Predicate) Filter(fc *model.FeatureCollection) *model.FeatureCollection {
	out := model.NewFeatureCollection()
	if fc == nil {
		return out
	}
	for i := range fc.Features {
		if p.Matches(&fc.Features[i]) {
			out.Features = append(out.Features, fc.Features[i])
		}
	}
	return out
}
