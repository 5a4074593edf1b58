package model

// Summary holds the named numeric results of a model run. Keys follow the
// modeling service's tag vocabulary (new-conn, new-og, tot-cost, model-pop,
// orig-conn-pop, new-conn-pop, new-og-pop, num-clusters).
type Summary map[string]float64

// StepResult is one step of a phased national plan: its own summary plus the
// plan year it represents. Network arcs carry a "stage" property and remain
// visible at all later steps.
type StepResult struct {
	Step    int     `json:"step"`
	Year    int     `json:"year"`
	Summary Summary `json:"summary"`
}

// DynamicSteps is the fixed length of a phased plan.
const DynamicSteps = 4

// DynamicPlan is a precomputed phased plan, indexed 1..DynamicSteps.
// Immutable once created; replaced wholesale by the next plan run.
type DynamicPlan struct {
	Steps [DynamicSteps]StepResult
}

// Step returns the 1-based step result. Panics on an out-of-range index;
// callers are expected to clamp via the step player.
func (p *DynamicPlan) Step(n int) StepResult {
	return p.Steps[n-1]
}

// RunResult is everything a model run produces: the headline summary, the
// geometry collections keyed by map layer name, and (plan-national with
// dynamic enabled) the per-step results.
type RunResult struct {
	Summary Summary                       `json:"summary"`
	Layers  map[string]*FeatureCollection `json:"layers"`
	Steps   []StepResult                  `json:"steps,omitempty"`
}

// CountryGeometry is the one-time national load for a country: the existing
// grid network and the settlement clusters.
type CountryGeometry struct {
	Grid     *FeatureCollection `json:"grid"`
	Clusters *FeatureCollection `json:"clusters"`
}
