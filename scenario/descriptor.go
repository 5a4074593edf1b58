package scenario

import "fmt"

// Kind distinguishes scalar sliders from two-handled range sliders.
type Kind string

const (
	KindSingle Kind = "single"
	KindRange  Kind = "range"
)

// Unbounded is the sentinel upper bound for range parameters whose upper
// handle sits at the slider maximum. It is a very large finite number so it
// stays numerically comparable; the UI renders it as "∞".
const Unbounded = 1e19

// Descriptor is the immutable configuration of one named parameter within a
// scenario. Min/Max/Step are the slider bounds; for range parameters,
// Property names the geometry feature property the filter clauses test.
type Descriptor struct {
	Name     string
	Kind     Kind
	Default  float64
	Min      float64
	Max      float64
	Step     float64
	Label    string
	Unit     string
	Tooltip  string
	Property string
}

// DefaultValue materializes the descriptor's default. Range parameters start
// fully open: [Min, Unbounded].
func (d Descriptor) DefaultValue() Value {
	if d.Kind == KindRange {
		return Value{Kind: KindRange, Lo: d.Min, Hi: Unbounded}
	}
	return Value{Kind: KindSingle, Scalar: d.Default}
}

// Descriptors returns the declared parameter list for a scenario key. The
// slice order is the canonical parameter order; filter clause order and
// sidebar slider order both follow it. Parameter names, defaults and bounds
// follow the national and village cost models the modeling service runs.
func Descriptors(key Key) []Descriptor {
	switch key {
	case PlanNational:
		return planNationalParams
	case PlanLocal:
		return planLocalParams
	case FindNational:
		return findNationalParams
	}
	panic(fmt.Sprintf("scenario: no descriptors for key %q", key))
}

var planNationalParams = []Descriptor{
	{Name: "grid-dist", Kind: KindSingle, Default: 1000, Min: 0, Max: 10000, Step: 100,
		Label: "Grid distance", Unit: "m",
		Tooltip: "Settlements closer than this to the grid are treated as already connected"},
	{Name: "min-pop", Kind: KindSingle, Default: 200, Min: 0, Max: 2000, Step: 10,
		Label: "Minimum population", Unit: "people",
		Tooltip: "Settlements below this population are excluded from the model"},
	{Name: "min-ntl", Kind: KindSingle, Default: 50, Min: 0, Max: 255, Step: 1,
		Label: "Minimum night-time lights", Unit: "",
		Tooltip: "Settlements darker than this are never treated as connected"},
	{Name: "demand", Kind: KindSingle, Default: 0.2, Min: 0, Max: 1, Step: 0.01,
		Label: "Peak demand", Unit: "kW/person",
		Tooltip: "Peak electricity demand per person"},
	{Name: "mg-gen-cost", Kind: KindSingle, Default: 4000, Min: 0, Max: 10000, Step: 100,
		Label: "Mini-grid generator cost", Unit: "$/kW",
		Tooltip: "Generator and equipment cost for off-grid settlements"},
	{Name: "mg-dist-cost", Kind: KindSingle, Default: 2, Min: 0, Max: 20, Step: 1,
		Label: "Mini-grid distribution cost", Unit: "$/m2",
		Tooltip: "Mini-grid distribution cost as a function of settlement area"},
	{Name: "grid-mv-cost", Kind: KindSingle, Default: 50, Min: 0, Max: 500, Step: 10,
		Label: "Grid MV wire cost", Unit: "$/m",
		Tooltip: "Medium-voltage wire cost per metre of new grid"},
	{Name: "grid-lv-cost", Kind: KindSingle, Default: 3, Min: 0, Max: 20, Step: 1,
		Label: "Grid LV cost", Unit: "$/m2",
		Tooltip: "Low-voltage cost as a function of settlement area"},
}

var planLocalParams = []Descriptor{
	{Name: "demand", Kind: KindSingle, Default: 6, Min: 0, Max: 100, Step: 1,
		Label: "Demand", Unit: "kWh/person/month",
		Tooltip: "Monthly electricity demand per person"},
	{Name: "tariff", Kind: KindSingle, Default: 0.2, Min: 0, Max: 1, Step: 0.01,
		Label: "Tariff", Unit: "$/kWh",
		Tooltip: "Tariff charged per unit of electricity"},
	{Name: "gen-cost", Kind: KindSingle, Default: 1000, Min: 0, Max: 10000, Step: 100,
		Label: "Generator cost", Unit: "$/kW",
		Tooltip: "Installed generator cost"},
	{Name: "cost-wire", Kind: KindSingle, Default: 10, Min: 0, Max: 100, Step: 1,
		Label: "Wire cost", Unit: "$/m",
		Tooltip: "Distribution wire cost per metre"},
	{Name: "cost-connection", Kind: KindSingle, Default: 100, Min: 0, Max: 1000, Step: 10,
		Label: "Connection cost", Unit: "$/house",
		Tooltip: "Cost of connecting a single building"},
	{Name: "opex-ratio", Kind: KindSingle, Default: 1, Min: 0, Max: 10, Step: 0.5,
		Label: "OPEX ratio", Unit: "%/year",
		Tooltip: "Annual operating cost as a share of capital cost"},
	{Name: "years", Kind: KindSingle, Default: 10, Min: 1, Max: 30, Step: 1,
		Label: "Project life", Unit: "years",
		Tooltip: "Payback horizon for the village system"},
	{Name: "discount-rate", Kind: KindSingle, Default: 6, Min: 0, Max: 20, Step: 0.5,
		Label: "Discount rate", Unit: "%",
		Tooltip: "Rate used to discount future revenue"},
}

var findNationalParams = []Descriptor{
	{Name: "pop", Kind: KindRange, Min: 0, Max: 10000, Step: 100,
		Label: "Population", Unit: "people", Property: "pop",
		Tooltip: "Settlement population window"},
	{Name: "area", Kind: KindRange, Min: 0, Max: 20000, Step: 100,
		Label: "Area", Unit: "m2", Property: "area",
		Tooltip: "Settlement footprint area window"},
	{Name: "ntl", Kind: KindRange, Min: 0, Max: 255, Step: 1,
		Label: "Night-time lights", Unit: "", Property: "ntl",
		Tooltip: "Night-time light radiance window"},
	{Name: "grid-dist", Kind: KindRange, Min: 0, Max: 50000, Step: 500,
		Label: "Grid distance", Unit: "m", Property: "grid_dist",
		Tooltip: "Distance from the existing grid"},
	{Name: "gdp", Kind: KindRange, Min: 0, Max: 15000, Step: 100,
		Label: "GDP", Unit: "$/person", Property: "gdp",
		Tooltip: "Local GDP per person window"},
}

// FindDescriptor looks a parameter up by name within a scenario.
func FindDescriptor(key Key, name string) (Descriptor, bool) {
	for _, d := range Descriptors(key) {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
