// Package scenario holds the per-scenario parameter model: the closed set of
// scenario keys, the static parameter descriptor tables, the mutable
// slider-backed parameter store, and the filter predicate builder derived
// from it.
package scenario

// Key identifies one of the fixed modeling contexts. Keys are never created
// dynamically; the set below is the whole universe.
type Key string

const (
	PlanNational Key = "plan-national"
	PlanLocal    Key = "plan-local"
	FindNational Key = "find-national"
)

// Keys returns all scenario keys in a fixed order.
func Keys() []Key {
	return []Key{PlanNational, PlanLocal, FindNational}
}

// Valid reports whether k is one of the recognized scenario keys.
func (k Key) Valid() bool {
	switch k {
	case PlanNational, PlanLocal, FindNational:
		return true
	}
	return false
}
