package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gridlume/electromap/model"
)

var (
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrNotInitialized   = errors.New("scenario not initialized")
)

// Value is the live value of one parameter. Exactly one shape is meaningful
// depending on Kind: Scalar for single sliders, [Lo, Hi] for range sliders.
type Value struct {
	Kind   Kind
	Scalar float64
	Lo     float64
	Hi     float64
}

// FormatBound renders a range bound for display; the unbounded sentinel
// always shows as "∞".
func FormatBound(v float64) string {
	if v >= Unbounded {
		return "∞"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// State is the live value set of one scenario: parameter values plus the
// fields injected at run time rather than driven by sliders.
type State struct {
	Key    Key
	values map[string]Value

	// Injected at run time, not slider-driven.
	Country     string
	Dynamic     bool
	MultiFactor bool

	// Village carries the zoomed-in building footprints when the
	// compatibility payload shape is enabled; nil otherwise.
	Village *model.FeatureCollection
}

// Value returns the named parameter, failing if it was never initialized.
func (s *State) Value(name string) (Value, error) {
	if s == nil || s.values == nil {
		return Value{}, fmt.Errorf("%w", ErrNotInitialized)
	}
	v, ok := s.values[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return v, nil
}

// Parameters returns a copy of the value map for building run payloads.
func (s *State) Parameters() map[string]Value {
	out := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Store owns all scenario states for one session. Parameter values persist
// for the session lifetime; they are overwritten on slider interaction and
// never destroyed.
type Store struct {
	mu        sync.Mutex
	scenarios map[Key]*State
	country   string
}

// NewStore creates an empty store. Scenario states materialize lazily the
// first time EnsureInitialized runs for their key.
func NewStore() *Store {
	return &Store{scenarios: make(map[Key]*State)}
}

// EnsureInitialized populates any missing parameter of the scenario with its
// descriptor default. Idempotent; safe to call on every scope or mode entry.
func (s *Store) EnsureInitialized(key Key) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.scenarios[key]
	if !ok {
		st = &State{Key: key, values: make(map[string]Value), Country: s.country}
		s.scenarios[key] = st
	}
	for _, d := range Descriptors(key) {
		if _, exists := st.values[d.Name]; !exists {
			st.values[d.Name] = d.DefaultValue()
		}
	}
	return nil
}

// Get reads one parameter value.
func (s *Store) Get(key Key, name string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.scenarios[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrNotInitialized, key)
	}
	return st.Value(name)
}

// Set writes one parameter value, enforcing the range invariant lo<=hi and
// the drag-to-max substitution: an upper handle at the slider's declared
// maximum (or beyond) becomes the unbounded sentinel. Writing never triggers
// a model run; callers decide when to run.
func (s *Store) Set(key Key, name string, v Value) error {
	d, ok := FindDescriptor(key, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownParameter, key, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.scenarios[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotInitialized, key)
	}

	switch d.Kind {
	case KindSingle:
		scalar := clamp(v.Scalar, d.Min, d.Max)
		st.values[name] = Value{Kind: KindSingle, Scalar: scalar}
	case KindRange:
		lo := clamp(v.Lo, d.Min, d.Max)
		hi := v.Hi
		if hi >= d.Max {
			hi = Unbounded
		}
		if hi < lo {
			hi = lo
		}
		st.values[name] = Value{Kind: KindRange, Lo: lo, Hi: hi}
	default:
		return fmt.Errorf("%w: %s/%s has kind %q", ErrUnknownParameter, key, name, d.Kind)
	}
	return nil
}

// State returns the live state for a key, or an error if the scenario was
// never initialized. The returned pointer is shared; callers must treat the
// parameter map as read-only and use Set for writes.
func (s *Store) State(key Key) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.scenarios[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotInitialized, key)
	}
	return st, nil
}

// Snapshot returns a detached copy of the scenario state for building a run
// payload. Slider writes stay enabled while a run is in flight; they land on
// the live map and never on the copy being encoded.
func (s *Store) Snapshot(key Key) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.scenarios[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotInitialized, key)
	}
	cp := *st
	cp.values = make(map[string]Value, len(st.values))
	for name, v := range st.values {
		cp.values[name] = v
	}
	return &cp, nil
}

// SetCountry records the selected country on every scenario, current and
// future, so run payloads carry it without the caller re-injecting it per
// key.
func (s *Store) SetCountry(country string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.country = country
	for _, st := range s.scenarios {
		st.Country = country
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
