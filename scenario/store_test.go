package scenario

import (
	"errors"
	"testing"
)

func TestEnsureInitializedPopulatesDefaults(t *testing.T) {
	s := NewStore()
	if err := s.EnsureInitialized(FindNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}

	for _, d := range Descriptors(FindNational) {
		v, err := s.Get(FindNational, d.Name)
		if err != nil {
			t.Fatalf("Get(%s): %v", d.Name, err)
		}
		if v.Kind != KindRange {
			t.Fatalf("parameter %s: kind = %q, want range", d.Name, v.Kind)
		}
		if v.Lo != d.Min || v.Hi != Unbounded {
			t.Fatalf("parameter %s default = [%v, %v], want [%v, unbounded]", d.Name, v.Lo, v.Hi, d.Min)
		}
	}
}

func TestEnsureInitializedIsIdempotent(t *testing.T) {
	s := NewStore()
	if err := s.EnsureInitialized(PlanNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	if err := s.Set(PlanNational, "grid-dist", Value{Kind: KindSingle, Scalar: 2500}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Re-entering the scope must not reset user-set values.
	if err := s.EnsureInitialized(PlanNational); err != nil {
		t.Fatalf("EnsureInitialized (second): %v", err)
	}
	v, err := s.Get(PlanNational, "grid-dist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Scalar != 2500 {
		t.Fatalf("grid-dist = %v after re-init, want 2500", v.Scalar)
	}
}

func TestSetMaintainsRangeInvariant(t *testing.T) {
	s := NewStore()
	if err := s.EnsureInitialized(FindNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}

	cases := []struct {
		name   string
		in     Value
		wantLo float64
		wantHi float64
	}{
		{"ordinary window", Value{Kind: KindRange, Lo: 100, Hi: 5000}, 100, 5000},
		{"inverted bounds collapse", Value{Kind: KindRange, Lo: 800, Hi: 200}, 800, 800},
		{"upper handle at max becomes unbounded", Value{Kind: KindRange, Lo: 0, Hi: 10000}, 0, Unbounded},
		{"upper handle beyond max becomes unbounded", Value{Kind: KindRange, Lo: 0, Hi: 99999}, 0, Unbounded},
		{"lower handle clamped to min", Value{Kind: KindRange, Lo: -50, Hi: 300}, 0, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Set(FindNational, "pop", tc.in); err != nil {
				t.Fatalf("Set: %v", err)
			}
			v, err := s.Get(FindNational, "pop")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if v.Lo != tc.wantLo || v.Hi != tc.wantHi {
				t.Fatalf("pop = [%v, %v], want [%v, %v]", v.Lo, v.Hi, tc.wantLo, tc.wantHi)
			}
			if v.Lo > v.Hi {
				t.Fatalf("range invariant violated: lo %v > hi %v", v.Lo, v.Hi)
			}
		})
	}
}

func TestFormatBoundRendersInfinity(t *testing.T) {
	if got := FormatBound(Unbounded); got != "∞" {
		t.Fatalf("FormatBound(Unbounded) = %q, want ∞", got)
	}
	if got := FormatBound(5000); got != "5000" {
		t.Fatalf("FormatBound(5000) = %q", got)
	}
}

func TestGetBeforeInitializeFails(t *testing.T) {
	s := NewStore()
	if _, err := s.Get(PlanLocal, "demand"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Get before init: err = %v, want ErrNotInitialized", err)
	}
}

func TestSnapshotDetachedFromLiveWrites(t *testing.T) {
	s := NewStore()
	if err := s.EnsureInitialized(FindNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}

	snap, err := s.Snapshot(FindNational)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	// Reading the snapshot while slider writes land on the store must be
	// safe and must never see them.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = s.Set(FindNational, "pop", Value{Kind: KindRange, Lo: float64(i), Hi: 9000})
		}
	}()
	for i := 0; i < 500; i++ {
		for name := range snap.Parameters() {
			if _, err := snap.Value(name); err != nil {
				t.Errorf("Value(%s): %v", name, err)
			}
		}
	}
	<-done

	v, err := snap.Value("pop")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v.Lo != 0 || v.Hi != Unbounded {
		t.Fatalf("snapshot pop = [%v, %v], want the launch-time default", v.Lo, v.Hi)
	}
	live, err := s.Get(FindNational, "pop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if live.Lo != 499 {
		t.Fatalf("live pop lo = %v, want 499", live.Lo)
	}
}

func TestSetCountryAppliesToFutureScenarios(t *testing.T) {
	s := NewStore()
	s.SetCountry("kenya")
	if err := s.EnsureInitialized(PlanNational); err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	st, err := s.State(PlanNational)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Country != "kenya" {
		t.Fatalf("Country = %q, want kenya", st.Country)
	}
}
