package explore

import (
	"testing"

	"github.com/gridlume/electromap/scenario"
)

func TestCacheGetNeverPopulatedReturnsEmpty(t *testing.T) {
	c := NewPresentationCache()
	snap := c.Get(scenario.PlanLocal)
	if !snap.Empty() {
		t.Fatalf("unpopulated key returned content: %+v", snap)
	}
}

func TestCachePutReplacesAtomically(t *testing.T) {
	c := NewPresentationCache()
	c.Put(scenario.PlanNational, Snapshot{Summary: "<p>first</p>", Legend: "<p>l1</p>"})
	c.Put(scenario.PlanNational, Snapshot{Summary: "<p>second</p>", Legend: "<p>l2</p>"})

	snap := c.Get(scenario.PlanNational)
	if snap.Summary != "<p>second</p>" || snap.Legend != "<p>l2</p>" {
		t.Fatalf("snapshot = %+v, want the full second write", snap)
	}
}

func TestCacheKeysAreIndependent(t *testing.T) {
	c := NewPresentationCache()
	c.Put(scenario.PlanNational, Snapshot{Summary: "plan"})
	if got := c.Get(scenario.FindNational); !got.Empty() {
		t.Fatalf("find snapshot = %+v, want empty", got)
	}
}
