package sim

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/elvencanopy/canopy/pkg/config"
)

// TestPropertyStepIsDeterministicForAnySeedAndTickCount generalizes
// TestStepIsDeterministicAcrossReplicas across the full range of seeds and
// tick counts (spec §8's determinism invariant), following the teacher's
// pkg/graph.TestProperty_GraphConnectivity's use of rapid.Check to sweep
// many seeded instances rather than a handful of fixed cases.
func TestPropertyStepIsDeterministicForAnySeedAndTickCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		ticks := rapid.Uint64Range(0, 500).Draw(t, "ticks")

		cfg := config.Default()
		a, err := NewSimState(cfg, seed)
		if err != nil {
			t.Fatalf("NewSimState: %v", err)
		}
		b, err := NewSimState(cfg, seed)
		if err != nil {
			t.Fatalf("NewSimState: %v", err)
		}

		a.Step(nil, ticks)
		b.Step(nil, ticks)

		if a.Tick != b.Tick {
			t.Fatalf("tick diverged: %d vs %d", a.Tick, b.Tick)
		}
		if a.Stream.State() != b.Stream.State() {
			t.Fatal("PRNG stream state diverged between identically-seeded replicas")
		}
		if len(a.Trees) != len(b.Trees) || len(a.Creatures) != len(b.Creatures) {
			t.Fatal("entity counts diverged between identically-seeded replicas")
		}
		for id, ta := range a.Trees {
			tb, ok := b.Trees[id]
			if !ok || len(ta.FruitPositions) != len(tb.FruitPositions) {
				t.Fatalf("tree %d diverged between replicas", id)
			}
		}
	})
}
