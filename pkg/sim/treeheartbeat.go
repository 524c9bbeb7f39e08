// Treeheartbeat implements spec §4.10: a tree periodically attempts to grow
// one more piece of fruit, capped at FruitMaxPerTree, and at sim startup
// fast-forwards through FruitInitialAttempts draws so a freshly generated
// tree doesn't start bare.
package sim

import (
	"sort"

	"github.com/elvencanopy/canopy/pkg/eventqueue"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// fastForwardFruit runs FruitInitialAttempts fruiting attempts at sim
// construction time, so a tree that has "existed" before the session
// started already carries some fruit.
func (s *SimState) fastForwardFruit(t *Tree) {
	for i := 0; i < s.Config.FruitInitialAttempts; i++ {
		s.attemptFruit(t)
	}
}

func (s *SimState) treeHeartbeat(id TreeID) []SimEvent {
	t, ok := s.Trees[id]
	if !ok {
		return nil
	}
	s.attemptFruit(t)
	s.Events.Push(eventqueue.Event{Tick: s.Tick + s.Config.TreeHeartbeatIntervalTicks, Kind: eventqueue.TreeHeartbeat, EntityID: uint64(id)})
	return nil
}

// attemptFruit draws once from the stream to decide whether production
// succeeds this attempt, then (if it does, and the cap allows it) picks a
// still-bare leaf position deterministically via the stream and converts it
// to Fruit.
func (s *SimState) attemptFruit(t *Tree) {
	if len(t.FruitPositions) >= s.Config.FruitMaxPerTree {
		return
	}
	if s.Stream.NextFloat64() >= s.Config.FruitProductionBaseRate {
		return
	}

	fruited := make(map[voxel.Coord]bool, len(t.FruitPositions))
	for _, p := range t.FruitPositions {
		fruited[p] = true
	}
	candidates := make([]voxel.Coord, 0, len(t.LeafPositions))
	for _, p := range t.LeafPositions {
		if !fruited[p] && s.World.Get(p) == voxel.Leaf {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	pick := candidates[s.Stream.Intn(len(candidates))]
	s.World.Set(pick, voxel.Fruit)
	t.FruitPositions = append(t.FruitPositions, pick)
}
