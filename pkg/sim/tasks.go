// Tasks implements the task lifecycle described in spec §4.9: claim,
// per-tick progress, completion, and cancellation-with-reversion. Build and
// carve tasks additionally drive incremental voxel materialization
// (materialize.go) as their progress crosses each per-voxel work threshold.
package sim

import (
	"github.com/elvencanopy/canopy/pkg/pathfind"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// claimTask picks the best Available task this creature's species may
// perform: among every reachable candidate matching RequiredSpecies, the
// shortest path wins, ties broken by the lowest TaskID for determinism.
func (s *SimState) claimTask(c *Creature) (*Task, bool) {
	g, sp, ok := s.graphFor(c.Species)
	if !ok {
		return nil, false
	}
	costs := s.speciesCosts(sp)
	allowed := s.allowedEdges(sp)

	var best *Task
	bestLen := -1
	for _, tid := range s.sortedTaskIDs() {
		t := s.Tasks[tid]
		if t.State != Available {
			continue
		}
		if t.RequiredSpecies != "" && t.RequiredSpecies != c.Species {
			continue
		}
		if t.Footprint != sp.Footprint {
			continue
		}
		path, found := pathfind.AstarFiltered(g, c.CurrentNode, t.Location, costs, allowed)
		if !found {
			continue
		}
		if best == nil || len(path.Nodes) < bestLen {
			best, bestLen = t, len(path.Nodes)
		}
	}
	if best == nil {
		return nil, false
	}
	best.State = InProgress
	best.Assignees = append(best.Assignees, c.ID)
	return best, true
}

// unassignTask detaches a creature from a task it could not reach,
// returning build tasks to Available for another creature to try and
// discarding single-use GoTo/EatFruit tasks outright.
func (s *SimState) unassignTask(c *Creature, t *Task) {
	c.CurrentTask = nil
	out := t.Assignees[:0]
	for _, a := range t.Assignees {
		if a != c.ID {
			out = append(out, a)
		}
	}
	t.Assignees = out
	if t.Kind.Tag == TaskBuild {
		if len(t.Assignees) == 0 {
			t.State = Available
		}
		return
	}
	delete(s.Tasks, t.ID)
}

// progressTask applies one tick of work toward t on behalf of c, completing
// it (and, for Build, possibly materializing another voxel) when enough
// work has accumulated.
func (s *SimState) progressTask(c *Creature, t *Task) []SimEvent {
	switch t.Kind.Tag {
	case TaskGoTo:
		s.completeTask(c, t)
		return nil
	case TaskEatFruit:
		return s.completeEatFruit(c, t)
	case TaskBuild:
		return s.progressBuildTask(c, t)
	}
	return nil
}

func (s *SimState) completeTask(c *Creature, t *Task) {
	t.State = Complete
	c.CurrentTask = nil
	delete(s.Tasks, t.ID)
}

func (s *SimState) completeEatFruit(c *Creature, t *Task) []SimEvent {
	s.World.Set(t.Kind.FruitPos, voxel.Air)
	for _, tid := range s.sortedTreeIDs() {
		tree := s.Trees[tid]
		for i, pos := range tree.FruitPositions {
			if pos == t.Kind.FruitPos {
				tree.FruitPositions = append(tree.FruitPositions[:i], tree.FruitPositions[i+1:]...)
				break
			}
		}
	}
	sp := s.Config.Species[c.Species]
	c.Food += sp.FoodMax * sp.FoodRestorePct / 100
	if c.Food > sp.FoodMax {
		c.Food = sp.FoodMax
	}
	s.completeTask(c, t)
	return nil
}

func (s *SimState) progressBuildTask(c *Creature, t *Task) []SimEvent {
	bp, ok := s.Blueprints[t.Kind.ProjectID]
	if !ok {
		s.completeTask(c, t)
		return nil
	}
	workPerVoxel := s.Config.BuildWorkTicksPerVoxel
	if bp.Kind == CarveBlueprint {
		workPerVoxel = s.Config.CarveWorkTicksPerVoxel
	}

	before := int(t.Progress / workPerVoxel)
	t.Progress++
	after := int(t.Progress / workPerVoxel)
	if after > before {
		s.materializeNextVoxel(bp)
	}

	if t.Progress >= t.TotalCost {
		s.completeBlueprint(bp)
		t.State = Complete
		for _, a := range t.Assignees {
			if cr, ok := s.Creatures[a]; ok && cr.CurrentTask != nil && *cr.CurrentTask == t.ID {
				cr.CurrentTask = nil
			}
		}
		delete(s.Tasks, t.ID)
		return []SimEvent{{Kind: EvBlueprintDesignated, Tick: s.Tick, ProjectID: bp.ID}}
	}
	return nil
}

// completeBlueprint materializes any voxels progress hadn't yet reached,
// records a Structure for a build (carve blueprints leave nothing behind
// to record), and marks the blueprint Complete.
func (s *SimState) completeBlueprint(bp *Blueprint) {
	for s.hasUnplacedVoxels(bp) {
		if _, ok := s.materializeNextVoxel(bp); !ok {
			break
		}
	}
	bp.State = BlueprintComplete
	if bp.Kind == BuildBlueprint {
		st := &Structure{ID: s.nextStructureID(), BuildType: bp.BuildType, Voxels: append([]voxel.Coord(nil), bp.Voxels...)}
		s.Structures[st.ID] = st
	}
}

func (s *SimState) hasUnplacedVoxels(bp *Blueprint) bool {
	for _, c := range bp.Voxels {
		if !bp.Placed[c] {
			return true
		}
	}
	return false
}

// cancelBuild reverts a Designated blueprint per spec §4.9: every already
// materialized voxel is restored to whatever it held before designation,
// nav graphs are brought back up to date, and the blueprint's task is
// discarded.
func (s *SimState) cancelBuild(bp *Blueprint) {
	for _, c := range bp.Voxels {
		if !bp.Placed[c] {
			continue
		}
		orig := voxel.Air
		if bp.OriginalVoxels != nil {
			orig = bp.OriginalVoxels[c]
		}
		s.World.Set(c, orig)
		delete(s.FaceData, c)
		delete(s.LadderOrientations, c)
	}
	for _, fp := range allFootprints {
		for _, c := range bp.Voxels {
			if killed := s.updateGraphAfter(fp, c); len(killed) > 0 {
				s.resnapCreaturesOnGraph(fp, killed)
			}
		}
	}
	if t, ok := s.Tasks[bp.TaskID]; ok {
		for _, a := range t.Assignees {
			if cr, ok := s.Creatures[a]; ok && cr.CurrentTask != nil && *cr.CurrentTask == t.ID {
				cr.CurrentTask = nil
			}
		}
		delete(s.Tasks, t.ID)
	}
	delete(s.Blueprints, bp.ID)
}
