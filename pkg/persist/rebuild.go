package persist

import (
	"fmt"

	"github.com/elvencanopy/canopy/pkg/eventqueue"
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/prng"
	"github.com/elvencanopy/canopy/pkg/sim"
	"github.com/elvencanopy/canopy/pkg/voxel"
	"github.com/elvencanopy/canopy/pkg/worldgen"
)

func toPosition(c voxel.Coord) navgraph.Position { return navgraph.Position{X: c.X, Y: c.Y, Z: c.Z} }
func toVoxelCoord(p navgraph.Position) voxel.Coord {
	return voxel.Coord{X: p.X, Y: p.Y, Z: p.Z}
}

// nearestAliveNode is the persist-side twin of pkg/sim's unexported helper
// of the same name: every tombstoned graph still needs a fallback snap
// target when a persisted coordinate no longer names a live node exactly
// (spec §4.4 "resnap").
func nearestAliveNode(g *navgraph.Graph, pos voxel.Coord) (navgraph.NodeID, bool) {
	best := navgraph.NodeID(-1)
	bestDist := -1.0
	for i := 0; i < g.NodeCount(); i++ {
		id := navgraph.NodeID(i)
		p, ok := g.Node(id)
		if !ok {
			continue
		}
		c := toVoxelCoord(p)
		dx, dy, dz := float64(c.X-pos.X), float64(c.Y-pos.Y), float64(c.Z-pos.Z)
		d := dx*dx + dy*dy + dz*dz
		if best == -1 || d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func resolveNode(g *navgraph.Graph, pos voxel.Coord) (navgraph.NodeID, bool) {
	if id, ok := g.NodeAt(toPosition(pos)); ok {
		return id, true
	}
	return nearestAliveNode(g, pos)
}

func coordTypeMap(entries []CoordType) map[voxel.Coord]voxel.Type {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[voxel.Coord]voxel.Type, len(entries))
	for _, e := range entries {
		out[e.Coord] = e.Type
	}
	return out
}

func coordFaceMap(entries []CoordFace) map[voxel.Coord]voxel.FaceData {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[voxel.Coord]voxel.FaceData, len(entries))
	for _, e := range entries {
		out[e.Coord] = e.Face
	}
	return out
}

func coordLadderMap(entries []CoordLadder) map[voxel.Coord]voxel.LadderOrientation {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[voxel.Coord]voxel.LadderOrientation, len(entries))
	for _, e := range entries {
		out[e.Coord] = e.Orient
	}
	return out
}

func placedMap(coords []voxel.Coord) map[voxel.Coord]bool {
	out := make(map[voxel.Coord]bool, len(coords))
	for _, c := range coords {
		out[c] = true
	}
	return out
}

// Rebuild reconstructs a live SimState from a Snapshot (spec §6.3): it
// replays PlacedVoxels and CarvedVoxels over a freshly floored world, sets
// every tree's recorded FruitPositions to Fruit, rebuilds both navigation graph variants from the resulting voxel grid,
// derives FaceData and LadderOrientations from each blueprint's recorded
// layout restricted to the voxels it had actually placed, and re-resolves
// every creature's and task's NodeID against the rebuilt graphs from its
// persisted world coordinate.
func Rebuild(snap Snapshot) (*sim.SimState, error) {
	cfg := snap.Config
	w := voxel.NewWorld(cfg.WorldSize.X, cfg.WorldSize.Y, cfg.WorldSize.Z)
	for _, t := range snap.Trees {
		worldgen.PlaceForestFloor(w, t.Origin, cfg.FloorExtent)
	}
	for _, pv := range snap.PlacedVoxels {
		w.Set(pv.Coord, pv.Type)
	}
	for _, c := range snap.CarvedVoxels {
		w.Set(c, voxel.Air)
	}
	for _, t := range snap.Trees {
		for _, c := range t.FruitPositions {
			w.Set(c, voxel.Fruit)
		}
	}

	navGraphs := map[navgraph.Footprint]*navgraph.Graph{
		navgraph.Standard: navgraph.Build(w, navgraph.Standard),
		navgraph.Large:     navgraph.Build(w, navgraph.Large),
	}

	faceData := map[voxel.Coord]voxel.FaceData{}
	ladderOrient := map[voxel.Coord]voxel.LadderOrientation{}
	blueprints := map[sim.ProjectID]*sim.Blueprint{}
	for _, bps := range snap.Blueprints {
		bp := &sim.Blueprint{
			ID: bps.ID, Kind: bps.Kind, BuildType: bps.BuildType,
			Voxels: append([]voxel.Coord(nil), bps.Voxels...),
			Priority: bps.Priority, State: bps.State, TaskID: bps.TaskID,
			FaceLayout:     coordFaceMap(bps.FaceLayout),
			StressWarning:  bps.StressWarning,
			OriginalVoxels: coordTypeMap(bps.OriginalVoxels),
			Placed:         placedMap(bps.Placed),
			VoxelTypes:     coordTypeMap(bps.VoxelTypes),
			LadderOrient:   coordLadderMap(bps.LadderOrient),
		}
		blueprints[bp.ID] = bp

		for _, c := range bps.Placed {
			if fd, ok := bp.FaceLayout[c]; ok {
				faceData[c] = fd
			}
			if lo, ok := bp.LadderOrient[c]; ok {
				ladderOrient[c] = lo
			}
		}
	}

	trees := map[sim.TreeID]*sim.Tree{}
	for _, ts := range snap.Trees {
		trees[ts.ID] = &sim.Tree{
			ID: ts.ID, Origin: ts.Origin,
			LeafPositions:  append([]voxel.Coord(nil), ts.LeafPositions...),
			FruitPositions: append([]voxel.Coord(nil), ts.FruitPositions...),
		}
	}

	creatures := map[sim.CreatureID]*sim.Creature{}
	for _, cs := range snap.Creatures {
		sp, ok := cfg.Species[cs.Species]
		if !ok {
			return nil, fmt.Errorf("persist: rebuild creature %d: unknown species %q", cs.ID, cs.Species)
		}
		node, ok := resolveNode(navGraphs[sp.Footprint], cs.Position)
		if !ok {
			return nil, fmt.Errorf("persist: rebuild creature %d: no standable node near %v", cs.ID, cs.Position)
		}
		pos := cs.Position
		if p, ok := navGraphs[sp.Footprint].Node(node); ok {
			pos = toVoxelCoord(p)
		}
		creatures[cs.ID] = &sim.Creature{
			ID: cs.ID, Species: cs.Species, Position: pos, CurrentNode: node,
			Food: cs.Food, CurrentTask: cs.CurrentTask,
		}
	}

	tasks := map[sim.TaskID]*sim.Task{}
	for _, tsk := range snap.Tasks {
		g, ok := navGraphs[tsk.Footprint]
		if !ok {
			return nil, fmt.Errorf("persist: rebuild task %d: unknown footprint %v", tsk.ID, tsk.Footprint)
		}
		node, ok := resolveNode(g, tsk.LocationCoord)
		if !ok {
			return nil, fmt.Errorf("persist: rebuild task %d: no standable node near %v", tsk.ID, tsk.LocationCoord)
		}
		tasks[tsk.ID] = &sim.Task{
			ID: tsk.ID, Kind: tsk.Kind, State: tsk.State,
			Location: node, Footprint: tsk.Footprint,
			Assignees:       append([]sim.CreatureID(nil), tsk.Assignees...),
			Progress:        tsk.Progress,
			TotalCost:       tsk.TotalCost,
			RequiredSpecies: tsk.RequiredSpecies,
		}
	}

	structures := map[sim.StructureID]*sim.Structure{}
	for _, ss := range snap.Structures {
		structures[ss.ID] = &sim.Structure{
			ID: ss.ID, BuildType: ss.BuildType,
			Voxels: append([]voxel.Coord(nil), ss.Voxels...),
		}
	}

	events := eventqueue.New()
	for _, ts := range snap.Trees {
		events.Push(eventqueue.Event{Tick: snap.Tick + cfg.TreeHeartbeatIntervalTicks, Kind: eventqueue.TreeHeartbeat, EntityID: uint64(ts.ID)})
	}
	for _, cs := range snap.Creatures {
		sp := cfg.Species[cs.Species]
		events.Push(eventqueue.Event{Tick: snap.Tick + sp.HeartbeatIntervalTicks, Kind: eventqueue.CreatureHeartbeat, EntityID: uint64(cs.ID)})
		events.Push(eventqueue.Event{Tick: snap.Tick + 1, Kind: eventqueue.CreatureActivation, EntityID: uint64(cs.ID)})
	}

	s := &sim.SimState{
		Tick:               snap.Tick,
		Stream:             prng.RestoreStream(snap.StreamState),
		Config:             cfg,
		Events:             events,
		World:              w,
		NavGraphs:          navGraphs,
		Trees:              trees,
		Creatures:          creatures,
		Tasks:              tasks,
		Blueprints:         blueprints,
		Structures:         structures,
		FaceData:           faceData,
		LadderOrientations: ladderOrient,
		PlacedVoxels:       append([]worldgen.PlacedVoxel(nil), snap.PlacedVoxels...),
		CarvedVoxels:       append([]voxel.Coord(nil), snap.CarvedVoxels...),
		Speed:              snap.Speed,
		LastBuildMessage:   snap.LastBuildMessage,
	}
	s.SetNextStructureSeq(snap.NextStructureSeq)
	return s, nil
}
