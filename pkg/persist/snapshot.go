// Package persist implements spec §6.3's save/load contract: a Snapshot
// captures exactly the authoritative state a replica cannot recompute
// (tick, PRNG stream, entity maps, the append-only placed/carved voxel
// logs) and excludes everything that Rebuild can regenerate from it — the
// voxel grid, both navigation graphs, and face/ladder metadata. Loading a
// Snapshot back into a SimState must leave it byte-identical to the state
// that produced the snapshot, including every creature's resumed PRNG
// sequence.
//
// The save/load split follows the teacher's pkg/export: a pure conversion
// step (here Snapshot) separate from the file I/O wrapper (SaveToFile,
// LoadFromFile), so the conversion can be tested without touching disk.
package persist

import (
	"github.com/elvencanopy/canopy/pkg/config"
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/sim"
	"github.com/elvencanopy/canopy/pkg/voxel"
	"github.com/elvencanopy/canopy/pkg/worldgen"
)

// CoordType pairs a voxel coordinate with a type, the wire-friendly
// replacement for a map[voxel.Coord]voxel.Type (Go's encoding/json cannot
// use a struct as a map key).
type CoordType struct {
	Coord voxel.Coord `json:"coord"`
	Type  voxel.Type  `json:"type"`
}

// CoordFace pairs a voxel coordinate with its face layout.
type CoordFace struct {
	Coord voxel.Coord    `json:"coord"`
	Face  voxel.FaceData `json:"face"`
}

// CoordLadder pairs a voxel coordinate with its ladder orientation.
type CoordLadder struct {
	Coord  voxel.Coord             `json:"coord"`
	Orient voxel.LadderOrientation `json:"orient"`
}

// TreeSnapshot is a Tree's persisted identity and renewable state.
type TreeSnapshot struct {
	ID             sim.TreeID    `json:"id"`
	Origin         voxel.Coord   `json:"origin"`
	LeafPositions  []voxel.Coord `json:"leafPositions"`
	FruitPositions []voxel.Coord `json:"fruitPositions"`
}

// CreatureSnapshot is a Creature's persisted identity and drives. Path,
// PathIndex, and the Move* interpolation fields are transient renderer
// hints (spec §4.7) and are not persisted; Rebuild resets them and lets
// the next activation recompute a path from CurrentTask.
type CreatureSnapshot struct {
	ID          sim.CreatureID `json:"id"`
	Species     string         `json:"species"`
	Position    voxel.Coord    `json:"position"`
	Food        float64        `json:"food"`
	CurrentTask *sim.TaskID    `json:"currentTask,omitempty"`
}

// TaskSnapshot is a Task's persisted state. Location is saved as the
// world coordinate it resolved to rather than the raw NodeID, because a
// NodeID is only meaningful relative to the specific graph instance that
// produced it (spec §3) — Rebuild re-resolves it against the rebuilt
// graph for Footprint.
type TaskSnapshot struct {
	ID              sim.TaskID         `json:"id"`
	Kind            sim.TaskKind       `json:"kind"`
	State           sim.TaskState      `json:"state"`
	LocationCoord   voxel.Coord        `json:"locationCoord"`
	Footprint       navgraph.Footprint `json:"footprint"`
	Assignees       []sim.CreatureID   `json:"assignees,omitempty"`
	Progress        float64            `json:"progress"`
	TotalCost       float64            `json:"totalCost"`
	RequiredSpecies string             `json:"requiredSpecies,omitempty"`
}

// BlueprintSnapshot is a Blueprint's persisted state, with every
// map[voxel.Coord]X field flattened to an entry slice for JSON.
type BlueprintSnapshot struct {
	ID             sim.ProjectID      `json:"id"`
	Kind           sim.BlueprintKind  `json:"kind"`
	BuildType      voxel.Type         `json:"buildType"`
	Voxels         []voxel.Coord      `json:"voxels"`
	Priority       int                `json:"priority"`
	State          sim.BlueprintState `json:"state"`
	TaskID         sim.TaskID         `json:"taskId"`
	FaceLayout     []CoordFace        `json:"faceLayout,omitempty"`
	StressWarning  bool               `json:"stressWarning"`
	OriginalVoxels []CoordType        `json:"originalVoxels"`
	Placed         []voxel.Coord      `json:"placed,omitempty"`
	VoxelTypes     []CoordType        `json:"voxelTypes,omitempty"`
	LadderOrient   []CoordLadder      `json:"ladderOrient,omitempty"`
}

// StructureSnapshot is the permanent record of a completed blueprint.
type StructureSnapshot struct {
	ID        sim.StructureID `json:"id"`
	BuildType voxel.Type      `json:"buildType"`
	Voxels    []voxel.Coord   `json:"voxels"`
}

// Snapshot is the complete persisted form of a SimState (spec §6.3). The
// voxel World, both NavGraphs, FaceData, and LadderOrientations are
// deliberately absent: Rebuild regenerates all four from PlacedVoxels,
// CarvedVoxels, and the blueprint records below.
type Snapshot struct {
	Tick             uint64          `json:"tick"`
	StreamState      [4]uint64       `json:"streamState"`
	Config           config.GameConfig `json:"config"`
	Speed            string          `json:"speed"`
	LastBuildMessage string          `json:"lastBuildMessage,omitempty"`
	NextStructureSeq uint64          `json:"nextStructureSeq"`

	Trees      []TreeSnapshot      `json:"trees"`
	Creatures  []CreatureSnapshot  `json:"creatures"`
	Tasks      []TaskSnapshot      `json:"tasks"`
	Blueprints []BlueprintSnapshot `json:"blueprints"`
	Structures []StructureSnapshot `json:"structures"`

	PlacedVoxels []worldgen.PlacedVoxel `json:"placedVoxels"`
	CarvedVoxels []voxel.Coord          `json:"carvedVoxels"`
}

func coordTypeEntries(m map[voxel.Coord]voxel.Type) []CoordType {
	if len(m) == 0 {
		return nil
	}
	out := make([]CoordType, 0, len(m))
	for c, t := range m {
		out = append(out, CoordType{Coord: c, Type: t})
	}
	return out
}

func coordFaceEntries(m map[voxel.Coord]voxel.FaceData) []CoordFace {
	if len(m) == 0 {
		return nil
	}
	out := make([]CoordFace, 0, len(m))
	for c, f := range m {
		out = append(out, CoordFace{Coord: c, Face: f})
	}
	return out
}

func coordLadderEntries(m map[voxel.Coord]voxel.LadderOrientation) []CoordLadder {
	if len(m) == 0 {
		return nil
	}
	out := make([]CoordLadder, 0, len(m))
	for c, o := range m {
		out = append(out, CoordLadder{Coord: c, Orient: o})
	}
	return out
}

func placedEntries(m map[voxel.Coord]bool) []voxel.Coord {
	if len(m) == 0 {
		return nil
	}
	out := make([]voxel.Coord, 0, len(m))
	for c, placed := range m {
		if placed {
			out = append(out, c)
		}
	}
	return out
}

// Capture builds a Snapshot from a running SimState.
func Capture(s *sim.SimState) Snapshot {
	snap := Snapshot{
		Tick:             s.Tick,
		StreamState:      s.Stream.State(),
		Config:           s.Config,
		Speed:            s.Speed,
		LastBuildMessage: s.LastBuildMessage,
		NextStructureSeq: s.NextStructureSeq(),
		PlacedVoxels:     append([]worldgen.PlacedVoxel(nil), s.PlacedVoxels...),
		CarvedVoxels:     append([]voxel.Coord(nil), s.CarvedVoxels...),
	}

	for _, id := range sortedTreeIDs(s.Trees) {
		t := s.Trees[id]
		snap.Trees = append(snap.Trees, TreeSnapshot{
			ID: t.ID, Origin: t.Origin,
			LeafPositions:  append([]voxel.Coord(nil), t.LeafPositions...),
			FruitPositions: append([]voxel.Coord(nil), t.FruitPositions...),
		})
	}

	for _, id := range sortedCreatureIDs(s.Creatures) {
		c := s.Creatures[id]
		snap.Creatures = append(snap.Creatures, CreatureSnapshot{
			ID: c.ID, Species: c.Species, Position: c.Position,
			Food: c.Food, CurrentTask: c.CurrentTask,
		})
	}

	for _, id := range sortedTaskIDs(s.Tasks) {
		t := s.Tasks[id]
		loc := toCoord(s, t.Footprint, t.Location)
		snap.Tasks = append(snap.Tasks, TaskSnapshot{
			ID: t.ID, Kind: t.Kind, State: t.State,
			LocationCoord:   loc,
			Footprint:       t.Footprint,
			Assignees:       append([]sim.CreatureID(nil), t.Assignees...),
			Progress:        t.Progress,
			TotalCost:       t.TotalCost,
			RequiredSpecies: t.RequiredSpecies,
		})
	}

	for _, id := range sortedBlueprintIDs(s.Blueprints) {
		bp := s.Blueprints[id]
		snap.Blueprints = append(snap.Blueprints, BlueprintSnapshot{
			ID: bp.ID, Kind: bp.Kind, BuildType: bp.BuildType,
			Voxels: append([]voxel.Coord(nil), bp.Voxels...),
			Priority: bp.Priority, State: bp.State, TaskID: bp.TaskID,
			FaceLayout:     coordFaceEntries(bp.FaceLayout),
			StressWarning:  bp.StressWarning,
			OriginalVoxels: coordTypeEntries(bp.OriginalVoxels),
			Placed:         placedEntries(bp.Placed),
			VoxelTypes:     coordTypeEntries(bp.VoxelTypes),
			LadderOrient:   coordLadderEntries(bp.LadderOrient),
		})
	}

	for _, id := range sortedStructureIDs(s.Structures) {
		st := s.Structures[id]
		snap.Structures = append(snap.Structures, StructureSnapshot{
			ID: st.ID, BuildType: st.BuildType,
			Voxels: append([]voxel.Coord(nil), st.Voxels...),
		})
	}

	return snap
}

// toCoord resolves a task's NodeID back to a world coordinate against the
// graph variant it was created against, falling back to the zero
// coordinate if the graph is missing or the node has since been tombstoned
// (ids are never renumbered, but a killed slot no longer has a position).
func toCoord(s *sim.SimState, fp navgraph.Footprint, id navgraph.NodeID) voxel.Coord {
	g, ok := s.NavGraphs[fp]
	if !ok {
		return voxel.Coord{}
	}
	p, ok := g.Node(id)
	if !ok {
		return voxel.Coord{}
	}
	return voxel.Coord{X: p.X, Y: p.Y, Z: p.Z}
}
