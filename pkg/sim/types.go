// Package sim implements SimState (spec §3, §4.3-§4.10, §6.1-§6.3): the
// authoritative owner of the voxel world, navigation graphs, event queue,
// and every entity map, driving the command/event pipeline that the relay
// replicates identically across every connected client.
//
// SimState follows the shape of the teacher's pkg/dungeon.DefaultGenerator:
// one struct owns every collaborating component and exposes a small set of
// orchestration entry points (there, Generate; here, Step, which applies
// each tick's commands before draining its events), while the actual per-concern logic lives in focused files
// alongside it (commands.go, activation.go, materialize.go, tasks.go,
// treeheartbeat.go).
package sim

import (
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/pathfind"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// CreatureID, TreeID, TaskID, and ProjectID are opaque ids drawn from the
// sim PRNG (spec §3 "Identifiers"); StructureID is a sequential counter.
type (
	CreatureID  uint64
	TreeID      uint64
	TaskID      uint64
	ProjectID   uint64
	StructureID uint64
)

// TaskKindTag discriminates the three task behaviors (spec §3).
type TaskKindTag uint8

const (
	TaskGoTo TaskKindTag = iota
	TaskBuild
	TaskEatFruit
)

// TaskKind is a tagged union over the task behaviors a Task can carry.
type TaskKind struct {
	Tag       TaskKindTag
	ProjectID ProjectID    // valid when Tag == TaskBuild
	FruitPos  voxel.Coord  // valid when Tag == TaskEatFruit
}

// TaskState is the lifecycle stage of a Task (spec §3, §4.9).
type TaskState uint8

const (
	Available TaskState = iota
	InProgress
	Complete
)

// Task is a unit of work creatures can claim and progress (spec §3).
type Task struct {
	ID              TaskID
	Kind     TaskKind
	State    TaskState
	Location navgraph.NodeID
	// Footprint names which nav graph Location indexes into: NodeIDs are
	// only unique within one graph variant, so a task must record which
	// variant it was resolved against (spec §3).
	Footprint navgraph.Footprint
	Assignees []CreatureID
	Progress        float64
	TotalCost       float64
	RequiredSpecies string // empty means "any species"
}

// BlueprintState is the lifecycle stage of a Blueprint (spec §3).
type BlueprintState uint8

const (
	Designated BlueprintState = iota
	BlueprintComplete
)

// BlueprintKind distinguishes construction blueprints from carve
// blueprints, both of which share the incremental-materialization
// machinery in materialize.go but target opposite voxel states.
type BlueprintKind uint8

const (
	BuildBlueprint BlueprintKind = iota
	CarveBlueprint
)

// Blueprint is a pending or completed construction/carve plan (spec §3).
type Blueprint struct {
	ID             ProjectID
	Kind           BlueprintKind
	BuildType      voxel.Type // target type for BuildBlueprint; ignored for carve
	Voxels         []voxel.Coord
	Priority       int
	State          BlueprintState
	TaskID         TaskID
	FaceLayout     map[voxel.Coord]voxel.FaceData
	StressWarning  bool
	OriginalVoxels map[voxel.Coord]voxel.Type

	// Placed tracks which of Voxels have materialized so far (spec §4.8);
	// the remainder materialize one at a time as build/carve work
	// accumulates.
	Placed map[voxel.Coord]bool

	// VoxelTypes overrides BuildType on a per-coordinate basis, used by
	// DesignateBuilding (wall shell vs. interior) and DesignateLadder
	// (rung type). Nil for a single-material build.
	VoxelTypes map[voxel.Coord]voxel.Type
	// LadderOrient carries the per-voxel ladder orientation for a
	// DesignateLadder blueprint. Nil for non-ladder blueprints.
	LadderOrient map[voxel.Coord]voxel.LadderOrientation
}

// Structure is the permanent record of a completed blueprint (spec §3).
type Structure struct {
	ID        StructureID
	BuildType voxel.Type
	Voxels    []voxel.Coord
}

// Tree is one generated tree's identity and renewable state (fruiting).
type Tree struct {
	ID             TreeID
	Origin         voxel.Coord
	LeafPositions  []voxel.Coord
	FruitPositions []voxel.Coord
}

// Creature is a single simulated actor (spec §3).
type Creature struct {
	ID          CreatureID
	Species     string
	Position    voxel.Coord
	CurrentNode navgraph.NodeID
	Path        *pathfind.Path
	PathIndex   int
	CurrentTask *TaskID
	Food        float64

	// Movement interpolation metadata: written for renderer consumption,
	// never read by sim logic (spec §4.7).
	MoveFrom      *voxel.Coord
	MoveTo        *voxel.Coord
	MoveStartTick uint64
	MoveEndTick   uint64
}

func (c *Creature) hasTask() bool { return c.CurrentTask != nil }
