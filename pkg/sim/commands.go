// Commands implements the player-facing command surface (spec §6.1): every
// action is validated before it mutates anything, and a rejected command is
// a silent no-op that only updates LastBuildMessage — never a panic or a
// returned error, since a relay session must keep running identically on
// every replica even when a client sends something invalid.
package sim

import (
	"fmt"

	"github.com/elvencanopy/canopy/pkg/eventqueue"
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/structural"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// ActionKind discriminates the command surface's variants.
type ActionKind string

const (
	ActionSetSimSpeed       ActionKind = "SetSimSpeed"
	ActionSpawnCreature     ActionKind = "SpawnCreature"
	ActionDesignateBuild    ActionKind = "DesignateBuild"
	ActionDesignateBuilding ActionKind = "DesignateBuilding"
	ActionDesignateLadder   ActionKind = "DesignateLadder"
	ActionDesignateCarve    ActionKind = "DesignateCarve"
	ActionCancelBuild       ActionKind = "CancelBuild"
	ActionCreateTask        ActionKind = "CreateTask"
	ActionSetTaskPriority   ActionKind = "SetTaskPriority"
)

// Action is a flattened, JSON-friendly tagged union over every command
// variant — the fields a given Kind doesn't use are simply left zero, the
// same flattening the teacher's wire types use for dungo's content events.
type Action struct {
	Kind ActionKind `json:"kind"`

	Speed string `json:"speed,omitempty"`

	Species  string       `json:"species,omitempty"`
	Position *voxel.Coord `json:"position,omitempty"`

	BuildType       string        `json:"buildType,omitempty"`
	Voxels          []voxel.Coord `json:"voxels,omitempty"`
	Priority        int           `json:"priority,omitempty"`
	RequiredSpecies string        `json:"requiredSpecies,omitempty"`

	Anchor      *voxel.Coord `json:"anchor,omitempty"`
	Width       int          `json:"width,omitempty"`
	Depth       int          `json:"depth,omitempty"`
	Height      int          `json:"height,omitempty"`
	Orientation string       `json:"orientation,omitempty"`
	LadderKind  string       `json:"ladderKind,omitempty"`

	ProjectID ProjectID `json:"projectId,omitempty"`

	TaskKindName string `json:"taskKind,omitempty"`
	TaskID       TaskID `json:"taskId,omitempty"`
}

// Command is one player-submitted action stamped to the tick it should
// apply at (spec §6.1, §6.2's canonical per-tick ordering is the relay's
// job; SimState just trusts the tick it's handed).
type Command struct {
	PlayerID uint32 `json:"playerId"`
	Tick     uint64 `json:"tick"`
	Action   Action `json:"action"`
}

func (s *SimState) fail(msg string, args ...interface{}) (SimEvent, bool) {
	s.LastBuildMessage = fmt.Sprintf(msg, args...)
	return SimEvent{}, false
}

func (s *SimState) applyCommand(cmd Command) (SimEvent, bool) {
	switch cmd.Action.Kind {
	case ActionSetSimSpeed:
		return s.applySetSimSpeed(cmd.Action)
	case ActionSpawnCreature:
		return s.applySpawnCreature(cmd.Action)
	case ActionDesignateBuild:
		return s.applyDesignateBuild(cmd.Action)
	case ActionDesignateBuilding:
		return s.applyDesignateBuilding(cmd.Action)
	case ActionDesignateLadder:
		return s.applyDesignateLadder(cmd.Action)
	case ActionDesignateCarve:
		return s.applyDesignateCarve(cmd.Action)
	case ActionCancelBuild:
		return s.applyCancelBuild(cmd.Action)
	case ActionCreateTask:
		return s.applyCreateTask(cmd.Action)
	case ActionSetTaskPriority:
		return s.applySetTaskPriority(cmd.Action)
	}
	return s.fail("unrecognized command kind %q", cmd.Action.Kind)
}

func (s *SimState) applySetSimSpeed(a Action) (SimEvent, bool) {
	switch a.Speed {
	case "Paused", "Normal", "Fast":
		s.Speed = a.Speed
		return SimEvent{Kind: EvSpeedChanged, Tick: s.Tick, Speed: a.Speed}, true
	default:
		return s.fail("unknown sim speed %q", a.Speed)
	}
}

func (s *SimState) applySpawnCreature(a Action) (SimEvent, bool) {
	if a.Position == nil {
		return s.fail("spawn creature: position is required")
	}
	sp, ok := s.Config.Species[a.Species]
	if !ok {
		return s.fail("spawn creature: unknown species %q", a.Species)
	}
	g := s.NavGraphs[sp.Footprint]
	node, ok := g.NodeAt(toPosition(*a.Position))
	if !ok {
		node, ok = nearestAliveNode(g, *a.Position)
		if !ok {
			return s.fail("spawn creature: no standable position reachable from %v", *a.Position)
		}
	}
	pos, _ := g.Node(node)

	id := CreatureID(s.Stream.NextUint64())
	c := &Creature{
		ID: id, Species: a.Species, Position: toCoord(pos), CurrentNode: node,
		Food: sp.FoodMax,
	}
	s.Creatures[id] = c
	s.Events.Push(eventqueue.Event{Tick: s.Tick + sp.HeartbeatIntervalTicks, Kind: eventqueue.CreatureHeartbeat, EntityID: uint64(id)})
	s.Events.Push(eventqueue.Event{Tick: s.Tick + 1, Kind: eventqueue.CreatureActivation, EntityID: uint64(id)})
	return SimEvent{}, false
}

func overlapOverrides(existing func(voxel.Coord) voxel.Type, voxels []voxel.Coord, newType voxel.Type) (map[voxel.Coord]voxel.Type, error) {
	out := make(map[voxel.Coord]voxel.Type, len(voxels))
	for _, c := range voxels {
		class := voxel.ClassifyOverlap(existing(c), newType)
		if class == voxel.Blocked {
			return nil, fmt.Errorf("voxel %v is occupied and cannot be built over", c)
		}
		out[c] = newType
	}
	return out, nil
}

var buildTypeNames = map[string]voxel.Type{
	"GrownPlatform": voxel.GrownPlatform, "Wall": voxel.Wall,
	"BuildingInterior": voxel.BuildingInterior,
	"WoodLadder":       voxel.WoodLadder, "RopeLadder": voxel.RopeLadder,
}

func (s *SimState) applyDesignateBuild(a Action) (SimEvent, bool) {
	if len(a.Voxels) == 0 {
		return s.fail("designate build: no voxels given")
	}
	newType, known := buildTypeNames[a.BuildType]
	if !known {
		return s.fail("designate build: unknown build type %q", a.BuildType)
	}
	overrides, err := overlapOverrides(s.World.Get, a.Voxels, newType)
	if err != nil {
		return s.fail("designate build: %v", err)
	}
	if !structural.FloodFillConnected(s.World, overrides, a.Voxels) {
		return s.fail("designate build: not connected to the ground")
	}
	structCfg := s.Config.StructuralConfig()
	validation := structural.ValidateBlueprintFast(s.World, s.FaceData, overrides, nil, structCfg)
	if validation.Tier == structural.Blocked {
		return s.fail("designate build: %s", validation.Message)
	}

	original := make(map[voxel.Coord]voxel.Type, len(a.Voxels))
	for _, c := range a.Voxels {
		original[c] = s.World.Get(c)
	}

	bp := &Blueprint{
		ID: ProjectID(s.Stream.NextUint64()), Kind: BuildBlueprint, BuildType: newType,
		Voxels: a.Voxels, Priority: a.Priority, State: Designated,
		OriginalVoxels: original, StressWarning: validation.Tier == structural.Warning,
	}
	s.Blueprints[bp.ID] = bp
	s.designateBuildTask(bp, a.RequiredSpecies)
	return SimEvent{Kind: EvBlueprintDesignated, Tick: s.Tick, ProjectID: bp.ID}, true
}

// designateBuildTask resolves the task's standing location against the
// Standard footprint graph: construction work is foot-level activity, so
// every species expected to take build/carve tasks routes through the
// Standard graph (spec §4.9; Large-footprint species are exempted from
// construction duty in the default species table).
func (s *SimState) designateBuildTask(bp *Blueprint, requiredSpecies string) {
	g := s.NavGraphs[navgraph.Standard]
	loc, ok := nearestAliveNode(g, bp.Voxels[0])
	if !ok {
		loc = 0
	}
	workPerVoxel := s.Config.BuildWorkTicksPerVoxel
	if bp.Kind == CarveBlueprint {
		workPerVoxel = s.Config.CarveWorkTicksPerVoxel
	}
	t := &Task{
		ID: TaskID(s.Stream.NextUint64()), Kind: TaskKind{Tag: TaskBuild, ProjectID: bp.ID},
		State: Available, Location: loc, Footprint: navgraph.Standard, RequiredSpecies: requiredSpecies,
		TotalCost: float64(len(bp.Voxels)) * workPerVoxel,
	}
	s.Tasks[t.ID] = t
	bp.TaskID = t.ID
}

func (s *SimState) applyDesignateCarve(a Action) (SimEvent, bool) {
	if len(a.Voxels) == 0 {
		return s.fail("designate carve: no voxels given")
	}
	for _, c := range a.Voxels {
		t := s.World.Get(c)
		if t == voxel.ForestFloor {
			return s.fail("designate carve: cannot carve the forest floor at %v", c)
		}
		if !t.IsSolid() {
			return s.fail("designate carve: %v is not solid", c)
		}
	}
	structCfg := s.Config.StructuralConfig()
	validation := structural.ValidateCarveFast(s.World, s.FaceData, a.Voxels, structCfg)
	if validation.Tier == structural.Blocked {
		return s.fail("designate carve: %s", validation.Message)
	}

	original := make(map[voxel.Coord]voxel.Type, len(a.Voxels))
	for _, c := range a.Voxels {
		original[c] = s.World.Get(c)
	}
	bp := &Blueprint{
		ID: ProjectID(s.Stream.NextUint64()), Kind: CarveBlueprint,
		Voxels: a.Voxels, Priority: a.Priority, State: Designated,
		OriginalVoxels: original, StressWarning: validation.Tier == structural.Warning,
	}
	s.Blueprints[bp.ID] = bp
	s.designateBuildTask(bp, a.RequiredSpecies)
	return SimEvent{Kind: EvBlueprintDesignated, Tick: s.Tick, ProjectID: bp.ID}, true
}

// buildingVoxels lays out a rectangular shell of Wall voxels with a
// BuildingInterior fill, anchored at the lowest (x, y, z) corner.
func buildingVoxels(anchor voxel.Coord, width, depth, height int) ([]voxel.Coord, map[voxel.Coord]voxel.Type, map[voxel.Coord]voxel.FaceData) {
	var voxels []voxel.Coord
	types := map[voxel.Coord]voxel.Type{}
	faces := map[voxel.Coord]voxel.FaceData{}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for z := 0; z < depth; z++ {
				c := voxel.Coord{X: anchor.X + x, Y: anchor.Y + y, Z: anchor.Z + z}
				wall := x == 0 || x == width-1 || z == 0 || z == depth-1 || y == 0 || y == height-1
				ty := voxel.BuildingInterior
				if wall {
					ty = voxel.Wall
				}
				voxels = append(voxels, c)
				types[c] = ty
				fd := voxel.NewFaceData()
				if ty == voxel.Wall {
					for i := range fd {
						fd[i] = voxel.WallFace
					}
				}
				faces[c] = fd
			}
		}
	}
	return voxels, types, faces
}

func (s *SimState) applyDesignateBuilding(a Action) (SimEvent, bool) {
	if a.Anchor == nil {
		return s.fail("designate building: anchor is required")
	}
	if a.Width < 3 || a.Depth < 3 || a.Height < 1 {
		return s.fail("designate building: minimum footprint is 3x3x1")
	}
	voxels, types, faces := buildingVoxels(*a.Anchor, a.Width, a.Depth, a.Height)
	overrides := make(map[voxel.Coord]voxel.Type, len(voxels))
	for _, c := range voxels {
		class := voxel.ClassifyOverlap(s.World.Get(c), types[c])
		if class == voxel.Blocked {
			return s.fail("designate building: voxel %v is occupied", c)
		}
		overrides[c] = types[c]
	}
	if !structural.FloodFillConnected(s.World, overrides, voxels) {
		return s.fail("designate building: not connected to the ground")
	}
	structCfg := s.Config.StructuralConfig()
	validation := structural.ValidateBlueprintFast(s.World, s.FaceData, overrides, faces, structCfg)
	if validation.Tier == structural.Blocked {
		return s.fail("designate building: %s", validation.Message)
	}

	original := make(map[voxel.Coord]voxel.Type, len(voxels))
	for _, c := range voxels {
		original[c] = s.World.Get(c)
	}
	bp := &Blueprint{
		ID: ProjectID(s.Stream.NextUint64()), Kind: BuildBlueprint,
		Voxels: voxels, VoxelTypes: types, FaceLayout: faces, Priority: a.Priority,
		State: Designated, OriginalVoxels: original, StressWarning: validation.Tier == structural.Warning,
	}
	s.Blueprints[bp.ID] = bp
	s.designateBuildTask(bp, a.RequiredSpecies)
	return SimEvent{Kind: EvBlueprintDesignated, Tick: s.Tick, ProjectID: bp.ID}, true
}

var ladderAxisSign = map[string]voxel.LadderOrientation{
	"X+": {Axis: "X", Sign: 1}, "X-": {Axis: "X", Sign: -1},
	"Z+": {Axis: "Z", Sign: 1}, "Z-": {Axis: "Z", Sign: -1},
}

func (s *SimState) applyDesignateLadder(a Action) (SimEvent, bool) {
	if a.Anchor == nil {
		return s.fail("designate ladder: anchor is required")
	}
	if a.Height < 1 {
		return s.fail("designate ladder: height must be positive")
	}
	orient, ok := ladderAxisSign[a.Orientation]
	if !ok {
		return s.fail("designate ladder: unknown orientation %q", a.Orientation)
	}
	ladderType := voxel.WoodLadder
	if a.LadderKind == "Rope" {
		ladderType = voxel.RopeLadder
	} else if a.LadderKind != "" && a.LadderKind != "Wood" {
		return s.fail("designate ladder: unknown ladder kind %q", a.LadderKind)
	}

	var voxels []voxel.Coord
	types := map[voxel.Coord]voxel.Type{}
	orients := map[voxel.Coord]voxel.LadderOrientation{}
	for y := 0; y < a.Height; y++ {
		c := voxel.Coord{X: a.Anchor.X, Y: a.Anchor.Y + y, Z: a.Anchor.Z}
		voxels = append(voxels, c)
		types[c] = ladderType
		orients[c] = orient
	}
	overrides := make(map[voxel.Coord]voxel.Type, len(voxels))
	for _, c := range voxels {
		class := voxel.ClassifyOverlap(s.World.Get(c), ladderType)
		if class == voxel.Blocked {
			return s.fail("designate ladder: voxel %v is occupied", c)
		}
		overrides[c] = ladderType
	}
	if !structural.FloodFillConnected(s.World, overrides, voxels) {
		return s.fail("designate ladder: not connected to the ground")
	}

	original := make(map[voxel.Coord]voxel.Type, len(voxels))
	for _, c := range voxels {
		original[c] = s.World.Get(c)
	}
	bp := &Blueprint{
		ID: ProjectID(s.Stream.NextUint64()), Kind: BuildBlueprint,
		Voxels: voxels, VoxelTypes: types, LadderOrient: orients, Priority: a.Priority,
		State: Designated, OriginalVoxels: original,
	}
	s.Blueprints[bp.ID] = bp
	s.designateBuildTask(bp, a.RequiredSpecies)
	return SimEvent{Kind: EvBlueprintDesignated, Tick: s.Tick, ProjectID: bp.ID}, true
}

func (s *SimState) applyCancelBuild(a Action) (SimEvent, bool) {
	bp, ok := s.Blueprints[a.ProjectID]
	if !ok {
		return s.fail("cancel build: unknown project %d", a.ProjectID)
	}
	if bp.State == BlueprintComplete {
		return s.fail("cancel build: project %d is already complete", a.ProjectID)
	}
	s.cancelBuild(bp)
	return SimEvent{Kind: EvBuildCancelled, Tick: s.Tick, ProjectID: a.ProjectID}, true
}

func (s *SimState) applyCreateTask(a Action) (SimEvent, bool) {
	if a.Position == nil {
		return s.fail("create task: position is required")
	}
	fp := navgraph.Standard
	if a.RequiredSpecies != "" {
		if sp, ok := s.Config.Species[a.RequiredSpecies]; ok {
			fp = sp.Footprint
		}
	}
	g := s.NavGraphs[fp]
	loc, ok := g.NodeAt(toPosition(*a.Position))
	if !ok {
		loc, ok = nearestAliveNode(g, *a.Position)
		if !ok {
			return s.fail("create task: no standable position reachable from %v", *a.Position)
		}
	}
	var kind TaskKind
	switch a.TaskKindName {
	case "GoTo":
		kind = TaskKind{Tag: TaskGoTo}
	case "EatFruit":
		kind = TaskKind{Tag: TaskEatFruit, FruitPos: *a.Position}
	default:
		return s.fail("create task: unknown task kind %q", a.TaskKindName)
	}
	t := &Task{
		ID: TaskID(s.Stream.NextUint64()), Kind: kind, State: Available,
		Location: loc, Footprint: fp, RequiredSpecies: a.RequiredSpecies, TotalCost: 1,
	}
	s.Tasks[t.ID] = t
	return SimEvent{}, false
}

// applySetTaskPriority is a reserved no-op (SPEC_FULL.md §5 Open Question):
// the command is parsed and the referenced task validated to exist, but
// priority does not yet influence claim ordering.
func (s *SimState) applySetTaskPriority(a Action) (SimEvent, bool) {
	if _, ok := s.Tasks[a.TaskID]; !ok {
		return s.fail("set task priority: unknown task %d", a.TaskID)
	}
	return SimEvent{}, false
}
