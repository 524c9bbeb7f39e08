package sim

import (
	"fmt"

	"github.com/elvencanopy/canopy/pkg/config"
	"github.com/elvencanopy/canopy/pkg/eventqueue"
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/pathfind"
	"github.com/elvencanopy/canopy/pkg/prng"
	"github.com/elvencanopy/canopy/pkg/structural"
	"github.com/elvencanopy/canopy/pkg/voxel"
	"github.com/elvencanopy/canopy/pkg/worldgen"
)

// SimEventKind tags the advisory events the kernel reports back to callers
// (the relay, a headless runner, or a test) after a Step (spec §4.3, §6.2).
type SimEventKind string

const (
	EvSpeedChanged        SimEventKind = "SpeedChanged"
	EvCreatureArrived     SimEventKind = "CreatureArrived"
	EvBlueprintDesignated SimEventKind = "BlueprintDesignated"
	EvBuildCancelled      SimEventKind = "BuildCancelled"
)

// SimEvent is one advisory notification emitted during a Step.
type SimEvent struct {
	Kind       SimEventKind `json:"kind"`
	Tick       uint64       `json:"tick"`
	CreatureID CreatureID   `json:"creatureId,omitempty"`
	ProjectID  ProjectID    `json:"projectId,omitempty"`
	Speed      string       `json:"speed,omitempty"`
}

// SimState is the authoritative owner of everything a replica must agree on
// byte-for-byte: the voxel world, both navigation graphs, the event queue,
// and every entity map. It plays the role the teacher's
// pkg/dungeon.DefaultGenerator plays for the dungeon pipeline — one struct
// wiring together every collaborating component behind a small
// orchestration surface (there Generate; here Step).
type SimState struct {
	Tick   uint64
	Stream *prng.Stream
	Config config.GameConfig
	Events *eventqueue.Queue

	World     *voxel.World
	NavGraphs map[navgraph.Footprint]*navgraph.Graph

	Trees      map[TreeID]*Tree
	Creatures  map[CreatureID]*Creature
	Tasks      map[TaskID]*Task
	Blueprints map[ProjectID]*Blueprint
	Structures map[StructureID]*Structure

	FaceData           map[voxel.Coord]voxel.FaceData
	LadderOrientations map[voxel.Coord]voxel.LadderOrientation

	PlacedVoxels []worldgen.PlacedVoxel
	CarvedVoxels []voxel.Coord

	Speed            string // "Paused", "Normal", or "Fast"
	LastBuildMessage string

	nextStructureSeq uint64
}

// NewSimState builds a fresh SimState: lays the forest floor, generates the
// configured tree (retrying with a fresh draw from stream on structural
// failure up to StructuralCfg.TreeGenMaxRetries, spec §4.6 "Tree startup
// gate"), builds both navigation graph variants, and fast-forwards the
// tree's initial fruiting per FruitInitialAttempts.
func NewSimState(cfg config.GameConfig, seed uint64) (*SimState, error) {
	stream := prng.NewStream(seed)
	w := voxel.NewWorld(cfg.WorldSize.X, cfg.WorldSize.Y, cfg.WorldSize.Z)
	origin := voxel.Coord{X: cfg.WorldSize.X / 2, Y: 0, Z: cfg.WorldSize.Z / 2}
	worldgen.PlaceForestFloor(w, origin, cfg.FloorExtent)

	structCfg := cfg.StructuralConfig()
	faceData := make(map[voxel.Coord]voxel.FaceData)

	var tree worldgen.Tree
	ok := false
	for attempt := 0; attempt <= cfg.Structural.TreeGenMaxRetries; attempt++ {
		candidate := voxel.NewWorld(cfg.WorldSize.X, cfg.WorldSize.Y, cfg.WorldSize.Z)
		worldgen.PlaceForestFloor(candidate, origin, cfg.FloorExtent)
		tree = worldgen.Generate(candidate, origin, cfg.TreeProfile, stream)
		if _, passed := structural.ValidateTree(candidate, faceData, structCfg); passed {
			w = candidate
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("sim: tree generation did not pass structural validation within %d retries", cfg.Structural.TreeGenMaxRetries)
	}

	s := &SimState{
		Stream:             stream,
		Config:             cfg,
		Events:             eventqueue.New(),
		World:              w,
		NavGraphs:          map[navgraph.Footprint]*navgraph.Graph{},
		Trees:              map[TreeID]*Tree{},
		Creatures:          map[CreatureID]*Creature{},
		Tasks:              map[TaskID]*Task{},
		Blueprints:         map[ProjectID]*Blueprint{},
		Structures:         map[StructureID]*Structure{},
		FaceData:           faceData,
		LadderOrientations: map[voxel.Coord]voxel.LadderOrientation{},
		Speed:              "Normal",
	}
	s.NavGraphs[navgraph.Standard] = navgraph.Build(w, navgraph.Standard)
	s.NavGraphs[navgraph.Large] = navgraph.Build(w, navgraph.Large)

	treeID := TreeID(s.Stream.NextUint64())
	t := &Tree{ID: treeID, Origin: origin, LeafPositions: tree.Leaves}
	s.Trees[treeID] = t
	s.PlacedVoxels = append(s.PlacedVoxels, tree.Voxels...)

	s.fastForwardFruit(t)
	s.Events.Push(eventqueue.Event{Tick: s.Tick + cfg.TreeHeartbeatIntervalTicks, Kind: eventqueue.TreeHeartbeat, EntityID: uint64(treeID)})

	return s, nil
}

func (s *SimState) speciesCosts(sp config.SpeciesData) pathfind.SpeciesCosts {
	m := map[navgraph.EdgeType]float64{
		navgraph.ForestFloorEdge:     sp.WalkTicksPerVoxel,
		navgraph.BranchWalk:          sp.WalkTicksPerVoxel,
		navgraph.TrunkCircumference:  sp.ClimbTicksPerVoxel,
		navgraph.GroundToTrunk:       sp.ClimbTicksPerVoxel,
		navgraph.TrunkClimb:          sp.ClimbTicksPerVoxel,
		navgraph.WoodLadderClimb:     sp.WoodLadderTicksPerVoxel,
		navgraph.RopeLadderClimb:     sp.RopeLadderTicksPerVoxel,
	}
	return pathfind.SpeciesCosts{TicksPerVoxel: m}
}

func (s *SimState) allowedEdges(sp config.SpeciesData) map[navgraph.EdgeType]bool {
	out := make(map[navgraph.EdgeType]bool, len(sp.AllowedEdgeTypes))
	for _, t := range sp.AllowedEdgeTypes {
		out[t] = true
	}
	return out
}

func (s *SimState) graphFor(species string) (*navgraph.Graph, config.SpeciesData, bool) {
	sp, ok := s.Config.Species[species]
	if !ok {
		return nil, config.SpeciesData{}, false
	}
	return s.NavGraphs[sp.Footprint], sp, true
}

// Step advances the sim from its current tick up to (and including)
// targetTick, applying commands at the tick they're stamped for before
// processing any event scheduled for that same tick (spec §4.3), and
// returns every advisory event emitted along the way.
func (s *SimState) Step(commands []Command, targetTick uint64) []SimEvent {
	var emitted []SimEvent
	byTick := map[uint64][]Command{}
	for _, c := range commands {
		byTick[c.Tick] = append(byTick[c.Tick], c)
	}
	for s.Tick < targetTick {
		s.Tick++
		for _, c := range byTick[s.Tick] {
			if ev, ok := s.applyCommand(c); ok {
				emitted = append(emitted, ev)
			}
		}
		due := s.Events.PopUntil(s.Tick)
		for _, ev := range due {
			emitted = append(emitted, s.handleEvent(ev)...)
		}
	}
	return emitted
}

func (s *SimState) nextStructureID() StructureID {
	id := StructureID(s.nextStructureSeq)
	s.nextStructureSeq++
	return id
}

// NextStructureSeq and SetNextStructureSeq expose the structure id counter
// for pkg/persist, which must save and restore it exactly to keep
// post-load structure ids from colliding with pre-save ones.
func (s *SimState) NextStructureSeq() uint64 { return s.nextStructureSeq }

func (s *SimState) SetNextStructureSeq(v uint64) { s.nextStructureSeq = v }
