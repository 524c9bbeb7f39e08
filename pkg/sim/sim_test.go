package sim

import (
	"testing"

	"github.com/elvencanopy/canopy/pkg/config"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

func newTestState(t *testing.T, seed uint64) *SimState {
	t.Helper()
	s, err := NewSimState(config.Default(), seed)
	if err != nil {
		t.Fatalf("NewSimState: %v", err)
	}
	return s
}

func TestNewSimStateGeneratesTreeAndGraphs(t *testing.T) {
	s := newTestState(t, 1)
	if len(s.Trees) != 1 {
		t.Fatalf("expected exactly one tree, got %d", len(s.Trees))
	}
	if s.NavGraphs[0].NodeCount() == 0 {
		t.Fatal("expected standard nav graph to have nodes")
	}
}

func TestSpawnCreatureAndWander(t *testing.T) {
	s := newTestState(t, 2)
	center := voxel.Coord{X: s.Config.WorldSize.X / 2, Y: 0, Z: s.Config.WorldSize.Z / 2}
	s.Step(nil, s.Tick+1)
	s.applyCommand(Command{Tick: s.Tick, Action: Action{Kind: ActionSpawnCreature, Species: "Elf", Position: &center}})
	if len(s.Creatures) != 1 {
		t.Fatalf("expected one creature, got %d", len(s.Creatures))
	}
	s.Step(nil, s.Tick+500)
}

func TestDesignateBuildCompletesIntoStructure(t *testing.T) {
	s := newTestState(t, 3)
	center := voxel.Coord{X: s.Config.WorldSize.X / 2, Y: 0, Z: s.Config.WorldSize.Z / 2}
	spawnAt := voxel.Coord{X: center.X + 5, Y: 0, Z: center.Z}
	s.applyCommand(Command{Tick: s.Tick, Action: Action{Kind: ActionSpawnCreature, Species: "Elf", Position: &spawnAt}})

	buildVoxel := voxel.Coord{X: center.X + 5, Y: 1, Z: center.Z}
	ev, ok := s.applyCommand(Command{Tick: s.Tick, Action: Action{
		Kind: ActionDesignateBuild, BuildType: "GrownPlatform", Voxels: []voxel.Coord{buildVoxel},
	}})
	if !ok {
		t.Fatalf("designate build rejected: %s", s.LastBuildMessage)
	}
	if ev.Kind != EvBlueprintDesignated {
		t.Fatalf("expected BlueprintDesignated event, got %v", ev.Kind)
	}
	if len(s.Blueprints) != 1 {
		t.Fatalf("expected one blueprint, got %d", len(s.Blueprints))
	}

	s.Step(nil, s.Tick+2000)

	var bp *Blueprint
	for _, b := range s.Blueprints {
		bp = b
	}
	if bp.State != BlueprintComplete {
		t.Fatalf("expected blueprint to complete within 2000 ticks, got state %v", bp.State)
	}
	if len(s.Structures) != 1 {
		t.Fatalf("expected one structure recorded, got %d", len(s.Structures))
	}
	if s.World.Get(buildVoxel) != voxel.GrownPlatform {
		t.Fatalf("expected GrownPlatform voxel, got %v", s.World.Get(buildVoxel))
	}
}

func TestCancelBuildRevertsVoxels(t *testing.T) {
	s := newTestState(t, 4)
	center := voxel.Coord{X: s.Config.WorldSize.X / 2, Y: 0, Z: s.Config.WorldSize.Z / 2}
	target := voxel.Coord{X: center.X + 5, Y: 1, Z: center.Z}
	before := s.World.Get(target)

	ev, ok := s.applyCommand(Command{Tick: s.Tick, Action: Action{
		Kind: ActionDesignateBuild, BuildType: "GrownPlatform", Voxels: []voxel.Coord{target},
	}})
	if !ok {
		t.Fatalf("designate build rejected: %s", s.LastBuildMessage)
	}

	cancelEv, ok := s.applyCommand(Command{Tick: s.Tick, Action: Action{Kind: ActionCancelBuild, ProjectID: ev.ProjectID}})
	if !ok {
		t.Fatalf("cancel build rejected: %s", s.LastBuildMessage)
	}
	if cancelEv.Kind != EvBuildCancelled {
		t.Fatalf("expected BuildCancelled event, got %v", cancelEv.Kind)
	}
	if len(s.Blueprints) != 0 {
		t.Fatal("expected blueprint to be removed after cancel")
	}
	if s.World.Get(target) != before {
		t.Fatalf("expected voxel reverted to %v, got %v", before, s.World.Get(target))
	}
}

func TestDesignateBuildRejectsDisconnected(t *testing.T) {
	s := newTestState(t, 5)
	floating := voxel.Coord{X: 1, Y: 30, Z: 1}
	_, ok := s.applyCommand(Command{Tick: s.Tick, Action: Action{
		Kind: ActionDesignateBuild, BuildType: "GrownPlatform", Voxels: []voxel.Coord{floating},
	}})
	if ok {
		t.Fatal("expected disconnected build to be rejected")
	}
	if len(s.Blueprints) != 0 {
		t.Fatal("expected no blueprint to be created")
	}
}

func TestStepIsDeterministicAcrossReplicas(t *testing.T) {
	a := newTestState(t, 42)
	b := newTestState(t, 42)
	center := voxel.Coord{X: a.Config.WorldSize.X / 2, Y: 0, Z: a.Config.WorldSize.Z / 2}
	spawnAt := voxel.Coord{X: center.X + 4, Y: 0, Z: center.Z}
	cmds := []Command{{Tick: 1, Action: Action{Kind: ActionSpawnCreature, Species: "Elf", Position: &spawnAt}}}

	a.Step(cmds, 300)
	b.Step(cmds, 300)

	if len(a.Creatures) != len(b.Creatures) {
		t.Fatalf("creature count diverged: %d vs %d", len(a.Creatures), len(b.Creatures))
	}
	for id, ca := range a.Creatures {
		cb, ok := b.Creatures[id]
		if !ok || ca.Position != cb.Position || ca.Food != cb.Food {
			t.Fatalf("creature %d diverged between replicas", id)
		}
	}
}

func TestSetSimSpeedValidatesInput(t *testing.T) {
	s := newTestState(t, 6)
	if _, ok := s.applyCommand(Command{Action: Action{Kind: ActionSetSimSpeed, Speed: "Ludicrous"}}); ok {
		t.Fatal("expected invalid speed to be rejected")
	}
	ev, ok := s.applyCommand(Command{Action: Action{Kind: ActionSetSimSpeed, Speed: "Fast"}})
	if !ok || ev.Kind != EvSpeedChanged || s.Speed != "Fast" {
		t.Fatalf("expected speed change to apply, got ok=%v speed=%v", ok, s.Speed)
	}
}
