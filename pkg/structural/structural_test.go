package structural

import (
	"testing"

	"github.com/elvencanopy/canopy/pkg/voxel"
)

func groundedColumn(height int) *voxel.World {
	w := voxel.NewWorld(3, height+2, 3)
	w.Set(voxel.Coord{X: 1, Y: 0, Z: 1}, voxel.ForestFloor)
	for y := 1; y <= height; y++ {
		w.Set(voxel.Coord{X: 1, Y: y, Z: 1}, voxel.Trunk)
	}
	return w
}

func TestBuildPinsForestFloor(t *testing.T) {
	w := groundedColumn(2)
	cfg := DefaultConfig()
	net := Build(w, nil, cfg)
	idx := net.CoordToNode[voxel.Coord{X: 1, Y: 0, Z: 1}]
	if !net.Nodes[idx].Pinned {
		t.Fatal("expected ForestFloor node to be pinned")
	}
}

func TestValidateTreeColumnIsStable(t *testing.T) {
	w := groundedColumn(3)
	cfg := DefaultConfig()
	result, ok := ValidateTree(w, nil, cfg)
	if !ok {
		t.Fatalf("expected a short supported column to pass, got max stress %.3f", result.MaxStressRatio)
	}
}

func TestFloodFillConnectedRejectsIsolatedVoxel(t *testing.T) {
	w := voxel.NewWorld(20, 20, 20)
	proposed := map[voxel.Coord]voxel.Type{{X: 10, Y: 10, Z: 10}: voxel.GrownPlatform}
	ok := FloodFillConnected(w, proposed, []voxel.Coord{{X: 10, Y: 10, Z: 10}})
	if ok {
		t.Fatal("expected isolated voxel with no ForestFloor anywhere to be disconnected")
	}
}

func TestFloodFillConnectedAcceptsAttachedVoxel(t *testing.T) {
	w := groundedColumn(2)
	proposed := map[voxel.Coord]voxel.Type{{X: 1, Y: 3, Z: 1}: voxel.GrownPlatform}
	ok := FloodFillConnected(w, proposed, []voxel.Coord{{X: 1, Y: 3, Z: 1}})
	if !ok {
		t.Fatal("expected voxel attached to trunk column to be connected")
	}
}

func TestValidateBlueprintFastBlockedWhenDisconnected(t *testing.T) {
	w := voxel.NewWorld(20, 20, 20)
	cfg := DefaultConfig()
	proposed := map[voxel.Coord]voxel.Type{{X: 10, Y: 10, Z: 10}: voxel.GrownPlatform}
	report := ValidateBlueprintFast(w, nil, proposed, nil, cfg)
	if report.Tier != Blocked {
		t.Fatalf("expected Blocked, got %v", report.Tier)
	}
	if report.Message == "" {
		t.Fatal("expected a message explaining the block")
	}
}

func TestValidateBlueprintFastOkForSmallAttachedPlatform(t *testing.T) {
	w := groundedColumn(4)
	cfg := DefaultConfig()
	proposed := map[voxel.Coord]voxel.Type{{X: 2, Y: 4, Z: 1}: voxel.GrownPlatform}
	report := ValidateBlueprintFast(w, nil, proposed, nil, cfg)
	if report.Tier == Blocked {
		t.Fatalf("expected a single attached platform voxel not to be blocked, got message %q", report.Message)
	}
}

func TestValidateCarveFastDetectsDisconnection(t *testing.T) {
	w := voxel.NewWorld(5, 5, 5)
	w.Set(voxel.Coord{X: 2, Y: 0, Z: 2}, voxel.ForestFloor)
	w.Set(voxel.Coord{X: 2, Y: 1, Z: 2}, voxel.Trunk)
	w.Set(voxel.Coord{X: 2, Y: 2, Z: 2}, voxel.Trunk)
	w.Set(voxel.Coord{X: 2, Y: 3, Z: 2}, voxel.GrownPlatform)
	cfg := DefaultConfig()

	report := ValidateCarveFast(w, nil, []voxel.Coord{{X: 2, Y: 2, Z: 2}}, cfg)
	// carving the middle trunk voxel leaves the platform above floating;
	// the fast path should flag elevated or blocked stress on what remains.
	if report.Tier == Ok {
		t.Fatalf("expected carving the supporting voxel to raise stress, got Ok with stress map %v", report.StressMap)
	}
}

func TestClassifyThresholds(t *testing.T) {
	cfg := DefaultConfig()
	if got := classify(0.1, cfg); got != Ok {
		t.Fatalf("expected Ok, got %v", got)
	}
	if got := classify(cfg.WarnStressRatio, cfg); got != Warning {
		t.Fatalf("expected Warning, got %v", got)
	}
	if got := classify(cfg.BlockStressRatio, cfg); got != Blocked {
		t.Fatalf("expected Blocked, got %v", got)
	}
}
