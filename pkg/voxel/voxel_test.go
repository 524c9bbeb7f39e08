package voxel

import "testing"

func TestGetOutOfBoundsIsAir(t *testing.T) {
	w := NewWorld(4, 4, 4)
	if got := w.Get(Coord{-1, 0, 0}); got != Air {
		t.Fatalf("expected Air, got %v", got)
	}
	if got := w.Get(Coord{10, 0, 0}); got != Air {
		t.Fatalf("expected Air, got %v", got)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	w := NewWorld(4, 4, 4)
	w.Set(Coord{1, 2, 3}, Trunk)
	if got := w.Get(Coord{1, 2, 3}); got != Trunk {
		t.Fatalf("expected Trunk, got %v", got)
	}
}

func TestSetOutOfBoundsIgnored(t *testing.T) {
	w := NewWorld(2, 2, 2)
	w.Set(Coord{-1, 0, 0}, Trunk)
	// should not panic, and in-bounds cells remain Air
	if got := w.Get(Coord{0, 0, 0}); got != Air {
		t.Fatalf("expected Air, got %v", got)
	}
}

func TestHasSolidFaceNeighbor(t *testing.T) {
	w := NewWorld(3, 3, 3)
	center := Coord{1, 1, 1}
	if w.HasSolidFaceNeighbor(center) {
		t.Fatal("expected no solid neighbor initially")
	}
	w.Set(Coord{2, 1, 1}, Dirt)
	if !w.HasSolidFaceNeighbor(center) {
		t.Fatal("expected solid neighbor after setting Dirt")
	}
}

func TestHasFaceNeighborOfType(t *testing.T) {
	w := NewWorld(3, 3, 3)
	center := Coord{1, 1, 1}
	w.Set(Coord{1, 0, 1}, ForestFloor)
	if !w.HasFaceNeighborOfType(center, ForestFloor) {
		t.Fatal("expected ForestFloor neighbor")
	}
	if w.HasFaceNeighborOfType(center, Trunk) {
		t.Fatal("did not expect Trunk neighbor")
	}
}

func TestIsSolid(t *testing.T) {
	solid := []Type{ForestFloor, Dirt, Trunk, Branch, Root, GrownPlatform, Wall, BuildingInterior, WoodLadder, RopeLadder}
	for _, s := range solid {
		if !s.IsSolid() {
			t.Errorf("%v expected solid", s)
		}
	}
	nonSolid := []Type{Air, Leaf, Fruit}
	for _, s := range nonSolid {
		if s.IsSolid() {
			t.Errorf("%v expected non-solid", s)
		}
	}
}

func TestClassifyOverlap(t *testing.T) {
	if got := ClassifyOverlap(Air, GrownPlatform); got != Exterior {
		t.Fatalf("expected Exterior, got %v", got)
	}
	if got := ClassifyOverlap(Leaf, GrownPlatform); got != Convertible {
		t.Fatalf("expected Convertible, got %v", got)
	}
	if got := ClassifyOverlap(GrownPlatform, GrownPlatform); got != AlreadyWood {
		t.Fatalf("expected AlreadyWood, got %v", got)
	}
	if got := ClassifyOverlap(Trunk, GrownPlatform); got != Blocked {
		t.Fatalf("expected Blocked, got %v", got)
	}
}

func TestForEachOrderIsYZX(t *testing.T) {
	w := NewWorld(2, 2, 2)
	var order []Coord
	w.ForEach(func(c Coord, t Type) { order = append(order, c) })
	want := []Coord{
		{0, 0, 0}, {1, 0, 0},
		{0, 0, 1}, {1, 0, 1},
		{0, 1, 0}, {1, 1, 0},
		{0, 1, 1}, {1, 1, 1},
	}
	if len(order) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %v, want %v", i, order[i], want[i])
		}
	}
}

func TestRaycastHitsSolid(t *testing.T) {
	w := NewWorld(10, 10, 10)
	w.Set(Coord{5, 0, 0}, Trunk)
	hit, ok := RaycastHitsSolid(w, Vec3{0.5, 0.5, 0.5}, Vec3{1, 0, 0}, 20)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit != (Coord{5, 0, 0}) {
		t.Fatalf("expected hit at (5,0,0), got %v", hit)
	}
}

func TestRaycastMisses(t *testing.T) {
	w := NewWorld(10, 10, 10)
	_, ok := RaycastHitsSolid(w, Vec3{0.5, 0.5, 0.5}, Vec3{1, 0, 0}, 3)
	if ok {
		t.Fatal("expected no hit within short range")
	}
}
