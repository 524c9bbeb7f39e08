package pathfind

import (
	"testing"

	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

func lineGraph(n int) *navgraph.Graph {
	w := voxel.NewWorld(n+1, 2, 1)
	for x := 0; x <= n; x++ {
		w.Set(voxel.Coord{X: x, Y: 0, Z: 0}, voxel.ForestFloor)
	}
	return navgraph.Build(w, navgraph.Standard)
}

func walkCosts() SpeciesCosts {
	return SpeciesCosts{TicksPerVoxel: map[navgraph.EdgeType]float64{
		navgraph.ForestFloorEdge: 1,
	}}
}

func TestAstarFindsPathAlongLine(t *testing.T) {
	g := lineGraph(4)
	start, _ := g.NodeAt(navgraph.Position{0, 1, 0})
	goal, _ := g.NodeAt(navgraph.Position{4, 1, 0})
	path, ok := Astar(g, start, goal, walkCosts())
	if !ok {
		t.Fatal("expected a path")
	}
	if len(path.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(path.Nodes))
	}
	if path.Nodes[0] != start || path.Nodes[len(path.Nodes)-1] != goal {
		t.Fatal("path endpoints incorrect")
	}
}

func TestAstarUnreachableReturnsFalse(t *testing.T) {
	g := lineGraph(4)
	start, _ := g.NodeAt(navgraph.Position{0, 1, 0})
	goal, _ := g.NodeAt(navgraph.Position{4, 1, 0})
	// species with no traversable edge types at all
	_, ok := Astar(g, start, goal, SpeciesCosts{TicksPerVoxel: map[navgraph.EdgeType]float64{}})
	if ok {
		t.Fatal("expected no path for a species with no usable edge types")
	}
}

func TestAstarToleratesDeadSlot(t *testing.T) {
	g := lineGraph(4)
	start, _ := g.NodeAt(navgraph.Position{0, 1, 0})
	goal, _ := g.NodeAt(navgraph.Position{4, 1, 0})
	mid, _ := g.NodeAt(navgraph.Position{2, 1, 0})
	g.RemoveNode(mid)
	_, ok := Astar(g, start, goal, walkCosts())
	if ok {
		t.Fatal("expected path to be blocked by dead middle node")
	}
}

func TestAstarFilteredRejectsDisallowedType(t *testing.T) {
	g := lineGraph(2)
	start, _ := g.NodeAt(navgraph.Position{0, 1, 0})
	goal, _ := g.NodeAt(navgraph.Position{2, 1, 0})
	allowed := map[navgraph.EdgeType]bool{navgraph.TrunkClimb: true}
	_, ok := AstarFiltered(g, start, goal, walkCosts(), allowed)
	if ok {
		t.Fatal("expected ForestFloorEdge to be filtered out")
	}
}

func TestDijkstraNearestPicksClosestTarget(t *testing.T) {
	g := lineGraph(6)
	start, _ := g.NodeAt(navgraph.Position{0, 1, 0})
	near, _ := g.NodeAt(navgraph.Position{2, 1, 0})
	far, _ := g.NodeAt(navgraph.Position{6, 1, 0})
	got, ok := DijkstraNearest(g, start, []navgraph.NodeID{far, near}, walkCosts(), nil)
	if !ok {
		t.Fatal("expected a reachable target")
	}
	if got != near {
		t.Fatalf("expected nearest target %v, got %v", near, got)
	}
}

func TestDijkstraNearestNoTargetsReachable(t *testing.T) {
	g := lineGraph(2)
	start, _ := g.NodeAt(navgraph.Position{0, 1, 0})
	_, ok := DijkstraNearest(g, start, nil, walkCosts(), nil)
	if ok {
		t.Fatal("expected false for empty target list")
	}
}
