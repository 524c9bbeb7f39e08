package navgraph

import "github.com/elvencanopy/canopy/pkg/voxel"

// Footprint selects which of the two graph variants (spec §3) a species
// routes through.
type Footprint int

const (
	Standard Footprint = iota // 1x1x1 creatures
	Large                     // 2x2x2 creatures
)

func toPosition(c voxel.Coord) Position { return Position{c.X, c.Y, c.Z} }
func toCoord(p Position) voxel.Coord    { return voxel.Coord{X: p.X, Y: p.Y, Z: p.Z} }

var verticalOffsets = [2]voxel.Coord{{X: 0, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0}}
var horizontalOffsets = [4]voxel.Coord{{X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1}}

// standable reports whether a 1x1x1 creature can stand at c: open air over a
// solid floor, a ladder cell, or a building interior.
func standable(w *voxel.World, c voxel.Coord) bool {
	t := w.Get(c)
	switch {
	case t.IsLadder():
		return true
	case t == voxel.BuildingInterior:
		return true
	case t == voxel.Air:
		below := w.Get(voxel.Coord{X: c.X, Y: c.Y - 1, Z: c.Z})
		return below.IsSolid()
	default:
		return false
	}
}

// standableLarge reports whether a 2x2x2 creature can stand at c: the 2x2
// footprint at c and c+1 on every horizontal axis must be clear, and the
// floor beneath the whole footprint must be solid.
func standableLarge(w *voxel.World, c voxel.Coord) bool {
	for dx := 0; dx <= 1; dx++ {
		for dz := 0; dz <= 1; dz++ {
			for dy := 0; dy <= 1; dy++ {
				cell := voxel.Coord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
				if w.Get(cell).IsSolid() {
					return false
				}
				floor := voxel.Coord{X: c.X + dx, Y: c.Y - 1, Z: c.Z + dz}
				if !w.Get(floor).IsSolid() {
					return false
				}
			}
		}
	}
	return true
}

// classifyHorizontal determines the edge type for a same-height move between
// two standable coords. Every such pair is traversable, so ok is always
// true; ForestFloorEdge is the fallback type.
func classifyHorizontal(w *voxel.World, a, b voxel.Coord) (EdgeType, bool) {
	belowA := w.Get(voxel.Coord{X: a.X, Y: a.Y - 1, Z: a.Z})
	belowB := w.Get(voxel.Coord{X: b.X, Y: b.Y - 1, Z: b.Z})
	switch {
	case belowA == voxel.ForestFloor && belowB == voxel.ForestFloor:
		return ForestFloorEdge, true
	case belowA == voxel.Branch || belowB == voxel.Branch:
		return BranchWalk, true
	case w.HasFaceNeighborOfType(a, voxel.Trunk) && w.HasFaceNeighborOfType(b, voxel.Trunk):
		return TrunkCircumference, true
	default:
		return ForestFloorEdge, true
	}
}

// classifyVertical determines the edge type for a one-voxel vertical move,
// or ok=false if nothing supports climbing between a and b.
func classifyVertical(w *voxel.World, a, b voxel.Coord) (EdgeType, bool) {
	ta, tb := w.Get(a), w.Get(b)
	switch {
	case ta == voxel.WoodLadder || tb == voxel.WoodLadder:
		return WoodLadderClimb, true
	case ta == voxel.RopeLadder || tb == voxel.RopeLadder:
		return RopeLadderClimb, true
	case w.HasFaceNeighborOfType(a, voxel.Trunk) || w.HasFaceNeighborOfType(b, voxel.Trunk):
		belowA := w.Get(voxel.Coord{X: a.X, Y: a.Y - 1, Z: a.Z})
		belowB := w.Get(voxel.Coord{X: b.X, Y: b.Y - 1, Z: b.Z})
		if belowA == voxel.ForestFloor || belowB == voxel.ForestFloor {
			return GroundToTrunk, true
		}
		return TrunkClimb, true
	default:
		return EdgeType(0), false
	}
}

func candidateNeighbors(c voxel.Coord) []voxel.Coord {
	out := make([]voxel.Coord, 0, 6)
	for _, off := range horizontalOffsets {
		out = append(out, c.Add(off))
	}
	for _, off := range verticalOffsets {
		out = append(out, c.Add(off))
	}
	return out
}

func isStandableFor(w *voxel.World, c voxel.Coord, fp Footprint) bool {
	if fp == Large {
		return standableLarge(w, c)
	}
	return standable(w, c)
}

// Build constructs a graph from scratch by scanning every in-bounds
// position in the world and wiring edges between standable neighbors.
func Build(w *voxel.World, fp Footprint) *Graph {
	g := New()
	w.ForEach(func(c voxel.Coord, _ voxel.Type) {
		if isStandableFor(w, c, fp) {
			g.AddNode(toPosition(c))
		}
	})
	wireEdges(g, w, fp)
	return g
}

// wireEdges adds edges between every pair of live nodes that are candidate
// neighbors of one another, deduplicating by only emitting the canonical
// pair once per undirected connection via a bidirectional edge.
func wireEdges(g *Graph, w *voxel.World, fp Footprint) {
	w.ForEach(func(c voxel.Coord, _ voxel.Type) {
		from, ok := g.NodeAt(toPosition(c))
		if !ok {
			return
		}
		for _, off := range horizontalOffsets {
			// Only wire in the positive-half directions to avoid adding the
			// same undirected pair twice (mirrors the teacher's positive-
			// offset convention for avoiding duplicate structural springs).
			if off.X < 0 || off.Z < 0 {
				continue
			}
			n := c.Add(off)
			to, ok := g.NodeAt(toPosition(n))
			if !ok {
				continue
			}
			if et, ok := classifyHorizontal(w, c, n); ok {
				g.AddBidirectionalEdge(from, to, et)
			}
		}
		up := c.Add(voxel.Coord{X: 0, Y: 1, Z: 0})
		to, ok := g.NodeAt(toPosition(up))
		if !ok {
			return
		}
		if et, ok := classifyVertical(w, c, up); ok {
			g.AddBidirectionalEdge(from, to, et)
		}
	})
}
