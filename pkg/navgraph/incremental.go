package navgraph

import (
	"sort"

	"github.com/elvencanopy/canopy/pkg/voxel"
)

// touchedPositions returns the positions a single voxel change at coord can
// affect standability for under footprint fp (spec §4.4): the coord itself
// and its 6 face neighbors, plus, for the Large footprint, every origin whose
// 2x2x2 clearance or 2x2 floor contains coord (origins up to one voxel lower
// on X and Z, and one voxel lower or higher on Y).
func touchedPositions(coord voxel.Coord, fp Footprint) []voxel.Coord {
	seen := map[voxel.Coord]bool{coord: true}
	out := []voxel.Coord{coord}
	add := func(c voxel.Coord) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, off := range voxel.FaceOffsets {
		add(coord.Add(off))
	}
	if fp == Large {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 0; dx++ {
				for dz := -1; dz <= 0; dz++ {
					add(coord.Add(voxel.Coord{X: dx, Y: dy, Z: dz}))
				}
			}
		}
	}
	return out
}

func sortCoords(cs []voxel.Coord) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
}

// removeEdgeBetween kills the live edge (if any) from `from` to `to`,
// leaving the reverse direction untouched.
func removeEdgeBetween(g *Graph, from, to NodeID) {
	if !g.IsNodeAlive(from) {
		return
	}
	for _, eid := range g.nodes[from].outgoing {
		e := &g.edges[eid]
		if e.alive && e.To == to {
			e.alive = false
		}
	}
}

// UpdateAfterVoxelChange re-derives node and edge state around a single
// voxel mutation at coord, examining only the positions that mutation can
// possibly affect. It returns the ids of nodes that were killed so callers
// can resnap dependent creatures (spec §4.4, §4.8).
func UpdateAfterVoxelChange(g *Graph, w *voxel.World, coord voxel.Coord, fp Footprint) []NodeID {
	touched := touchedPositions(coord, fp)

	var removed []NodeID
	for _, p := range touched {
		standableNow := isStandableFor(w, p, fp)
		id, alive := g.NodeAt(toPosition(p))
		switch {
		case alive && !standableNow:
			g.RemoveNode(id)
			removed = append(removed, id)
		case !alive && standableNow:
			g.AddNode(toPosition(p))
		}
	}

	rewireSet := make(map[voxel.Coord]bool)
	for _, p := range touched {
		rewireSet[p] = true
		for _, n := range candidateNeighbors(p) {
			rewireSet[n] = true
		}
	}
	rewirePositions := make([]voxel.Coord, 0, len(rewireSet))
	for p := range rewireSet {
		rewirePositions = append(rewirePositions, p)
	}
	sortCoords(rewirePositions)

	for _, p := range rewirePositions {
		from, ok := g.NodeAt(toPosition(p))
		if !ok {
			continue
		}
		for _, off := range horizontalOffsets {
			if off.X < 0 || off.Z < 0 {
				continue
			}
			n := p.Add(off)
			to, ok := g.NodeAt(toPosition(n))
			removeEdgeBetween(g, from, nodeOrInvalid(g, n))
			removeEdgeBetween(g, nodeOrInvalid(g, n), from)
			if !ok {
				continue
			}
			if et, ok := classifyHorizontal(w, p, n); ok {
				g.AddBidirectionalEdge(from, to, et)
			}
		}
		up := p.Add(voxel.Coord{X: 0, Y: 1, Z: 0})
		to, ok := g.NodeAt(toPosition(up))
		removeEdgeBetween(g, from, nodeOrInvalid(g, up))
		removeEdgeBetween(g, nodeOrInvalid(g, up), from)
		if !ok {
			continue
		}
		if et, ok := classifyVertical(w, p, up); ok {
			g.AddBidirectionalEdge(from, to, et)
		}
	}

	return removed
}

func nodeOrInvalid(g *Graph, p voxel.Coord) NodeID {
	id, ok := g.NodeAt(toPosition(p))
	if !ok {
		return NodeID(-1)
	}
	return id
}
