package sim

import (
	"sort"

	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

var allFootprints = []navgraph.Footprint{navgraph.Standard, navgraph.Large}

func (s *SimState) updateGraphAfter(fp navgraph.Footprint, c voxel.Coord) []navgraph.NodeID {
	return navgraph.UpdateAfterVoxelChange(s.NavGraphs[fp], s.World, c, fp)
}

func toCoord(p navgraph.Position) voxel.Coord {
	return voxel.Coord{X: p.X, Y: p.Y, Z: p.Z}
}

func toPosition(c voxel.Coord) navgraph.Position {
	return navgraph.Position{X: c.X, Y: c.Y, Z: c.Z}
}

// nearestAliveNode scans every slot (a tombstoned graph may have no
// locality structure to exploit) and returns the live node closest to pos,
// breaking ties by the lowest NodeID for determinism.
func nearestAliveNode(g *navgraph.Graph, pos voxel.Coord) (navgraph.NodeID, bool) {
	best := navgraph.NodeID(-1)
	bestDist := -1.0
	for i := 0; i < g.NodeCount(); i++ {
		id := navgraph.NodeID(i)
		p, ok := g.Node(id)
		if !ok {
			continue
		}
		c := toCoord(p)
		dx, dy, dz := float64(c.X-pos.X), float64(c.Y-pos.Y), float64(c.Z-pos.Z)
		d := dx*dx + dy*dy + dz*dz
		if best == -1 || d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func (s *SimState) sortedCreatureIDs() []CreatureID {
	ids := make([]CreatureID, 0, len(s.Creatures))
	for id := range s.Creatures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *SimState) sortedTaskIDs() []TaskID {
	ids := make([]TaskID, 0, len(s.Tasks))
	for id := range s.Tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// resnapCreature re-anchors a creature whose CurrentNode has been
// tombstoned to the nearest surviving node in its species' graph, clearing
// any in-flight path so activation recomputes one (spec §4.4 "resnap").
func (s *SimState) resnapCreature(c *Creature) {
	g, _, ok := s.graphFor(c.Species)
	if !ok {
		return
	}
	id, found := nearestAliveNode(g, c.Position)
	if !found {
		return
	}
	c.CurrentNode = id
	if p, ok := g.Node(id); ok {
		c.Position = toCoord(p)
	}
	c.Path = nil
	c.PathIndex = 0
}

// resnapCreaturesOnGraph resnaps every creature routed through fp whose
// CurrentNode is one of the ids a voxel change just killed.
func (s *SimState) resnapCreaturesOnGraph(fp navgraph.Footprint, killed []navgraph.NodeID) {
	dead := make(map[navgraph.NodeID]bool, len(killed))
	for _, id := range killed {
		dead[id] = true
	}
	for _, cid := range s.sortedCreatureIDs() {
		c := s.Creatures[cid]
		sp, ok := s.Config.Species[c.Species]
		if !ok || sp.Footprint != fp {
			continue
		}
		if dead[c.CurrentNode] {
			s.resnapCreature(c)
		}
	}
}
