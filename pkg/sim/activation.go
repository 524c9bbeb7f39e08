// Activation implements spec §4.7's event-driven creature movement: a
// creature never ticks on a heartbeat while walking. Instead each
// CreatureActivation event performs exactly one action (advance one edge,
// progress one tick of task work, or take a single wander step) and
// schedules whatever event should wake the creature next, mirroring the
// teacher pipeline's preference for data flowing through explicit,
// single-purpose steps rather than an implicit per-frame loop.
package sim

import (
	"math"
	"sort"

	"github.com/elvencanopy/canopy/pkg/config"
	"github.com/elvencanopy/canopy/pkg/eventqueue"
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/pathfind"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

func (s *SimState) handleEvent(ev eventqueue.Event) []SimEvent {
	switch ev.Kind {
	case eventqueue.CreatureHeartbeat:
		s.creatureHeartbeat(CreatureID(ev.EntityID))
		return nil
	case eventqueue.CreatureActivation:
		return s.activateCreature(CreatureID(ev.EntityID))
	case eventqueue.CreatureMovementComplete:
		return s.completeMovement(CreatureID(ev.EntityID), navgraph.NodeID(ev.ArrivedAt))
	case eventqueue.TreeHeartbeat:
		return s.treeHeartbeat(TreeID(ev.EntityID))
	}
	return nil
}

func (s *SimState) scheduleActivation(id CreatureID, delay uint64) {
	s.Events.Push(eventqueue.Event{Tick: s.Tick + delay, Kind: eventqueue.CreatureActivation, EntityID: uint64(id)})
}

func (s *SimState) creatureHeartbeat(id CreatureID) {
	c, ok := s.Creatures[id]
	if !ok {
		return
	}
	sp, ok := s.Config.Species[c.Species]
	if !ok {
		return
	}
	c.Food -= sp.FoodDecayPerTick * float64(sp.HeartbeatIntervalTicks)
	if c.Food < 0 {
		c.Food = 0
	}
	if c.Food <= sp.FoodHungerThreshold && !c.hasTask() {
		s.seekFruit(c, sp)
	}
	s.Events.Push(eventqueue.Event{Tick: s.Tick + sp.HeartbeatIntervalTicks, Kind: eventqueue.CreatureHeartbeat, EntityID: uint64(id)})
}

// seekFruit finds the nearest hanging fruit reachable by c's species and
// assigns (creating if needed) an EatFruit task for it, per spec §4.9's
// hunger-driven behavior.
func (s *SimState) seekFruit(c *Creature, sp config.SpeciesData) {
	g, _, ok := s.graphFor(c.Species)
	if !ok {
		return
	}
	costs := s.speciesCosts(sp)
	allowed := s.allowedEdges(sp)

	var targets []navgraph.NodeID
	fruitAt := map[navgraph.NodeID]TreeFruit{}
	for _, tid := range s.sortedTreeIDs() {
		tree := s.Trees[tid]
		for _, pos := range tree.FruitPositions {
			node, ok := nearestAliveNode(g, pos)
			if !ok {
				continue
			}
			targets = append(targets, node)
			fruitAt[node] = TreeFruit{TreeID: tid, Pos: pos}
		}
	}
	if len(targets) == 0 {
		return
	}
	nearest, found := pathfind.DijkstraNearest(g, c.CurrentNode, targets, costs, allowed)
	if !found {
		return
	}
	fruit := fruitAt[nearest]
	task := &Task{
		ID:        TaskID(s.Stream.NextUint64()),
		Kind:      TaskKind{Tag: TaskEatFruit, FruitPos: fruit.Pos},
		State:     InProgress,
		Location:  nearest,
		Footprint: sp.Footprint,
		TotalCost: 1,
	}
	s.Tasks[task.ID] = task
	task.Assignees = append(task.Assignees, c.ID)
	id := task.ID
	c.CurrentTask = &id
}

// TreeFruit pairs a fruit's hanging position with the tree it belongs to.
type TreeFruit struct {
	TreeID TreeID
	Pos    voxel.Coord
}

func (s *SimState) activateCreature(id CreatureID) []SimEvent {
	c, ok := s.Creatures[id]
	if !ok {
		return nil
	}
	g, sp, ok := s.graphFor(c.Species)
	if !ok {
		return nil
	}
	if !g.IsNodeAlive(c.CurrentNode) {
		s.resnapCreature(c)
	}

	// Continue an in-flight path one edge at a time.
	if c.Path != nil && c.PathIndex < len(c.Path.Edges) {
		edgeID := c.Path.Edges[c.PathIndex]
		edge, ok := g.Edge(edgeID)
		if !ok {
			c.Path = nil
			s.scheduleActivation(id, 1)
			return nil
		}
		costs := s.speciesCosts(sp)
		perVoxel, _ := costs.CostFor(edge.Type)
		arrive := s.Tick + uint64(math.Ceil(edge.Distance*perVoxel))
		target := c.Path.Nodes[c.PathIndex+1]
		c.PathIndex++
		from := c.Position
		to := toCoord(mustNode(g, target))
		c.MoveFrom, c.MoveTo = &from, &to
		c.MoveStartTick, c.MoveEndTick = s.Tick, arrive
		s.Events.Push(eventqueue.Event{Tick: arrive, Kind: eventqueue.CreatureMovementComplete, EntityID: uint64(id), ArrivedAt: uint64(target)})
		return nil
	}

	if c.hasTask() {
		t := s.Tasks[*c.CurrentTask]
		if t == nil {
			c.CurrentTask = nil
			s.scheduleActivation(id, 1)
			return nil
		}
		if c.CurrentNode == t.Location {
			events := s.progressTask(c, t)
			s.scheduleActivation(id, 1)
			return events
		}
		costs := s.speciesCosts(sp)
		allowed := s.allowedEdges(sp)
		path, found := pathfind.AstarFiltered(g, c.CurrentNode, t.Location, costs, allowed)
		if !found {
			s.unassignTask(c, t)
			s.scheduleActivation(id, 1)
			return nil
		}
		c.Path = &path
		c.PathIndex = 0
		s.scheduleActivation(id, 1)
		return nil
	}

	if task, ok := s.claimTask(c); ok {
		tid := task.ID
		c.CurrentTask = &tid
		s.scheduleActivation(id, 1)
		return nil
	}

	if !s.wander(c, g, sp) {
		s.scheduleActivation(id, sp.HeartbeatIntervalTicks)
	}
	return nil
}

func (s *SimState) completeMovement(id CreatureID, arrivedAt navgraph.NodeID) []SimEvent {
	c, ok := s.Creatures[id]
	if !ok {
		return nil
	}
	g, _, ok := s.graphFor(c.Species)
	if !ok {
		return nil
	}
	if p, ok := g.Node(arrivedAt); ok {
		c.Position = toCoord(p)
		c.CurrentNode = arrivedAt
	} else {
		s.resnapCreature(c)
	}
	c.MoveFrom, c.MoveTo = nil, nil
	s.scheduleActivation(id, 1)
	return []SimEvent{{Kind: EvCreatureArrived, Tick: s.Tick, CreatureID: id}}
}

// wander moves a taskless, well-fed creature one random allowed edge, or
// leaves it in place if none of its neighbors are traversable. It reports
// whether a move started; the move's CreatureMovementComplete event then
// schedules the creature's next activation.
func (s *SimState) wander(c *Creature, g *navgraph.Graph, sp config.SpeciesData) bool {
	allowed := s.allowedEdges(sp)
	var candidates []navgraph.EdgeID
	for _, eid := range g.Neighbors(c.CurrentNode) {
		e, ok := g.Edge(eid)
		if !ok || !g.IsNodeAlive(e.To) {
			continue
		}
		if allowed[e.Type] {
			candidates = append(candidates, eid)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	pick := candidates[s.Stream.Intn(len(candidates))]
	edge, _ := g.Edge(pick)
	costs := s.speciesCosts(sp)
	perVoxel, _ := costs.CostFor(edge.Type)
	arrive := s.Tick + uint64(math.Ceil(edge.Distance*perVoxel))
	from := c.Position
	to := toCoord(mustNode(g, edge.To))
	c.MoveFrom, c.MoveTo = &from, &to
	c.MoveStartTick, c.MoveEndTick = s.Tick, arrive
	s.Events.Push(eventqueue.Event{Tick: arrive, Kind: eventqueue.CreatureMovementComplete, EntityID: uint64(c.ID), ArrivedAt: uint64(edge.To)})
	return true
}

func mustNode(g *navgraph.Graph, id navgraph.NodeID) navgraph.Position {
	p, _ := g.Node(id)
	return p
}

func (s *SimState) sortedTreeIDs() []TreeID {
	ids := make([]TreeID, 0, len(s.Trees))
	for id := range s.Trees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
