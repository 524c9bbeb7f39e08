// Package pathfind implements A* and Dijkstra search over a navgraph.Graph
// (spec §4.5), with per-species edge costs and an edge-type allow-list
// filter. Both algorithms tolerate dead slots: a neighbor reached through a
// tombstoned node or edge is simply unreachable, never a crash.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/elvencanopy/canopy/pkg/navgraph"
)

// SpeciesCosts maps an edge type to the ticks-per-voxel a species pays to
// traverse it. An edge type with no entry is untraversable by that species.
type SpeciesCosts struct {
	TicksPerVoxel map[navgraph.EdgeType]float64
}

// CostFor returns the per-voxel tick cost of an edge type for this species,
// and ok=false if the species cannot traverse that edge type at all.
func (c SpeciesCosts) CostFor(t navgraph.EdgeType) (float64, bool) {
	v, ok := c.TicksPerVoxel[t]
	return v, ok
}

func (c SpeciesCosts) minCost() float64 {
	min := math.Inf(1)
	for _, v := range c.TicksPerVoxel {
		if v < min {
			min = v
		}
	}
	if math.IsInf(min, 1) {
		return 1
	}
	return min
}

// Path is a traversed sequence of nodes and the edges connecting them.
// len(Edges) == len(Nodes)-1.
type Path struct {
	Nodes []navgraph.NodeID
	Edges []navgraph.EdgeID
}

type queueItem struct {
	node     navgraph.NodeID
	priority float64
	index    int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i]; pq[i].index = i; pq[j].index = j }
func (pq *priorityQueue) Push(x interface{}) { item := x.(*queueItem); item.index = len(*pq); *pq = append(*pq, item) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

func edgeCost(g *navgraph.Graph, e navgraph.Edge, costs SpeciesCosts, allowed map[navgraph.EdgeType]bool) (float64, bool) {
	if allowed != nil && !allowed[e.Type] {
		return 0, false
	}
	perVoxel, ok := costs.CostFor(e.Type)
	if !ok {
		return 0, false
	}
	return math.Ceil(e.Distance*perVoxel) + 0, true
}

// Astar searches for the cheapest path between start and goal using every
// edge type the species can traverse.
func Astar(g *navgraph.Graph, start, goal navgraph.NodeID, costs SpeciesCosts) (Path, bool) {
	return search(g, start, goal, costs, nil)
}

// AstarFiltered behaves like Astar but additionally rejects any edge whose
// type is not present (true) in allowed.
func AstarFiltered(g *navgraph.Graph, start, goal navgraph.NodeID, costs SpeciesCosts, allowed map[navgraph.EdgeType]bool) (Path, bool) {
	return search(g, start, goal, costs, allowed)
}

func search(g *navgraph.Graph, start, goal navgraph.NodeID, costs SpeciesCosts, allowed map[navgraph.EdgeType]bool) (Path, bool) {
	if !g.IsNodeAlive(start) || !g.IsNodeAlive(goal) {
		return Path{}, false
	}
	goalPos, _ := g.Node(goal)
	minCost := costs.minCost()

	heuristic := func(n navgraph.NodeID) float64 {
		p, ok := g.Node(n)
		if !ok {
			return math.Inf(1)
		}
		dx := float64(p.X - goalPos.X)
		dy := float64(p.Y - goalPos.Y)
		dz := float64(p.Z - goalPos.Z)
		return math.Sqrt(dx*dx+dy*dy+dz*dz) * minCost
	}

	gScore := map[navgraph.NodeID]float64{start: 0}
	cameFromNode := map[navgraph.NodeID]navgraph.NodeID{}
	cameFromEdge := map[navgraph.NodeID]navgraph.EdgeID{}
	visited := map[navgraph.NodeID]bool{}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &queueItem{node: start, priority: heuristic(start)})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*queueItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if cur.node == goal {
			return reconstruct(start, goal, cameFromNode, cameFromEdge), true
		}
		if !g.IsNodeAlive(cur.node) {
			continue
		}
		for _, eid := range g.Neighbors(cur.node) {
			e, ok := g.Edge(eid)
			if !ok || !g.IsNodeAlive(e.To) {
				continue
			}
			cost, ok := edgeCost(g, e, costs, allowed)
			if !ok {
				continue
			}
			tentative := gScore[cur.node] + cost
			if existing, seen := gScore[e.To]; seen && tentative >= existing {
				continue
			}
			gScore[e.To] = tentative
			cameFromNode[e.To] = cur.node
			cameFromEdge[e.To] = eid
			heap.Push(pq, &queueItem{node: e.To, priority: tentative + heuristic(e.To)})
		}
	}
	return Path{}, false
}

func reconstruct(start, goal navgraph.NodeID, cameFromNode map[navgraph.NodeID]navgraph.NodeID, cameFromEdge map[navgraph.NodeID]navgraph.EdgeID) Path {
	if start == goal {
		return Path{Nodes: []navgraph.NodeID{start}}
	}
	var nodes []navgraph.NodeID
	var edges []navgraph.EdgeID
	cur := goal
	for cur != start {
		nodes = append(nodes, cur)
		edges = append(edges, cameFromEdge[cur])
		cur = cameFromNode[cur]
	}
	nodes = append(nodes, start)
	// reverse
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return Path{Nodes: nodes, Edges: edges}
}

// DijkstraNearest returns the nearest reachable node among targets from
// start, or ok=false if none are reachable. Used for hunger-driven fruit
// search (spec §4.9).
func DijkstraNearest(g *navgraph.Graph, start navgraph.NodeID, targets []navgraph.NodeID, costs SpeciesCosts, allowed map[navgraph.EdgeType]bool) (navgraph.NodeID, bool) {
	if !g.IsNodeAlive(start) {
		return 0, false
	}
	targetSet := make(map[navgraph.NodeID]bool, len(targets))
	for _, t := range targets {
		if g.IsNodeAlive(t) {
			targetSet[t] = true
		}
	}
	if len(targetSet) == 0 {
		return 0, false
	}

	dist := map[navgraph.NodeID]float64{start: 0}
	visited := map[navgraph.NodeID]bool{}
	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &queueItem{node: start, priority: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*queueItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true
		if targetSet[cur.node] {
			return cur.node, true
		}
		if !g.IsNodeAlive(cur.node) {
			continue
		}
		for _, eid := range g.Neighbors(cur.node) {
			e, ok := g.Edge(eid)
			if !ok || !g.IsNodeAlive(e.To) {
				continue
			}
			cost, ok := edgeCost(g, e, costs, allowed)
			if !ok {
				continue
			}
			tentative := dist[cur.node] + cost
			if existing, seen := dist[e.To]; seen && tentative >= existing {
				continue
			}
			dist[e.To] = tentative
			heap.Push(pq, &queueItem{node: e.To, priority: tentative})
		}
	}
	return 0, false
}
