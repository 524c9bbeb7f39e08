package structural

import "sort"

// weightFlowStress performs the BFS load-distribution analysis (spec §4.6):
// a breadth-first search from every pinned node establishes a
// distance-to-ground field, then nodes are processed from furthest to
// nearest, distributing each node's accumulated load across its upstream
// springs (those toward strictly-lower-distance neighbors) proportional to
// spring stiffness.
func (net *Network) weightFlowStress(cfg Config) []float64 {
	n := len(net.Nodes)
	stress := make([]float64, len(net.Springs))
	if n == 0 {
		return stress
	}

	dist := make([]int, n)
	const unreached = -1
	for i := range dist {
		dist[i] = unreached
	}

	adj := net.nodeSprings()

	queue := make([]int, 0, n)
	for i, node := range net.Nodes {
		if node.Pinned {
			dist[i] = 0
			queue = append(queue, i)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		cur := queue[qi]
		for _, si := range adj[cur] {
			s := net.Springs[si]
			other := s.A
			if other == cur {
				other = s.B
			}
			if dist[other] == unreached {
				dist[other] = dist[cur] + 1
				queue = append(queue, other)
			}
		}
	}

	order := make([]int, 0, n)
	for i := range net.Nodes {
		if dist[i] != unreached {
			order = append(order, i)
		}
	}
	// Process furthest-from-ground first (stable sort preserves the
	// original y/z/x build order for ties, keeping the analysis
	// deterministic).
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] > dist[order[b]] })

	accumulated := make([]float64, n)
	for i, node := range net.Nodes {
		accumulated[i] = node.Mass
	}

	for _, i := range order {
		var upstream []int
		totalK := 0.0
		for _, si := range adj[i] {
			s := net.Springs[si]
			other := s.A
			if other == i {
				other = s.B
			}
			if dist[other] != unreached && dist[other] < dist[i] {
				upstream = append(upstream, si)
				totalK += s.Stiffness
			}
		}
		if len(upstream) == 0 || totalK == 0 {
			continue
		}
		for _, si := range upstream {
			s := net.Springs[si]
			other := s.A
			if other == i {
				other = s.B
			}
			fraction := s.Stiffness / totalK
			load := accumulated[i] * fraction
			flow := load * cfg.Gravity
			if s.Strength > 0 {
				stress[si] = flow / s.Strength
			}
			accumulated[other] += load
		}
	}
	return stress
}
