package structural

import "math"

// SolveResult is the outcome of relaxing and stress-analyzing a Network.
type SolveResult struct {
	SpringStress   []float64
	MaxStressRatio float64
	AnyFailed      bool
}

func (net *Network) kEffective() []float64 {
	kEff := make([]float64, len(net.Nodes))
	for _, s := range net.Springs {
		kEff[s.A] += s.Stiffness
		kEff[s.B] += s.Stiffness
	}
	return kEff
}

func (net *Network) nodeSprings() [][]int {
	adj := make([][]int, len(net.Nodes))
	for i, s := range net.Springs {
		adj[s.A] = append(adj[s.A], i)
		adj[s.B] = append(adj[s.B], i)
	}
	return adj
}

// relax runs Gauss-Seidel iterative relaxation: for max_iterations passes,
// each non-pinned node in array order is displaced by gravity plus the
// restoring force of its springs, using neighbor positions already updated
// earlier in the same pass (spec §4.6).
func (net *Network) relax(cfg Config) {
	adj := net.nodeSprings()
	kEff := net.kEffective()
	positions := make([]Vec3, len(net.Nodes))
	for i, n := range net.Nodes {
		positions[i] = n.Position
	}

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		for i, n := range net.Nodes {
			if n.Pinned || kEff[i] == 0 {
				continue
			}
			force := Vec3{0, -cfg.Gravity * n.Mass, 0}
			for _, si := range adj[i] {
				s := net.Springs[si]
				var other int
				if s.A == i {
					other = s.B
				} else {
					other = s.A
				}
				delta := positions[other].sub(positions[i])
				dist := delta.length()
				if dist == 0 {
					continue
				}
				extension := dist - s.RestLength
				dir := delta.scale(1 / dist)
				force = force.add(dir.scale(s.Stiffness * extension))
			}
			displacement := force.scale(cfg.DampingFactor / kEff[i])
			positions[i] = positions[i].add(displacement)
		}
	}
	net.relaxedPositions = positions
}

// deformationStress falls back to zero stress if relax has not run, which
// is exactly the fast-path behavior (spec §4.6 "skip Gauss-Seidel").
func (net *Network) deformationStress() []float64 {
	stress := make([]float64, len(net.Springs))
	positions := net.relaxedPositions
	if positions == nil {
		return stress // fast path: no relaxation means zero deformation stress
	}
	for i, s := range net.Springs {
		dist := positions[s.B].sub(positions[s.A]).length()
		if s.Strength == 0 {
			continue
		}
		stress[i] = s.Stiffness * math.Abs(dist-s.RestLength) / s.Strength
	}
	return stress
}

// Solve runs the full solver: Gauss-Seidel relaxation followed by both the
// deformation-stress and weight-flow-stress phases, taking the max of the
// two per spring. This is the tree-generation-time path.
func (net *Network) Solve(cfg Config) SolveResult {
	net.relax(cfg)
	return net.finish(cfg)
}

// SolveFast runs only the BFS weight-flow phase, skipping relaxation. This
// is the interactive-placement path (spec §4.6 "Fast path").
func (net *Network) SolveFast(cfg Config) SolveResult {
	net.relaxedPositions = nil
	return net.finish(cfg)
}

func (net *Network) finish(cfg Config) SolveResult {
	deform := net.deformationStress()
	flow := net.weightFlowStress(cfg)
	result := SolveResult{SpringStress: make([]float64, len(net.Springs))}
	for i := range net.Springs {
		s := math.Max(deform[i], flow[i])
		result.SpringStress[i] = s
		if s > result.MaxStressRatio {
			result.MaxStressRatio = s
		}
		if s >= 1.0 {
			result.AnyFailed = true
		}
	}
	return result
}
