package structural

import (
	"fmt"

	"github.com/elvencanopy/canopy/pkg/voxel"
)

// Tier is the blueprint classification outcome (spec §4.6).
type Tier uint8

const (
	Ok Tier = iota
	Warning
	Blocked
)

func (t Tier) String() string {
	switch t {
	case Ok:
		return "Ok"
	case Warning:
		return "Warning"
	case Blocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// BlueprintValidation is the report returned by the fast validation paths.
type BlueprintValidation struct {
	Tier      Tier
	StressMap map[voxel.Coord]float64
	Message   string
}

func classify(peak float64, cfg Config) Tier {
	switch {
	case peak >= cfg.BlockStressRatio:
		return Blocked
	case peak >= cfg.WarnStressRatio:
		return Warning
	default:
		return Ok
	}
}

// worldSnapshot reads every structural voxel from w plus any proposed
// overrides into a coord->type map, without mutating w.
func worldSnapshot(w *voxel.World, overrides map[voxel.Coord]voxel.Type) map[voxel.Coord]voxel.Type {
	out := make(map[voxel.Coord]voxel.Type)
	w.ForEach(func(c voxel.Coord, t voxel.Type) {
		if t != voxel.Air {
			out[c] = t
		}
	})
	for c, t := range overrides {
		if t == voxel.Air {
			delete(out, c)
		} else {
			out[c] = t
		}
	}
	return out
}

// FloodFillConnected performs a BFS from the first ForestFloor voxel found
// through face-adjacent structural voxels in the hypothetical world (w with
// overrides applied), verifying every coordinate in proposed is reached. It
// returns false immediately if no ForestFloor voxel exists anywhere.
func FloodFillConnected(w *voxel.World, overrides map[voxel.Coord]voxel.Type, proposed []voxel.Coord) bool {
	snapshot := worldSnapshot(w, overrides)

	var start voxel.Coord
	found := false
	for _, c := range sortedCoords(snapshot) {
		if snapshot[c] == voxel.ForestFloor {
			start = c
			found = true
			break
		}
	}
	if !found {
		return false
	}

	visited := map[voxel.Coord]bool{start: true}
	queue := []voxel.Coord{start}
	for qi := 0; qi < len(queue); qi++ {
		cur := queue[qi]
		for _, off := range voxel.FaceOffsets {
			n := cur.Add(off)
			t, ok := snapshot[n]
			if !ok || !isStructural(t) || visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}

	for _, c := range proposed {
		if !visited[c] {
			return false
		}
	}
	return true
}

// bfsStructuralSet expands outward from seeds through face-adjacent
// structural voxels in the hypothetical world, returning every coordinate
// reached (including the seeds).
func bfsStructuralSet(snapshot map[voxel.Coord]voxel.Type, seeds []voxel.Coord, propagateThroughForestFloor bool) map[voxel.Coord]voxel.Type {
	visited := make(map[voxel.Coord]bool)
	var queue []voxel.Coord
	for _, s := range seeds {
		if _, ok := snapshot[s]; ok && !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		cur := queue[qi]
		if !propagateThroughForestFloor && snapshot[cur] == voxel.ForestFloor {
			continue
		}
		for _, off := range voxel.FaceOffsets {
			n := cur.Add(off)
			t, ok := snapshot[n]
			if !ok || !isStructural(t) || visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	out := make(map[voxel.Coord]voxel.Type, len(visited))
	for c := range visited {
		out[c] = snapshot[c]
	}
	return out
}

// StressByCoord exposes stressMapFromSprings for callers outside the
// package (pkg/export's debug SVG heatmap) that need per-voxel peak stress
// rather than the tiered Ok/Warning/Blocked classification.
func StressByCoord(net *Network, result SolveResult) map[voxel.Coord]float64 {
	return stressMapFromSprings(net, result)
}

func stressMapFromSprings(net *Network, result SolveResult) map[voxel.Coord]float64 {
	coordOf := make(map[int]voxel.Coord, len(net.CoordToNode))
	for c, idx := range net.CoordToNode {
		coordOf[idx] = c
	}
	out := make(map[voxel.Coord]float64)
	for i, s := range net.Springs {
		stress := result.SpringStress[i]
		for _, idx := range []int{s.A, s.B} {
			c := coordOf[idx]
			if stress > out[c] {
				out[c] = stress
			}
		}
	}
	return out
}

func peakOf(stressMap map[voxel.Coord]float64, coords []voxel.Coord) float64 {
	peak := 0.0
	for _, c := range coords {
		if v := stressMap[c]; v > peak {
			peak = v
		}
	}
	return peak
}

// ValidateBlueprintFast implements spec §4.6's fast interactive-placement
// path for a proposed build: check connectivity first, then build the
// spring network only over the BFS-visited set and run the weight-flow
// phase alone.
func ValidateBlueprintFast(w *voxel.World, faceData FaceDataMap, proposed map[voxel.Coord]voxel.Type, proposedFaces FaceDataMap, cfg Config) BlueprintValidation {
	proposedCoords := make([]voxel.Coord, 0, len(proposed))
	for c := range proposed {
		proposedCoords = append(proposedCoords, c)
	}
	sortCoordsSlice(proposedCoords)

	if !FloodFillConnected(w, proposed, proposedCoords) {
		return BlueprintValidation{Tier: Blocked, Message: "blueprint not connected to the ground"}
	}

	snapshot := worldSnapshot(w, proposed)
	visited := bfsStructuralSet(snapshot, proposedCoords, true)

	mergedFaces := make(FaceDataMap, len(faceData)+len(proposedFaces))
	for c, fd := range faceData {
		mergedFaces[c] = fd
	}
	for c, fd := range proposedFaces {
		mergedFaces[c] = fd
	}

	net := BuildFromSet(visited, mergedFaces, cfg)
	result := net.SolveFast(cfg)
	stressMap := stressMapFromSprings(net, result)
	peak := peakOf(stressMap, proposedCoords)

	tier := classify(peak, cfg)
	msg := ""
	if tier == Blocked {
		msg = fmt.Sprintf("peak stress %.2fx exceeds limit %.2fx", peak, cfg.BlockStressRatio)
	} else if tier == Warning {
		msg = fmt.Sprintf("peak stress %.2fx approaching limit %.2fx", peak, cfg.BlockStressRatio)
	}
	return BlueprintValidation{Tier: tier, StressMap: stressMap, Message: msg}
}

// ValidateCarveFast implements the carve-time counterpart: BFS is seeded
// from the face-neighbors of the carved voxels (excluding ForestFloor as a
// propagation seed — it is visited but not propagated through, so
// disconnected above-ground structure is correctly caught), and the
// remaining structure's peak stress is evaluated after the removal.
func ValidateCarveFast(w *voxel.World, faceData FaceDataMap, carved []voxel.Coord, cfg Config) BlueprintValidation {
	overrides := make(map[voxel.Coord]voxel.Type, len(carved))
	for _, c := range carved {
		overrides[c] = voxel.Air
	}
	snapshot := worldSnapshot(w, overrides)

	seedSet := make(map[voxel.Coord]bool)
	var seeds []voxel.Coord
	for _, c := range carved {
		for _, off := range voxel.FaceOffsets {
			n := c.Add(off)
			if t, ok := snapshot[n]; ok && isStructural(t) && !seedSet[n] {
				seedSet[n] = true
				seeds = append(seeds, n)
			}
		}
	}
	sortCoordsSlice(seeds)

	if !FloodFillConnected(w, overrides, seeds) {
		return BlueprintValidation{Tier: Blocked, Message: "carve leaves structure not connected to the ground"}
	}

	visited := bfsStructuralSet(snapshot, seeds, false)

	// bfsStructuralSet includes every seed coordinate itself, so each seed
	// is a node of the network and receives a stress value.
	net := BuildFromSet(visited, faceData, cfg)
	result := net.SolveFast(cfg)
	stressMap := stressMapFromSprings(net, result)
	peak := peakOf(stressMap, seeds)

	tier := classify(peak, cfg)
	msg := ""
	if tier == Blocked {
		msg = fmt.Sprintf("carve leaves structure at peak stress %.2fx, exceeding limit %.2fx", peak, cfg.BlockStressRatio)
	} else if tier == Warning {
		msg = fmt.Sprintf("carve leaves structure at peak stress %.2fx, approaching limit %.2fx", peak, cfg.BlockStressRatio)
	}
	return BlueprintValidation{Tier: tier, StressMap: stressMap, Message: msg}
}

func sortCoordsSlice(cs []voxel.Coord) {
	m := make(map[voxel.Coord]voxel.Type, len(cs))
	for _, c := range cs {
		m[c] = voxel.Air
	}
	sorted := sortedCoords(m)
	copy(cs, sorted)
}

// ValidateTree runs the full solver over the entire world and reports
// whether the result is below the warning threshold (spec §4.6 "Tree
// startup gate").
func ValidateTree(w *voxel.World, faceData FaceDataMap, cfg Config) (SolveResult, bool) {
	net := Build(w, faceData, cfg)
	result := net.Solve(cfg)
	return result, result.MaxStressRatio < cfg.WarnStressRatio
}
