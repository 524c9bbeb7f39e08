// Package worldgen implements the seeded procedural tree and terrain
// generator the sim calls at init (spec §4.10, supplemented per
// SPEC_FULL.md §3 from the geometry hinted at in
// original_source/elven_canopy_sim/src/nav.rs's ring/branch layout and the
// TreeProfile presets from config.rs). It owns only geometry; the
// structural retry gate around it lives in pkg/sim, which regenerates and
// re-validates via pkg/structural until the tree passes or retries are
// exhausted (spec §4.6 "Tree startup gate").
package worldgen

import (
	"github.com/elvencanopy/canopy/pkg/config"
	"github.com/elvencanopy/canopy/pkg/prng"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// Tree is the result of one generation attempt: every voxel it placed
// (recorded so SimState can append them to placed_voxels / replay them on
// rebuild_transient_state) plus the leaf positions fruit may hang from.
type Tree struct {
	Origin voxel.Coord
	Voxels []PlacedVoxel
	Leaves []voxel.Coord
}

// PlacedVoxel is one (coord, type) write the generator made, in placement
// order — later entries overwrite earlier ones at the same coord, matching
// spec §6.3's rebuild_transient_state replay rule.
type PlacedVoxel struct {
	Coord voxel.Coord
	Type  voxel.Type
}

// PlaceForestFloor lays ForestFloor over [-floorExtent, +floorExtent]^2 at
// y=0, the first step of rebuild_transient_state (spec §6.3).
func PlaceForestFloor(w *voxel.World, center voxel.Coord, floorExtent int) {
	for x := center.X - floorExtent; x <= center.X+floorExtent; x++ {
		for z := center.Z - floorExtent; z <= center.Z+floorExtent; z++ {
			w.Set(voxel.Coord{X: x, Y: 0, Z: z}, voxel.ForestFloor)
		}
	}
}

// Generate lays out one tree's root -> dirt -> trunk voxels, then each
// branch followed by its leaf cluster (in that order, later writes
// overwriting earlier ones at the same coord) rooted at origin (ground level, y=0) using stream for
// every placement decision, and writes them directly into w.
func Generate(w *voxel.World, origin voxel.Coord, profile config.TreeProfile, stream *prng.Stream) Tree {
	t := Tree{Origin: origin}
	place := func(c voxel.Coord, ty voxel.Type) {
		w.Set(c, ty)
		t.Voxels = append(t.Voxels, PlacedVoxel{Coord: c, Type: ty})
	}

	// Roots: spread outward from the base at y=0, replacing the forest
	// floor around it, anchoring the trunk's pinned structural base.
	for r := 1; r <= profile.RootSpread; r++ {
		for _, dir := range ringOffsets(r) {
			place(voxel.Coord{X: origin.X + dir.X, Y: 0, Z: origin.Z + dir.Z}, voxel.Root)
		}
	}
	place(voxel.Coord{X: origin.X, Y: 0, Z: origin.Z}, voxel.Dirt)

	// Trunk: a solid column of the configured radius climbing to
	// TrunkHeight.
	for y := 1; y <= profile.TrunkHeight; y++ {
		for dx := -profile.TrunkRadius; dx <= profile.TrunkRadius; dx++ {
			for dz := -profile.TrunkRadius; dz <= profile.TrunkRadius; dz++ {
				if dx*dx+dz*dz > profile.TrunkRadius*profile.TrunkRadius {
					continue
				}
				place(voxel.Coord{X: origin.X + dx, Y: y, Z: origin.Z + dz}, voxel.Trunk)
			}
		}
	}

	// Branches: radiate outward from evenly spaced heights along the
	// trunk, in a direction chosen by the seeded stream so two
	// generations of the same seed lay out identical geometry.
	leafSet := map[voxel.Coord]bool{}
	for i := 0; i < profile.BranchCount; i++ {
		heightFrac := float64(i+1) / float64(profile.BranchCount+1)
		y := origin.Y + int(heightFrac*float64(profile.TrunkHeight))
		dir := cardinalDirections[stream.Intn(len(cardinalDirections))]
		bx, bz := origin.X, origin.Z
		for step := 1; step <= profile.BranchLength; step++ {
			bx += dir.X
			bz += dir.Z
			place(voxel.Coord{X: bx, Y: y, Z: bz}, voxel.Branch)
		}
		// Leaves cluster around the branch tip.
		for _, off := range leafCluster {
			leafPos := voxel.Coord{X: bx + off.X, Y: y + off.Y, Z: bz + off.Z}
			if stream.NextFloat64() < profile.LeafDensity {
				if leafSet[leafPos] {
					continue
				}
				leafSet[leafPos] = true
				place(leafPos, voxel.Leaf)
			}
		}
	}

	for c := range leafSet {
		t.Leaves = append(t.Leaves, c)
	}
	return t
}

var cardinalDirections = []voxel.Coord{{X: 1}, {X: -1}, {Z: 1}, {Z: -1}}

var leafCluster = []voxel.Coord{
	{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: -1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0}, {X: 0, Y: -1, Z: 0},
	{X: 0, Y: 0, Z: 1}, {X: 0, Y: 0, Z: -1},
}

// ringOffsets returns the 8-directional ring of offsets at Chebyshev
// distance r, used for ground rings and root spread.
func ringOffsets(r int) []voxel.Coord {
	var out []voxel.Coord
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			if dx != r && dx != -r && dz != r && dz != -r {
				continue
			}
			out = append(out, voxel.Coord{X: dx, Z: dz})
		}
	}
	return out
}
