package sim

import (
	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/voxel"
	"github.com/elvencanopy/canopy/pkg/worldgen"
)

func placedVoxelLog(c voxel.Coord, t voxel.Type) worldgen.PlacedVoxel {
	return worldgen.PlacedVoxel{Coord: c, Type: t}
}

// materializeNextVoxel implements spec §4.8's incremental-materialization
// rule: a build or carve blueprint does not pop into existence all at once.
// Each time accumulated task work crosses another per-voxel threshold, one
// more voxel of the blueprint is chosen and written into the world: a
// candidate must be face-adjacent to either standing world structure or a
// voxel the same blueprint already placed, candidates already occupied by a
// creature are avoided whenever an unoccupied candidate exists, and the
// final pick among the survivors is drawn from the sim's PRNG stream so
// two replicas fed the same seed materialize in the same order.
func (s *SimState) materializeNextVoxel(bp *Blueprint) (voxel.Coord, bool) {
	if bp.Placed == nil {
		bp.Placed = map[voxel.Coord]bool{}
	}

	var candidates []voxel.Coord
	for _, c := range bp.Voxels {
		if bp.Placed[c] {
			continue
		}
		if s.adjacentToExistingOrPlaced(bp, c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return voxel.Coord{}, false
	}

	unoccupied := make([]voxel.Coord, 0, len(candidates))
	for _, c := range candidates {
		if !s.creatureOccupies(c) {
			unoccupied = append(unoccupied, c)
		}
	}
	if len(unoccupied) > 0 {
		candidates = unoccupied
	}

	pick := candidates[s.Stream.Intn(len(candidates))]
	s.writeBlueprintVoxel(bp, pick)
	bp.Placed[pick] = true
	return pick, true
}

// adjacentToExistingOrPlaced reports whether c touches either solid world
// structure or a voxel this same blueprint already materialized. The very
// first voxel of a blueprint must anchor to pre-existing structure; every
// voxel after that may also anchor to the blueprint's own growing footprint.
func (s *SimState) adjacentToExistingOrPlaced(bp *Blueprint, c voxel.Coord) bool {
	for _, off := range voxel.FaceOffsets {
		n := c.Add(off)
		if s.World.Get(n).IsSolid() {
			return true
		}
		if bp.Placed[n] {
			return true
		}
	}
	return false
}

func (s *SimState) creatureOccupies(c voxel.Coord) bool {
	for _, cid := range s.sortedCreatureIDs() {
		if s.Creatures[cid].Position == c {
			return true
		}
	}
	return false
}

// writeBlueprintVoxel performs the actual world mutation for one
// materialized voxel: setting the voxel type, updating face/ladder
// metadata, logging it to the appropriate append-only history, and
// incrementally updating both nav graph variants (resnapping any creature
// whose node was tombstoned by the change, spec §4.4, §4.8).
func (s *SimState) writeBlueprintVoxel(bp *Blueprint, c voxel.Coord) {
	if bp.Kind == CarveBlueprint {
		s.World.Set(c, voxel.Air)
		delete(s.FaceData, c)
		delete(s.LadderOrientations, c)
		s.CarvedVoxels = append(s.CarvedVoxels, c)
	} else {
		ty := bp.BuildType
		if bp.VoxelTypes != nil {
			if override, ok := bp.VoxelTypes[c]; ok {
				ty = override
			}
		}
		s.World.Set(c, ty)
		if bp.FaceLayout != nil {
			if fd, ok := bp.FaceLayout[c]; ok {
				s.FaceData[c] = fd
			}
		}
		if bp.LadderOrient != nil {
			if lo, ok := bp.LadderOrient[c]; ok {
				s.LadderOrientations[c] = lo
			}
		}
		s.PlacedVoxels = append(s.PlacedVoxels, placedVoxelLog(c, ty))
	}

	for _, fp := range []navgraph.Footprint{navgraph.Standard, navgraph.Large} {
		killed := navgraph.UpdateAfterVoxelChange(s.NavGraphs[fp], s.World, c, fp)
		if len(killed) > 0 {
			s.resnapCreaturesOnGraph(fp, killed)
		}
	}
}
