package structural

import (
	"sort"

	"github.com/elvencanopy/canopy/pkg/voxel"
)

// sortedCoords returns the keys of m in y-outer/z-mid/x-inner order, the
// same deterministic order pkg/voxel.World.ForEach visits cells in.
func sortedCoords(m map[voxel.Coord]voxel.Type) []voxel.Coord {
	out := make([]voxel.Coord, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return out
}
