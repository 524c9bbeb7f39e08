// Package structural implements the spring-mass structural integrity
// validator (spec §4.6): a network builder, a Gauss-Seidel relaxation
// solver, a BFS weight-flow stress analyzer, and the fast interactive-
// placement path used by blueprint and carve validation.
//
// The tiered classification report (Ok/Warning/Blocked with a peak-stress
// message) follows the shape of the teacher's pkg/validation.Report, and
// the BFS-outward-from-proposed-geometry fast path is the same idea as
// dungo's pkg/embedding force-directed layout resolving overlaps locally
// rather than re-simulating the whole graph.
package structural

import "github.com/elvencanopy/canopy/pkg/voxel"

// Material holds the structural properties of a solid voxel type.
type Material struct {
	Density   float64
	Stiffness float64
	Strength  float64
}

// FaceProperty holds the structural stiffness contributed by one face kind
// of a BuildingInterior or ladder voxel.
type FaceProperty struct {
	Stiffness float64
	Weight    float64
}

// Config carries every tunable the solver and classifier need. It is a
// view over the relevant slice of pkg/config.GameConfig so pkg/structural
// has no import-cycle dependency on the sim's command/config layer.
type Config struct {
	Materials     map[voxel.Type]Material
	FaceProperties map[voxel.FaceKind]FaceProperty
	BaseInteriorWeight float64

	Gravity        float64
	DampingFactor  float64
	MaxIterations  int
	WarnStressRatio  float64
	BlockStressRatio float64
}

// DefaultConfig returns reasonable structural tunables grounded in typical
// timber-frame stiffness/strength ratios; real deployments load these from
// pkg/config.GameConfig instead.
func DefaultConfig() Config {
	return Config{
		Materials: map[voxel.Type]Material{
			voxel.ForestFloor:    {Density: 1.0, Stiffness: 1000, Strength: 1000},
			voxel.Dirt:           {Density: 1.2, Stiffness: 800, Strength: 600},
			voxel.Trunk:          {Density: 2.0, Stiffness: 500, Strength: 400},
			voxel.Branch:         {Density: 1.0, Stiffness: 300, Strength: 200},
			voxel.Root:           {Density: 1.5, Stiffness: 400, Strength: 300},
			voxel.GrownPlatform:  {Density: 0.8, Stiffness: 150, Strength: 100},
			voxel.Wall:           {Density: 0.8, Stiffness: 150, Strength: 100},
			voxel.BuildingInterior: {Density: 0.3, Stiffness: 60, Strength: 60},
			voxel.WoodLadder:     {Density: 0.4, Stiffness: 80, Strength: 40},
			voxel.RopeLadder:     {Density: 0.1, Stiffness: 20, Strength: 15},
		},
		FaceProperties: map[voxel.FaceKind]FaceProperty{
			voxel.Open:       {Stiffness: 0, Weight: 0},
			voxel.WallFace:   {Stiffness: 120, Weight: 1.0},
			voxel.Window:     {Stiffness: 40, Weight: 0.5},
			voxel.Floor:      {Stiffness: 150, Weight: 1.5},
			voxel.Ceiling:    {Stiffness: 100, Weight: 1.0},
			voxel.LadderRung: {Stiffness: 60, Weight: 0.3},
		},
		BaseInteriorWeight: 0.3,
		Gravity:            9.8,
		DampingFactor:       0.1,
		MaxIterations:        40,
		WarnStressRatio:      0.6,
		BlockStressRatio:     1.0,
	}
}

func harmonicMean(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
