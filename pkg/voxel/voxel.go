// Package voxel implements the dense 3D world grid described in spec §4.2:
// typed voxels with O(1) get/set, bounds checking, face-adjacency queries,
// and a DDA raycast. It is the Elven Canopy analogue of the teacher
// pipeline's pkg/carving tile grid (dungo stamps 2D TileType values into a
// flat []uint32; VoxelWorld stamps 3D VoxelType values into a flat []VoxelType
// using the same row-major flattening idiom).
package voxel

import "fmt"

// Type is the tagged variant over every voxel kind in the world.
type Type uint8

const (
	Air Type = iota
	ForestFloor
	Dirt
	Trunk
	Branch
	Root
	Leaf
	Fruit
	GrownPlatform
	Wall
	BuildingInterior
	WoodLadder
	RopeLadder
)

func (t Type) String() string {
	switch t {
	case Air:
		return "Air"
	case ForestFloor:
		return "ForestFloor"
	case Dirt:
		return "Dirt"
	case Trunk:
		return "Trunk"
	case Branch:
		return "Branch"
	case Root:
		return "Root"
	case Leaf:
		return "Leaf"
	case Fruit:
		return "Fruit"
	case GrownPlatform:
		return "GrownPlatform"
	case Wall:
		return "Wall"
	case BuildingInterior:
		return "BuildingInterior"
	case WoodLadder:
		return "WoodLadder"
	case RopeLadder:
		return "RopeLadder"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// IsSolid reports whether a voxel of this type occupies its cell for
// collision, structural, and nav-floor purposes.
func (t Type) IsSolid() bool {
	switch t {
	case Air, Leaf, Fruit:
		return false
	default:
		return true
	}
}

// IsLadder reports whether the type is one of the two ladder kinds.
func (t Type) IsLadder() bool {
	return t == WoodLadder || t == RopeLadder
}

// OverlapClassification describes how a proposed construction voxel
// interacts with whatever already occupies that cell.
type OverlapClassification uint8

const (
	Exterior OverlapClassification = iota
	Convertible
	AlreadyWood
	Blocked
)

// ClassifyOverlap returns how a build targeting newType at a cell currently
// holding existing should be treated.
func ClassifyOverlap(existing, newType Type) OverlapClassification {
	switch existing {
	case Air:
		return Exterior
	case Leaf, Fruit:
		return Convertible
	case GrownPlatform, Wall, BuildingInterior, WoodLadder, RopeLadder:
		if existing == newType {
			return AlreadyWood
		}
		return Blocked
	default:
		return Blocked
	}
}

// Coord is an integer voxel position.
type Coord struct {
	X, Y, Z int
}

// Add returns c + d.
func (c Coord) Add(d Coord) Coord {
	return Coord{c.X + d.X, c.Y + d.Y, c.Z + d.Z}
}

// FaceOffsets is the canonical ordering of the 6 face-adjacent offsets, used
// everywhere face neighbors must be enumerated in a stable order
// (structural BFS and validation, nav graph incremental update).
var FaceOffsets = [6]Coord{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// World is a dense (sx, sy, sz) grid of voxel types stored row-major with y
// outer, z mid, x inner — the same flat-array order the structural solver
// (spec §9) requires for deterministic iteration.
type World struct {
	SizeX, SizeY, SizeZ int
	data                []Type
}

// NewWorld allocates a world of the given dimensions, initialized to Air.
func NewWorld(sx, sy, sz int) *World {
	return &World{
		SizeX: sx, SizeY: sy, SizeZ: sz,
		data: make([]Type, sx*sy*sz),
	}
}

// InBounds reports whether c lies within the world's dimensions.
func (w *World) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < w.SizeX &&
		c.Y >= 0 && c.Y < w.SizeY &&
		c.Z >= 0 && c.Z < w.SizeZ
}

func (w *World) index(c Coord) int {
	return c.Y*w.SizeZ*w.SizeX + c.Z*w.SizeX + c.X
}

// Get returns the voxel type at c, or Air if out of bounds.
func (w *World) Get(c Coord) Type {
	if !w.InBounds(c) {
		return Air
	}
	return w.data[w.index(c)]
}

// Set writes the voxel type at c. Out-of-bounds writes are ignored.
func (w *World) Set(c Coord, t Type) {
	if !w.InBounds(c) {
		return
	}
	w.data[w.index(c)] = t
}

// HasSolidFaceNeighbor reports whether any of the 6 face neighbors of c is
// solid.
func (w *World) HasSolidFaceNeighbor(c Coord) bool {
	for _, off := range FaceOffsets {
		if w.Get(c.Add(off)).IsSolid() {
			return true
		}
	}
	return false
}

// HasFaceNeighborOfType reports whether any of the 6 face neighbors of c
// holds the given type.
func (w *World) HasFaceNeighborOfType(c Coord, t Type) bool {
	for _, off := range FaceOffsets {
		if w.Get(c.Add(off)) == t {
			return true
		}
	}
	return false
}

// ForEach visits every cell in y-outer, z-mid, x-inner order, matching the
// structural solver's required deterministic iteration order.
func (w *World) ForEach(fn func(c Coord, t Type)) {
	for y := 0; y < w.SizeY; y++ {
		for z := 0; z < w.SizeZ; z++ {
			for x := 0; x < w.SizeX; x++ {
				c := Coord{x, y, z}
				fn(c, w.data[w.index(c)])
			}
		}
	}
}
