package structural

import (
	"math"

	"github.com/elvencanopy/canopy/pkg/voxel"
)

// Vec3 is a floating-point position used by the relaxation solver.
type Vec3 struct {
	X, Y, Z float64
}

func coordToVec3(c voxel.Coord) Vec3 { return Vec3{float64(c.X), float64(c.Y), float64(c.Z)} }

func (v Vec3) sub(o Vec3) Vec3    { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) add(o Vec3) Vec3    { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }
func (v Vec3) length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Node is one mass point in the structural network.
type Node struct {
	Position Vec3
	Mass     float64
	Pinned   bool
}

// Spring links two nodes by index into Network.Nodes.
type Spring struct {
	A, B       int
	Stiffness  float64
	Strength   float64
	RestLength float64
}

// Network is the spring-mass graph built from a (sub)set of world voxels.
type Network struct {
	Nodes       []Node
	Springs     []Spring
	CoordToNode map[voxel.Coord]int

	// relaxedPositions is set by relax() and cleared by SolveFast(); its
	// presence is what distinguishes the full solver's path from the fast
	// path when computing deformation stress.
	relaxedPositions []Vec3
}

// FaceDataMap is a sparse per-coord face mapping for BuildingInterior and
// ladder voxels, analogous to SimState.face_data (spec §3).
type FaceDataMap map[voxel.Coord]voxel.FaceData

func isStructural(t voxel.Type) bool { return t.IsSolid() }

func isPinned(t voxel.Type) bool { return t == voxel.ForestFloor || t == voxel.Dirt }

func nodeMass(cfg Config, t voxel.Type, fd voxel.FaceData, hasFD bool) float64 {
	mat := cfg.Materials[t]
	if t != voxel.BuildingInterior {
		return mat.Density
	}
	mass := cfg.BaseInteriorWeight
	if hasFD {
		for _, kind := range fd {
			mass += cfg.FaceProperties[kind].Weight
		}
	}
	return mass
}

// faceTowards returns the face kind of the voxel at c that looks toward
// the neighbor at c+offset, given offset is one of the 3 positive unit
// directions used by network construction.
func faceTowards(fd voxel.FaceData, offset voxel.Coord, hasFD bool) voxel.FaceKind {
	if !hasFD {
		return voxel.WallFace
	}
	switch offset {
	case voxel.Coord{X: 1, Y: 0, Z: 0}:
		return fd[voxel.FacePosX]
	case voxel.Coord{X: 0, Y: 1, Z: 0}:
		return fd[voxel.FacePosY]
	case voxel.Coord{X: 0, Y: 0, Z: 1}:
		return fd[voxel.FacePosZ]
	}
	return voxel.WallFace
}

func faceAway(fd voxel.FaceData, offset voxel.Coord, hasFD bool) voxel.FaceKind {
	if !hasFD {
		return voxel.WallFace
	}
	switch offset {
	case voxel.Coord{X: 1, Y: 0, Z: 0}:
		return fd[voxel.FaceNegX]
	case voxel.Coord{X: 0, Y: 1, Z: 0}:
		return fd[voxel.FaceNegY]
	case voxel.Coord{X: 0, Y: 0, Z: 1}:
		return fd[voxel.FaceNegZ]
	}
	return voxel.WallFace
}

// springProperties computes the stiffness/strength of a spring between two
// face-adjacent structural voxels a (at offset direction) and b, or
// ok=false if no spring should be created (e.g. an Open face).
func springProperties(cfg Config, ta, tb voxel.Type, offset voxel.Coord, fdA voxel.FaceData, hasA bool, fdB voxel.FaceData, hasB bool) (stiffness, strength float64, ok bool) {
	aInterior := ta == voxel.BuildingInterior
	bInterior := tb == voxel.BuildingInterior

	switch {
	case !aInterior && !bInterior:
		ma, mb := cfg.Materials[ta], cfg.Materials[tb]
		return harmonicMean(ma.Stiffness, mb.Stiffness), min(ma.Strength, mb.Strength), true

	case aInterior && bInterior:
		faceA := cfg.FaceProperties[faceTowards(fdA, offset, hasA)]
		faceB := cfg.FaceProperties[faceAway(fdB, offset, hasB)]
		if faceA.Stiffness == 0 && faceB.Stiffness == 0 {
			return 0, 0, false
		}
		chosen := faceA
		if faceB.Stiffness > faceA.Stiffness {
			chosen = faceB
		}
		mat := cfg.Materials[voxel.BuildingInterior]
		return chosen.Stiffness, mat.Strength, true

	case aInterior:
		face := cfg.FaceProperties[faceTowards(fdA, offset, hasA)]
		if face.Stiffness == 0 {
			return 0, 0, false
		}
		mb := cfg.Materials[tb]
		return harmonicMean(face.Stiffness, mb.Stiffness), min(mb.Strength, cfg.Materials[voxel.BuildingInterior].Strength), true

	default: // bInterior
		face := cfg.FaceProperties[faceAway(fdB, offset, hasB)]
		if face.Stiffness == 0 {
			return 0, 0, false
		}
		ma := cfg.Materials[ta]
		return harmonicMean(face.Stiffness, ma.Stiffness), min(ma.Strength, cfg.Materials[voxel.BuildingInterior].Strength), true
	}
}

var positiveOffsets = [3]voxel.Coord{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}}

// Build constructs a network over every structural voxel in the world, in
// y-outer/z-mid/x-inner order (spec §9), checking only the 3 positive-half
// neighbor offsets per voxel to avoid emitting duplicate springs.
func Build(w *voxel.World, faceData FaceDataMap, cfg Config) *Network {
	net := &Network{CoordToNode: make(map[voxel.Coord]int)}
	w.ForEach(func(c voxel.Coord, t voxel.Type) {
		if !isStructural(t) {
			return
		}
		fd, hasFD := faceData[c]
		net.CoordToNode[c] = len(net.Nodes)
		net.Nodes = append(net.Nodes, Node{
			Position: coordToVec3(c),
			Mass:     nodeMass(cfg, t, fd, hasFD),
			Pinned:   isPinned(t),
		})
	})
	w.ForEach(func(c voxel.Coord, t voxel.Type) {
		if !isStructural(t) {
			return
		}
		ai := net.CoordToNode[c]
		for _, off := range positiveOffsets {
			n := c.Add(off)
			tb := w.Get(n)
			if !isStructural(tb) {
				continue
			}
			bi, ok := net.CoordToNode[n]
			if !ok {
				continue
			}
			fdA, hasA := faceData[c]
			fdB, hasB := faceData[n]
			stiffness, strength, ok := springProperties(cfg, t, tb, off, fdA, hasA, fdB, hasB)
			if !ok {
				continue
			}
			net.Springs = append(net.Springs, Spring{A: ai, B: bi, Stiffness: stiffness, Strength: strength, RestLength: 1})
		}
	})
	return net
}

// BuildFromSet is the fast-path variant: it builds a network only over an
// explicit subset of voxel coordinates (e.g. the set reached by a BFS
// outward from proposed construction), rather than scanning the whole
// world.
func BuildFromSet(voxels map[voxel.Coord]voxel.Type, faceData FaceDataMap, cfg Config) *Network {
	net := &Network{CoordToNode: make(map[voxel.Coord]int)}
	ordered := sortedCoords(voxels)
	for _, c := range ordered {
		t := voxels[c]
		if !isStructural(t) {
			continue
		}
		fd, hasFD := faceData[c]
		net.CoordToNode[c] = len(net.Nodes)
		net.Nodes = append(net.Nodes, Node{
			Position: coordToVec3(c),
			Mass:     nodeMass(cfg, t, fd, hasFD),
			Pinned:   isPinned(t),
		})
	}
	for _, c := range ordered {
		t := voxels[c]
		if !isStructural(t) {
			continue
		}
		ai := net.CoordToNode[c]
		for _, off := range positiveOffsets {
			n := c.Add(off)
			tb, ok := voxels[n]
			if !ok || !isStructural(tb) {
				continue
			}
			bi, ok := net.CoordToNode[n]
			if !ok {
				continue
			}
			fdA, hasA := faceData[c]
			fdB, hasB := faceData[n]
			stiffness, strength, ok := springProperties(cfg, t, tb, off, fdA, hasA, fdB, hasB)
			if !ok {
				continue
			}
			net.Springs = append(net.Springs, Spring{A: ai, B: bi, Stiffness: stiffness, Strength: strength, RestLength: 1})
		}
	}
	return net
}
