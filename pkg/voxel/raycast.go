package voxel

import "math"

// Vec3 is a floating-point direction or position used only by the raycast,
// which must operate at sub-voxel resolution.
type Vec3 struct {
	X, Y, Z float64
}

// RaycastHitsSolid walks from origin along dir using the Amanatides & Woo
// DDA traversal (spec §4.2), returning the first solid voxel coordinate hit
// within maxSteps, or ok=false if none is hit.
func RaycastHitsSolid(w *World, origin Vec3, dir Vec3, maxSteps int) (hit Coord, ok bool) {
	length := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y + dir.Z*dir.Z)
	if length == 0 {
		return Coord{}, false
	}
	dx, dy, dz := dir.X/length, dir.Y/length, dir.Z/length

	voxel := Coord{int(math.Floor(origin.X)), int(math.Floor(origin.Y)), int(math.Floor(origin.Z))}

	stepX, tDeltaX, tMaxX := ddaAxis(origin.X, dx)
	stepY, tDeltaY, tMaxY := ddaAxis(origin.Y, dy)
	stepZ, tDeltaZ, tMaxZ := ddaAxis(origin.Z, dz)

	if w.Get(voxel).IsSolid() {
		return voxel, true
	}

	for i := 0; i < maxSteps; i++ {
		switch {
		case tMaxX < tMaxY && tMaxX < tMaxZ:
			voxel.X += stepX
			tMaxX += tDeltaX
		case tMaxY < tMaxZ:
			voxel.Y += stepY
			tMaxY += tDeltaY
		default:
			voxel.Z += stepZ
			tMaxZ += tDeltaZ
		}
		if !w.InBounds(voxel) {
			return Coord{}, false
		}
		if w.Get(voxel).IsSolid() {
			return voxel, true
		}
	}
	return Coord{}, false
}

// ddaAxis returns the step direction, the per-axis parametric t increment
// per full voxel crossing, and the t value of the first crossing on this
// axis, for a single axis of the DDA traversal.
func ddaAxis(origin, dirComponent float64) (step int, tDelta, tMax float64) {
	if dirComponent > 0 {
		step = 1
		tDelta = 1 / dirComponent
		tMax = (math.Floor(origin) + 1 - origin) * tDelta
	} else if dirComponent < 0 {
		step = -1
		tDelta = -1 / dirComponent
		tMax = (origin - math.Floor(origin)) * tDelta
	} else {
		step = 0
		tDelta = math.Inf(1)
		tMax = math.Inf(1)
	}
	return
}
