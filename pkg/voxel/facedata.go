package voxel

// Face identifies one of the 6 faces of a voxel, in the same order as
// FaceOffsets.
type Face uint8

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// FaceKind is the per-face classification carried by BuildingInterior and
// ladder voxels.
type FaceKind uint8

const (
	Open FaceKind = iota
	WallFace
	Window
	Floor
	Ceiling
	LadderRung
)

// FaceData is the 6-entry per-voxel face mapping used by BuildingInterior
// and ladder voxels (spec §3).
type FaceData [6]FaceKind

// NewFaceData returns a FaceData with every face Open.
func NewFaceData() FaceData {
	return FaceData{Open, Open, Open, Open, Open, Open}
}

// LadderOrientation records which horizontal axis a ladder climbs along and
// the direction creatures face while climbing it.
type LadderOrientation struct {
	Axis string // "X" or "Z"
	Sign int    // +1 or -1
}
