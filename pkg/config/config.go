// Package config defines GameConfig (spec §6.5): the immutable, hashable
// tunables every sim instance in a session must agree on byte-for-byte.
// Like the teacher's pkg/dungeon.Config, fields carry dual yaml/json tags
// so operators can author a human-editable YAML file while the relay
// handshake and persistence layer exchange the same data as canonical
// JSON.
package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/elvencanopy/canopy/pkg/navgraph"
	"github.com/elvencanopy/canopy/pkg/structural"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// WorldSize is the (sx, sy, sz) dimensions of the voxel world.
type WorldSize struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	Z int `yaml:"z" json:"z"`
}

// SpeciesData is the per-species behavioral parameter set (spec §3, §9):
// species dispatch is data, not code.
type SpeciesData struct {
	WalkTicksPerVoxel  float64 `yaml:"walkTicksPerVoxel" json:"walkTicksPerVoxel"`
	ClimbTicksPerVoxel float64 `yaml:"climbTicksPerVoxel" json:"climbTicksPerVoxel"`
	WoodLadderTicksPerVoxel float64 `yaml:"woodLadderTicksPerVoxel,omitempty" json:"woodLadderTicksPerVoxel,omitempty"`
	RopeLadderTicksPerVoxel float64 `yaml:"ropeLadderTicksPerVoxel,omitempty" json:"ropeLadderTicksPerVoxel,omitempty"`
	AllowedEdgeTypes   []navgraph.EdgeType `yaml:"allowedEdgeTypes" json:"allowedEdgeTypes"`
	GroundOnly         bool    `yaml:"groundOnly" json:"groundOnly"`
	Footprint          navgraph.Footprint `yaml:"footprint" json:"footprint"`
	HeartbeatIntervalTicks uint64 `yaml:"heartbeatIntervalTicks" json:"heartbeatIntervalTicks"`
	FoodMax            float64 `yaml:"foodMax" json:"foodMax"`
	FoodDecayPerTick   float64 `yaml:"foodDecayPerTick" json:"foodDecayPerTick"`
	FoodHungerThreshold float64 `yaml:"foodHungerThreshold" json:"foodHungerThreshold"`
	FoodRestorePct     float64 `yaml:"foodRestorePct" json:"foodRestorePct"`
}

// TreeProfile parameterizes the seeded tree generator (supplemented from
// original_source/elven_canopy_sim/src/config.rs's TreeProfile presets,
// dropped from the distilled spec but reintroduced as worldgen input).
type TreeProfile struct {
	Name           string  `yaml:"name" json:"name"`
	TrunkHeight    int     `yaml:"trunkHeight" json:"trunkHeight"`
	TrunkRadius    int     `yaml:"trunkRadius" json:"trunkRadius"`
	BranchCount    int     `yaml:"branchCount" json:"branchCount"`
	BranchLength   int     `yaml:"branchLength" json:"branchLength"`
	RootSpread     int     `yaml:"rootSpread" json:"rootSpread"`
	LeafDensity    float64 `yaml:"leafDensity" json:"leafDensity"`
}

// Presets grounded in config.rs's fantasy_mega/oak/conifer/willow profiles.
func FantasyMegaProfile() TreeProfile {
	return TreeProfile{Name: "fantasy_mega", TrunkHeight: 40, TrunkRadius: 4, BranchCount: 24, BranchLength: 16, RootSpread: 10, LeafDensity: 0.6}
}
func OakProfile() TreeProfile {
	return TreeProfile{Name: "oak", TrunkHeight: 14, TrunkRadius: 2, BranchCount: 10, BranchLength: 6, RootSpread: 5, LeafDensity: 0.7}
}
func ConiferProfile() TreeProfile {
	return TreeProfile{Name: "conifer", TrunkHeight: 20, TrunkRadius: 1, BranchCount: 16, BranchLength: 4, RootSpread: 3, LeafDensity: 0.5}
}
func WillowProfile() TreeProfile {
	return TreeProfile{Name: "willow", TrunkHeight: 10, TrunkRadius: 2, BranchCount: 14, BranchLength: 8, RootSpread: 4, LeafDensity: 0.8}
}

// StructuralCfg carries the material/face/threshold tunables the
// structural validator consumes (spec §4.6, §6.5).
type StructuralCfg struct {
	Materials          map[string]structural.Material   `yaml:"materials" json:"materials"`
	FaceProperties     map[string]structural.FaceProperty `yaml:"faceProperties" json:"faceProperties"`
	BaseInteriorWeight float64 `yaml:"baseInteriorWeight" json:"baseInteriorWeight"`
	Gravity            float64 `yaml:"gravity" json:"gravity"`
	DampingFactor       float64 `yaml:"dampingFactor" json:"dampingFactor"`
	MaxIterations         int     `yaml:"maxIterations" json:"maxIterations"`
	WarnStressRatio       float64 `yaml:"warnStressRatio" json:"warnStressRatio"`
	BlockStressRatio      float64 `yaml:"blockStressRatio" json:"blockStressRatio"`
	TreeGenMaxRetries     int     `yaml:"treeGenMaxRetries" json:"treeGenMaxRetries"`
}

// GameConfig is the full immutable-after-init configuration for a sim
// instance (spec §6.5). All clients in a relay session must hold
// byte-identical configs, enforced by Hash comparison at join time.
type GameConfig struct {
	TickDurationMs int `yaml:"tickDurationMs" json:"tickDurationMs"`

	WorldSize   WorldSize `yaml:"worldSize" json:"worldSize"`
	FloorExtent int       `yaml:"floorExtent" json:"floorExtent"`

	TreeHeartbeatIntervalTicks uint64 `yaml:"treeHeartbeatIntervalTicks" json:"treeHeartbeatIntervalTicks"`
	FruitProductionBaseRate    float64 `yaml:"fruitProductionBaseRate" json:"fruitProductionBaseRate"`
	FruitMaxPerTree            int     `yaml:"fruitMaxPerTree" json:"fruitMaxPerTree"`
	FruitInitialAttempts       int     `yaml:"fruitInitialAttempts" json:"fruitInitialAttempts"`

	BuildWorkTicksPerVoxel float64 `yaml:"buildWorkTicksPerVoxel" json:"buildWorkTicksPerVoxel"`
	CarveWorkTicksPerVoxel float64 `yaml:"carveWorkTicksPerVoxel" json:"carveWorkTicksPerVoxel"`

	TreeProfile TreeProfile            `yaml:"treeProfile" json:"treeProfile"`
	Species     map[string]SpeciesData `yaml:"species" json:"species"`
	Structural  StructuralCfg          `yaml:"structural" json:"structural"`
}

// Default returns a small but complete configuration suitable for tests
// and local runs.
func Default() GameConfig {
	dc := structural.DefaultConfig()
	materials := make(map[string]structural.Material, len(dc.Materials))
	for t, m := range dc.Materials {
		materials[t.String()] = m
	}
	faces := make(map[string]structural.FaceProperty, len(dc.FaceProperties))
	for k, v := range dc.FaceProperties {
		faces[faceKindName(k)] = v
	}

	return GameConfig{
		TickDurationMs:             50,
		WorldSize:                  WorldSize{X: 64, Y: 64, Z: 64},
		FloorExtent:                20,
		TreeHeartbeatIntervalTicks: 200,
		FruitProductionBaseRate:    0.05,
		FruitMaxPerTree:            12,
		FruitInitialAttempts:       40,
		BuildWorkTicksPerVoxel:     4,
		CarveWorkTicksPerVoxel:     2,
		TreeProfile:                OakProfile(),
		Species: map[string]SpeciesData{
			"Elf": {
				WalkTicksPerVoxel:       4,
				ClimbTicksPerVoxel:      8,
				WoodLadderTicksPerVoxel: 6,
				RopeLadderTicksPerVoxel: 10,
				AllowedEdgeTypes: []navgraph.EdgeType{
					navgraph.ForestFloorEdge, navgraph.TrunkClimb, navgraph.BranchWalk,
					navgraph.TrunkCircumference, navgraph.GroundToTrunk,
					navgraph.WoodLadderClimb, navgraph.RopeLadderClimb,
				},
				GroundOnly:             false,
				Footprint:              navgraph.Standard,
				HeartbeatIntervalTicks: 100,
				FoodMax:                100,
				FoodDecayPerTick:       0.01,
				FoodHungerThreshold:    30,
				FoodRestorePct:         60,
			},
		},
		Structural: StructuralCfg{
			Materials:          materials,
			FaceProperties:     faces,
			BaseInteriorWeight: dc.BaseInteriorWeight,
			Gravity:            dc.Gravity,
			DampingFactor:      dc.DampingFactor,
			MaxIterations:      dc.MaxIterations,
			WarnStressRatio:    dc.WarnStressRatio,
			BlockStressRatio:   dc.BlockStressRatio,
			TreeGenMaxRetries:  5,
		},
	}
}

func faceKindName(k voxel.FaceKind) string {
	names := []string{"Open", "Wall", "Window", "Floor", "Ceiling", "LadderRung"}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// LoadYAML reads a GameConfig from a YAML file, the format operators
// author for cmd/canopysim -config.
func LoadYAML(path string) (GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg GameConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GameConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ToJSON renders the config as canonical JSON, the form exchanged over the
// relay wire protocol (spec §6.4 GameStart.config_json) and hashed for the
// join-time compatibility check.
func (c GameConfig) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// FromJSON parses a GameConfig from its canonical JSON form.
func FromJSON(data []byte) (GameConfig, error) {
	var cfg GameConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return GameConfig{}, fmt.Errorf("parsing config json: %w", err)
	}
	return cfg, nil
}

// Hash returns the SHA-256 digest of the config's canonical JSON form, used
// for the relay's config_hash compatibility check (spec §6.5).
func (c GameConfig) Hash() ([32]byte, error) {
	data, err := c.ToJSON()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// StructuralConfig converts the persisted StructuralCfg into the
// pkg/structural.Config the solver consumes.
func (c GameConfig) StructuralConfig() structural.Config {
	materials := make(map[voxel.Type]structural.Material, len(c.Structural.Materials))
	for name, m := range c.Structural.Materials {
		materials[voxelTypeByName(name)] = m
	}
	faces := make(map[voxel.FaceKind]structural.FaceProperty, len(c.Structural.FaceProperties))
	for name, f := range c.Structural.FaceProperties {
		faces[faceKindByName(name)] = f
	}
	return structural.Config{
		Materials:          materials,
		FaceProperties:     faces,
		BaseInteriorWeight: c.Structural.BaseInteriorWeight,
		Gravity:            c.Structural.Gravity,
		DampingFactor:      c.Structural.DampingFactor,
		MaxIterations:      c.Structural.MaxIterations,
		WarnStressRatio:    c.Structural.WarnStressRatio,
		BlockStressRatio:   c.Structural.BlockStressRatio,
	}
}

var voxelTypeNames = map[string]voxel.Type{
	"Air": voxel.Air, "ForestFloor": voxel.ForestFloor, "Dirt": voxel.Dirt,
	"Trunk": voxel.Trunk, "Branch": voxel.Branch, "Root": voxel.Root,
	"Leaf": voxel.Leaf, "Fruit": voxel.Fruit, "GrownPlatform": voxel.GrownPlatform,
	"Wall": voxel.Wall, "BuildingInterior": voxel.BuildingInterior,
	"WoodLadder": voxel.WoodLadder, "RopeLadder": voxel.RopeLadder,
}

func voxelTypeByName(name string) voxel.Type { return voxelTypeNames[name] }

var faceKindNames = map[string]voxel.FaceKind{
	"Open": voxel.Open, "Wall": voxel.WallFace, "Window": voxel.Window,
	"Floor": voxel.Floor, "Ceiling": voxel.Ceiling, "LadderRung": voxel.LadderRung,
}

func faceKindByName(name string) voxel.FaceKind { return faceKindNames[name] }
