package export

import (
	"bytes"
	"fmt"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/elvencanopy/canopy/pkg/sim"
	"github.com/elvencanopy/canopy/pkg/structural"
	"github.com/elvencanopy/canopy/pkg/voxel"
)

// SVGOptions configures the top-down debug map export.
type SVGOptions struct {
	CellSize    int  // Pixels per world X/Z cell
	ShowHeatmap bool // Overlay the structural stress solve
	ShowLegend  bool // Show the color legend
	ShowStats   bool // Show a header line with tree/creature/structure counts
	Title       string
}

// DefaultSVGOptions returns sensible defaults for a map-sized world.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{CellSize: 6, ShowHeatmap: true, ShowLegend: true, ShowStats: true, Title: "Canopy"}
}

// voxelColor is the top-down fill color for a column's topmost solid
// voxel, matching the teacher's getNodeColor's archetype-to-color table
// in spirit: one fixed color per voxel.Type.
func voxelColor(t voxel.Type) string {
	switch t {
	case voxel.ForestFloor:
		return "#2f4f2f"
	case voxel.Dirt:
		return "#6b4a2f"
	case voxel.Trunk:
		return "#8b5a2b"
	case voxel.Branch:
		return "#a0752f"
	case voxel.Root:
		return "#5a3a1f"
	case voxel.Leaf:
		return "#48bb78"
	case voxel.Fruit:
		return "#e53e3e"
	case voxel.GrownPlatform:
		return "#cbd5e0"
	case voxel.Wall:
		return "#718096"
	case voxel.BuildingInterior:
		return "#edf2f7"
	case voxel.WoodLadder:
		return "#ed8936"
	case voxel.RopeLadder:
		return "#d69e2e"
	default:
		return "#1a1a2e"
	}
}

func heatmapColor(ratio float64) string {
	switch {
	case ratio < 0.25:
		return "#3b82f6"
	case ratio < 0.6:
		return "#10b981"
	case ratio < 1.0:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}

// topmostSolid finds the highest solid voxel in column (x, z), returning
// (type, y, true), or (Air, 0, false) if the column is empty.
func topmostSolid(w *voxel.World, x, z int) (voxel.Type, int, bool) {
	for y := w.SizeY - 1; y >= 0; y-- {
		t := w.Get(voxel.Coord{X: x, Y: y, Z: z})
		if t.IsSolid() {
			return t, y, true
		}
	}
	return voxel.Air, 0, false
}

// ExportSVG renders a top-down debug map of s: one cell per (X, Z) column
// colored by its topmost solid voxel, optionally overlaid with a
// structural stress heatmap from a full solve over s.World.
func ExportSVG(s *sim.SimState, opts SVGOptions) ([]byte, error) {
	if s == nil || s.World == nil {
		return nil, fmt.Errorf("export: state has no world")
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 6
	}

	headerHeight := 0
	if opts.Title != "" || opts.ShowStats {
		headerHeight = 50
	}
	width := s.World.SizeX * opts.CellSize
	height := s.World.SizeZ*opts.CellSize + headerHeight
	legendWidth := 0
	if opts.ShowLegend {
		legendWidth = 160
		width += legendWidth
	}

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#1a1a2e")

	structCfg := s.Config.StructuralConfig()
	var stressMap map[voxel.Coord]float64
	if opts.ShowHeatmap {
		net := structural.Build(s.World, s.FaceData, structCfg)
		result := net.Solve(structCfg)
		stressMap = structural.StressByCoord(net, result)
	}

	for z := 0; z < s.World.SizeZ; z++ {
		for x := 0; x < s.World.SizeX; x++ {
			t, y, ok := topmostSolid(s.World, x, z)
			if !ok {
				continue
			}
			fill := voxelColor(t)
			if opts.ShowHeatmap {
				if ratio, ok := stressMap[voxel.Coord{X: x, Y: y, Z: z}]; ok {
					fill = heatmapColor(ratio / structCfg.BlockStressRatio)
				}
			}
			canvas.Rect(x*opts.CellSize, z*opts.CellSize+headerHeight, opts.CellSize, opts.CellSize,
				fmt.Sprintf("fill:%s", fill))
		}
	}

	drawTreeCanopies(canvas, s, opts, headerHeight)

	if opts.ShowLegend {
		drawLegend(canvas, width-legendWidth, headerHeight+10, opts)
	}
	if opts.Title != "" || opts.ShowStats {
		drawHeader(canvas, s, opts, width-legendWidth)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// drawTreeCanopies outlines each tree's leaf footprint so the canopy
// layer reads clearly against the ground-floor colors beneath it.
func drawTreeCanopies(canvas *svg.SVG, s *sim.SimState, opts SVGOptions, headerHeight int) {
	ids := make([]sim.TreeID, 0, len(s.Trees))
	for id := range s.Trees {
		ids = append(ids, id)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	for _, id := range ids {
		tree := s.Trees[id]
		cx := tree.Origin.X*opts.CellSize + opts.CellSize/2
		cz := tree.Origin.Z*opts.CellSize + headerHeight + opts.CellSize/2
		radius := opts.CellSize
		if n := len(tree.LeafPositions); n > 0 {
			radius = opts.CellSize * (2 + n/40)
		}
		canvas.Circle(cx, cz, radius, "fill:none;stroke:#48bb78;stroke-width:1;opacity:0.6")
	}
}

func drawLegend(canvas *svg.SVG, x, y int, opts SVGOptions) {
	canvas.Rect(x-10, y-10, 150, 230, "fill:#2d3748;stroke:#4a5568;stroke-width:1;opacity:0.95;rx:5")
	canvas.Text(x, y+10, "Voxels", "font-size:13px;font-weight:bold;fill:#e2e8f0")
	entries := []struct {
		name string
		t    voxel.Type
	}{
		{"Forest floor", voxel.ForestFloor}, {"Trunk", voxel.Trunk}, {"Branch", voxel.Branch},
		{"Leaf", voxel.Leaf}, {"Fruit", voxel.Fruit}, {"Platform", voxel.GrownPlatform},
		{"Wall", voxel.Wall}, {"Interior", voxel.BuildingInterior}, {"Ladder", voxel.WoodLadder},
	}
	ly := y + 30
	for _, e := range entries {
		canvas.Rect(x, ly-8, 12, 12, fmt.Sprintf("fill:%s", voxelColor(e.t)))
		canvas.Text(x+18, ly+2, e.name, "font-size:11px;fill:#cbd5e0")
		ly += 18
	}
	if opts.ShowHeatmap {
		ly += 10
		canvas.Text(x, ly, "Stress", "font-size:13px;font-weight:bold;fill:#e2e8f0")
		ly += 18
		for _, h := range []struct {
			name  string
			ratio float64
		}{{"Low", 0.1}, {"Moderate", 0.4}, {"Warning", 0.7}, {"Critical", 1.1}} {
			canvas.Rect(x, ly-8, 12, 12, fmt.Sprintf("fill:%s", heatmapColor(h.ratio)))
			canvas.Text(x+18, ly+2, h.name, "font-size:11px;fill:#cbd5e0")
			ly += 18
		}
	}
}

func drawHeader(canvas *svg.SVG, s *sim.SimState, opts SVGOptions, width int) {
	y := 20
	if opts.Title != "" {
		canvas.Text(width/2, y, opts.Title, "text-anchor:middle;font-size:18px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
		y += 20
	}
	if opts.ShowStats {
		stats := fmt.Sprintf("Tick %d | Trees: %d | Creatures: %d | Structures: %d",
			s.Tick, len(s.Trees), len(s.Creatures), len(s.Structures))
		canvas.Text(width/2, y, stats, "text-anchor:middle;font-size:12px;fill:#a0aec0;font-family:monospace")
	}
}

// SaveSVGToFile renders s and writes it to path as an SVG file.
func SaveSVGToFile(s *sim.SimState, path string, opts SVGOptions) error {
	data, err := ExportSVG(s, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
