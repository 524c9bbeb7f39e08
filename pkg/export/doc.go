// Package export renders a SimState to SVG for debugging: a top-down map
// of the ground floor, the trunk's canopy footprint, and a structural
// stress heatmap, adapted from the teacher's pkg/export SVG visualizer
// (which rendered a dungeon's room graph) to a voxel world's top-down
// projection.
package export
