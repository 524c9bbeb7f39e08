// Command canopysim runs a headless simulation for a fixed number of
// ticks and exports the result, mirroring the teacher's dungeongen CLI:
// a flag-driven single-shot tool rather than a long-running server.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/elvencanopy/canopy/pkg/config"
	"github.com/elvencanopy/canopy/pkg/export"
	"github.com/elvencanopy/canopy/pkg/persist"
	"github.com/elvencanopy/canopy/pkg/sim"
)

const version = "0.1.0"

var (
	configPath = flag.String("config", "", "Path to YAML configuration file (default: built-in defaults)")
	outputDir  = flag.String("output", ".", "Output directory for generated files")
	format     = flag.String("format", "json", "Export format: json, svg, or all")
	seedFlag   = flag.Uint64("seed", 1, "Deterministic PRNG seed")
	ticks      = flag.Uint64("ticks", 1000, "Number of ticks to simulate before exporting")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	versionF   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Printf("canopysim version %s\n", version)
		os.Exit(0)
	}

	validFormats := map[string]bool{"json": true, "svg": true, "all": true}
	if !validFormats[*format] {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q, must be one of: json, svg, all\n", *format)
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		if *verbose {
			fmt.Printf("Loading configuration from %s\n", *configPath)
		}
		loaded, err := config.LoadYAML(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if *verbose {
		fmt.Printf("Using seed: %d\n", *seedFlag)
		fmt.Printf("World size: %dx%dx%d\n", cfg.WorldSize.X, cfg.WorldSize.Y, cfg.WorldSize.Z)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	state, err := sim.NewSimState(cfg, *seedFlag)
	if err != nil {
		return fmt.Errorf("failed to initialize simulation: %w", err)
	}

	start := time.Now()
	if *verbose {
		fmt.Printf("Simulating %d ticks...\n", *ticks)
	}
	state.Step(nil, *ticks)
	elapsed := time.Since(start)

	if *verbose {
		printStats(state, elapsed)
	}

	baseName := fmt.Sprintf("canopy_%d_t%d", *seedFlag, state.Tick)

	if *format == "json" || *format == "all" {
		if err := exportJSON(state, baseName); err != nil {
			return err
		}
	}
	if *format == "svg" || *format == "all" {
		if err := exportSVG(state, baseName); err != nil {
			return err
		}
	}

	fmt.Printf("Successfully simulated to tick %d (seed=%d) in %v\n", state.Tick, *seedFlag, elapsed)
	return nil
}

func exportJSON(state *sim.SimState, baseName string) error {
	filename := filepath.Join(*outputDir, baseName+".json")
	if *verbose {
		fmt.Printf("Exporting snapshot to %s\n", filename)
	}
	if err := persist.SaveToFile(state, filename); err != nil {
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	return nil
}

func exportSVG(state *sim.SimState, baseName string) error {
	filename := filepath.Join(*outputDir, baseName+".svg")
	if *verbose {
		fmt.Printf("Exporting debug map to %s\n", filename)
	}
	opts := export.DefaultSVGOptions()
	opts.Title = fmt.Sprintf("Canopy (seed=%d, tick=%d)", *seedFlag, state.Tick)
	if err := export.SaveSVGToFile(state, filename, opts); err != nil {
		return fmt.Errorf("failed to export debug map: %w", err)
	}
	return nil
}

func printStats(state *sim.SimState, elapsed time.Duration) {
	fmt.Printf("Simulation completed in %v\n", elapsed)
	fmt.Println("\nColony Statistics:")
	fmt.Printf("  Trees: %d\n", len(state.Trees))
	fmt.Printf("  Creatures: %d\n", len(state.Creatures))
	fmt.Printf("  Tasks: %d\n", len(state.Tasks))
	fmt.Printf("  Blueprints: %d\n", len(state.Blueprints))
	fmt.Printf("  Structures: %d\n", len(state.Structures))
}
