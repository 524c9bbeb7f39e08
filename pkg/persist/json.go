package persist

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/elvencanopy/canopy/pkg/sim"
)

// ToJSON renders a Snapshot as indented JSON, the on-disk save-game format.
func (snap Snapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// FromJSON parses a Snapshot from its JSON form.
func FromJSON(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("persist: parsing snapshot json: %w", err)
	}
	return snap, nil
}

// SaveToFile captures s and writes it to path as indented JSON.
func SaveToFile(s *sim.SimState, path string) error {
	data, err := Capture(s).ToJSON()
	if err != nil {
		return fmt.Errorf("persist: encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("persist: writing %s: %w", path, err)
	}
	return nil
}

// LoadFromFile reads a Snapshot from path and rebuilds a live SimState
// from it.
func LoadFromFile(path string) (*sim.SimState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: reading %s: %w", path, err)
	}
	snap, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return Rebuild(snap)
}
