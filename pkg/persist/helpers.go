package persist

import (
	"sort"

	"github.com/elvencanopy/canopy/pkg/sim"
)

func sortedTreeIDs(m map[sim.TreeID]*sim.Tree) []sim.TreeID {
	ids := make([]sim.TreeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedCreatureIDs(m map[sim.CreatureID]*sim.Creature) []sim.CreatureID {
	ids := make([]sim.CreatureID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedTaskIDs(m map[sim.TaskID]*sim.Task) []sim.TaskID {
	ids := make([]sim.TaskID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedBlueprintIDs(m map[sim.ProjectID]*sim.Blueprint) []sim.ProjectID {
	ids := make([]sim.ProjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedStructureIDs(m map[sim.StructureID]*sim.Structure) []sim.StructureID {
	ids := make([]sim.StructureID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
