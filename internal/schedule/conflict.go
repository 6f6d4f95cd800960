package schedule

import "sort"

// ConflictPair names two tasks occupying the same workstation at overlapping
// times. Pairs are normalized so A < B by task ID.
type ConflictPair struct {
	A string
	B string
}

func newPair(a, b string) ConflictPair {
	if b < a {
		a, b = b, a
	}
	return ConflictPair{A: a, B: b}
}

// DetectConflicts returns every pair of tasks sharing a workstation whose
// [start, end) intervals overlap. Pure function; conflicts are derived state
// and recomputed on every merge, never persisted.
//
// Per workstation the tasks are sorted by start time (ties broken by task ID
// for determinism) and swept with a list of still-active predecessors, so a
// task overlapping several earlier tasks emits a pair for each of them.
func DetectConflicts(tasks []Task) []ConflictPair {
	byStation := make(map[string][]Task)
	for _, t := range tasks {
		byStation[t.WorkstationID] = append(byStation[t.WorkstationID], t)
	}

	var pairs []ConflictPair
	for _, group := range byStation {
		sort.Slice(group, func(i, j int) bool {
			if group[i].StartTime.Equal(group[j].StartTime) {
				return group[i].ID < group[j].ID
			}
			return group[i].StartTime.Before(group[j].StartTime)
		})

		// active holds earlier tasks whose end lies beyond the sweep point.
		var active []Task
		for _, t := range group {
			kept := active[:0]
			for _, prev := range active {
				if t.StartTime.Before(prev.End()) {
					pairs = append(pairs, newPair(prev.ID, t.ID))
					kept = append(kept, prev)
				}
			}
			active = append(kept, t)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A == pairs[j].A {
			return pairs[i].B < pairs[j].B
		}
		return pairs[i].A < pairs[j].A
	})
	return pairs
}

// ConflictingIDs flattens conflict pairs into the set of involved task IDs.
func ConflictingIDs(pairs []ConflictPair) map[string]bool {
	ids := make(map[string]bool, len(pairs)*2)
	for _, p := range pairs {
		ids[p.A] = true
		ids[p.B] = true
	}
	return ids
}
