package optimizer

import (
	"slices"

	"github.com/wmsopt/backend/internal/models"
)

// FilterEligible returns the tasks whose prerequisite is satisfied: either the
// task has no dependency, or some assignment for the dependency was accepted.
// A dependency on an unknown task is never satisfied.
//
// The result is ordered by priority, highest first, with unset priorities last.
// Ties keep input order.
func FilterEligible(tasks []models.Task, history []models.Assignment) []models.Task {
	completed := acceptedTasks(history)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.DependentTaskID != nil {
			if _, ok := completed[*t.DependentTaskID]; !ok {
				continue
			}
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, comparePriority)
	return out
}

// Ineligible returns the tasks FilterEligible would drop, in input order.
func Ineligible(tasks []models.Task, history []models.Assignment) []models.Task {
	completed := acceptedTasks(history)
	var out []models.Task
	for _, t := range tasks {
		if t.DependentTaskID == nil {
			continue
		}
		if _, ok := completed[*t.DependentTaskID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func acceptedTasks(history []models.Assignment) map[int64]struct{} {
	done := make(map[int64]struct{})
	for _, a := range history {
		if a.Status == models.AssignmentAccepted {
			done[a.TaskID] = struct{}{}
		}
	}
	return done
}

func comparePriority(a, b models.Task) int {
	switch {
	case a.Priority == nil && b.Priority == nil:
		return 0
	case a.Priority == nil:
		return 1
	case b.Priority == nil:
		return -1
	}
	// descending
	return *b.Priority - *a.Priority
}
