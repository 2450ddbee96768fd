package optimizer

import (
	"github.com/wmsopt/backend/internal/models"
)

// SentinelLow marks a pair that must not be selected: the worker lacks the
// required skill or already rejected the task. Realistic skill-matched
// weights (priority, level and productivity each well below 10^4) stay far above it.
const SentinelLow = -1e12

// CostMatrix holds one row per task and one column per worker.
type CostMatrix [][]float64

// Forbidden reports whether w is a sentinel weight.
func Forbidden(w float64) bool {
	return w <= SentinelLow
}

// usable reports whether a solver may select a cell of weight w. Negative
// weights, sentinels included, score below leaving the task unassigned.
func usable(w float64) bool {
	return w >= 0
}

type pairKey struct {
	workerID string
	taskID   int64
}

// rejectedPairs indexes the (worker, task) pairs rejected in history.
func rejectedPairs(history []models.Assignment) map[pairKey]struct{} {
	out := make(map[pairKey]struct{})
	for _, a := range history {
		if a.Status == models.AssignmentRejected {
			out[pairKey{workerID: a.WorkerID, taskID: a.TaskID}] = struct{}{}
		}
	}
	return out
}

// Weight scores one pair as priority * skill level * productivity.
func Weight(t models.Task, w models.Worker, rejected bool) float64 {
	if rejected {
		return SentinelLow
	}
	skill, ok := w.Skill(t.SkillID)
	if !ok {
		return SentinelLow
	}
	return float64(t.EffectivePriority()) * float64(skill.SkillLevel) * float64(skill.Productivity)
}

// BuildCostMatrix scores every (task, worker) pair.
func BuildCostMatrix(tasks []models.Task, workers []models.Worker, history []models.Assignment) CostMatrix {
	rejected := rejectedPairs(history)
	m := make(CostMatrix, len(tasks))
	for i, t := range tasks {
		row := make([]float64, len(workers))
		for j, w := range workers {
			_, isRejected := rejected[pairKey{workerID: w.ID, taskID: t.ID}]
			row[j] = Weight(t, w, isRejected)
		}
		m[i] = row
	}
	return m
}
