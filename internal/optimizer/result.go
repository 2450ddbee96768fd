package optimizer

import (
	"slices"
	"time"

	"github.com/wmsopt/backend/internal/models"
)

// Match is a solved (task, worker) pair with the skill data that produced its weight.
type Match struct {
	Task         models.Task
	Worker       models.Worker
	SkillLevel   int
	Productivity int
	Weight       float64
}

// WorkerGroup lists the matches of one worker.
type WorkerGroup struct {
	WorkerID string
	Matches  []Match
}

// BuildAssignments creates one Pending assignment per match, stamped with at.
// It never touches existing records.
func BuildAssignments(matches []Match, at time.Time) []models.Assignment {
	out := make([]models.Assignment, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.Assignment{
			WorkerID:   m.Worker.ID,
			TaskID:     m.Task.ID,
			AssignedAt: at,
			Status:     models.AssignmentPending,
		})
	}
	return out
}

// GroupByWorker groups matches per worker, ordered by worker id.
func GroupByWorker(matches []Match) []WorkerGroup {
	idx := make(map[string]int)
	var groups []WorkerGroup
	for _, m := range matches {
		i, ok := idx[m.Worker.ID]
		if !ok {
			i = len(groups)
			idx[m.Worker.ID] = i
			groups = append(groups, WorkerGroup{WorkerID: m.Worker.ID})
		}
		groups[i].Matches = append(groups[i].Matches, m)
	}
	slices.SortFunc(groups, func(a, b WorkerGroup) int {
		switch {
		case a.WorkerID < b.WorkerID:
			return -1
		case a.WorkerID > b.WorkerID:
			return 1
		}
		return 0
	})
	return groups
}
