package optimizer

import (
	"cmp"
	"encoding/binary"
	"slices"

	"github.com/zeebo/xxh3"

	"github.com/wmsopt/backend/internal/models"
)

// Fingerprint hashes the parts of a snapshot that affect the objective.
// Equal snapshots hash equal regardless of slice order, so callers can tell
// whether a re-run was given unchanged input.
func Fingerprint(s Snapshot) uint64 {
	h := xxh3.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	putString := func(v string) {
		putInt(int64(len(v)))
		_, _ = h.WriteString(v)
	}

	tasks := slices.Clone(s.Tasks)
	slices.SortFunc(tasks, func(a, b models.Task) int { return cmp.Compare(a.ID, b.ID) })
	putInt(int64(len(tasks)))
	for _, t := range tasks {
		putInt(t.ID)
		putInt(int64(t.SkillID))
		putInt(int64(t.EffectivePriority()))
		if t.DependentTaskID != nil {
			putInt(*t.DependentTaskID)
		} else {
			putInt(-1)
		}
	}

	workers := slices.Clone(s.Workers)
	slices.SortFunc(workers, func(a, b models.Worker) int { return cmp.Compare(a.ID, b.ID) })
	putInt(int64(len(workers)))
	for _, w := range workers {
		putString(w.ID)
		skills := models.CollapseSkills(w.Skills)
		slices.SortFunc(skills, func(a, b models.SkillInfo) int { return cmp.Compare(a.SkillID, b.SkillID) })
		putInt(int64(len(skills)))
		for _, sk := range skills {
			putInt(int64(sk.SkillID))
			putInt(int64(sk.SkillLevel))
			putInt(int64(sk.Productivity))
		}
	}

	// Only accepted and rejected records influence eligibility and weights.
	type rec struct {
		worker string
		task   int64
		status models.AssignmentStatus
	}
	var recs []rec
	for _, a := range s.History {
		if a.Status != models.AssignmentPending {
			recs = append(recs, rec{a.WorkerID, a.TaskID, a.Status})
		}
	}
	slices.SortFunc(recs, func(a, b rec) int {
		return cmp.Or(cmp.Compare(a.task, b.task), cmp.Compare(a.worker, b.worker), cmp.Compare(a.status, b.status))
	})
	recs = slices.Compact(recs)
	putInt(int64(len(recs)))
	for _, r := range recs {
		putInt(r.task)
		putString(r.worker)
		putInt(int64(r.status))
	}
	return h.Sum64()
}
