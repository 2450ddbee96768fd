package scheduler

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wmsopt/backend/internal/models"
)

// Shift bounds sent for workers without any shift.
const (
	DefaultShiftStart = "08:00"
	DefaultShiftEnd   = "17:00"
)

// BuildRequest converts a snapshot into the remote request for date.
// Duplicate skills are collapsed to their maxima.
func BuildRequest(date time.Time, tasks []models.Task, workers []models.Worker, breakMinutes int) *Request {
	req := &Request{
		Date:    date.Format(time.DateOnly),
		Tasks:   make([]TaskSpec, 0, len(tasks)),
		Workers: make([]WorkerSpec, 0, len(workers)),
	}
	for _, t := range tasks {
		deps := []string{}
		if t.DependentTaskID != nil {
			deps = append(deps, strconv.FormatInt(*t.DependentTaskID, 10))
		}
		req.Tasks = append(req.Tasks, TaskSpec{
			ID:           strconv.FormatInt(t.ID, 10),
			Name:         t.Name,
			SkillID:      t.SkillID,
			Priority:     t.EffectivePriority(),
			Units:        t.UnitCount,
			Dependencies: deps,
			Type:         t.Type,
		})
	}
	for _, w := range workers {
		spec := WorkerSpec{
			ID:           w.ID,
			Name:         w.Name,
			Skills:       make([]int, 0, len(w.Skills)),
			Productivity: make(map[int]int),
			SkillLevels:  make(map[int]int),
			BreakMinutes: breakMinutes,
		}
		for _, s := range models.CollapseSkills(w.Skills) {
			spec.Skills = append(spec.Skills, s.SkillID)
			spec.Productivity[s.SkillID] = s.Productivity
			spec.SkillLevels[s.SkillID] = s.SkillLevel
		}
		slices.Sort(spec.Skills)
		spec.ShiftStart, spec.ShiftEnd = ShiftWindow(w.Shifts, date.Weekday())
		req.Workers = append(req.Workers, spec)
	}
	return req
}

// ShiftFor returns the shift matching day, by full weekday name or its
// three-letter prefix, case-insensitively. Without a match it falls back to
// the first shift.
func ShiftFor(shifts []models.ShiftInfo, day time.Weekday) (models.ShiftInfo, bool) {
	full := strings.ToUpper(day.String())
	abbr := full[:3]
	for _, s := range shifts {
		d := strings.ToUpper(strings.TrimSpace(s.DayOfWeek))
		if d == "" {
			continue
		}
		if d == full || strings.HasPrefix(d, abbr) {
			return s, true
		}
	}
	if len(shifts) > 0 {
		return shifts[0], true
	}
	return models.ShiftInfo{}, false
}

// ShiftWindow returns the start and end sent for a worker on day.
func ShiftWindow(shifts []models.ShiftInfo, day time.Weekday) (string, string) {
	s, ok := ShiftFor(shifts, day)
	if !ok {
		return DefaultShiftStart, DefaultShiftEnd
	}
	return s.StartTime, s.EndTime
}

// BreakTaskName labels break slots.
const BreakTaskName = "Break"

// fillNames sets missing task names from the request.
func fillNames(req *Request, resp *Response) {
	names := make(map[string]string, len(req.Tasks))
	for _, t := range req.Tasks {
		names[t.ID] = t.Name
	}
	nameOf := func(id ID) string {
		if n, ok := names[string(id)]; ok {
			return n
		}
		return string(id)
	}
	for i := range resp.Assignments {
		a := &resp.Assignments[i]
		switch {
		case a.IsBreak:
			a.TaskName = BreakTaskName
		case a.TaskName == "":
			a.TaskName = nameOf(a.TaskID)
		}
	}
	for i := range resp.UnassignedTasks {
		if resp.UnassignedTasks[i].TaskName == "" {
			resp.UnassignedTasks[i].TaskName = nameOf(resp.UnassignedTasks[i].ID)
		}
	}
}
