package models

// SkillInfo is one competency held by a worker.
type SkillInfo struct {
	SkillID      int    `json:"skillId"`
	SkillName    string `json:"skillName,omitempty"`
	SkillLevel   int    `json:"skillLevel"`
	Productivity int    `json:"productivity"`
}

// ShiftInfo is a weekly working window. Times are "HH:MM".
type ShiftInfo struct {
	ShiftID   int    `json:"shiftId"`
	ShiftName string `json:"shiftName,omitempty"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	DayOfWeek string `json:"dayOfWeek"`
}

type Worker struct {
	ID     string      `json:"workerId"`
	Name   string      `json:"workerName"`
	Age    int         `json:"age"`
	Skills []SkillInfo `json:"skills"`
	Shifts []ShiftInfo `json:"shifts"`
}

// Skill returns the worker's entry for skillID. When the worker lists the
// same skill more than once, level and productivity are the maxima across entries.
func (w *Worker) Skill(skillID int) (SkillInfo, bool) {
	var (
		out   SkillInfo
		found bool
	)
	for _, s := range w.Skills {
		if s.SkillID != skillID {
			continue
		}
		if !found {
			out = s
			found = true
			continue
		}
		out.SkillLevel = max(out.SkillLevel, s.SkillLevel)
		out.Productivity = max(out.Productivity, s.Productivity)
	}
	return out, found
}

// CollapseSkills returns one entry per skill id, keeping the highest level
// and productivity, in first-seen order.
func CollapseSkills(skills []SkillInfo) []SkillInfo {
	idx := make(map[int]int, len(skills))
	out := make([]SkillInfo, 0, len(skills))
	for _, s := range skills {
		i, ok := idx[s.SkillID]
		if !ok {
			idx[s.SkillID] = len(out)
			out = append(out, s)
			continue
		}
		out[i].SkillLevel = max(out[i].SkillLevel, s.SkillLevel)
		out[i].Productivity = max(out[i].Productivity, s.Productivity)
		if out[i].SkillName == "" {
			out[i].SkillName = s.SkillName
		}
	}
	return out
}
