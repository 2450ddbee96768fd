package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Request is the body of one remote optimization call.
type Request struct {
	Date    string       `json:"date"`
	Tasks   []TaskSpec   `json:"tasks"`
	Workers []WorkerSpec `json:"workers"`
}

type TaskSpec struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	SkillID      int      `json:"skill_id"`
	Priority     int      `json:"priority"`
	Units        int      `json:"units"`
	Dependencies []string `json:"dependencies"`
	Type         string   `json:"type,omitempty"`
}

type WorkerSpec struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Skills       []int       `json:"skills"`
	Productivity map[int]int `json:"productivity"`
	SkillLevels  map[int]int `json:"skill_levels"`
	ShiftStart   string      `json:"shift_start"`
	ShiftEnd     string      `json:"shift_end"`
	BreakMinutes int         `json:"break_minutes"`
}

// Response is the remote scheduler's answer. Task units may be split over
// several slots and workers; breaks are reported as slots too.
type Response struct {
	Assignments     []Slot           `json:"assignments"`
	UnassignedTasks []UnassignedTask `json:"unassigned_tasks"`
}

type Slot struct {
	WorkerID ID        `json:"worker_id"`
	TaskID   ID        `json:"task_id"`
	TaskName string    `json:"task_name,omitempty"`
	Start    Timestamp `json:"start"`
	End      Timestamp `json:"end"`
	Units    int       `json:"units"`
	IsBreak  bool      `json:"is_break"`
}

type UnassignedTask struct {
	ID             ID     `json:"id"`
	RemainingUnits int    `json:"remaining_units"`
	TaskName       string `json:"task_name,omitempty"`
}

// ID accepts either a JSON string or a JSON number.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(b, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// wallClock is the layout the scheduler uses for local times.
const wallClock = "2006-01-02T15:04:05"

var timestampLayouts = []string{time.RFC3339Nano, wallClock, "2006-01-02T15:04"}

// Timestamp is an ISO-8601 time with or without a zone offset.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(wallClock))
}
