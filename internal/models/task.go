package models

import "time"

// DefaultPriority applies to tasks stored without a priority.
const DefaultPriority = 1

// Task is a unit of warehouse work waiting to be assigned.
// JSON field names match the dashboard frontend.
type Task struct {
	ID              int64     `json:"id"`
	SkillID         int       `json:"skillId"`
	Name            string    `json:"taskName"`
	Type            string    `json:"taskType,omitempty"`
	Priority        *int      `json:"priority,omitempty"`
	DependentTaskID *int64    `json:"dependentTaskId,omitempty"`
	UnitCount       int       `json:"taskCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// EffectivePriority returns the task priority, or DefaultPriority when unset.
func (t *Task) EffectivePriority() int {
	if t.Priority == nil {
		return DefaultPriority
	}
	return *t.Priority
}
