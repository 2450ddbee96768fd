package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/wmsopt/backend/internal/models"
)

// Strategy names how a run computes assignments.
type Strategy string

const (
	// StrategyMatching solves a one-task-one-worker assignment problem in process.
	StrategyMatching Strategy = "matching"
	// StrategyRemote delegates to the remote time-boxed scheduler.
	StrategyRemote Strategy = "remote"
)

// ParseStrategy accepts "matching" or "remote"; empty selects def.
func ParseStrategy(s string, def Strategy) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return def, nil
	case StrategyMatching, StrategyRemote:
		return Strategy(s), nil
	}
	return "", validationErrorf("unknown strategy %q", s)
}

// Reasons a task is reported as unassigned.
const (
	ReasonNoWorker          = "no_eligible_worker"
	ReasonDependencyPending = "dependency_pending"
	ReasonNotScheduled      = "not_scheduled"
)

// PlannedTask is one row of a worker schedule. Weight, skill level and
// productivity are set by the matching strategy; time slots and units by the
// remote strategy.
type PlannedTask struct {
	AssignmentID int64      `json:"assignmentId,omitempty"`
	TaskID       int64      `json:"taskId"`
	TaskName     string     `json:"taskName"`
	WorkerID     string     `json:"workerId"`
	WorkerName   string     `json:"workerName"`
	SkillLevel   int        `json:"skillLevel"`
	Productivity int        `json:"productivity"`
	Weight       float64    `json:"weight,omitempty"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	Units        int        `json:"units,omitempty"`
	IsBreak      bool       `json:"isBreak,omitempty"`
}

// WorkerSchedule groups the planned tasks of one worker.
type WorkerSchedule struct {
	WorkerID    string             `json:"workerId"`
	WorkerName  string             `json:"workerName"`
	Assignments []PlannedTask      `json:"assignments"`
	Shifts      []models.ShiftInfo `json:"shifts"`
	Skills      []models.SkillInfo `json:"skills"`
}

// UnassignedTask is a task the run could not place.
type UnassignedTask struct {
	TaskID         int64  `json:"taskId"`
	TaskName       string `json:"taskName"`
	RemainingUnits int    `json:"remainingUnits"`
	Reason         string `json:"reason"`
}

// Plan is the outcome of one committed optimization run.
type Plan struct {
	RunID           uuid.UUID        `json:"runId"`
	Strategy        Strategy         `json:"strategy"`
	CreatedAt       time.Time        `json:"createdAt"`
	Date            string           `json:"date,omitempty"`
	Assigned        int              `json:"assigned"`
	Objective       float64          `json:"objective"`
	Fingerprint     string           `json:"fingerprint,omitempty"`
	ReplacedPending int64            `json:"replacedPending"`
	Schedules       []WorkerSchedule `json:"schedules"`
	Unassigned      []UnassignedTask `json:"unassignedTasks"`
}

// RunState tracks asynchronous runs.
type RunState string

const (
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunSucceeded RunState = "succeeded"
	RunFailed    RunState = "failed"
)

// RunStatus is the last known state of a run on this instance.
type RunStatus struct {
	RunID     uuid.UUID `json:"runId"`
	Strategy  Strategy  `json:"strategy"`
	State     RunState  `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
