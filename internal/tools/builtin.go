package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/optimizer"
	"github.com/wmsopt/backend/internal/services"
)

// Names of the built-in tools.
const (
	ToolOptimizeAssignments = "optimize_assignments"
	ToolListUnassignedTasks = "list_unassigned_tasks"
	ToolGetWorkerSchedule   = "get_worker_schedule"
)

// Planner is implemented by *services.Planner.
type Planner interface {
	DefaultStrategy() services.Strategy
	Optimize(ctx context.Context, req services.OptimizeRequest) (*services.Plan, error)
}

// TaskLister is implemented by *services.TaskService.
type TaskLister interface {
	List(ctx context.Context) ([]models.Task, error)
}

// WorkerGetter is implemented by *services.WorkerService.
type WorkerGetter interface {
	Get(ctx context.Context, id string) (*models.Worker, error)
}

// AssignmentLister is implemented by *services.AssignmentService.
type AssignmentLister interface {
	List(ctx context.Context) ([]models.Assignment, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Assignment, error)
}

// Deps are the services the built-in tools call.
type Deps struct {
	Planner     Planner
	Tasks       TaskLister
	Workers     WorkerGetter
	Assignments AssignmentLister
}

const optimizeSchema = `{
	"type": "object",
	"properties": {
		"strategy": {"enum": ["matching", "remote"]},
		"replace": {"type": "boolean"}
	},
	"additionalProperties": false
}`

const emptySchema = `{"type": "object", "additionalProperties": false}`

const workerScheduleSchema = `{
	"type": "object",
	"required": ["workerId"],
	"properties": {"workerId": {"type": "string", "minLength": 1}},
	"additionalProperties": false
}`

// NewBuiltin returns a registry holding the three built-in tools.
func NewBuiltin(d Deps) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(ToolOptimizeAssignments,
		"Run an assignment optimization and persist the proposed pairs as Pending.",
		optimizeSchema, d.optimize); err != nil {
		return nil, err
	}
	if err := r.Register(ToolListUnassignedTasks,
		"List tasks without a Pending or Accepted assignment and whether their dependency is satisfied.",
		emptySchema, d.listUnassigned); err != nil {
		return nil, err
	}
	if err := r.Register(ToolGetWorkerSchedule,
		"Return a worker with its skills, shifts and assignments, newest first.",
		workerScheduleSchema, d.workerSchedule); err != nil {
		return nil, err
	}
	return r, nil
}

func (d Deps) optimize(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Strategy string `json:"strategy"`
		Replace  bool   `json:"replace"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	strategy, err := services.ParseStrategy(args.Strategy, d.Planner.DefaultStrategy())
	if err != nil {
		return nil, err
	}
	return d.Planner.Optimize(ctx, services.OptimizeRequest{Strategy: strategy, Replace: args.Replace})
}

// UnassignedTask is one row of list_unassigned_tasks.
type UnassignedTask struct {
	models.Task
	Eligible bool `json:"eligible"`
}

func (d Deps) listUnassigned(ctx context.Context, _ json.RawMessage) (any, error) {
	tasks, err := d.Tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	history, err := d.Assignments.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[int64]struct{})
	for _, a := range history {
		if a.Status != models.AssignmentRejected {
			active[a.TaskID] = struct{}{}
		}
	}
	var open []models.Task
	for _, t := range tasks {
		if _, ok := active[t.ID]; !ok {
			open = append(open, t)
		}
	}
	eligible := make(map[int64]struct{})
	for _, t := range optimizer.FilterEligible(open, history) {
		eligible[t.ID] = struct{}{}
	}
	out := make([]UnassignedTask, 0, len(open))
	for _, t := range open {
		_, ok := eligible[t.ID]
		out = append(out, UnassignedTask{Task: t, Eligible: ok})
	}
	return out, nil
}

// WorkerSchedule is the result of get_worker_schedule.
type WorkerSchedule struct {
	Worker      *models.Worker      `json:"worker"`
	Assignments []models.Assignment `json:"assignments"`
}

func (d Deps) workerSchedule(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		WorkerID string `json:"workerId"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	w, err := d.Workers.Get(ctx, args.WorkerID)
	if err != nil {
		return nil, err
	}
	list, err := d.Assignments.ListByWorker(ctx, args.WorkerID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Assignment{}
	}
	return WorkerSchedule{Worker: w, Assignments: list}, nil
}
