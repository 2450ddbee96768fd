package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/wmsopt/backend/internal/models"
)

// Snapshot is the read-only input of one optimization run.
type Snapshot struct {
	Tasks   []models.Task
	Workers []models.Worker
	History []models.Assignment
}

// Result is the outcome of a successful run.
type Result struct {
	Matches     []Match
	Assignments []models.Assignment
	Objective   float64
	// Unassigned holds eligible tasks that received no worker.
	Unassigned []models.Task
	// Ineligible holds tasks blocked by an unfinished prerequisite.
	Ineligible  []models.Task
	Fingerprint uint64
	RanAt       time.Time
	// Solved is false when the solver was skipped because there was nothing to pair.
	Solved bool
}

// Optimizer runs the eligibility, scoring, solving and building steps.
type Optimizer struct {
	solver Solver
	now    func() time.Time
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithSolver replaces the default HungarianSolver.
func WithSolver(s Solver) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.solver = s
		}
	}
}

// WithClock sets the time source used to stamp assignments.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

func New(opts ...Option) *Optimizer {
	o := &Optimizer{solver: HungarianSolver{}, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run computes a new assignment set for the snapshot. Having no eligible
// tasks or no workers yields an empty result, not an error. Solver failures
// are returned as errors and no partial result is produced.
func (o *Optimizer) Run(ctx context.Context, s Snapshot) (*Result, error) {
	res := &Result{
		RanAt:       o.now(),
		Fingerprint: Fingerprint(s),
		Ineligible:  Ineligible(s.Tasks, s.History),
	}
	eligible := FilterEligible(s.Tasks, s.History)
	if len(eligible) == 0 || len(s.Workers) == 0 {
		res.Unassigned = eligible
		res.Assignments = []models.Assignment{}
		return res, nil
	}

	m := BuildCostMatrix(eligible, s.Workers, s.History)
	pairs, err := o.solver.Solve(ctx, m, len(eligible), len(s.Workers))
	if err != nil {
		return nil, fmt.Errorf("solve %dx%d assignment: %w", len(eligible), len(s.Workers), err)
	}
	if err := checkPairs(m, pairs, len(eligible), len(s.Workers)); err != nil {
		return nil, err
	}

	assigned := make([]bool, len(eligible))
	res.Matches = make([]Match, 0, len(pairs))
	for _, p := range pairs {
		t, w := eligible[p.Task], s.Workers[p.Worker]
		skill, _ := w.Skill(t.SkillID)
		res.Matches = append(res.Matches, Match{
			Task:         t,
			Worker:       w,
			SkillLevel:   skill.SkillLevel,
			Productivity: skill.Productivity,
			Weight:       m[p.Task][p.Worker],
		})
		assigned[p.Task] = true
	}
	for i, t := range eligible {
		if !assigned[i] {
			res.Unassigned = append(res.Unassigned, t)
		}
	}
	res.Objective = Objective(m, pairs)
	res.Assignments = BuildAssignments(res.Matches, res.RanAt)
	res.Solved = true
	return res, nil
}

// checkPairs rejects solver output that breaks the degree constraints or
// selects a sentinel cell.
func checkPairs(m CostMatrix, pairs []Pair, taskCount, workerCount int) error {
	taskSeen := make([]bool, taskCount)
	workerSeen := make([]bool, workerCount)
	for _, p := range pairs {
		if p.Task < 0 || p.Task >= taskCount || p.Worker < 0 || p.Worker >= workerCount {
			return fmt.Errorf("%w: pair (%d,%d) out of range", ErrSolveUnknown, p.Task, p.Worker)
		}
		if taskSeen[p.Task] || workerSeen[p.Worker] {
			return fmt.Errorf("%w: pair (%d,%d) reuses a task or worker", ErrSolveUnknown, p.Task, p.Worker)
		}
		if Forbidden(m[p.Task][p.Worker]) {
			return fmt.Errorf("%w: pair (%d,%d) has sentinel weight", ErrSolveUnknown, p.Task, p.Worker)
		}
		taskSeen[p.Task] = true
		workerSeen[p.Worker] = true
	}
	return nil
}
