package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/wmsopt/backend/internal/events"
	"github.com/wmsopt/backend/internal/execution"
	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/optimizer"
	"github.com/wmsopt/backend/internal/scheduler"
)

// TxBeginner is implemented by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TaskSnapshotReader interface {
	ListTx(ctx context.Context, tx pgx.Tx) ([]models.Task, error)
}

type WorkerSnapshotReader interface {
	ListTx(ctx context.Context, tx pgx.Tx) ([]models.Worker, error)
}

// AssignmentStore is the transactional part of the assignment repository used by runs.
type AssignmentStore interface {
	ListTx(ctx context.Context, tx pgx.Tx) ([]models.Assignment, error)
	InsertTx(ctx context.Context, tx pgx.Tx, list []models.Assignment) error
	DeletePendingTx(ctx context.Context, tx pgx.Tx) (int64, error)
}

// RemoteScheduler is implemented by *scheduler.Client.
type RemoteScheduler interface {
	Optimize(ctx context.Context, req *scheduler.Request) (*scheduler.Response, error)
}

// LockTxFunc serializes runs; repository.LockPlanningTx in production.
type LockTxFunc func(ctx context.Context, tx pgx.Tx) error

// InsertOptimizeTxFunc enqueues an optimization job within the given transaction.
// Provided by main using river.Client.InsertTx.
type InsertOptimizeTxFunc func(ctx context.Context, tx pgx.Tx, args execution.OptimizeJobArgs) error

// PlannerConfig holds run defaults.
type PlannerConfig struct {
	DefaultStrategy   Strategy
	SolveTimeout      time.Duration
	SkipAcceptedTasks bool
	BreakMinutes      int
}

// PlannerDeps are the collaborators of a Planner. Remote, InsertJob,
// Publisher and Metrics are optional.
type PlannerDeps struct {
	Pool        TxBeginner
	Tasks       TaskSnapshotReader
	Workers     WorkerSnapshotReader
	Assignments AssignmentStore
	Lock        LockTxFunc
	Optimizer   *optimizer.Optimizer
	Remote      RemoteScheduler
	InsertJob   InsertOptimizeTxFunc
	Publisher   events.Publisher
	Metrics     *Metrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// OptimizeRequest selects how a run behaves.
type OptimizeRequest struct {
	Strategy Strategy
	// Replace deletes Pending assignments before persisting the new plan.
	Replace bool
	// Date is the planning day for the remote strategy; zero means today.
	Date time.Time
}

// Planner runs "read snapshot, solve, persist" as one serialized transaction
// and keeps the latest plan per strategy in memory.
type Planner struct {
	deps   PlannerDeps
	cfg    PlannerConfig
	log    *slog.Logger
	latest *xsync.Map[Strategy, *Plan]
	runs   *xsync.Map[uuid.UUID, RunStatus]
}

func NewPlanner(deps PlannerDeps, cfg PlannerConfig) *Planner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Optimizer == nil {
		deps.Optimizer = optimizer.New()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = StrategyMatching
	}
	return &Planner{
		deps:   deps,
		cfg:    cfg,
		log:    deps.Logger,
		latest: xsync.NewMap[Strategy, *Plan](),
		runs:   xsync.NewMap[uuid.UUID, RunStatus](),
	}
}

// DefaultStrategy is used when a request names none.
func (p *Planner) DefaultStrategy() Strategy {
	return p.cfg.DefaultStrategy
}

// Optimize computes and persists a new plan. On any error nothing is persisted.
func (p *Planner) Optimize(ctx context.Context, req OptimizeRequest) (*Plan, error) {
	return p.run(ctx, uuid.New(), req)
}

// RunOptimization implements execution.PlanRunner for queued runs.
func (p *Planner) RunOptimization(ctx context.Context, args execution.OptimizeJobArgs) error {
	s, err := ParseStrategy(args.Strategy, p.cfg.DefaultStrategy)
	if err != nil {
		return err
	}
	req := OptimizeRequest{Strategy: s, Replace: args.Replace}
	if args.Date != "" {
		if req.Date, err = time.Parse(time.DateOnly, args.Date); err != nil {
			return validationErrorf("run %s: invalid date %q", args.RunID, args.Date)
		}
	}
	_, err = p.run(ctx, args.RunID, req)
	return err
}

// MarkRunFailed implements execution.PlanRunner.
func (p *Planner) MarkRunFailed(_ context.Context, runID uuid.UUID, reason string) {
	st, _ := p.runs.Load(runID)
	st.RunID = runID
	st.State = RunFailed
	st.Error = reason
	st.UpdatedAt = p.deps.Now()
	p.runs.Store(runID, st)
}

// Enqueue schedules a run on the job queue and returns its id.
func (p *Planner) Enqueue(ctx context.Context, req OptimizeRequest) (uuid.UUID, error) {
	if p.deps.InsertJob == nil {
		return uuid.Nil, errors.New("job queue not configured")
	}
	strategy, err := p.resolve(req.Strategy)
	if err != nil {
		return uuid.Nil, err
	}
	tx, err := p.deps.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	args := execution.OptimizeJobArgs{
		RunID:    uuid.New(),
		Strategy: string(strategy),
		Replace:  req.Replace,
	}
	if !req.Date.IsZero() {
		args.Date = req.Date.Format(time.DateOnly)
	}
	if err := p.deps.InsertJob(ctx, tx, args); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue optimization: %w", err)
	}
	// A worker may pick the job up as soon as the commit lands.
	p.setRun(args.RunID, strategy, RunQueued, nil)
	if err := tx.Commit(ctx); err != nil {
		p.runs.Delete(args.RunID)
		return uuid.Nil, err
	}
	return args.RunID, nil
}

// Latest returns the most recent plan for strategy computed on this instance.
func (p *Planner) Latest(strategy Strategy) (*Plan, bool) {
	return p.latest.Load(strategy)
}

// RunStatus returns the state of a run started on this instance.
func (p *Planner) RunStatus(runID uuid.UUID) (RunStatus, bool) {
	return p.runs.Load(runID)
}

func (p *Planner) resolve(s Strategy) (Strategy, error) {
	strategy, err := ParseStrategy(string(s), p.cfg.DefaultStrategy)
	if err != nil {
		return "", err
	}
	if strategy == StrategyRemote && p.deps.Remote == nil {
		return "", ErrRemoteUnavailable
	}
	return strategy, nil
}

func (p *Planner) run(ctx context.Context, runID uuid.UUID, req OptimizeRequest) (*Plan, error) {
	strategy, err := p.resolve(req.Strategy)
	if err != nil {
		return nil, err
	}
	log := p.log.With("run_id", runID, "strategy", strategy)
	p.setRun(runID, strategy, RunRunning, nil)
	start := p.deps.Now()

	plan, err := p.persistPlan(ctx, runID, strategy, req)
	p.deps.Metrics.observeRun(string(strategy), plan, p.deps.Now().Sub(start), err)
	if err != nil {
		p.setRun(runID, strategy, RunFailed, err)
		log.Error("optimization run failed", "error", err)
		return nil, err
	}
	p.latest.Store(strategy, plan)
	p.setRun(runID, strategy, RunSucceeded, nil)
	log.Info("optimization run committed",
		"assigned", plan.Assigned,
		"unassigned", len(plan.Unassigned),
		"objective", plan.Objective,
		"replaced_pending", plan.ReplacedPending,
	)

	if err := p.deps.Publisher.Publish(ctx, events.SubjectPlanProposed, events.PlanProposed{
		RunID:       runID,
		Strategy:    string(strategy),
		Assigned:    plan.Assigned,
		Unassigned:  len(plan.Unassigned),
		Objective:   plan.Objective,
		Fingerprint: plan.Fingerprint,
		At:          plan.CreatedAt,
	}); err != nil {
		log.Warn("publish plan event failed", "error", err)
	}
	return plan, nil
}

type snapshot struct {
	optimizer.Snapshot
	// skipped holds tasks left out because they already have an active assignment.
	skipped int
}

func (p *Planner) persistPlan(ctx context.Context, runID uuid.UUID, strategy Strategy, req OptimizeRequest) (*Plan, error) {
	tx, err := p.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback(ctx)

	if p.deps.Lock != nil {
		if err := p.deps.Lock(ctx, tx); err != nil {
			return nil, fmt.Errorf("acquire planning lock: %w", err)
		}
	}

	var replaced int64
	if req.Replace {
		if replaced, err = p.deps.Assignments.DeletePendingTx(ctx, tx); err != nil {
			return nil, fmt.Errorf("delete pending assignments: %w", err)
		}
	}

	snap, err := p.readSnapshot(ctx, tx)
	if err != nil {
		return nil, err
	}
	p.log.Debug("snapshot read",
		"run_id", runID,
		"tasks", len(snap.Tasks),
		"workers", len(snap.Workers),
		"history", len(snap.History),
		"skipped_tasks", snap.skipped,
	)

	var plan *Plan
	switch strategy {
	case StrategyRemote:
		plan, err = p.planRemote(ctx, tx, snap, req.Date)
	default:
		plan, err = p.planMatching(ctx, tx, snap)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	plan.RunID = runID
	plan.Strategy = strategy
	plan.ReplacedPending = replaced
	return plan, nil
}

// readSnapshot loads tasks, workers and history inside tx. Tasks that already
// hold a Pending assignment, and with SkipAcceptedTasks also an Accepted one,
// are not planned again. The full history is kept for eligibility and weights.
func (p *Planner) readSnapshot(ctx context.Context, tx pgx.Tx) (*snapshot, error) {
	tasks, err := p.deps.Tasks.ListTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	workers, err := p.deps.Workers.ListTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("read workers: %w", err)
	}
	history, err := p.deps.Assignments.ListTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("read assignments: %w", err)
	}

	active := make(map[int64]struct{})
	for _, a := range history {
		if a.Status == models.AssignmentPending ||
			(p.cfg.SkipAcceptedTasks && a.Status == models.AssignmentAccepted) {
			active[a.TaskID] = struct{}{}
		}
	}
	s := &snapshot{Snapshot: optimizer.Snapshot{Workers: workers, History: history}}
	for _, t := range tasks {
		if _, ok := active[t.ID]; ok {
			s.skipped++
			continue
		}
		s.Tasks = append(s.Tasks, t)
	}
	return s, nil
}

func (p *Planner) solveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.SolveTimeout > 0 {
		return context.WithTimeout(ctx, p.cfg.SolveTimeout)
	}
	return context.WithCancel(ctx)
}

func (p *Planner) planMatching(ctx context.Context, tx pgx.Tx, snap *snapshot) (*Plan, error) {
	solveCtx, cancel := p.solveContext(ctx)
	res, err := p.deps.Optimizer.Run(solveCtx, snap.Snapshot)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := p.deps.Assignments.InsertTx(ctx, tx, res.Assignments); err != nil {
		return nil, fmt.Errorf("persist assignments: %w", err)
	}

	ids := make(map[int64]int64, len(res.Assignments))
	for _, a := range res.Assignments {
		ids[a.TaskID] = a.ID
	}
	plan := &Plan{
		CreatedAt:   res.RanAt,
		Assigned:    len(res.Matches),
		Objective:   res.Objective,
		Fingerprint: strconv.FormatUint(res.Fingerprint, 16),
		Schedules:   schedulesFor(snap.Workers),
		Unassigned:  []UnassignedTask{},
	}
	byWorker := scheduleIndex(plan.Schedules)
	for _, g := range optimizer.GroupByWorker(res.Matches) {
		sch := &plan.Schedules[byWorker[g.WorkerID]]
		for _, m := range g.Matches {
			sch.Assignments = append(sch.Assignments, PlannedTask{
				AssignmentID: ids[m.Task.ID],
				TaskID:       m.Task.ID,
				TaskName:     m.Task.Name,
				WorkerID:     m.Worker.ID,
				WorkerName:   m.Worker.Name,
				SkillLevel:   m.SkillLevel,
				Productivity: m.Productivity,
				Weight:       m.Weight,
				Units:        m.Task.UnitCount,
			})
		}
	}
	for _, t := range res.Unassigned {
		plan.Unassigned = append(plan.Unassigned, UnassignedTask{
			TaskID: t.ID, TaskName: t.Name, RemainingUnits: t.UnitCount, Reason: ReasonNoWorker,
		})
	}
	for _, t := range res.Ineligible {
		plan.Unassigned = append(plan.Unassigned, UnassignedTask{
			TaskID: t.ID, TaskName: t.Name, RemainingUnits: t.UnitCount, Reason: ReasonDependencyPending,
		})
	}
	return plan, nil
}

// planRemote delegates to the remote scheduler. The response is fully
// checked before anything is written; every distinct (worker, task) pair in
// it becomes one Pending assignment.
func (p *Planner) planRemote(ctx context.Context, tx pgx.Tx, snap *snapshot, date time.Time) (*Plan, error) {
	now := p.deps.Now()
	if date.IsZero() {
		date = now
	}
	req := scheduler.BuildRequest(date, snap.Tasks, snap.Workers, p.cfg.BreakMinutes)

	callCtx, cancel := p.solveContext(ctx)
	resp, err := p.deps.Remote.Optimize(callCtx, req)
	cancel()
	if err != nil {
		return nil, err
	}

	tasks := make(map[int64]models.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		tasks[t.ID] = t
	}
	plan := &Plan{
		CreatedAt:  now,
		Date:       req.Date,
		Schedules:  schedulesFor(snap.Workers),
		Unassigned: []UnassignedTask{},
	}
	byWorker := scheduleIndex(plan.Schedules)
	for i := range plan.Schedules {
		if s, ok := scheduler.ShiftFor(snap.Workers[i].Shifts, date.Weekday()); ok {
			plan.Schedules[i].Shifts = []models.ShiftInfo{s}
		} else {
			plan.Schedules[i].Shifts = []models.ShiftInfo{}
		}
	}

	rejected := rejectedPairs(snap.History)
	seen := make(map[workerTask]int)
	var records []models.Assignment

	for i, slot := range resp.Assignments {
		wi, ok := byWorker[string(slot.WorkerID)]
		if !ok {
			return nil, fmt.Errorf("%w: slot %d names unknown worker %q", scheduler.ErrMalformedResponse, i, slot.WorkerID)
		}
		sch := &plan.Schedules[wi]
		start, end := slot.Start.Time, slot.End.Time
		row := PlannedTask{
			TaskName:   slot.TaskName,
			WorkerID:   sch.WorkerID,
			WorkerName: sch.WorkerName,
			Start:      &start,
			End:        &end,
			Units:      slot.Units,
			IsBreak:    slot.IsBreak,
		}
		if slot.IsBreak {
			sch.Assignments = append(sch.Assignments, row)
			continue
		}
		taskID, err := strconv.ParseInt(string(slot.TaskID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d task id %q", scheduler.ErrMalformedResponse, i, slot.TaskID)
		}
		t, ok := tasks[taskID]
		if !ok {
			return nil, fmt.Errorf("%w: slot %d names unknown task %d", scheduler.ErrMalformedResponse, i, taskID)
		}
		row.TaskID = taskID
		w := snap.Workers[wi]
		if skill, ok := w.Skill(t.SkillID); ok {
			row.SkillLevel, row.Productivity = skill.SkillLevel, skill.Productivity
		}
		sch.Assignments = append(sch.Assignments, row)

		key := workerTask{worker: w.ID, task: taskID}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, ok := rejected[key]; ok {
			p.log.Warn("remote scheduler proposed a rejected pair, not persisting it",
				"worker_id", w.ID, "task_id", taskID)
			continue
		}
		seen[key] = len(records)
		records = append(records, models.Assignment{
			WorkerID:   w.ID,
			TaskID:     taskID,
			AssignedAt: now,
			Status:     models.AssignmentPending,
		})
	}

	for _, u := range resp.UnassignedTasks {
		id, err := strconv.ParseInt(string(u.ID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: unassigned task id %q", scheduler.ErrMalformedResponse, u.ID)
		}
		plan.Unassigned = append(plan.Unassigned, UnassignedTask{
			TaskID: id, TaskName: u.TaskName, RemainingUnits: u.RemainingUnits, Reason: ReasonNotScheduled,
		})
	}

	if err := p.deps.Assignments.InsertTx(ctx, tx, records); err != nil {
		return nil, fmt.Errorf("persist assignments: %w", err)
	}
	for i := range plan.Schedules {
		for j := range plan.Schedules[i].Assignments {
			r := &plan.Schedules[i].Assignments[j]
			if idx, ok := seen[workerTask{worker: r.WorkerID, task: r.TaskID}]; ok && !r.IsBreak {
				r.AssignmentID = records[idx].ID
			}
		}
	}
	plan.Assigned = len(records)
	return plan, nil
}

type workerTask struct {
	worker string
	task   int64
}

func rejectedPairs(history []models.Assignment) map[workerTask]struct{} {
	out := make(map[workerTask]struct{})
	for _, a := range history {
		if a.Status == models.AssignmentRejected {
			out[workerTask{worker: a.WorkerID, task: a.TaskID}] = struct{}{}
		}
	}
	return out
}

// schedulesFor returns one empty schedule per worker, in snapshot order.
func schedulesFor(workers []models.Worker) []WorkerSchedule {
	out := make([]WorkerSchedule, 0, len(workers))
	for _, w := range workers {
		shifts := w.Shifts
		if shifts == nil {
			shifts = []models.ShiftInfo{}
		}
		out = append(out, WorkerSchedule{
			WorkerID:    w.ID,
			WorkerName:  w.Name,
			Assignments: []PlannedTask{},
			Shifts:      shifts,
			Skills:      models.CollapseSkills(w.Skills),
		})
	}
	return out
}

func scheduleIndex(s []WorkerSchedule) map[string]int {
	idx := make(map[string]int, len(s))
	for i, sch := range s {
		idx[sch.WorkerID] = i
	}
	return idx
}

func (p *Planner) setRun(runID uuid.UUID, strategy Strategy, state RunState, err error) {
	st := RunStatus{RunID: runID, Strategy: strategy, State: state, UpdatedAt: p.deps.Now()}
	if err != nil {
		st.Error = err.Error()
	}
	p.runs.Store(runID, st)
}
