package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/wmsopt/backend/internal/optimizer"
	"github.com/wmsopt/backend/internal/scheduler"
)

type OptimizeJobArgs struct {
	RunID    uuid.UUID `json:"run_id"`
	Strategy string    `json:"strategy"`
	Replace  bool      `json:"replace"`
	// Date is the remote planning day as YYYY-MM-DD; empty means the day the job runs.
	Date string `json:"date,omitempty"`
}

func (OptimizeJobArgs) Kind() string { return "optimize_assignments" }

// InsertOpts caps retries; fatal errors cancel the job before that.
func (OptimizeJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 3}
}

// PlanRunner defines the contract the worker needs to execute a run and report failure.
type PlanRunner interface {
	RunOptimization(ctx context.Context, args OptimizeJobArgs) error
	MarkRunFailed(ctx context.Context, runID uuid.UUID, reason string)
}

type OptimizeWorker struct {
	river.WorkerDefaults[OptimizeJobArgs]
	runner  PlanRunner
	timeout time.Duration
	log     *slog.Logger
}

// NewOptimizeWorker returns a worker whose jobs time out after timeout
// (River's default when zero).
func NewOptimizeWorker(runner PlanRunner, timeout time.Duration, log *slog.Logger) *OptimizeWorker {
	if log == nil {
		log = slog.Default()
	}
	return &OptimizeWorker{runner: runner, timeout: timeout, log: log}
}

func (w *OptimizeWorker) Timeout(*river.Job[OptimizeJobArgs]) time.Duration {
	return w.timeout
}

func (w *OptimizeWorker) Work(ctx context.Context, job *river.Job[OptimizeJobArgs]) error {
	args := job.Args
	err := w.runner.RunOptimization(ctx, args)
	if err == nil {
		return nil
	}
	if Fatal(err) {
		w.runner.MarkRunFailed(ctx, args.RunID, err.Error())
		w.log.Error("optimization job cancelled", "run_id", args.RunID, "error", err)
		return river.JobCancel(err)
	}
	if job.Attempt >= job.MaxAttempts {
		w.runner.MarkRunFailed(ctx, args.RunID, err.Error())
	}
	return fmt.Errorf("optimization run %s: %w", args.RunID, err)
}

// Fatal reports whether retrying err cannot succeed without a data or
// configuration change. A solve that ran out of its time budget counts as
// fatal like an unknown result; a solve interrupted by shutdown does not.
func Fatal(err error) bool {
	return errors.Is(err, optimizer.ErrInvalidMatrix) ||
		errors.Is(err, optimizer.ErrSolveUnknown) ||
		errors.Is(err, scheduler.ErrMalformedResponse) ||
		(errors.Is(err, optimizer.ErrSolveCanceled) && errors.Is(err, context.DeadlineExceeded))
}
