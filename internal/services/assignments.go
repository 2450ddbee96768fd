package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wmsopt/backend/internal/events"
	"github.com/wmsopt/backend/internal/models"
)

// AssignmentRecordStore is implemented by *repository.AssignmentRepo.
type AssignmentRecordStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	GetByID(ctx context.Context, id int64) (*models.Assignment, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.Assignment, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Assignment, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*models.Assignment, error)
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status models.AssignmentStatus, feedback *string) error
}

// AssignmentService manages assignment records and the supervisor review flow.
type AssignmentService struct {
	pool      TxBeginner
	store     AssignmentRecordStore
	tasks     TaskStore
	workers   WorkerStore
	publisher events.Publisher
	metrics   *Metrics
	log       *slog.Logger
	now       func() time.Time
}

func NewAssignmentService(pool TxBeginner, store AssignmentRecordStore, tasks TaskStore, workers WorkerStore,
	publisher events.Publisher, metrics *Metrics, logger *slog.Logger) *AssignmentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentService{
		pool:      pool,
		store:     store,
		tasks:     tasks,
		workers:   workers,
		publisher: publisher,
		metrics:   metrics,
		log:       logger,
		now:       time.Now,
	}
}

func (s *AssignmentService) List(ctx context.Context) ([]models.Assignment, error) {
	return s.store.List(ctx)
}

func (s *AssignmentService) ListByWorker(ctx context.Context, workerID string) ([]models.Assignment, error) {
	return s.store.ListByWorker(ctx, workerID)
}

func (s *AssignmentService) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	a, err := s.store.GetByID(ctx, id)
	return a, notFound(err)
}

// Create stores a manual assignment. The worker and task must exist.
func (s *AssignmentService) Create(ctx context.Context, a *models.Assignment) error {
	if _, err := s.tasks.GetByID(ctx, a.TaskID); err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return validationErrorf("task %d does not exist", a.TaskID)
		}
		return err
	}
	if _, err := s.workers.GetByID(ctx, a.WorkerID); err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return validationErrorf("worker %q does not exist", a.WorkerID)
		}
		return err
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = s.now()
	}
	return s.store.Create(ctx, a)
}

func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	return notFound(s.store.Delete(ctx, id))
}

// Accept marks a Pending assignment Accepted, which releases tasks depending on its task.
func (s *AssignmentService) Accept(ctx context.Context, id int64) (*models.Assignment, error) {
	return s.transition(ctx, id, models.AssignmentAccepted, nil)
}

// Reject marks a Pending assignment Rejected. Later runs never pair the same
// worker and task again.
func (s *AssignmentService) Reject(ctx context.Context, id int64, feedback string) (*models.Assignment, error) {
	var fb *string
	if feedback != "" {
		fb = &feedback
	}
	return s.transition(ctx, id, models.AssignmentRejected, fb)
}

// CanTransition reports whether a review may move an assignment from one
// status to another. Repeating the current status is allowed.
func CanTransition(from, to models.AssignmentStatus) bool {
	if from == to {
		return true
	}
	return from == models.AssignmentPending &&
		(to == models.AssignmentAccepted || to == models.AssignmentRejected)
}

func (s *AssignmentService) transition(ctx context.Context, id int64, to models.AssignmentStatus, feedback *string) (*models.Assignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := s.store.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, to)
	}
	if a.Status == to {
		return a, nil
	}
	if err := s.store.UpdateStatusTx(ctx, tx, id, to, feedback); err != nil {
		return nil, notFound(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	a.Status = to
	a.Feedback = feedback
	s.metrics.observeReview(to.String())
	s.log.Info("assignment reviewed", "assignment_id", id, "worker_id", a.WorkerID, "task_id", a.TaskID, "status", to)
	if err := s.publisher.Publish(ctx, events.SubjectStatusChanged, events.StatusChanged{
		AssignmentID: a.ID,
		WorkerID:     a.WorkerID,
		TaskID:       a.TaskID,
		Status:       to.String(),
		At:           s.now(),
	}); err != nil {
		s.log.Warn("publish status event failed", "assignment_id", id, "error", err)
	}
	return a, nil
}
