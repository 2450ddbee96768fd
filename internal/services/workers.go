package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wmsopt/backend/internal/models"
)

// ErrDuplicateWorker is returned when a worker id is already taken.
var ErrDuplicateWorker = errors.New("worker id already exists")

// WorkerStore is implemented by *repository.WorkerRepo.
type WorkerStore interface {
	Create(ctx context.Context, w *models.Worker) error
	GetByID(ctx context.Context, id string) (*models.Worker, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Worker, error)
	ListSkills(ctx context.Context) ([]models.SkillInfo, error)
	ListShifts(ctx context.Context) ([]models.ShiftInfo, error)
}

type WorkerService struct {
	store WorkerStore
}

func NewWorkerService(store WorkerStore) *WorkerService {
	return &WorkerService{store: store}
}

func (s *WorkerService) List(ctx context.Context) ([]models.Worker, error) {
	return s.store.List(ctx)
}

func (s *WorkerService) Get(ctx context.Context, id string) (*models.Worker, error) {
	w, err := s.store.GetByID(ctx, id)
	return w, notFound(err)
}

// Create stores a worker. Shifts must not end before they start.
func (s *WorkerService) Create(ctx context.Context, w *models.Worker) error {
	for _, sh := range w.Shifts {
		// "HH:MM" strings compare in time order.
		if sh.EndTime <= sh.StartTime {
			return validationErrorf("shift %d ends at %s, not after its start %s", sh.ShiftID, sh.EndTime, sh.StartTime)
		}
	}
	if err := s.store.Create(ctx, w); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateWorker
		}
		return err
	}
	return nil
}

func (s *WorkerService) Delete(ctx context.Context, id string) error {
	return notFound(s.store.Delete(ctx, id))
}

func (s *WorkerService) Skills(ctx context.Context) ([]models.SkillInfo, error) {
	return s.store.ListSkills(ctx)
}

func (s *WorkerService) Shifts(ctx context.Context) ([]models.ShiftInfo, error) {
	return s.store.ListShifts(ctx)
}
