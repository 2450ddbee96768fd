package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gammazero/toposort"
	"github.com/jackc/pgx/v5"

	"github.com/wmsopt/backend/internal/models"
)

// TaskStore is implemented by *repository.TaskRepo.
type TaskStore interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.Task, error)
}

type TaskService struct {
	store TaskStore
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	return s.store.List(ctx)
}

func (s *TaskService) Get(ctx context.Context, id int64) (*models.Task, error) {
	t, err := s.store.GetByID(ctx, id)
	return t, notFound(err)
}

// Create stores a new task. A dependency must name an existing task.
func (s *TaskService) Create(ctx context.Context, t *models.Task) error {
	if t.UnitCount == 0 {
		t.UnitCount = 1
	}
	if t.DependentTaskID != nil {
		if _, err := s.store.GetByID(ctx, *t.DependentTaskID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return validationErrorf("dependent task %d does not exist", *t.DependentTaskID)
			}
			return err
		}
	}
	return s.store.Create(ctx, t)
}

// Update replaces a task, refusing changes that would make the dependency
// graph cyclic.
func (s *TaskService) Update(ctx context.Context, t *models.Task) error {
	if t.UnitCount == 0 {
		t.UnitCount = 1
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range all {
		if all[i].ID == t.ID {
			all[i] = *t
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	if err := CheckDependencies(all); err != nil {
		return err
	}
	return notFound(s.store.Update(ctx, t))
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return notFound(s.store.Delete(ctx, id))
}

// CheckDependencies fails with ErrDependencyCycle when the dependency
// edges among tasks contain a cycle. Dependencies on unknown tasks are allowed.
func CheckDependencies(tasks []models.Task) error {
	edges := make([]toposort.Edge, 0, len(tasks))
	for _, t := range tasks {
		if t.DependentTaskID == nil {
			edges = append(edges, toposort.Edge{nil, t.ID})
			continue
		}
		if *t.DependentTaskID == t.ID {
			return fmt.Errorf("%w: task %d depends on itself", ErrDependencyCycle, t.ID)
		}
		edges = append(edges, toposort.Edge{*t.DependentTaskID, t.ID})
	}
	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("%w: %v", ErrDependencyCycle, err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
