package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/services"
)

// TaskService is implemented by *services.TaskService.
type TaskService interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, t *models.Task) error
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id int64) error
}

// PayloadValidator is implemented by *services.Validator.
type PayloadValidator interface {
	Validate(kind string, payload []byte) error
}

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	Tasks     TaskService
	Validator PayloadValidator
	Logger    *slog.Logger
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decode(w, r)
	if !ok {
		return
	}
	t.ID = 0
	if err := h.Tasks.Create(r.Context(), t); err != nil {
		writeError(w, h.Logger, "create task", err)
		return
	}
	h.Logger.Info("task created", "task_id", t.ID, "skill_id", t.SkillID)
	writeJSON(w, http.StatusCreated, t)
}

// Update handles PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, ok := h.decode(w, r)
	if !ok {
		return
	}
	t.ID = id
	if err := h.Tasks.Update(r.Context(), t); err != nil {
		writeError(w, h.Logger, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := h.Tasks.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request) (*models.Task, bool) {
	body, err := readBody(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "cannot read body")
		return nil, false
	}
	if err := h.Validator.Validate(services.SchemaTask, body); err != nil {
		writeError(w, h.Logger, "validate task", err)
		return nil, false
	}
	var t models.Task
	if err := json.Unmarshal(body, &t); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	return &t, true
}
