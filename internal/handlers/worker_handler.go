package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/services"
)

// WorkerService is implemented by *services.WorkerService.
type WorkerService interface {
	List(ctx context.Context) ([]models.Worker, error)
	Get(ctx context.Context, id string) (*models.Worker, error)
	Create(ctx context.Context, w *models.Worker) error
	Delete(ctx context.Context, id string) error
	Skills(ctx context.Context) ([]models.SkillInfo, error)
	Shifts(ctx context.Context) ([]models.ShiftInfo, error)
}

// WorkerHandler serves /api/workers, /api/skills and /api/shifts.
type WorkerHandler struct {
	Workers   WorkerService
	Validator PayloadValidator
	Logger    *slog.Logger
}

// List handles GET /api/workers.
func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Workers.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list workers", err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

// Get handles GET /api/workers/{id}.
func (h *WorkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	wk, err := h.Workers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.Logger, "get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, wk)
}

// Create handles POST /api/workers.
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "cannot read body")
		return
	}
	if err := h.Validator.Validate(services.SchemaWorker, body); err != nil {
		writeError(w, h.Logger, "validate worker", err)
		return
	}
	var wk models.Worker
	if err := json.Unmarshal(body, &wk); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.Workers.Create(r.Context(), &wk); err != nil {
		writeError(w, h.Logger, "create worker", err)
		return
	}
	h.Logger.Info("worker created", "worker_id", wk.ID, "skills", len(wk.Skills), "shifts", len(wk.Shifts))
	writeJSON(w, http.StatusCreated, wk)
}

// Delete handles DELETE /api/workers/{id}.
func (h *WorkerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Workers.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.Logger, "delete worker", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Skills handles GET /api/skills.
func (h *WorkerHandler) Skills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.Workers.Skills(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list skills", err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

// Shifts handles GET /api/shifts.
func (h *WorkerHandler) Shifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Workers.Shifts(r.Context())
	if err != nil {
		writeError(w, h.Logger, "list shifts", err)
		return
	}
	writeJSON(w, http.StatusOK, shifts)
}
