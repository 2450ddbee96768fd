package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/services"
)

// AssignmentService is implemented by *services.AssignmentService.
type AssignmentService interface {
	List(ctx context.Context) ([]models.Assignment, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Assignment, error)
	Get(ctx context.Context, id int64) (*models.Assignment, error)
	Create(ctx context.Context, a *models.Assignment) error
	Delete(ctx context.Context, id int64) error
	Accept(ctx context.Context, id int64) (*models.Assignment, error)
	Reject(ctx context.Context, id int64, feedback string) (*models.Assignment, error)
}

// AssignmentHandler serves /api/assignments and the review endpoints.
type AssignmentHandler struct {
	Assignments AssignmentService
	Validator   PayloadValidator
	Logger      *slog.Logger
}

// List handles GET /api/assignments, optionally filtered by ?workerId=.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.Assignment
		err  error
	)
	if workerID := r.URL.Query().Get("workerId"); workerID != "" {
		list, err = h.Assignments.ListByWorker(r.Context(), workerID)
	} else {
		list, err = h.Assignments.List(r.Context())
	}
	if err != nil {
		writeError(w, h.Logger, "list assignments", err)
		return
	}
	if list == nil {
		list = []models.Assignment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/assignments/{id}.
func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	a, err := h.Assignments.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "get assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Create handles POST /api/assignments for manual assignments.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "cannot read body")
		return
	}
	if err := h.Validator.Validate(services.SchemaAssignment, body); err != nil {
		writeError(w, h.Logger, "validate assignment", err)
		return
	}
	var a models.Assignment
	if err := json.Unmarshal(body, &a); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	a.ID = 0
	if err := h.Assignments.Create(r.Context(), &a); err != nil {
		writeError(w, h.Logger, "create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// Delete handles DELETE /api/assignments/{id}.
func (h *AssignmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	if err := h.Assignments.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "delete assignment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Accept handles POST /api/assignments/optimize/{id}/accept.
func (h *AssignmentHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	a, err := h.Assignments.Accept(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "accept assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type rejectRequest struct {
	Feedback string `json:"feedback"`
}

// Reject handles POST /api/assignments/optimize/{id}/reject with an optional
// {"feedback": "..."} body.
func (h *AssignmentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req rejectRequest
	body, err := readBody(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "cannot read body")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	a, err := h.Assignments.Reject(r.Context(), id, req.Feedback)
	if err != nil {
		writeError(w, h.Logger, "reject assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
