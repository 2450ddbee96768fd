package tools

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/wmsopt/backend/internal/middleware"
	"github.com/wmsopt/backend/internal/services"
)

type Handler struct {
	reg *Registry
	log *slog.Logger
}

func NewHandler(reg *Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{reg: reg, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// List handles GET /api/tools.
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.List())
}

// Call handles POST /api/tools/{name}. The body is the tool's argument object.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	args, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot read body"})
		return
	}

	log := h.log.With("tool", name)
	if acc := middleware.AccountFromCtx(r.Context()); acc != nil {
		log = log.With("account_id", acc.ID)
	}

	result, err := h.reg.Call(r.Context(), name, args)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrUnknownTool), errors.Is(err, services.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrInvalidArguments), errors.Is(err, services.ErrValidation):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, services.ErrRemoteUnavailable):
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			log.Error("tool call failed", "error", err)
			writeJSON(w, status, map[string]string{"error": "internal error"})
			return
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	log.Info("tool called")
	writeJSON(w, http.StatusOK, map[string]any{"tool": name, "result": result})
}
