package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wmsopt/backend/internal/services"
)

// Planner is implemented by *services.Planner.
type Planner interface {
	DefaultStrategy() services.Strategy
	Optimize(ctx context.Context, req services.OptimizeRequest) (*services.Plan, error)
	Enqueue(ctx context.Context, req services.OptimizeRequest) (uuid.UUID, error)
	Latest(strategy services.Strategy) (*services.Plan, bool)
	RunStatus(runID uuid.UUID) (services.RunStatus, bool)
}

// OptimizeHandler serves /api/assignments/optimize.
type OptimizeHandler struct {
	Planner Planner
	Logger  *slog.Logger
}

type enqueueResponse struct {
	RunID  uuid.UUID         `json:"runId"`
	Status services.RunState `json:"status"`
}

// Run handles POST /api/assignments/optimize.
//
// Query parameters: strategy=matching|remote, replace=true deletes Pending
// assignments first, async=true queues the run and answers 202 with its id,
// date=YYYY-MM-DD sets the planning day for the remote strategy.
func (h *OptimizeHandler) Run(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	strategy, err := services.ParseStrategy(q.Get("strategy"), h.Planner.DefaultStrategy())
	if err != nil {
		writeError(w, h.Logger, "parse strategy", err)
		return
	}
	req := services.OptimizeRequest{Strategy: strategy, Replace: queryBool(r, "replace")}
	if d := q.Get("date"); d != "" {
		req.Date, err = time.Parse(time.DateOnly, d)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	if queryBool(r, "async") {
		runID, err := h.Planner.Enqueue(r.Context(), req)
		if err != nil {
			writeError(w, h.Logger, "enqueue optimization", err)
			return
		}
		w.Header().Set("Location", "/api/assignments/optimize/runs/"+runID.String())
		writeJSON(w, http.StatusAccepted, enqueueResponse{RunID: runID, Status: services.RunQueued})
		return
	}

	plan, err := h.Planner.Optimize(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "optimize", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Latest handles GET /api/assignments/optimize.
func (h *OptimizeHandler) Latest(w http.ResponseWriter, r *http.Request) {
	strategy, err := services.ParseStrategy(r.URL.Query().Get("strategy"), h.Planner.DefaultStrategy())
	if err != nil {
		writeError(w, h.Logger, "parse strategy", err)
		return
	}
	plan, ok := h.Planner.Latest(strategy)
	if !ok {
		writeMessage(w, http.StatusNotFound, "no optimization has run yet")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// RunStatus handles GET /api/assignments/optimize/runs/{runId}.
func (h *OptimizeHandler) RunStatus(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("runId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid run id")
		return
	}
	st, ok := h.Planner.RunStatus(runID)
	if !ok {
		writeMessage(w, http.StatusNotFound, "unknown run")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
