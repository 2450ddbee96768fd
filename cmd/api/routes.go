package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wmsopt/backend/internal/handlers"
	"github.com/wmsopt/backend/internal/middleware"
	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/services"
	"github.com/wmsopt/backend/internal/tools"
)

type apiDeps struct {
	Tasks       *services.TaskService
	Workers     *services.WorkerService
	Assignments *services.AssignmentService
	Planner     *services.Planner
	Validator   *services.Validator
	Tokens      middleware.TokenValidator
	APIKeys     middleware.APIKeyRepo
	Logger      *slog.Logger
}

// RegisterAPIRoutes adds the task, worker, assignment, optimization and tool
// endpoints to the given mux.
// Reads are open; writes require a supervisor session (RequireUser);
// tools require an API key (APIKeyAuth).
func RegisterAPIRoutes(mux *http.ServeMux, d apiDeps) error {
	th := &handlers.TaskHandler{Tasks: d.Tasks, Validator: d.Validator, Logger: d.Logger}
	wh := &handlers.WorkerHandler{Workers: d.Workers, Validator: d.Validator, Logger: d.Logger}
	ah := &handlers.AssignmentHandler{Assignments: d.Assignments, Validator: d.Validator, Logger: d.Logger}
	oh := &handlers.OptimizeHandler{Planner: d.Planner, Logger: d.Logger}

	registry, err := tools.NewBuiltin(tools.Deps{
		Planner:     d.Planner,
		Tasks:       d.Tasks,
		Workers:     d.Workers,
		Assignments: d.Assignments,
	})
	if err != nil {
		return fmt.Errorf("register tools: %w", err)
	}
	toolH := tools.NewHandler(registry, d.Logger)

	supervisor := middleware.RequireUser(d.Tokens, models.RoleSupervisor)
	write := func(h http.HandlerFunc) http.Handler { return supervisor(h) }
	apiKey := middleware.APIKeyAuth(d.APIKeys, d.Logger)

	// Tasks
	mux.HandleFunc("GET /api/tasks", th.List)
	mux.Handle("POST /api/tasks", write(th.Create))
	mux.HandleFunc("GET /api/tasks/{id}", th.Get)
	mux.Handle("PUT /api/tasks/{id}", write(th.Update))
	mux.Handle("DELETE /api/tasks/{id}", write(th.Delete))

	// Workers, skills and shifts
	mux.HandleFunc("GET /api/workers", wh.List)
	mux.Handle("POST /api/workers", write(wh.Create))
	mux.HandleFunc("GET /api/workers/{id}", wh.Get)
	mux.Handle("DELETE /api/workers/{id}", write(wh.Delete))
	mux.HandleFunc("GET /api/skills", wh.Skills)
	mux.HandleFunc("GET /api/shifts", wh.Shifts)

	// Assignments
	mux.HandleFunc("GET /api/assignments", ah.List)
	mux.Handle("POST /api/assignments", write(ah.Create))
	mux.HandleFunc("GET /api/assignments/{id}", ah.Get)
	mux.Handle("DELETE /api/assignments/{id}", write(ah.Delete))

	// Optimization runs and review
	mux.Handle("POST /api/assignments/optimize", write(oh.Run))
	mux.HandleFunc("GET /api/assignments/optimize", oh.Latest)
	mux.HandleFunc("GET /api/assignments/optimize/runs/{runId}", oh.RunStatus)
	mux.Handle("POST /api/assignments/optimize/{id}/accept", write(ah.Accept))
	mux.Handle("POST /api/assignments/optimize/{id}/reject", write(ah.Reject))

	// Agent tools
	mux.Handle("GET /api/tools", apiKey(http.HandlerFunc(toolH.List)))
	mux.Handle("POST /api/tools/{name}", apiKey(http.HandlerFunc(toolH.Call)))
	return nil
}
