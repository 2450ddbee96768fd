package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubPlanner struct {
	got services.OptimizeRequest
}

func (s *stubPlanner) DefaultStrategy() services.Strategy { return services.StrategyMatching }
func (s *stubPlanner) Optimize(_ context.Context, req services.OptimizeRequest) (*services.Plan, error) {
	s.got = req
	return &services.Plan{Strategy: req.Strategy, Assigned: 1}, nil
}

type stubData struct {
	tasks   []models.Task
	workers map[string]*models.Worker
}

func (s *stubData) List(context.Context) ([]models.Task, error) { return s.tasks, nil }
func (s *stubData) Get(_ context.Context, id string) (*models.Worker, error) {
	w, ok := s.workers[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return w, nil
}

type stubAssignments struct{ rows []models.Assignment }

func (s stubAssignments) List(context.Context) ([]models.Assignment, error) { return s.rows, nil }
func (s stubAssignments) ListByWorker(_ context.Context, id string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range s.rows {
		if a.WorkerID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func idPtr(v int64) *int64 { return &v }

func newTestRegistry(t *testing.T) (*Registry, *stubPlanner) {
	t.Helper()
	data := &stubData{
		tasks: []models.Task{
			{ID: 1, SkillID: 200, Name: "Unload"},
			{ID: 2, SkillID: 200, Name: "Shelve", DependentTaskID: idPtr(1)},
			{ID: 3, SkillID: 240, Name: "Pack"},
			{ID: 4, SkillID: 240, Name: "Wrap"},
		},
		workers: map[string]*models.Worker{"A1B2C3D": {ID: "A1B2C3D", Name: "Alice"}},
	}
	assignments := stubAssignments{rows: []models.Assignment{
		{ID: 1, WorkerID: "A1B2C3D", TaskID: 3, Status: models.AssignmentPending},
		{ID: 2, WorkerID: "A1B2C3D", TaskID: 4, Status: models.AssignmentRejected},
	}}
	planner := &stubPlanner{}
	reg, err := NewBuiltin(Deps{Planner: planner, Tasks: data, Workers: data, Assignments: assignments})
	require.NoError(t, err)
	return reg, planner
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry_ListIsSorted(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var names []string
	for _, tool := range reg.List() {
		names = append(names, tool.Name)
	}
	require.Equal(t, []string{ToolGetWorkerSchedule, ToolListUnassignedTasks, ToolOptimizeAssignments}, names)
}

func TestRegistry_DuplicateAndBadSchema(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, json.RawMessage) (any, error) { return nil, nil }

	require.NoError(t, reg.Register("x", "", `{"type":"object"}`, noop))
	require.Error(t, reg.Register("x", "", `{"type":"object"}`, noop))
	require.Error(t, reg.Register("y", "", `{"type":`, noop))
}

func TestRegistry_Call(t *testing.T) {
	reg, planner := newTestRegistry(t)
	ctx := context.Background()

	t.Run("optimize defaults", func(t *testing.T) {
		res, err := reg.Call(ctx, ToolOptimizeAssignments, nil)
		require.NoError(t, err)
		require.Equal(t, services.StrategyMatching, res.(*services.Plan).Strategy)
		require.False(t, planner.got.Replace)
	})

	t.Run("optimize with arguments", func(t *testing.T) {
		_, err := reg.Call(ctx, ToolOptimizeAssignments, json.RawMessage(`{"strategy":"remote","replace":true}`))
		require.NoError(t, err)
		require.Equal(t, services.StrategyRemote, planner.got.Strategy)
		require.True(t, planner.got.Replace)
	})

	t.Run("schema rejects unknown strategy", func(t *testing.T) {
		_, err := reg.Call(ctx, ToolOptimizeAssignments, json.RawMessage(`{"strategy":"annealing"}`))
		require.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := reg.Call(ctx, "delete_everything", nil)
		require.ErrorIs(t, err, ErrUnknownTool)
	})

	t.Run("unassigned tasks", func(t *testing.T) {
		res, err := reg.Call(ctx, ToolListUnassignedTasks, json.RawMessage(`{}`))
		require.NoError(t, err)
		rows := res.([]UnassignedTask)
		require.Len(t, rows, 3, "task 3 is pending; rejected task 4 is open again")
		require.Equal(t, int64(1), rows[0].ID)
		require.True(t, rows[0].Eligible)
		require.Equal(t, int64(2), rows[1].ID)
		require.False(t, rows[1].Eligible)
		require.Equal(t, int64(4), rows[2].ID)
	})

	t.Run("worker schedule", func(t *testing.T) {
		res, err := reg.Call(ctx, ToolGetWorkerSchedule, json.RawMessage(`{"workerId":"A1B2C3D"}`))
		require.NoError(t, err)
		sch := res.(WorkerSchedule)
		require.Equal(t, "Alice", sch.Worker.Name)
		require.Len(t, sch.Assignments, 2)

		_, err = reg.Call(ctx, ToolGetWorkerSchedule, json.RawMessage(`{}`))
		require.ErrorIs(t, err, ErrInvalidArguments)

		_, err = reg.Call(ctx, ToolGetWorkerSchedule, json.RawMessage(`{"workerId":"nobody"}`))
		require.ErrorIs(t, err, services.ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

func TestHandler(t *testing.T) {
	reg, _ := newTestRegistry(t)
	h := NewHandler(reg, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tools", h.List)
	mux.HandleFunc("POST /api/tools/{name}", h.Call)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
		expect string
	}{
		{"list", http.MethodGet, "/api/tools", "", http.StatusOK, `"name":"get_worker_schedule"`},
		{"call", http.MethodPost, "/api/tools/optimize_assignments", `{}`, http.StatusOK, `"tool":"optimize_assignments"`},
		{"unknown", http.MethodPost, "/api/tools/nope", `{}`, http.StatusNotFound, "unknown tool"},
		{"bad args", http.MethodPost, "/api/tools/get_worker_schedule", `{"workerId":""}`, http.StatusUnprocessableEntity, "invalid tool arguments"},
		{"missing worker", http.MethodPost, "/api/tools/get_worker_schedule", `{"workerId":"x"}`, http.StatusNotFound, "not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			require.Equal(t, tc.want, rec.Code, rec.Body.String())
			require.Contains(t, rec.Body.String(), tc.expect)
		})
	}
}
