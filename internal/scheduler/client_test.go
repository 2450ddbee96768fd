package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wmsopt/backend/internal/models"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, url string, mut ...func(*Options)) *Client {
	t.Helper()
	opts := Options{
		Retry: RetryConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			MaxRetries:      2,
		},
		FailureThreshold: 10,
	}
	for _, m := range mut {
		m(&opts)
	}
	c, err := NewClient(url, opts)
	require.NoError(t, err)
	return c
}

func sampleRequest() *Request {
	return &Request{
		Date: "2025-06-04",
		Tasks: []TaskSpec{
			{ID: "1", Name: "Pick items for order #123", SkillID: 200, Priority: 1, Units: 2, Dependencies: []string{}},
			{ID: "2", Name: "Pack order #124", SkillID: 240, Priority: 2, Units: 1, Dependencies: []string{}},
		},
		Workers: []WorkerSpec{{ID: "A1B2C3D", Name: "Alice", Skills: []int{200}, ShiftStart: "08:00", ShiftEnd: "17:00"}},
	}
}

const validResponse = `{
  "assignments": [
    {"worker_id": "A1B2C3D", "task_id": "1", "start": "2025-06-04T08:00:00", "end": "2025-06-04T09:00:00", "units": 2, "is_break": false},
    {"worker_id": "A1B2C3D", "task_id": "break", "start": "2025-06-04T12:00:00", "end": "2025-06-04T13:00:00", "units": 0, "is_break": true}
  ],
  "unassigned_tasks": [{"id": 2, "remaining_units": 1}]
}`

// ---------------------------------------------------------------------------
// Optimize
// ---------------------------------------------------------------------------

func TestOptimize_Success(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/optimize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(validResponse))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).Optimize(context.Background(), sampleRequest())

	require.NoError(t, err)
	require.Equal(t, "2025-06-04", got.Date)
	require.Len(t, resp.Assignments, 2)
	require.Equal(t, "Pick items for order #123", resp.Assignments[0].TaskName)
	require.Equal(t, BreakTaskName, resp.Assignments[1].TaskName)
	require.Equal(t, 8, resp.Assignments[0].Start.Hour())
	require.Equal(t, ID("2"), resp.UnassignedTasks[0].ID)
	require.Equal(t, "Pack order #124", resp.UnassignedTasks[0].TaskName)
}

func TestOptimize_MalformedResponseIsFatal(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing assignments", `{"unassigned_tasks": []}`},
		{"missing units", `{"assignments": [{"worker_id": "w", "task_id": "1", "start": "2025-06-04T08:00:00", "end": "2025-06-04T09:00:00"}]}`},
		{"bad timestamp", `{"assignments": [{"worker_id": "w", "task_id": "1", "start": "tomorrow", "end": "2025-06-04T09:00:00", "units": 1}]}`},
		{"ends before start", `{"assignments": [{"worker_id": "w", "task_id": "1", "start": "2025-06-04T10:00:00", "end": "2025-06-04T09:00:00", "units": 1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			resp, err := newTestClient(t, srv.URL).Optimize(context.Background(), sampleRequest())

			require.Nil(t, resp)
			require.ErrorIs(t, err, ErrMalformedResponse)
			require.Equal(t, int32(1), calls.Load(), "malformed responses are not retried")
		})
	}
}

func TestOptimize_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(validResponse))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).Optimize(context.Background(), sampleRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, int32(3), calls.Load())
}

func TestOptimize_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Optimize(context.Background(), sampleRequest())

	require.ErrorIs(t, err, ErrRemoteStatus)
	require.Equal(t, int32(1), calls.Load())
}

func TestOptimize_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) {
		o.Retry.MaxRetries = 0
		o.FailureThreshold = 2
		o.OpenTimeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := c.Optimize(context.Background(), sampleRequest())
		require.ErrorIs(t, err, ErrRemoteStatus)
	}
	_, err := c.Optimize(context.Background(), sampleRequest())

	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, int32(2), calls.Load())
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient("", Options{})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// BuildRequest
// ---------------------------------------------------------------------------

func TestBuildRequest(t *testing.T) {
	dep := int64(1)
	wednesday := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: 1, SkillID: 200, Name: "Pick", UnitCount: 2},
		{ID: 2, SkillID: 240, Name: "Pack", UnitCount: 1, DependentTaskID: &dep, Priority: func() *int { p := 3; return &p }()},
	}
	workers := []models.Worker{
		{
			ID: "A", Name: "Alice",
			Skills: []models.SkillInfo{
				{SkillID: 240, SkillLevel: 1, Productivity: 40},
				{SkillID: 200, SkillLevel: 2, Productivity: 10},
				{SkillID: 240, SkillLevel: 3, Productivity: 20},
			},
			Shifts: []models.ShiftInfo{
				{ShiftID: 1, StartTime: "06:00", EndTime: "14:00", DayOfWeek: "Monday"},
				{ShiftID: 2, StartTime: "10:00", EndTime: "18:00", DayOfWeek: "wed"},
			},
		},
		{ID: "B", Name: "Bob"},
	}

	req := BuildRequest(wednesday, tasks, workers, 60)

	require.Equal(t, "2025-06-04", req.Date)
	require.Equal(t, 1, req.Tasks[0].Priority, "unset priority is sent as the default")
	require.Equal(t, []string{}, req.Tasks[0].Dependencies)
	require.Equal(t, []string{"1"}, req.Tasks[1].Dependencies)

	alice := req.Workers[0]
	require.Equal(t, []int{200, 240}, alice.Skills)
	require.Equal(t, map[int]int{200: 10, 240: 40}, alice.Productivity)
	require.Equal(t, map[int]int{200: 2, 240: 3}, alice.SkillLevels)
	require.Equal(t, "10:00", alice.ShiftStart)
	require.Equal(t, "18:00", alice.ShiftEnd)
	require.Equal(t, 60, alice.BreakMinutes)

	bob := req.Workers[1]
	require.Equal(t, DefaultShiftStart, bob.ShiftStart)
	require.Equal(t, DefaultShiftEnd, bob.ShiftEnd)
}

func TestShiftFor_FallsBackToFirstShift(t *testing.T) {
	shifts := []models.ShiftInfo{
		{ShiftID: 7, DayOfWeek: "SATURDAY"},
		{ShiftID: 8, DayOfWeek: ""},
	}

	s, ok := ShiftFor(shifts, time.Tuesday)
	require.True(t, ok)
	require.Equal(t, 7, s.ShiftID)

	s, ok = ShiftFor(shifts, time.Saturday)
	require.True(t, ok)
	require.Equal(t, 7, s.ShiftID)

	_, ok = ShiftFor(nil, time.Saturday)
	require.False(t, ok)
}
