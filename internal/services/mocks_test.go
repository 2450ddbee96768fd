package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wmsopt/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory stores. Writes made through a fakeTx are undone on Rollback,
// so rollback paths can be asserted without a database.
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// fakeTx applies writes immediately and undoes them on Rollback unless committed.
type fakeTx struct {
	noopTx
	undo      []func()
	committed bool
	// afterCommit runs once the commit is visible, like a queue worker picking up a job.
	afterCommit func()
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	if tx.afterCommit != nil {
		tx.afterCommit()
	}
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.committed {
		return nil
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	return nil
}

// --- TxBeginner mock ---

type mockPool struct {
	mu  sync.Mutex
	txs []*fakeTx
	// nextCommit is attached to the next transaction only.
	nextCommit func()
}

func (p *mockPool) Begin(context.Context) (pgx.Tx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx := &fakeTx{afterCommit: p.nextCommit}
	p.nextCommit = nil
	p.txs = append(p.txs, tx)
	return tx, nil
}

func (p *mockPool) commits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, tx := range p.txs {
		if tx.committed {
			n++
		}
	}
	return n
}

// --- TaskStore mock ---

type memTasks struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task
}

func newMemTasks(tasks ...models.Task) *memTasks {
	m := &memTasks{tasks: make(map[int64]models.Task)}
	for _, t := range tasks {
		m.tasks[t.ID] = t
		if t.ID > m.nextID {
			m.nextID = t.ID
		}
	}
	return m
}

func (m *memTasks) Create(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	m.tasks[t.ID] = *t
	return nil
}

func (m *memTasks) GetByID(_ context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (m *memTasks) Update(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.tasks[t.ID] = *t
	return nil
}

func (m *memTasks) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTasks) List(context.Context) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTasks) ListTx(ctx context.Context, _ pgx.Tx) ([]models.Task, error) {
	return m.List(ctx)
}

// --- WorkerStore mock ---

type memWorkers struct {
	mu      sync.Mutex
	workers []models.Worker
}

func newMemWorkers(workers ...models.Worker) *memWorkers {
	return &memWorkers{workers: workers}
}

func (m *memWorkers) Create(_ context.Context, w *models.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.workers {
		if existing.ID == w.ID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	m.workers = append(m.workers, *w)
	return nil
}

func (m *memWorkers) GetByID(_ context.Context, id string) (*models.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workers {
		if w.ID == id {
			return &w, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memWorkers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.workers {
		if w.ID == id {
			m.workers = append(m.workers[:i], m.workers[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memWorkers) List(context.Context) ([]models.Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Worker(nil), m.workers...), nil
}

func (m *memWorkers) ListTx(ctx context.Context, _ pgx.Tx) ([]models.Worker, error) {
	return m.List(ctx)
}

func (m *memWorkers) ListSkills(context.Context) ([]models.SkillInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.SkillInfo
	for _, w := range m.workers {
		all = append(all, w.Skills...)
	}
	return models.CollapseSkills(all), nil
}

func (m *memWorkers) ListShifts(context.Context) ([]models.ShiftInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ShiftInfo
	for _, w := range m.workers {
		out = append(out, w.Shifts...)
	}
	return out, nil
}

// --- Assignment store mock ---

type memAssignments struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.Assignment
}

func newMemAssignments(rows ...models.Assignment) *memAssignments {
	m := &memAssignments{}
	for _, a := range rows {
		m.nextID++
		a.ID = m.nextID
		m.rows = append(m.rows, a)
	}
	return m
}

func (m *memAssignments) snapshot() []models.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Assignment(nil), m.rows...)
}

func (m *memAssignments) Create(_ context.Context, a *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAssignments) GetByID(_ context.Context, id int64) (*models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memAssignments) GetForUpdateTx(ctx context.Context, _ pgx.Tx, id int64) (*models.Assignment, error) {
	return m.GetByID(ctx, id)
}

// change runs f under the lock and, inside a fakeTx, registers its undo.
func (m *memAssignments) change(tx pgx.Tx, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := append([]models.Assignment(nil), m.rows...)
	f()
	if ft, ok := tx.(*fakeTx); ok {
		ft.undo = append(ft.undo, func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.rows = before
		})
	}
}

func (m *memAssignments) UpdateStatusTx(_ context.Context, tx pgx.Tx, id int64, status models.AssignmentStatus, feedback *string) error {
	m.change(tx, func() {
		for i := range m.rows {
			if m.rows[i].ID == id {
				m.rows[i].Status = status
				m.rows[i].Feedback = feedback
			}
		}
	})
	return nil
}

func (m *memAssignments) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.rows {
		if a.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memAssignments) List(context.Context) ([]models.Assignment, error) {
	return m.snapshot(), nil
}

func (m *memAssignments) ListTx(context.Context, pgx.Tx) ([]models.Assignment, error) {
	return m.snapshot(), nil
}

func (m *memAssignments) ListByWorker(_ context.Context, workerID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range m.snapshot() {
		if a.WorkerID == workerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssignments) InsertTx(_ context.Context, tx pgx.Tx, list []models.Assignment) error {
	m.change(tx, func() {
		for i := range list {
			m.nextID++
			list[i].ID = m.nextID
			m.rows = append(m.rows, list[i])
		}
	})
	return nil
}

func (m *memAssignments) DeletePendingTx(_ context.Context, tx pgx.Tx) (int64, error) {
	var n int64
	m.change(tx, func() {
		kept := make([]models.Assignment, 0, len(m.rows))
		for _, a := range m.rows {
			if a.Status == models.AssignmentPending {
				n++
				continue
			}
			kept = append(kept, a)
		}
		m.rows = kept
	})
	return n, nil
}

func (m *memAssignments) CountByStatus(context.Context) (map[models.AssignmentStatus]int, error) {
	out := map[models.AssignmentStatus]int{
		models.AssignmentPending:  0,
		models.AssignmentAccepted: 0,
		models.AssignmentRejected: 0,
	}
	for _, a := range m.snapshot() {
		out[a.Status]++
	}
	return out, nil
}

// --- Publisher mock ---

type recordedEvent struct {
	subject string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{subject: subject, payload: v})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}

var errBoom = errors.New("boom")
